package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Plan describes a batch of statement files to convert.
type Plan struct {
	Output     string      `yaml:"output"`
	Statements []Statement `yaml:"statements"`
}

// Statement is one entry in the plan.
type Statement struct {
	Type string `yaml:"type"`
	File string `yaml:"file"`
}

func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	if len(p.Statements) == 0 {
		return nil, fmt.Errorf("plan has no statements")
	}
	return &p, nil
}

func (p *Plan) Print() {
	fmt.Printf("Output directory: %s\n", p.Output)
	for i, st := range p.Statements {
		fmt.Printf("[%d] type=%s file=%s\n", i+1, st.Type, st.File)
	}
}
