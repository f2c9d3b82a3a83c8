package service

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/sebu-dev/sebu/pkg/config"
	"github.com/sebu-dev/sebu/pkg/csv"
	"github.com/sebu-dev/sebu/pkg/models"
	"github.com/sebu-dev/sebu/pkg/ofx"
	"github.com/sebu-dev/sebu/pkg/parser"
)

// Processor converts statement files and writes the results to disk.
type Processor struct {
	config   *config.Config
	registry *parser.Registry
	logger   *log.Logger
}

func NewProcessor(cfg *config.Config, logger *log.Logger) *Processor {
	return &Processor{
		config:   cfg,
		registry: parser.NewRegistry(logger),
		logger:   logger,
	}
}

// ProcessDirectory converts every recognized statement file in dir.
// Files that fail are logged and skipped; files of unknown type are
// ignored.
func (p *Processor) ProcessDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("error reading directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if p.registry.Detect(entry.Name()) == nil {
			continue
		}
		if err := p.ProcessFile(filepath.Join(dir, entry.Name())); err != nil {
			p.logger.Error("failed to process file", "file", entry.Name(), "error", err)
		}
	}

	return nil
}

// ProcessFile converts one statement file, writing the output next to
// the input or into the configured output directory.
func (p *Processor) ProcessFile(inputPath string) error {
	plugin := p.registry.Detect(filepath.Base(inputPath))
	if plugin == nil {
		return fmt.Errorf("unknown file type: %s", inputPath)
	}

	p.logger.Info("processing file", "path", inputPath, "plugin", plugin.Name())

	stmt, lines, err := p.Parse(plugin, inputPath)
	if err != nil {
		return err
	}

	outputPath := p.determineOutputPath(inputPath)
	output, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer output.Close()

	switch p.config.Format {
	case "csv":
		if _, err := output.Write(csv.Create(lines, nil)); err != nil {
			return fmt.Errorf("error writing output file: %w", err)
		}
	default:
		if err := ofx.Write(output, stmt, lines); err != nil {
			return fmt.Errorf("error writing output file: %w", err)
		}
	}

	p.logger.Info("processed file", "input", inputPath, "output", outputPath, "records", len(lines))
	return nil
}

// Parse opens a statement file with the given plugin and drains its
// record stream.
func (p *Processor) Parse(plugin parser.Plugin, inputPath string) (*models.Statement, []*models.StatementLine, error) {
	f, err := os.Open(inputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	sp, err := plugin.Open(f)
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing file: %w", err)
	}
	defer sp.Close()

	var lines []*models.StatementLine
	for {
		line, err := sp.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("error parsing file: %w", err)
		}
		lines = append(lines, line)
	}

	return sp.Statement(), lines, nil
}

func (p *Processor) determineOutputPath(inputPath string) string {
	fileName := filepath.Base(inputPath)
	ext := filepath.Ext(fileName)
	baseName := strings.TrimSuffix(fileName, ext)
	suffix := "-sebu." + p.config.Format
	if p.config.OutputPath != "" {
		return filepath.Join(p.config.OutputPath, baseName+suffix)
	}
	return strings.TrimSuffix(inputPath, ext) + suffix
}
