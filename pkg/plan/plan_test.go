package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.yaml")
	content := `output: /tmp/out
statements:
  - type: seb_xlsx
    file: exports/january.xlsx
  - type: seb_xlsx
    file: exports/february.xlsx
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", p.Output)
	require.Len(t, p.Statements, 2)
	assert.Equal(t, "seb_xlsx", p.Statements[0].Type)
	assert.Equal(t, "exports/january.xlsx", p.Statements[0].File)
}

func TestLoadEmptyPlan(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: /tmp/out\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no statements")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
