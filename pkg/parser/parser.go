package parser

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/sebu-dev/sebu/pkg/models"
)

// StatementParser streams one bank export. Statement returns the summary
// computed at construction; Next returns statement lines in source row
// order and io.EOF once the export is exhausted. The stream does not
// restart: reading the export again means opening a new parser.
type StatementParser interface {
	Statement() *models.Statement
	Next() (*models.StatementLine, error)
	Close() error
}

// Plugin turns an input stream into a StatementParser for one specific
// bank's export layout.
type Plugin interface {
	Name() string
	Open(r io.Reader) (StatementParser, error)
}

// Registry holds named statement plugins.
type Registry struct {
	logger  *log.Logger
	plugins map[string]Plugin
}

// NewRegistry creates a registry with all built-in plugins registered.
func NewRegistry(logger *log.Logger) *Registry {
	r := &Registry{
		logger:  logger,
		plugins: make(map[string]Plugin),
	}
	r.Register(NewSEBPlugin(logger))
	return r
}

// Register adds a plugin. Panics on duplicate name.
func (r *Registry) Register(p Plugin) {
	key := strings.ToLower(p.Name())
	if _, ok := r.plugins[key]; ok {
		panic("duplicate plugin name: " + key)
	}
	r.plugins[key] = p
}

// Get returns the plugin with the given name, or nil.
func (r *Registry) Get(name string) Plugin {
	return r.plugins[strings.ToLower(name)]
}

// Detect picks the plugin for a file based on its name. Only the SEB
// xlsx export is recognized today.
func (r *Registry) Detect(filename string) Plugin {
	lowerFilename := strings.ToLower(filename)
	if strings.HasSuffix(lowerFilename, ".xlsx") {
		return r.Get(SEBPluginName)
	}
	r.logger.Debug("unknown file type", "filename", filename)
	return nil
}
