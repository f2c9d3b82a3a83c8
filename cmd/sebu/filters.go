package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/sebu-dev/sebu/pkg/config"
	"github.com/sebu-dev/sebu/pkg/csv"
	"github.com/sebu-dev/sebu/pkg/models"
	"github.com/sebu-dev/sebu/pkg/ofx"
	"github.com/sebu-dev/sebu/pkg/parser"
	"github.com/sebu-dev/sebu/pkg/service"
)

type filters struct {
	startDate string
	endDate   string
	minAmount float64
	maxAmount float64
	memo      string
}

func (f *filters) toFilterFunc() csv.FilterFunc {
	return func(l *models.StatementLine) bool {
		if f.startDate != "" {
			start, _ := time.Parse("2006-01-02", f.startDate)
			if l.Date.Before(start) {
				return false
			}
		}
		if f.endDate != "" {
			end, _ := time.Parse("2006-01-02", f.endDate)
			if l.Date.After(end) {
				return false
			}
		}
		if f.minAmount != 0 && l.Amount.LessThan(decimal.NewFromFloat(f.minAmount)) {
			return false
		}
		if f.maxAmount != 0 && l.Amount.GreaterThan(decimal.NewFromFloat(f.maxAmount)) {
			return false
		}
		if f.memo != "" && !strings.Contains(strings.ToLower(l.Memo), strings.ToLower(f.memo)) {
			return false
		}
		return true
	}
}

// FileProcessor converts statement files and prints the result to
// stdout, filtered by the CLI flags.
type FileProcessor struct {
	config    *config.Config
	logger    *log.Logger
	registry  *parser.Registry
	processor *service.Processor
	filters   *filters
}

func NewFileProcessor(cfg *config.Config, logger *log.Logger, filters *filters) *FileProcessor {
	return &FileProcessor{
		config:    cfg,
		logger:    logger,
		registry:  parser.NewRegistry(logger),
		processor: service.NewProcessor(cfg, logger),
		filters:   filters,
	}
}

func (p *FileProcessor) ProcessDirectory(inputDir string) error {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if p.registry.Detect(entry.Name()) == nil {
			continue
		}
		if err := p.ProcessFile(filepath.Join(inputDir, entry.Name())); err != nil {
			p.logger.Warn("error processing file", "error", err)
		}
	}

	return nil
}

func (p *FileProcessor) ProcessFile(inputPath string) error {
	plugin := p.registry.Detect(filepath.Base(inputPath))
	if plugin == nil {
		return fmt.Errorf("unsupported file type: %s", inputPath)
	}

	stmt, lines, err := p.processor.Parse(plugin, inputPath)
	if err != nil {
		return err
	}

	filter := p.filters.toFilterFunc()
	if p.config.Format == "csv" {
		fmt.Print(string(csv.Create(lines, filter)))
		return nil
	}

	kept := make([]*models.StatementLine, 0, len(lines))
	for _, l := range lines {
		if filter(l) {
			kept = append(kept, l)
		}
	}
	return ofx.Write(os.Stdout, stmt, kept)
}
