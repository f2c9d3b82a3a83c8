package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/sebu-dev/sebu/pkg/config"
	"github.com/sebu-dev/sebu/pkg/parser"
	"github.com/sebu-dev/sebu/pkg/plan"
	"github.com/sebu-dev/sebu/pkg/service"
)

var (
	cliFilters filters
	cfgFile    string
)

func newLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "sebu",
	})
}

var rootCmd = &cobra.Command{
	Use:   "sebu",
	Short: "Convert SEB statement exports to OFX or CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when no subcommand is provided
		return cmd.Help()
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert [flags] <input_path>",
	Short: "Convert statement files and print the result to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		processor := NewFileProcessor(cfg, logger, &cliFilters)

		matches, err := filepath.Glob(args[0])
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return fmt.Errorf("no files found matching pattern %s", args[0])
		}

		for _, match := range matches {
			fileInfo, err := os.Stat(match)
			if err != nil {
				logger.Warn("failed to stat file", "error", err, "file", match)
				continue
			}

			if fileInfo.IsDir() {
				if err := processor.ProcessDirectory(match); err != nil {
					logger.Warn("failed to process directory", "error", err, "dir", match)
				}
			} else {
				if err := processor.ProcessFile(match); err != nil {
					return err
				}
			}
		}
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show the statement summary of an export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		registry := parser.NewRegistry(logger)
		plugin := registry.Detect(filepath.Base(args[0]))
		if plugin == nil {
			return fmt.Errorf("unsupported file type: %s", args[0])
		}

		sp, err := plugin.Open(f)
		if err != nil {
			return err
		}
		defer sp.Close()

		pp.Println(sp.Statement())
		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan <plan_file>",
	Short: "Convert every statement listed in a YAML plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		p, err := plan.Load(args[0])
		if err != nil {
			return err
		}
		p.Print()

		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		if p.Output != "" {
			cfg.OutputPath = p.Output
		}

		processor := service.NewProcessor(cfg, logger)
		for _, st := range p.Statements {
			if err := processor.ProcessFile(st.File); err != nil {
				return fmt.Errorf("statement %s: %w", st.File, err)
			}
		}
		return nil
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output directory (default: same as input file)")
	rootCmd.PersistentFlags().String("format", "ofx", "Output format (ofx or csv)")

	// Filter flags (convert only)
	convertCmd.Flags().StringVar(&cliFilters.startDate, "start", "", "Start date (YYYY-MM-DD)")
	convertCmd.Flags().StringVar(&cliFilters.endDate, "end", "", "End date (YYYY-MM-DD)")
	convertCmd.Flags().Float64Var(&cliFilters.minAmount, "min", 0, "Minimum amount")
	convertCmd.Flags().Float64Var(&cliFilters.maxAmount, "max", 0, "Maximum amount")
	convertCmd.Flags().StringVar(&cliFilters.memo, "memo", "", "Filter by memo text (case insensitive)")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(planCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
