// =============================================================================
// Deficiency Notes Generator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI and the setup shared
// by every subcommand: configuration loading, logging and the job store.
//
// COBRA CLI STRUCTURE:
//   rootCmd (notesgen)
//   ├── generateCmd (notesgen generate)
//   ├── processCmd  (notesgen process)
//   ├── validateCmd (notesgen validate)
//   ├── importCmd   (notesgen import)
//   ├── previewCmd  (notesgen preview)
//   ├── templateCmd (notesgen template)
//   └── versionCmd  (notesgen version)
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ginjaninja78/deficiency-notes/internal/config"
	"github.com/ginjaninja78/deficiency-notes/internal/storage/sqlite"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// A missing file is not an error; the built-in defaults are used.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "notesgen",
	Short: "Deficiency Notes Generator - Build technician notes from equipment inspections",
	Long: `Deficiency Notes Generator turns the equipment list of a maintenance job and
the deficiencies recorded against it into the HTML notes document attached to
the job.

Key Features:
  - Battery strings numbered across the job, duplicate findings merged
  - UPS capacitor findings folded into one line per status
  - CSV, XLSX workbook or SQLite job store input
  - Configurable field rules for site-specific exports
  - Concurrent batch processing with archiving and summary logs

Example Usage:
  notesgen generate --workbook job.xlsx        # One job from a workbook
  notesgen generate --from-store --job 4711    # One imported job
  notesgen process                             # Every workbook in input_dir
  notesgen preview output/notes.html           # Show a document as text`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. Interrupts cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// loadConfig loads the configuration named by --config.
func loadConfig() (*config.MainConfig, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the console logger. Logs go to stderr so that notes
// printed to stdout stay clean.
func newLogger(cfg *config.MainConfig) (*zap.Logger, error) {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}

	atomic, err := zap.ParseAtomicLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = atomic
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	zc.DisableStacktrace = !verbose

	return zc.Build()
}

// setup loads the configuration and builds the logger.
func setup() (*config.MainConfig, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// openStore opens and bootstraps the job store named by database_dsn.
func openStore(ctx context.Context, cfg *config.MainConfig, logger *zap.Logger) (*sqlite.Store, func(), error) {
	store, closeFn, err := sqlite.Open(ctx, sqlite.Config{DSN: cfg.DatabaseDSN})
	if err != nil {
		return nil, nil, err
	}
	if err := store.Bootstrap(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	logger.Debug("Opened job store", zap.String("dsn", cfg.DatabaseDSN))
	return store, closeFn, nil
}
