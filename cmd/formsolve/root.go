package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/njchilds90/formsolve/internal/config"
	"github.com/njchilds90/formsolve/internal/pipeline"
	"github.com/njchilds90/formsolve/symbolic"
)

var version = "dev"

var (
	cfgFile  string
	verbose  bool
	v        = viper.New()
	cfg      config.Config
	logLevel = new(slog.LevelVar)
	logger   *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "formsolve",
	Short: "Solve math formulas from images or LaTeX",
	Long: `formsolve reads a math formula, either as an image through an OCR
backend or as LaTeX text, works out what kind of statement it is and
solves it: equations, inequalities, divisibility claims and plain
expressions.

Configuration hierarchy (highest to lowest priority):
  1. CLI flags
  2. Environment variables (FORMSOLVE_*)
  3. Config file (~/.formsolve/config.yaml)
  4. Defaults`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "formsolve", version)
	},
}

func init() {
	config.SetDefaults(v)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.formsolve/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")
	_ = v.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd, solveCmd, recognizeCmd, serveCmd, botCmd, configCmd)
}

// setup loads the configuration and installs the logger before any
// command runs.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.ReadFile(v, cfgFile); err != nil {
		return err
	}
	if verbose {
		v.Set("log.level", "debug")
	}
	var err error
	if cfg, err = config.Load(v); err != nil {
		return err
	}
	if logger, err = cfg.Log.Logger(os.Stderr, logLevel); err != nil {
		return err
	}
	slog.SetDefault(logger)
	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug("using config file", "file", used)
	}
	return nil
}

func newPipeline() *pipeline.Pipeline {
	return pipeline.New(symbolic.NewEngine(), logger)
}
