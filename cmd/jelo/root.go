package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/LotfiJL/Jelo/pkg/infrastructure/config"
	"github.com/LotfiJL/Jelo/pkg/infrastructure/logging"
	csvrepo "github.com/LotfiJL/Jelo/pkg/infrastructure/repositories/csv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var (
	// Version is set at build time via ldflags.
	Version = "dev"
	// Commit is set at build time via ldflags.
	Commit = "none"
)

// app carries the state resolved before any subcommand runs
type app struct {
	configFile string
	logLevel   string

	config     *config.Config
	configPath string
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "jelo",
		Short: "Weekly stock projection and alert dashboard",
		Long: `Jelo projects the remaining stock of every reference week by week from a
supply/demand planning table, classifies each row (OK, safety stock not
covered, customer stoppage) and serves the result as reports or a dashboard.

A jelo.yaml file in the current directory (or any parent) provides defaults
for every command; flags override it.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default: jelo.yaml, jelo.yml or .jelo/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	root.AddCommand(newProjectCmd(a))
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newLoadCmd(a))
	root.AddCommand(newGenerateCmd(a))
	root.AddCommand(newHashPasswordCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// setup loads the configuration and builds the logger
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, path, err := config.LoadOrDefault(a.configFile, cwd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.config = cfg
	a.configPath = path

	level := cfg.Log.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	logger, err := logging.New(level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.logger = logger

	if path != "" {
		logger.Debug("configuration loaded", zap.String("path", path))
	}
	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) error {
	// stderr sync fails on some terminals; nothing useful to report
	_ = a.logger.Sync()
	return nil
}

// inputFlags are the planning/call file flags shared by several commands
type inputFlags struct {
	path         string
	delimiter    string
	encoding     string
	decimalComma bool
	flags        *pflag.FlagSet
}

func (f *inputFlags) register(cmd *cobra.Command, usage string) {
	f.flags = cmd.Flags()
	f.flags.StringVarP(&f.path, "input", "i", "", usage)
	f.flags.StringVar(&f.delimiter, "delimiter", ";", "field delimiter")
	f.flags.StringVar(&f.encoding, "encoding", csvrepo.EncodingLatin1, "file encoding: latin1, windows-1252, cp850, utf-8")
	f.flags.BoolVar(&f.decimalComma, "decimal-comma", false, "accept 12,5 as 12.5 in numeric cells")
}

// resolve merges the flags over the input section of cfg; flags win only when set
func (f *inputFlags) resolve(cfg *config.Config) (string, csvrepo.Options, error) {
	input := cfg.Input
	if f.flags.Changed("input") {
		input.Path = f.path
	}
	if f.flags.Changed("delimiter") {
		input.Delimiter = f.delimiter
	}
	if f.flags.Changed("encoding") {
		input.Encoding = f.encoding
	}
	if f.flags.Changed("decimal-comma") {
		input.DecimalComma = f.decimalComma
	}

	resolved := &config.Config{Input: input}
	if err := resolved.Validate(); err != nil {
		return "", csvrepo.Options{}, err
	}

	return input.Path, csvrepo.Options{
		Delimiter:    resolved.DelimiterRune(),
		Encoding:     strings.ToLower(input.Encoding),
		DecimalComma: input.DecimalComma,
	}, nil
}

// stringFlag returns value when the flag was set, fallback otherwise
func stringFlag(cmd *cobra.Command, name, value, fallback string) string {
	if cmd.Flags().Changed(name) || fallback == "" {
		return value
	}
	return fallback
}
