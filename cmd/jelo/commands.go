package main

import (
	"bufio"
	"fmt"
	"runtime"
	"strings"

	"github.com/LotfiJL/Jelo/pkg/infrastructure/auth"
	"github.com/LotfiJL/Jelo/pkg/interfaces/cli/commands"
	"github.com/LotfiJL/Jelo/pkg/interfaces/cli/output"
	"github.com/spf13/cobra"
)

func newProjectCmd(a *app) *cobra.Command {
	var (
		input      inputFlags
		format     string
		outputDir  string
		workers    int
		references []string
		clients    []string
		weeks      []string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project remaining stock and report alerts",
		Long: `Load a planning table, compute the remaining stock of every reference week
by week and report the result.

Formats: ` + strings.Join(output.Formats, ", ") + `. Without --output the report is
printed to stdout; xlsx needs an output directory.`,
		Example: `  jelo project -i planning.csv -v
  jelo project -i planning.csv -f xlsx -o results/
  jelo project -i planning.csv --reference REF0001 --reference REF0002 -f json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, options, err := input.resolve(a.config)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("workers") {
				workers = a.config.Projection.Workers
			}

			project := commands.NewProjectCommand(commands.Config{
				InputFile:  path,
				CSV:        options,
				Workers:    workers,
				OutputDir:  stringFlag(cmd, "output", outputDir, a.config.Output.Dir),
				Format:     stringFlag(cmd, "format", format, a.config.Output.Format),
				References: references,
				Clients:    clients,
				Weeks:      weeks,
				Verbose:    verbose,
				Stdout:     cmd.OutOrStdout(),
			}, a.logger)
			return project.Execute(cmd.Context())
		},
	}

	input.register(cmd, "planning file")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: "+strings.Join(output.Formats, ", "))
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default: stdout)")
	cmd.Flags().IntVar(&workers, "workers", 0, "references projected concurrently (0 = every CPU)")
	cmd.Flags().StringArrayVar(&references, "reference", nil, "keep only this reference (repeatable)")
	cmd.Flags().StringArrayVar(&clients, "client", nil, "keep only this client (repeatable)")
	cmd.Flags().StringArrayVar(&weeks, "week", nil, "keep only this week (repeatable)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print progress")

	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var (
		input   inputFlags
		addr    string
		workers int
		noAuth  bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the projection dashboard over HTTP",
		Long: `Project a planning table once and serve the interactive dashboard, its JSON
API and the CSV/XLSX exports until interrupted.

Every route except /healthz requires HTTP Basic credentials of a user listed
under auth.users in the config file (see 'jelo hash-password').`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, options, err := input.resolve(a.config)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("workers") {
				workers = a.config.Projection.Workers
			}

			serve := commands.NewServeCommand(commands.ServeConfig{
				Project: commands.Config{
					InputFile: path,
					CSV:       options,
					Workers:   workers,
					Verbose:   verbose,
					Stdout:    cmd.OutOrStdout(),
				},
				Addr:         stringFlag(cmd, "addr", addr, a.config.Server.Addr),
				ReadTimeout:  a.config.Server.ReadTimeout,
				WriteTimeout: a.config.Server.WriteTimeout,
				Realm:        a.config.Auth.Realm,
				Users:        a.config.Auth.Users,
				RateLimit:    a.config.Server.RateLimit,
				Burst:        a.config.Server.Burst,
				NoAuth:       noAuth,
			}, a.logger)
			return serve.Execute(cmd.Context())
		},
	}

	input.register(cmd, "planning file")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().IntVar(&workers, "workers", 0, "references projected concurrently (0 = every CPU)")
	cmd.Flags().BoolVar(&noAuth, "no-auth", false, "serve without credentials")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print progress")

	return cmd
}

func newLoadCmd(a *app) *cobra.Command {
	var (
		input     inputFlags
		format    string
		outputDir string
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Compute the planned/client call load per family and week",
		Long: `Read a call-off schedule (columns Famille and "Type d'appel" among the first
five, one column per week from the sixth on) and print, for every family and
week, the ratio of planned calls to client calls.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, options, err := input.resolve(a.config)
			if err != nil {
				return err
			}

			load := commands.NewLoadCommand(commands.LoadConfig{
				InputFile: path,
				CSV:       options,
				Format:    format,
				OutputDir: outputDir,
				Verbose:   verbose,
				Stdout:    cmd.OutOrStdout(),
			}, a.logger)
			return load.Execute(cmd.Context())
		},
	}

	input.register(cmd, "call-off schedule file")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default: stdout)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print progress")

	return cmd
}

func newGenerateCmd(a *app) *cobra.Command {
	var config commands.GenerateConfig

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic planning table",
		Example: `  jelo generate -o scenarios/small --references 20 --weeks 12 --seed 42
  jelo generate -o scenarios/tight --tightness 0.8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Encoding = stringFlag(cmd, "encoding", config.Encoding, a.config.Input.Encoding)
			config.Stdout = cmd.OutOrStdout()
			return commands.NewGenerateCommand(config).Execute(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&config.OutputDir, "output", "o", "", "output directory")
	cmd.Flags().IntVar(&config.References, "references", 50, "number of references")
	cmd.Flags().IntVar(&config.Weeks, "weeks", 12, "number of weeks")
	cmd.Flags().IntVar(&config.FirstWeek, "first-week", 1, "label of the first week")
	cmd.Flags().IntVar(&config.Clients, "clients", 3, "number of clients")
	cmd.Flags().Float64Var(&config.Tightness, "tightness", 1.0, "supply multiplier, below 1 produces shortfalls")
	cmd.Flags().StringVar(&config.Encoding, "encoding", "latin1", "file encoding: latin1, windows-1252, cp850, utf-8")
	cmd.Flags().Int64Var(&config.Seed, "seed", 0, "random seed (default: time based)")
	cmd.Flags().BoolVarP(&config.Verbose, "verbose", "v", false, "print progress")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the bcrypt hash of a dashboard password",
		Long: `Print a bcrypt hash to paste as password_hash under auth.users in jelo.yaml.
Without an argument the password is read from the first line of stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				if scanner.Scan() {
					password = strings.TrimRight(scanner.Text(), "\r")
				}
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
			}

			hash, err := auth.HashPassword(password, cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", auth.BcryptCost, "bcrypt cost")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "jelo version %s\n", Version)
			fmt.Fprintf(out, "  commit:  %s\n", Commit)
			fmt.Fprintf(out, "  go:      %s\n", runtime.Version())
			fmt.Fprintf(out, "  os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}
