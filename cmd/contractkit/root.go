package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/reoring/contractkit/internal/config"
	"github.com/reoring/contractkit/openapi"
	"github.com/reoring/contractkit/pattern"
)

// errFailed marks a completed run whose check did not pass. It maps to exit
// code 1; every other error is a usage or input problem.
var errFailed = errors.New("check failed")

type app struct {
	stdin          io.Reader
	stdout, stderr io.Writer

	configPath string
	envFiles   []string
	verbose    bool

	cfg    config.Config
	logger *slog.Logger
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errFailed):
		return 1
	}
	fmt.Fprintln(stderr, "error:", err)
	return 2
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "contractkit",
		Short:         "Check, exercise and stub OpenAPI contracts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
			cfg, err := config.Load(a.configPath, a.envFiles...)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger.Debug("configuration loaded", "path", a.configPath, "generative", cfg.Generative, "maxCombinations", cfg.MaxCombinations)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML run configuration")
	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", []string{".env"}, "dotenv files with CONTRACTKIT_* overrides")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		a.compatCmd(),
		a.validateCmd(),
		a.generateCmd(),
		a.testsCmd(),
		a.stubCmd(),
		a.schemaCmd(),
	)
	return root
}

// load compiles a contract and logs its warnings.
func (a *app) load(path string) (*openapi.Contract, error) {
	c, d, err := openapi.LoadFile(path, a.cfg.LoadOptions())
	if err != nil {
		return nil, err
	}
	for _, w := range d.Warnings() {
		a.logger.Warn(w, "spec", path)
	}
	a.logger.Debug("contract loaded", "spec", path, "operations", len(c.Operations), "schemas", c.Registry.Len())
	return c, nil
}

func (a *app) resolver(c *openapi.Contract) (*pattern.Resolver, error) {
	return a.cfg.Apply(c.Resolver())
}

func requireFlags(cmd *cobra.Command, names ...string) {
	for _, n := range names {
		_ = cmd.MarkFlagRequired(n)
	}
}
