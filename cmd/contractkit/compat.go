package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reoring/contractkit/compat"
)

func (a *app) compatCmd() *cobra.Command {
	var older, newer string
	var jobs int
	cmd := &cobra.Command{
		Use:   "compat",
		Short: "Check that a newer contract is backward compatible with an older one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o, err := a.load(older)
			if err != nil {
				return err
			}
			n, err := a.load(newer)
			if err != nil {
				return err
			}
			opts := []compat.Option{compat.WithTranslator(a.cfg.Translator())}
			if jobs > 0 {
				opts = append(opts, compat.WithConcurrency(jobs))
			}
			rep, err := compat.Check(cmd.Context(), o, n, opts...)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, rep)
			if !rep.Compatible() {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&older, "old", "", "older contract")
	cmd.Flags().StringVar(&newer, "new", "", "newer contract")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "operations compared at once (default GOMAXPROCS)")
	requireFlags(cmd, "old", "new")
	return cmd
}
