package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/reoring/contractkit/internal/config"
	"github.com/reoring/contractkit/pattern"
	"github.com/reoring/contractkit/value"
)

func (a *app) generateCmd() *cobra.Command {
	var spec, schema, dictionary string
	var count int
	var seed uint64
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate example values for a named schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.load(spec)
			if err != nil {
				return err
			}
			r, err := a.resolver(c)
			if err != nil {
				return err
			}
			if dictionary != "" {
				d, err := config.LoadDictionary(dictionary)
				if err != nil {
					return err
				}
				r = r.WithDictionary(d)
			}
			if cmd.Flags().Changed("seed") {
				r = r.WithRand(rand.New(rand.NewPCG(seed, seed)))
			}
			for range count {
				v, err := pattern.Generate(pattern.Ref(schema), r)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, string(value.MarshalIndentJSON(v)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&spec, "spec", "", "contract file")
	cmd.Flags().StringVar(&schema, "schema", "", "component schema name")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of values")
	cmd.Flags().StringVar(&dictionary, "dictionary", "", "JSON dictionary of example values")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for reproducible output")
	requireFlags(cmd, "spec", "schema")
	return cmd
}
