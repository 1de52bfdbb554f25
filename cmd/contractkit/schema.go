package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reoring/contractkit/jsonschema"
	"github.com/reoring/contractkit/pattern"
)

func (a *app) schemaCmd() *cobra.Command {
	var spec, schema string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Export a named schema as a JSON Schema document",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := a.load(spec)
			if err != nil {
				return err
			}
			s, err := pattern.JSONSchema(pattern.Ref(schema), c.Registry)
			if err != nil {
				return err
			}
			out, err := jsonschema.Marshal(s)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&spec, "spec", "", "contract file")
	cmd.Flags().StringVar(&schema, "schema", "", "component schema name")
	requireFlags(cmd, "spec", "schema")
	return cmd
}
