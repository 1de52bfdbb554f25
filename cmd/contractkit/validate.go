package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/reoring/contractkit/pattern"
	"github.com/reoring/contractkit/value"
)

func (a *app) validateCmd() *cobra.Command {
	var spec, schema, data string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Match a JSON or XML document against a named schema",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := a.load(spec)
			if err != nil {
				return err
			}
			if _, ok := c.Registry.Get(schema); !ok {
				return fmt.Errorf("schema %s is not defined in %s", schema, spec)
			}
			r, err := a.resolver(c)
			if err != nil {
				return err
			}
			v, err := a.readDocument(data)
			if err != nil {
				return err
			}
			res := pattern.Match(pattern.Ref(schema), v, r)
			if !res.IsSuccess() {
				fmt.Fprintln(a.stdout, res.Report())
				return errFailed
			}
			fmt.Fprintln(a.stdout, "ok")
			return nil
		},
	}
	cmd.Flags().StringVar(&spec, "spec", "", "contract file")
	cmd.Flags().StringVar(&schema, "schema", "", "component schema name")
	cmd.Flags().StringVar(&data, "data", "-", "document to validate, - for stdin")
	requireFlags(cmd, "spec", "schema")
	return cmd
}

// readDocument reads JSON, or XML when the content starts with '<'.
func (a *app) readDocument(path string) (value.Value, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(a.stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	for _, b := range raw {
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			continue
		}
		if b == '<' {
			return value.ParseXML(raw)
		}
		break
	}
	return value.ParseJSON(raw)
}
