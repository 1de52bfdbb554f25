package main

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/reoring/contractkit/pattern"
	"github.com/reoring/contractkit/scenario"
	"github.com/reoring/contractkit/value"
)

func (a *app) testsCmd() *cobra.Command {
	var spec, baseURL string
	var generative, positiveOnly bool
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "tests",
		Short: "List the contract test cases, or run them against a service",
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
			if generative || positiveOnly {
				r = r.WithGeneration(pattern.Generative{PositiveOnly: positiveOnly})
			}

			var rn *scenario.Runner
			if baseURL != "" {
				rn = &scenario.Runner{
					BaseURL:  baseURL,
					Client:   &http.Client{Timeout: timeout},
					Resolver: c.Resolver(),
					Logger:   a.logger,
				}
			}
			total, failed := 0, 0
			for tc, err := range scenario.Build(c, r) {
				if err != nil {
					return err
				}
				total++
				if rn == nil {
					fmt.Fprintf(a.stdout, "%s\texpect %s\t%s\t%s\n", tc.Name, tc.Expect, parameterText(tc), value.MarshalJSON(tc.Body))
					continue
				}
				res, err := rn.Run(cmd.Context(), tc)
				if err != nil {
					return err
				}
				if res.IsSuccess() {
					fmt.Fprintf(a.stdout, "PASS %s\n", tc.Name)
					continue
				}
				failed++
				fmt.Fprintf(a.stdout, "FAIL %s\n  parameters: %s\n  request: %s\n%s\n", tc.Name, parameterText(tc), value.MarshalJSON(tc.Body), res.Report())
			}
			if rn == nil {
				a.logger.Info("cases built", "total", total)
				return nil
			}
			fmt.Fprintf(a.stdout, "%d passed, %d failed\n", total-failed, failed)
			if failed > 0 {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&spec, "spec", "", "contract file")
	cmd.Flags().BoolVar(&generative, "generative", false, "expand optional keys exhaustively and add negative cases")
	cmd.Flags().BoolVar(&positiveOnly, "positive-only", false, "generative, without negative cases")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "run the cases against this service")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "per-request timeout")
	requireFlags(cmd, "spec")
	return cmd
}

// parameterText renders the parameters of tc as "path:id=7&query:limit=3",
// or "-" when there are none.
func parameterText(tc scenario.Case) string {
	if len(tc.Parameters) == 0 {
		return "-"
	}
	var parts []string
	for _, k := range slices.Sorted(maps.Keys(tc.Parameters)) {
		parts = append(parts, k+"="+value.Text(tc.Parameters[k]))
	}
	return strings.Join(parts, "&")
}
