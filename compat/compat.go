// Package compat decides whether a newer contract can replace an older one
// without breaking existing consumers.
//
// Operations are paired by method and path template. A consumer of the older
// contract keeps sending requests the older contract accepted, so request
// shapes are compared with the direction flipped: the newer request must
// accept everything the older one did. Responses are compared forward: every
// response the newer provider may send must still satisfy the older
// contract.
package compat

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/i18n"
	"github.com/reoring/contractkit/openapi"
	"github.com/reoring/contractkit/pattern"
)

// Breadcrumbs used at the top of every operation's failure tree.
const (
	Request    = "REQUEST"
	Response   = "RESPONSE"
	Body       = "BODY"
	Parameters = "PARAMETERS"
)

// OperationResult is the outcome for one operation of the older contract.
type OperationResult struct {
	Operation string
	Result    contractkit.Result
}

// Report aggregates the per-operation outcomes in the older contract's
// declaration order.
type Report struct {
	Results []OperationResult
}

// Compatible reports whether every operation passed.
func (r *Report) Compatible() bool {
	return !slices.ContainsFunc(r.Results, func(o OperationResult) bool { return !o.Result.IsSuccess() })
}

// Failures returns only the failed operations.
func (r *Report) Failures() []OperationResult {
	var out []OperationResult
	for _, o := range r.Results {
		if !o.Result.IsSuccess() {
			out = append(out, o)
		}
	}
	return out
}

// Issues flattens every failure, prefixing paths with the operation key.
func (r *Report) Issues() contractkit.Issues {
	var out contractkit.Issues
	for _, o := range r.Failures() {
		for _, it := range o.Result.Issues() {
			if it.Path == "" {
				it.Path = o.Operation
			} else {
				it.Path = o.Operation + " " + it.Path
			}
			out = contractkit.AppendIssues(out, it)
		}
	}
	return out
}

// String renders one section per failing operation.
func (r *Report) String() string {
	fails := r.Failures()
	if len(fails) == 0 {
		return fmt.Sprintf("compatible: %d operations checked", len(r.Results))
	}
	b := &strings.Builder{}
	fmt.Fprintf(b, "incompatible: %d of %d operations\n", len(fails), len(r.Results))
	for _, o := range fails {
		fmt.Fprintf(b, "\n== %s\n\n%s\n", o.Operation, o.Result.Report())
	}
	return strings.TrimRight(b.String(), "\n")
}

// Option configures Check.
type Option func(*checker)

// WithTranslator sets the language of the messages Check produces.
func WithTranslator(tr i18n.Translator) Option {
	return func(c *checker) { c.tr = tr }
}

// WithConcurrency bounds the number of operations compared at once.
func WithConcurrency(n int) Option {
	return func(c *checker) { c.limit = n }
}

type checker struct {
	older, newer *openapi.Contract
	tr           i18n.Translator
	limit        int
}

// Check compares every operation of older against its counterpart in newer.
// Operations are compared concurrently, each with resolvers of its own. The
// returned error is non-nil only when ctx is cancelled.
func Check(ctx context.Context, older, newer *openapi.Contract, opts ...Option) (*Report, error) {
	c := &checker{older: older, newer: newer, tr: i18n.New("en"), limit: runtime.GOMAXPROCS(0)}
	for _, o := range opts {
		o(c)
	}
	results := make([]OperationResult, len(older.Operations))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.limit, 1))
	for i, op := range older.Operations {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = OperationResult{Operation: op.Key(), Result: c.operation(op)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compat: %w", err)
	}
	return &Report{Results: results}, nil
}

func (c *checker) operation(old openapi.Operation) contractkit.Result {
	cur, ok := c.newer.Operation(old.Method, old.Path)
	if !ok {
		key := old.Key()
		return contractkit.FailWith(contractkit.CodeOperationRemoved,
			c.tr.Message(contractkit.CodeOperationRemoved, map[string]string{"key": key}),
			map[string]any{"key": key})
	}
	or, nr := c.older.Resolver(), c.newer.Resolver()
	return contractkit.Combine(
		c.request(old, cur, or, nr).Breadcrumb(Request),
		c.responses(old, cur, or, nr).Breadcrumb(Response),
	)
}

func (c *checker) request(old, cur openapi.Operation, or, nr *pattern.Resolver) contractkit.Result {
	var results []contractkit.Result
	for _, np := range cur.Parameters {
		i := slices.IndexFunc(old.Parameters, func(p openapi.Parameter) bool { return p.Name == np.Name && p.In == np.In })
		if i < 0 {
			if np.Required {
				results = append(results, c.required(np.Name).Breadcrumb(np.Name))
			}
			continue
		}
		op := old.Parameters[i]
		if np.Required && !op.Required {
			results = append(results, c.required(np.Name).Breadcrumb(np.Name))
			continue
		}
		results = append(results, pattern.Encompasses(np.Pattern, op.Pattern, nr, or).Breadcrumb(np.Name))
	}
	params := contractkit.Combine(results...).Breadcrumb(Parameters)

	var body contractkit.Result
	switch ob, nb := old.RequestBody, cur.RequestBody; {
	case nb == nil:
		// Whatever older consumers send is now ignored.
	case ob == nil:
		if nb.Required {
			body = c.required("body").Breadcrumb(Body)
		}
	default:
		body = pattern.Encompasses(nb.Pattern, ob.Pattern, nr, or).Breadcrumb(Body)
		if nb.Required && !ob.Required {
			body = contractkit.Combine(body, c.required("body").Breadcrumb(Body))
		}
	}
	return contractkit.Combine(params, body)
}

func (c *checker) responses(old, cur openapi.Operation, or, nr *pattern.Resolver) contractkit.Result {
	var results []contractkit.Result
	for _, nresp := range cur.Responses {
		oresp, ok := old.Response(nresp.Status)
		if !ok {
			if !hasClass(old, nresp) {
				results = append(results, c.incompatible(fmt.Sprintf(
					"Status %s is new and the older contract declares no response of its class", nresp.Status,
				)).Breadcrumb(nresp.Status))
			}
			continue
		}
		var res contractkit.Result
		switch {
		case oresp.Body == nil:
			// Older consumers ignore the content.
		case nresp.Body == nil:
			res = c.incompatible("Expected content, the newer response has none").Breadcrumb(Body)
		default:
			res = pattern.Encompasses(oresp.Body.Pattern, nresp.Body.Pattern, or, nr).Breadcrumb(Body)
		}
		results = append(results, res.Reason("In response "+nresp.Status))
	}
	return contractkit.Combine(results...)
}

// hasClass reports whether old declares a response of the same status class
// as r. Named statuses such as "default" only match each other.
func hasClass(old openapi.Operation, r openapi.Response) bool {
	if r.Code() == 0 {
		return slices.ContainsFunc(old.Responses, func(o openapi.Response) bool { return o.Code() == 0 })
	}
	return slices.ContainsFunc(old.Responses, func(o openapi.Response) bool { return o.Code()/100 == r.Code()/100 })
}

func (c *checker) required(key string) contractkit.Result {
	return contractkit.FailWith(contractkit.CodeRequired,
		c.tr.Message(contractkit.CodeRequired, map[string]string{"key": key}),
		map[string]any{"key": key})
}

func (c *checker) incompatible(detail string) contractkit.Result {
	return contractkit.Fail(contractkit.CodeIncompatible,
		c.tr.Message(contractkit.CodeIncompatible, map[string]string{"expected": detail}))
}
