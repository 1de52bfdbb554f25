// Package scenario turns the operations of a contract into concrete test
// cases: requests built from positive candidates of the request body and
// parameters and, when the generation strategy asks for them, from negative
// candidates.
package scenario

import (
	"fmt"
	"iter"
	"maps"
	"strings"

	"github.com/reoring/contractkit/openapi"
	"github.com/reoring/contractkit/pattern"
	"github.com/reoring/contractkit/value"
)

// Expectation is the status class a case expects from the service.
type Expectation int

const (
	// ExpectSuccess expects a 2xx status.
	ExpectSuccess Expectation = iota
	// ExpectRejection expects a 4xx status.
	ExpectRejection
)

func (e Expectation) String() string {
	if e == ExpectRejection {
		return "4xx"
	}
	return "2xx"
}

// Accepts reports whether status belongs to the expected class.
func (e Expectation) Accepts(status int) bool {
	if e == ExpectRejection {
		return status >= 400 && status < 500
	}
	return status >= 200 && status < 300
}

// Case is one request to send and the outcome it expects.
type Case struct {
	Name      string
	Operation openapi.Operation
	Negative  bool
	// Parameters holds the parameter values to send, keyed by
	// openapi.Parameter.Key ("path:id", "query:limit").
	Parameters map[string]value.Value
	Body       value.Value
	Expect     Expectation
}

// Rows supplies example rows per operation key ("POST /pets"). Rows are only
// honored by non-generative strategies.
type Rows map[string]pattern.Row

// Build lazily yields the cases of every operation. Breaking out of the loop
// stops candidate expansion. The sequence stops after yielding an error.
func Build(c *openapi.Contract, r *pattern.Resolver) iter.Seq2[Case, error] {
	return BuildWithRows(c, nil, r)
}

// BuildWithRows is Build with example rows.
func BuildWithRows(c *openapi.Contract, rows Rows, r *pattern.Resolver) iter.Seq2[Case, error] {
	return func(yield func(Case, error) bool) {
		for _, op := range c.Operations {
			for tc, err := range Operation(op, rows[op.Key()], r) {
				if !yield(tc, err) || err != nil {
					return
				}
			}
		}
	}
}

// Operation yields the cases of a single operation. Positive cases come
// first: one per positive candidate of the request body, one per further
// set of optional parameters and one per further positive candidate of a
// parameter. Negative cases follow when the generation strategy enables
// them: a missing required query or header parameter, every negative
// candidate of a parameter whose text form the contract rejects, and every
// negative candidate of the body.
func Operation(op openapi.Operation, row pattern.Row, r *pattern.Resolver) iter.Seq2[Case, error] {
	return func(yield func(Case, error) bool) {
		b := &builder{op: op, r: r, yield: yield}
		b.run(row)
	}
}

type builder struct {
	op    openapi.Operation
	r     *pattern.Resolver
	yield func(Case, error) bool

	positives, negatives int
}

func (b *builder) emit(params map[string]value.Value, body value.Value, negative bool) bool {
	tc := Case{Operation: b.op, Negative: negative, Parameters: params, Body: body, Expect: ExpectSuccess}
	if negative {
		b.negatives++
		tc.Name = fmt.Sprintf("%s -%d", b.op.Key(), b.negatives)
		tc.Expect = ExpectRejection
	} else {
		b.positives++
		tc.Name = fmt.Sprintf("%s +%d", b.op.Key(), b.positives)
	}
	return b.yield(tc, nil)
}

func (b *builder) fail(err error) bool {
	b.yield(Case{}, fmt.Errorf("scenario: %s: %w", b.op.Key(), err))
	return false
}

func (b *builder) run(row pattern.Row) {
	sets, err := b.parameterSets()
	if err != nil {
		b.fail(err)
		return
	}
	params := sets[0]

	var body value.Value
	if decl := b.op.RequestBody; decl != nil {
		for cand, err := range pattern.PositiveCandidates(decl.Pattern, row, b.r) {
			if err != nil {
				b.fail(err)
				return
			}
			v, err := pattern.Generate(cand, b.r)
			if err != nil {
				b.fail(err)
				return
			}
			if body == nil {
				body = v
			}
			if !b.emit(params, v, false) {
				return
			}
		}
	} else if !b.emit(params, nil, false) {
		return
	}
	for _, set := range sets[1:] {
		if !b.emit(set, body, false) {
			return
		}
	}
	if !b.parameterPositives(params, body) {
		return
	}

	if !b.r.Generation().NegativesEnabled() {
		return
	}
	if !b.parameterNegatives(params, body) {
		return
	}
	if decl := b.op.RequestBody; decl != nil {
		for cand, err := range pattern.NegativeCandidates(decl.Pattern, row, b.r) {
			if err != nil {
				b.fail(err)
				return
			}
			v, err := pattern.Generate(cand, b.r)
			if err != nil {
				b.fail(err)
				return
			}
			if !b.emit(params, v, true) {
				return
			}
		}
	}
}

// parameterSets returns one parameter map per optional parameter subset the
// generation strategy selects. Required parameters are in every map.
func (b *builder) parameterSets() ([]map[string]value.Value, error) {
	required := map[string]value.Value{}
	optional := map[string]value.Value{}
	var names []string
	for _, p := range b.op.Parameters {
		v, err := pattern.Generate(p.Pattern, b.r)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		if p.Required {
			required[p.Key()] = v
			continue
		}
		optional[p.Key()] = v
		names = append(names, p.Key())
	}
	var sets []map[string]value.Value
	for subset := range b.r.Generation().OptionalKeySets(names, b.r.MaxCombinations()) {
		set := maps.Clone(required)
		for _, k := range subset {
			set[k] = optional[k]
		}
		sets = append(sets, set)
	}
	if len(sets) == 0 {
		sets = append(sets, required)
	}
	return sets, nil
}

// parameterPositives adds a case for every positive candidate of a
// parameter beyond the first.
func (b *builder) parameterPositives(params map[string]value.Value, body value.Value) bool {
	for _, p := range b.op.Parameters {
		first := true
		for cand, err := range pattern.PositiveCandidates(p.Pattern, pattern.Row{}, b.r) {
			if err != nil {
				return b.fail(fmt.Errorf("parameter %s: %w", p.Name, err))
			}
			if first {
				first = false
				continue
			}
			v, err := pattern.Generate(cand, b.r)
			if err != nil {
				return b.fail(fmt.Errorf("parameter %s: %w", p.Name, err))
			}
			if !b.emit(with(params, p.Key(), v), body, false) {
				return false
			}
		}
	}
	return true
}

func (b *builder) parameterNegatives(params map[string]value.Value, body value.Value) bool {
	for _, p := range b.op.Parameters {
		if p.Required && p.In != "path" {
			without := maps.Clone(params)
			delete(without, p.Key())
			if !b.emit(without, body, true) {
				return false
			}
		}
		for cand, err := range pattern.NegativeCandidates(p.Pattern, pattern.Row{}, b.r) {
			if err != nil {
				return b.fail(fmt.Errorf("parameter %s: %w", p.Name, err))
			}
			v, err := pattern.Generate(cand, b.r)
			if err != nil {
				return b.fail(fmt.Errorf("parameter %s: %w", p.Name, err))
			}
			if !rejected(p, v, b.r) {
				continue
			}
			if !b.emit(with(params, p.Key(), v), body, true) {
				return false
			}
		}
	}
	return true
}

// rejected reports whether the text form of v, as sent on the wire, fails to
// parse or match the parameter. Parameters travel as text, so a wrong-kind
// value such as 5 for a string parameter is not a negative.
func rejected(p openapi.Parameter, v value.Value, r *pattern.Resolver) bool {
	text := value.Text(v)
	if p.In == "header" && strings.ContainsAny(text, "\r\n") {
		return false
	}
	parsed, err := pattern.Parse(p.Pattern, text, r)
	if err != nil {
		return true
	}
	return !pattern.Match(p.Pattern, parsed, r).IsSuccess()
}

func with(params map[string]value.Value, key string, v value.Value) map[string]value.Value {
	out := maps.Clone(params)
	if out == nil {
		out = map[string]value.Value{}
	}
	out[key] = v
	return out
}
