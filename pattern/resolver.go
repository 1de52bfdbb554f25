package pattern

import (
	"math/rand/v2"
	"reflect"
	"slices"

	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/value"
)

// MatchStrategy decides how a (key, Pattern, value) triple is matched inside
// composite Patterns. factKey is the object key being matched, or "".
type MatchStrategy func(r *Resolver, factKey string, p Pattern, v value.Value) contractkit.Result

// ParseStrategy turns row or fact text into a value for p.
type ParseStrategy func(r *Resolver, p Pattern, text string) (value.Value, error)

// ActualMatch matches for real and then checks any fact recorded for factKey.
func ActualMatch(r *Resolver, factKey string, p Pattern, v value.Value) contractkit.Result {
	res := match(p, v, r)
	if !res.IsSuccess() {
		return res
	}
	if factKey != "" {
		return r.facts.Match(factKey, v, r.messages)
	}
	return res
}

// MatchAnything accepts every value. Used by test doubles and for building
// intentionally invalid requests.
func MatchAnything(*Resolver, string, Pattern, value.Value) contractkit.Result {
	return contractkit.Success()
}

// ActualParse parses text according to p.
func ActualParse(r *Resolver, p Pattern, text string) (value.Value, error) {
	return parse(p, text, r)
}

// ParseAsString keeps row text as a plain string.
func ParseAsString(_ *Resolver, _ Pattern, text string) (value.Value, error) {
	return value.String(text), nil
}

type discrimination struct {
	key   string
	value string
}

// DefaultMaxCombinations caps the optional-key combinations a single object
// contributes to positive candidates.
const DefaultMaxCombinations = 64

// Resolver is the immutable per-operation context threaded through every
// Pattern operation. With methods return modified copies; the receiver is
// never changed, so sibling descents cannot observe each other's state.
//
// A Resolver built with WithRand shares its generator with every copy and is
// therefore meant for one goroutine; create one Resolver per operation.
type Resolver struct {
	registry          *Registry
	facts             Facts
	unknown           contractkit.UnknownPolicy
	disc              *discrimination
	stack             []Pattern
	generation        GenerationStrategy
	examples          ExampleStrategy
	dictionary        Dictionary
	lookupPath        string
	messages          MismatchMessages
	matchStrategy     MatchStrategy
	parseStrategy     ParseStrategy
	maxCombinations   int
	dataTypeNegatives bool
	rng               *rand.Rand
}

// NewResolver returns the default context over reg: strict unknown keys,
// no discrimination, non-generative, default examples honored.
func NewResolver(reg *Registry) *Resolver {
	return &Resolver{
		registry:          reg,
		unknown:           contractkit.UnknownStrict,
		generation:        NonGenerative{},
		examples:          UseDefaultExample{},
		messages:          DefaultMessages(),
		matchStrategy:     ActualMatch,
		parseStrategy:     ActualParse,
		maxCombinations:   DefaultMaxCombinations,
		dataTypeNegatives: true,
	}
}

// InvalidRequestResolver derives a context that accepts any value and keeps
// row text verbatim, used when deliberately constructing invalid inputs.
func InvalidRequestResolver(r *Resolver) *Resolver {
	return r.WithMatchStrategy(MatchAnything).WithParseStrategy(ParseAsString)
}

func (r *Resolver) copy() *Resolver {
	c := *r
	return &c
}

// Registry returns the registry the context resolves aliases against.
func (r *Resolver) Registry() *Registry { return r.registry }

// WithFacts returns a copy consulting facts before generating and matching.
func (r *Resolver) WithFacts(f Facts) *Resolver {
	c := r.copy()
	c.facts = f
	return c
}

// WithUnknownKeys returns a copy with the given unknown-key policy.
func (r *Resolver) WithUnknownKeys(p contractkit.UnknownPolicy) *Resolver {
	c := r.copy()
	c.unknown = p
	return c
}

// UnknownKeys returns the unknown-key policy in effect.
func (r *Resolver) UnknownKeys() contractkit.UnknownPolicy { return r.unknown }

// WithDiscrimination binds the discriminator property key to value.
func (r *Resolver) WithDiscrimination(key, val string) *Resolver {
	c := r.copy()
	c.disc = &discrimination{key: key, value: val}
	return c
}

// WithoutDiscrimination clears any discriminator binding.
func (r *Resolver) WithoutDiscrimination() *Resolver {
	if r.disc == nil {
		return r
	}
	c := r.copy()
	c.disc = nil
	return c
}

// Discrimination returns the bound discriminator key and value.
func (r *Resolver) Discrimination() (key, val string, ok bool) {
	if r.disc == nil {
		return "", "", false
	}
	return r.disc.key, r.disc.value, true
}

// WithGeneration selects the candidate generation strategy.
func (r *Resolver) WithGeneration(g GenerationStrategy) *Resolver {
	c := r.copy()
	c.generation = g
	return c
}

// Generation returns the generation strategy in effect.
func (r *Resolver) Generation() GenerationStrategy { return r.generation }

// WithExamples selects how Pattern examples are used during generation.
func (r *Resolver) WithExamples(e ExampleStrategy) *Resolver {
	c := r.copy()
	c.examples = e
	return c
}

// WithDictionary attaches example values addressed by lookup path.
func (r *Resolver) WithDictionary(d Dictionary) *Resolver {
	c := r.copy()
	c.dictionary = d
	return c
}

// WithLookupPath sets the current dictionary lookup path.
func (r *Resolver) WithLookupPath(path string) *Resolver {
	c := r.copy()
	c.lookupPath = path
	return c
}

// WithMessages replaces the mismatch message policy.
func (r *Resolver) WithMessages(m MismatchMessages) *Resolver {
	c := r.copy()
	c.messages = m
	return c
}

// WithMatchStrategy replaces the match strategy used inside composites.
func (r *Resolver) WithMatchStrategy(s MatchStrategy) *Resolver {
	c := r.copy()
	c.matchStrategy = s
	return c
}

// WithParseStrategy replaces the parse strategy used for row and fact text.
func (r *Resolver) WithParseStrategy(s ParseStrategy) *Resolver {
	c := r.copy()
	c.parseStrategy = s
	return c
}

// WithMaxCombinations caps optional-key combinations per object. Values below
// one restore the default.
func (r *Resolver) WithMaxCombinations(n int) *Resolver {
	c := r.copy()
	if n < 1 {
		n = DefaultMaxCombinations
	}
	c.maxCombinations = n
	return c
}

// MaxCombinations returns the optional-key combination cap.
func (r *Resolver) MaxCombinations() int { return r.maxCombinations }

// WithDataTypeNegatives toggles wrong-kind negatives (null, other primitive
// kinds) in negative candidates. Boundary negatives are always produced.
func (r *Resolver) WithDataTypeNegatives(on bool) *Resolver {
	c := r.copy()
	c.dataTypeNegatives = on
	return c
}

// WithRand makes generation reproducible.
func (r *Resolver) WithRand(rng *rand.Rand) *Resolver {
	c := r.copy()
	c.rng = rng
	return c
}

func (r *Resolver) intN(n int) int {
	if n <= 0 {
		return 0
	}
	if r.rng != nil {
		return r.rng.IntN(n)
	}
	return rand.IntN(n)
}

func (r *Resolver) float64() float64 {
	if r.rng != nil {
		return r.rng.Float64()
	}
	return rand.Float64()
}

func (r *Resolver) matchesPattern(factKey string, p Pattern, v value.Value) contractkit.Result {
	return r.matchStrategy(r, factKey, p, v)
}

func (r *Resolver) parseWith(p Pattern, text string) (value.Value, error) {
	return r.parseStrategy(r, p, text)
}

// withCyclePrevention runs fn with p pushed onto the cycle-prevention stack.
// When p is already on the stack more than once the expansion is a cycle:
// fn is not run and the result is a CycleError, or ok=false without error
// when tolerant is set.
func withCyclePrevention[T any](r *Resolver, p Pattern, tolerant bool, fn func(*Resolver) (T, error)) (out T, ok bool, err error) {
	count := 0
	for _, s := range r.stack {
		if samePattern(s, p) {
			count++
		}
	}
	next := append(slices.Clip(r.stack), p)
	if count > 1 {
		if tolerant {
			return out, false, nil
		}
		return out, false, &contractkit.CycleError{Stack: aliasesOf(next)}
	}
	c := r.copy()
	c.stack = next
	out, err = fn(c)
	if err != nil && tolerant && contractkit.IsCycle(err) {
		var zero T
		return zero, false, nil
	}
	return out, err == nil, err
}

func aliasesOf(ps []Pattern) []string {
	var out []string
	for _, p := range ps {
		if a := p.Alias(); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// samePattern compares by structure; references compare by name.
func samePattern(a, b Pattern) bool {
	if a == b {
		return true
	}
	da, okA := a.(*DeferredPattern)
	db, okB := b.(*DeferredPattern)
	if okA || okB {
		return okA && okB && da.Ref == db.Ref
	}
	return reflect.DeepEqual(a, b)
}
