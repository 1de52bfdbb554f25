package pattern

import (
	"iter"
	"maps"
	"math/bits"

	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/value"
)

// Row is one example row of a test case: column name to example text.
type Row struct {
	columns map[string]string
}

// NewRow builds a Row from columns.
func NewRow(columns map[string]string) Row { return Row{columns: maps.Clone(columns)} }

// Has reports whether the row carries column.
func (r Row) Has(column string) bool {
	_, ok := r.columns[column]
	return ok
}

// Get returns the text of column.
func (r Row) Get(column string) (string, bool) {
	v, ok := r.columns[column]
	return v, ok
}

// Len returns the number of columns.
func (r Row) Len() int { return len(r.columns) }

// GenerationStrategy selects between example reproduction and exhaustive
// generative expansion of candidates.
type GenerationStrategy interface {
	// ResolveRow returns the row candidates should honor.
	ResolveRow(row Row) Row
	// OptionalKeySets yields, for the given optional keys, each subset to
	// include in a positive candidate.
	OptionalKeySets(optional []string, limit int) iter.Seq[[]string]
	// NegativesEnabled reports whether negative candidates should be built by
	// scenario layers.
	NegativesEnabled() bool
}

// NonGenerative reproduces examples: rows are honored, optional keys are
// either all present or all absent, and no negative tests are produced.
type NonGenerative struct{}

func (NonGenerative) ResolveRow(row Row) Row { return row }

func (NonGenerative) OptionalKeySets(optional []string, _ int) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		if !yield(optional) {
			return
		}
		if len(optional) > 0 {
			yield(nil)
		}
	}
}

func (NonGenerative) NegativesEnabled() bool { return false }

// Generative expands candidates exhaustively: rows are ignored, every subset
// of optional keys is tried (up to the cap) and negatives are produced unless
// PositiveOnly is set.
type Generative struct {
	PositiveOnly bool
}

func (Generative) ResolveRow(Row) Row { return Row{} }

func (Generative) OptionalKeySets(optional []string, limit int) iter.Seq[[]string] {
	return powerSet(optional, limit)
}

func (g Generative) NegativesEnabled() bool { return !g.PositiveOnly }

// powerSet yields subsets of keys in increasing bitmask order, stopping after
// limit subsets.
func powerSet(keys []string, limit int) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		n := len(keys)
		if n >= bits.UintSize-1 {
			n = bits.UintSize - 2
		}
		total := uint(1) << uint(n)
		emitted := 0
		for mask := uint(0); mask < total; mask++ {
			if limit > 0 && emitted >= limit {
				return
			}
			subset := make([]string, 0, bits.OnesCount(mask))
			for i := range n {
				if mask&(1<<uint(i)) != 0 {
					subset = append(subset, keys[i])
				}
			}
			emitted++
			if !yield(subset) {
				return
			}
		}
	}
}

// ExampleStrategy decides whether a Pattern's declared example is used during
// generation.
type ExampleStrategy interface {
	ResolveExample(example value.Value, p Pattern, r *Resolver) (value.Value, bool)
}

// UseDefaultExample returns the declared example when it matches the Pattern.
type UseDefaultExample struct{}

func (UseDefaultExample) ResolveExample(example value.Value, p Pattern, r *Resolver) (value.Value, bool) {
	if example == nil {
		return nil, false
	}
	if !match(p, example, r).IsSuccess() {
		return nil, false
	}
	return example, true
}

// DoNotUseDefaultExample always synthesizes.
type DoNotUseDefaultExample struct{}

func (DoNotUseDefaultExample) ResolveExample(value.Value, Pattern, *Resolver) (value.Value, bool) {
	return nil, false
}

// Facts are externally fixed values for named fields.
type Facts map[string]value.Value

// Has reports whether a fact is recorded for key.
func (f Facts) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Match checks v against the fact recorded for key. String facts compare
// against the value's text, Bool(true) facts accept anything.
func (f Facts) Match(key string, v value.Value, msgs MismatchMessages) contractkit.Result {
	fact, ok := f[key]
	if !ok {
		return contractkit.Success()
	}
	if b, ok := fact.(value.Bool); ok && bool(b) {
		return contractkit.Success()
	}
	if value.Equal(fact, v) {
		return contractkit.Success()
	}
	if s, ok := fact.(value.String); ok {
		if vs, ok := v.(value.String); ok && vs == s {
			return contractkit.Success()
		}
		if v.Display() == string(s) {
			return contractkit.Success()
		}
	}
	return contractkit.Fail(contractkit.CodeMismatch, msgs.Message(contractkit.CodeMismatch, map[string]string{
		"expected": "fact " + key + " = " + fact.Display(),
		"actual":   describeValue(v),
	})).
		Reason("Resolver was not able to match fact " + key + " with value " + v.Display())
}

// Dictionary maps lookup paths such as "Person.name" or "Person.tags[*]" to
// example values.
type Dictionary map[string]value.Value

// DictionaryFromValue flattens a JSON object whose keys are lookup paths.
func DictionaryFromValue(v value.Value) (Dictionary, error) {
	obj, ok := v.(value.Object)
	if !ok {
		return nil, contractkit.Definitionf("dictionary must be a json object, got %s", v.Kind())
	}
	d := Dictionary{}
	for k, e := range obj.All() {
		d[k] = e
	}
	return d, nil
}
