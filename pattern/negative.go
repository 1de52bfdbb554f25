package pattern

import (
	"iter"
	"math"
	"slices"
	"strings"

	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/value"
)

// NegativeCandidates lazily decomposes p into shapes that p rejects. For
// objects, every field is substituted with each of its own negatives in turn
// while its siblings stay at a valid candidate, and every mandatory key is
// dropped once. Scalars contribute boundary violations (length, range,
// regex, format, enum membership) and, when enabled on the Resolver,
// wrong-kind values such as null.
//
// The sequence stops after yielding an error.
func NegativeCandidates(p Pattern, row Row, r *Resolver) iter.Seq2[Pattern, error] {
	return negatives(p, r.generation.ResolveRow(row), r)
}

func negatives(p Pattern, row Row, r *Resolver) iter.Seq2[Pattern, error] {
	return func(yield func(Pattern, error) bool) {
		switch t := p.(type) {
		case *StringPattern:
			ps, err := stringNegatives(t, r)
			emit(ps, err, yield)
		case *NumberPattern:
			emit(numberNegatives(t, r), nil, yield)
		case *BooleanPattern:
			emit(r.dataKindNegatives(kindBoolean), nil, yield)
		case *NullPattern:
			emit(r.dataKindNegatives(kindNull), nil, yield)
		case *EnumPattern:
			emit(enumNegatives(t, r), nil, yield)
		case *ExactPattern:
			emit(exactNegatives(t, r), nil, yield)
		case *ObjectPattern:
			negativeObjects(t, row, r, yield)
		case *DictionaryPattern:
			negativeDictionaries(t, row, r, yield)
		case *ListPattern:
			negativeLists(t, row, r, yield)
		case *AnyOfPattern:
			negativeUnion(t, row, r, yield)
		case *AllOfPattern:
			merged, err := mergeAll(t, r)
			if err != nil {
				yield(nil, err)
				return
			}
			forward(negatives(merged, row, r), yield)
		case *DeferredPattern:
			resolved, err := resolvedHop(t, r)
			if err != nil {
				yield(nil, err)
				return
			}
			forward(negatives(resolved, row, r), yield)
		}
	}
}

func emit(ps []Pattern, err error, yield func(Pattern, error) bool) {
	if err != nil {
		yield(nil, err)
		return
	}
	for _, p := range ps {
		if !yield(p, nil) {
			return
		}
	}
}

// dataKindNegatives returns one Pattern per scalar kind other than k, null
// first. Nothing is returned when wrong-kind negatives are disabled.
func (r *Resolver) dataKindNegatives(k shapeKind) []Pattern {
	if !r.dataTypeNegatives {
		return nil
	}
	var out []Pattern
	if k != kindNull {
		out = append(out, &NullPattern{})
	}
	if k == kindObject || k == kindArray || k == kindXML {
		return out
	}
	if k != kindString {
		out = append(out, &StringPattern{})
	}
	if k != kindNumber {
		out = append(out, &NumberPattern{})
	}
	if k != kindBoolean {
		out = append(out, &BooleanPattern{})
	}
	return out
}

// nonMatchingProbes are tried in order to find a string outside a regex.
var nonMatchingProbes = []string{"", "!", "~~~~~", "0", "a", "ZZZZZZZZZZZZZZZZ", "12345", " "}

func stringNegatives(t *StringPattern, r *Resolver) ([]Pattern, error) {
	out := r.dataKindNegatives(kindString)
	if t.MinLength != nil && *t.MinLength > 0 {
		out = append(out, Exact(value.String(strings.Repeat("A", *t.MinLength-1))))
	}
	if t.MaxLength != nil {
		out = append(out, Exact(value.String(strings.Repeat("A", *t.MaxLength+1))))
	}
	if t.Regex != "" {
		re, err := compileRegex(t.Regex)
		if err != nil {
			return nil, err
		}
		for _, probe := range nonMatchingProbes {
			if !re.MatchString(probe) {
				out = append(out, Exact(value.String(probe)))
				break
			}
		}
	}
	if t.Format != "" {
		out = append(out, Exact(value.String("not a "+t.Format)))
	}
	return out, nil
}

func numberNegatives(t *NumberPattern, r *Resolver) []Pattern {
	out := r.dataKindNegatives(kindNumber)
	if t.Minimum != nil {
		v := *t.Minimum
		if !t.ExclusiveMinimum {
			v--
		}
		out = append(out, Exact(value.Number(v)))
	}
	if t.Maximum != nil {
		v := *t.Maximum
		if !t.ExclusiveMaximum {
			v++
		}
		out = append(out, Exact(value.Number(v)))
	}
	if t.Integer {
		base := 1.0
		switch {
		case t.Minimum != nil:
			base = *t.Minimum + 1
		case t.Maximum != nil:
			base = *t.Maximum - 1
		}
		out = append(out, Exact(value.Number(math.Floor(base)+0.5)))
	}
	return out
}

func enumNegatives(t *EnumPattern, r *Resolver) []Pattern {
	if len(t.Values) == 0 {
		return nil
	}
	out := r.dataKindNegatives(kindOfValue(t.Values[0]))
	if v, ok := outsider(t.Values); ok {
		out = append(out, Exact(v))
	}
	return out
}

func exactNegatives(t *ExactPattern, r *Resolver) []Pattern {
	out := r.dataKindNegatives(kindOfValue(t.Value))
	if v, ok := outsider([]value.Value{t.Value}); ok {
		out = append(out, Exact(v))
	}
	return out
}

// outsider returns a scalar of the same kind as members[0] that is none of
// members.
func outsider(members []value.Value) (value.Value, bool) {
	isMember := func(v value.Value) bool {
		return slices.ContainsFunc(members, func(m value.Value) bool { return value.Equal(m, v) })
	}
	switch first := members[0].(type) {
	case value.String:
		for _, s := range []string{"UNKNOWN", "UNKNOWN_VALUE", string(first) + "_UNKNOWN"} {
			if v := value.String(s); !isMember(v) {
				return v, true
			}
		}
	case value.Number:
		hi := float64(first)
		for _, m := range members {
			if n, ok := m.(value.Number); ok {
				hi = max(hi, float64(n))
			}
		}
		return value.Number(hi + 1), true
	case value.Bool:
		if v := !first; !isMember(v) {
			return v, true
		}
	}
	return nil, false
}

// keyNegatives yields the negatives of p under tolerant cycle prevention. A
// cycle ends the sequence quietly; other errors are passed to fail.
func keyNegatives(p Pattern, row Row, r *Resolver, fail func(Pattern, error) bool) iter.Seq[Pattern] {
	return func(yield func(Pattern) bool) {
		seq, ok, err := withCyclePrevention(r, p, true, func(c *Resolver) (iter.Seq2[Pattern, error], error) {
			return negatives(p, row, c.WithoutDiscrimination()), nil
		})
		if err != nil {
			fail(nil, err)
			return
		}
		if !ok {
			return
		}
		for neg, err := range seq {
			if err != nil {
				if !contractkit.IsCycle(err) {
					fail(nil, err)
				}
				return
			}
			if !yield(neg) {
				return
			}
		}
	}
}

func negativeObjects(t *ObjectPattern, row Row, r *Resolver, yield func(Pattern, error) bool) {
	var base []Entry
	for _, e := range t.Entries {
		name := WithoutOptionality(e.Key)
		if IsOptional(e.Key) && !row.Has(name) {
			continue
		}
		cands, ok, err := keyCandidates(e, row, r, false)
		if err != nil {
			yield(nil, err)
			return
		}
		if !ok {
			continue
		}
		base = append(base, Entry{Key: name, Pattern: cands[0]})
	}

	failed := false
	fail := func(_ Pattern, err error) bool {
		failed = true
		yield(nil, contractkit.WithBreadcrumb(err, t.TypeAlias))
		return false
	}
	for _, e := range t.Entries {
		name := WithoutOptionality(e.Key)
		for neg := range keyNegatives(r.discriminated(name, e.Pattern), row, r, fail) {
			if !yield(&ObjectPattern{TypeAlias: t.TypeAlias, Entries: substitute(t, base, name, neg), Extensible: t.Extensible}, nil) {
				return
			}
		}
		if failed {
			return
		}
	}
	for _, e := range t.Entries {
		if IsOptional(e.Key) {
			continue
		}
		without := slices.DeleteFunc(slices.Clone(base), func(b Entry) bool { return b.Key == e.Key })
		if !yield(&ObjectPattern{TypeAlias: t.TypeAlias, Entries: without, Extensible: t.Extensible}, nil) {
			return
		}
	}
	if r.dataTypeNegatives {
		yield(&NullPattern{}, nil)
	}
}

// substitute returns base with key name set to p, in the declaration order of
// t.
func substitute(t *ObjectPattern, base []Entry, name string, p Pattern) []Entry {
	out := make([]Entry, 0, len(base)+1)
	for _, e := range t.Entries {
		n := WithoutOptionality(e.Key)
		if n == name {
			out = append(out, Entry{Key: n, Pattern: p})
			continue
		}
		if i := slices.IndexFunc(base, func(b Entry) bool { return b.Key == n }); i >= 0 {
			out = append(out, base[i])
		}
	}
	return out
}

func negativeDictionaries(t *DictionaryPattern, row Row, r *Resolver, yield func(Pattern, error) bool) {
	failed := false
	fail := func(_ Pattern, err error) bool {
		failed = true
		yield(nil, err)
		return false
	}
	for neg := range keyNegatives(t.Value, row, r, fail) {
		if !yield(&DictionaryPattern{TypeAlias: t.TypeAlias, Value: neg}, nil) {
			return
		}
	}
	if !failed && r.dataTypeNegatives {
		yield(&NullPattern{}, nil)
	}
}

func negativeLists(t *ListPattern, row Row, r *Resolver, yield func(Pattern, error) bool) {
	if t.MinItems != nil && *t.MinItems > 0 {
		n := *t.MinItems - 1
		if !yield(&ListPattern{TypeAlias: t.TypeAlias, Element: t.Element, MinItems: IntPtr(n), MaxItems: IntPtr(n)}, nil) {
			return
		}
	}
	if t.MaxItems != nil {
		n := *t.MaxItems + 1
		if !yield(&ListPattern{TypeAlias: t.TypeAlias, Element: t.Element, MinItems: IntPtr(n), MaxItems: IntPtr(n)}, nil) {
			return
		}
	}
	maxItems := t.MaxItems
	if maxItems == nil || *maxItems < 1 {
		maxItems = IntPtr(1)
	}
	failed := false
	fail := func(_ Pattern, err error) bool {
		failed = true
		yield(nil, contractkit.WithBreadcrumb(err, "[*]"))
		return false
	}
	for neg := range keyNegatives(t.Element, row, r, fail) {
		if !yield(&ListPattern{TypeAlias: t.TypeAlias, Element: neg, MinItems: IntPtr(1), MaxItems: maxItems}, nil) {
			return
		}
	}
	if failed {
		return
	}
	if r.dataTypeNegatives {
		yield(&NullPattern{}, nil)
	}
}

// negativeUnion gathers the negatives of every non-null branch, dropping
// duplicates and candidates some branch still accepts.
func negativeUnion(t *AnyOfPattern, row Row, r *Resolver, yield func(Pattern, error) bool) {
	if b, val, ok := r.boundBranch(t); ok {
		forward(negatives(b, row, r.WithDiscrimination(t.Discriminator, val)), yield)
		return
	}
	var seen []Pattern
	for _, b := range t.Branches {
		if _, isNull := b.(*NullPattern); isNull {
			continue
		}
		for neg, err := range negatives(b, row, r.branchResolver(t, b)) {
			if err != nil {
				if contractkit.IsCycle(err) {
					break
				}
				yield(nil, err)
				return
			}
			if slices.ContainsFunc(seen, func(s Pattern) bool { return samePattern(s, neg) }) {
				continue
			}
			seen = append(seen, neg)
			if unionAccepts(t, neg, r) {
				continue
			}
			if !yield(neg, nil) {
				return
			}
		}
	}
}

func unionAccepts(t *AnyOfPattern, neg Pattern, r *Resolver) bool {
	switch n := neg.(type) {
	case *ExactPattern:
		return match(t, n.Value, r.WithoutDiscrimination()).IsSuccess()
	case *NullPattern:
		return match(t, value.Null{}, r.WithoutDiscrimination()).IsSuccess()
	}
	for _, b := range t.Branches {
		if Encompasses(b, neg, r, r).IsSuccess() {
			return true
		}
	}
	return false
}
