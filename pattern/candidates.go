package pattern

import (
	"iter"
	"slices"

	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/value"
)

// PositiveCandidates lazily decomposes p into the shapes a conforming value
// can take. Objects contribute one candidate per feasible set of optional
// keys (as chosen by the Resolver's GenerationStrategy) times the cross
// product of their keys' own candidates. Row columns pin the keys they name
// to the parsed example. Scalars without an example yield themselves.
//
// The sequence stops after yielding an error.
func PositiveCandidates(p Pattern, row Row, r *Resolver) iter.Seq2[Pattern, error] {
	return positives(p, r.generation.ResolveRow(row), r)
}

func positives(p Pattern, row Row, r *Resolver) iter.Seq2[Pattern, error] {
	return func(yield func(Pattern, error) bool) {
		switch t := p.(type) {
		case *StringPattern:
			yield(r.exampleOr(t.Example, t), nil)
		case *NumberPattern:
			yield(r.exampleOr(t.Example, t), nil)
		case *BooleanPattern:
			yield(r.exampleOr(t.Example, t), nil)
		case *ObjectPattern:
			positiveObjects(t, row, r, yield)
		case *ListPattern:
			positiveLists(t, row, r, yield)
		case *AnyOfPattern:
			positiveUnion(t, row, r, yield)
		case *AllOfPattern:
			merged, err := mergeAll(t, r)
			if err != nil {
				yield(nil, err)
				return
			}
			forward(positives(merged, row, r), yield)
		case *DeferredPattern:
			resolved, err := resolvedHop(t, r)
			if err != nil {
				yield(nil, err)
				return
			}
			forward(positives(resolved, row, r), yield)
		default:
			yield(p, nil)
		}
	}
}

// exampleOr pins a scalar to its declared example when the example strategy
// accepts it.
func (r *Resolver) exampleOr(ex value.Value, p Pattern) Pattern {
	if v, ok := r.example(ex, p); ok {
		return Exact(v)
	}
	return p
}

// forward re-yields seq and reports whether the caller may continue.
func forward(seq iter.Seq2[Pattern, error], yield func(Pattern, error) bool) bool {
	for c, err := range seq {
		if !yield(c, err) || err != nil {
			return false
		}
	}
	return true
}

// collect materializes at most limit candidates of seq.
func collect(seq iter.Seq2[Pattern, error], limit int) ([]Pattern, error) {
	var out []Pattern
	for c, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func positiveObjects(t *ObjectPattern, row Row, r *Resolver, yield func(Pattern, error) bool) {
	var mandatory, optional []string
	for _, e := range t.Entries {
		name := WithoutOptionality(e.Key)
		if !IsOptional(e.Key) || row.Has(name) {
			mandatory = append(mandatory, name)
		} else {
			optional = append(optional, name)
		}
	}

	var seen []Pattern
	emit := func(included []string) bool {
		for c, err := range objectCandidates(t, included, row, r) {
			if err != nil {
				yield(nil, err)
				return false
			}
			if slices.ContainsFunc(seen, func(s Pattern) bool { return samePattern(s, c) }) {
				continue
			}
			seen = append(seen, c)
			if !yield(c, nil) {
				return false
			}
		}
		return true
	}

	emitted := false
	for subset := range r.generation.OptionalKeySets(optional, r.maxCombinations) {
		if !propertiesFeasible(t, len(mandatory)+len(subset)) {
			continue
		}
		emitted = true
		if !emit(append(slices.Clip(mandatory), subset...)) {
			return
		}
	}
	if emitted {
		return
	}
	// The strategy offered no feasible key set (all-or-nothing against a
	// property-count bound): fall back to the smallest feasible prefix.
	need := 0
	if t.MinProperties != nil {
		need = max(0, *t.MinProperties-len(mandatory))
	}
	if need <= len(optional) && propertiesFeasible(t, len(mandatory)+need) {
		emit(append(slices.Clip(mandatory), optional[:need]...))
		return
	}
	yield(nil, contractkit.WithBreadcrumb(
		contractkit.Definitionf("no set of keys satisfies the property count bounds"), t.TypeAlias))
}

func propertiesFeasible(t *ObjectPattern, n int) bool {
	if t.MinProperties != nil && n < *t.MinProperties {
		return false
	}
	if t.MaxProperties != nil && n > *t.MaxProperties {
		return false
	}
	return true
}

// objectCandidates yields the cross product of the candidates of the
// included keys, each as an object whose keys are all mandatory.
func objectCandidates(t *ObjectPattern, included []string, row Row, r *Resolver) iter.Seq2[Pattern, error] {
	return func(yield func(Pattern, error) bool) {
		var keys []string
		var options [][]Pattern
		for _, e := range t.Entries {
			name := WithoutOptionality(e.Key)
			if !slices.Contains(included, name) {
				continue
			}
			cands, ok, err := keyCandidates(e, row, r, IsOptional(e.Key))
			if err != nil {
				yield(nil, err)
				return
			}
			if !ok {
				continue
			}
			keys = append(keys, name)
			options = append(options, cands)
		}
		n := 0
		for combo := range product(options) {
			if n >= r.maxCombinations {
				return
			}
			entries := make([]Entry, len(keys))
			for i, k := range keys {
				entries[i] = Entry{Key: k, Pattern: combo[i]}
			}
			n++
			if !yield(&ObjectPattern{TypeAlias: t.TypeAlias, Entries: entries, Extensible: t.Extensible}, nil) {
				return
			}
		}
	}
}

// keyCandidates returns the positive candidates of one object key. ok is
// false when an optional key ran into a cycle and is left out.
func keyCandidates(e Entry, row Row, r *Resolver, tolerant bool) ([]Pattern, bool, error) {
	name := WithoutOptionality(e.Key)
	p := r.discriminated(name, e.Pattern)
	if text, ok := row.Get(name); ok {
		v, err := r.parseWith(p, text)
		if err != nil {
			return nil, false, contractkit.WithBreadcrumb(err, name)
		}
		return []Pattern{Exact(v)}, true, nil
	}
	if fact, ok := r.facts[name]; ok {
		if b, isBool := fact.(value.Bool); !isBool || !bool(b) {
			v, err := r.generateFromFact(name, p)
			if err != nil {
				return nil, false, err
			}
			return []Pattern{Exact(v)}, true, nil
		}
	}
	cands, ok, err := withCyclePrevention(r, p, tolerant, func(c *Resolver) ([]Pattern, error) {
		return collect(positives(p, row, c.WithoutDiscrimination()), r.maxCombinations)
	})
	if err != nil {
		return nil, false, contractkit.WithBreadcrumb(err, name)
	}
	if ok && len(cands) == 0 {
		return nil, false, nil
	}
	return cands, ok, nil
}

// product yields every combination picking one element of each option list,
// varying the last list fastest.
func product(options [][]Pattern) iter.Seq[[]Pattern] {
	return func(yield func([]Pattern) bool) {
		for _, o := range options {
			if len(o) == 0 {
				return
			}
		}
		idx := make([]int, len(options))
		for {
			combo := make([]Pattern, len(options))
			for i, o := range options {
				combo[i] = o[idx[i]]
			}
			if !yield(combo) {
				return
			}
			i := len(idx) - 1
			for ; i >= 0; i-- {
				idx[i]++
				if idx[i] < len(options[i]) {
					break
				}
				idx[i] = 0
			}
			if i < 0 {
				return
			}
		}
	}
}

func positiveLists(t *ListPattern, row Row, r *Resolver, yield func(Pattern, error) bool) {
	cands, ok, err := withCyclePrevention(r, t.Element, true, func(c *Resolver) ([]Pattern, error) {
		return collect(positives(t.Element, row, c.WithoutDiscrimination()), r.maxCombinations)
	})
	if err != nil {
		yield(nil, contractkit.WithBreadcrumb(err, "[*]"))
		return
	}
	if !ok || len(cands) == 0 {
		yield(t, nil)
		return
	}
	for _, c := range cands {
		if !yield(&ListPattern{TypeAlias: t.TypeAlias, Element: c, MinItems: t.MinItems, MaxItems: t.MaxItems}, nil) {
			return
		}
	}
}

func positiveUnion(t *AnyOfPattern, row Row, r *Resolver, yield func(Pattern, error) bool) {
	if b, val, ok := r.boundBranch(t); ok {
		forward(positives(b, row, r.WithDiscrimination(t.Discriminator, val)), yield)
		return
	}
	var seen []Pattern
	var lastCycle error
	produced := false
	for _, b := range t.Branches {
		for c, err := range positives(b, row, r.branchResolver(t, b)) {
			if err != nil {
				if contractkit.IsCycle(err) {
					lastCycle = err
					break
				}
				yield(nil, err)
				return
			}
			if slices.ContainsFunc(seen, func(s Pattern) bool { return samePattern(s, c) }) {
				continue
			}
			seen = append(seen, c)
			produced = true
			if !yield(c, nil) {
				return
			}
		}
	}
	if !produced && lastCycle != nil {
		yield(nil, lastCycle)
	}
}

// branchResolver binds the discriminator value of branch b when t is
// discriminated.
func (r *Resolver) branchResolver(t *AnyOfPattern, b Pattern) *Resolver {
	if t.Discriminator == "" || b.Alias() == "" {
		return r.WithoutDiscrimination()
	}
	return r.WithDiscrimination(t.Discriminator, t.valueFor(b.Alias()))
}
