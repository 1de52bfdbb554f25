package pattern

import (
	"math"
	"slices"
	"unicode/utf8"

	"github.com/lucasjones/reggen"

	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/codec"
	"github.com/reoring/contractkit/value"
)

// Generate synthesizes a value accepted by p. A declared example wins when it
// is valid, then a dictionary entry at the Resolver's lookup path, then
// synthesis.
func Generate(p Pattern, r *Resolver) (value.Value, error) {
	return r.generate(p)
}

// generate applies the precedence of declared example, dictionary entry at
// the current lookup path, then synthesis.
func (r *Resolver) generate(p Pattern) (value.Value, error) {
	if ex, ok := r.example(exampleOf(p), p); ok {
		return ex, nil
	}
	if r.lookupPath != "" {
		if v, ok := r.dictionary[r.lookupPath]; ok && match(p, v, r).IsSuccess() {
			return v, nil
		}
	}
	return generate(p, r)
}

// generateKey generates the value of one object key: facts first, then the
// dictionary under the key's lookup path, then synthesis.
func (r *Resolver) generateKey(alias, key string, p Pattern) (value.Value, error) {
	if exact, ok := p.(*ExactPattern); ok {
		return exact.Value, nil
	}
	name := WithoutOptionality(key)
	if r.facts.Has(name) {
		return r.generateFromFact(name, p)
	}
	var path string
	switch {
	case alias != "":
		path = alias + "." + name
	case r.lookupPath != "":
		path = r.lookupPath + "." + name
	default:
		path = name
	}
	return r.WithLookupPath(path).generate(p)
}

func (r *Resolver) generateFromFact(name string, p Pattern) (value.Value, error) {
	fact := r.facts[name]
	switch f := fact.(type) {
	case value.Bool:
		if f {
			return r.generate(p)
		}
	case value.String:
		v, err := r.parseWith(p, string(f))
		if err != nil {
			return nil, contractkit.WithBreadcrumb(err, name)
		}
		if res := match(p, v, r); !res.IsSuccess() {
			return nil, contractkit.WithBreadcrumb(contractkit.Definitionf("fact %s does not match: %s", name, res.Report()), name)
		}
		return v, nil
	}
	if res := match(p, fact, r); !res.IsSuccess() {
		return nil, contractkit.WithBreadcrumb(contractkit.Definitionf("fact %s does not match: %s", name, res.Report()), name)
	}
	return fact, nil
}

func (r *Resolver) example(ex value.Value, p Pattern) (value.Value, bool) {
	if ex == nil || r.examples == nil {
		return nil, false
	}
	return r.examples.ResolveExample(ex, p, r)
}

func exampleOf(p Pattern) value.Value {
	switch t := p.(type) {
	case *StringPattern:
		return t.Example
	case *NumberPattern:
		return t.Example
	case *BooleanPattern:
		return t.Example
	case *ObjectPattern:
		return t.Example
	case *ListPattern:
		return t.Example
	}
	return nil
}

func generate(p Pattern, r *Resolver) (value.Value, error) {
	switch t := p.(type) {
	case *StringPattern:
		if ex, ok := r.example(t.Example, t); ok {
			return ex, nil
		}
		return generateString(t, r)
	case *NumberPattern:
		if ex, ok := r.example(t.Example, t); ok {
			return ex, nil
		}
		return generateNumber(t, r)
	case *BooleanPattern:
		if ex, ok := r.example(t.Example, t); ok {
			return ex, nil
		}
		return value.Bool(r.intN(2) == 1), nil
	case *NullPattern:
		return value.Null{}, nil
	case *EnumPattern:
		if len(t.Values) == 0 {
			return nil, contractkit.Definitionf("enum without values")
		}
		return t.Values[r.intN(len(t.Values))], nil
	case *ExactPattern:
		return t.Value, nil
	case *AnythingPattern:
		return value.String(randomString(r, 5)), nil
	case *ObjectPattern:
		if ex, ok := r.example(t.Example, t); ok {
			return ex, nil
		}
		return generateObject(t, r)
	case *DictionaryPattern:
		v, ok, err := withCyclePrevention(r, t.Value, true, func(c *Resolver) (value.Value, error) {
			return c.WithoutDiscrimination().generate(t.Value)
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			return value.ObjectOf(), nil
		}
		return value.ObjectOf(value.Pair{Key: randomString(r, 5), Value: v}), nil
	case *ListPattern:
		if ex, ok := r.example(t.Example, t); ok {
			return ex, nil
		}
		return generateList(t, r)
	case *XMLPattern:
		return generateXML(t, r)
	case *AllOfPattern:
		merged, err := mergeAll(t, r)
		if err != nil {
			return nil, err
		}
		return generate(merged, r)
	case *AnyOfPattern:
		return generateAnyOf(t, r)
	case *DeferredPattern:
		resolved, err := resolvedHop(t, r)
		if err != nil {
			return nil, err
		}
		return generate(resolved, r)
	}
	return nil, contractkit.Definitionf("cannot generate %s", describe(p))
}

func randomString(r *Resolver, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('A' + r.intN(25))
	}
	return string(b)
}

const regexAttempts = 32

func generateString(t *StringPattern, r *Resolver) (value.Value, error) {
	if t.MinLength != nil && t.MaxLength != nil && *t.MinLength > *t.MaxLength {
		return nil, contractkit.Definitionf("maxLength %d cannot be less than minLength %d", *t.MaxLength, *t.MinLength)
	}
	if f, ok := codec.Lookup(t.Format); ok {
		return generateFormat(t, f, r)
	}
	if t.Regex != "" {
		return generateRegex(t, r)
	}
	n := 5
	switch {
	case t.MinLength != nil && *t.MinLength > n:
		n = *t.MinLength
	case t.MaxLength != nil && *t.MaxLength < n:
		n = *t.MaxLength
	}
	return value.String(randomString(r, n)), nil
}

func generateFormat(t *StringPattern, f codec.Format, r *Resolver) (value.Value, error) {
	s := f.Generate(r.rng)
	if match(t, value.String(s), r).IsSuccess() {
		return value.String(s), nil
	}
	if f.Sized != nil {
		n := len(s)
		if t.MinLength != nil {
			n = max(n, *t.MinLength)
		}
		if t.MaxLength != nil {
			n = min(n, *t.MaxLength)
		}
		if sized, ok := f.Sized(r.rng, n); ok && match(t, value.String(sized), r).IsSuccess() {
			return value.String(sized), nil
		}
	}
	return nil, contractkit.Definitionf("cannot generate a %s string within the length bounds", f.Name)
}

func generateRegex(t *StringPattern, r *Resolver) (value.Value, error) {
	if _, err := compileRegex(t.Regex); err != nil {
		return nil, err
	}
	lo, limit := 0, 5
	if t.MinLength != nil {
		lo = *t.MinLength
		limit = max(limit, lo)
	}
	if t.MaxLength != nil {
		limit = max(1, min(limit, *t.MaxLength))
	}
	g, err := reggen.NewGenerator(t.Regex)
	if err != nil {
		return nil, contractkit.Definitionf("cannot generate from regex %q: %v", t.Regex, err)
	}
	if r.rng != nil {
		g.SetSeed(r.rng.Int64())
	}
	for range regexAttempts {
		s := g.Generate(limit)
		// Joined matches of a repeated regex usually still match.
		for i := 0; utf8.RuneCountInString(s) < lo && i < lo; i++ {
			s += g.Generate(limit)
		}
		if t.MaxLength != nil {
			s = truncateRunes(s, *t.MaxLength)
		}
		if match(t, value.String(s), r).IsSuccess() {
			return value.String(s), nil
		}
	}
	return nil, contractkit.Definitionf("cannot generate a string matching %q within the length bounds", t.Regex)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

const maxIntSpan = 1_000_000

func generateNumber(t *NumberPattern, r *Resolver) (value.Value, error) {
	var lo, hi float64
	switch {
	case t.Minimum == nil && t.Maximum == nil:
		lo, hi = 1, 1000
	case t.Maximum == nil:
		lo, hi = *t.Minimum, *t.Minimum+1000
	case t.Minimum == nil:
		lo, hi = *t.Maximum-1000, *t.Maximum
	default:
		lo, hi = *t.Minimum, *t.Maximum
	}
	exclLo := t.Minimum != nil && t.ExclusiveMinimum
	exclHi := t.Maximum != nil && t.ExclusiveMaximum

	ilo, ihi := math.Ceil(lo), math.Floor(hi)
	if exclLo && ilo == lo {
		ilo++
	}
	if exclHi && ihi == hi {
		ihi--
	}
	if ilo <= ihi {
		span := min(ihi-ilo, maxIntSpan)
		return value.Number(ilo + float64(r.intN(int(span)+1))), nil
	}
	if t.Integer {
		return nil, contractkit.Definitionf("no integer between %v and %v", lo, hi)
	}
	if lo > hi || (lo == hi && (exclLo || exclHi)) {
		return nil, contractkit.Definitionf("empty number range %v..%v", lo, hi)
	}
	return value.Number(lo + (hi-lo)*(0.25+0.5*r.float64())), nil
}

func generateObject(t *ObjectPattern, r *Resolver) (value.Value, error) {
	var mandatory, optional []Entry
	for _, e := range t.Entries {
		if IsOptional(e.Key) {
			optional = append(optional, e)
		} else {
			mandatory = append(mandatory, e)
		}
	}
	bounded := t.MinProperties != nil || t.MaxProperties != nil
	want, atLeast := len(optional), 0
	if bounded {
		minP, maxP := 0, math.MaxInt
		if t.MinProperties != nil {
			minP = *t.MinProperties
		}
		if t.MaxProperties != nil {
			maxP = *t.MaxProperties
		}
		if len(mandatory) > maxP {
			return nil, contractkit.Definitionf("%d mandatory keys exceed maxProperties %d", len(mandatory), maxP)
		}
		if len(mandatory)+len(optional) < minP {
			return nil, contractkit.Definitionf("%d declared keys cannot satisfy minProperties %d", len(mandatory)+len(optional), minP)
		}
		atLeast = max(0, minP-len(mandatory))
		atMost := min(len(optional), maxP-len(mandatory))
		want = atLeast + r.intN(atMost-atLeast+1)
	}

	values := map[string]value.Value{}
	for _, e := range mandatory {
		v, _, err := generateEntry(t, e, r, false)
		if err != nil {
			return nil, err
		}
		values[e.Key] = v
	}

	order := optional
	if bounded {
		order = slices.Clone(optional)
		for i := len(order) - 1; i > 0; i-- {
			j := r.intN(i + 1)
			order[i], order[j] = order[j], order[i]
		}
	}
	included := 0
	for _, e := range order {
		if included >= want {
			break
		}
		v, ok, err := generateEntry(t, e, r, true)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		values[e.Key] = v
		included++
	}
	if included < atLeast {
		return nil, contractkit.Definitionf("could only generate %d optional keys, minProperties needs %d", included, atLeast)
	}

	pairs := make([]value.Pair, 0, len(values))
	for _, e := range t.Entries {
		if v, ok := values[e.Key]; ok {
			pairs = append(pairs, value.Pair{Key: WithoutOptionality(e.Key), Value: v})
		}
	}
	return value.ObjectOf(pairs...), nil
}

// generateEntry generates one key under cycle prevention. ok is false when an
// optional key ran into a cycle and should be left out.
func generateEntry(t *ObjectPattern, e Entry, r *Resolver, tolerant bool) (value.Value, bool, error) {
	name := WithoutOptionality(e.Key)
	p := r.discriminated(name, e.Pattern)
	v, ok, err := withCyclePrevention(r, p, tolerant, func(c *Resolver) (value.Value, error) {
		return c.WithoutDiscrimination().generateKey(t.TypeAlias, name, p)
	})
	if err != nil {
		return nil, false, contractkit.WithBreadcrumb(err, name)
	}
	return v, ok, nil
}

func generateList(t *ListPattern, r *Resolver) (value.Value, error) {
	re := r.WithoutDiscrimination()
	path := r.lookupPath + "[*]"
	if v, ok := r.dictionary[path]; ok && match(t.Element, v, re).IsSuccess() {
		n := 1
		if t.MinItems != nil {
			n = max(n, *t.MinItems)
		}
		out := value.Array{v}
		for len(out) < n {
			extra, err := re.WithLookupPath(path).generate(t.Element)
			if err != nil {
				return nil, err
			}
			out = append(out, extra)
		}
		return out, nil
	}

	n := 1 + r.intN(3)
	if t.MinItems != nil && n < *t.MinItems {
		n = *t.MinItems
	}
	if t.MaxItems != nil && n > *t.MaxItems {
		n = *t.MaxItems
	}
	out := make(value.Array, 0, n)
	for i := range n {
		v, ok, err := withCyclePrevention(re, t.Element, true, func(c *Resolver) (value.Value, error) {
			return c.WithLookupPath(path).generate(t.Element)
		})
		if err != nil {
			return nil, contractkit.WithBreadcrumb(err, contractkit.IndexCrumb(i))
		}
		if !ok {
			break
		}
		out = append(out, v)
	}
	if t.MinItems != nil && len(out) < *t.MinItems {
		return nil, &contractkit.CycleError{Stack: aliasesOf(append(slices.Clip(r.stack), t.Element))}
	}
	return out, nil
}

func generateAnyOf(t *AnyOfPattern, r *Resolver) (value.Value, error) {
	if b, val, ok := r.boundBranch(t); ok {
		return r.WithDiscrimination(t.Discriminator, val).generate(b)
	}
	order := slices.Clone(t.Branches)
	for i := len(order) - 1; i > 0; i-- {
		j := r.intN(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	var lastErr error
	for _, b := range order {
		br := r.WithoutDiscrimination()
		if t.Discriminator != "" {
			if b.Alias() == "" {
				if _, isNull := b.(*NullPattern); !isNull {
					return nil, contractkit.Definitionf("discriminator %q requires every branch to have a type alias", t.Discriminator)
				}
			} else {
				br = r.WithDiscrimination(t.Discriminator, t.valueFor(b.Alias()))
			}
		}
		v, err := br.generate(b)
		if err == nil {
			return v, nil
		}
		if !contractkit.IsCycle(err) {
			return nil, err
		}
		lastErr = err
	}
	if lastErr == nil {
		return nil, contractkit.Definitionf("union without branches")
	}
	return nil, lastErr
}

// valueFor returns the discriminator value selecting the branch with alias.
func (p *AnyOfPattern) valueFor(alias string) string {
	for v, a := range p.Mapping {
		if a == alias {
			return v
		}
	}
	return alias
}

func generateXML(t *XMLPattern, r *Resolver) (value.Value, error) {
	var attrs []value.Pair
	for _, a := range t.Attributes {
		if IsOptional(a.Key) && r.intN(2) == 0 {
			continue
		}
		v, err := r.generate(a.Pattern)
		if err != nil {
			return nil, contractkit.WithBreadcrumb(err, "@"+WithoutOptionality(a.Key))
		}
		attrs = append(attrs, value.Pair{Key: WithoutOptionality(a.Key), Value: value.String(value.Text(v))})
	}
	node := value.XMLNode{Name: t.Name, Attributes: value.ObjectOf(attrs...)}
	for _, cp := range t.Children {
		resolved, err := resolvedHop(cp, r)
		if err != nil {
			return nil, err
		}
		x, isNode := resolved.(*XMLPattern)
		if !isNode {
			v, err := r.generate(resolved)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, value.String(value.Text(v)))
			continue
		}
		count := 1
		switch x.Occurs {
		case OccursOptional:
			count = r.intN(2)
		case OccursMany:
			count = 1 + r.intN(2)
		}
		for range count {
			v, ok, err := withCyclePrevention(r, cp, x.Occurs != OccursOnce, func(c *Resolver) (value.Value, error) {
				return c.generate(x)
			})
			if err != nil {
				return nil, contractkit.WithBreadcrumb(err, x.Name)
			}
			if !ok {
				break
			}
			node.Children = append(node.Children, v)
		}
	}
	return node, nil
}
