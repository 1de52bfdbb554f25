package pattern

import (
	"slices"
	"strconv"

	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/value"
)

// Encompasses reports whether every value newer accepts is also accepted by
// older, so a client built against older keeps working against newer. older
// is resolved through olderR and newer through newerR; the two may belong to
// different registries. Failures carry the same breadcrumbs a match failure
// would, for example "address" for a required key newer dropped.
func Encompasses(older, newer Pattern, olderR, newerR *Resolver) contractkit.Result {
	return encompasses(older, newer, olderR, newerR, nil)
}

// typePair is one pair of aliases under comparison. Revisiting a pair while
// it is being compared is a success: the recursive comparison already covers
// it.
type typePair struct{ older, newer string }

const maxEncompassDepth = 128

func encompasses(older, newer Pattern, or, nr *Resolver, pairs []typePair) contractkit.Result {
	if len(pairs) > maxEncompassDepth {
		return contractkit.Fail(contractkit.CodeDefinition, "comparison of "+describe(older)+" and "+describe(newer)+" does not terminate")
	}
	_, od := older.(*DeferredPattern)
	_, nd := newer.(*DeferredPattern)
	if od || nd {
		pair := typePair{older: older.Alias(), newer: newer.Alias()}
		if pair.older != "" && pair.newer != "" {
			if slices.Contains(pairs, pair) {
				return contractkit.Success()
			}
			pairs = append(slices.Clip(pairs), pair)
		}
		ro, err := resolvedHop(older, or)
		if err != nil {
			return contractkit.AsFailure(err)
		}
		rn, err := resolvedHop(newer, nr)
		if err != nil {
			return contractkit.AsFailure(err)
		}
		return encompasses(ro, rn, or, nr, pairs)
	}

	if all, ok := older.(*AllOfPattern); ok {
		merged, err := mergeAll(all, or)
		if err != nil {
			return contractkit.AsFailure(err)
		}
		return encompasses(merged, newer, or, nr, pairs)
	}
	if all, ok := newer.(*AllOfPattern); ok {
		merged, err := mergeAll(all, nr)
		if err != nil {
			return contractkit.AsFailure(err)
		}
		return encompasses(older, merged, or, nr, pairs)
	}

	// Every branch newer may produce must be covered.
	if u, ok := newer.(*AnyOfPattern); ok {
		var results []contractkit.Result
		for i, b := range u.Branches {
			res := encompasses(older, b, or, nr, pairs)
			if !res.IsSuccess() && len(u.Branches) > 1 {
				res = res.Reason("option " + strconv.Itoa(i+1) + " of " + u.TypeName())
			}
			results = append(results, res)
		}
		return contractkit.Combine(results...)
	}
	if u, ok := older.(*AnyOfPattern); ok {
		var failures []contractkit.Result
		for _, b := range u.Branches {
			res := encompasses(b, newer, or, nr, pairs)
			if res.IsSuccess() {
				return res
			}
			if _, isNull := b.(*NullPattern); isNull {
				continue
			}
			failures = append(failures, res)
		}
		if len(failures) == 1 {
			return failures[0]
		}
		return contractkit.Combine(failures...).Reason(or.incompatible(u.TypeName(), newer.TypeName()).Failure().Message)
	}

	if _, ok := older.(*AnythingPattern); ok {
		return contractkit.Success()
	}
	switch n := newer.(type) {
	case *ExactPattern:
		return match(older, n.Value, or)
	case *EnumPattern:
		var results []contractkit.Result
		for _, v := range n.Values {
			results = append(results, match(older, v, or))
		}
		return contractkit.Combine(results...)
	}

	switch o := older.(type) {
	case *ObjectPattern:
		switch n := newer.(type) {
		case *ObjectPattern:
			return encompassObject(o, n, or, nr, pairs)
		case *DictionaryPattern:
			if len(o.Required()) == 0 && o.Extensible {
				return contractkit.Success()
			}
		}
	case *DictionaryPattern:
		switch n := newer.(type) {
		case *DictionaryPattern:
			return encompasses(o.Value, n.Value, or, nr, pairs).Breadcrumb("[*]")
		case *ObjectPattern:
			var results []contractkit.Result
			for _, e := range n.Entries {
				name := WithoutOptionality(e.Key)
				results = append(results, encompasses(o.Value, e.Pattern, or, nr, pairs).Breadcrumb(name))
			}
			return contractkit.Combine(results...)
		}
	case *ListPattern:
		if n, ok := newer.(*ListPattern); ok {
			return encompassList(o, n, or, nr, pairs)
		}
	case *StringPattern:
		if n, ok := newer.(*StringPattern); ok {
			return encompassString(o, n, or)
		}
	case *NumberPattern:
		if n, ok := newer.(*NumberPattern); ok {
			return encompassNumber(o, n, or)
		}
	case *BooleanPattern:
		if _, ok := newer.(*BooleanPattern); ok {
			return contractkit.Success()
		}
	case *NullPattern:
		if _, ok := newer.(*NullPattern); ok {
			return contractkit.Success()
		}
	case *XMLPattern:
		if n, ok := newer.(*XMLPattern); ok {
			return encompassXML(o, n, or, nr, pairs)
		}
	}
	return or.incompatible(older.TypeName(), newer.TypeName())
}

func (r *Resolver) incompatible(expected, actual string) contractkit.Result {
	return contractkit.FailWith(contractkit.CodeIncompatible, r.messages.Message(contractkit.CodeMismatch, map[string]string{
		"expected": expected,
		"actual":   actual,
	}), map[string]any{"expected": expected, "actual": actual})
}

func encompassObject(o, n *ObjectPattern, or, nr *Resolver, pairs []typePair) contractkit.Result {
	var results []contractkit.Result
	for _, oe := range o.Entries {
		name := WithoutOptionality(oe.Key)
		ne, found := n.Lookup(name)
		if !IsOptional(oe.Key) && (!found || IsOptional(ne.Key)) {
			results = append(results, or.keyFailure(contractkit.CodeRequired, name).Breadcrumb(name))
			continue
		}
		if !found {
			continue
		}
		results = append(results, encompasses(oe.Pattern, ne.Pattern, or, nr, pairs).Breadcrumb(name))
	}
	if !o.Extensible && n.Extensible {
		results = append(results, or.incompatible("object without additional properties", "object accepting additional properties"))
	}
	results = append(results, countBounds(o.MinProperties, o.MaxProperties, n.MinProperties, n.MaxProperties, or,
		contractkit.CodeTooFewProperties, contractkit.CodeTooManyProperties))
	return contractkit.Combine(results...)
}

// countBounds checks that the older count bounds are no stricter than the
// newer ones.
func countBounds(oMin, oMax, nMin, nMax *int, r *Resolver, tooFew, tooMany string) contractkit.Result {
	var results []contractkit.Result
	if oMin != nil {
		got := 0
		if nMin != nil {
			got = *nMin
		}
		if *oMin > got {
			results = append(results, r.countFailure(tooFew, *oMin, got))
		}
	}
	if oMax != nil && (nMax == nil || *nMax > *oMax) {
		got := -1
		if nMax != nil {
			got = *nMax
		}
		results = append(results, r.countFailure(tooMany, *oMax, got))
	}
	return contractkit.Combine(results...)
}

func encompassList(o, n *ListPattern, or, nr *Resolver, pairs []typePair) contractkit.Result {
	return contractkit.Combine(
		encompasses(o.Element, n.Element, or, nr, pairs).Breadcrumb("[*]"),
		countBounds(o.MinItems, o.MaxItems, n.MinItems, n.MaxItems, or, contractkit.CodeTooFewItems, contractkit.CodeTooManyItems),
	)
}

func encompassString(o, n *StringPattern, r *Resolver) contractkit.Result {
	var results []contractkit.Result
	if o.MinLength != nil {
		got := 0
		if n.MinLength != nil {
			got = *n.MinLength
		}
		if *o.MinLength > got {
			results = append(results, r.fail(contractkit.CodeTooShort, strconv.Itoa(*o.MinLength), value.String("minLength "+strconv.Itoa(got))))
		}
	}
	if o.MaxLength != nil && (n.MaxLength == nil || *n.MaxLength > *o.MaxLength) {
		got := "unbounded"
		if n.MaxLength != nil {
			got = strconv.Itoa(*n.MaxLength)
		}
		results = append(results, r.fail(contractkit.CodeTooLong, strconv.Itoa(*o.MaxLength), value.String("maxLength "+got)))
	}
	if o.Regex != "" && o.Regex != n.Regex {
		results = append(results, r.fail(contractkit.CodePattern, o.Regex, value.String(n.Regex)))
	}
	if o.Format != "" && o.Format != n.Format {
		results = append(results, r.incompatible(o.TypeName(), n.TypeName()))
	}
	return contractkit.Combine(results...)
}

func encompassNumber(o, n *NumberPattern, r *Resolver) contractkit.Result {
	var results []contractkit.Result
	if o.Integer && !n.Integer {
		results = append(results, r.incompatible("integer", "number"))
	}
	if o.Minimum != nil {
		switch {
		case n.Minimum == nil:
			results = append(results, r.incompatible(boundText(*o.Minimum, o.ExclusiveMinimum, ">")+" minimum", "no minimum"))
		case *n.Minimum < *o.Minimum || (*n.Minimum == *o.Minimum && o.ExclusiveMinimum && !n.ExclusiveMinimum):
			results = append(results, r.incompatible(boundText(*o.Minimum, o.ExclusiveMinimum, ">")+" minimum",
				boundText(*n.Minimum, n.ExclusiveMinimum, ">")+" minimum"))
		}
	}
	if o.Maximum != nil {
		switch {
		case n.Maximum == nil:
			results = append(results, r.incompatible(boundText(*o.Maximum, o.ExclusiveMaximum, "<")+" maximum", "no maximum"))
		case *n.Maximum > *o.Maximum || (*n.Maximum == *o.Maximum && o.ExclusiveMaximum && !n.ExclusiveMaximum):
			results = append(results, r.incompatible(boundText(*o.Maximum, o.ExclusiveMaximum, "<")+" maximum",
				boundText(*n.Maximum, n.ExclusiveMaximum, "<")+" maximum"))
		}
	}
	return contractkit.Combine(results...)
}

func encompassXML(o, n *XMLPattern, or, nr *Resolver, pairs []typePair) contractkit.Result {
	if o.Name != n.Name {
		return or.incompatible("<"+o.Name+">", "<"+n.Name+">")
	}
	var results []contractkit.Result
	for _, oa := range o.Attributes {
		name := WithoutOptionality(oa.Key)
		i := slices.IndexFunc(n.Attributes, func(e Entry) bool { return WithoutOptionality(e.Key) == name })
		if i < 0 || (IsOptional(n.Attributes[i].Key) && !IsOptional(oa.Key)) {
			if !IsOptional(oa.Key) {
				results = append(results, or.keyFailure(contractkit.CodeRequired, name).Breadcrumb("@"+name))
			}
			continue
		}
		results = append(results, encompasses(oa.Pattern, n.Attributes[i].Pattern, or, nr, pairs).Breadcrumb("@"+name))
	}
	if len(o.Children) != len(n.Children) {
		results = append(results, or.incompatible(strconv.Itoa(len(o.Children))+" child nodes", strconv.Itoa(len(n.Children))+" child nodes"))
		return contractkit.Combine(results...)
	}
	for i := range o.Children {
		results = append(results, encompasses(o.Children[i], n.Children[i], or, nr, pairs).Breadcrumb(contractkit.IndexCrumb(i)))
	}
	return contractkit.Combine(results...)
}
