package pattern

import (
	"regexp"
	"strconv"
	"sync"
	"unicode/utf8"

	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/codec"
	"github.com/reoring/contractkit/value"
)

// Match checks v against p. Every violation is reported, each under the
// breadcrumbs of the key or index where it occurred.
func Match(p Pattern, v value.Value, r *Resolver) contractkit.Result {
	return r.matchesPattern("", p, v)
}

func match(p Pattern, v value.Value, r *Resolver) contractkit.Result {
	if v == nil {
		v = value.Null{}
	}
	switch t := p.(type) {
	case *StringPattern:
		return matchString(t, v, r)
	case *NumberPattern:
		return matchNumber(t, v, r)
	case *BooleanPattern:
		if v.Kind() != value.KindBool {
			return r.mismatch("boolean", v)
		}
		return contractkit.Success()
	case *NullPattern:
		if v.Kind() != value.KindNull {
			return r.mismatch("null", v)
		}
		return contractkit.Success()
	case *EnumPattern:
		for _, e := range t.Values {
			if value.Equal(e, v) {
				return contractkit.Success()
			}
		}
		return r.fail(contractkit.CodeInvalidEnum, t.TypeName(), v)
	case *ExactPattern:
		if value.Equal(t.Value, v) {
			return contractkit.Success()
		}
		return r.mismatch(t.Value.Display(), v)
	case *AnythingPattern:
		return contractkit.Success()
	case *ObjectPattern:
		return matchObject(t, v, r)
	case *DictionaryPattern:
		obj, ok := v.(value.Object)
		if !ok {
			return r.mismatch("json object", v)
		}
		rk := r.WithoutDiscrimination()
		var results []contractkit.Result
		for k, e := range obj.All() {
			results = append(results, rk.matchesPattern(k, t.Value, e).Breadcrumb(k))
		}
		return contractkit.Combine(results...)
	case *ListPattern:
		return matchList(t, v, r)
	case *XMLPattern:
		return matchXML(t, v, r)
	case *AllOfPattern:
		return matchAllOf(t, v, r)
	case *AnyOfPattern:
		return matchAnyOf(t, v, r)
	case *DeferredPattern:
		resolved, err := resolvedHop(t, r)
		if err != nil {
			return contractkit.AsFailure(err)
		}
		return match(resolved, v, r)
	}
	return contractkit.Fail(contractkit.CodeDefinition, "unsupported pattern "+describe(p))
}

var regexCache sync.Map // string -> *regexp.Regexp

func compileRegex(expr string) (*regexp.Regexp, error) {
	if re, ok := regexCache.Load(expr); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, contractkit.Definitionf("invalid regex %q: %v", expr, err)
	}
	regexCache.Store(expr, re)
	return re, nil
}

func matchString(t *StringPattern, v value.Value, r *Resolver) contractkit.Result {
	s, ok := v.(value.String)
	if !ok {
		return r.mismatch(t.TypeName(), v)
	}
	var results []contractkit.Result
	n := utf8.RuneCountInString(string(s))
	if t.MinLength != nil && n < *t.MinLength {
		results = append(results, r.fail(contractkit.CodeTooShort, strconv.Itoa(*t.MinLength), v))
	}
	if t.MaxLength != nil && n > *t.MaxLength {
		results = append(results, r.fail(contractkit.CodeTooLong, strconv.Itoa(*t.MaxLength), v))
	}
	if t.Regex != "" {
		re, err := compileRegex(t.Regex)
		if err != nil {
			results = append(results, contractkit.AsFailure(err))
		} else if !re.MatchString(string(s)) {
			results = append(results, r.fail(contractkit.CodePattern, t.Regex, v))
		}
	}
	if f, ok := codec.Lookup(t.Format); ok {
		if err := f.Check(string(s)); err != nil {
			results = append(results, r.fail(contractkit.CodeInvalidFormat, t.Format, v))
		}
	}
	return contractkit.Combine(results...)
}

func matchNumber(t *NumberPattern, v value.Value, r *Resolver) contractkit.Result {
	n, ok := v.(value.Number)
	if !ok {
		return r.mismatch(t.TypeName(), v)
	}
	if t.Integer && !n.IsInteger() {
		return r.mismatch("integer", v)
	}
	f := float64(n)
	var results []contractkit.Result
	if t.Minimum != nil && (f < *t.Minimum || (t.ExclusiveMinimum && f == *t.Minimum)) {
		results = append(results, r.fail(contractkit.CodeTooSmall, boundText(*t.Minimum, t.ExclusiveMinimum, ">"), v))
	}
	if t.Maximum != nil && (f > *t.Maximum || (t.ExclusiveMaximum && f == *t.Maximum)) {
		results = append(results, r.fail(contractkit.CodeTooBig, boundText(*t.Maximum, t.ExclusiveMaximum, "<"), v))
	}
	return contractkit.Combine(results...)
}

func boundText(b float64, exclusive bool, op string) string {
	s := value.Number(b).Display()
	if exclusive {
		return "(" + op + " " + s + ")"
	}
	return s
}

func matchObject(t *ObjectPattern, v value.Value, r *Resolver) contractkit.Result {
	obj, ok := v.(value.Object)
	if !ok {
		return r.mismatch("json object", v)
	}
	var results []contractkit.Result
	if r.unknown == contractkit.UnknownStrict && !t.Extensible {
		for k := range obj.All() {
			if _, declared := t.Lookup(k); !declared {
				results = append(results, r.keyFailure(contractkit.CodeUnknownKey, k).Breadcrumb(k))
			}
		}
	}
	rk := r.WithoutDiscrimination()
	for _, e := range t.Entries {
		name := WithoutOptionality(e.Key)
		actual, present := obj.Get(name)
		if !present {
			if !IsOptional(e.Key) {
				results = append(results, r.keyFailure(contractkit.CodeRequired, name).Breadcrumb(name))
			}
			continue
		}
		results = append(results, rk.matchesPattern(name, r.discriminated(name, e.Pattern), actual).Breadcrumb(name))
	}
	if t.MinProperties != nil && obj.Len() < *t.MinProperties {
		results = append(results, r.countFailure(contractkit.CodeTooFewProperties, *t.MinProperties, obj.Len()))
	}
	if t.MaxProperties != nil && obj.Len() > *t.MaxProperties {
		results = append(results, r.countFailure(contractkit.CodeTooManyProperties, *t.MaxProperties, obj.Len()))
	}
	return contractkit.Combine(results...)
}

func matchList(t *ListPattern, v value.Value, r *Resolver) contractkit.Result {
	arr, ok := v.(value.Array)
	if !ok {
		return r.mismatch("json array", v)
	}
	var results []contractkit.Result
	if t.MinItems != nil && len(arr) < *t.MinItems {
		results = append(results, r.countFailure(contractkit.CodeTooFewItems, *t.MinItems, len(arr)))
	}
	if t.MaxItems != nil && len(arr) > *t.MaxItems {
		results = append(results, r.countFailure(contractkit.CodeTooManyItems, *t.MaxItems, len(arr)))
	}
	re := r.WithoutDiscrimination()
	for i, e := range arr {
		results = append(results, re.matchesPattern("", t.Element, e).Breadcrumb(contractkit.IndexCrumb(i)))
	}
	return contractkit.Combine(results...)
}

func matchAllOf(t *AllOfPattern, v value.Value, r *Resolver) contractkit.Result {
	if err := r.registry.sameKind(t); err != nil {
		return contractkit.AsFailure(err)
	}
	if !isObjectLike(t, r) {
		var results []contractkit.Result
		for _, b := range t.Branches {
			results = append(results, r.matchesPattern("", b, v))
		}
		return contractkit.Combine(results...)
	}
	obj, ok := v.(value.Object)
	if !ok {
		return r.mismatch("json object", v)
	}
	// Branches see the value leniently; unknown keys are checked once against
	// the keys of all branches together.
	lenient := r.WithUnknownKeys(contractkit.UnknownIgnore)
	var results []contractkit.Result
	for _, b := range t.Branches {
		results = append(results, lenient.matchesPattern("", b, obj))
	}
	if r.unknown == contractkit.UnknownStrict {
		keys, open := declaredKeys(t, r, 0)
		if !open {
			for k := range obj.All() {
				if _, ok := keys[k]; !ok {
					results = append(results, r.keyFailure(contractkit.CodeUnknownKey, k).Breadcrumb(k))
				}
			}
		}
	}
	return contractkit.Combine(results...)
}

// declaredKeys collects the object keys any branch of p declares. open is set
// when some branch accepts arbitrary keys.
func declaredKeys(p Pattern, r *Resolver, depth int) (keys map[string]struct{}, open bool) {
	keys = map[string]struct{}{}
	if depth > maxKindDepth {
		return keys, true
	}
	switch t := p.(type) {
	case *ObjectPattern:
		for _, e := range t.Entries {
			keys[WithoutOptionality(e.Key)] = struct{}{}
		}
		return keys, t.Extensible
	case *AllOfPattern, *AnyOfPattern:
		var branches []Pattern
		if a, ok := t.(*AllOfPattern); ok {
			branches = a.Branches
		} else {
			branches = t.(*AnyOfPattern).Branches
		}
		for _, b := range branches {
			bk, bo := declaredKeys(b, r, depth+1)
			open = open || bo
			for k := range bk {
				keys[k] = struct{}{}
			}
		}
		return keys, open
	case *DeferredPattern:
		resolved, err := resolvedHop(t, r)
		if err != nil {
			return keys, true
		}
		return declaredKeys(resolved, r, depth+1)
	case *NullPattern:
		return keys, false
	}
	return keys, true
}

func matchAnyOf(t *AnyOfPattern, v value.Value, r *Resolver) contractkit.Result {
	if t.Discriminator != "" {
		if obj, ok := v.(value.Object); ok {
			branch, val, res := selectBranch(t, obj, r)
			if !res.IsSuccess() {
				return res
			}
			return r.WithDiscrimination(t.Discriminator, val).matchesPattern("", branch, v)
		}
	}
	var failures []contractkit.Result
	for _, b := range t.Branches {
		res := r.matchesPattern("", b, v)
		if res.IsSuccess() {
			return res
		}
		if _, isNull := b.(*NullPattern); isNull && v.Kind() != value.KindNull {
			continue
		}
		failures = append(failures, res)
	}
	if len(failures) == 1 {
		return failures[0]
	}
	return contractkit.Combine(failures...).Reason(r.messages.Message(contractkit.CodeMismatch, map[string]string{
		"expected": t.TypeName(),
		"actual":   describeValue(v),
	}))
}

func matchXML(t *XMLPattern, v value.Value, r *Resolver) contractkit.Result {
	node, ok := v.(value.XMLNode)
	if !ok {
		return r.mismatch("xml node <"+t.Name+">", v)
	}
	if node.Name != t.Name {
		return r.mismatch("<"+t.Name+">", v)
	}
	var results []contractkit.Result
	for _, a := range t.Attributes {
		name := WithoutOptionality(a.Key)
		text, present := node.Attr(name)
		if !present {
			if !IsOptional(a.Key) {
				results = append(results, r.keyFailure(contractkit.CodeRequired, name).Breadcrumb("@"+name))
			}
			continue
		}
		parsed, err := r.parseWith(a.Pattern, text)
		if err != nil {
			results = append(results, r.fail(contractkit.CodeParseError, a.Pattern.TypeName(), value.String(text)).Breadcrumb("@"+name))
			continue
		}
		results = append(results, r.matchesPattern(name, a.Pattern, parsed).Breadcrumb("@"+name))
	}
	if r.unknown == contractkit.UnknownStrict {
		for k := range node.Attributes.All() {
			if isNamespaceAttr(k) {
				continue
			}
			if !declaresAttr(t, k) {
				results = append(results, r.keyFailure(contractkit.CodeUnknownKey, k).Breadcrumb("@"+k))
			}
		}
	}
	results = append(results, matchXMLChildren(t, node, r))
	return contractkit.Combine(results...)
}

func isNamespaceAttr(k string) bool {
	return k == "xmlns" || len(k) > 6 && k[:6] == "xmlns:"
}

func declaresAttr(t *XMLPattern, k string) bool {
	for _, a := range t.Attributes {
		if WithoutOptionality(a.Key) == k {
			return true
		}
	}
	return false
}

func matchXMLChildren(t *XMLPattern, node value.XMLNode, r *Resolver) contractkit.Result {
	kids := node.ChildNodes()
	var results []contractkit.Result
	i := 0
	for _, cp := range t.Children {
		resolved, err := resolvedHop(cp, r)
		if err != nil {
			return contractkit.AsFailure(err)
		}
		x, isNode := resolved.(*XMLPattern)
		if !isNode {
			text := node.Text()
			parsed, err := r.parseWith(resolved, text)
			if err != nil {
				results = append(results, r.fail(contractkit.CodeParseError, resolved.TypeName(), value.String(text)))
				continue
			}
			results = append(results, r.matchesPattern("", resolved, parsed))
			continue
		}
		switch x.Occurs {
		case OccursOnce:
			if i >= len(kids) || kids[i].Name != x.Name {
				results = append(results, r.keyFailure(contractkit.CodeRequired, x.Name).Breadcrumb(x.Name))
				continue
			}
			results = append(results, r.matchesPattern("", x, kids[i]).Breadcrumb(x.Name))
			i++
		case OccursOptional:
			if i < len(kids) && kids[i].Name == x.Name {
				results = append(results, r.matchesPattern("", x, kids[i]).Breadcrumb(x.Name))
				i++
			}
		case OccursMany:
			for n := 0; i < len(kids) && kids[i].Name == x.Name; n++ {
				results = append(results, r.matchesPattern("", x, kids[i]).Breadcrumb(x.Name+contractkit.IndexCrumb(n)))
				i++
			}
		}
	}
	if r.unknown == contractkit.UnknownStrict {
		for ; i < len(kids); i++ {
			results = append(results, r.keyFailure(contractkit.CodeUnknownKey, kids[i].Name).Breadcrumb(kids[i].Name))
		}
	}
	return contractkit.Combine(results...)
}
