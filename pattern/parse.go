package pattern

import (
	"strconv"
	"strings"

	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/value"
)

// Parse turns text (an example row cell, a fact, an XML attribute) into a
// value of p's kind. Scalars are parsed from their plain text; objects, lists
// and unknown shapes from JSON; XML patterns from XML.
func Parse(p Pattern, text string, r *Resolver) (value.Value, error) {
	return r.parseWith(p, text)
}

func parse(p Pattern, text string, r *Resolver) (value.Value, error) {
	switch t := p.(type) {
	case *StringPattern:
		return value.String(text), nil
	case *NumberPattern:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil, parseError(t, text)
		}
		return value.Number(f), nil
	case *BooleanPattern:
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return nil, parseError(t, text)
		}
		return value.Bool(b), nil
	case *NullPattern:
		if s := strings.TrimSpace(text); s != "null" && s != "" {
			return nil, parseError(t, text)
		}
		return value.Null{}, nil
	case *ExactPattern, *EnumPattern:
		v := value.ParseLiteral(text)
		if v.Kind() != value.KindString {
			if res := match(p, v, r); res.IsSuccess() {
				return v, nil
			}
		}
		if res := match(p, value.String(text), r); res.IsSuccess() {
			return value.String(text), nil
		}
		return nil, parseError(p, text)
	case *ObjectPattern, *DictionaryPattern, *ListPattern:
		v, err := value.ParseJSON([]byte(text))
		if err != nil {
			return nil, contractkit.Definitionf("cannot parse %q as %s: %v", text, p.TypeName(), err)
		}
		return v, nil
	case *AnythingPattern:
		return value.ParseLiteral(text), nil
	case *XMLPattern:
		node, err := value.ParseXML([]byte(text))
		if err != nil {
			return nil, contractkit.Definitionf("cannot parse %q as %s: %v", text, p.TypeName(), err)
		}
		return node, nil
	case *AllOfPattern:
		merged, err := mergeAll(t, r)
		if err != nil {
			return nil, err
		}
		return parse(merged, text, r)
	case *AnyOfPattern:
		for _, b := range t.Branches {
			v, err := parse(b, text, r)
			if err != nil {
				continue
			}
			if match(b, v, r).IsSuccess() {
				return v, nil
			}
		}
		return nil, parseError(t, text)
	case *DeferredPattern:
		resolved, err := resolvedHop(t, r)
		if err != nil {
			return nil, err
		}
		return parse(resolved, text, r)
	}
	return nil, contractkit.Definitionf("cannot parse into %s", describe(p))
}

func parseError(p Pattern, text string) error {
	return contractkit.Definitionf("cannot parse %q as %s", text, p.TypeName())
}
