package pattern

import (
	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/value"
)

// shapeKind is the underlying data kind a Pattern accepts, used to check that
// intersections and merges combine like with like.
type shapeKind string

const (
	kindAny     shapeKind = ""
	kindObject  shapeKind = "json object"
	kindArray   shapeKind = "json array"
	kindString  shapeKind = "string"
	kindNumber  shapeKind = "number"
	kindBoolean shapeKind = "boolean"
	kindNull    shapeKind = "null"
	kindXML     shapeKind = "xml node"
)

func (k shapeKind) String() string {
	if k == kindAny {
		return "anything"
	}
	return string(k)
}

func kindOfValue(v value.Value) shapeKind {
	switch v.Kind() {
	case value.KindNull:
		return kindNull
	case value.KindBool:
		return kindBoolean
	case value.KindNumber:
		return kindNumber
	case value.KindString:
		return kindString
	case value.KindObject:
		return kindObject
	case value.KindArray:
		return kindArray
	case value.KindXML:
		return kindXML
	}
	return kindAny
}

const maxKindDepth = 32

func kindOf(p Pattern, reg *Registry, depth int) shapeKind {
	if depth > maxKindDepth {
		return kindAny
	}
	switch t := p.(type) {
	case *StringPattern:
		return kindString
	case *NumberPattern:
		return kindNumber
	case *BooleanPattern:
		return kindBoolean
	case *NullPattern:
		return kindNull
	case *EnumPattern:
		if len(t.Values) > 0 {
			return kindOfValue(t.Values[0])
		}
	case *ExactPattern:
		return kindOfValue(t.Value)
	case *ObjectPattern, *DictionaryPattern:
		return kindObject
	case *ListPattern:
		return kindArray
	case *XMLPattern:
		return kindXML
	case *AllOfPattern:
		for _, b := range t.Branches {
			if k := kindOf(b, reg, depth+1); k != kindAny {
				return k
			}
		}
	case *AnyOfPattern:
		k := kindAny
		for _, b := range t.Branches {
			bk := kindOf(b, reg, depth+1)
			if bk == kindNull {
				continue
			}
			if bk == kindAny || (k != kindAny && bk != k) {
				return kindAny
			}
			k = bk
		}
		return k
	case *DeferredPattern:
		if target, ok := reg.Get(t.Ref); ok {
			return kindOf(target, reg, depth+1)
		}
	}
	return kindAny
}

const maxHops = 64

// resolvedHop follows Deferred references until it reaches a concrete
// Pattern.
func resolvedHop(p Pattern, r *Resolver) (Pattern, error) {
	for range maxHops {
		d, ok := p.(*DeferredPattern)
		if !ok {
			return p, nil
		}
		target, ok := r.registry.Get(d.Ref)
		if !ok {
			return nil, contractkit.Definitionf("type %s does not exist", d.Ref)
		}
		p = target
	}
	return nil, contractkit.Definitionf("reference chain too long at %s", p.TypeName())
}

// isObjectLike reports whether p (after resolution) accepts JSON objects.
func isObjectLike(p Pattern, r *Resolver) bool {
	return kindOf(p, r.registry, 0) == kindObject
}
