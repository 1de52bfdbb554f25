package openapi

import (
	"strconv"
	"strings"

	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/value"
)

// resolve follows a local JSON Pointer reference ("#/components/...").
func (c *compiler) resolve(ref string) (value.Value, error) {
	ptr, ok := strings.CutPrefix(ref, "#/")
	if !ok {
		return nil, contractkit.Definitionf("$ref %s: only local references are supported", ref)
	}
	var cur value.Value = c.doc
	for _, tok := range strings.Split(ptr, "/") {
		tok = strings.ReplaceAll(strings.ReplaceAll(tok, "~1", "/"), "~0", "~")
		switch n := cur.(type) {
		case value.Object:
			next, ok := n.Get(tok)
			if !ok {
				return nil, contractkit.Definitionf("$ref %s: %s not found", ref, tok)
			}
			cur = next
		case value.Array:
			i, err := strconv.Atoi(tok)
			if err != nil || i < 0 || i >= len(n) {
				return nil, contractkit.Definitionf("$ref %s: index %s out of range", ref, tok)
			}
			cur = n[i]
		default:
			return nil, contractkit.Definitionf("$ref %s: cannot descend into %s", ref, cur.Kind())
		}
	}
	return cur, nil
}

// deref replaces a {$ref} node by its target, following chains of
// references.
func (c *compiler) deref(node value.Value) (value.Value, error) {
	for range 32 {
		obj, ok := node.(value.Object)
		if !ok {
			return node, nil
		}
		ref, ok := stringField(obj, "$ref")
		if !ok {
			return node, nil
		}
		target, err := c.resolve(ref)
		if err != nil {
			return nil, err
		}
		node = target
	}
	return nil, contractkit.Definitionf("reference chain too long")
}

func stringField(n value.Object, key string) (string, bool) {
	v, ok := n.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(value.String)
	return string(s), ok
}

func boolField(n value.Object, key string) bool {
	v, _ := n.Get(key)
	b, ok := v.(value.Bool)
	return ok && bool(b)
}

func intField(n value.Object, key string) *int {
	v, _ := n.Get(key)
	f, ok := v.(value.Number)
	if !ok {
		return nil
	}
	i := int(f)
	return &i
}

func floatField(n value.Object, key string) *float64 {
	v, _ := n.Get(key)
	f, ok := v.(value.Number)
	if !ok {
		return nil
	}
	out := float64(f)
	return &out
}

func objectField(n value.Object, key string) (value.Object, bool) {
	v, _ := n.Get(key)
	o, ok := v.(value.Object)
	return o, ok
}
