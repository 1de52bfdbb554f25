// Package value models the dynamic data that patterns match and generate:
// null, booleans, numbers, strings, insertion-ordered objects, arrays and XML
// nodes. Values are immutable; every "modifying" method returns a copy.
package value

import (
	"iter"
	"math"
	"slices"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind identifies the shape of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindObject
	KindArray
	KindXML
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "json object"
	case KindArray:
		return "json array"
	case KindXML:
		return "xml node"
	}
	return "unknown"
}

// Value is the closed set of data shapes.
type Value interface {
	Kind() Kind
	// Display renders the value for reports: JSON for JSON values, markup for XML.
	Display() string
	isValue()
}

// Text renders v as plain text: strings unquoted, anything else in its
// display form. Used for XML content, path segments and query strings.
func Text(v Value) string {
	if s, ok := v.(String); ok {
		return string(s)
	}
	return v.Display()
}

// Null is the JSON null.
type Null struct{}

func (Null) Kind() Kind      { return KindNull }
func (Null) Display() string { return "null" }
func (Null) isValue()        {}

// Bool is a JSON boolean.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (b Bool) Display() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) isValue() {}

// Number is a JSON number.
type Number float64

func (Number) Kind() Kind { return KindNumber }
func (n Number) Display() string {
	f := float64(n)
	if n.IsInteger() && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
func (Number) isValue() {}

// IsInteger reports whether the number has no fractional part.
func (n Number) IsInteger() bool {
	f := float64(n)
	return !math.IsInf(f, 0) && f == math.Trunc(f)
}

// String is a JSON string.
type String string

func (String) Kind() Kind        { return KindString }
func (s String) Display() string { return quote(string(s)) }
func (String) isValue()          {}

// Array is an ordered sequence of values.
type Array []Value

func (Array) Kind() Kind { return KindArray }
func (a Array) Display() string {
	b := &strings.Builder{}
	writeJSON(b, a)
	return b.String()
}
func (Array) isValue() {}

// Pair is one object entry, used to build objects in order.
type Pair struct {
	Key   string
	Value Value
}

// Object is an insertion-ordered mapping of names to values. The zero Object
// is empty and ready to use.
type Object struct {
	m *orderedmap.OrderedMap[string, Value]
}

// ObjectOf builds an object from pairs; a repeated key keeps its first
// position and its last value.
func ObjectOf(pairs ...Pair) Object {
	m := orderedmap.New[string, Value]()
	for _, p := range pairs {
		m.Set(p.Key, p.Value)
	}
	return Object{m: m}
}

func (Object) Kind() Kind { return KindObject }
func (o Object) Display() string {
	b := &strings.Builder{}
	writeJSON(b, o)
	return b.String()
}
func (Object) isValue() {}

// Len returns the number of entries.
func (o Object) Len() int {
	if o.m == nil {
		return 0
	}
	return o.m.Len()
}

// Get returns the value stored under key.
func (o Object) Get(key string) (Value, bool) {
	if o.m == nil {
		return nil, false
	}
	return o.m.Get(key)
}

// Has reports whether key is present.
func (o Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// All iterates entries in insertion order.
func (o Object) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if o.m == nil {
			return
		}
		for p := o.m.Oldest(); p != nil; p = p.Next() {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

// Keys returns the keys in insertion order.
func (o Object) Keys() []string {
	keys := make([]string, 0, o.Len())
	for k := range o.All() {
		keys = append(keys, k)
	}
	return keys
}

// With returns a copy with key set to v.
func (o Object) With(key string, v Value) Object {
	m := o.clone()
	m.Set(key, v)
	return Object{m: m}
}

// Without returns a copy with key removed.
func (o Object) Without(key string) Object {
	m := o.clone()
	m.Delete(key)
	return Object{m: m}
}

func (o Object) clone() *orderedmap.OrderedMap[string, Value] {
	m := orderedmap.New[string, Value]()
	for k, v := range o.All() {
		m.Set(k, v)
	}
	return m
}

// XMLNode is an element with attributes and children. Children are XMLNode
// values or String values for text content.
type XMLNode struct {
	Name       string
	Attributes Object
	Children   []Value
}

func (XMLNode) Kind() Kind { return KindXML }
func (x XMLNode) Display() string {
	b := &strings.Builder{}
	writeXML(b, x)
	return b.String()
}
func (XMLNode) isValue() {}

// Attr returns the attribute value as text.
func (x XMLNode) Attr(name string) (string, bool) {
	v, ok := x.Attributes.Get(name)
	if !ok {
		return "", false
	}
	if s, ok := v.(String); ok {
		return string(s), true
	}
	return v.Display(), true
}

// ChildNodes returns only the element children.
func (x XMLNode) ChildNodes() []XMLNode {
	var out []XMLNode
	for _, c := range x.Children {
		if n, ok := c.(XMLNode); ok {
			out = append(out, n)
		}
	}
	return out
}

// Text returns the concatenated text children.
func (x XMLNode) Text() string {
	var parts []string
	for _, c := range x.Children {
		if s, ok := c.(String); ok {
			parts = append(parts, string(s))
		}
	}
	return strings.Join(parts, "")
}

// Equal reports structural equality. Object entry order is not significant.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Null:
		return true
	case Bool:
		return av == b.(Bool)
	case Number:
		return av == b.(Number)
	case String:
		return av == b.(String)
	case Array:
		bv := b.(Array)
		return slices.EqualFunc(av, bv, Equal)
	case Object:
		return objectsEqual(av, b.(Object))
	case XMLNode:
		bv := b.(XMLNode)
		return av.Name == bv.Name &&
			objectsEqual(av.Attributes, bv.Attributes) &&
			slices.EqualFunc(av.Children, bv.Children, Equal)
	}
	return false
}

func objectsEqual(a, b Object) bool {
	if a.Len() != b.Len() {
		return false
	}
	for k, v := range a.All() {
		w, ok := b.Get(k)
		if !ok || !Equal(v, w) {
			return false
		}
	}
	return true
}
