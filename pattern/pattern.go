// Package pattern is the structural type engine: a closed set of Pattern
// variants over dynamic values, and the operations over them.
//
// Every operation is a function that switches over the variant set:
//
//   - Match checks a value against a Pattern and reports every violation.
//   - Generate synthesizes a value accepted by a Pattern.
//   - PositiveCandidates and NegativeCandidates decompose a Pattern into the
//     shapes used to build test cases, lazily.
//   - Encompasses decides whether an older Pattern accepts every value a
//     newer one accepts (backward compatibility).
//   - Merge composes two like-kind Patterns for intersections.
//   - Parse turns text into a value of the Pattern's kind.
//
// Patterns are immutable. Named components live in a Registry and are reached
// through Deferred references, so recursive types never form cyclic Go
// values. A Resolver carries per-operation configuration and the
// cycle-prevention stack; its With methods return copies.
package pattern

import (
	"strings"

	"github.com/reoring/contractkit/value"
)

// Pattern is implemented only by the variants in this package.
type Pattern interface {
	// Alias is the registered component name, or "" when anonymous.
	Alias() string
	// TypeName is a short human-readable description used in messages.
	TypeName() string
	sealed()
}

// OptionalSuffix marks an optional object key or XML attribute.
const OptionalSuffix = "?"

// IsOptional reports whether key carries the optional marker.
func IsOptional(key string) bool { return strings.HasSuffix(key, OptionalSuffix) }

// WithoutOptionality strips the optional marker.
func WithoutOptionality(key string) string { return strings.TrimSuffix(key, OptionalSuffix) }

// Optional adds the optional marker to key.
func Optional(key string) string {
	if IsOptional(key) {
		return key
	}
	return key + OptionalSuffix
}

// StringPattern accepts strings within length bounds, matching Regex (when
// set) and Format (when set).
type StringPattern struct {
	TypeAlias string
	MinLength *int
	MaxLength *int
	Regex     string
	Format    string
	Example   value.Value
}

// NumberPattern accepts numbers within an optional range.
type NumberPattern struct {
	TypeAlias        string
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum bool
	ExclusiveMaximum bool
	Integer          bool
	Example          value.Value
}

// BooleanPattern accepts true and false.
type BooleanPattern struct {
	TypeAlias string
	Example   value.Value
}

// NullPattern accepts only null.
type NullPattern struct{}

// EnumPattern accepts any of a fixed set of literal values.
type EnumPattern struct {
	TypeAlias string
	Values    []value.Value
}

// ExactPattern accepts exactly one literal value.
type ExactPattern struct {
	Value value.Value
}

// AnythingPattern accepts every value.
type AnythingPattern struct {
	TypeAlias string
}

// Entry is one declared object key. A key ending in "?" is optional.
type Entry struct {
	Key     string
	Pattern Pattern
}

// ObjectPattern accepts JSON objects with the declared keys. Extensible
// objects accept undeclared keys regardless of the Resolver's key policy.
type ObjectPattern struct {
	TypeAlias     string
	Entries       []Entry
	MinProperties *int
	MaxProperties *int
	Extensible    bool
	Example       value.Value
}

// DictionaryPattern accepts objects whose every value matches Value.
type DictionaryPattern struct {
	TypeAlias string
	Value     Pattern
}

// ListPattern accepts arrays whose every element matches Element.
type ListPattern struct {
	TypeAlias string
	Element   Pattern
	MinItems  *int
	MaxItems  *int
	Example   value.Value
}

// Occurrence says how many times an XML child node may appear.
type Occurrence int

const (
	OccursOnce Occurrence = iota
	OccursOptional
	OccursMany
)

// XMLPattern accepts an XML node with the given name, attributes and child
// sequence. Children are XMLPatterns or, for text content, scalar Patterns.
type XMLPattern struct {
	TypeAlias  string
	Name       string
	Attributes []Entry
	Children   []Pattern
	Occurs     Occurrence
}

// AllOfPattern accepts values matching every branch.
type AllOfPattern struct {
	TypeAlias string
	Branches  []Pattern
}

// AnyOfPattern accepts values matching at least one branch. With a
// Discriminator, the branch is chosen by the literal value of that property:
// Mapping translates discriminator values to branch aliases, and an unmapped
// value selects the branch whose alias equals it.
type AnyOfPattern struct {
	TypeAlias     string
	Branches      []Pattern
	Discriminator string
	Mapping       map[string]string
}

// DeferredPattern is a named reference resolved through the Registry.
type DeferredPattern struct {
	Ref string
}

func (p *StringPattern) Alias() string     { return p.TypeAlias }
func (p *NumberPattern) Alias() string     { return p.TypeAlias }
func (p *BooleanPattern) Alias() string    { return p.TypeAlias }
func (p *NullPattern) Alias() string       { return "" }
func (p *EnumPattern) Alias() string       { return p.TypeAlias }
func (p *ExactPattern) Alias() string      { return "" }
func (p *AnythingPattern) Alias() string   { return p.TypeAlias }
func (p *ObjectPattern) Alias() string     { return p.TypeAlias }
func (p *DictionaryPattern) Alias() string { return p.TypeAlias }
func (p *ListPattern) Alias() string       { return p.TypeAlias }
func (p *XMLPattern) Alias() string        { return p.TypeAlias }
func (p *AllOfPattern) Alias() string      { return p.TypeAlias }
func (p *AnyOfPattern) Alias() string      { return p.TypeAlias }
func (p *DeferredPattern) Alias() string   { return p.Ref }

func (p *StringPattern) TypeName() string {
	if p.Format != "" {
		return p.Format
	}
	return "string"
}

func (p *NumberPattern) TypeName() string {
	if p.Integer {
		return "integer"
	}
	return "number"
}

func (p *BooleanPattern) TypeName() string { return "boolean" }
func (p *NullPattern) TypeName() string    { return "null" }

func (p *EnumPattern) TypeName() string {
	parts := make([]string, 0, len(p.Values))
	for _, v := range p.Values {
		parts = append(parts, v.Display())
	}
	return "enum [" + strings.Join(parts, ", ") + "]"
}

func (p *ExactPattern) TypeName() string    { return p.Value.Display() }
func (p *AnythingPattern) TypeName() string { return "anything" }
func (p *ObjectPattern) TypeName() string   { return nameOr(p.TypeAlias, "json object") }
func (p *DictionaryPattern) TypeName() string {
	return nameOr(p.TypeAlias, "dictionary of "+p.Value.TypeName())
}
func (p *ListPattern) TypeName() string {
	return nameOr(p.TypeAlias, "list of "+p.Element.TypeName())
}
func (p *XMLPattern) TypeName() string { return nameOr(p.TypeAlias, "<"+p.Name+">") }
func (p *AllOfPattern) TypeName() string {
	return nameOr(p.TypeAlias, "all of "+branchNames(p.Branches))
}
func (p *AnyOfPattern) TypeName() string {
	return nameOr(p.TypeAlias, "one of "+branchNames(p.Branches))
}
func (p *DeferredPattern) TypeName() string { return "(" + p.Ref + ")" }

func (*StringPattern) sealed()     {}
func (*NumberPattern) sealed()     {}
func (*BooleanPattern) sealed()    {}
func (*NullPattern) sealed()       {}
func (*EnumPattern) sealed()       {}
func (*ExactPattern) sealed()      {}
func (*AnythingPattern) sealed()   {}
func (*ObjectPattern) sealed()     {}
func (*DictionaryPattern) sealed() {}
func (*ListPattern) sealed()       {}
func (*XMLPattern) sealed()        {}
func (*AllOfPattern) sealed()      {}
func (*AnyOfPattern) sealed()      {}
func (*DeferredPattern) sealed()   {}

func nameOr(alias, fallback string) string {
	if alias != "" {
		return "(" + alias + ")"
	}
	return fallback
}

func branchNames(ps []Pattern) string {
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		parts = append(parts, p.TypeName())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Lookup returns the entry declared under key (with or without the optional
// marker).
func (p *ObjectPattern) Lookup(key string) (Entry, bool) {
	name := WithoutOptionality(key)
	for _, e := range p.Entries {
		if WithoutOptionality(e.Key) == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Required returns the names of the mandatory keys in declaration order.
func (p *ObjectPattern) Required() []string {
	var out []string
	for _, e := range p.Entries {
		if !IsOptional(e.Key) {
			out = append(out, e.Key)
		}
	}
	return out
}

// Ref returns a DeferredPattern for alias.
func Ref(alias string) *DeferredPattern { return &DeferredPattern{Ref: alias} }

// Exact returns an ExactPattern for v.
func Exact(v value.Value) *ExactPattern { return &ExactPattern{Value: v} }

// Nullable returns a union of p and null.
func Nullable(p Pattern) *AnyOfPattern {
	return &AnyOfPattern{Branches: []Pattern{p, &NullPattern{}}}
}

// IntPtr is a small helper for optional bounds.
func IntPtr(i int) *int { return &i }

// FloatPtr is a small helper for optional bounds.
func FloatPtr(f float64) *float64 { return &f }

// describe renders a Pattern for definition error messages.
func describe(p Pattern) string {
	if p == nil {
		return "<nil>"
	}
	return p.TypeName()
}
