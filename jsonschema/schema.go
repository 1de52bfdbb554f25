// Package jsonschema is the JSON Schema (2020-12) document model that
// patterns are exported to.
package jsonschema

import (
	"github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Version is the dialect written to $schema.
const Version = "https://json-schema.org/draft/2020-12/schema"

// Schema is a JSON Schema object. Only the keywords patterns can express are
// modelled.
type Schema struct {
	Version string             `json:"$schema,omitempty"`
	Ref     string             `json:"$ref,omitempty"`
	Defs    map[string]*Schema `json:"$defs,omitempty"`

	// Core
	Type   string    `json:"type,omitempty"`
	Format string    `json:"format,omitempty"`
	Const  Literal   `json:"const,omitempty"`
	Enum   []Literal `json:"enum,omitempty"`

	// String
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	// Number
	Minimum          *float64 `json:"minimum,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty"`
	ExclusiveMinimum *float64 `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *float64 `json:"exclusiveMaximum,omitempty"`

	// Object
	Properties           *orderedmap.OrderedMap[string, *Schema] `json:"properties,omitempty"`
	Required             []string                                `json:"required,omitempty"`
	AdditionalProperties *Schema                                 `json:"additionalProperties,omitempty"`
	MinProperties        *int                                    `json:"minProperties,omitempty"`
	MaxProperties        *int                                    `json:"maxProperties,omitempty"`

	// Array
	Items    *Schema `json:"items,omitempty"`
	MinItems *int    `json:"minItems,omitempty"`
	MaxItems *int    `json:"maxItems,omitempty"`

	// Composition
	AllOf         []*Schema      `json:"allOf,omitempty"`
	AnyOf         []*Schema      `json:"anyOf,omitempty"`
	OneOf         []*Schema      `json:"oneOf,omitempty"`
	Discriminator *Discriminator `json:"discriminator,omitempty"`

	Examples []Literal `json:"examples,omitempty"`

	// False marks the boolean schema false (used for additionalProperties).
	False bool `json:"-"`
}

// Discriminator is the OpenAPI discriminator object, kept as an annotation.
type Discriminator struct {
	PropertyName string            `json:"propertyName"`
	Mapping      map[string]string `json:"mapping,omitempty"`
}

// Literal is an already encoded JSON value.
type Literal []byte

func (l Literal) MarshalJSON() ([]byte, error) {
	if len(l) == 0 {
		return []byte("null"), nil
	}
	return l, nil
}

// FalseSchema rejects every instance.
func FalseSchema() *Schema { return &Schema{False: true} }

// NewProperties returns an empty insertion-ordered property map.
func NewProperties() *orderedmap.OrderedMap[string, *Schema] {
	return orderedmap.New[string, *Schema]()
}

// schemaAlias drops the MarshalJSON method to avoid recursion.
type schemaAlias Schema

func (s *Schema) MarshalJSON() ([]byte, error) {
	if s.False {
		return []byte("false"), nil
	}
	return json.Marshal((*schemaAlias)(s))
}

// Marshal renders s as indented JSON.
func Marshal(s *Schema) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
