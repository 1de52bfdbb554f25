package pattern_test

import (
	"testing"

	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/pattern"
	"github.com/reoring/contractkit/value"
)

func TestEncompasses_Reflexive(t *testing.T) {
	reg := pattern.MustRegistry(map[string]pattern.Pattern{
		"Base": &pattern.ObjectPattern{TypeAlias: "Base", Entries: []pattern.Entry{{Key: "id", Pattern: &pattern.NumberPattern{}}}},
		"Cat": &pattern.ObjectPattern{TypeAlias: "Cat", Entries: []pattern.Entry{
			{Key: "petType", Pattern: &pattern.StringPattern{}},
			{Key: "lives", Pattern: &pattern.NumberPattern{Integer: true}},
		}},
		"Dog": &pattern.ObjectPattern{TypeAlias: "Dog", Entries: []pattern.Entry{
			{Key: "petType", Pattern: &pattern.StringPattern{}},
			{Key: "bark?", Pattern: &pattern.BooleanPattern{}},
		}},
		"Pet": &pattern.AnyOfPattern{TypeAlias: "Pet", Discriminator: "petType",
			Branches: []pattern.Pattern{pattern.Ref("Cat"), pattern.Ref("Dog")}},
		"Node": &pattern.ObjectPattern{TypeAlias: "Node", Entries: []pattern.Entry{
			{Key: "value", Pattern: &pattern.NumberPattern{}},
			{Key: "next?", Pattern: pattern.Ref("Node")},
		}},
	})
	r := pattern.NewResolver(reg)
	shapes := map[string]pattern.Pattern{
		"object":   idName(),
		"union":    pattern.Ref("Pet"),
		"cycle":    pattern.Ref("Node"),
		"list":     &pattern.ListPattern{Element: idName(), MaxItems: pattern.IntPtr(3)},
		"string":   &pattern.StringPattern{MinLength: pattern.IntPtr(1), MaxLength: pattern.IntPtr(4), Regex: "^[a-z]+$"},
		"number":   &pattern.NumberPattern{Integer: true, Minimum: pattern.FloatPtr(0), ExclusiveMaximum: true, Maximum: pattern.FloatPtr(9)},
		"enum":     &pattern.EnumPattern{Values: []value.Value{value.String("a"), value.String("b")}},
		"nullable": pattern.Nullable(&pattern.StringPattern{}),
		"allOf": &pattern.AllOfPattern{Branches: []pattern.Pattern{
			pattern.Ref("Base"),
			&pattern.ObjectPattern{Entries: []pattern.Entry{{Key: "name", Pattern: &pattern.StringPattern{}}}},
		}},
	}
	for name, p := range shapes {
		t.Run(name, func(t *testing.T) {
			if res := pattern.Encompasses(p, p, r, r); !res.IsSuccess() {
				t.Fatalf("a pattern must encompass itself:\n%s", res.Report())
			}
		})
	}
}

func TestEncompasses_OptionalKeys(t *testing.T) {
	r := pattern.NewResolver(pattern.MustRegistry(nil))
	wider := &pattern.ObjectPattern{Entries: []pattern.Entry{
		{Key: "id", Pattern: &pattern.NumberPattern{}},
		{Key: "name?", Pattern: &pattern.StringPattern{}},
		{Key: "description?", Pattern: &pattern.StringPattern{}},
	}}
	if res := pattern.Encompasses(idName(), wider, r, r); !res.IsSuccess() {
		t.Fatalf("a new optional key keeps compatibility:\n%s", res.Report())
	}

	older := &pattern.ObjectPattern{Entries: []pattern.Entry{
		{Key: "id", Pattern: &pattern.NumberPattern{}},
		{Key: "name", Pattern: &pattern.StringPattern{}},
	}}
	newer := &pattern.ObjectPattern{Entries: []pattern.Entry{{Key: "id", Pattern: &pattern.NumberPattern{}}}}
	iss := pattern.Encompasses(older, newer, r, r).Issues()
	if len(iss) != 1 || iss[0].Path != "name" || iss[0].Code != contractkit.CodeRequired {
		t.Fatalf("want required at name, got %v", iss)
	}
	iss = pattern.Encompasses(older, idName(), r, r).Issues()
	if len(iss) != 1 || iss[0].Path != "name" {
		t.Fatalf("a required key turning optional must fail, got %v", iss)
	}
}

func TestEncompasses_Bounds(t *testing.T) {
	r := pattern.NewResolver(pattern.MustRegistry(nil))
	cases := []struct {
		name         string
		older, newer pattern.Pattern
		ok           bool
	}{
		{"narrower maxLength", &pattern.StringPattern{MaxLength: pattern.IntPtr(10)}, &pattern.StringPattern{MaxLength: pattern.IntPtr(5)}, true},
		{"wider maxLength", &pattern.StringPattern{MaxLength: pattern.IntPtr(5)}, &pattern.StringPattern{MaxLength: pattern.IntPtr(10)}, false},
		{"dropped regex", &pattern.StringPattern{Regex: "^a"}, &pattern.StringPattern{}, false},
		{"higher minimum", &pattern.NumberPattern{Minimum: pattern.FloatPtr(0)}, &pattern.NumberPattern{Minimum: pattern.FloatPtr(1)}, true},
		{"lower minimum", &pattern.NumberPattern{Minimum: pattern.FloatPtr(1)}, &pattern.NumberPattern{Minimum: pattern.FloatPtr(0)}, false},
		{"integer to number", &pattern.NumberPattern{Integer: true}, &pattern.NumberPattern{}, false},
		{"number to integer", &pattern.NumberPattern{}, &pattern.NumberPattern{Integer: true}, true},
		{"kind change", &pattern.StringPattern{}, &pattern.NumberPattern{}, false},
		{"literal", &pattern.StringPattern{}, pattern.Exact(value.String("x")), true},
		{"enum growth", &pattern.EnumPattern{Values: []value.Value{value.String("a")}},
			&pattern.EnumPattern{Values: []value.Value{value.String("a"), value.String("b")}}, false},
		{"minProperties", &pattern.ObjectPattern{MinProperties: pattern.IntPtr(2)}, &pattern.ObjectPattern{}, false},
		{"anything", &pattern.AnythingPattern{}, idName(), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := pattern.Encompasses(tc.older, tc.newer, r, r)
			if res.IsSuccess() != tc.ok {
				t.Fatalf("want ok=%v, got:\n%s", tc.ok, res.Report())
			}
		})
	}
}

func TestEncompasses_Unions(t *testing.T) {
	r := pattern.NewResolver(pattern.MustRegistry(nil))
	union := &pattern.AnyOfPattern{Branches: []pattern.Pattern{&pattern.StringPattern{}, &pattern.NumberPattern{}}}
	if res := pattern.Encompasses(union, &pattern.StringPattern{}, r, r); !res.IsSuccess() {
		t.Fatalf("a union covers one of its branches:\n%s", res.Report())
	}
	res := pattern.Encompasses(&pattern.StringPattern{}, union, r, r)
	if res.IsSuccess() {
		t.Fatalf("a single branch cannot cover a union")
	}
	if iss := res.Issues(); len(iss) != 1 || iss[0].Code != contractkit.CodeIncompatible {
		t.Fatalf("want one incompatible issue, got %v", iss)
	}
}

func TestEncompasses_AcrossRegistries(t *testing.T) {
	v1 := pattern.NewResolver(nodeRegistry(t))
	v2 := pattern.NewResolver(pattern.MustRegistry(map[string]pattern.Pattern{
		"Node": &pattern.ObjectPattern{TypeAlias: "Node", Entries: []pattern.Entry{
			{Key: "value", Pattern: &pattern.NumberPattern{}},
			{Key: "label?", Pattern: &pattern.StringPattern{}},
			{Key: "next?", Pattern: pattern.Ref("Node")},
		}},
	}))
	if res := pattern.Encompasses(pattern.Ref("Node"), pattern.Ref("Node"), v1, v2); !res.IsSuccess() {
		t.Fatalf("adding an optional key to a recursive type is compatible:\n%s", res.Report())
	}
	v3 := pattern.NewResolver(pattern.MustRegistry(map[string]pattern.Pattern{
		"Node": &pattern.ObjectPattern{TypeAlias: "Node", Entries: []pattern.Entry{
			{Key: "value", Pattern: &pattern.StringPattern{}},
			{Key: "next?", Pattern: pattern.Ref("Node")},
		}},
	}))
	iss := pattern.Encompasses(pattern.Ref("Node"), pattern.Ref("Node"), v1, v3).Issues()
	if len(iss) != 1 || iss[0].Path != "value" {
		t.Fatalf("want a single issue at value, got %v", iss)
	}
}

func TestEncompasses_ListBreadcrumb(t *testing.T) {
	r := pattern.NewResolver(pattern.MustRegistry(nil))
	older := &pattern.ObjectPattern{Entries: []pattern.Entry{{Key: "items", Pattern: &pattern.ListPattern{Element: &pattern.NumberPattern{}}}}}
	newer := &pattern.ObjectPattern{Entries: []pattern.Entry{{Key: "items", Pattern: &pattern.ListPattern{Element: &pattern.StringPattern{}}}}}
	iss := pattern.Encompasses(older, newer, r, r).Issues()
	if len(iss) != 1 || iss[0].Path != "items[*]" {
		t.Fatalf("want issue at items[*], got %v", iss)
	}
}
