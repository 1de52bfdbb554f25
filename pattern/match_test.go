package pattern_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/pattern"
	"github.com/reoring/contractkit/value"
)

func TestMatch_IDNameScenario(t *testing.T) {
	r := pattern.NewResolver(pattern.MustRegistry(nil))
	p := idName()

	if res := pattern.Match(p, mustJSON(t, `{"id": 1}`), r); !res.IsSuccess() {
		t.Fatalf("expected match, got:\n%s", res.Report())
	}
	res := pattern.Match(p, mustJSON(t, `{"id": 1, "extra": true}`), r)
	iss := res.Issues()
	if len(iss) != 1 || iss[0].Path != "extra" || iss[0].Code != contractkit.CodeUnknownKey {
		t.Fatalf("want one unknown_key at extra, got %v", iss)
	}
	if res := pattern.Match(p, mustJSON(t, `{"id": 1, "extra": true}`), r.WithUnknownKeys(contractkit.UnknownIgnore)); !res.IsSuccess() {
		t.Fatalf("lenient resolver must ignore extra keys: %s", res.Report())
	}
}

func TestMatch_ReportsEveryViolation(t *testing.T) {
	r := pattern.NewResolver(pattern.MustRegistry(nil))
	p := &pattern.ObjectPattern{Entries: []pattern.Entry{
		{Key: "id", Pattern: &pattern.NumberPattern{Minimum: pattern.FloatPtr(1)}},
		{Key: "name", Pattern: &pattern.StringPattern{MinLength: pattern.IntPtr(2)}},
		{Key: "address", Pattern: &pattern.StringPattern{}},
		{Key: "items", Pattern: &pattern.ListPattern{Element: &pattern.NumberPattern{}}},
	}}
	res := pattern.Match(p, mustJSON(t, `{"id": 0, "name": "x", "items": [1, "two", 3], "extra": null}`), r)
	got := map[string]string{}
	for _, it := range res.Issues() {
		got[it.Path] = it.Code
	}
	want := map[string]string{
		"extra":    contractkit.CodeUnknownKey,
		"id":       contractkit.CodeTooSmall,
		"name":     contractkit.CodeTooShort,
		"address":  contractkit.CodeRequired,
		"items[1]": contractkit.CodeMismatch,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestMatch_Scalars(t *testing.T) {
	r := pattern.NewResolver(pattern.MustRegistry(nil))
	cases := []struct {
		name string
		p    pattern.Pattern
		v    value.Value
		code string
	}{
		{"regex ok", &pattern.StringPattern{Regex: `^[a-z]+$`}, value.String("abc"), ""},
		{"regex ng", &pattern.StringPattern{Regex: `^[a-z]+$`}, value.String("ABC"), contractkit.CodePattern},
		{"too long", &pattern.StringPattern{MaxLength: pattern.IntPtr(2)}, value.String("abc"), contractkit.CodeTooLong},
		{"uuid ok", &pattern.StringPattern{Format: "uuid"}, value.String("123e4567-e89b-12d3-a456-426614174000"), ""},
		{"uuid ng", &pattern.StringPattern{Format: "uuid"}, value.String("nope"), contractkit.CodeInvalidFormat},
		{"integer ng", &pattern.NumberPattern{Integer: true}, value.Number(1.5), contractkit.CodeMismatch},
		{"exclusive max", &pattern.NumberPattern{Maximum: pattern.FloatPtr(10), ExclusiveMaximum: true}, value.Number(10), contractkit.CodeTooBig},
		{"enum ok", &pattern.EnumPattern{Values: []value.Value{value.String("a"), value.String("b")}}, value.String("b"), ""},
		{"enum ng", &pattern.EnumPattern{Values: []value.Value{value.String("a")}}, value.String("c"), contractkit.CodeInvalidEnum},
		{"nullable null", pattern.Nullable(&pattern.StringPattern{}), value.Null{}, ""},
		{"nullable number", pattern.Nullable(&pattern.StringPattern{}), value.Number(1), contractkit.CodeMismatch},
		{"anything", &pattern.AnythingPattern{}, value.Bool(true), ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := pattern.Match(tc.p, tc.v, r)
			if tc.code == "" {
				if !res.IsSuccess() {
					t.Fatalf("expected success, got %s", res.Report())
				}
				return
			}
			iss := res.Issues()
			if len(iss) == 0 || iss[0].Code != tc.code {
				t.Fatalf("want %s, got %v", tc.code, iss)
			}
		})
	}
}

func TestMatch_DiscriminatorSelectsBranch(t *testing.T) {
	reg := petRegistry(t)
	r := pattern.NewResolver(reg)
	pet := pattern.Ref("Pet")

	// Dog's shape would accept this value; the discriminator says Cat.
	res := pattern.Match(pet, mustJSON(t, `{"petType": "Cat", "bark": true}`), r)
	got := map[string]string{}
	for _, it := range res.Issues() {
		got[it.Path] = it.Code
	}
	want := map[string]string{"bark": contractkit.CodeUnknownKey, "lives": contractkit.CodeRequired}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}

	if res := pattern.Match(pet, mustJSON(t, `{"petType": "Cat", "lives": 9}`), r); !res.IsSuccess() {
		t.Fatalf("cat should match: %s", res.Report())
	}
	if res := pattern.Match(pet, mustJSON(t, `{"petType": "Dog", "bark": true}`), r); !res.IsSuccess() {
		t.Fatalf("dog should match: %s", res.Report())
	}
	if iss := pattern.Match(pet, mustJSON(t, `{"petType": "Bird"}`), r).Issues(); len(iss) != 1 || iss[0].Code != contractkit.CodeDiscriminatorUnknown {
		t.Fatalf("want discriminator_unknown, got %v", iss)
	}
	if iss := pattern.Match(pet, mustJSON(t, `{"lives": 1}`), r).Issues(); len(iss) != 1 || iss[0].Code != contractkit.CodeDiscriminatorMissing || iss[0].Path != "petType" {
		t.Fatalf("want discriminator_missing at petType, got %v", iss)
	}
}

func TestMatch_AllOfChecksUnknownKeysAgainstUnion(t *testing.T) {
	reg := pattern.MustRegistry(map[string]pattern.Pattern{
		"Base": &pattern.ObjectPattern{TypeAlias: "Base", Entries: []pattern.Entry{{Key: "id", Pattern: &pattern.NumberPattern{}}}},
	})
	r := pattern.NewResolver(reg)
	p := &pattern.AllOfPattern{Branches: []pattern.Pattern{
		pattern.Ref("Base"),
		&pattern.ObjectPattern{Entries: []pattern.Entry{{Key: "name", Pattern: &pattern.StringPattern{}}}},
	}}
	if res := pattern.Match(p, mustJSON(t, `{"id": 1, "name": "a"}`), r); !res.IsSuccess() {
		t.Fatalf("keys known to some branch must be accepted: %s", res.Report())
	}
	iss := pattern.Match(p, mustJSON(t, `{"id": 1, "name": "a", "other": 1}`), r).Issues()
	if len(iss) != 1 || iss[0].Path != "other" || iss[0].Code != contractkit.CodeUnknownKey {
		t.Fatalf("want a single unknown_key at other, got %v", iss)
	}
	iss = pattern.Match(p, mustJSON(t, `{"name": "a"}`), r).Issues()
	if len(iss) != 1 || iss[0].Path != "id" {
		t.Fatalf("want required id, got %v", iss)
	}
}

func TestNewRegistry_RejectsBadDefinitions(t *testing.T) {
	cases := map[string]map[string]pattern.Pattern{
		"unknown reference": {
			"A": &pattern.ObjectPattern{Entries: []pattern.Entry{{Key: "b", Pattern: pattern.Ref("Missing")}}},
		},
		"mixed allOf": {
			"A": &pattern.AllOfPattern{Branches: []pattern.Pattern{&pattern.StringPattern{}, &pattern.ObjectPattern{}}},
		},
		"discriminator without alias": {
			"A": &pattern.AnyOfPattern{Discriminator: "kind", Branches: []pattern.Pattern{&pattern.ObjectPattern{}}},
		},
	}
	for name, patterns := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := pattern.NewRegistry(patterns)
			var de *contractkit.DefinitionError
			if !errors.As(err, &de) {
				t.Fatalf("want DefinitionError, got %v", err)
			}
			if de.Breadcrumbs[0] != "A" {
				t.Fatalf("want breadcrumb A, got %v", de.Breadcrumbs)
			}
		})
	}
}

func TestMatch_XML(t *testing.T) {
	r := pattern.NewResolver(pattern.MustRegistry(nil))
	p := &pattern.XMLPattern{Name: "pet", Attributes: []pattern.Entry{
		{Key: "id", Pattern: &pattern.NumberPattern{}},
		{Key: "lang?", Pattern: &pattern.StringPattern{}},
	}, Children: []pattern.Pattern{
		&pattern.XMLPattern{Name: "name", Children: []pattern.Pattern{&pattern.StringPattern{}}},
		&pattern.XMLPattern{Name: "tag", Occurs: pattern.OccursMany, Children: []pattern.Pattern{&pattern.StringPattern{}}},
	}}
	ok, err := value.ParseXML([]byte(`<pet id="1"><name>Rex</name><tag>a</tag><tag>b</tag></pet>`))
	if err != nil {
		t.Fatal(err)
	}
	if res := pattern.Match(p, ok, r); !res.IsSuccess() {
		t.Fatalf("expected match: %s", res.Report())
	}
	bad, err := value.ParseXML([]byte(`<pet id="x"><tag>a</tag></pet>`))
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]string{}
	for _, it := range pattern.Match(p, bad, r).Issues() {
		got[it.Path] = it.Code
	}
	want := map[string]string{"@id": contractkit.CodeParseError, "name": contractkit.CodeRequired}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestResolver_WithIsCopyOnWrite(t *testing.T) {
	r := pattern.NewResolver(pattern.MustRegistry(nil))
	lenient := r.WithUnknownKeys(contractkit.UnknownIgnore).WithDiscrimination("kind", "a")
	if r.UnknownKeys() != contractkit.UnknownStrict {
		t.Fatalf("original resolver changed")
	}
	if _, _, ok := r.Discrimination(); ok {
		t.Fatalf("original resolver gained a discrimination")
	}
	if k, v, ok := lenient.Discrimination(); !ok || k != "kind" || v != "a" {
		t.Fatalf("unexpected discrimination %q=%q", k, v)
	}
}
