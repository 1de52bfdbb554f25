package pattern_test

import (
	"errors"
	"testing"

	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/pattern"
	"github.com/reoring/contractkit/value"
)

func TestGenerate_RoundTrip(t *testing.T) {
	reg := pattern.MustRegistry(map[string]pattern.Pattern{
		"Base": &pattern.ObjectPattern{TypeAlias: "Base", Entries: []pattern.Entry{{Key: "id", Pattern: &pattern.NumberPattern{Integer: true}}}},
		"Cat": &pattern.ObjectPattern{TypeAlias: "Cat", Entries: []pattern.Entry{
			{Key: "petType", Pattern: &pattern.StringPattern{}},
			{Key: "lives", Pattern: &pattern.NumberPattern{Integer: true, Minimum: pattern.FloatPtr(1), Maximum: pattern.FloatPtr(9)}},
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
	shapes := map[string]pattern.Pattern{
		"bounded string":  &pattern.StringPattern{MinLength: pattern.IntPtr(2), MaxLength: pattern.IntPtr(8)},
		"long string":     &pattern.StringPattern{MinLength: pattern.IntPtr(12)},
		"regex string":    &pattern.StringPattern{Regex: `[a-z]{3}[0-9]{2}`},
		"email":           &pattern.StringPattern{Format: "email"},
		"short email":     &pattern.StringPattern{Format: "email", MaxLength: pattern.IntPtr(15)},
		"long hostname":   &pattern.StringPattern{Format: "hostname", MinLength: pattern.IntPtr(70)},
		"regex+minLength": &pattern.StringPattern{Regex: `^[a-z]+$`, MinLength: pattern.IntPtr(10)},
		"regex+bounds":    &pattern.StringPattern{Regex: `^[a-z]+$`, MinLength: pattern.IntPtr(8), MaxLength: pattern.IntPtr(8)},
		"uuid":            &pattern.StringPattern{Format: "uuid"},
		"date":            &pattern.StringPattern{Format: "date"},
		"date-time":       &pattern.StringPattern{Format: "date-time"},
		"integer range":   &pattern.NumberPattern{Integer: true, Minimum: pattern.FloatPtr(10), Maximum: pattern.FloatPtr(20)},
		"narrow float":    &pattern.NumberPattern{Minimum: pattern.FloatPtr(0.5), Maximum: pattern.FloatPtr(0.7)},
		"exclusive":       &pattern.NumberPattern{Minimum: pattern.FloatPtr(0), ExclusiveMinimum: true, Maximum: pattern.FloatPtr(1), ExclusiveMaximum: true},
		"boolean":         &pattern.BooleanPattern{},
		"enum":            &pattern.EnumPattern{Values: []value.Value{value.String("a"), value.Number(2)}},
		"nullable":        pattern.Nullable(&pattern.StringPattern{}),
		"object":          idName(),
		"list":            &pattern.ListPattern{Element: idName(), MinItems: pattern.IntPtr(2), MaxItems: pattern.IntPtr(4)},
		"dictionary":      &pattern.DictionaryPattern{Value: &pattern.NumberPattern{}},
		"union":           pattern.Ref("Pet"),
		"intersection": &pattern.AllOfPattern{Branches: []pattern.Pattern{
			pattern.Ref("Base"),
			&pattern.ObjectPattern{Entries: []pattern.Entry{{Key: "name?", Pattern: &pattern.StringPattern{}}}},
		}},
		"recursive": pattern.Ref("Node"),
		"bounded object": &pattern.ObjectPattern{
			Entries: []pattern.Entry{
				{Key: "a?", Pattern: &pattern.StringPattern{}},
				{Key: "b?", Pattern: &pattern.StringPattern{}},
				{Key: "c?", Pattern: &pattern.StringPattern{}},
				{Key: "d?", Pattern: &pattern.StringPattern{}},
			},
			MinProperties: pattern.IntPtr(2),
			MaxProperties: pattern.IntPtr(3),
		},
	}
	for name, p := range shapes {
		t.Run(name, func(t *testing.T) {
			r := pattern.NewResolver(reg).WithRand(seeded(42))
			for i := range 100 {
				v, err := pattern.Generate(p, r)
				if err != nil {
					t.Fatalf("generation %d: %v", i, err)
				}
				if res := pattern.Match(p, v, r); !res.IsSuccess() {
					t.Fatalf("generation %d produced %s which does not match:\n%s", i, v.Display(), res.Report())
				}
			}
		})
	}
}

func TestGenerate_RecursiveOptionalFieldTerminates(t *testing.T) {
	reg := nodeRegistry(t)
	v, err := pattern.Generate(pattern.Ref("Node"), pattern.NewResolver(reg))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	depth := 0
	for {
		obj, ok := v.(value.Object)
		if !ok {
			t.Fatalf("node is %T", v)
		}
		depth++
		next, ok := obj.Get("next")
		if !ok {
			break
		}
		v = next
	}
	if depth < 1 || depth > 3 {
		t.Fatalf("unexpected depth %d", depth)
	}
}

func TestGenerate_MandatoryCycleFails(t *testing.T) {
	reg := pattern.MustRegistry(map[string]pattern.Pattern{
		"Loop": &pattern.ObjectPattern{TypeAlias: "Loop", Entries: []pattern.Entry{{Key: "self", Pattern: pattern.Ref("Loop")}}},
	})
	_, err := pattern.Generate(pattern.Ref("Loop"), pattern.NewResolver(reg))
	if !errors.Is(err, contractkit.ErrCycle) {
		t.Fatalf("want cycle error, got %v", err)
	}
}

func TestGenerate_PropertyBoundsInfeasible(t *testing.T) {
	r := pattern.NewResolver(pattern.MustRegistry(nil))
	p := &pattern.ObjectPattern{
		Entries: []pattern.Entry{
			{Key: "a", Pattern: &pattern.StringPattern{}},
			{Key: "b", Pattern: &pattern.StringPattern{}},
		},
		MaxProperties: pattern.IntPtr(1),
	}
	var de *contractkit.DefinitionError
	if _, err := pattern.Generate(p, r); !errors.As(err, &de) {
		t.Fatalf("want definition error, got %v", err)
	}
	p = &pattern.ObjectPattern{
		Entries:       []pattern.Entry{{Key: "a?", Pattern: &pattern.StringPattern{}}},
		MinProperties: pattern.IntPtr(2),
	}
	if _, err := pattern.Generate(p, r); !errors.As(err, &de) {
		t.Fatalf("want definition error, got %v", err)
	}
}

func TestGenerate_Precedence(t *testing.T) {
	reg := pattern.MustRegistry(map[string]pattern.Pattern{
		"Person": &pattern.ObjectPattern{TypeAlias: "Person", Entries: []pattern.Entry{
			{Key: "id", Pattern: &pattern.NumberPattern{}},
			{Key: "name", Pattern: &pattern.StringPattern{}},
			{Key: "nick", Pattern: &pattern.StringPattern{MaxLength: pattern.IntPtr(3), Example: value.String("toolong")}},
			{Key: "title", Pattern: &pattern.StringPattern{Example: value.String("Dr")}},
		}},
	})
	r := pattern.NewResolver(reg).
		WithDictionary(pattern.Dictionary{"Person.name": value.String("Jane"), "Person.title": value.String("Prof")}).
		WithFacts(pattern.Facts{"id": value.String("42")})

	v, err := pattern.Generate(pattern.Ref("Person"), r)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	obj := v.(value.Object)
	if id, _ := obj.Get("id"); !value.Equal(id, value.Number(42)) {
		t.Fatalf("fact not applied: id=%v", id.Display())
	}
	if name, _ := obj.Get("name"); !value.Equal(name, value.String("Jane")) {
		t.Fatalf("dictionary not applied: name=%v", name.Display())
	}
	if title, _ := obj.Get("title"); !value.Equal(title, value.String("Dr")) {
		t.Fatalf("example should win over dictionary: title=%v", title.Display())
	}
	nick, _ := obj.Get("nick")
	if s, ok := nick.(value.String); !ok || len(s) > 3 {
		t.Fatalf("invalid example must fall back to synthesis: nick=%v", nick.Display())
	}
}

func TestGenerate_DiscriminatorBinding(t *testing.T) {
	reg := petRegistry(t)
	r := pattern.NewResolver(reg).WithRand(seeded(7))
	seen := map[string]bool{}
	for range 50 {
		v, err := pattern.Generate(pattern.Ref("Pet"), r)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		kind, _ := v.(value.Object).Get("petType")
		seen[string(kind.(value.String))] = true
	}
	if !seen["Cat"] || !seen["Dog"] || len(seen) != 2 {
		t.Fatalf("unexpected discriminator values %v", seen)
	}

	bound := r.WithDiscrimination("petType", "Dog")
	v, err := pattern.Generate(pattern.Ref("Pet"), bound)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if kind, _ := v.(value.Object).Get("petType"); !value.Equal(kind, value.String("Dog")) {
		t.Fatalf("binding ignored: %s", v.Display())
	}
}

func TestParse(t *testing.T) {
	r := pattern.NewResolver(pattern.MustRegistry(nil))
	v, err := pattern.Parse(&pattern.NumberPattern{}, "42", r)
	if err != nil || !value.Equal(v, value.Number(42)) {
		t.Fatalf("number: %v %v", v, err)
	}
	if _, err := pattern.Parse(&pattern.BooleanPattern{}, "maybe", r); err == nil {
		t.Fatalf("expected boolean parse error")
	}
	v, err = pattern.Parse(idName(), `{"id": 1}`, r)
	if err != nil || !pattern.Match(idName(), v, r).IsSuccess() {
		t.Fatalf("object: %v %v", v, err)
	}
	v, err = pattern.Parse(pattern.Nullable(&pattern.NumberPattern{}), "7", r)
	if err != nil || !value.Equal(v, value.Number(7)) {
		t.Fatalf("nullable number: %v %v", v, err)
	}
	v, err = pattern.Parse(pattern.Ref("x"), "1", pattern.InvalidRequestResolver(r))
	if err != nil || !value.Equal(v, value.String("1")) {
		t.Fatalf("ParseAsString should keep text: %v %v", v, err)
	}
}
