package pattern_test

import (
	"math/rand/v2"
	"testing"

	"github.com/reoring/contractkit/pattern"
	"github.com/reoring/contractkit/value"
)

func seeded(seed uint64) *rand.Rand { return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }

func mustJSON(t *testing.T, s string) value.Value {
	t.Helper()
	v, err := value.ParseJSON([]byte(s))
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return v
}

// idName is {id: number, name?: string}.
func idName() *pattern.ObjectPattern {
	return &pattern.ObjectPattern{Entries: []pattern.Entry{
		{Key: "id", Pattern: &pattern.NumberPattern{}},
		{Key: "name?", Pattern: &pattern.StringPattern{}},
	}}
}

// petRegistry registers a discriminated union of two object shapes. A value
// {"petType":"Cat","bark":true} fits Dog's shape but must be judged as a Cat.
func petRegistry(t *testing.T) *pattern.Registry {
	t.Helper()
	reg, err := pattern.NewRegistry(map[string]pattern.Pattern{
		"Cat": &pattern.ObjectPattern{TypeAlias: "Cat", Entries: []pattern.Entry{
			{Key: "petType", Pattern: &pattern.StringPattern{}},
			{Key: "lives", Pattern: &pattern.NumberPattern{Integer: true, Minimum: pattern.FloatPtr(1), Maximum: pattern.FloatPtr(9)}},
		}},
		"Dog": &pattern.ObjectPattern{TypeAlias: "Dog", Entries: []pattern.Entry{
			{Key: "petType", Pattern: &pattern.StringPattern{}},
			{Key: "lives?", Pattern: &pattern.NumberPattern{}},
			{Key: "bark?", Pattern: &pattern.BooleanPattern{}},
		}},
		"Pet": &pattern.AnyOfPattern{TypeAlias: "Pet", Discriminator: "petType",
			Branches: []pattern.Pattern{pattern.Ref("Cat"), pattern.Ref("Dog")}},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

// nodeRegistry registers a linked list node whose optional next field
// refers back to Node.
func nodeRegistry(t *testing.T) *pattern.Registry {
	t.Helper()
	reg, err := pattern.NewRegistry(map[string]pattern.Pattern{
		"Node": &pattern.ObjectPattern{TypeAlias: "Node", Entries: []pattern.Entry{
			{Key: "value", Pattern: &pattern.NumberPattern{}},
			{Key: "next?", Pattern: pattern.Ref("Node")},
		}},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

func keysOf(t *testing.T, p pattern.Pattern) []string {
	t.Helper()
	obj, ok := p.(*pattern.ObjectPattern)
	if !ok {
		t.Fatalf("candidate is %T, want object", p)
	}
	var out []string
	for _, e := range obj.Entries {
		out = append(out, e.Key)
	}
	return out
}
