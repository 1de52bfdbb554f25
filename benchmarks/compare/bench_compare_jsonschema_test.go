package compare_test

import (
	"bytes"
	"encoding/json"
	"testing"

	jschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/reoring/contractkit/jsonschema"
	"github.com/reoring/contractkit/openapi"
	"github.com/reoring/contractkit/pattern"
	"github.com/reoring/contractkit/value"
)

// compileExport exports alias from the contract and compiles it with
// jsonschema/v5.
func compileExport(tb testing.TB, c *openapi.Contract, alias string) *jschema.Schema {
	tb.Helper()
	s, err := pattern.JSONSchema(pattern.Ref(alias), c.Registry)
	if err != nil {
		tb.Fatalf("export %s: %v", alias, err)
	}
	doc, err := jsonschema.Marshal(s)
	if err != nil {
		tb.Fatalf("marshal %s: %v", alias, err)
	}
	comp := jschema.NewCompiler()
	if err := comp.AddResource("mem:"+alias, bytes.NewReader(doc)); err != nil {
		tb.Fatalf("add resource: %v", err)
	}
	sch, err := comp.Compile("mem:" + alias)
	if err != nil {
		tb.Fatalf("compile %s: %v\n%s", alias, err, doc)
	}
	return sch
}

// bytesToAny decodes JSON into any using the stdlib for jsonschema v5 input.
func bytesToAny(tb testing.TB, b []byte) any {
	tb.Helper()
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		tb.Fatalf("decode %s: %v", b, err)
	}
	return v
}

// The exported schema accepts exactly what pattern.Match accepts.
func TestExportAgreesWithMatch(t *testing.T) {
	c := petstore(t)
	cases := map[string][]string{
		"NewPet": {
			`{"name":"Rex","petType":"Dog"}`,
			`{"name":"Rex","petType":"Cat","tag":null}`,
			`{"name":"","petType":"Dog"}`,
			`{"name":"Rex","petType":"Bird"}`,
			`{"name":"Rex"}`,
			`{"name":"Rex","petType":"Dog","age":3}`,
			`{"name":7,"petType":"Dog"}`,
			`[]`,
		},
		"Pet": {
			`{"id":1,"name":"Tom","petType":"Cat","lives":9}`,
			`{"id":1,"name":"Tom","petType":"Cat","lives":10}`,
			`{"id":2,"name":"Rex","petType":"Dog","bark":true}`,
			`{"id":0,"name":"Rex","petType":"Dog"}`,
		},
		"Waypoint": {
			`{"name":"a","next":{"name":"b","next":{"name":"c"}}}`,
			`{"name":"a","next":{"next":{"name":"c"}}}`,
		},
	}
	for alias, docs := range cases {
		sch := compileExport(t, c, alias)
		for _, doc := range docs {
			v, err := value.ParseJSON([]byte(doc))
			if err != nil {
				t.Fatalf("parse %s: %v", doc, err)
			}
			res := pattern.Match(pattern.Ref(alias), v, c.Resolver())
			verr := sch.Validate(bytesToAny(t, []byte(doc)))
			if res.IsSuccess() != (verr == nil) {
				t.Fatalf("%s %s: match=%v, jsonschema error=%v\n%s", alias, doc, res.IsSuccess(), verr, res.Report())
			}
		}
	}
}

// Generated positives validate against the export, negatives do not.
func TestExportAgreesWithCandidates(t *testing.T) {
	c := petstore(t)
	sch := compileExport(t, c, "NewPet")
	r := c.Resolver().WithGeneration(pattern.Generative{})
	check := func(p pattern.Pattern, err error, want bool) {
		t.Helper()
		if err != nil {
			t.Fatalf("candidate: %v", err)
		}
		v, err := pattern.Generate(p, r)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		doc := value.MarshalJSON(v)
		if verr := sch.Validate(bytesToAny(t, doc)); (verr == nil) != want {
			t.Fatalf("%s: want valid=%v, got %v", doc, want, verr)
		}
	}
	for p, err := range pattern.PositiveCandidates(pattern.Ref("NewPet"), pattern.Row{}, r) {
		check(p, err, true)
	}
	for p, err := range pattern.NegativeCandidates(pattern.Ref("NewPet"), pattern.Row{}, r) {
		check(p, err, false)
	}
}

// ---- ParseAndValidate: same document, same schema ----

func Benchmark_ParseAndValidate_jsonschema_v5_Small(b *testing.B) {
	sch := compileExport(b, petstore(b), "NewPet")
	data := smallPetJSON()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
		if err := sch.Validate(v); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_ParseAndValidate_contractkit_Small(b *testing.B) {
	c := petstore(b)
	r := c.Resolver()
	data := smallPetJSON()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v, err := value.ParseJSON(data)
		if err != nil {
			b.Fatal(err)
		}
		if res := pattern.Match(pattern.Ref("NewPet"), v, r); !res.IsSuccess() {
			b.Fatal(res.Report())
		}
	}
}
