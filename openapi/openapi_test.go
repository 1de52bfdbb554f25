package openapi_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/openapi"
	"github.com/reoring/contractkit/pattern"
	"github.com/reoring/contractkit/value"
)

func loadPetstore(t *testing.T) *openapi.Contract {
	t.Helper()
	c, d, err := openapi.LoadFile("../examples/petstore/openapi.yaml", openapi.Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if d.HasWarnings() {
		t.Fatalf("unexpected warnings: %v", d.Warnings())
	}
	return c
}

func mustJSON(t *testing.T, s string) value.Value {
	t.Helper()
	v, err := value.ParseJSON([]byte(s))
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return v
}

func TestLoad_Petstore(t *testing.T) {
	c := loadPetstore(t)
	if c.Title != "Petstore" || c.Version != "1.0.0" {
		t.Fatalf("info not read: %q %q", c.Title, c.Version)
	}
	var keys []string
	for _, op := range c.Operations {
		keys = append(keys, op.Key())
	}
	want := []string{"GET /pets", "POST /pets", "GET /pets/{id}", "DELETE /pets/{id}", "GET /trails"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Fatalf("operations (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Cat", "Dog", "Error", "NewPet", "Pet", "Waypoint"}, c.Registry.Aliases()); diff != "" {
		t.Fatalf("aliases (-want +got):\n%s", diff)
	}

	get, _ := c.Operation("get", "/pets/{id}")
	if len(get.Parameters) != 1 || get.Parameters[0].Name != "id" || !get.Parameters[0].Required {
		t.Fatalf("path-level parameter not inherited: %+v", get.Parameters)
	}
	if ok, _ := get.SuccessResponse(); ok.Status != "200" {
		t.Fatalf("want 200 success response, got %q", ok.Status)
	}
	if nf, ok := get.Response("404"); !ok || nf.Body != nil {
		t.Fatalf("404 should be declared without a body")
	}

	post, _ := c.Operation("POST", "/pets")
	if post.RequestBody == nil || !post.RequestBody.Required || post.RequestBody.ContentType != "application/json" {
		t.Fatalf("request body not compiled: %+v", post.RequestBody)
	}
	if s, _ := post.SuccessResponse(); s.Status != "201" {
		t.Fatalf("want 201, got %q", s.Status)
	}
}

func TestLoad_SchemasMatch(t *testing.T) {
	c := loadPetstore(t)
	r := c.Resolver()
	post, _ := c.Operation("POST", "/pets")
	body := post.RequestBody.Pattern

	if res := pattern.Match(body, mustJSON(t, `{"name": "Rex", "petType": "Dog", "tag": null}`), r); !res.IsSuccess() {
		t.Fatalf("valid pet rejected: %s", res.Report())
	}
	got := map[string]string{}
	for _, it := range pattern.Match(body, mustJSON(t, `{"name": "", "petType": "Bird", "color": "red"}`), r).Issues() {
		got[it.Path] = it.Code
	}
	want := map[string]string{
		"name":    contractkit.CodeTooShort,
		"petType": contractkit.CodeInvalidEnum,
		"color":   contractkit.CodeUnknownKey,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("issues (-want +got):\n%s", diff)
	}

	pet := pattern.Ref("Pet")
	iss := pattern.Match(pet, mustJSON(t, `{"id": 1, "name": "Tom", "petType": "Cat"}`), r).Issues()
	if len(iss) != 1 || iss[0].Path != "lives" || iss[0].Code != contractkit.CodeRequired {
		t.Fatalf("discriminator should select Cat, got %v", iss)
	}
	trail := mustJSON(t, `{"name": "a", "visited": "2024-05-01T10:00:00Z", "next": {"name": "b", "next": {"name": "c"}}}`)
	if res := pattern.Match(pattern.Ref("Waypoint"), trail, r); !res.IsSuccess() {
		t.Fatalf("recursive schema rejected a valid trail: %s", res.Report())
	}
}

func TestLoad_KeywordVariants(t *testing.T) {
	doc := `{
  "openapi": "3.1.0",
  "info": {"title": "variants", "version": "1"},
  "paths": {},
  "components": {"schemas": {
    "Maybe": {"type": ["string", "null"], "minLength": 1},
    "Ratio": {"type": "number", "exclusiveMinimum": 0, "exclusiveMaximum": 1},
    "Labels": {"type": "object", "additionalProperties": {"type": "string"}},
    "Open": {"type": "object", "properties": {"id": {"type": "integer"}}, "additionalProperties": true},
    "Kind": {"const": "fixed"},
    "Both": {"allOf": [{"$ref": "#/components/schemas/Open"}, {"type": "object", "properties": {"extra": {"type": "boolean"}}}]},
    "Phone": {"type": "string", "format": "phone"}
  }}
}`
	c, d, err := openapi.Load([]byte(doc), openapi.Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ws := d.Warnings(); len(ws) != 1 || !strings.Contains(ws[0], "phone") {
		t.Fatalf("want one warning for the unknown format, got %v", ws)
	}
	r := c.Resolver()
	cases := []struct {
		alias string
		json  string
		ok    bool
	}{
		{"Maybe", `null`, true},
		{"Maybe", `""`, false},
		{"Ratio", `0.5`, true},
		{"Ratio", `1`, false},
		{"Labels", `{"a": "x", "b": "y"}`, true},
		{"Labels", `{"a": 1}`, false},
		{"Open", `{"id": 1, "anything": true}`, true},
		{"Kind", `"fixed"`, true},
		{"Kind", `"other"`, false},
		{"Both", `{"id": 1, "extra": false}`, true},
		{"Phone", `"+1 555"`, true},
	}
	for _, tc := range cases {
		res := pattern.Match(pattern.Ref(tc.alias), mustJSON(t, tc.json), r)
		if res.IsSuccess() != tc.ok {
			t.Fatalf("%s with %s: want ok=%v, got %s", tc.alias, tc.json, tc.ok, res.Report())
		}
	}

	if _, _, err := openapi.Load([]byte(doc), openapi.Options{StrictFormats: true}); err == nil {
		t.Fatalf("strict formats should reject phone")
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]string{
		"version": `swagger: "2.0"`,
		"missing ref": `
openapi: 3.0.0
paths: {}
components:
  schemas:
    A:
      type: object
      properties:
        b:
          $ref: "#/components/schemas/Missing"
`,
		"duplicate key": `
openapi: 3.0.0
openapi: 3.0.1
`,
		"mixed allOf": `
openapi: 3.0.0
paths: {}
components:
  schemas:
    A:
      allOf:
        - type: string
        - type: object
`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, _, err := openapi.Load([]byte(doc), openapi.Options{}); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}

	_, _, err := openapi.Load([]byte(cases["missing ref"]), openapi.Options{})
	var de *contractkit.DefinitionError
	if !errors.As(err, &de) || !strings.Contains(de.Error(), "A.b") {
		t.Fatalf("want a definition error located at A.b, got %v", err)
	}
}
