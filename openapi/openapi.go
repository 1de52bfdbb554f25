// Package openapi compiles OpenAPI 3.0 and 3.1 documents (YAML or JSON) into
// a pattern Registry and the list of operations the contract declares.
//
// Named component schemas become registry aliases and every
// "#/components/schemas/X" reference becomes a deferred reference to X, so
// recursive schemas compile without expansion. Other local references
// (parameters, request bodies, responses) are followed in place.
package openapi

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/pattern"
	"github.com/reoring/contractkit/value"
)

// Contract is a compiled API description.
type Contract struct {
	Title      string
	Version    string
	Registry   *pattern.Registry
	Operations []Operation
}

// Resolver returns a default Resolver over the contract's registry.
func (c *Contract) Resolver() *pattern.Resolver { return pattern.NewResolver(c.Registry) }

// Operation finds the operation declared for method and path template.
func (c *Contract) Operation(method, path string) (Operation, bool) {
	i := slices.IndexFunc(c.Operations, func(o Operation) bool {
		return o.Method == strings.ToUpper(method) && o.Path == path
	})
	if i < 0 {
		return Operation{}, false
	}
	return c.Operations[i], true
}

// Operation is one method on one path template.
type Operation struct {
	Method      string // upper case
	Path        string // template, e.g. /pets/{id}
	ID          string
	Parameters  []Parameter
	RequestBody *Body
	Responses   []Response
}

// Key identifies the operation, e.g. "POST /pets".
func (o Operation) Key() string { return o.Method + " " + o.Path }

// Response returns the response declared for status text such as "200".
func (o Operation) Response(status string) (Response, bool) {
	i := slices.IndexFunc(o.Responses, func(r Response) bool { return r.Status == status })
	if i < 0 {
		return Response{}, false
	}
	return o.Responses[i], true
}

// SuccessResponse returns the lowest declared 2xx response.
func (o Operation) SuccessResponse() (Response, bool) {
	var best Response
	found := false
	for _, r := range o.Responses {
		code := r.Code()
		if code < 200 || code > 299 {
			continue
		}
		if !found || code < best.Code() {
			best, found = r, true
		}
	}
	return best, found
}

// Parameter is a path, query or header parameter.
type Parameter struct {
	Name     string
	In       string
	Required bool
	Pattern  pattern.Pattern
}

// Key identifies the parameter within its operation, e.g. "path:id".
func (p Parameter) Key() string { return p.In + ":" + p.Name }

// Body is request or response content of one media type.
type Body struct {
	ContentType string
	Required    bool
	Pattern     pattern.Pattern
}

// Response is the declaration for one status. Body is nil when the response
// has no content.
type Response struct {
	Status string
	Body   *Body
}

// Code returns the numeric status, or 0 for "default" and range keys such as
// "2XX".
func (r Response) Code() int {
	n, err := strconv.Atoi(r.Status)
	if err != nil {
		return 0
	}
	return n
}

var methods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

// LoadFile reads and compiles the document at path.
func LoadFile(path string, opts Options) (*Contract, Diag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &simpleDiag{}, fmt.Errorf("openapi: %w", err)
	}
	return Load(data, opts)
}

// Load compiles a YAML or JSON OpenAPI 3 document. Soft problems (ignored
// keywords, unknown formats, inlined references) are reported through Diag;
// anything that would make the patterns wrong is an error.
func Load(data []byte, opts Options) (*Contract, Diag, error) {
	d := &simpleDiag{}
	root, err := decodeDocument(data)
	if err != nil {
		return nil, d, fmt.Errorf("openapi: invalid document: %w", err)
	}
	doc, ok := root.(value.Object)
	if !ok {
		return nil, d, errors.New("openapi: document root must be a mapping")
	}
	version, _ := stringField(doc, "openapi")
	if !strings.HasPrefix(version, "3.") {
		return nil, d, fmt.Errorf("openapi: unsupported openapi version %q", version)
	}
	c := &compiler{doc: doc, opts: opts, diag: d}

	contract := &Contract{}
	if info, ok := objectField(doc, "info"); ok {
		contract.Title, _ = stringField(info, "title")
		contract.Version, _ = stringField(info, "version")
	}

	patterns := map[string]pattern.Pattern{}
	var errs []error
	if schemas, ok := c.component("schemas"); ok {
		for name, node := range schemas.All() {
			p, err := c.schema(node, "components.schemas."+name)
			if err != nil {
				errs = append(errs, contractkit.WithBreadcrumb(err, name))
				continue
			}
			patterns[name] = pattern.WithAlias(p, name)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, d, fmt.Errorf("openapi: %w", err)
	}
	reg, err := pattern.NewRegistry(patterns)
	if err != nil {
		return nil, d, fmt.Errorf("openapi: %w", err)
	}
	contract.Registry = reg

	paths, _ := objectField(doc, "paths")
	for path, item := range paths.All() {
		ops, err := c.pathItem(path, item)
		if err != nil {
			errs = append(errs, contractkit.WithBreadcrumb(err, path))
			continue
		}
		for _, op := range ops {
			if err := validateOperation(reg, op); err != nil {
				errs = append(errs, contractkit.WithBreadcrumb(err, op.Key()))
				continue
			}
			contract.Operations = append(contract.Operations, op)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, d, fmt.Errorf("openapi: %w", err)
	}
	return contract, d, nil
}

func (c *compiler) pathItem(path string, node value.Value) ([]Operation, error) {
	node, err := c.deref(node)
	if err != nil {
		return nil, err
	}
	item, ok := node.(value.Object)
	if !ok {
		return nil, contractkit.Definitionf("path item must be a mapping")
	}
	shared, err := c.parameters(item, path)
	if err != nil {
		return nil, err
	}
	var ops []Operation
	for _, m := range methods {
		raw, ok := item.Get(m)
		if !ok {
			continue
		}
		opNode, ok := raw.(value.Object)
		if !ok {
			return nil, contractkit.WithBreadcrumb(contractkit.Definitionf("operation must be a mapping"), m)
		}
		op, err := c.operation(strings.ToUpper(m), path, opNode, shared)
		if err != nil {
			return nil, contractkit.WithBreadcrumb(err, m)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func (c *compiler) operation(method, path string, n value.Object, shared []Parameter) (Operation, error) {
	at := method + " " + path
	op := Operation{Method: method, Path: path}
	op.ID, _ = stringField(n, "operationId")

	own, err := c.parameters(n, at)
	if err != nil {
		return op, err
	}
	// Operation parameters override path-level ones with the same name and
	// location.
	op.Parameters = append(op.Parameters, own...)
	for _, p := range shared {
		if !slices.ContainsFunc(own, func(o Parameter) bool { return o.Name == p.Name && o.In == p.In }) {
			op.Parameters = append(op.Parameters, p)
		}
	}
	for _, name := range templateNames(path) {
		if !slices.ContainsFunc(op.Parameters, func(p Parameter) bool { return p.In == "path" && p.Name == name }) {
			c.diag.warnf(at, "path parameter %s is not declared and accepts any string", name)
			op.Parameters = append(op.Parameters, Parameter{Name: name, In: "path", Required: true, Pattern: &pattern.StringPattern{}})
		}
	}

	if raw, ok := n.Get("requestBody"); ok {
		body, err := c.body(raw, at+" requestBody")
		if err != nil {
			return op, contractkit.WithBreadcrumb(err, "requestBody")
		}
		op.RequestBody = body
	}

	responses, _ := objectField(n, "responses")
	for status, raw := range responses.All() {
		body, err := c.body(raw, at+" "+status)
		if err != nil {
			return op, contractkit.WithBreadcrumb(contractkit.WithBreadcrumb(err, status), "responses")
		}
		op.Responses = append(op.Responses, Response{Status: status, Body: body})
	}
	slices.SortStableFunc(op.Responses, func(a, b Response) int { return cmp.Compare(a.Status, b.Status) })
	return op, nil
}

func (c *compiler) parameters(n value.Object, at string) ([]Parameter, error) {
	raw, ok := n.Get("parameters")
	if !ok {
		return nil, nil
	}
	list, ok := raw.(value.Array)
	if !ok {
		return nil, contractkit.WithBreadcrumb(contractkit.Definitionf("parameters must be a list"), "parameters")
	}
	var out []Parameter
	for i, entry := range list {
		node, err := c.deref(entry)
		if err != nil {
			return nil, contractkit.WithBreadcrumb(err, "parameters"+contractkit.IndexCrumb(i))
		}
		obj, ok := node.(value.Object)
		if !ok {
			return nil, contractkit.WithBreadcrumb(contractkit.Definitionf("parameter must be a mapping"), "parameters"+contractkit.IndexCrumb(i))
		}
		p := Parameter{Required: boolField(obj, "required")}
		p.Name, _ = stringField(obj, "name")
		p.In, _ = stringField(obj, "in")
		if p.Name == "" || p.In == "" {
			return nil, contractkit.WithBreadcrumb(contractkit.Definitionf("parameter needs a name and a location"), "parameters"+contractkit.IndexCrumb(i))
		}
		if p.In == "path" {
			p.Required = true
		}
		if p.In == "cookie" {
			c.diag.warnf(at, "cookie parameter %s is ignored", p.Name)
			continue
		}
		schema, ok := obj.Get("schema")
		if !ok {
			p.Pattern = &pattern.StringPattern{}
		} else if p.Pattern, err = c.schema(schema, at+" parameter "+p.Name); err != nil {
			return nil, contractkit.WithBreadcrumb(err, p.Name)
		}
		out = append(out, p)
	}
	return out, nil
}

// body compiles a request body or response object. The first JSON media
// type wins; other media types are kept with a warning.
func (c *compiler) body(raw value.Value, at string) (*Body, error) {
	node, err := c.deref(raw)
	if err != nil {
		return nil, err
	}
	obj, ok := node.(value.Object)
	if !ok {
		return nil, contractkit.Definitionf("must be a mapping")
	}
	content, ok := objectField(obj, "content")
	if !ok || content.Len() == 0 {
		return nil, nil
	}
	mediaType := ""
	for mt := range content.All() {
		if isJSON(mt) {
			mediaType = mt
			break
		}
	}
	if mediaType == "" {
		mediaType = content.Keys()[0]
		c.diag.warnf(at, "media type %s is not JSON and is not validated", mediaType)
	}
	media, _ := objectField(content, mediaType)
	b := &Body{ContentType: mediaType, Required: boolField(obj, "required")}
	schema, _ := media.Get("schema")
	if b.Pattern, err = c.schema(schema, at); err != nil {
		return nil, contractkit.WithBreadcrumb(err, mediaType)
	}
	return b, nil
}

func isJSON(mediaType string) bool {
	mt, _, _ := strings.Cut(mediaType, ";")
	mt = strings.TrimSpace(mt)
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// templateNames lists the {name} segments of a path template.
func templateNames(path string) []string {
	var out []string
	for seg := range strings.SplitSeq(path, "/") {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			out = append(out, seg[1:len(seg)-1])
		}
	}
	return out
}

func validateOperation(reg *pattern.Registry, op Operation) error {
	var errs []error
	for _, p := range op.Parameters {
		errs = append(errs, contractkit.WithBreadcrumb(reg.Validate(p.Pattern), p.Name))
	}
	if op.RequestBody != nil {
		errs = append(errs, contractkit.WithBreadcrumb(reg.Validate(op.RequestBody.Pattern), "requestBody"))
	}
	for _, r := range op.Responses {
		if r.Body != nil {
			errs = append(errs, contractkit.WithBreadcrumb(reg.Validate(r.Body.Pattern), r.Status))
		}
	}
	return errors.Join(errs...)
}
