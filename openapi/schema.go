package openapi

import (
	"slices"
	"strings"

	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/codec"
	"github.com/reoring/contractkit/pattern"
	"github.com/reoring/contractkit/value"
)

const schemaPrefix = "#/components/schemas/"

type compiler struct {
	doc  value.Object
	opts Options
	diag *simpleDiag
}

// schema compiles one schema object. at names the node for warnings.
func (c *compiler) schema(node value.Value, at string) (pattern.Pattern, error) {
	switch n := node.(type) {
	case value.Bool:
		if n {
			return &pattern.AnythingPattern{}, nil
		}
		return nil, contractkit.Definitionf("schema false accepts nothing")
	case value.Object:
		p, err := c.schemaObject(n, at)
		if err != nil {
			return nil, err
		}
		if boolField(n, "nullable") {
			return pattern.Nullable(p), nil
		}
		return p, nil
	case nil:
		return &pattern.AnythingPattern{}, nil
	}
	return nil, contractkit.Definitionf("schema must be an object, got %s", node.Kind())
}

func (c *compiler) schemaObject(n value.Object, at string) (pattern.Pattern, error) {
	if ref, ok := stringField(n, "$ref"); ok {
		return c.schemaRef(ref, at)
	}
	if v, ok := n.Get("const"); ok {
		return pattern.Exact(v), nil
	}
	if v, ok := n.Get("enum"); ok {
		values, isArray := v.(value.Array)
		if !isArray || len(values) == 0 {
			return nil, contractkit.WithBreadcrumb(contractkit.Definitionf("enum must be a non-empty array"), "enum")
		}
		return &pattern.EnumPattern{Values: values}, nil
	}
	if v, ok := n.Get("allOf"); ok {
		return c.allOf(n, v, at)
	}
	for _, key := range []string{"oneOf", "anyOf"} {
		if v, ok := n.Get(key); ok {
			return c.union(n, key, v, at)
		}
	}
	if _, ok := n.Get("discriminator"); ok {
		c.diag.warnf(at, "discriminator outside oneOf/anyOf is ignored")
	}

	typ, _ := n.Get("type")
	switch t := typ.(type) {
	case value.String:
		return c.typed(n, string(t), at)
	case value.Array:
		// OpenAPI 3.1 type lists such as [string, "null"].
		var branches []pattern.Pattern
		for i, e := range t {
			name, ok := e.(value.String)
			if !ok {
				return nil, contractkit.WithBreadcrumb(contractkit.Definitionf("type list entries must be strings"), contractkit.IndexCrumb(i))
			}
			p, err := c.typed(n, string(name), at)
			if err != nil {
				return nil, err
			}
			branches = append(branches, p)
		}
		if len(branches) == 1 {
			return branches[0], nil
		}
		return &pattern.AnyOfPattern{Branches: branches}, nil
	case nil:
		switch {
		case n.Has("properties") || n.Has("additionalProperties"):
			return c.typed(n, "object", at)
		case n.Has("items"):
			return c.typed(n, "array", at)
		}
		return &pattern.AnythingPattern{}, nil
	}
	return nil, contractkit.WithBreadcrumb(contractkit.Definitionf("type must be a string or a list"), "type")
}

func (c *compiler) schemaRef(ref, at string) (pattern.Pattern, error) {
	if name, ok := strings.CutPrefix(ref, schemaPrefix); ok && !strings.Contains(name, "/") {
		if _, ok := c.componentSchema(name); !ok {
			return nil, contractkit.Definitionf("$ref %s: type %s does not exist", ref, name)
		}
		return pattern.Ref(name), nil
	}
	target, err := c.resolve(ref)
	if err != nil {
		return nil, err
	}
	c.diag.warnf(at, "$ref %s is inlined", ref)
	return c.schema(target, ref)
}

func (c *compiler) componentSchema(name string) (value.Value, bool) {
	schemas, ok := c.component("schemas")
	if !ok {
		return nil, false
	}
	return schemas.Get(name)
}

func (c *compiler) component(kind string) (value.Object, bool) {
	components, ok := objectField(c.doc, "components")
	if !ok {
		return value.Object{}, false
	}
	return objectField(components, kind)
}

func (c *compiler) typed(n value.Object, typ, at string) (pattern.Pattern, error) {
	example, _ := n.Get("example")
	if example == nil {
		if exs, ok := n.Get("examples"); ok {
			if arr, isArray := exs.(value.Array); isArray && len(arr) > 0 {
				example = arr[0]
			}
		}
	}
	switch typ {
	case "string":
		return c.stringSchema(n, example, at)
	case "number", "integer":
		return numberSchema(n, typ == "integer", example), nil
	case "boolean":
		return &pattern.BooleanPattern{Example: example}, nil
	case "null":
		return &pattern.NullPattern{}, nil
	case "object":
		return c.objectSchema(n, example, at)
	case "array":
		items, _ := n.Get("items")
		if items == nil {
			c.diag.warnf(at, "array without items accepts any element")
		}
		elem, err := c.schema(items, at+".items")
		if err != nil {
			return nil, contractkit.WithBreadcrumb(err, "items")
		}
		return &pattern.ListPattern{Element: elem, MinItems: intField(n, "minItems"), MaxItems: intField(n, "maxItems"), Example: example}, nil
	}
	return nil, contractkit.WithBreadcrumb(contractkit.Definitionf("unknown type %q", typ), "type")
}

func (c *compiler) stringSchema(n value.Object, example value.Value, at string) (pattern.Pattern, error) {
	s := &pattern.StringPattern{MinLength: intField(n, "minLength"), MaxLength: intField(n, "maxLength"), Example: example}
	s.Regex, _ = stringField(n, "pattern")
	if format, ok := stringField(n, "format"); ok {
		switch {
		case codec.Known(format):
			s.Format = format
		case c.opts.StrictFormats:
			return nil, contractkit.WithBreadcrumb(contractkit.Definitionf("unsupported string format %q", format), "format")
		default:
			c.diag.warnf(at, "string format %q is not checked", format)
		}
	}
	return s, nil
}

func numberSchema(n value.Object, integer bool, example value.Value) pattern.Pattern {
	p := &pattern.NumberPattern{Integer: integer, Example: example}
	p.Minimum = floatField(n, "minimum")
	p.Maximum = floatField(n, "maximum")
	// 3.0 uses boolean flags, 3.1 uses the bound itself.
	switch v, _ := n.Get("exclusiveMinimum"); t := v.(type) {
	case value.Bool:
		p.ExclusiveMinimum = bool(t) && p.Minimum != nil
	case value.Number:
		f := float64(t)
		p.Minimum, p.ExclusiveMinimum = &f, true
	}
	switch v, _ := n.Get("exclusiveMaximum"); t := v.(type) {
	case value.Bool:
		p.ExclusiveMaximum = bool(t) && p.Maximum != nil
	case value.Number:
		f := float64(t)
		p.Maximum, p.ExclusiveMaximum = &f, true
	}
	if format, ok := stringField(n, "format"); ok && (format == "int32" || format == "int64") {
		p.Integer = true
	}
	return p
}

func (c *compiler) objectSchema(n value.Object, example value.Value, at string) (pattern.Pattern, error) {
	props, _ := objectField(n, "properties")
	var required []string
	if req, ok := n.Get("required"); ok {
		arr, isArray := req.(value.Array)
		if !isArray {
			return nil, contractkit.WithBreadcrumb(contractkit.Definitionf("required must be an array"), "required")
		}
		for _, r := range arr {
			if s, ok := r.(value.String); ok {
				required = append(required, string(s))
			}
		}
	}

	additional, hasAdditional := n.Get("additionalProperties")
	if props.Len() == 0 {
		if schema, ok := additional.(value.Object); ok {
			val, err := c.schema(schema, at+".additionalProperties")
			if err != nil {
				return nil, contractkit.WithBreadcrumb(err, "additionalProperties")
			}
			return &pattern.DictionaryPattern{Value: val}, nil
		}
		if b, ok := additional.(value.Bool); ok && !bool(b) && len(required) == 0 {
			return &pattern.ObjectPattern{Example: example}, nil
		}
	}

	obj := &pattern.ObjectPattern{
		MinProperties: intField(n, "minProperties"),
		MaxProperties: intField(n, "maxProperties"),
		Example:       example,
	}
	switch a := additional.(type) {
	case value.Bool:
		obj.Extensible = bool(a)
	case value.Object:
		obj.Extensible = true
		c.diag.warnf(at, "values of additional properties are not checked")
	default:
		obj.Extensible = !hasAdditional && (c.opts.AdditionalProperties == OpenByDefault || props.Len() == 0)
	}

	for name, schema := range props.All() {
		p, err := c.schema(schema, at+"."+name)
		if err != nil {
			return nil, contractkit.WithBreadcrumb(err, name)
		}
		key := name
		if !slices.Contains(required, name) {
			key = pattern.Optional(name)
		}
		obj.Entries = append(obj.Entries, pattern.Entry{Key: key, Pattern: p})
	}
	for _, name := range required {
		if !props.Has(name) {
			if !obj.Extensible {
				return nil, contractkit.Definitionf("required key %s is not a declared property", name)
			}
			c.diag.warnf(at, "required key %s has no schema and accepts anything", name)
			obj.Entries = append(obj.Entries, pattern.Entry{Key: name, Pattern: &pattern.AnythingPattern{}})
		}
	}
	return obj, nil
}

// allOf compiles an intersection. Sibling keywords next to allOf form one
// more branch.
func (c *compiler) allOf(n value.Object, v value.Value, at string) (pattern.Pattern, error) {
	branches, err := c.branches(v, "allOf", at)
	if err != nil {
		return nil, err
	}
	if n.Has("properties") || n.Has("type") {
		own, err := c.schemaObject(n.Without("allOf"), at)
		if err != nil {
			return nil, err
		}
		branches = append(branches, own)
	}
	return &pattern.AllOfPattern{Branches: branches}, nil
}

func (c *compiler) union(n value.Object, key string, v value.Value, at string) (pattern.Pattern, error) {
	branches, err := c.branches(v, key, at)
	if err != nil {
		return nil, err
	}
	u := &pattern.AnyOfPattern{Branches: branches}
	disc, ok := objectField(n, "discriminator")
	if !ok {
		return u, nil
	}
	u.Discriminator, _ = stringField(disc, "propertyName")
	if u.Discriminator == "" {
		return nil, contractkit.WithBreadcrumb(contractkit.Definitionf("discriminator needs a propertyName"), "discriminator")
	}
	if mapping, ok := objectField(disc, "mapping"); ok {
		u.Mapping = map[string]string{}
		for val, target := range mapping.All() {
			s, isString := target.(value.String)
			if !isString {
				return nil, contractkit.WithBreadcrumb(contractkit.Definitionf("mapping of %s must be a string", val), "discriminator")
			}
			u.Mapping[val] = strings.TrimPrefix(string(s), schemaPrefix)
		}
	}
	return u, nil
}

func (c *compiler) branches(v value.Value, key, at string) ([]pattern.Pattern, error) {
	arr, ok := v.(value.Array)
	if !ok || len(arr) == 0 {
		return nil, contractkit.WithBreadcrumb(contractkit.Definitionf("%s must be a non-empty array", key), key)
	}
	out := make([]pattern.Pattern, 0, len(arr))
	for i, b := range arr {
		p, err := c.schema(b, at+"."+key+contractkit.IndexCrumb(i))
		if err != nil {
			return nil, contractkit.WithBreadcrumb(contractkit.WithBreadcrumb(err, contractkit.IndexCrumb(i)), key)
		}
		out = append(out, p)
	}
	return out, nil
}
