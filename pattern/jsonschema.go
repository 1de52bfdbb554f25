package pattern

import (
	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/jsonschema"
	"github.com/reoring/contractkit/value"
)

// JSONSchema renders p as a JSON Schema document. Every alias reachable
// through a reference is emitted once under $defs and referenced with $ref,
// so recursive types export without expansion. XML patterns have no JSON
// Schema form and are rejected.
func JSONSchema(p Pattern, reg *Registry) (*jsonschema.Schema, error) {
	ex := &exporter{reg: reg, pending: map[string]bool{}}
	root, err := ex.schema(p)
	if err != nil {
		return nil, err
	}
	defs := map[string]*jsonschema.Schema{}
	for len(ex.queue) > 0 {
		alias := ex.queue[0]
		ex.queue = ex.queue[1:]
		target, ok := reg.Get(alias)
		if !ok {
			return nil, contractkit.Definitionf("type %s does not exist", alias)
		}
		s, err := ex.schema(target)
		if err != nil {
			return nil, contractkit.WithBreadcrumb(err, alias)
		}
		defs[alias] = s
	}
	root.Version = jsonschema.Version
	if len(defs) > 0 {
		root.Defs = defs
	}
	return root, nil
}

type exporter struct {
	reg     *Registry
	pending map[string]bool
	queue   []string
}

func (ex *exporter) ref(alias string) *jsonschema.Schema {
	if !ex.pending[alias] {
		ex.pending[alias] = true
		ex.queue = append(ex.queue, alias)
	}
	return &jsonschema.Schema{Ref: "#/$defs/" + alias}
}

func literal(v value.Value) jsonschema.Literal { return jsonschema.Literal(value.MarshalJSON(v)) }

func examples(v value.Value) []jsonschema.Literal {
	if v == nil {
		return nil
	}
	return []jsonschema.Literal{literal(v)}
}

func (ex *exporter) schema(p Pattern) (*jsonschema.Schema, error) {
	switch t := p.(type) {
	case *StringPattern:
		return &jsonschema.Schema{Type: "string", Format: t.Format, MinLength: t.MinLength, MaxLength: t.MaxLength,
			Pattern: t.Regex, Examples: examples(t.Example)}, nil
	case *NumberPattern:
		s := &jsonschema.Schema{Type: "number", Examples: examples(t.Example)}
		if t.Integer {
			s.Type = "integer"
		}
		if t.ExclusiveMinimum {
			s.ExclusiveMinimum = t.Minimum
		} else {
			s.Minimum = t.Minimum
		}
		if t.ExclusiveMaximum {
			s.ExclusiveMaximum = t.Maximum
		} else {
			s.Maximum = t.Maximum
		}
		return s, nil
	case *BooleanPattern:
		return &jsonschema.Schema{Type: "boolean", Examples: examples(t.Example)}, nil
	case *NullPattern:
		return &jsonschema.Schema{Type: "null"}, nil
	case *EnumPattern:
		s := &jsonschema.Schema{}
		for _, v := range t.Values {
			s.Enum = append(s.Enum, literal(v))
		}
		return s, nil
	case *ExactPattern:
		return &jsonschema.Schema{Const: literal(t.Value)}, nil
	case *AnythingPattern:
		return &jsonschema.Schema{}, nil
	case *ObjectPattern:
		s := &jsonschema.Schema{Type: "object", Properties: jsonschema.NewProperties(),
			MinProperties: t.MinProperties, MaxProperties: t.MaxProperties, Examples: examples(t.Example)}
		for _, e := range t.Entries {
			name := WithoutOptionality(e.Key)
			ps, err := ex.schema(e.Pattern)
			if err != nil {
				return nil, contractkit.WithBreadcrumb(err, name)
			}
			s.Properties.Set(name, ps)
			if !IsOptional(e.Key) {
				s.Required = append(s.Required, name)
			}
		}
		if !t.Extensible {
			s.AdditionalProperties = jsonschema.FalseSchema()
		}
		return s, nil
	case *DictionaryPattern:
		vs, err := ex.schema(t.Value)
		if err != nil {
			return nil, err
		}
		return &jsonschema.Schema{Type: "object", AdditionalProperties: vs}, nil
	case *ListPattern:
		items, err := ex.schema(t.Element)
		if err != nil {
			return nil, contractkit.WithBreadcrumb(err, "[*]")
		}
		return &jsonschema.Schema{Type: "array", Items: items, MinItems: t.MinItems, MaxItems: t.MaxItems,
			Examples: examples(t.Example)}, nil
	case *AllOfPattern:
		branches, err := ex.all(t.Branches)
		if err != nil {
			return nil, err
		}
		return &jsonschema.Schema{AllOf: branches}, nil
	case *AnyOfPattern:
		branches, err := ex.all(t.Branches)
		if err != nil {
			return nil, err
		}
		if t.Discriminator == "" {
			return &jsonschema.Schema{AnyOf: branches}, nil
		}
		s := &jsonschema.Schema{OneOf: branches, Discriminator: &jsonschema.Discriminator{PropertyName: t.Discriminator}}
		if len(t.Mapping) > 0 {
			s.Discriminator.Mapping = map[string]string{}
			for v, alias := range t.Mapping {
				s.Discriminator.Mapping[v] = "#/$defs/" + alias
			}
		}
		return s, nil
	case *DeferredPattern:
		return ex.ref(t.Ref), nil
	case *XMLPattern:
		return nil, contractkit.Definitionf("xml pattern <%s> has no JSON Schema form", t.Name)
	}
	return nil, contractkit.Definitionf("cannot export %s", describe(p))
}

func (ex *exporter) all(ps []Pattern) ([]*jsonschema.Schema, error) {
	out := make([]*jsonschema.Schema, 0, len(ps))
	for i, p := range ps {
		s, err := ex.schema(p)
		if err != nil {
			return nil, contractkit.WithBreadcrumb(err, contractkit.IndexCrumb(i))
		}
		out = append(out, s)
	}
	return out, nil
}
