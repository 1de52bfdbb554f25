package pattern

import (
	"errors"
	"maps"
	"slices"

	contractkit "github.com/reoring/contractkit"
)

// Registry maps component aliases to their canonical Pattern. It is built
// once per loaded contract and read-only afterwards, so it can be shared by
// concurrent operations.
type Registry struct {
	patterns map[string]Pattern
}

// NewRegistry validates and freezes a set of named Patterns. It fails on
// references to unknown aliases, discriminated unions whose branches lack an
// alias and intersections whose branches are of different kinds.
func NewRegistry(patterns map[string]Pattern) (*Registry, error) {
	reg := &Registry{patterns: maps.Clone(patterns)}
	if reg.patterns == nil {
		reg.patterns = map[string]Pattern{}
	}
	var errs []error
	for _, alias := range reg.Aliases() {
		if err := reg.validate(reg.patterns[alias]); err != nil {
			errs = append(errs, contractkit.WithBreadcrumb(err, alias))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return reg, nil
}

// MustRegistry is NewRegistry that panics on error, for tests and static
// definitions.
func MustRegistry(patterns map[string]Pattern) *Registry {
	reg, err := NewRegistry(patterns)
	if err != nil {
		panic(err)
	}
	return reg
}

// Get returns the Pattern registered under alias.
func (r *Registry) Get(alias string) (Pattern, bool) {
	if r == nil {
		return nil, false
	}
	p, ok := r.patterns[alias]
	return p, ok
}

// Aliases returns the registered aliases in sorted order.
func (r *Registry) Aliases() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.patterns))
}

// Len returns the number of registered Patterns.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.patterns)
}

// Validate checks an anonymous Pattern (for example an operation body)
// against the registry with the same rules NewRegistry applies.
func (r *Registry) Validate(p Pattern) error { return r.validate(p) }

func (r *Registry) validate(p Pattern) error {
	switch t := p.(type) {
	case nil:
		return contractkit.Definitionf("missing pattern")
	case *DeferredPattern:
		if _, ok := r.Get(t.Ref); !ok {
			return contractkit.Definitionf("type %s does not exist", t.Ref)
		}
	case *ObjectPattern:
		var errs []error
		for _, e := range t.Entries {
			if err := r.validate(e.Pattern); err != nil {
				errs = append(errs, contractkit.WithBreadcrumb(err, WithoutOptionality(e.Key)))
			}
		}
		if t.MinProperties != nil && t.MaxProperties != nil && *t.MinProperties > *t.MaxProperties {
			errs = append(errs, contractkit.Definitionf("minProperties %d exceeds maxProperties %d", *t.MinProperties, *t.MaxProperties))
		}
		return errors.Join(errs...)
	case *DictionaryPattern:
		return r.validate(t.Value)
	case *ListPattern:
		return contractkit.WithBreadcrumb(r.validate(t.Element), "[*]")
	case *XMLPattern:
		var errs []error
		for _, e := range t.Attributes {
			errs = append(errs, contractkit.WithBreadcrumb(r.validate(e.Pattern), "@"+WithoutOptionality(e.Key)))
		}
		for i, c := range t.Children {
			errs = append(errs, contractkit.WithBreadcrumb(r.validate(c), contractkit.IndexCrumb(i)))
		}
		return errors.Join(errs...)
	case *AllOfPattern:
		var errs []error
		for i, b := range t.Branches {
			errs = append(errs, contractkit.WithBreadcrumb(r.validate(b), contractkit.IndexCrumb(i)))
		}
		if err := errors.Join(errs...); err != nil {
			return err
		}
		return r.sameKind(t)
	case *AnyOfPattern:
		var errs []error
		for i, b := range t.Branches {
			errs = append(errs, contractkit.WithBreadcrumb(r.validate(b), contractkit.IndexCrumb(i)))
		}
		if err := errors.Join(errs...); err != nil {
			return err
		}
		if t.Discriminator != "" {
			for i, b := range t.Branches {
				if _, isNull := b.(*NullPattern); isNull {
					continue
				}
				if b.Alias() == "" {
					return contractkit.WithBreadcrumb(
						contractkit.Definitionf("discriminator %q requires every branch to have a type alias", t.Discriminator),
						contractkit.IndexCrumb(i))
				}
			}
			for v, alias := range t.Mapping {
				if _, ok := r.Get(alias); !ok {
					return contractkit.Definitionf("discriminator mapping %q refers to unknown type %s", v, alias)
				}
			}
		}
	}
	return nil
}

// sameKind rejects intersections mixing, say, a string branch with an object
// branch. Branches whose kind cannot be decided statically are skipped.
func (r *Registry) sameKind(p *AllOfPattern) error {
	want := kindAny
	for _, b := range p.Branches {
		k := kindOf(b, r, 0)
		if k == kindAny {
			continue
		}
		if want == kindAny {
			want = k
			continue
		}
		if k != want {
			return contractkit.Definitionf("allOf must contain patterns of the same type, found %s and %s", want, k)
		}
	}
	return nil
}
