package pattern

import (
	"errors"
	"slices"

	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/value"
)

// Merge composes two like-kind Patterns into one accepting only values both
// accept. Object key maps are folded together: a key mandatory on either side
// stays mandatory, keys on one side only are carried over, and shared keys
// have their Patterns merged recursively. Merging different kinds is a
// definition error.
func Merge(a, b Pattern, r *Resolver) (Pattern, error) {
	return merge(a, b, r, 0)
}

const maxMergeDepth = 64

// mergeAll folds every branch of an intersection into one Pattern.
func mergeAll(t *AllOfPattern, r *Resolver) (Pattern, error) {
	if err := r.registry.sameKind(t); err != nil {
		return nil, err
	}
	if len(t.Branches) == 0 {
		return &AnythingPattern{TypeAlias: t.TypeAlias}, nil
	}
	acc := t.Branches[0]
	for i, b := range t.Branches[1:] {
		merged, err := merge(acc, b, r, 0)
		if err != nil {
			return nil, contractkit.WithBreadcrumb(err, contractkit.IndexCrumb(i+1))
		}
		acc = merged
	}
	resolved, err := resolvedHop(acc, r)
	if err != nil {
		return nil, err
	}
	if t.TypeAlias != "" {
		return WithAlias(resolved, t.TypeAlias), nil
	}
	return resolved, nil
}

func merge(a, b Pattern, r *Resolver, depth int) (Pattern, error) {
	if depth > maxMergeDepth {
		return nil, contractkit.Definitionf("merge of %s and %s does not terminate", describe(a), describe(b))
	}
	if samePattern(a, b) {
		return a, nil
	}
	ra, err := resolvedHop(a, r)
	if err != nil {
		return nil, err
	}
	rb, err := resolvedHop(b, r)
	if err != nil {
		return nil, err
	}
	if all, ok := ra.(*AllOfPattern); ok {
		if ra, err = mergeAll(all, r); err != nil {
			return nil, err
		}
	}
	if all, ok := rb.(*AllOfPattern); ok {
		if rb, err = mergeAll(all, r); err != nil {
			return nil, err
		}
	}
	if _, ok := ra.(*AnythingPattern); ok {
		return rb, nil
	}
	if _, ok := rb.(*AnythingPattern); ok {
		return ra, nil
	}
	if u, ok := ra.(*AnyOfPattern); ok {
		return mergeUnion(u, rb, r, depth)
	}
	if u, ok := rb.(*AnyOfPattern); ok {
		return mergeUnion(u, ra, r, depth)
	}
	if e, ok := ra.(*ExactPattern); ok {
		return mergeLiteral(e, rb, r)
	}
	if e, ok := rb.(*ExactPattern); ok {
		return mergeLiteral(e, ra, r)
	}
	if e, ok := ra.(*EnumPattern); ok {
		return mergeEnum(e, rb, r)
	}
	if e, ok := rb.(*EnumPattern); ok {
		return mergeEnum(e, ra, r)
	}

	switch x := ra.(type) {
	case *ObjectPattern:
		switch y := rb.(type) {
		case *ObjectPattern:
			return mergeObjects(x, y, r, depth)
		case *DictionaryPattern:
			out := *x
			out.Extensible = true
			return &out, nil
		}
	case *DictionaryPattern:
		switch y := rb.(type) {
		case *DictionaryPattern:
			v, err := merge(x.Value, y.Value, r, depth+1)
			if err != nil {
				return nil, err
			}
			return &DictionaryPattern{Value: v}, nil
		case *ObjectPattern:
			out := *y
			out.Extensible = true
			return &out, nil
		}
	case *StringPattern:
		if y, ok := rb.(*StringPattern); ok {
			return mergeStrings(x, y)
		}
	case *NumberPattern:
		if y, ok := rb.(*NumberPattern); ok {
			return mergeNumbers(x, y), nil
		}
	case *BooleanPattern:
		if _, ok := rb.(*BooleanPattern); ok {
			return &BooleanPattern{}, nil
		}
	case *NullPattern:
		if _, ok := rb.(*NullPattern); ok {
			return x, nil
		}
	case *ListPattern:
		if y, ok := rb.(*ListPattern); ok {
			elem, err := merge(x.Element, y.Element, r, depth+1)
			if err != nil {
				return nil, contractkit.WithBreadcrumb(err, "[*]")
			}
			return &ListPattern{Element: elem, MinItems: maxPtr(x.MinItems, y.MinItems), MaxItems: minPtr(x.MaxItems, y.MaxItems)}, nil
		}
	case *XMLPattern:
		if y, ok := rb.(*XMLPattern); ok && x.Name == y.Name {
			attrs, err := mergeEntries(x.Attributes, y.Attributes, r, depth)
			if err != nil {
				return nil, err
			}
			children := x.Children
			if len(children) == 0 {
				children = y.Children
			}
			return &XMLPattern{Name: x.Name, Attributes: attrs, Children: children, Occurs: x.Occurs}, nil
		}
	}
	return nil, contractkit.Definitionf("cannot merge %s with %s", describe(ra), describe(rb))
}

func mergeObjects(a, b *ObjectPattern, r *Resolver, depth int) (Pattern, error) {
	entries, err := mergeEntries(a.Entries, b.Entries, r, depth)
	if err != nil {
		return nil, err
	}
	return &ObjectPattern{
		Entries:       entries,
		MinProperties: maxPtr(a.MinProperties, b.MinProperties),
		MaxProperties: minPtr(a.MaxProperties, b.MaxProperties),
		Extensible:    a.Extensible && b.Extensible,
	}, nil
}

// mergeEntries folds b's keys into a's, keeping a's order first.
func mergeEntries(a, b []Entry, r *Resolver, depth int) ([]Entry, error) {
	out := make([]Entry, 0, len(a)+len(b))
	used := map[string]bool{}
	var errs []error
	for _, ea := range a {
		name := WithoutOptionality(ea.Key)
		idx := slices.IndexFunc(b, func(e Entry) bool { return WithoutOptionality(e.Key) == name })
		if idx < 0 {
			out = append(out, ea)
			continue
		}
		eb := b[idx]
		used[name] = true
		merged, err := merge(ea.Pattern, eb.Pattern, r, depth+1)
		if err != nil {
			errs = append(errs, contractkit.WithBreadcrumb(err, name))
			continue
		}
		key := name
		if IsOptional(ea.Key) && IsOptional(eb.Key) {
			key = Optional(name)
		}
		out = append(out, Entry{Key: key, Pattern: merged})
	}
	for _, eb := range b {
		if !used[WithoutOptionality(eb.Key)] {
			out = append(out, eb)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

func mergeStrings(a, b *StringPattern) (Pattern, error) {
	out := &StringPattern{
		MinLength: maxPtr(a.MinLength, b.MinLength),
		MaxLength: minPtr(a.MaxLength, b.MaxLength),
		Regex:     a.Regex,
		Format:    a.Format,
	}
	if b.Regex != "" {
		if a.Regex != "" && a.Regex != b.Regex {
			return nil, contractkit.Definitionf("cannot merge regex %q with %q", a.Regex, b.Regex)
		}
		out.Regex = b.Regex
	}
	if b.Format != "" {
		if a.Format != "" && a.Format != b.Format {
			return nil, contractkit.Definitionf("cannot merge format %s with %s", a.Format, b.Format)
		}
		out.Format = b.Format
	}
	if out.MinLength != nil && out.MaxLength != nil && *out.MinLength > *out.MaxLength {
		return nil, contractkit.Definitionf("merged string has minLength %d above maxLength %d", *out.MinLength, *out.MaxLength)
	}
	return out, nil
}

func mergeNumbers(a, b *NumberPattern) Pattern {
	out := &NumberPattern{Integer: a.Integer || b.Integer}
	out.Minimum, out.ExclusiveMinimum = a.Minimum, a.ExclusiveMinimum
	if b.Minimum != nil && (out.Minimum == nil || *b.Minimum > *out.Minimum || (*b.Minimum == *out.Minimum && b.ExclusiveMinimum)) {
		out.Minimum, out.ExclusiveMinimum = b.Minimum, b.ExclusiveMinimum
	}
	out.Maximum, out.ExclusiveMaximum = a.Maximum, a.ExclusiveMaximum
	if b.Maximum != nil && (out.Maximum == nil || *b.Maximum < *out.Maximum || (*b.Maximum == *out.Maximum && b.ExclusiveMaximum)) {
		out.Maximum, out.ExclusiveMaximum = b.Maximum, b.ExclusiveMaximum
	}
	return out
}

func mergeLiteral(e *ExactPattern, other Pattern, r *Resolver) (Pattern, error) {
	if !match(other, e.Value, r).IsSuccess() {
		return nil, contractkit.Definitionf("cannot merge %s with %s", e.Value.Display(), describe(other))
	}
	return e, nil
}

func mergeEnum(e *EnumPattern, other Pattern, r *Resolver) (Pattern, error) {
	var kept []value.Value
	for _, v := range e.Values {
		if match(other, v, r).IsSuccess() {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return nil, contractkit.Definitionf("cannot merge %s with %s", e.TypeName(), describe(other))
	}
	return &EnumPattern{TypeAlias: e.TypeAlias, Values: kept}, nil
}

// mergeUnion distributes the merge over the union's branches, dropping the
// branches that cannot merge.
func mergeUnion(u *AnyOfPattern, other Pattern, r *Resolver, depth int) (Pattern, error) {
	var branches []Pattern
	var errs []error
	for _, b := range u.Branches {
		merged, err := merge(b, other, r, depth+1)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if alias := b.Alias(); alias != "" && merged.Alias() == "" {
			merged = WithAlias(merged, alias)
		}
		branches = append(branches, merged)
	}
	if len(branches) == 0 {
		return nil, errors.Join(errs...)
	}
	if len(branches) == 1 && u.Discriminator == "" {
		return branches[0], nil
	}
	return &AnyOfPattern{TypeAlias: u.TypeAlias, Branches: branches, Discriminator: u.Discriminator, Mapping: u.Mapping}, nil
}

// WithAlias returns a copy of p carrying alias. Patterns without an alias
// field (Null, Exact, Deferred) are returned unchanged.
func WithAlias(p Pattern, alias string) Pattern {
	switch t := p.(type) {
	case *StringPattern:
		c := *t
		c.TypeAlias = alias
		return &c
	case *NumberPattern:
		c := *t
		c.TypeAlias = alias
		return &c
	case *BooleanPattern:
		c := *t
		c.TypeAlias = alias
		return &c
	case *EnumPattern:
		c := *t
		c.TypeAlias = alias
		return &c
	case *ObjectPattern:
		c := *t
		c.TypeAlias = alias
		return &c
	case *DictionaryPattern:
		c := *t
		c.TypeAlias = alias
		return &c
	case *ListPattern:
		c := *t
		c.TypeAlias = alias
		return &c
	case *XMLPattern:
		c := *t
		c.TypeAlias = alias
		return &c
	case *AllOfPattern:
		c := *t
		c.TypeAlias = alias
		return &c
	case *AnyOfPattern:
		c := *t
		c.TypeAlias = alias
		return &c
	case *AnythingPattern:
		c := *t
		c.TypeAlias = alias
		return &c
	}
	return p
}

func maxPtr(a, b *int) *int {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *a >= *b:
		return a
	}
	return b
}

func minPtr(a, b *int) *int {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *a <= *b:
		return a
	}
	return b
}
