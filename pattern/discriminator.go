package pattern

import (
	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/value"
)

// discriminated substitutes the bound discriminator value for the Pattern of
// the discriminator key, so generation and matching pin it to one literal.
func (r *Resolver) discriminated(key string, p Pattern) Pattern {
	if r.disc == nil || r.disc.key != key {
		return p
	}
	return Exact(value.String(r.disc.value))
}

// DiscriminatorValues lists the literal discriminator value of every aliased
// branch, in branch order.
func (p *AnyOfPattern) DiscriminatorValues() []string {
	byAlias := map[string]string{}
	for v, alias := range p.Mapping {
		byAlias[alias] = v
	}
	var out []string
	for _, b := range p.Branches {
		alias := b.Alias()
		if alias == "" {
			continue
		}
		if v, ok := byAlias[alias]; ok {
			out = append(out, v)
			continue
		}
		out = append(out, alias)
	}
	return out
}

// branchFor returns the branch selected by discriminator value val.
func (p *AnyOfPattern) branchFor(val string) (Pattern, bool) {
	alias := val
	if mapped, ok := p.Mapping[val]; ok {
		alias = mapped
	}
	for _, b := range p.Branches {
		if b.Alias() == alias {
			return b, true
		}
	}
	return nil, false
}

// selectBranch picks the branch for obj from its discriminator property.
func selectBranch(p *AnyOfPattern, obj value.Object, r *Resolver) (Pattern, string, contractkit.Result) {
	raw, ok := obj.Get(p.Discriminator)
	if !ok {
		return nil, "", r.keyFailure(contractkit.CodeDiscriminatorMissing, p.Discriminator).Breadcrumb(p.Discriminator)
	}
	s, ok := raw.(value.String)
	if !ok {
		return nil, "", r.mismatch("string", raw).Breadcrumb(p.Discriminator)
	}
	branch, ok := p.branchFor(string(s))
	if !ok {
		return nil, "", contractkit.FailWith(contractkit.CodeDiscriminatorUnknown,
			r.messages.Message(contractkit.CodeDiscriminatorUnknown, map[string]string{
				"key":    p.Discriminator,
				"actual": raw.Display(),
			}), map[string]any{"key": p.Discriminator, "allowed": p.DiscriminatorValues()}).Breadcrumb(p.Discriminator)
	}
	return branch, string(s), contractkit.Success()
}

// boundBranch returns the branch selected by the Resolver's discriminator
// binding, if the binding targets p.
func (r *Resolver) boundBranch(p *AnyOfPattern) (Pattern, string, bool) {
	if p.Discriminator == "" || r.disc == nil || r.disc.key != p.Discriminator {
		return nil, "", false
	}
	b, ok := p.branchFor(r.disc.value)
	return b, r.disc.value, ok
}
