package middleware

import (
	"cmp"
	"net/url"
	"slices"
	"strings"

	"github.com/reoring/contractkit/openapi"
)

type route struct {
	op       openapi.Operation
	segments []string
	literals int
}

// Router maps a method and a concrete path to an operation. Literal segments
// take precedence over templated ones, so /pets/mine wins over /pets/{id}.
type Router struct {
	routes []route
}

// NewRouter indexes the operations of c.
func NewRouter(c *openapi.Contract) *Router {
	rt := &Router{}
	for _, op := range c.Operations {
		segs := split(op.Path)
		n := 0
		for _, s := range segs {
			if !isTemplate(s) {
				n++
			}
		}
		rt.routes = append(rt.routes, route{op: op, segments: segs, literals: n})
	}
	slices.SortStableFunc(rt.routes, func(a, b route) int { return cmp.Compare(b.literals, a.literals) })
	return rt
}

// Find returns the operation for method and path together with the raw text
// of its path parameters.
func (rt *Router) Find(method, path string) (openapi.Operation, map[string]string, bool) {
	segs := split(path)
	method = strings.ToUpper(method)
	for _, r := range rt.routes {
		if r.op.Method != method {
			continue
		}
		if params, ok := r.match(segs); ok {
			return r.op, params, true
		}
	}
	return openapi.Operation{}, nil, false
}

// Allowed lists the methods declared for path, for 405 responses.
func (rt *Router) Allowed(path string) []string {
	segs := split(path)
	var out []string
	for _, r := range rt.routes {
		if _, ok := r.match(segs); ok && !slices.Contains(out, r.op.Method) {
			out = append(out, r.op.Method)
		}
	}
	slices.Sort(out)
	return out
}

func (r route) match(segs []string) (map[string]string, bool) {
	if len(segs) != len(r.segments) {
		return nil, false
	}
	params := map[string]string{}
	for i, s := range r.segments {
		if isTemplate(s) {
			text, err := url.PathUnescape(segs[i])
			if err != nil || text == "" {
				return nil, false
			}
			params[s[1:len(s)-1]] = text
			continue
		}
		if s != segs[i] {
			return nil, false
		}
	}
	return params, true
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func isTemplate(seg string) bool {
	return len(seg) > 2 && strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")
}
