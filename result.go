package contractkit

import (
	"strings"
)

// Failure is one node of a failure tree. Leaves carry a code and message;
// inner nodes carry a breadcrumb (key name or [index]) and optionally a
// reason that applies to every cause beneath them.
type Failure struct {
	Code       string
	Message    string
	Breadcrumb string
	Params     map[string]any
	Causes     []*Failure
}

// Result is the outcome of matching, comparing or parsing. The zero value is
// success.
type Result struct {
	failure *Failure
}

// Success returns a successful Result.
func Success() Result { return Result{} }

// Fail returns a failed Result with a single leaf.
func Fail(code, message string) Result {
	return Result{failure: &Failure{Code: code, Message: message}}
}

// FailWith returns a failed Result with a leaf carrying params.
func FailWith(code, message string, params map[string]any) Result {
	return Result{failure: &Failure{Code: code, Message: message, Params: params}}
}

// FromFailure wraps an existing failure tree. A nil failure is success.
func FromFailure(f *Failure) Result { return Result{failure: f} }

// IsSuccess reports whether the Result carries no failure.
func (r Result) IsSuccess() bool { return r.failure == nil }

// Failure returns the failure tree, or nil on success.
func (r Result) Failure() *Failure { return r.failure }

// Breadcrumb nests the failure under crumb. Success passes through.
func (r Result) Breadcrumb(crumb string) Result {
	if r.failure == nil || crumb == "" {
		return r
	}
	if r.failure.Breadcrumb == "" {
		f := *r.failure
		f.Breadcrumb = crumb
		return Result{failure: &f}
	}
	return Result{failure: &Failure{Breadcrumb: crumb, Causes: []*Failure{r.failure}}}
}

// Reason attaches an explanatory message above the existing failure.
func (r Result) Reason(message string) Result {
	if r.failure == nil {
		return r
	}
	return Result{failure: &Failure{Message: message, Causes: []*Failure{r.failure}}}
}

// Combine aggregates results. Every failure is kept.
func Combine(results ...Result) Result {
	var fs []*Failure
	for _, r := range results {
		if r.failure != nil {
			fs = append(fs, r.failure)
		}
	}
	switch len(fs) {
	case 0:
		return Success()
	case 1:
		return Result{failure: fs[0]}
	}
	return Result{failure: &Failure{Causes: fs}}
}

// Issues flattens the failure tree into leaf issues with breadcrumb paths.
func (r Result) Issues() Issues {
	if r.failure == nil {
		return nil
	}
	var out Issues
	r.failure.walk(nil, nil, func(crumbs, _ []string, leaf *Failure) {
		out = AppendIssues(out, Issue{
			Path:    JoinBreadcrumbs(crumbs),
			Pointer: PointerOf(crumbs),
			Code:    leaf.Code,
			Message: leaf.Message,
			Params:  leaf.Params,
		})
	})
	return out
}

// Err returns the flattened Issues as an error, or nil on success.
func (r Result) Err() error {
	if r.failure == nil {
		return nil
	}
	return r.Issues()
}

// Report renders the human-readable report: one block per leaf failure,
// headed by its breadcrumb path.
//
//	>> RESPONSE.BODY.address
//
//	   Expected key named "address" was missing
func (r Result) Report() string {
	if r.failure == nil {
		return ""
	}
	var blocks []string
	r.failure.walk(nil, nil, func(crumbs, reasons []string, leaf *Failure) {
		b := &strings.Builder{}
		path := JoinBreadcrumbs(crumbs)
		if path != "" {
			b.WriteString(">> ")
			b.WriteString(path)
			b.WriteString("\n\n")
		}
		lines := append(append([]string{}, reasons...), leaf.Message)
		for i, l := range lines {
			if l == "" {
				continue
			}
			if i > 0 || path != "" {
				b.WriteString("   ")
			}
			b.WriteString(l)
			b.WriteString("\n")
		}
		blocks = append(blocks, strings.TrimRight(b.String(), "\n"))
	})
	return strings.Join(blocks, "\n\n")
}

func (f *Failure) walk(crumbs, reasons []string, visit func(crumbs, reasons []string, leaf *Failure)) {
	if f.Breadcrumb != "" {
		crumbs = append(crumbs[:len(crumbs):len(crumbs)], f.Breadcrumb)
	}
	if len(f.Causes) == 0 {
		visit(crumbs, reasons, f)
		return
	}
	if f.Message != "" {
		reasons = append(reasons[:len(reasons):len(reasons)], f.Message)
	}
	for _, c := range f.Causes {
		c.walk(crumbs, reasons, visit)
	}
}
