package contractkit

import (
	"errors"
	"fmt"
	"slices"
)

// ErrCycle is matched by errors.Is for every cycle error.
var ErrCycle = errors.New("pattern cycle")

// DefinitionError reports a structurally invalid schema: mixed-kind
// intersections, unresolvable references, discriminator branches without an
// alias and similar problems. Breadcrumbs locate the offending schema node,
// outermost first.
type DefinitionError struct {
	Breadcrumbs []string
	Message     string
	Err         error
}

func (e *DefinitionError) Error() string {
	if p := JoinBreadcrumbs(e.Breadcrumbs); p != "" {
		return p + ": " + e.Message
	}
	return e.Message
}

func (e *DefinitionError) Unwrap() error { return e.Err }

// Definitionf builds a DefinitionError without breadcrumbs.
func Definitionf(format string, args ...any) error {
	return &DefinitionError{Message: fmt.Sprintf(format, args...)}
}

// WithBreadcrumb prefixes crumb onto a DefinitionError (or wraps any other
// error into one) so errors surfacing from deep inside a Pattern tree name
// their location. Each error of an errors.Join gets the crumb.
func WithBreadcrumb(err error, crumb string) error {
	if err == nil || crumb == "" {
		return err
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		errs := j.Unwrap()
		out := make([]error, len(errs))
		for i, e := range errs {
			out[i] = WithBreadcrumb(e, crumb)
		}
		return errors.Join(out...)
	}
	var de *DefinitionError
	if errors.As(err, &de) {
		cp := *de
		cp.Breadcrumbs = append([]string{crumb}, de.Breadcrumbs...)
		return &cp
	}
	var ce *CycleError
	if errors.As(err, &ce) {
		return err
	}
	return &DefinitionError{Breadcrumbs: []string{crumb}, Message: err.Error(), Err: err}
}

// CycleError reports unbounded recursive expansion. Stack lists the aliases
// on the cycle-prevention stack at the point of detection.
type CycleError struct {
	Stack []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("invalid pattern cycle: %v", e.Stack)
}

func (e *CycleError) Is(target error) bool { return target == ErrCycle }

// IsCycle reports whether err is (or wraps) a cycle error.
func IsCycle(err error) bool { return errors.Is(err, ErrCycle) }

// AsFailure converts a definition or cycle error into a failed Result so it
// can travel inside match and compare outcomes.
func AsFailure(err error) Result {
	if err == nil {
		return Success()
	}
	code := CodeDefinition
	if IsCycle(err) {
		code = CodeCycle
	}
	var de *DefinitionError
	if errors.As(err, &de) {
		r := Fail(code, de.Message)
		for _, c := range slices.Backward(de.Breadcrumbs) {
			r = r.Breadcrumb(c)
		}
		return r
	}
	return Fail(code, err.Error())
}
