package openapi

import "fmt"

// AdditionalProperties decides how an object schema that does not mention
// additionalProperties treats keys it does not declare.
type AdditionalProperties int

const (
	// ClosedByDefault rejects undeclared keys unless additionalProperties is
	// true or a schema.
	ClosedByDefault AdditionalProperties = iota
	// OpenByDefault follows the JSON Schema default and accepts them.
	OpenByDefault
)

// Options controls how a document is compiled.
type Options struct {
	AdditionalProperties AdditionalProperties
	// StrictFormats turns unknown string formats into errors instead of
	// warnings.
	StrictFormats bool
}

// Diag carries non-fatal warnings produced while compiling a document.
type Diag interface {
	HasWarnings() bool
	Warnings() []string
}

type simpleDiag struct{ ws []string }

func (d *simpleDiag) HasWarnings() bool  { return len(d.ws) > 0 }
func (d *simpleDiag) Warnings() []string { return append([]string(nil), d.ws...) }
func (d *simpleDiag) warnf(at string, f string, a ...any) {
	msg := fmt.Sprintf(f, a...)
	if at != "" {
		msg = at + ": " + msg
	}
	d.ws = append(d.ws, msg)
}
