package contractkit

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType          = "invalid_type"
	CodeRequired             = "required"
	CodeUnknownKey           = "unknown_key"
	CodeDuplicateKey         = "duplicate_key"
	CodeTooSmall             = "too_small"
	CodeTooBig               = "too_big"
	CodeTooShort             = "too_short"
	CodeTooLong              = "too_long"
	CodePattern              = "pattern"
	CodeInvalidEnum          = "invalid_enum"
	CodeInvalidFormat        = "invalid_format"
	CodeDiscriminatorMissing = "discriminator_missing"
	CodeDiscriminatorUnknown = "discriminator_unknown"
	CodeParseError           = "parse_error"
	CodeMismatch             = "mismatch"
	CodeTooFewProperties     = "too_few_properties"
	CodeTooManyProperties    = "too_many_properties"
	CodeTooFewItems          = "too_few_items"
	CodeTooManyItems         = "too_many_items"
	// Schema definition problems surfaced while matching or comparing.
	CodeDefinition = "definition"
	CodeCycle      = "cycle"
	// Backward compatibility
	CodeIncompatible     = "incompatible"
	CodeOperationRemoved = "operation_removed"
)

// Issue represents a single leaf failure flattened out of a Result.
type Issue struct {
	Path    string // Breadcrumb path (for example: RESPONSE.BODY.items[2].price).
	Pointer string // JSON Pointer equivalent of Path (for example: /items/2/price).
	Code    string // One of the codes listed above.
	Message string
	// Params carries structured parameters (e.g., {"expected":"string"}) for
	// i18n and observability.
	Params map[string]any
}

// Issues is a collection of failures that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at address.street
		path := it.Path
		if path == "" {
			path = "(root)"
		}
		fmt.Fprintf(b, "%s at %s", it.Code, path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Codes returns the issue codes in order, which is handy in tests.
func (iss Issues) Codes() []string {
	out := make([]string, 0, len(iss))
	for _, it := range iss {
		out = append(out, it.Code)
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}
