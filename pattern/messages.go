package pattern

import (
	"strconv"

	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/i18n"
	"github.com/reoring/contractkit/value"
)

// MismatchMessages formats failure messages. Implementations let callers
// phrase failures for their audience, for example "request" versus "stub".
type MismatchMessages interface {
	// Message renders the failure for code. data carries "expected",
	// "actual" and "key" where they apply.
	Message(code string, data map[string]string) string
}

// Translated formats messages through an i18n Translator.
type Translated struct {
	Translator i18n.Translator
}

func (t Translated) Message(code string, data map[string]string) string {
	return t.Translator.Message(code, data)
}

// DefaultMessages returns English messages.
func DefaultMessages() MismatchMessages { return Translated{Translator: i18n.New("en")} }

// describeValue renders an actual value for messages, e.g. `string: "abc"`.
func describeValue(v value.Value) string {
	if v == nil {
		return "nothing"
	}
	if v.Kind() == value.KindNull {
		return "null"
	}
	d := v.Display()
	const maxLen = 80
	if len(d) > maxLen {
		d = d[:maxLen] + "..."
	}
	return v.Kind().String() + ": " + d
}

func (r *Resolver) fail(code, expected string, actual value.Value) contractkit.Result {
	return contractkit.FailWith(code, r.messages.Message(code, map[string]string{
		"expected": expected,
		"actual":   describeValue(actual),
	}), map[string]any{"expected": expected})
}

func (r *Resolver) mismatch(expected string, actual value.Value) contractkit.Result {
	return r.fail(contractkit.CodeMismatch, expected, actual)
}

func (r *Resolver) keyFailure(code, key string) contractkit.Result {
	return contractkit.FailWith(code, r.messages.Message(code, map[string]string{"key": key}), map[string]any{"key": key})
}

func (r *Resolver) countFailure(code string, want, got int) contractkit.Result {
	return contractkit.FailWith(code, r.messages.Message(code, map[string]string{
		"expected": strconv.Itoa(want),
		"actual":   strconv.Itoa(got),
	}), map[string]any{"expected": want, "actual": got})
}
