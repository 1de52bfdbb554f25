// Package middleware puts a contract in front of net/http handlers. Requests
// are routed to the operation they address and validated against it; the
// stub handler answers valid requests with generated responses.
package middleware

import (
	"context"
	"net/http"

	json "github.com/goccy/go-json"

	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/openapi"
	"github.com/reoring/contractkit/value"
)

// ctxKey is a typed context key. The type parameter keeps keys for different
// payloads distinct.
type ctxKey[T any] struct{}

func withValue[T any](ctx context.Context, v T) context.Context {
	return context.WithValue(ctx, ctxKey[T]{}, v)
}

func valueFrom[T any](ctx context.Context) (T, bool) {
	v, ok := ctx.Value(ctxKey[T]{}).(T)
	return v, ok
}

// Request is the validated view of an incoming request.
type Request struct {
	Operation openapi.Operation
	// Parameters holds the parsed value of every parameter that was sent.
	Parameters map[string]value.Value
	// Body is nil when the operation declares no body or none was sent.
	Body value.Value
}

// ContextWithRequest attaches a validated request to ctx.
func ContextWithRequest(ctx context.Context, r Request) context.Context {
	return withValue(ctx, r)
}

// RequestFromContext returns the validated request stored by Validator.
func RequestFromContext(ctx context.Context) (Request, bool) {
	return valueFrom[Request](ctx)
}

// Error codes used in ErrorPayload besides issue codes.
const (
	CodeInvalidRequest   = "invalid_request"
	CodeNotFound         = "not_found"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeInternal         = "internal"
)

// ErrorPayload is the JSON body of an error response.
type ErrorPayload struct {
	Code    string         `json:"code"`
	Message string         `json:"message,omitempty"`
	Issues  []IssuePayload `json:"issues,omitempty"`
}

// IssuePayload is one issue as sent over the wire.
type IssuePayload struct {
	Path    string         `json:"path"`
	Pointer string         `json:"pointer,omitempty"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Params  map[string]any `json:"params,omitempty"`
}

// NewErrorPayload shapes issues for a JSON response.
func NewErrorPayload(code string, issues contractkit.Issues) ErrorPayload {
	p := ErrorPayload{Code: code}
	for _, it := range issues {
		p.Issues = append(p.Issues, IssuePayload{
			Path:    it.Path,
			Pointer: it.Pointer,
			Code:    it.Code,
			Message: it.Message,
			Params:  it.Params,
		})
	}
	return p
}

func writeError(w http.ResponseWriter, status int, p ErrorPayload) {
	data, err := json.Marshal(p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeValue(w http.ResponseWriter, status int, contentType string, v value.Value) {
	if v == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(value.MarshalJSON(v))
}
