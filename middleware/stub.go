package middleware

import (
	"net/http"

	"github.com/reoring/contractkit/openapi"
	"github.com/reoring/contractkit/pattern"
)

// Stub serves c without a real implementation: requests are validated as by
// Validator.Handler and every valid request is answered with the lowest
// declared 2xx status and a body generated from its schema.
func Stub(c *openapi.Contract, opts Options) http.Handler {
	v := NewValidator(c, opts)
	return v.Handler(&stubHandler{v: v, bind: opts.BindParameters})
}

type stubHandler struct {
	v    *Validator
	bind bool
}

func (h *stubHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, ok := RequestFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, ErrorPayload{Code: CodeInternal, Message: "request was not validated"})
		return
	}
	op := req.Operation
	resp, ok := op.SuccessResponse()
	if !ok {
		h.v.logger.Debug("no success response declared", "operation", op.Key())
		w.WriteHeader(http.StatusNoContent)
		return
	}
	status := resp.Code()
	if resp.Body == nil {
		w.WriteHeader(status)
		return
	}

	resolver := h.v.resolver
	if h.bind && len(req.Parameters) > 0 {
		resolver = resolver.WithFacts(pattern.Facts(req.Parameters))
	}
	body, err := pattern.Generate(resp.Body.Pattern, resolver)
	if err != nil {
		h.v.logger.Error("response generation failed", "operation", op.Key(), "status", status, "error", err)
		writeError(w, http.StatusInternalServerError, ErrorPayload{Code: CodeInternal, Message: err.Error()})
		return
	}
	h.v.logger.Debug("stub response", "operation", op.Key(), "status", status)
	writeValue(w, status, contentType(resp.Body), body)
}

func contentType(b *openapi.Body) string {
	if b.ContentType == "" || !isJSON(b.ContentType) {
		return "application/json"
	}
	return b.ContentType
}
