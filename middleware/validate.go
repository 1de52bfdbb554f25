package middleware

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/openapi"
	"github.com/reoring/contractkit/pattern"
	"github.com/reoring/contractkit/value"
)

// DefaultMaxBodyBytes bounds the request bodies Validator reads.
const DefaultMaxBodyBytes = 1 << 20

// Options configures Validator and Stub.
type Options struct {
	// Resolver matches requests and generates responses. Defaults to the
	// contract's resolver. It must be safe for concurrent use, so leave
	// WithRand unset unless requests are served one at a time.
	Resolver *pattern.Resolver
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// MaxBodyBytes defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// BindParameters makes the stub generate response keys named like a
	// request parameter from that parameter's value, so GET /pets/7 answers
	// with id 7.
	BindParameters bool
	// Metrics, when set, records every request the validator sees.
	Metrics *Metrics
}

// Validator checks requests against the operation they address.
type Validator struct {
	router   *Router
	resolver *pattern.Resolver
	logger   *slog.Logger
	metrics  *Metrics
	maxBody  int64
}

// NewValidator prepares a Validator for c.
func NewValidator(c *openapi.Contract, opts Options) *Validator {
	v := &Validator{
		router:   NewRouter(c),
		resolver: opts.Resolver,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		maxBody:  opts.MaxBodyBytes,
	}
	if v.resolver == nil {
		v.resolver = c.Resolver()
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}
	if v.maxBody <= 0 {
		v.maxBody = DefaultMaxBodyBytes
	}
	return v
}

// Handler wraps next: unknown routes get 404 (or 405 when only the method is
// wrong), invalid requests get 400 with an ErrorPayload, and valid requests
// reach next with the Request available through RequestFromContext.
func (v *Validator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		op, raw, ok := v.router.Find(r.Method, r.URL.EscapedPath())
		if !ok {
			if allowed := v.router.Allowed(r.URL.EscapedPath()); len(allowed) > 0 {
				v.metrics.count("", OutcomeMethodNotAllowed)
				w.Header().Set("Allow", strings.Join(allowed, ", "))
				writeError(w, http.StatusMethodNotAllowed, ErrorPayload{Code: CodeMethodNotAllowed, Message: r.Method + " " + r.URL.Path})
				return
			}
			v.metrics.count("", OutcomeNotFound)
			v.logger.Debug("no route", "method", r.Method, "path", r.URL.Path)
			writeError(w, http.StatusNotFound, ErrorPayload{Code: CodeNotFound, Message: r.Method + " " + r.URL.Path})
			return
		}
		req, res := v.Validate(op, raw, r)
		if !res.IsSuccess() {
			v.metrics.count(op.Key(), OutcomeRejected)
			v.logger.Info("request rejected", "operation", op.Key(), "issues", res.Issues().Error())
			writeError(w, http.StatusBadRequest, NewErrorPayload(CodeInvalidRequest, res.Issues()))
			return
		}
		v.metrics.count(op.Key(), OutcomeAccepted)
		defer v.metrics.since(op.Key(), time.Now())
		next.ServeHTTP(w, r.WithContext(ContextWithRequest(r.Context(), req)))
	})
}

// Validate checks the parameters and body of r against op. pathParams holds
// the raw path segment text per template name, as returned by Router.Find.
// Failures are located under REQUEST.PARAMETERS.<name> and REQUEST.BODY.
func (v *Validator) Validate(op openapi.Operation, pathParams map[string]string, r *http.Request) (Request, contractkit.Result) {
	req := Request{Operation: op, Parameters: map[string]value.Value{}}
	var params []contractkit.Result
	for _, p := range op.Parameters {
		text, ok := rawParameter(p, pathParams, r)
		if !ok {
			if p.Required {
				params = append(params, v.required(p.Name).Breadcrumb(p.Name))
			}
			continue
		}
		val, err := pattern.Parse(p.Pattern, text, v.resolver)
		if err != nil {
			params = append(params, contractkit.FailWith(contractkit.CodeParseError, err.Error(), map[string]any{"actual": text}).Breadcrumb(p.Name))
			continue
		}
		if res := pattern.Match(p.Pattern, val, v.resolver); !res.IsSuccess() {
			params = append(params, res.Breadcrumb(p.Name))
			continue
		}
		req.Parameters[p.Name] = val
	}

	body, res := v.body(op, r)
	req.Body = body
	return req, contractkit.Combine(contractkit.Combine(params...).Breadcrumb("PARAMETERS"), res.Breadcrumb("BODY")).Breadcrumb("REQUEST")
}

func (v *Validator) body(op openapi.Operation, r *http.Request) (value.Value, contractkit.Result) {
	decl := op.RequestBody
	if decl == nil {
		return nil, contractkit.Success()
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, v.maxBody+1))
	if err != nil {
		return nil, contractkit.Fail(contractkit.CodeParseError, "reading body: "+err.Error())
	}
	// Handlers behind the validator may read the body again.
	r.Body = io.NopCloser(bytes.NewReader(data))
	if int64(len(data)) > v.maxBody {
		return nil, contractkit.FailWith(contractkit.CodeTooLong, "request body is too large", map[string]any{"expected": v.maxBody})
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		if decl.Required {
			return nil, v.required("body")
		}
		return nil, contractkit.Success()
	}
	if !isJSON(decl.ContentType) {
		// Only JSON bodies are checked.
		return value.String(string(data)), contractkit.Success()
	}
	if ct := r.Header.Get("Content-Type"); ct != "" && !isJSON(ct) {
		return nil, contractkit.FailWith(contractkit.CodeMismatch, "Expected content type "+decl.ContentType+", actual was "+ct,
			map[string]any{"expected": decl.ContentType, "actual": ct})
	}
	val, err := value.ParseJSON(data)
	if err != nil {
		code := contractkit.CodeParseError
		if errors.Is(err, value.ErrDuplicateKey) {
			code = contractkit.CodeDuplicateKey
		}
		return nil, contractkit.Fail(code, err.Error())
	}
	return val, pattern.Match(decl.Pattern, val, v.resolver)
}

func rawParameter(p openapi.Parameter, pathParams map[string]string, r *http.Request) (string, bool) {
	switch p.In {
	case "path":
		s, ok := pathParams[p.Name]
		return s, ok
	case "query":
		q := r.URL.Query()
		if !q.Has(p.Name) {
			return "", false
		}
		return q.Get(p.Name), true
	case "header":
		vs := r.Header.Values(p.Name)
		if len(vs) == 0 {
			return "", false
		}
		return vs[0], true
	}
	return "", false
}

func (v *Validator) required(key string) contractkit.Result {
	return contractkit.FailWith(contractkit.CodeRequired,
		pattern.DefaultMessages().Message(contractkit.CodeRequired, map[string]string{"key": key}),
		map[string]any{"key": key})
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
