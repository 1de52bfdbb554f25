package scenario

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	contractkit "github.com/reoring/contractkit"
	"github.com/reoring/contractkit/pattern"
	"github.com/reoring/contractkit/value"
)

// Runner sends cases to a live service and checks the responses against the
// contract.
type Runner struct {
	BaseURL  string
	Client   *http.Client
	Resolver *pattern.Resolver
	Logger   *slog.Logger
}

// Run executes one case. The returned error reports transport problems only;
// contract violations are in the Result, under RESPONSE.
func (rn *Runner) Run(ctx context.Context, tc Case) (contractkit.Result, error) {
	req, err := rn.request(ctx, tc)
	if err != nil {
		return contractkit.Success(), fmt.Errorf("scenario: %s: %w", tc.Name, err)
	}
	client := rn.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return contractkit.Success(), fmt.Errorf("scenario: %s: %w", tc.Name, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return contractkit.Success(), fmt.Errorf("scenario: %s: read response: %w", tc.Name, err)
	}
	if rn.Logger != nil {
		rn.Logger.Debug("case executed", "case", tc.Name, "status", resp.StatusCode, "bytes", len(data))
	}
	return rn.check(tc, resp.StatusCode, data).Breadcrumb("RESPONSE"), nil
}

func (rn *Runner) check(tc Case, status int, data []byte) contractkit.Result {
	if !tc.Expect.Accepts(status) {
		msg := fmt.Sprintf("Expected status %s, actual was %d", tc.Expect, status)
		return contractkit.FailWith(contractkit.CodeMismatch, msg, map[string]any{
			"expected": tc.Expect.String(),
			"actual":   status,
		}).Breadcrumb("STATUS")
	}
	if tc.Negative {
		return contractkit.Success()
	}
	decl, ok := tc.Operation.Response(strconv.Itoa(status))
	if !ok {
		decl, ok = tc.Operation.Response("default")
	}
	if !ok || decl.Body == nil {
		return contractkit.Success()
	}
	v, err := value.ParseJSON(data)
	if err != nil {
		return contractkit.Fail(contractkit.CodeParseError, err.Error()).Breadcrumb("BODY")
	}
	r := rn.Resolver
	if r == nil {
		return contractkit.Fail(contractkit.CodeDefinition, "runner has no resolver")
	}
	return pattern.Match(decl.Body.Pattern, v, r).Breadcrumb("BODY")
}

func (rn *Runner) request(ctx context.Context, tc Case) (*http.Request, error) {
	op := tc.Operation
	path := op.Path
	query := url.Values{}
	header := http.Header{}
	for _, p := range op.Parameters {
		v, ok := tc.Parameters[p.Key()]
		if !ok {
			continue
		}
		text := value.Text(v)
		switch p.In {
		case "path":
			path = strings.ReplaceAll(path, "{"+p.Name+"}", url.PathEscape(text))
		case "query":
			query.Set(p.Name, text)
		case "header":
			header.Set(p.Name, text)
		}
	}
	u := strings.TrimRight(rn.BaseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if tc.Body != nil {
		body = bytes.NewReader(value.MarshalJSON(tc.Body))
	}
	req, err := http.NewRequestWithContext(ctx, op.Method, u, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		req.Header[k] = vs
	}
	if tc.Body != nil {
		ct := "application/json"
		if op.RequestBody != nil && op.RequestBody.ContentType != "" {
			ct = op.RequestBody.ContentType
		}
		req.Header.Set("Content-Type", ct)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}
