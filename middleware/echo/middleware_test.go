package echomw_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/reoring/contractkit/middleware"
	echomw "github.com/reoring/contractkit/middleware/echo"
	"github.com/reoring/contractkit/openapi"
)

func TestValidate(t *testing.T) {
	c, _, err := openapi.LoadFile("../../examples/petstore/openapi.yaml", openapi.Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	e := echo.New()
	e.Use(echomw.Validate(middleware.NewValidator(c, middleware.Options{})))
	e.POST("/pets", func(ctx echo.Context) error {
		req, ok := echomw.GetRequest(ctx)
		if !ok {
			t.Errorf("validated request missing")
		}
		return ctx.String(http.StatusCreated, req.Operation.Key())
	})

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/pets", strings.NewReader(`{"name": "Rex", "petType": "Dog"}`))
	r.Header.Set("Content-Type", "application/json")
	e.ServeHTTP(rec, r)
	if rec.Code != http.StatusCreated || rec.Body.String() != "POST /pets" {
		t.Fatalf("valid request: %d %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/pets", strings.NewReader(`{"name": ""}`))
	r.Header.Set("Content-Type", "application/json")
	e.ServeHTTP(rec, r)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid request: want 400, got %d", rec.Code)
	}
}
