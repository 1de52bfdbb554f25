package echomw

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reoring/contractkit/middleware"
)

// Validate checks every request against the contract behind v. Unknown
// routes and invalid requests are answered by the validator (404/405/400 with
// an ErrorPayload); valid ones continue with the validated Request in the
// request context.
func Validate(v *middleware.Validator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var nextErr error
			h := v.Handler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				c.SetRequest(r)
				nextErr = next(c)
			}))
			h.ServeHTTP(c.Response(), c.Request())
			return nextErr
		}
	}
}

// GetRequest fetches the validated Request from echo.Context.
func GetRequest(c echo.Context) (middleware.Request, bool) {
	return middleware.RequestFromContext(c.Request().Context())
}
