package ginmw

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reoring/contractkit/middleware"
)

// Validate checks every request against the contract behind v and aborts the
// chain when the validator has already answered (404/405/400).
func Validate(v *middleware.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		passed := false
		v.Handler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			// store the validated request in the gin context's request
			c.Request = r
			passed = true
		})).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetRequest fetches the validated Request from gin.Context.
func GetRequest(c *gin.Context) (middleware.Request, bool) {
	return middleware.RequestFromContext(c.Request.Context())
}
