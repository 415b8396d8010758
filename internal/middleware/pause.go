package middleware

import (
	"net/http"

	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
)

// PauseMiddleware rejects mutating requests while the halted check reports
// true. Reads and the admin surface stay available so operators can inspect
// state and lift the halt.
func PauseMiddleware(halted func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !halted() {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		if c.GetHeader(HeaderAdminKey) != "" {
			c.Next()
			return
		}

		c.Error(apperrors.New(apperrors.ErrExchangePaused, "trading is halted", nil))
		c.Abort()
	}
}
