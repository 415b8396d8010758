package middleware

import (
	"crypto/subtle"

	"github.com/alizeeshan1234/beethoven-trade/internal/config"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
)

const (
	HeaderAdminKey       = "X-Admin-Key"
	HeaderAdminSecretKey = "X-Admin-Secret"
)

// AdminMiddleware gates the admin route group (exchange parameters, vaults,
// fund initialization). An unconfigured key closes the group entirely rather
// than leaving it open.
func AdminMiddleware(cfg *config.Config) gin.HandlerFunc {
	return requireHeader(cfg, HeaderAdminKey, func() string { return cfg.Auth.AdminKey })
}

// AdminSecretMiddleware adds a second factor for destructive operations.
func AdminSecretMiddleware(cfg *config.Config) gin.HandlerFunc {
	return requireHeader(cfg, HeaderAdminSecretKey, func() string { return cfg.Auth.AdminSecretKey })
}

func requireHeader(cfg *config.Config, header string, expected func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg == nil || expected() == "" {
			c.Error(apperrors.Newf(apperrors.ErrAuthFailed, "%s is not configured on this deployment", header))
			c.Abort()
			return
		}
		got := c.GetHeader(header)
		if subtle.ConstantTimeCompare([]byte(got), []byte(expected())) != 1 {
			c.Error(apperrors.Newf(apperrors.ErrAuthFailed, "invalid %s", header))
			c.Abort()
			return
		}
		c.Next()
	}
}
