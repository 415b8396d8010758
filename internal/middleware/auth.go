package middleware

import (
	"net/http"

	"github.com/alizeeshan1234/beethoven-trade/internal/config"
	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/gin-gonic/gin"
)

const (
	HeaderAPIKey        = "X-Api-Key"
	HeaderCallerAddress = "X-Caller-Address"
	ContextCallerKey    = "caller"
)

// AuthMiddleware resolves the caller identity. Every mutating endpoint needs
// a 32-byte caller address; the shared API key is additionally enforced when
// configured.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg != nil && cfg.Auth.RequireAPIKey {
			if c.GetHeader(HeaderAPIKey) != cfg.Auth.APIKey {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
				c.Abort()
				return
			}
		}

		raw := c.GetHeader(HeaderCallerAddress)
		if raw == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing caller address"})
			c.Abort()
			return
		}
		caller, err := model.AddressFromHex(raw)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "malformed caller address"})
			c.Abort()
			return
		}

		c.Set(ContextCallerKey, caller)
		c.Next()
	}
}

// Caller returns the authenticated caller address set by AuthMiddleware.
func Caller(c *gin.Context) (model.Address, bool) {
	val, exists := c.Get(ContextCallerKey)
	if !exists {
		return model.Address{}, false
	}
	caller, ok := val.(model.Address)
	return caller, ok
}
