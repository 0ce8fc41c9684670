package middleware

import (
	stdErrors "errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/atc-shift-analyzer/errors"
	"github.com/johnquangdev/atc-shift-analyzer/pkg/jwt"
)

// ClaimsKey is the echo context key holding the caller's *jwt.Claims
const ClaimsKey = "claims"

// EchoAuth returns an Echo middleware that validates the bearer token and
// stores its claims in the echo context
func EchoAuth(manager *jwt.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c.Request())
			if token == "" {
				return respondError(c, errors.ErrUnauthenticated())
			}

			claims, err := manager.ValidateAccessToken(token)
			if err != nil {
				if stdErrors.Is(err, jwt.ErrTokenExpired) {
					return respondError(c, errors.ErrTokenExpired())
				}
				return respondError(c, errors.ErrInvalidToken())
			}

			c.Set(ClaimsKey, claims)
			c.Set("subject", claims.Subject)
			return next(c)
		}
	}
}

// RequireRole rejects callers whose token carries none of roles. It must run after EchoAuth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := GetClaims(c)
			if !ok {
				return respondError(c, errors.ErrUnauthenticated())
			}
			if !claims.HasRole(roles...) {
				return respondError(c, errors.ErrPermissionDenied(strings.Join(roles, " or ")+" role required"))
			}
			return next(c)
		}
	}
}

// GetClaims retrieves the validated claims from the echo context
func GetClaims(c echo.Context) (*jwt.Claims, bool) {
	claims, ok := c.Get(ClaimsKey).(*jwt.Claims)
	return claims, ok
}

func extractToken(r *http.Request) string {
	// Expected format: "Bearer <token>"
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	// Try cookie as fallback
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}

func respondError(c echo.Context, appErr errors.AppError) error {
	return c.JSON(appErr.HTTPCode, map[string]interface{}{
		"code":    appErr.Code,
		"message": appErr.Message,
		"details": appErr.Details,
	})
}
