// middleware/auth_middleware.go
package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/skillforge/referral_backend/models"
)

// RequireUserType checks if the authenticated user has one of the allowed
// user types.
func RequireUserType(allowedTypes ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userType := ExtractUserType(c)
			if userType == "" {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Authentication failed: user type not found",
				})
			}

			for _, allowedType := range allowedTypes {
				if userType == allowedType {
					return next(c)
				}
			}

			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Access denied for your user type",
			})
		}
	}
}

// RequireServiceToken guards the internal endpoints called by the purchase
// and identity systems. The token comes from the X-Service-Token header and
// is compared in constant time against SERVICE_TOKEN.
func RequireServiceToken() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			expected := os.Getenv("SERVICE_TOKEN")
			if expected == "" {
				return c.JSON(http.StatusServiceUnavailable, models.Response{
					Status:  http.StatusServiceUnavailable,
					Message: "Service token not configured",
				})
			}

			provided := c.Request().Header.Get("X-Service-Token")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Invalid service token",
				})
			}
			return next(c)
		}
	}
}
