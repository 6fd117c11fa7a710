// middleware/trigger_secret.go
package middleware

import (
	"crypto/subtle"
	"log"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/natpethunai/marketplace_backend/models"
)

// TriggerSecret guards the settlement webhook with the shared secret the
// payment-confirmation trigger sends in X-Trigger-Secret. Constant-time
// comparison; an unset TRIGGER_SECRET rejects every request rather than
// leaving the webhook open.
func TriggerSecret() echo.MiddlewareFunc {
	secret := os.Getenv("TRIGGER_SECRET")
	if secret == "" {
		log.Printf("Warning: TRIGGER_SECRET environment variable is not set; settlement webhook will reject all requests")
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			provided := c.Request().Header.Get("X-Trigger-Secret")
			if secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Invalid trigger secret",
				})
			}
			return next(c)
		}
	}
}
