// routes/referral_routes.go
package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/skillforge/referral_backend/controllers"
	"github.com/skillforge/referral_backend/middleware"
)

// RegisterReferralRoutes registers the referrer-facing routes.
func RegisterReferralRoutes(e *echo.Echo, referralController *controllers.ReferralController) {
	referralGroup := e.Group("/api/referral")
	referralGroup.Use(middleware.JWTMiddleware())

	referralGroup.GET("/link", referralController.GetReferralLink)
	referralGroup.GET("/stats", referralController.GetStats)
	referralGroup.GET("/earnings", referralController.GetEarnings)
	referralGroup.POST("/payouts", referralController.RequestPayout)
	referralGroup.GET("/payouts", referralController.GetPayoutRequests)
}
