// routes/admin_routes.go
package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/skillforge/referral_backend/controllers"
	"github.com/skillforge/referral_backend/middleware"
)

// RegisterAdminRoutes sets up all admin-related routes
func RegisterAdminRoutes(e *echo.Echo, adminController *controllers.AdminReferralController) {
	admin := e.Group("/api/admin/referrals")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.RequireUserType("admin", "super_admin"))

	admin.GET("/overview", adminController.GetOverview)
	admin.GET("/referrers", adminController.ListReferrers)
	admin.GET("/payouts", adminController.ListPayoutRequests)
	admin.PUT("/payouts/:id", adminController.ProcessPayoutRequest)
	admin.PUT("/settings/:referrerId", adminController.UpdateCommissionSettings)
}
