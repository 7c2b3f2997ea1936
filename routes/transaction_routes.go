// routes/transaction_routes.go
package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/skillforge/referral_backend/controllers"
	"github.com/skillforge/referral_backend/middleware"
)

// RegisterTransactionRoutes registers the upstream webhook and the public
// tracking endpoints. The webhook and signup recording are service-to-service
// calls guarded by a shared token; click tracking is public and rate limited.
func RegisterTransactionRoutes(e *echo.Echo, transactionController *controllers.TransactionController) {
	e.POST("/api/transactions", transactionController.HandleTransaction, middleware.RequireServiceToken())
	e.POST("/api/referral/signups", transactionController.RecordSignup, middleware.RequireServiceToken())
	e.POST("/api/referral/clicks", transactionController.TrackClick)
}
