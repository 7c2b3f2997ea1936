// controllers/admin_referral_controller.go
package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillforge/referral_backend/models"
	"github.com/skillforge/referral_backend/services"
)

// AdminReferralController serves the admin dashboard: platform overview,
// per-referrer performance, the payout approval queue and commission
// settings overrides.
type AdminReferralController struct {
	Payouts  *services.PayoutService
	Stats    *services.StatsService
	Settings *services.SettingsService
}

func NewAdminReferralController(payouts *services.PayoutService, stats *services.StatsService, settings *services.SettingsService) *AdminReferralController {
	return &AdminReferralController{Payouts: payouts, Stats: stats, Settings: settings}
}

// GetOverview returns platform-wide referral totals.
func (ac *AdminReferralController) GetOverview(c echo.Context) error {
	overview, err := ac.Stats.GetOverview(c.Request().Context())
	if err != nil {
		return serviceError(c, err, "Failed to retrieve overview")
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Overview retrieved successfully",
		Data:    overview,
	})
}

// ListReferrers returns aggregated per-referrer performance rows.
func (ac *AdminReferralController) ListReferrers(c echo.Context) error {
	page, limit := pageParams(c)
	rows, total, err := ac.Stats.ListReferrers(c.Request().Context(), c.QueryParam("class"), c.QueryParam("sort"), page, limit)
	if err != nil {
		return serviceError(c, err, "Failed to list referrers")
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referrers retrieved successfully",
		Data: map[string]interface{}{
			"referrers": rows,
			"total":     total,
			"page":      page,
			"limit":     limit,
		},
	})
}

// ListPayoutRequests returns the payout approval queue, optionally filtered
// by status.
func (ac *AdminReferralController) ListPayoutRequests(c echo.Context) error {
	page, limit := pageParams(c)
	payouts, total, err := ac.Payouts.ListByStatus(c.Request().Context(), c.QueryParam("status"), page, limit)
	if err != nil {
		return serviceError(c, err, "Failed to list payout requests")
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payout requests retrieved successfully",
		Data: map[string]interface{}{
			"payoutRequests": payouts,
			"total":          total,
			"page":           page,
			"limit":          limit,
		},
	})
}

// ProcessPayoutRequest applies an admin decision to a payout request.
func (ac *AdminReferralController) ProcessPayoutRequest(c echo.Context) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	payoutID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid payout request ID",
		})
	}

	var req models.ProcessPayoutBody
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request format",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid decision: " + err.Error(),
		})
	}

	payout, err := ac.Payouts.ProcessPayout(c.Request().Context(), payoutID, adminID, req.Status, req.AdminNote)
	if err != nil {
		return serviceError(c, err, "Failed to process payout request")
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payout request processed successfully",
		Data:    payout,
	})
}

// UpdateCommissionSettings applies an admin override to a referrer's rates,
// payment model or active flag.
func (ac *AdminReferralController) UpdateCommissionSettings(c echo.Context) error {
	referrerID, err := primitive.ObjectIDFromHex(c.Param("referrerId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid referrer ID",
		})
	}

	var req models.UpdateCommissionSettingsBody
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request format",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid settings update: " + err.Error(),
		})
	}

	settings, err := ac.Settings.UpdateRates(c.Request().Context(), referrerID, &req)
	if err != nil {
		return serviceError(c, err, "Failed to update commission settings")
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission settings updated successfully",
		Data:    settings,
	})
}
