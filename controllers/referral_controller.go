// controllers/referral_controller.go
package controllers

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"os"
	"strconv"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillforge/referral_backend/middleware"
	"github.com/skillforge/referral_backend/models"
	"github.com/skillforge/referral_backend/services"
)

// ReferralController serves the referrer-facing endpoints: link, stats,
// earnings listing and payout requests.
type ReferralController struct {
	Links    *services.LinkService
	Earnings *services.EarningService
	Payouts  *services.PayoutService
	Stats    *services.StatsService
}

func NewReferralController(links *services.LinkService, earnings *services.EarningService, payouts *services.PayoutService, stats *services.StatsService) *ReferralController {
	return &ReferralController{Links: links, Earnings: earnings, Payouts: payouts, Stats: stats}
}

// GetReferralLink returns the caller's referral code, share URL and QR code,
// creating the link lazily on first use.
func (rc *ReferralController) GetReferralLink(c echo.Context) error {
	referrerID, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	link, err := rc.Links.GetOrCreate(c.Request().Context(), referrerID)
	if err != nil {
		return serviceError(c, err, "Failed to retrieve referral link")
	}

	shareURL := referralShareURL(link.Code)
	qrCode, err := generateQRCode(shareURL)
	if err != nil {
		c.Logger().Warnf("Failed to generate QR code: %v", err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral link retrieved successfully",
		Data: map[string]interface{}{
			"code":        link.Code,
			"url":         shareURL,
			"qrCode":      qrCode,
			"clicks":      link.Clicks,
			"conversions": link.Conversions,
		},
	})
}

// GetStats returns the referrer dashboard rollup.
func (rc *ReferralController) GetStats(c echo.Context) error {
	referrerID, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	stats, err := rc.Stats.GetStats(c.Request().Context(), referrerID)
	if err != nil {
		return serviceError(c, err, "Failed to retrieve referral stats")
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral stats retrieved successfully",
		Data:    stats,
	})
}

// GetEarnings pages through the caller's commission ledger.
func (rc *ReferralController) GetEarnings(c echo.Context) error {
	referrerID, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	page, limit := pageParams(c)
	earnings, total, err := rc.Earnings.ListEarnings(c.Request().Context(), referrerID, c.QueryParam("status"), page, limit)
	if err != nil {
		return serviceError(c, err, "Failed to retrieve earnings")
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Earnings retrieved successfully",
		Data: map[string]interface{}{
			"earnings": earnings,
			"total":    total,
			"page":     page,
			"limit":    limit,
		},
	})
}

// RequestPayout reserves eligible earnings and creates a payout request.
func (rc *ReferralController) RequestPayout(c echo.Context) error {
	referrerID, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	var req models.PayoutRequestBody
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request format",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid payout request: " + err.Error(),
		})
	}

	payout, err := rc.Payouts.RequestPayout(c.Request().Context(), referrerID, req.Amount, req.Currency, req.PaymentMethod, req.PaymentDetails)
	if err != nil {
		return serviceError(c, err, "Failed to create payout request")
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Payout request created successfully",
		Data:    payout,
	})
}

// GetPayoutRequests pages through the caller's payout requests.
func (rc *ReferralController) GetPayoutRequests(c echo.Context) error {
	referrerID, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	page, limit := pageParams(c)
	payouts, total, err := rc.Payouts.ListByReferrer(c.Request().Context(), referrerID, page, limit)
	if err != nil {
		return serviceError(c, err, "Failed to retrieve payout requests")
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

// currentUserID extracts the authenticated user's id from the JWT claims.
func currentUserID(c echo.Context) (primitive.ObjectID, error) {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return primitive.ObjectIDFromHex(userID)
}

// pageParams reads page/limit query parameters; the services clamp them.
func pageParams(c echo.Context) (int64, int64) {
	page, _ := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	return page, limit
}

// referralShareURL builds the public signup URL for a referral code.
func referralShareURL(code string) string {
	base := os.Getenv("REFERRAL_BASE_URL")
	if base == "" {
		base = "https://skillforge.io/referral"
	}
	return fmt.Sprintf("%s?code=%s", base, code)
}

// generateQRCode renders a referral URL as a 300x300 PNG, base64-encoded for
// embedding in responses.
func generateQRCode(content string) (string, error) {
	qrCode, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return "", err
	}

	qrCode, err = barcode.Scale(qrCode, 300, 300)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qrCode); err != nil {
		return "", err
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// serviceError maps service-layer errors onto the HTTP taxonomy: validation
// -> 400, not found -> 404, invalid transition -> 409, insufficient eligible
// funds -> 400 with the current eligible total for client display.
func serviceError(c echo.Context, err error, fallback string) error {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: validationErr.Message,
		})
	}

	var fundsErr *services.InsufficientFundsError
	if errors.As(err, &fundsErr) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Insufficient eligible funds",
			Data: map[string]interface{}{
				"requestedAmount": fundsErr.Requested,
				"eligibleAmount":  fundsErr.Eligible,
			},
		})
	}

	if errors.Is(err, services.ErrNotFound) {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Record not found",
		})
	}

	if errors.Is(err, services.ErrInvalidTransition) {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Payout request is already in a terminal state",
		})
	}

	c.Logger().Errorf("%s: %v", fallback, err)
	return c.JSON(http.StatusInternalServerError, models.Response{
		Status:  http.StatusInternalServerError,
		Message: fallback,
	})
}
