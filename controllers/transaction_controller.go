// controllers/transaction_controller.go
package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillforge/referral_backend/models"
	"github.com/skillforge/referral_backend/services"
)

// TransactionController receives the upstream purchase/subscription webhook
// and the public click/signup tracking calls.
type TransactionController struct {
	Earnings *services.EarningService
	Links    *services.LinkService
}

func NewTransactionController(earnings *services.EarningService, links *services.LinkService) *TransactionController {
	return &TransactionController{Earnings: earnings, Links: links}
}

// HandleTransaction credits commission for one billable transaction.
// Delivery is at-least-once upstream: a replayed transactionId returns the
// original result with a 200, never an error.
func (tc *TransactionController) HandleTransaction(c echo.Context) error {
	var req models.TransactionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request format",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid transaction: " + err.Error(),
		})
	}

	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	result, err := tc.Earnings.CreditForPurchase(c.Request().Context(), userID,
		req.TransactionID, req.TransactionType, req.GrossAmount, req.Currency)
	if err != nil {
		return serviceError(c, err, "Failed to credit earning")
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Transaction processed",
		Data:    result,
	})
}

// TrackClick bumps the click counter of a referral code. Public endpoint,
// rate limited.
func (tc *TransactionController) TrackClick(c echo.Context) error {
	var req models.TrackClickRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request format",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Referral code is required",
		})
	}

	if err := tc.Links.TrackClick(c.Request().Context(), req.Code); err != nil {
		return serviceError(c, err, "Failed to track click")
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Click tracked",
	})
}

// RecordSignup attributes a newly registered user to a referral code. Called
// by the identity service after signup completes.
func (tc *TransactionController) RecordSignup(c echo.Context) error {
	var req models.RecordSignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request format",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid signup: " + err.Error(),
		})
	}

	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	referral, err := tc.Links.RecordSignup(c.Request().Context(), userID, req.Code, req.ReferrerClass)
	if err != nil {
		return serviceError(c, err, "Failed to record signup")
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Signup recorded",
		Data:    referral,
	})
}
