package api

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"membership-api/internal/config"
	"membership-api/internal/database"
	"membership-api/internal/middleware"
	"membership-api/internal/models"
	"membership-api/internal/response"
	"membership-api/internal/services"
	"membership-api/pkg/logging"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListPackages returns the purchasable package catalog
func ListPackages(c *gin.Context) {
	pkgs, err := database.GetActivePackages()
	if err != nil {
		renderError(c, err)
		return
	}
	response.SuccessJSON(c, pkgs)
}

// PayInitRequest represents a member-initiated purchase
type PayInitRequest struct {
	PackageID     uint    `json:"package_id"`
	PlanTitle     string  `json:"plan_title"`
	PlanPrice     float64 `json:"plan_price"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"payment_method" binding:"required,oneof=online incash"`
}

// PayInit creates (or reuses) a pending ledger entry for the authenticated
// member and returns the reference the rest of the flow works with.
func PayInit(c *gin.Context) {
	var req PayInitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}
	if req.PackageID == 0 && req.PlanTitle == "" {
		response.ErrorJSON(c, http.StatusBadRequest, "Either package_id or plan_title is required")
		return
	}

	payment, err := paymentService.InitializePayment(services.InitPaymentInput{
		UserID:        middleware.CurrentUserID(c),
		PackageID:     req.PackageID,
		PlanTitle:     req.PlanTitle,
		Amount:        req.PlanPrice,
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
	}, time.Now())
	if err != nil {
		renderError(c, err)
		return
	}

	// Online purchases continue at the receipt-upload step; incash purchases
	// wait for front-desk approval.
	redirectURL := ""
	if payment.PaymentMethod == models.PaymentMethodOnline {
		redirectURL = fmt.Sprintf("/api/payment/receipt/%s", payment.PaymentRef)
	}

	response.SuccessJSON(c, gin.H{
		"payment_ref":  payment.PaymentRef,
		"redirect_url": redirectURL,
		"qr_code_data": payment.QRCodeData,
		"payment":      payment,
	})
}

// UploadReceipt stores the uploaded receipt image and advances the payment
// to approval_pending.
func UploadReceipt(c *gin.Context) {
	paymentRef := c.Param("paymentRef")

	file, err := c.FormFile("receipt")
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Missing receipt file")
		return
	}

	// Stored under a fresh name; the original filename is untrusted input.
	storedPath := filepath.Join(config.AppConfig.ReceiptUploadDir,
		uuid.NewString()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, storedPath); err != nil {
		logging.Errorf("Failed to store receipt: %v", err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to store receipt")
		return
	}

	payment, err := paymentService.UploadReceipt(paymentRef, middleware.CurrentUserID(c), storedPath, time.Now())
	if err != nil {
		renderError(c, err)
		return
	}

	response.SuccessJSON(c, gin.H{
		"payment":      payment,
		"qr_code_data": payment.QRCodeData,
	})
}

// MembershipStatus returns the authenticated member's active membership and
// a QR payload valid for today, regenerating a stale rotating payload.
func MembershipStatus(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	now := time.Now()

	payment, err := database.GetActivePayment(userID, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Frozen memberships are not "active" but the member should see
			// why, so fall back to the latest entry.
			payments, histErr := database.GetUserPayments(userID)
			if histErr == nil && len(payments) > 0 {
				response.SuccessJSON(c, gin.H{
					"active":  false,
					"payment": payments[0],
				})
				return
			}
			response.SuccessJSON(c, gin.H{"active": false})
			return
		}
		renderError(c, err)
		return
	}

	if payload, parseErr := services.ParsePayload(payment.QRCodeData); parseErr == nil {
		fresh := qrService.EnsureFresh(payload, now)
		if fresh != payload {
			if encoded, encErr := qrService.Encode(fresh); encErr == nil {
				payment.QRCodeData = encoded
				if saveErr := database.SavePayment(payment); saveErr != nil {
					logging.Errorf("Failed to cache refreshed QR payload: %v", saveErr)
				}
			}
		}
	}

	response.SuccessJSON(c, gin.H{
		"active":       true,
		"payment":      payment,
		"qr_code_data": payment.QRCodeData,
	})
}
