package api

import (
	"net/http"
	"strconv"
	"time"

	"membership-api/internal/database"
	"membership-api/internal/response"
	"membership-api/internal/services"

	"github.com/gin-gonic/gin"
)

// ListPendingPayments returns the admin approval queue
func ListPendingPayments(c *gin.Context) {
	payments, err := database.GetPaymentsAwaitingApproval()
	if err != nil {
		renderError(c, err)
		return
	}
	response.SuccessJSON(c, payments)
}

// ApprovePayment completes a pending or approval_pending payment. Repeating
// the call on an already-approved payment is a no-op, so approval links can
// be retried safely.
func ApprovePayment(c *gin.Context) {
	payment, err := paymentService.Approve(c.Param("paymentRef"), time.Now())
	if err != nil {
		renderError(c, err)
		return
	}
	response.SuccessJSON(c, payment)
}

// RejectPayment fails a pending payment; the entry is kept for audit
func RejectPayment(c *gin.Context) {
	payment, err := paymentService.Reject(c.Param("paymentRef"))
	if err != nil {
		renderError(c, err)
		return
	}
	response.SuccessJSON(c, payment)
}

// AdminPaymentRequest represents an admin direct sale
type AdminPaymentRequest struct {
	UserID    uint    `json:"user_id" binding:"required"`
	PackageID uint    `json:"package_id" binding:"required"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Duration  string  `json:"duration"`
}

// CreateAdminPayment records a front-desk sale as a completed membership
func CreateAdminPayment(c *gin.Context) {
	var req AdminPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	payment, err := paymentService.CreateAdminPayment(services.AdminSaleInput{
		UserID:    req.UserID,
		PackageID: req.PackageID,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Duration:  req.Duration,
	}, time.Now())
	if err != nil {
		renderError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, response.Success(payment))
}

// FreezeRequest represents a freeze request
type FreezeRequest struct {
	PaymentRef    string    `json:"payment_ref" binding:"required"`
	FreezeEndDate time.Time `json:"freeze_end_date" binding:"required"`
}

// FreezePayment pauses an active membership until the given date
func FreezePayment(c *gin.Context) {
	var req FreezeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	payment, err := freezeService.Freeze(req.PaymentRef, req.FreezeEndDate, time.Now())
	if err != nil {
		renderError(c, err)
		return
	}
	response.SuccessJSON(c, payment)
}

// UnfreezeRequest represents a manual unfreeze request
type UnfreezeRequest struct {
	PaymentRef string `json:"payment_ref" binding:"required"`
}

// UnfreezePayment resumes a frozen membership immediately
func UnfreezePayment(c *gin.Context) {
	var req UnfreezeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	payment, err := freezeService.Unfreeze(req.PaymentRef, time.Now())
	if err != nil {
		renderError(c, err)
		return
	}
	response.SuccessJSON(c, payment)
}

// UpgradeRequest represents a plan upgrade
type UpgradeRequest struct {
	MemberID  uint    `json:"member_id" binding:"required"`
	PackageID uint    `json:"package_id" binding:"required"`
	Price     float64 `json:"price"`
	Duration  string  `json:"duration"`
}

// UpgradeMembership force-expires the member's current plan and creates the
// upgraded entry with used days discounted
func UpgradeMembership(c *gin.Context) {
	var req UpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	payment, err := paymentService.Upgrade(services.UpgradeInput{
		UserID:    req.MemberID,
		PackageID: req.PackageID,
		Amount:    req.Price,
		Duration:  req.Duration,
	}, time.Now())
	if err != nil {
		renderError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, response.Success(payment))
}

// CheckOut stamps the checkout time on an open check-in record
func CheckOut(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid check-in id")
		return
	}

	checkIn, err := database.GetCheckInByID(uint(id))
	if err != nil {
		response.ErrorJSON(c, http.StatusNotFound, "Check-in not found")
		return
	}
	if checkIn.CheckOutTime != nil {
		response.ErrorJSON(c, http.StatusConflict, "Member already checked out")
		return
	}

	now := time.Now()
	if err := database.SetCheckOutTime(checkIn.ID, now); err != nil {
		renderError(c, err)
		return
	}
	checkIn.CheckOutTime = &now
	response.SuccessJSON(c, checkIn)
}
