package api

import (
	"net/http"
	"time"

	"membership-api/internal/response"

	"github.com/gin-gonic/gin"
)

// VerifyRequest carries the raw scanned QR text
type VerifyRequest struct {
	QRData string `json:"qr_data" binding:"required"`
}

// VerifyScan runs the check-in state machine against a scanned code. A
// still-pending payment is an informational 200, a successful check-in is a
// 200 with the created record, and every rejection is a structured 4xx the
// scanning UI can branch on.
func VerifyScan(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	result, err := checkInService.Verify(c.Request.Context(), req.QRData, time.Now())
	if err != nil {
		renderError(c, err)
		return
	}

	response.SuccessJSON(c, result)
}
