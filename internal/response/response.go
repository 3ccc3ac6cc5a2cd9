package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response represents a standard API response. Kind carries the stable
// machine-readable rejection code for failed business operations so the
// admin UI can branch on it (e.g. offer an unfreeze action for
// MembershipFrozen) instead of parsing messages.
type Response struct {
	Success bool        `json:"success"`
	Kind    string      `json:"kind,omitempty"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success returns a success response
func Success(data interface{}) Response {
	return Response{
		Success: true,
		Message: "success",
		Data:    data,
	}
}

// Error returns an error response
func Error(message string) Response {
	return Response{
		Success: false,
		Message: message,
	}
}

// Rejected returns a business-rule rejection response
func Rejected(kind, message string, context interface{}) Response {
	return Response{
		Success: false,
		Kind:    kind,
		Message: message,
		Data:    context,
	}
}

// JSON sends a JSON response
func JSON(c *gin.Context, statusCode int, response Response) {
	c.JSON(statusCode, response)
}

// SuccessJSON sends a success JSON response
func SuccessJSON(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, Success(data))
}

// ErrorJSON sends an error JSON response
func ErrorJSON(c *gin.Context, statusCode int, message string) {
	JSON(c, statusCode, Error(message))
}
