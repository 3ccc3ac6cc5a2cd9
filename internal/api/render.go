package api

import (
	"net/http"

	"membership-api/internal/response"
	"membership-api/internal/services"
	"membership-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

// statusForKind maps rejection kinds to HTTP statuses. Lookups that found
// nothing are 404; malformed input is 400; everything else is a
// business-state conflict.
func statusForKind(kind string) int {
	switch kind {
	case services.KindPaymentNotFound,
		services.KindUserNotFound,
		services.KindPackageNotFound,
		services.KindActiveMembershipMissing:
		return http.StatusNotFound
	case services.KindInvalidQRPayload,
		services.KindInvalidDurationFormat,
		services.KindInvalidState:
		return http.StatusBadRequest
	default:
		return http.StatusConflict
	}
}

// renderError sends a structured rejection for expected business failures
// and a generic 500 for everything else. Internals are logged, not leaked.
func renderError(c *gin.Context, err error) {
	if rej, ok := services.AsRejection(err); ok {
		var context interface{}
		if rej.Context != nil {
			context = rej.Context
		}
		response.JSON(c, statusForKind(rej.Kind), response.Rejected(rej.Kind, rej.Message, context))
		return
	}

	logging.Errorf("Request failed: %v", err)
	response.ErrorJSON(c, http.StatusInternalServerError, "Internal server error")
}
