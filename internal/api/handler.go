package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"gatehouse-backend/internal/ledger"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	ledger  *ledger.Service
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s *ledger.Service, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		ledger:  s,
		webpush: webpushOptions,
	}
}

// statusFor maps a rejection kind to its HTTP status. The mapping lives
// here, not in the ledger: the core reports typed rejections, the facade
// decides how to speak HTTP.
func statusFor(kind ledger.RejectKind) int {
	switch kind {
	case ledger.KindNotFound:
		return http.StatusNotFound
	case ledger.KindConflict:
		return http.StatusConflict
	default:
		// ALREADY_IN_STATE, OUT_OF_RANGE, IMPLAUSIBLE_DELTA
		return http.StatusBadRequest
	}
}

// renderError writes a ledger error to the response. Typed rejections carry
// their structured detail; anything else is a storage-layer failure and is
// reported without leaking engine error text.
func renderError(c *gin.Context, err error) {
	var rej *ledger.Rejection
	if errors.As(err, &rej) {
		c.JSON(statusFor(rej.Kind), gin.H{"error": rej.Detail, "rejection": rej})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
