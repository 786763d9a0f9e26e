package handlers

import (
	"net/http"

	apperrors "tourism/internal/errors"

	"github.com/gin-gonic/gin"
)

// Payments handlers

// GetPayment - GET /api/payments/:id
// Квитанция об оплате
func (h *Handlers) GetPayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	payment, err := h.services.Payments.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "get payment")
		return
	}

	c.JSON(http.StatusOK, payment)
}

// GetPaymentByBooking - GET /api/payments?booking_id=
// Платеж по бронированию
func (h *Handlers) GetPaymentByBooking(c *gin.Context) {
	bookingID, ok := parseIDQuery(c, "booking_id")
	if !ok {
		return
	}
	if bookingID == 0 {
		validationFailed(c, []apperrors.FieldError{{Field: "booking_id", Message: "booking_id is required"}})
		return
	}

	payment, err := h.services.Payments.GetByBooking(c.Request.Context(), bookingID)
	if err != nil {
		handleServiceError(c, err, "get payment")
		return
	}

	c.JSON(http.StatusOK, payment)
}
