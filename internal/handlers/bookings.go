package handlers

import (
	"net/http"

	apperrors "tourism/internal/errors"
	"tourism/internal/models"

	"github.com/gin-gonic/gin"
)

// Bookings handlers

// CreateBooking - POST /api/bookings
// Создать бронирование
func (h *Handlers) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingFailed(c, err)
		return
	}

	response, err := h.services.Bookings.Create(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err, "create booking")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// GetBooking - GET /api/bookings/:id
// Бронирование с пакетом и платежом
func (h *Handlers) GetBooking(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	response, err := h.services.Bookings.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "get booking")
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListBookings - GET /api/bookings
// История бронирований, фильтр по email, пакету и статусу
func (h *Handlers) ListBookings(c *gin.Context) {
	packageID, ok := parseIDQuery(c, "package_id")
	if !ok {
		return
	}

	filter := models.BookingFilter{
		Email:     c.Query("email"),
		PackageID: packageID,
		Status:    c.Query("status"),
	}

	response, err := h.services.Bookings.List(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, err, "list bookings")
		return
	}

	c.JSON(http.StatusOK, response)
}

// CancelBooking - PATCH /api/bookings/cancel
// Отменить бронирование
func (h *Handlers) CancelBooking(c *gin.Context) {
	var req models.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingFailed(c, err)
		return
	}

	response, err := h.services.Bookings.Cancel(c.Request.Context(), req.BookingID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"status": "not_found", "error": err.Error()})
			return
		}
		handleServiceError(c, err, "cancel booking")
		return
	}

	if response.Status == models.CancelOutcomeAlreadyCancelled {
		c.JSON(http.StatusConflict, gin.H{
			"status":     response.Status,
			"booking_id": response.BookingID,
			"error":      "booking is already cancelled",
		})
		return
	}

	c.JSON(http.StatusOK, response)
}
