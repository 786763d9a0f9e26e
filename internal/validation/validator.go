package validation

import (
	"reflect"
	"strings"
	"sync"

	apperrors "tourism/internal/errors"

	"github.com/go-playground/validator/v10"
)

// Booking limits
const (
	MinSeats      = 1
	MaxSeats      = 10
	MinNameLength = 2
	MinPhoneLen   = 10
)

// BookingDraft - данные бронирования до сохранения (статус Pending)
type BookingDraft struct {
	PackageID    int64  `json:"package_id"`
	SeatCount    int    `json:"seat_count" validate:"min=1,max=10"`
	CustomerName string `json:"customer_name" validate:"min=2"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required,min=10"`
}

// Normalize trims whitespace from customer contact fields
func (d *BookingDraft) Normalize() {
	d.CustomerName = strings.TrimSpace(d.CustomerName)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// Report json names so the caller can map errors to form fields
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateBooking checks every field of the draft and returns all problems together.
// Returns nil when the draft is valid.
func ValidateBooking(d BookingDraft) error {
	d.Normalize()

	err := instance().Struct(d)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.ValidationError{Fields: []apperrors.FieldError{{Field: "request", Message: err.Error()}}}
	}

	fields := make([]apperrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperrors.FieldError{
			Field:   fe.Field(),
			Message: messageFor(fe),
		})
	}
	return apperrors.ValidationError{Fields: fields}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Field() {
	case "customer_name":
		return "customer name must be at least 2 characters"
	case "email":
		if fe.Tag() == "required" {
			return "email is required"
		}
		return "please enter a valid email address"
	case "phone":
		if fe.Tag() == "required" {
			return "phone number is required"
		}
		return "phone number must be at least 10 characters"
	case "seat_count":
		return "number of seats must be between 1 and 10"
	default:
		return fe.Error()
	}
}
