package utils

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/horas-api/internal/hours"
)

const dateLayout = "2006-01-02"

// NewValidator builds the shared validator with the domain tags registered:
// activity_category accepts only enumerated categories, not_future rejects
// YYYY-MM-DD dates after the current day and hundredths rejects hour values
// with more than two decimal places.
func NewValidator(now func() time.Time) *validator.Validate {
	if now == nil {
		now = time.Now
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	_ = validate.RegisterValidation("activity_category", func(fl validator.FieldLevel) bool {
		return hours.Category(fl.Field().String()).Valid()
	})

	_ = validate.RegisterValidation("not_future", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		date, err := time.Parse(dateLayout, value)
		if err != nil {
			return false
		}
		return !IsFutureDate(date, now())
	})

	_ = validate.RegisterValidation("hundredths", func(fl validator.FieldLevel) bool {
		return IsHundredths(fl.Field().Float())
	})

	return validate
}

// IsHundredths reports whether v is a whole number of hundredths, within float noise.
func IsHundredths(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	scaled := v * 100
	return math.Abs(scaled-math.Round(scaled)) < 1e-6
}

// IsFutureDate reports whether the calendar date falls after the reference day.
func IsFutureDate(date, reference time.Time) bool {
	y, m, d := reference.Date()
	endOfDay := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	dy, dm, dd := date.Date()
	return !time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC).Before(endOfDay)
}
