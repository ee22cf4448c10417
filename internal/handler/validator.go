package handler

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/LytheanSem/emotionwork-sub001/internal/ledger"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9 ()-]{7,20}$`)

// RequestValidator adapts go-playground/validator to echo.Validator.
type RequestValidator struct {
	v *validator.Validate
}

// NewValidator registers the booking-specific tags: phone, slotdate and
// slottime.  Field errors are reported by their JSON name.
func NewValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("slotdate", func(fl validator.FieldLevel) bool {
		return validDate(fl.Field().String())
	})
	_ = v.RegisterValidation("slottime", func(fl validator.FieldLevel) bool {
		_, ok := ledger.ParseSlotTime(fl.Field().String())
		return ok
	})
	return &RequestValidator{v: v}
}

// Validate implements echo.Validator.
func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.v.Struct(i)
}

func validDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

// fieldErrors flattens validator errors into field -> failed rule.
func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	if ves, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range ves {
			out[fe.Field()] = fe.Tag()
		}
	}
	return out
}
