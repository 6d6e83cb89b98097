package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/invoicing-portal/internal/apperr"
	"github.com/iliyamo/invoicing-portal/internal/model"
)

// Validator adapts go-playground/validator to echo.Validator.  Besides the
// stock tags it knows registration_type and province.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("registration_type", func(fl validator.FieldLevel) bool {
		return model.ValidRegistrationType(fl.Field().String())
	})
	_ = v.RegisterValidation("province", func(fl validator.FieldLevel) bool {
		return model.ValidProvince(fl.Field().String())
	})
	return &Validator{v: v}
}

// Validate returns an apperr validation failure naming every bad field.
func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return apperr.ErrValidation.Wrap(err)
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		msgs = append(msgs, describe(fe))
	}
	return apperr.Validation(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "registration_type":
		return fmt.Sprintf("invalid registration type %q", fe.Value())
	case "province":
		return fmt.Sprintf("invalid province %q", fe.Value())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}

// bind decodes the request into req and validates it.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperr.Validation("invalid body")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(req)
}
