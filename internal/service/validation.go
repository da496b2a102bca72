// Package service holds the business rules for listing, editing, and
// engaging with tours. Services take the acting user explicitly and return
// models.AppError values the HTTP layer maps onto status codes.
package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"tours/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateInput checks in against its `validate` tags and reports the first
// failing field as a validation error.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return models.NewValidationError(err.Error())
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return models.NewValidationError(fmt.Sprintf("%s is required", fe.Field()))
	case "max":
		return models.NewValidationError(fmt.Sprintf("%s too long (max %s characters)", fe.Field(), fe.Param()))
	default:
		return models.NewValidationError(fmt.Sprintf("%s is invalid", fe.Field()))
	}
}
