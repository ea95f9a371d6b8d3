package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"voicebook/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type TenantValidator struct {
	validate *validator.Validate
}

func NewTenantValidator() *TenantValidator {
	return &TenantValidator{validate: validator.New()}
}

func (v *TenantValidator) ValidateTenant(tenant *model.Tenant) error {
	if err := v.validate.Struct(tenant); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}

	if _, err := time.LoadLocation(tenant.Timezone); err != nil {
		return ValidationErrors{
			ValidationError{
				Field:   "Timezone",
				Message: fmt.Sprintf("%q is not a valid IANA timezone", tenant.Timezone),
			},
		}
	}

	return nil
}

func (v *TenantValidator) ValidateResource(resource *model.Resource) error {
	if err := v.validate.Struct(resource); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return validateDayWindow(resource.StartOfDay, resource.EndOfDay)
}

func (v *TenantValidator) ValidateResourceUpdate(update *model.ResourceUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}

	if update.StartOfDay != "" || update.EndOfDay != "" {
		// Partial window updates still need both ends to compare.
		if update.StartOfDay == "" || update.EndOfDay == "" {
			return ValidationErrors{
				ValidationError{
					Field:   "StartOfDay",
					Message: "start_of_day and end_of_day must be updated together",
				},
			}
		}
		return validateDayWindow(update.StartOfDay, update.EndOfDay)
	}
	return nil
}

// validateDayWindow checks both clock times parse as HH:MM and the window
// is non-empty.
func validateDayWindow(start, end string) error {
	startClock, err := time.Parse("15:04", start)
	if err != nil {
		return ValidationErrors{
			ValidationError{Field: "StartOfDay", Message: "start_of_day must be in HH:MM format"},
		}
	}
	endClock, err := time.Parse("15:04", end)
	if err != nil {
		return ValidationErrors{
			ValidationError{Field: "EndOfDay", Message: "end_of_day must be in HH:MM format"},
		}
	}
	if !startClock.Before(endClock) {
		return ValidationErrors{
			ValidationError{Field: "EndOfDay", Message: "end_of_day must be after start_of_day"},
		}
	}
	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
