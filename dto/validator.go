package dto

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("currency", validateCurrency)
}

func GetValidator() *validator.Validate {
	return validate
}

func validateCurrency(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if len(value) != 3 {
		return false
	}
	return strings.ToUpper(value) == value
}

type ValidationError struct {
	Field   string `json:"field" example:"title"`
	Message string `json:"message" example:"title is required"`
}

type ValidationErrorResponse struct {
	Code    int               `json:"code" example:"400"`
	Message string            `json:"message" example:"Validation failed"`
	Errors  []ValidationError `json:"errors"`
}

func FormatValidationErrors(err error) []ValidationError {
	var errors []ValidationError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			var message string

			switch fieldError.Tag() {
			case "required":
				message = fieldError.Field() + " is required"
			case "required_without":
				message = fieldError.Field() + " is required when " + fieldError.Param() + " is empty"
			case "required_if":
				message = fieldError.Field() + " is required when " + fieldError.Param()
			case "min":
				message = fieldError.Field() + " must be at least " + fieldError.Param()
			case "max":
				message = fieldError.Field() + " must be at most " + fieldError.Param()
			case "len":
				message = fieldError.Field() + " must be exactly " + fieldError.Param() + " characters"
			case "url":
				message = fieldError.Field() + " must be a valid URL"
			case "oneof":
				message = fieldError.Field() + " must be one of: " + fieldError.Param()
			case "currency":
				message = fieldError.Field() + " must be an upper case ISO 4217 code"
			case "dive":
				message = fieldError.Field() + " contains invalid items"
			default:
				message = fieldError.Field() + " is invalid"
			}

			errors = append(errors, ValidationError{
				Field:   fieldError.Field(),
				Message: message,
			})
		}
	}

	return errors
}

type Validator interface {
	Validate() error
}

func CreateValidationErrorResponse(err error) ValidationErrorResponse {
	return ValidationErrorResponse{
		Code:    400,
		Message: "Validation failed",
		Errors:  FormatValidationErrors(err),
	}
}
