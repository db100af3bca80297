package utils

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse represents the structure of the validation error response.
type ErrorResponse struct {
	Errors []CError `json:"errors"`
}

// CError represents a single validation error.
type CError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

// Validator wraps the validator instance from the go-playground/validator package.
type Validator struct {
	validator *validator.Validate
}

// NewValidator returns a new instance of the Validator struct.
func NewValidator() *Validator {
	v := validator.New()

	// report fields by their json name so errors line up with request bodies
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validator: v}
}

// Validate validates the input struct and returns a JSON-friendly error map.
func (v *Validator) Validate(str interface{}) *ErrorResponse {
	err := v.validator.Struct(str)
	if err == nil {
		return nil
	}
	response := ErrorResponse{Errors: make([]CError, 0)}
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, err := range validationErrors {
			field := err.Field()
			message := getErrorMessage(field, err.Tag(), err.Param())
			response.Errors = append(response.Errors, CError{Field: field, Msg: message})
		}
	}
	return &response
}

// getErrorMessage returns the error message based on the field and tag.
func getErrorMessage(field, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, param)
	case "max":
		if field == "tags" {
			return fmt.Sprintf("Maximum %s tags allowed per bookmark", param)
		}
		return fmt.Sprintf("%s must be at most %s characters long", field, param)
	case "url", "http_url":
		return "Invalid URL format. Please provide a valid HTTP or HTTPS URL."
	case "oneof":
		return fmt.Sprintf("%s must be one of the following values: %s", field, param)
	default:
		return fmt.Sprintf("something wrong on %s; %s", field, tag)
	}
}
