// Package response defines the JSON envelope returned by the HTTP API.
// Error responses carry short, non-leaking messages; the underlying causes
// stay in the server logs.
package response

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var EmptyRequestBodyResponse = Response{
	Status:  StatusError,
	Error:   "Empty Request Body",
	Message: "Request body is empty. Please provide necessary data.",
}

var BadRequestResponse = Response{
	Status:  StatusError,
	Error:   "Bad Request",
	Message: "The request couldn't be processed. Please check your input.",
}

var URLNotFoundResponse = Response{
	Status:  StatusError,
	Error:   "URL not found",
	Message: "No URL matches the requested identifier.",
}

var UnauthorizedResponse = Response{
	Status:  StatusError,
	Error:   "Unauthorized",
	Message: "You are not allowed to perform this operation.",
}

var InvalidURLResponse = Response{
	Status:  StatusError,
	Error:   "Invalid URL format",
	Message: "The provided value couldn't be parsed as a URL.",
}

var ClassificationErrorResponse = Response{
	Status:  StatusError,
	Error:   "Failed to check URL safety",
	Message: "The safety classifier couldn't produce a verdict. Please try again later.",
}

var ServerErrorResponse = Response{
	Status:  StatusError,
	Error:   "An error occurred",
	Message: "An internal server error occurred. Please try again later.",
}

type Response struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Details []any  `json:"details,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func SuccessResponse(msg string, data ...any) Response {
	resp := Response{
		Status:  StatusSuccess,
		Message: msg,
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	return resp
}

type validationError struct {
	Field string `json:"field"`
	Value any    `json:"value"`
	Issue string `json:"issue"`
}

func getValidationErrors(err error) []validationError {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil
	}

	out := make([]validationError, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		out = append(out, validationError{
			Field: fieldErr.Field(),
			Value: fieldErr.Value(),
			Issue: issueForTag(fieldErr.Tag()),
		})
	}

	return out
}

func issueForTag(tag string) string {
	switch tag {
	case "required":
		return "This field is required."
	case "url":
		return "Invalid url."
	case "max":
		return "Value is too long."
	default:
		return "Invalid value."
	}
}

// ValidationErrorResponse renders validator errors as per-field details.
func ValidationErrorResponse(err error) Response {
	resp := Response{
		Status:  StatusError,
		Error:   "Validation Error",
		Message: "The request payload failed validation.",
	}

	for _, validationErr := range getValidationErrors(err) {
		resp.Details = append(resp.Details, validationErr)
	}

	return resp
}
