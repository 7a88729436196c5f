// Package http provides the JSON API over the ledger.
//
// This file implements a small builder for JSON responses so every handler
// writes the same envelope, content type and error shape.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"hiace/internal/core"
)

// Error codes carried in the error envelope.
const (
	CodeInvalidRequest   = "invalid_request"
	CodeInvalidParameter = "invalid_parameter"
	CodeNotFound         = "not_found"
	CodeRateLimited      = "rate_limited"
	CodeServerError      = "server_error"
	CodeUnavailable      = "unavailable"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(ErrorBody{Code: code, Message: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, CodeInvalidRequest, message)
}

// InvalidParameterError creates a 400 response naming a bad query or body value.
func InvalidParameterError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, CodeInvalidParameter, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(what string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, CodeNotFound, what+" not found")
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, CodeServerError, message)
}

// ValidationError maps a domain validation failure to a 400 response.
func ValidationError(err error) *JSONResponseBuilder {
	code := CodeInvalidRequest
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidDate,
		core.ErrInvalidDayType,
		core.ErrInvalidFrequency,
		core.ErrInvalidStatus,
		core.ErrInvalidSupplierType,
		core.ErrEmptyField,
	} {
		if errors.Is(err, target) {
			code = CodeInvalidParameter
			break
		}
	}
	return ErrorResponse(http.StatusBadRequest, code, err.Error())
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Body(v).Write(w)
}
