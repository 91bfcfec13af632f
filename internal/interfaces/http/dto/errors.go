package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	// ErrCodeDuplicateEvent is used when a gateway reference collides with
	// a different quote's ledger entry
	ErrCodeDuplicateEvent = "ERR_DUPLICATE_EVENT"
)

// Business rule error codes
const (
	// ErrCodeInvalidTransition is used when a lifecycle move is not allowed
	ErrCodeInvalidTransition = "ERR_INVALID_TRANSITION"
	// ErrCodeConfigurationMissing is used when pricing configuration is absent
	ErrCodeConfigurationMissing = "ERR_CONFIGURATION_MISSING"
	// ErrCodeRateUnavailable is used when no exchange rate exists for a pair
	ErrCodeRateUnavailable = "ERR_RATE_UNAVAILABLE"
	// ErrCodeAmountOutOfRange is used when a computed amount breaks sanity bounds
	ErrCodeAmountOutOfRange = "ERR_AMOUNT_OUT_OF_RANGE"
	// ErrCodeRefundExceedsApproved is used when a refund would overrun its approval
	ErrCodeRefundExceedsApproved = "ERR_REFUND_EXCEEDS_APPROVED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeDuplicateEvent:      http.StatusConflict,

	ErrCodeInvalidTransition:     http.StatusUnprocessableEntity,
	ErrCodeConfigurationMissing:  http.StatusUnprocessableEntity,
	ErrCodeRateUnavailable:       http.StatusUnprocessableEntity,
	ErrCodeAmountOutOfRange:      http.StatusUnprocessableEntity,
	ErrCodeRefundExceedsApproved: http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to the API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":               ErrCodeNotFound,
	"ALREADY_EXISTS":          ErrCodeAlreadyExists,
	"INVALID_INPUT":           ErrCodeInvalidInput,
	"CONCURRENCY_CONFLICT":    ErrCodeConcurrencyConflict,
	"DUPLICATE_EVENT":         ErrCodeDuplicateEvent,
	"INVALID_TRANSITION":      ErrCodeInvalidTransition,
	"CONFIGURATION_MISSING":   ErrCodeConfigurationMissing,
	"RATE_UNAVAILABLE":        ErrCodeRateUnavailable,
	"AMOUNT_OUT_OF_RANGE":     ErrCodeAmountOutOfRange,
	"REFUND_EXCEEDS_APPROVED": ErrCodeRefundExceedsApproved,
}

// NormalizeErrorCode converts a domain error code to the API format
// If the code is already in the API format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
