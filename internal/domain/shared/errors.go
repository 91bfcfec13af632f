package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithDetails creates a domain error carrying structured detail
// (which field failed, which computed base overflowed) for precise user messaging
func NewDomainErrorWithDetails(code, message string, details map[string]any) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// WithDetail returns a copy of the error with an extra detail field attached
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Code: e.Code, Message: e.Message, Details: details}
}

// Common domain errors
var (
	ErrNotFound             = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists        = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput         = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict  = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidTransition    = NewDomainError("INVALID_TRANSITION", "Status transition not allowed")
	ErrConfigurationMissing = NewDomainError("CONFIGURATION_MISSING", "Required configuration is missing")
	ErrRateUnavailable      = NewDomainError("RATE_UNAVAILABLE", "No exchange rate available for currency pair")
	ErrAmountOutOfRange     = NewDomainError("AMOUNT_OUT_OF_RANGE", "Computed amount exceeds the configured ceiling")
	ErrRefundExceedsApproved = NewDomainError("REFUND_EXCEEDS_APPROVED", "Refund entries would exceed the approved amount")
)

// IsCode reports whether err is a DomainError with the given code
func IsCode(err error, code string) bool {
	de, ok := err.(*DomainError)
	return ok && de.Code == code
}
