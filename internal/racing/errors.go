package racing

// APIError describes a failure talking to the racing data API
type APIError struct {
	Code    string // Error code (e.g. "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return "racing: " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return "racing: " + e.Code + ": " + e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
)

// NewAPIError creates a racing API error
func NewAPIError(code, message string, err error) *APIError {
	return &APIError{Code: code, Message: message, Err: err}
}
