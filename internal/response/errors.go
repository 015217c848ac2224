package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	ErrInvalidID         ErrCode = "INVALID_ID"
	ErrInvalidPayload    ErrCode = "INVALID_PAYLOAD"
	ErrNotFound          ErrCode = "NOT_FOUND"
	ErrAttemptTerminal   ErrCode = "ATTEMPT_TERMINAL"
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"
	ErrInternal          ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidID:
		return "Exam and student identifiers must be numeric."
	case ErrInvalidPayload:
		return "Request payload is invalid."
	case ErrNotFound:
		return "Resource not found."
	case ErrAttemptTerminal:
		return "This attempt has already been submitted."
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
