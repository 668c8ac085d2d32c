package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: Review module errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Database errors (10100-10199)
	DatabaseError       ErrorCode = 10100
	RecordNotFound      ErrorCode = 10101
	RecordAlreadyExists ErrorCode = 10102

	// Cache errors (10200-10299)
	CacheError ErrorCode = 10200

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidValue       ErrorCode = 10302
	RequiredFieldEmpty ErrorCode = 10303

	// ========== Review Module Errors (11000-11999) ==========

	ReviewNotFound     ErrorCode = 11000
	ReviewCreateFailed ErrorCode = 11001
	ReviewUpdateFailed ErrorCode = 11002
	ReviewDeleteFailed ErrorCode = 11003
	ReviewListFailed   ErrorCode = 11004
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	// Database
	DatabaseError:       "Database operation failed",
	RecordNotFound:      "Record not found in database",
	RecordAlreadyExists: "Record already exists",

	// Cache
	CacheError: "Cache operation failed",

	// Validation
	ValidationFailed:   "Validation failed",
	InvalidValue:       "Invalid value",
	RequiredFieldEmpty: "Required field is empty",

	// Review
	ReviewNotFound:     "Review not found",
	ReviewCreateFailed: "Failed to create review",
	ReviewUpdateFailed: "Failed to update review",
	ReviewDeleteFailed: "Failed to delete review",
	ReviewListFailed:   "Failed to list reviews",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == NotFound, c == ReviewNotFound:
		return 404
	case c == ServiceUnavailable:
		return 503
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c == InvalidParams:
		return 400
	default:
		return 500
	}
}
