package constants

// Remote table error codes
// These constants define specific failure scenarios of the points table backends

// Connection-related errors
const (
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeInvalidLocation      = "INVALID_LOCATION"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeNetworkError         = "NETWORK_ERROR"
	ErrCodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	ErrCodeUnsupportedBackend   = "UNSUPPORTED_BACKEND"
)

// Schema-related errors
const (
	ErrCodeHeaderMissing   = "HEADER_MISSING"
	ErrCodeColumnNotFound  = "COLUMN_NOT_FOUND"
	ErrCodeHeaderRepairErr = "HEADER_REPAIR_FAILED"
)

// Row-related errors
const (
	ErrCodeRowNotFound  = "ROW_NOT_FOUND"
	ErrCodeAppendFailed = "APPEND_FAILED"
	ErrCodeUpdateFailed = "UPDATE_FAILED"
	ErrCodeReadFailed   = "READ_FAILED"
)

// Data validation errors
const (
	ErrCodeInvalidCoordinate = "INVALID_COORDINATE"
	ErrCodeInvalidDataFormat = "INVALID_DATA_FORMAT"
)

// Error Messages
// Human-readable messages corresponding to error codes

var TableErrorMessages = map[string]string{
	// Connection
	ErrCodeInvalidCredentials:   "The credentials for the points table are invalid or have been revoked",
	ErrCodeInvalidLocation:      "The points table location is invalid or you don't have access to it",
	ErrCodeRateLimited:          "Rate limit exceeded. Please try again later",
	ErrCodeNetworkError:         "Unable to reach the points table. Please check your internet connection",
	ErrCodeAuthenticationFailed: "Authentication with the points table failed",
	ErrCodeUnsupportedBackend:   "The configured table backend is not supported",

	// Schema
	ErrCodeHeaderMissing:   "The points table has no usable header row",
	ErrCodeColumnNotFound:  "A required column is missing from the points table",
	ErrCodeHeaderRepairErr: "The header of the points table could not be repaired",

	// Rows
	ErrCodeRowNotFound:  "No point with this identifier exists",
	ErrCodeAppendFailed: "The point could not be saved. Please try again",
	ErrCodeUpdateFailed: "The point could not be updated. Please try again",
	ErrCodeReadFailed:   "The points table could not be read",

	// Data validation
	ErrCodeInvalidCoordinate: "The coordinate is not a valid decimal number",
	ErrCodeInvalidDataFormat: "The data format is invalid",
}

// GetErrorMessage returns the human-readable message for an error code
func GetErrorMessage(code string) string {
	if msg, exists := TableErrorMessages[code]; exists {
		return msg
	}
	return "An unknown error occurred"
}
