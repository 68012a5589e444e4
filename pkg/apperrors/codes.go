package apperrors

// ErrorCode - тип для кодов ошибок
type ErrorCode string

// Общие коды ошибок
const (
	// Системные и неизвестные ошибки
	CodeInternalError ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError ErrorCode = "DATABASE_ERROR"

	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeUnauthorized     ErrorCode = "UNAUTHORIZED"
)

// Upload pipeline codes. The LIMIT_* names are the ones HTTP clients already
// switch on, keep them stable.
const (
	CodeFileTooLarge       ErrorCode = "LIMIT_FILE_SIZE"
	CodeUnexpectedFile     ErrorCode = "LIMIT_UNEXPECTED_FILE"
	CodeInvalidFileType    ErrorCode = "INVALID_FILE_TYPE"
	CodeProcessingFailed   ErrorCode = "PROCESSING_FAILED"
	CodeMalformedMultipart ErrorCode = "MALFORMED_MULTIPART"
	CodeRegistryDisabled   ErrorCode = "REGISTRY_DISABLED"
)
