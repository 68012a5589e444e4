package apperrors

import (
	"net/http"
)

/*
Фабрики ошибок загрузки файлов. Каждый вызов возвращает новый экземпляр,
поэтому Details одного запроса не попадают в другой.
*/

const uploadDomain = "upload"

// ErrInvalidFileType - declared MIME type is not in the category allow-list.
func ErrInvalidFileType(field, mimeType string) *AppError {
	return New(CodeInvalidFileType, uploadDomain, "Invalid file type", http.StatusBadRequest).
		WithDetails(map[string]string{"field": field, "mimetype": mimeType})
}

// ErrFileTooLarge - a single file exceeded the category size limit.
func ErrFileTooLarge(field string, limit int64) *AppError {
	return New(CodeFileTooLarge, uploadDomain, "File too large", http.StatusBadRequest).
		WithDetails(map[string]interface{}{"field": field, "limit": limit})
}

// ErrUnexpectedFile - a file arrived under an undeclared field or past maxCount.
func ErrUnexpectedFile(field string) *AppError {
	return New(CodeUnexpectedFile, uploadDomain, "Unexpected field", http.StatusBadRequest).
		WithDetails(map[string]string{"field": field})
}

// ErrMalformedMultipart - the body could not be read as multipart/form-data.
func ErrMalformedMultipart(err error) *AppError {
	return Wrap(err, CodeMalformedMultipart, uploadDomain, "Malformed multipart body", http.StatusBadRequest)
}

// ErrProcessingFailed - decode, encode or storage failure on an accepted file.
func ErrProcessingFailed(err error, field, originalName string) *AppError {
	return Wrap(err, CodeProcessingFailed, uploadDomain, "Failed to process uploaded file", http.StatusInternalServerError).
		WithDetails(map[string]string{"field": field, "originalname": originalName})
}

// ErrRegistryDisabled - upload registry lookups without a configured database.
var ErrRegistryDisabled = New(
	CodeRegistryDisabled,
	uploadDomain,
	"Upload registry is not configured",
	http.StatusNotFound,
)

// ErrUnauthorized - missing or rejected bearer token.
func ErrUnauthorized(message string) *AppError {
	return New(CodeUnauthorized, "auth", message, http.StatusUnauthorized)
}
