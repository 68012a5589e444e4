package upload

import (
	"bufio"

	"campusnest_backend/pkg/apperrors"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen is how many bytes are peeked when a part declares no usable type.
const sniffLen = 3072

// genericType is what browsers declare when they don't know better.
const genericType = "application/octet-stream"

// CheckType is the intake filter: it accepts or rejects a file on its
// declared content type alone, before the body is read.
func CheckType(opts Options, field, declared string) error {
	contentType := NormalizeType(declared)
	if !opts.Allows(contentType) {
		return apperrors.ErrInvalidFileType(field, contentType)
	}
	return nil
}

// resolveType returns the declared type of a part, falling back to sniffing
// the first bytes when the client sent nothing useful. Peeking does not
// consume from br.
func resolveType(declared string, br *bufio.Reader) string {
	contentType := NormalizeType(declared)
	if contentType != "" && contentType != genericType {
		return contentType
	}
	head, _ := br.Peek(sniffLen)
	if len(head) == 0 {
		return contentType
	}
	return NormalizeType(mimetype.Detect(head).String())
}
