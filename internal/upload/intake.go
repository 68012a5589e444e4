package upload

import (
	"bufio"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"campusnest_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// maxFieldValueSize caps a single text part of the form.
const maxFieldValueSize = 1 << 20

type intakeMode int

const (
	modeSingle intakeMode = iota
	modeArray
	modeFields
	modeNone
)

// Field declares a file field accepted by Fields.
type Field struct {
	Name     string
	MaxCount int
}

type formRules struct {
	mode   intakeMode
	fields map[string]int
}

func newRules(mode intakeMode, fields ...Field) formRules {
	rules := formRules{mode: mode, fields: make(map[string]int, len(fields))}
	for _, f := range fields {
		maxCount := f.MaxCount
		if maxCount <= 0 {
			maxCount = 1
		}
		rules.fields[f.Name] = maxCount
	}
	return rules
}

// IncomingFile is one buffered file part. It lives for the duration of a
// request only.
type IncomingFile struct {
	FieldName    string
	OriginalName string
	MimeType     string
	Size         int64
	Buffer       []byte
}

type intakeResult struct {
	files  []IncomingFile
	values url.Values
}

// intake streams the multipart body part by part. Each file part goes
// through the type filter before a single byte of it is buffered, and is
// then read through a limit of MaxFileSize+1.
func (u *Uploader) intake(c *gin.Context, rules formRules) (*intakeResult, error) {
	result := &intakeResult{values: url.Values{}}

	reader, err := c.Request.MultipartReader()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			// MultipartReader marks the request as consumed even when it
			// refuses it; undo that so url-encoded forms still parse.
			c.Request.MultipartForm = nil
			return result, nil
		}
		return nil, apperrors.ErrMalformedMultipart(err)
	}

	counts := make(map[string]int)
	for {
		part, err := reader.NextPart()
		// A truncated body yields a wrapped io.EOF; only the bare one ends the form.
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.ErrMalformedMultipart(err)
		}

		field := part.FormName()
		if part.FileName() == "" {
			value, err := readField(part)
			part.Close()
			if err != nil {
				return nil, err
			}
			result.values.Add(field, value)
			continue
		}

		file, err := u.intakeFile(part, rules, counts)
		part.Close()
		if err != nil {
			return nil, err
		}
		result.files = append(result.files, *file)
	}

	exposeForm(c.Request, result.values)
	return result, nil
}

func (u *Uploader) intakeFile(part *multipart.Part, rules formRules, counts map[string]int) (*IncomingFile, error) {
	opts := u.category.Options
	field := part.FormName()

	maxCount, declared := rules.fields[field]
	if !declared {
		return nil, apperrors.ErrUnexpectedFile(field)
	}
	counts[field]++
	if counts[field] > maxCount {
		return nil, apperrors.ErrUnexpectedFile(field)
	}

	br := bufio.NewReaderSize(part, sniffLen)
	contentType := resolveType(part.Header.Get("Content-Type"), br)
	if err := CheckType(opts, field, contentType); err != nil {
		u.observer.FileRejected(u.category.Name)
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(br, opts.MaxFileSize+1))
	if err != nil {
		return nil, apperrors.ErrMalformedMultipart(err)
	}
	if int64(len(data)) > opts.MaxFileSize {
		u.observer.FileRejected(u.category.Name)
		return nil, apperrors.ErrFileTooLarge(field, opts.MaxFileSize)
	}

	return &IncomingFile{
		FieldName:    field,
		OriginalName: part.FileName(),
		MimeType:     contentType,
		Size:         int64(len(data)),
		Buffer:       data,
	}, nil
}

func readField(part *multipart.Part) (string, error) {
	data, err := io.ReadAll(io.LimitReader(part, maxFieldValueSize+1))
	if err != nil {
		return "", apperrors.ErrMalformedMultipart(err)
	}
	if len(data) > maxFieldValueSize {
		return "", apperrors.NewBadRequestError("form field value too large: " + part.FormName())
	}
	return string(data), nil
}

// exposeForm makes the text parts readable through the usual request form
// accessors (c.PostForm and friends) after the body has been consumed.
func exposeForm(r *http.Request, values url.Values) {
	form := r.URL.Query()
	for k, v := range values {
		form[k] = append(form[k], v...)
	}
	r.PostForm = values
	r.Form = form
	r.MultipartForm = &multipart.Form{
		Value: values,
		File:  map[string][]*multipart.FileHeader{},
	}
}
