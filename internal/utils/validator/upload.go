// Package validator checks uploads at the HTTP boundary, before any
// extraction runs.
package validator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

const (
	CodeFileTooLarge = "FILE_TOO_LARGE"
	CodeUnreadable   = "UNREADABLE_FILE"

	// WarnPDFSignature flags a .pdf upload whose content does not look like a PDF.
	// Such files are still accepted; extraction reports the failure.
	WarnPDFSignature = "PDF_SIGNATURE_MISSING"
)

// ValidationError rejects an upload.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// FileInfo describes an accepted upload.
type FileInfo struct {
	Filename  string   `json:"filename"`
	Size      int64    `json:"size"`
	MimeType  string   `json:"mimeType"`
	Extension string   `json:"extension"`
	Hash      string   `json:"hash"`
	Warnings  []string `json:"warnings,omitempty"`
}

type UploadValidator struct {
	maxFileSize int64
}

func NewUploadValidator(maxFileSize int64) *UploadValidator {
	return &UploadValidator{maxFileSize: maxFileSize}
}

// Validate reads the whole upload, enforcing the size limit on both the
// declared and the actual size.
func (v *UploadValidator) Validate(fh *multipart.FileHeader) ([]byte, *FileInfo, error) {
	if fh.Size > v.maxFileSize {
		return nil, nil, v.tooLarge(fh.Size)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, nil, &ValidationError{Code: CodeUnreadable, Message: fmt.Sprintf("failed to open file: %v", err), Field: "file"}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, v.maxFileSize+1))
	if err != nil {
		return nil, nil, &ValidationError{Code: CodeUnreadable, Message: fmt.Sprintf("failed to read file: %v", err), Field: "file"}
	}
	if int64(len(data)) > v.maxFileSize {
		return nil, nil, v.tooLarge(int64(len(data)))
	}

	return data, Inspect(fh.Filename, data), nil
}

func (v *UploadValidator) tooLarge(size int64) error {
	return &ValidationError{
		Code:    CodeFileTooLarge,
		Message: fmt.Sprintf("file size %d exceeds maximum limit of %d bytes", size, v.maxFileSize),
		Field:   "size",
	}
}

// Inspect sniffs the content type and hashes data.
func Inspect(filename string, data []byte) *FileInfo {
	sum := sha256.Sum256(data)
	info := &FileInfo{
		Filename:  filename,
		Size:      int64(len(data)),
		MimeType:  http.DetectContentType(data),
		Extension: strings.ToLower(filepath.Ext(filename)),
		Hash:      hex.EncodeToString(sum[:]),
	}
	if info.Extension == ".pdf" && info.MimeType != "application/pdf" {
		info.Warnings = append(info.Warnings, WarnPDFSignature)
	}
	return info
}
