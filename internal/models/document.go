package models

import (
	"fmt"
	"strings"
)

// FileType is the lower-cased file extension of an upload, without the dot.
type FileType string

const (
	PDF  FileType = "pdf"
	Text FileType = "txt"
)

// Document is an uploaded file as received at the boundary.
type Document struct {
	Data     []byte
	FileType FileType
}

// NewDocument builds a Document from raw bytes and a filename or bare extension.
func NewDocument(data []byte, filename string) Document {
	return Document{Data: data, FileType: FileTypeOf(filename)}
}

// FileTypeOf returns the part after the last dot, lower-cased. A name without
// a dot is treated as the extension itself.
func FileTypeOf(filename string) FileType {
	ext := filename
	if i := strings.LastIndex(filename, "."); i >= 0 {
		ext = filename[i+1:]
	}
	return FileType(strings.ToLower(strings.TrimSpace(ext)))
}

// IsPDF reports whether the document must be parsed as a paginated PDF.
func (d Document) IsPDF() bool {
	return strings.EqualFold(string(d.FileType), string(PDF))
}

// ExtractionError describes why no text could be pulled from a document.
type ExtractionError struct {
	Message string
}

func (e *ExtractionError) Error() string {
	return e.Message
}

// ExtractedText is either usable text or an extraction failure, never both.
type ExtractedText struct {
	Text string
	Err  *ExtractionError
}

// ExtractedOK wraps successfully extracted text.
func ExtractedOK(text string) ExtractedText {
	return ExtractedText{Text: text}
}

// ExtractionFailed wraps a failure; the diagnostic always starts with "Error".
func ExtractionFailed(msg string) ExtractedText {
	return ExtractedText{Err: &ExtractionError{Message: "Error: " + msg}}
}

// ExtractionFailedf is ExtractionFailed with a formatted message.
func ExtractionFailedf(format string, args ...interface{}) ExtractedText {
	return ExtractionFailed(fmt.Sprintf(format, args...))
}

// OK reports whether extraction produced text.
func (t ExtractedText) OK() bool {
	return t.Err == nil
}
