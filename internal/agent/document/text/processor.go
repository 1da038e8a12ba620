package text

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/feichai0017/smart-sdlc/internal/models"
	"github.com/feichai0017/smart-sdlc/pkg/logger"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// Processor decodes any non-PDF upload as text.
type Processor struct {
	logger logger.Logger
}

func NewProcessor(log logger.Logger) *Processor {
	return &Processor{logger: log.Named("text")}
}

// CanProcess accepts everything: unknown types are read as text.
func (p *Processor) CanProcess(models.FileType) bool {
	return true
}

// Extract decodes data as UTF-8, or UTF-16 when a byte order mark says so.
// Invalid UTF-8 sequences are dropped rather than failing the whole document.
func (p *Processor) Extract(_ context.Context, data []byte) models.ExtractedText {
	if !hasUTF16BOM(data) {
		return models.ExtractedOK(dropInvalidUTF8(bytes.TrimPrefix(data, utf8BOM)))
	}

	decoder := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		p.logger.Warn("Failed to decode text", logger.Int("size", len(data)), logger.Error(err))
		return models.ExtractionFailed(err.Error())
	}
	return models.ExtractedOK(string(out))
}

func hasUTF16BOM(data []byte) bool {
	return len(data) >= 2 && ((data[0] == 0xff && data[1] == 0xfe) || (data[0] == 0xfe && data[1] == 0xff))
}

// dropInvalidUTF8 keeps every well-formed rune, including an encoded U+FFFD,
// and skips bytes that do not start a valid sequence.
func dropInvalidUTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	var b strings.Builder
	b.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r != utf8.RuneError || size > 1 {
			b.Write(data[:size])
		}
		data = data[size:]
	}
	return b.String()
}

func (p *Processor) Close() error {
	return nil
}
