package document

import (
	"context"

	"github.com/feichai0017/smart-sdlc/internal/models"
)

// Processor turns raw document bytes into text.
type Processor interface {
	// CanProcess reports whether the processor handles the given file type.
	CanProcess(fileType models.FileType) bool

	// Extract never returns an error: failures are carried by the result.
	Extract(ctx context.Context, data []byte) models.ExtractedText
}
