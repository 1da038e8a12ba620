package agent

import (
	"context"
	"time"

	"github.com/feichai0017/smart-sdlc/internal/agent/document"
	"github.com/feichai0017/smart-sdlc/internal/agent/document/pdf"
	"github.com/feichai0017/smart-sdlc/internal/agent/document/text"
	"github.com/feichai0017/smart-sdlc/internal/models"
	"github.com/feichai0017/smart-sdlc/pkg/logger"
)

// ProcessorFactory picks a document processor by file type. PDF uploads are
// parsed page by page; everything else is decoded as text.
type ProcessorFactory struct {
	processors []document.Processor
	fallback   document.Processor
	logger     logger.Logger
}

func NewProcessorFactory(log logger.Logger) *ProcessorFactory {
	return &ProcessorFactory{
		processors: []document.Processor{pdf.NewProcessor(log)},
		fallback:   text.NewProcessor(log),
		logger:     log.Named("extract"),
	}
}

func (f *ProcessorFactory) GetProcessor(fileType models.FileType) document.Processor {
	for _, p := range f.processors {
		if p.CanProcess(fileType) {
			return p
		}
	}
	return f.fallback
}

// Extract runs the processor registered for doc's file type.
func (f *ProcessorFactory) Extract(ctx context.Context, doc models.Document) models.ExtractedText {
	start := time.Now()
	result := f.GetProcessor(doc.FileType).Extract(ctx, doc.Data)

	fields := []logger.Field{
		logger.String("fileType", string(doc.FileType)),
		logger.Int("size", len(doc.Data)),
		logger.Duration("elapsed", time.Since(start)),
	}
	if !result.OK() {
		f.logger.Warn("Text extraction failed", append(fields, logger.String("reason", result.Err.Message))...)
		return result
	}
	f.logger.Info("Text extracted", append(fields, logger.Int("chars", len(result.Text)))...)
	return result
}
