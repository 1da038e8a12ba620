package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/smart-sdlc/internal/models"
	"github.com/feichai0017/smart-sdlc/pkg/logger"
)

const defaultMaxWorkers = 4

var errNullPage = errors.New("page has no content stream")

func init() {
	// pdfcpu otherwise creates a config directory under the user's home
	api.DisableConfigDir()
}

// pageSource is the subset of a parsed PDF the processor reads from.
type pageSource interface {
	NumPage() int
	PageText(num int) (string, error)
}

type readerPages struct {
	r *pdf.Reader
}

func (p readerPages) NumPage() int {
	return p.r.NumPage()
}

func (p readerPages) PageText(num int) (string, error) {
	page := p.r.Page(num)
	if page.V.IsNull() {
		return "", errNullPage
	}
	return page.GetPlainText(nil)
}

type Processor struct {
	logger     logger.Logger
	maxWorkers int
}

func NewProcessor(log logger.Logger) *Processor {
	return &Processor{
		logger:     log.Named("pdf"),
		maxWorkers: defaultMaxWorkers,
	}
}

func (p *Processor) CanProcess(fileType models.FileType) bool {
	return strings.EqualFold(string(fileType), string(models.PDF))
}

// Extract parses data as a PDF and concatenates the text of every readable page.
// Pages that fail are skipped; an unreadable document or one without any text
// is reported as an extraction failure. A document the parser rejects is
// rewritten once by pdfcpu, which rebuilds broken cross-reference tables.
func (p *Processor) Extract(ctx context.Context, data []byte) models.ExtractedText {
	src, err := open(data)
	if err != nil {
		repaired, rerr := repair(data)
		if rerr != nil {
			p.logger.Warn("Failed to open PDF",
				logger.Int("size", len(data)),
				logger.Error(err),
				logger.String("repairError", rerr.Error()),
			)
			return models.ExtractionFailed(err.Error())
		}
		if src, err = open(repaired); err != nil {
			p.logger.Warn("Failed to open repaired PDF", logger.Int("size", len(data)), logger.Error(err))
			return models.ExtractionFailed(err.Error())
		}
		p.logger.Info("Opened PDF after repair", logger.Int("size", len(data)), logger.Int("repairedSize", len(repaired)))
	}
	return p.extractPages(ctx, src)
}

// repair runs the document through pdfcpu in relaxed validation mode.
func repair(data []byte) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("pdf repair panicked: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	var buf bytes.Buffer
	if err := api.Optimize(bytes.NewReader(data), &buf, conf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func open(data []byte) (src pageSource, err error) {
	// the parser panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			src, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, reader.Size())
	if err != nil {
		return nil, err
	}
	return readerPages{r: pdfReader}, nil
}

func (p *Processor) extractPages(ctx context.Context, src pageSource) models.ExtractedText {
	numPages := src.NumPage()
	texts := make([]string, numPages)
	ok := make([]bool, numPages)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxWorkers)

	for i := 0; i < numPages; i++ {
		idx := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := pageText(src, idx+1)
			if err != nil {
				p.logger.Debug("Skipping unreadable page",
					logger.Int("page", idx+1),
					logger.Error(err),
				)
				return nil
			}
			texts[idx] = text
			ok[idx] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return models.ExtractionFailedf("pdf extraction interrupted: %v", err)
	}

	kept := make([]string, 0, numPages)
	for i, text := range texts {
		if ok[i] {
			kept = append(kept, text)
		}
	}

	result := strings.TrimSpace(strings.Join(kept, "\n"))
	if result == "" {
		return models.ExtractionFailedf("no text found in %d page(s)", numPages)
	}

	p.logger.Debug("Extracted PDF text",
		logger.Int("pages", numPages),
		logger.Int("readablePages", len(kept)),
		logger.Int("chars", len(result)),
	)
	return models.ExtractedOK(result)
}

// pageText isolates a single page so a panic in the parser only loses that page.
func pageText(src pageSource, num int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page %d: %v", num, r)
		}
	}()
	return src.PageText(num)
}

// Close is a no-op; the processor holds no resources.
func (p *Processor) Close() error {
	return nil
}
