// Package requirements runs the extraction and classification pipeline that
// turns an uploaded document into phase-tagged requirements.
package requirements

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/feichai0017/smart-sdlc/internal/agent/classifier"
	"github.com/feichai0017/smart-sdlc/internal/agent/llm"
	"github.com/feichai0017/smart-sdlc/internal/models"
	"github.com/feichai0017/smart-sdlc/pkg/logger"
)

// MinRemoteChars is the extracted length below which the remote classifier
// is not consulted.
const MinRemoteChars = 100

type TextExtractor interface {
	Extract(ctx context.Context, doc models.Document) models.ExtractedText
}

type RemoteClassifier interface {
	Classify(ctx context.Context, text string) ([]models.Requirement, error)
}

// HeuristicFunc classifies text locally. It must not fail.
type HeuristicFunc func(text string) []models.Requirement

// Pipeline sequences extraction, remote classification and the heuristic
// fallback. It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	extractor TextExtractor
	remote    RemoteClassifier
	heuristic HeuristicFunc
	logger    logger.Logger
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithHeuristic replaces the local classifier.
func WithHeuristic(fn HeuristicFunc) Option {
	return func(p *Pipeline) {
		p.heuristic = fn
	}
}

// NewPipeline wires a pipeline. remote may be nil, in which case every
// document is classified locally.
func NewPipeline(extractor TextExtractor, remote RemoteClassifier, log logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor: extractor,
		remote:    remote,
		heuristic: classifier.ClassifyHeuristically,
		logger:    log.Named("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run classifies doc. It never fails: the worst case is the default result.
func (p *Pipeline) Run(ctx context.Context, doc models.Document) []models.Requirement {
	reqs, _ := p.RunWithOutcome(ctx, doc)
	return reqs
}

// RunWithOutcome is Run that also reports which path produced the result.
func (p *Pipeline) RunWithOutcome(ctx context.Context, doc models.Document) (reqs []models.Requirement, outcome models.Outcome) {
	start := time.Now()
	log := logger.FromContext(ctx, p.logger).With(logger.String("fileType", string(doc.FileType)))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Classification pipeline panicked, returning default result",
				logger.Any("panic", r),
				logger.Stack(),
			)
			reqs, outcome = models.DefaultRequirements(), models.OutcomeDefault
		}
		log.Info("Classification finished",
			logger.String("outcome", string(outcome)),
			logger.Int("requirements", len(reqs)),
			logger.Duration("elapsed", time.Since(start)),
		)
	}()

	extracted := p.extractor.Extract(ctx, doc)
	if !extracted.OK() {
		log.Warn("Extraction failed, using heuristic classifier on empty text",
			logger.String("reason", extracted.Err.Message),
		)
		return p.classifyLocally(""), models.OutcomeHeuristic
	}

	chars := utf8.RuneCountInString(extracted.Text)
	if chars < MinRemoteChars || p.remote == nil {
		log.Info("Skipping remote classifier", logger.Int("chars", chars))
		return p.classifyLocally(extracted.Text), models.OutcomeHeuristic
	}

	remoteReqs, err := p.remote.Classify(ctx, extracted.Text)
	if err != nil {
		log.Warn("Remote classification failed, using heuristic classifier",
			logger.String("kind", failureKind(err)),
			logger.Error(err),
		)
		return p.classifyLocally(extracted.Text), models.OutcomeHeuristic
	}
	return remoteReqs, models.OutcomeRemote
}

func (p *Pipeline) classifyLocally(text string) []models.Requirement {
	if reqs := p.heuristic(text); reqs != nil {
		return reqs
	}
	return []models.Requirement{}
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, llm.ErrTransport):
		return "transport"
	case errors.Is(err, llm.ErrContent):
		return "content"
	default:
		return "unknown"
	}
}
