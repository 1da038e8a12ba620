package requirements

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/smart-sdlc/internal/agent"
	"github.com/feichai0017/smart-sdlc/internal/agent/llm"
	"github.com/feichai0017/smart-sdlc/internal/models"
	"github.com/feichai0017/smart-sdlc/pkg/logger"
)

type stubExtractor struct {
	result models.ExtractedText
	panics bool
}

func (s stubExtractor) Extract(context.Context, models.Document) models.ExtractedText {
	if s.panics {
		panic("extractor blew up")
	}
	return s.result
}

type stubRemote struct {
	reqs   []models.Requirement
	err    error
	panics bool
	calls  atomic.Int32

	mu  sync.Mutex
	got string
}

func (s *stubRemote) Classify(_ context.Context, text string) ([]models.Requirement, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.got = text
	s.mu.Unlock()
	if s.panics {
		panic("remote blew up")
	}
	return s.reqs, s.err
}

func remoteResult(n int) []models.Requirement {
	out := make([]models.Requirement, n)
	for i := range out {
		out[i] = models.Requirement{Sentence: "Remote requirement", Phase: models.PhaseDesign}
	}
	return out
}

const longDoc = "The system shall let every user sign in with single sign-on.\n" +
	"Deploy the service to the staging cluster nightly.\n" +
	"Write unit tests for the billing module."

func TestRun_ExtractionFailureUsesHeuristicOnEmptyText(t *testing.T) {
	remote := &stubRemote{reqs: remoteResult(6)}
	p := NewPipeline(stubExtractor{result: models.ExtractionFailed("broken")}, remote, logger.NewTestLogger())

	reqs, outcome := p.RunWithOutcome(context.Background(), models.NewDocument(nil, "x.pdf"))

	require.NotNil(t, reqs)
	assert.Empty(t, reqs)
	assert.Equal(t, models.OutcomeHeuristic, outcome)
	assert.Zero(t, remote.calls.Load())

	out, err := json.Marshal(reqs)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestRun_LengthThreshold(t *testing.T) {
	short := strings.Repeat("a", MinRemoteChars-1)
	exact := strings.Repeat("a", MinRemoteChars)
	multibyte := strings.Repeat("é", MinRemoteChars-1)

	tests := []struct {
		name       string
		text       string
		wantRemote bool
	}{
		{"below_threshold", short, false},
		{"at_threshold", exact, true},
		{"runes_not_bytes", multibyte, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &stubRemote{reqs: remoteResult(6)}
			p := NewPipeline(stubExtractor{result: models.ExtractedOK(tt.text)}, remote, logger.NewTestLogger())

			_, outcome := p.RunWithOutcome(context.Background(), models.NewDocument(nil, "txt"))

			if tt.wantRemote {
				assert.Equal(t, int32(1), remote.calls.Load())
				assert.Equal(t, models.OutcomeRemote, outcome)
			} else {
				assert.Zero(t, remote.calls.Load())
				assert.Equal(t, models.OutcomeHeuristic, outcome)
			}
		})
	}
}

func TestRun_ShortTextClassifiedLocally(t *testing.T) {
	text := "Write unit tests for the login form"
	remote := &stubRemote{}
	p := NewPipeline(stubExtractor{result: models.ExtractedOK(text)}, remote, logger.NewTestLogger())

	reqs := p.Run(context.Background(), models.NewDocument(nil, "txt"))

	assert.Equal(t, []models.Requirement{{Sentence: text, Phase: models.PhaseTesting}}, reqs)
}

func TestRun_RemoteSuccessReturnedVerbatim(t *testing.T) {
	want := remoteResult(7)
	remote := &stubRemote{reqs: want}
	p := NewPipeline(stubExtractor{result: models.ExtractedOK(longDoc)}, remote, logger.NewTestLogger())

	reqs, outcome := p.RunWithOutcome(context.Background(), models.NewDocument(nil, "txt"))

	assert.Equal(t, want, reqs)
	assert.Equal(t, models.OutcomeRemote, outcome)
	assert.Equal(t, longDoc, remote.got)
}

func TestRun_RemoteFailureFallsBackToHeuristic(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind string
	}{
		{"transport", &llm.TransportError{StatusCode: 500, Err: errors.New("boom")}, "transport"},
		{"content", &llm.ContentError{Reason: "too few requirements in response"}, "content"},
		{"other", errors.New("surprise"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := logger.NewTestLogger()
			p := NewPipeline(stubExtractor{result: models.ExtractedOK(longDoc)}, &stubRemote{err: tt.err}, log)

			reqs, outcome := p.RunWithOutcome(context.Background(), models.NewDocument(nil, "txt"))

			assert.Equal(t, models.OutcomeHeuristic, outcome)
			assert.Equal(t, []models.Requirement{
				{Sentence: "The system shall let every user sign in with single sign-on.", Phase: models.PhaseRequirements},
				{Sentence: "Deploy the service to the staging cluster nightly.", Phase: models.PhaseDeployment},
				{Sentence: "Write unit tests for the billing module.", Phase: models.PhaseTesting},
			}, reqs)
			assert.True(t, log.HasMessage("WARN", "Remote classification failed, using heuristic classifier"))
			assert.Equal(t, tt.kind, failureKind(tt.err))
		})
	}
}

func TestRun_PanicsReturnDefault(t *testing.T) {
	tests := []struct {
		name string
		p    func(log logger.Logger) *Pipeline
	}{
		{
			name: "extractor",
			p: func(log logger.Logger) *Pipeline {
				return NewPipeline(stubExtractor{panics: true}, &stubRemote{}, log)
			},
		},
		{
			name: "remote",
			p: func(log logger.Logger) *Pipeline {
				return NewPipeline(stubExtractor{result: models.ExtractedOK(longDoc)}, &stubRemote{panics: true}, log)
			},
		},
		{
			name: "heuristic",
			p: func(log logger.Logger) *Pipeline {
				return NewPipeline(stubExtractor{result: models.ExtractedOK("short")}, &stubRemote{}, log,
					WithHeuristic(func(string) []models.Requirement { panic("heuristic blew up") }))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := logger.NewTestLogger()

			reqs, outcome := tt.p(log).RunWithOutcome(context.Background(), models.NewDocument(nil, "txt"))

			assert.Equal(t, []models.Requirement{
				{Sentence: "Project planning and scope definition", Phase: models.PhasePlanning},
			}, reqs)
			assert.Equal(t, models.OutcomeDefault, outcome)
			assert.True(t, log.HasMessage("ERROR", "Classification pipeline panicked, returning default result"))
		})
	}
}

func TestRun_NilRemoteClassifiesLocally(t *testing.T) {
	p := NewPipeline(stubExtractor{result: models.ExtractedOK(longDoc)}, nil, logger.NewTestLogger())

	reqs, outcome := p.RunWithOutcome(context.Background(), models.NewDocument(nil, "txt"))

	assert.Len(t, reqs, 3)
	assert.Equal(t, models.OutcomeHeuristic, outcome)
}

func TestRun_NilHeuristicResultBecomesEmptyList(t *testing.T) {
	p := NewPipeline(stubExtractor{result: models.ExtractedOK("x")}, nil, logger.NewTestLogger(),
		WithHeuristic(func(string) []models.Requirement { return nil }))

	reqs := p.Run(context.Background(), models.NewDocument(nil, "txt"))

	require.NotNil(t, reqs)
	assert.Empty(t, reqs)
}

func TestRun_WithRealExtractors(t *testing.T) {
	log := logger.NewTestLogger()
	remote := &stubRemote{reqs: remoteResult(6)}
	p := NewPipeline(agent.NewProcessorFactory(log), remote, log)

	t.Run("corrupt_pdf", func(t *testing.T) {
		reqs := p.Run(context.Background(), models.NewDocument([]byte("not really a pdf"), "brief.PDF"))

		require.NotNil(t, reqs)
		assert.Empty(t, reqs)
	})

	t.Run("text_starting_with_error_is_content", func(t *testing.T) {
		text := "Error handling must be consistent across every module"
		reqs := p.Run(context.Background(), models.NewDocument([]byte(text), "notes.txt"))

		assert.Equal(t, []models.Requirement{{Sentence: text, Phase: models.PhaseImplementation}}, reqs)
	})

	t.Run("long_text_goes_remote", func(t *testing.T) {
		reqs := p.Run(context.Background(), models.NewDocument([]byte(longDoc), "notes.md"))

		assert.Equal(t, remoteResult(6), reqs)
	})
}

func TestRun_Concurrent(t *testing.T) {
	p := NewPipeline(stubExtractor{result: models.ExtractedOK(longDoc)}, &stubRemote{err: &llm.ContentError{Reason: "x"}}, logger.NewTestLogger())

	var wg sync.WaitGroup
	results := make([][]models.Requirement, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = p.Run(context.Background(), models.NewDocument(nil, "txt"))
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
		assert.Len(t, r, 3)
	}
}
