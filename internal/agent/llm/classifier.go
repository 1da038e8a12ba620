package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/feichai0017/smart-sdlc/internal/models"
	"github.com/feichai0017/smart-sdlc/pkg/logger"
)

const (
	ClassifyMaxTokens = 4000
	// minRemoteRequirements is the count a reply must exceed to be trusted.
	minRemoteRequirements = 5
)

// requirementsSchema describes a usable reply: more than minRemoteRequirements
// {sentence, phase} objects. Phase values are not restricted.
var requirementsSchema = jsonschema.MustCompileString("requirements.json", fmt.Sprintf(`{
	"type": "array",
	"minItems": %d,
	"items": {
		"type": "object",
		"required": ["sentence", "phase"],
		"properties": {
			"sentence": {"type": "string"},
			"phase": {"type": "string"}
		}
	}
}`, minRemoteRequirements+1))

// Classifier delegates requirement extraction and phase assignment to a
// language model.
type Classifier struct {
	completer Completer
	maxTokens int
	logger    logger.Logger
}

func NewClassifier(completer Completer, log logger.Logger) *Classifier {
	return &Classifier{
		completer: completer,
		maxTokens: ClassifyMaxTokens,
		logger:    log.Named("remote-classifier"),
	}
}

// Classify returns the model's requirements, capped at MaxRequirements.
// Failures to reach the model are *TransportError; unusable replies are
// *ContentError. Phases are passed through as returned.
func (c *Classifier) Classify(ctx context.Context, text string) ([]models.Requirement, error) {
	content, err := c.completer.Complete(ctx, BuildClassificationPrompt(text), c.maxTokens)
	if err != nil {
		return nil, err
	}

	reqs, err := ParseRequirements(content)
	if err != nil {
		return nil, err
	}

	if unknown := nonCanonical(reqs); len(unknown) > 0 {
		logger.FromContext(ctx, c.logger).Warn("Remote classifier returned non-canonical phases",
			logger.Strings("phases", unknown),
		)
	}
	return reqs, nil
}

// ParseRequirements pulls the JSON array out of a model reply, tolerating any
// commentary before the first '[' and after the last ']'.
func ParseRequirements(content string) ([]models.Requirement, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end <= start {
		return nil, &ContentError{Reason: "no JSON array in response"}
	}

	body := []byte(content[start : end+1])

	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &ContentError{Reason: "response is not valid JSON", Err: err}
	}
	items, ok := doc.([]interface{})
	if !ok {
		return nil, &ContentError{Reason: "response is not a JSON list"}
	}
	if len(items) <= minRemoteRequirements {
		return nil, &ContentError{Reason: "too few requirements in response"}
	}
	if err := requirementsSchema.Validate(doc); err != nil {
		return nil, &ContentError{Reason: "malformed requirement entry", Err: err}
	}

	var reqs []models.Requirement
	if err := json.Unmarshal(body, &reqs); err != nil {
		return nil, &ContentError{Reason: "malformed requirement entry", Err: err}
	}
	return models.Truncate(reqs), nil
}

func nonCanonical(reqs []models.Requirement) []string {
	var out []string
	seen := make(map[models.Phase]bool)
	for _, r := range reqs {
		if !r.Phase.Valid() && !seen[r.Phase] {
			seen[r.Phase] = true
			out = append(out, string(r.Phase))
		}
	}
	return out
}
