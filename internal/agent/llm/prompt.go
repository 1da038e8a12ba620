package llm

import (
	"fmt"
	"strings"

	"github.com/feichai0017/smart-sdlc/internal/models"
)

// Prompt prefixes for the assistant endpoints.
const (
	GenerateCodePrefix  = "Generate code:\n"
	FixBugsPrefix       = "Fix bugs:\n"
	GenerateTestsPrefix = "Generate tests:\n"
	SummarizePrefix     = "Summarize:\n"
	ChatbotPrefix       = "SDLC response:\n"
)

// BuildClassificationPrompt asks the model to return every meaningful line of
// text as a {sentence, phase} JSON array.
func BuildClassificationPrompt(text string) string {
	names := make([]string, 0, len(models.Phases()))
	for _, p := range models.Phases() {
		names = append(names, string(p))
	}
	last := len(names) - 1
	phaseList := strings.Join(names[:last], ", ") + ", or " + names[last]

	return fmt.Sprintf(`Extract EVERY meaningful line/sentence from this document as a requirement.
Classify each into: %s.

Return JSON array only:
[{"sentence": "text", "phase": "%s"}]

TEXT:
%s`, phaseList, models.PhasePlanning, text)
}
