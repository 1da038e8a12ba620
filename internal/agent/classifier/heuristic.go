// Package classifier assigns SDLC phases to requirement statements locally,
// without calling out to a language model.
package classifier

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/feichai0017/smart-sdlc/internal/models"
)

const minLineLength = 20

var bulletPrefix = regexp.MustCompile(`^[-*•][\s\v\p{Z}\x85\x1c-\x1f]+`)

type phaseKeywords struct {
	phase    models.Phase
	keywords []string
}

// Checked in order; the first phase with a matching keyword wins.
var keywordTable = []phaseKeywords{
	{models.PhasePlanning, []string{"plan", "scope", "timeline", "budget", "team", "6 months", "project"}},
	{models.PhaseRequirements, []string{"requirement", "feature", "user", "registration", "authentication", "product",
		"catalog", "shopping", "checkout", "order", "email", "dashboard"}},
	{models.PhaseDesign, []string{"design", "architecture", "microservice", "api", "database", "postgresql", "ui", "ux",
		"figma", "encryption", "redis", "openapi"}},
	{models.PhaseImplementation, []string{"implement", "develop", "backend", "frontend", "node", "express", "react",
		"typescript", "payment", "sendgrid", "jwt", "inventory"}},
	{models.PhaseTesting, []string{"test", "unit", "integration", "qa", "security", "jest", "concurrent"}},
	{models.PhaseDeployment, []string{"deploy", "aws", "github", "ci/cd", "auto-scaling", "cloudwatch", "ec2", "rds"}},
	{models.PhaseMaintenance, []string{"maintain", "support", "patch", "update", "performance", "monitoring", "security audit"}},
}

// ClassifyHeuristically splits text into lines and keeps those long enough to
// be requirements, tagging each with the first phase whose keywords it
// mentions. At most MaxPerPhase lines are kept per phase and MaxRequirements
// overall, in source order.
func ClassifyHeuristically(text string) []models.Requirement {
	requirements := make([]models.Requirement, 0)
	counter := make(map[models.Phase]int)

	for _, line := range strings.Split(text, "\n") {
		clean := strings.TrimSpace(line)
		if !isCandidate(clean) {
			continue
		}
		clean = bulletPrefix.ReplaceAllString(clean, "")

		phase := PhaseOf(clean)
		seen := counter[phase]
		counter[phase] = seen + 1
		if seen < models.MaxPerPhase {
			requirements = append(requirements, models.Requirement{Sentence: clean, Phase: phase})
		}
	}

	return models.Truncate(requirements)
}

// isCandidate drops blank lines, short lines, headers and dash-led lines.
func isCandidate(line string) bool {
	if line == "" || utf8.RuneCountInString(line) < minLineLength {
		return false
	}
	return !strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "-")
}

// PhaseOf returns the phase a single statement belongs to, defaulting to
// Implementation when no keyword matches.
func PhaseOf(sentence string) models.Phase {
	lower := strings.ToLower(sentence)
	for _, entry := range keywordTable {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.phase
			}
		}
	}
	return models.PhaseImplementation
}
