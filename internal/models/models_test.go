package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTypeOf(t *testing.T) {
	tests := []struct {
		filename string
		want     FileType
	}{
		{"report.pdf", PDF},
		{"Report.PDF", PDF},
		{"archive.tar.gz", "gz"},
		{"notes.txt", Text},
		{"txt", Text},
		{"README", "readme"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, FileTypeOf(tt.filename))
		})
	}
}

func TestDocument_IsPDF(t *testing.T) {
	assert.True(t, NewDocument(nil, "a.PDF").IsPDF())
	assert.True(t, Document{FileType: "PdF"}.IsPDF())
	assert.False(t, NewDocument(nil, "a.pdf.txt").IsPDF())
}

func TestExtractedText(t *testing.T) {
	ok := ExtractedOK("Error budgets are a requirement")
	assert.True(t, ok.OK())
	assert.Nil(t, ok.Err)

	failed := ExtractionFailedf("no text found in %d page(s)", 3)
	assert.False(t, failed.OK())
	assert.Empty(t, failed.Text)
	assert.Equal(t, "Error: no text found in 3 page(s)", failed.Err.Error())

	literal := ExtractionFailed("100% broken")
	assert.Equal(t, "Error: 100% broken", literal.Err.Message)
}

func TestPhases(t *testing.T) {
	got := Phases()
	assert.Equal(t, []Phase{"Planning", "Requirements", "Design", "Implementation", "Testing", "Deployment", "Maintenance"}, got)

	got[0] = "Mutated"
	assert.Equal(t, PhasePlanning, Phases()[0])

	for _, p := range Phases() {
		assert.True(t, p.Valid())
	}
	assert.False(t, Phase("planning").Valid())
	assert.False(t, Phase("").Valid())
}

func TestRequirement_JSON(t *testing.T) {
	out, err := json.Marshal(DefaultRequirements())

	require.NoError(t, err)
	assert.JSONEq(t, `[{"sentence":"Project planning and scope definition","phase":"Planning"}]`, string(out))
}

func TestTruncate(t *testing.T) {
	reqs := make([]Requirement, 60)
	for i := range reqs {
		reqs[i] = Requirement{Sentence: strings.Repeat("x", i+1), Phase: PhaseDesign}
	}

	got := Truncate(reqs)

	require.Len(t, got, MaxRequirements)
	assert.Equal(t, reqs[:MaxRequirements], got)
	assert.Len(t, Truncate(reqs[:3]), 3)
	assert.Nil(t, Truncate(nil))
}
