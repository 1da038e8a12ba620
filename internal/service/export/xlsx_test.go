package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/feichai0017/smart-sdlc/internal/models"
)

func TestRequirementsXLSX(t *testing.T) {
	reqs := []models.Requirement{
		{Sentence: "Write unit tests for the billing module", Phase: models.PhaseTesting},
		{Sentence: "Deploy to the staging cluster nightly", Phase: models.PhaseDeployment},
		{Sentence: "Run a threat model review", Phase: "Security"},
		{Sentence: "Add integration tests for checkout", Phase: models.PhaseTesting},
	}

	data, err := RequirementsXLSX(reqs)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Requirements")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"#", "Sentence", "Phase"}, rows[0])
	assert.Equal(t, []string{"1", "Write unit tests for the billing module", "Testing"}, rows[1])
	assert.Equal(t, []string{"3", "Run a threat model review", "Security"}, rows[3])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Phase", "Requirements"},
		{"Planning", "0"},
		{"Requirements", "0"},
		{"Design", "0"},
		{"Implementation", "0"},
		{"Testing", "2"},
		{"Deployment", "1"},
		{"Maintenance", "0"},
		{"Security", "1"},
	}, summary)
}

func TestRequirementsXLSX_Empty(t *testing.T) {
	data, err := RequirementsXLSX(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Requirements")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "requirements.xlsx", Filename(""))
	assert.Equal(t, "brief.pdf.requirements.xlsx", Filename("brief.pdf"))
}
