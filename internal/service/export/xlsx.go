// Package export renders classification results as downloadable workbooks.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/feichai0017/smart-sdlc/internal/models"
)

const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	requirementsSheet = "Requirements"
	summarySheet      = "Summary"
)

// RequirementsXLSX writes one row per requirement, in result order, and a
// summary sheet with the count per phase. Canonical phases are always listed;
// any other phase follows in order of first appearance.
func RequirementsXLSX(reqs []models.Requirement) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", requirementsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(requirementsSheet, "A1", &[]interface{}{"#", "Sentence", "Phase"}); err != nil {
		return nil, err
	}
	for i, r := range reqs {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(requirementsSheet, cell, &[]interface{}{i + 1, r.Sentence, string(r.Phase)}); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(requirementsSheet, "A", "A", 6)
	_ = f.SetColWidth(requirementsSheet, "B", "B", 90)
	_ = f.SetColWidth(requirementsSheet, "C", "C", 18)

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("add summary sheet: %w", err)
	}
	if err := f.SetSheetRow(summarySheet, "A1", &[]interface{}{"Phase", "Requirements"}); err != nil {
		return nil, err
	}
	for i, pc := range countByPhase(reqs) {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(summarySheet, cell, &[]interface{}{string(pc.phase), pc.count}); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 18)

	index, _ := f.GetSheetIndex(requirementsSheet)
	f.SetActiveSheet(index)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

type phaseCount struct {
	phase models.Phase
	count int
}

func countByPhase(reqs []models.Requirement) []phaseCount {
	counts := make(map[models.Phase]int)
	var extra []models.Phase
	for _, r := range reqs {
		if !r.Phase.Valid() && counts[r.Phase] == 0 {
			extra = append(extra, r.Phase)
		}
		counts[r.Phase]++
	}

	out := make([]phaseCount, 0, len(models.Phases())+len(extra))
	for _, p := range append(models.Phases(), extra...) {
		out = append(out, phaseCount{phase: p, count: counts[p]})
	}
	return out
}

// Filename derives the download name from the uploaded file name.
func Filename(upload string) string {
	if upload == "" {
		return "requirements.xlsx"
	}
	return upload + ".requirements.xlsx"
}
