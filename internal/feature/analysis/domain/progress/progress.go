// Package progress measures how much of an analysis record has been filled in.
package progress

import "company_analyzer/internal/feature/analysis/domain/entity"

// Summary is the completion state of a record.
type Summary struct {
	Total      int     `json:"total"`
	Incomplete int     `json:"incomplete"`
	Completed  int     `json:"completed"`
	Ratio      float64 `json:"ratio"`
}

// CountIncomplete returns the number of schema leaves of r that still hold a
// placeholder. A leaf missing from r counts as incomplete.
func CountIncomplete(r entity.AnalysisRecord) int {
	n := 0
	for _, k := range entity.CompanyInfoKeys() {
		n += incomplete(r.CompanyInfo, k)
	}
	for _, k := range entity.ProductsServicesKeys() {
		n += incomplete(r.ProductsServices, k)
	}
	cols := entity.ComparisonColumns()
	for _, d := range entity.ComparisonDimensions() {
		row := r.MarketComparison[d]
		for _, c := range cols {
			n += incomplete(row, c)
		}
	}
	return n
}

// Ratio returns (totalCells - incomplete) / totalCells clamped to [0, 1].
// A non-positive totalCells yields 0.
func Ratio(r entity.AnalysisRecord, totalCells int) float64 {
	if totalCells <= 0 {
		return 0
	}
	ratio := float64(totalCells-CountIncomplete(r)) / float64(totalCells)
	switch {
	case ratio < 0:
		return 0
	case ratio > 1:
		return 1
	}
	return ratio
}

// CompletionRatio returns Ratio against the number of cells in the schema.
func CompletionRatio(r entity.AnalysisRecord) float64 {
	return Ratio(r, entity.TotalCells())
}

// Summarize returns the completion state of r.
func Summarize(r entity.AnalysisRecord) Summary {
	total := entity.TotalCells()
	inc := CountIncomplete(r)
	return Summary{
		Total:      total,
		Incomplete: inc,
		Completed:  total - inc,
		Ratio:      Ratio(r, total),
	}
}

func incomplete[M ~map[string]string](m M, key string) int {
	v, ok := m[key]
	if !ok || entity.IsPlaceholder(v) {
		return 1
	}
	return 0
}
