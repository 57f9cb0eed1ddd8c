package entity

import (
	"strings"
	"time"
)

const (
	// Placeholder is stored in every leaf that has not been filled yet.
	Placeholder = "待补充 🔘"
	// PlaceholderMarker identifies a placeholder, also when embedded in partially edited text.
	PlaceholderMarker = "🔘"
)

// IsPlaceholder reports whether v still carries the placeholder marker.
func IsPlaceholder(v string) bool {
	return strings.Contains(v, PlaceholderMarker)
}

// NewScaffold builds a record for companyName whose leaves are all placeholders.
func NewScaffold(companyName string, now time.Time) AnalysisRecord {
	return AnalysisRecord{
		CompanyName:       companyName,
		CompanyInfo:       placeholderFields(companyInfoKeys),
		ProductsServices:  placeholderFields(productsServicesKeys),
		MarketComparison:  placeholderComparison(),
		ResearchSources:   []string{},
		AnalysisTimestamp: now.Format(TimestampLayout),
	}
}

func placeholderFields(keys []string) Fields {
	f := make(Fields, len(keys))
	for _, k := range keys {
		f[k] = Placeholder
	}
	return f
}

func placeholderComparison() MarketComparison {
	mc := make(MarketComparison, len(comparisonDimensions))
	for _, d := range comparisonDimensions {
		row := make(ComparisonRow, len(comparisonColumns))
		for _, c := range comparisonColumns {
			row[c] = Placeholder
		}
		mc[d] = row
	}
	return mc
}
