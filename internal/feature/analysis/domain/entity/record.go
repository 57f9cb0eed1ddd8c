// Package entity defines the domain models for the analysis feature.
package entity

// TimestampLayout is the layout of AnalysisRecord.AnalysisTimestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// Fields maps the closed key set of a flat section to its values.
type Fields map[string]string

// ComparisonRow maps the four comparison columns to their values.
type ComparisonRow map[string]string

// MarketComparison maps each comparison dimension to its row.
type MarketComparison map[string]ComparisonRow

// AnalysisRecord is a competitive-intelligence profile of one company.
//
// Records are treated as immutable values: nothing in this module writes into the
// maps of a record it did not just build, so successive versions may share
// untouched sections.
type AnalysisRecord struct {
	CompanyName       string           `json:"company_name"`
	CompanyInfo       Fields           `json:"company_info"`
	ProductsServices  Fields           `json:"products_services"`
	MarketComparison  MarketComparison `json:"market_comparison"`
	ResearchSources   []string         `json:"research_sources"`
	AnalysisTimestamp string           `json:"analysis_timestamp"`
}

// Value returns the leaf addressed by t and whether it exists.
func (r AnalysisRecord) Value(t Target) (string, bool) {
	switch t.Section {
	case SectionCompanyInfo:
		v, ok := r.CompanyInfo[t.Field]
		return v, ok
	case SectionProductsServices:
		v, ok := r.ProductsServices[t.Field]
		return v, ok
	case SectionMarketComparison:
		row, ok := r.MarketComparison[t.Dimension]
		if !ok {
			return "", false
		}
		v, ok := row[t.Column]
		return v, ok
	}
	return "", false
}
