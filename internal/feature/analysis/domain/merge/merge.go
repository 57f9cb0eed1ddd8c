// Package merge applies single-field edits to analysis records.
package merge

import (
	"fmt"
	"strings"

	"company_analyzer/internal/feature/analysis/domain"
	"company_analyzer/internal/feature/analysis/domain/entity"
)

// ApplyUpdate returns a copy of r with the leaf addressed by t set to the
// trimmed value. r is never modified. Only the touched section is rebuilt;
// every other section map, comparison row and the sources slice is shared
// with r.
//
// On error the returned record is r itself.
func ApplyUpdate(r entity.AnalysisRecord, t entity.Target, value string) (entity.AnalysisRecord, error) {
	if err := validateTarget(t); err != nil {
		return r, err
	}
	v := strings.TrimSpace(value)
	if v == "" {
		return r, fmt.Errorf("%w: empty value for %s", domain.ErrInvalidValue, t)
	}

	out := r
	switch t.Section {
	case entity.SectionCompanyInfo:
		out.CompanyInfo = withField(r.CompanyInfo, t.Field, v)
	case entity.SectionProductsServices:
		out.ProductsServices = withField(r.ProductsServices, t.Field, v)
	case entity.SectionMarketComparison:
		out.MarketComparison = withCell(r.MarketComparison, t.Dimension, t.Column, v)
	}
	return out, nil
}

func validateTarget(t entity.Target) error {
	var ok bool
	switch t.Section {
	case entity.SectionCompanyInfo:
		ok = entity.IsCompanyInfoKey(t.Field)
	case entity.SectionProductsServices:
		ok = entity.IsProductsServicesKey(t.Field)
	case entity.SectionMarketComparison:
		ok = entity.IsComparisonDimension(t.Dimension) && entity.IsComparisonColumn(t.Column)
	default:
		return fmt.Errorf("%w: section %q", domain.ErrUnknownTarget, t.Section)
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownTarget, t)
	}
	return nil
}

func withField(src entity.Fields, key, v string) entity.Fields {
	dst := make(entity.Fields, len(src)+1)
	for k, val := range src {
		dst[k] = val
	}
	dst[key] = v
	return dst
}

func withCell(src entity.MarketComparison, dim, col, v string) entity.MarketComparison {
	dst := make(entity.MarketComparison, len(src)+1)
	for d, row := range src {
		dst[d] = row
	}
	row := make(entity.ComparisonRow, len(src[dim])+1)
	for c, val := range src[dim] {
		row[c] = val
	}
	row[col] = v
	dst[dim] = row
	return dst
}
