package entity

import (
	"strings"
	"time"
)

// Keys used by the legacy analysis service for the market comparison.
var (
	legacyDimensions = map[string]string{
		"技术能力":      "Technical Capability",
		"产品定价":      "Pricing",
		"客户群体":      "Customer Base",
		"市场份额":      "Market Share",
		"售后服务":      "After-Sales Service",
		"渠道策略":      "Channel Strategy",
		"数据安全 / 合规": "Data Security / Compliance",
	}
	legacyColumns = map[string]string{
		"行业常规标准":         ColumnIndustryStandard,
		"target_company": ColumnTargetCompany,
		"competitor_a":   ColumnCompetitorA,
		"competitor_b":   ColumnCompetitorB,
	}
)

// Conform coerces a decoded record into the closed schema. Known leaves keep
// their trimmed value, blank or missing leaves become placeholders and unknown
// keys are dropped. Legacy market comparison keys are mapped to canonical ones.
// An empty company name falls back to companyName and an unparsable timestamp to now.
func Conform(raw AnalysisRecord, companyName string, now time.Time) AnalysisRecord {
	out := NewScaffold(companyName, now)
	if n := strings.TrimSpace(raw.CompanyName); n != "" {
		out.CompanyName = n
	}
	if _, err := time.Parse(TimestampLayout, raw.AnalysisTimestamp); err == nil {
		out.AnalysisTimestamp = raw.AnalysisTimestamp
	}

	fillFields(out.CompanyInfo, raw.CompanyInfo)
	fillFields(out.ProductsServices, raw.ProductsServices)

	for dim, row := range raw.MarketComparison {
		if alias, ok := legacyDimensions[dim]; ok {
			dim = alias
		}
		dst, ok := out.MarketComparison[dim]
		if !ok {
			continue
		}
		for col, v := range row {
			if alias, ok := legacyColumns[col]; ok {
				col = alias
			}
			if _, ok := dst[col]; !ok {
				continue
			}
			if v = strings.TrimSpace(v); v != "" {
				dst[col] = v
			}
		}
	}

	for _, s := range raw.ResearchSources {
		if s = strings.TrimSpace(s); s != "" {
			out.ResearchSources = append(out.ResearchSources, s)
		}
	}
	return out
}

func fillFields(dst, src Fields) {
	for k, v := range src {
		if _, ok := dst[k]; !ok {
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			dst[k] = v
		}
	}
}
