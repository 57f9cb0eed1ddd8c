package research

import (
	"fmt"
	"strings"

	"company_analyzer/internal/feature/analysis/domain/entity"
)

type promptKind string

const (
	promptBasic     promptKind = "basic_info"
	promptFinancial promptKind = "financial_info"
	promptProducts  promptKind = "product_service_info"
	promptMarket    promptKind = "market_comparison"
)

const basicPrompt = `Give me the following information about "%s":
- Website
- Headquarters
- Job site locations
- Market region
- Industry
- Sub-industry
- LinkedIn page
- Parent company (if any)
- Group structure notes
- Description

Respond only in the following JSON format:
{
"company_name": "",
"website": "",
"headquarters": "",
"job_sites": "",
"market_region": "",
"industry": "",
"sub_industry": "",
"linkedin_page": "",
"parent_company": "",
"group_structure": "",
"description": ""
}`

const financialPrompt = `Give me the following information about "%s":
- Company Size
- Company Stage
- Funding Stage
- Listing Status
- Revenue

Respond only in the following JSON format:
{
"company_size": "",
"company_stage": "",
"funding_stage": "",
"listing_status": "",
"revenue": ""
}`

const productsPrompt = `Give me the following information about "%s":
- Key Products / Services
- Product / Service Differentiation
- Target Customers (B2B / B2C / Govt)
- Technology Focus (if applicable)
- Main Revenue Source
- GTM Strategy

Respond only in the following JSON format:
{
"key_products_services": "",
"differentiation": "",
"target_customers": "",
"technology_focus": "",
"main_revenue_source": "",
"gtm_strategy": ""
}`

const marketPrompt = `Compare "%s" with the industry standard and its two leading competitors
on each of these dimensions: %s.

Respond only in JSON. Use each dimension as a key whose value is an object with the keys
"industry_standard", "target_company", "competitor_a" and "competitor_b".
Name the competitor in competitor_a and competitor_b values.`

func buildPrompt(kind promptKind, companyName string) string {
	switch kind {
	case promptBasic:
		return fmt.Sprintf(basicPrompt, companyName)
	case promptFinancial:
		return fmt.Sprintf(financialPrompt, companyName)
	case promptProducts:
		return fmt.Sprintf(productsPrompt, companyName)
	case promptMarket:
		return fmt.Sprintf(marketPrompt, companyName, strings.Join(entity.ComparisonDimensions(), "; "))
	}
	return ""
}

// Answer keys mapped onto record fields, in fill order.
var (
	basicFields = []fieldMapping{
		{"website", entity.SectionCompanyInfo, "Company Website"},
		{"headquarters", entity.SectionCompanyInfo, "Location (HQ)"},
		{"job_sites", entity.SectionCompanyInfo, "Location (Job Site)"},
		{"market_region", entity.SectionCompanyInfo, "Market Region"},
		{"industry", entity.SectionCompanyInfo, "Industry"},
		{"sub_industry", entity.SectionCompanyInfo, "Sub-Industry"},
		{"parent_company", entity.SectionCompanyInfo, "Company Group / Parent (if any)"},
		{"linkedin_page", entity.SectionCompanyInfo, "LinkedIn Company Page"},
		{"group_structure", entity.SectionCompanyInfo, "Group Structure Notes"},
		{"description", entity.SectionProductsServices, "Product / Service Differentiation"},
	}
	financialFields = []fieldMapping{
		{"company_size", entity.SectionCompanyInfo, "Company Size (Global Headcount)"},
		{"company_stage", entity.SectionCompanyInfo, "Company Stage"},
		{"funding_stage", entity.SectionCompanyInfo, "Funding Stage (if startup)"},
		{"listing_status", entity.SectionCompanyInfo, "Listed / Private / PE-Owned"},
	}
	productFields = []fieldMapping{
		{"key_products_services", entity.SectionProductsServices, "Key Products / Services"},
		{"differentiation", entity.SectionProductsServices, "Product / Service Differentiation"},
		{"target_customers", entity.SectionProductsServices, "Target Customers"},
		{"technology_focus", entity.SectionProductsServices, "Technology Focus"},
		{"main_revenue_source", entity.SectionProductsServices, "Main Revenue Source"},
		{"gtm_strategy", entity.SectionProductsServices, "GTM Strategy"},
	}
	marketColumns = map[string]string{
		"industry_standard": entity.ColumnIndustryStandard,
		"target_company":    entity.ColumnTargetCompany,
		"competitor_a":      entity.ColumnCompetitorA,
		"competitor_b":      entity.ColumnCompetitorB,
	}
)

type fieldMapping struct {
	key     string
	section entity.Section
	field   string
}
