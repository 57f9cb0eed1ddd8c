package entity

// Closed key sets of an analysis record. Order is the presentation order.
var (
	companyInfoKeys = []string{
		"Company Group / Parent (if any)",
		"Company Website",
		"LinkedIn Company Page",
		"Location (HQ)",
		"Location (Job Site)",
		"Market Region",
		"Industry",
		"Sub-Industry",
		"Company Stage",
		"Company Size (Global Headcount)",
		"Funding Stage (if startup)",
		"Listed / Private / PE-Owned",
		"Group Structure Notes",
	}

	productsServicesKeys = []string{
		"Key Products / Services",
		"Product / Service Differentiation",
		"Target Customers",
		"Technology Focus",
		"Main Revenue Source",
		"GTM Strategy",
	}

	comparisonDimensions = []string{
		"Technical Capability",
		"Pricing",
		"Customer Base",
		"Market Share",
		"After-Sales Service",
		"Channel Strategy",
		"Data Security / Compliance",
	}

	comparisonColumns = []string{
		ColumnIndustryStandard,
		ColumnTargetCompany,
		ColumnCompetitorA,
		ColumnCompetitorB,
	}
)

// Comparison column names.
const (
	ColumnIndustryStandard = "Industry Standard"
	ColumnTargetCompany    = "Target Company"
	ColumnCompetitorA      = "Competitor A"
	ColumnCompetitorB      = "Competitor B"
)

var (
	companyInfoSet         = toSet(companyInfoKeys)
	productsServicesSet    = toSet(productsServicesKeys)
	comparisonDimensionSet = toSet(comparisonDimensions)
	comparisonColumnSet    = toSet(comparisonColumns)
)

// CompanyInfoKeys returns the ordered company info keys.
func CompanyInfoKeys() []string { return clone(companyInfoKeys) }

// ProductsServicesKeys returns the ordered products & services keys.
func ProductsServicesKeys() []string { return clone(productsServicesKeys) }

// ComparisonDimensions returns the ordered market comparison dimensions.
func ComparisonDimensions() []string { return clone(comparisonDimensions) }

// ComparisonColumns returns the ordered market comparison columns.
func ComparisonColumns() []string { return clone(comparisonColumns) }

// TotalCells is the number of leaf values in a record.
func TotalCells() int {
	return len(companyInfoKeys) + len(productsServicesKeys) + len(comparisonDimensions)*len(comparisonColumns)
}

func IsCompanyInfoKey(k string) bool      { return companyInfoSet[k] }
func IsProductsServicesKey(k string) bool { return productsServicesSet[k] }
func IsComparisonDimension(k string) bool { return comparisonDimensionSet[k] }
func IsComparisonColumn(k string) bool    { return comparisonColumnSet[k] }

func toSet(keys []string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
