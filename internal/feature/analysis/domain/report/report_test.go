package report_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"company_analyzer/internal/feature/analysis/domain/entity"
	"company_analyzer/internal/feature/analysis/domain/merge"
	"company_analyzer/internal/feature/analysis/domain/report"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func TestSerialize_RoundTripScenario(t *testing.T) {
	t.Parallel()

	r, err := merge.ApplyUpdate(entity.NewScaffold("Acme", fixedNow), entity.FieldTarget(entity.SectionCompanyInfo, "Industry"), "Software")
	require.NoError(t, err)

	out := report.Serialize(r)

	assert.Contains(t, out, "| Industry | Software |\n")
	for _, k := range entity.CompanyInfoKeys() {
		if k == "Industry" {
			continue
		}
		assert.Contains(t, out, "| "+k+" | "+entity.Placeholder+" |\n")
	}
	for _, k := range entity.ProductsServicesKeys() {
		assert.Contains(t, out, "| "+k+" | "+entity.Placeholder+" |\n")
	}
	assert.Equal(t, 46, strings.Count(out, entity.Placeholder)-1, "placeholders in cells, excluding the note")
}

func TestSerialize_Layout(t *testing.T) {
	t.Parallel()

	r := entity.NewScaffold("Acme", fixedNow)
	r.ResearchSources = []string{"Web search results", "Industry reports"}

	out := report.Serialize(r)

	blocks := []string{
		"# Company Analysis Report: Acme\n",
		"## 📌 Company Information Table\n",
		"## 📌 Products & Services Information\n",
		"## 📊 Product/Service Market Comparison Table\n",
		"| Dimension | Industry Standard | Acme | Competitor A | Competitor B |\n",
		"## 📣 Research Sources\n\n- Web search results\n- Industry reports\n",
		"## 📅 Analysis Date\n2024-05-01 09:30:00\n",
		"---\n" + report.Note + "\n",
	}
	last := -1
	for _, blk := range blocks {
		i := strings.Index(out, blk)
		require.GreaterOrEqual(t, i, 0, "missing block %q", blk)
		assert.Greater(t, i, last, "block %q out of order", blk)
		last = i
	}
	assert.True(t, strings.HasPrefix(out, blocks[0]))
	assert.True(t, strings.HasSuffix(out, report.Note+"\n"))
}

func TestSerialize_RowsFollowSchemaOrder(t *testing.T) {
	t.Parallel()

	out := report.Serialize(entity.NewScaffold("Acme", fixedNow))

	last := -1
	for _, d := range entity.ComparisonDimensions() {
		i := strings.Index(out, "| "+d+" |")
		require.GreaterOrEqual(t, i, 0, "missing dimension %q", d)
		assert.Greater(t, i, last)
		last = i
	}
}

func TestSerialize_OmitsEmptySources(t *testing.T) {
	t.Parallel()

	out := report.Serialize(entity.NewScaffold("Acme", fixedNow))
	assert.NotContains(t, out, "Research Sources")
}

func TestSerialize_EscapesCells(t *testing.T) {
	t.Parallel()

	r := entity.NewScaffold("Acme", fixedNow)
	r, err := merge.ApplyUpdate(r, entity.FieldTarget(entity.SectionProductsServices, "Key Products / Services"), "CRM | ERP\nAnalytics")
	require.NoError(t, err)
	r, err = merge.ApplyUpdate(r, entity.CellTarget("Pricing", entity.ColumnCompetitorA), "a\r\nb")
	require.NoError(t, err)

	out := report.Serialize(r)

	assert.Contains(t, out, `| Key Products / Services | CRM \| ERP<br>Analytics |`)
	assert.Contains(t, out, "| a<br>b |")
}

func TestSerialize_SingleLineTitle(t *testing.T) {
	t.Parallel()

	r := entity.NewScaffold("Acme\nCorp\r\nLtd", fixedNow)
	r.ResearchSources = []string{"Web search\rresults"}

	lines := strings.Split(report.Serialize(r), "\n")

	assert.Equal(t, "# Company Analysis Report: Acme Corp Ltd", lines[0])
	assert.Empty(t, lines[1])
	assert.Contains(t, lines, "- Web search results")
	assert.Contains(t, lines, "| Dimension | Industry Standard | Acme<br>Corp<br>Ltd | Competitor A | Competitor B |")
}

func TestSerialize_PartialRecord(t *testing.T) {
	t.Parallel()

	out := report.Serialize(entity.AnalysisRecord{CompanyName: "Empty"})

	assert.Contains(t, out, "| Industry |  |\n")
	assert.Contains(t, out, "| Pricing |  |  |  |  |\n")
}

func TestSerialize_Deterministic(t *testing.T) {
	t.Parallel()

	build := func() entity.AnalysisRecord {
		r := entity.NewScaffold("Acme", fixedNow)
		r, _ = merge.ApplyUpdate(r, entity.FieldTarget(entity.SectionCompanyInfo, "Industry"), "Software")
		r, _ = merge.ApplyUpdate(r, entity.CellTarget("Market Share", entity.ColumnTargetCompany), "12%")
		r.ResearchSources = []string{"Web search results"}
		return r
	}

	first := report.Serialize(build())
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, report.Serialize(build()))
	}
}
