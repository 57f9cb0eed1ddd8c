// Package report renders analysis records as markdown documents.
package report

import (
	"strings"

	"company_analyzer/internal/feature/analysis/domain/entity"
)

// Note is the closing line of every report.
const Note = "*Note: Fields marked with 【" + entity.Placeholder + "】 require additional information or manual input.*"

// Serialize renders r as a markdown report. Blocks appear in schema order and
// every cell is written as stored, placeholders included. The output depends
// only on r.
func Serialize(r entity.AnalysisRecord) string {
	var b strings.Builder

	b.WriteString("# Company Analysis Report: ")
	b.WriteString(line(r.CompanyName))
	b.WriteString("\n\n")

	b.WriteString("## 📌 Company Information Table\n\n")
	writeFieldTable(&b, r.CompanyInfo, entity.CompanyInfoKeys())

	b.WriteString("\n## 📌 Products & Services Information\n\n")
	writeFieldTable(&b, r.ProductsServices, entity.ProductsServicesKeys())

	b.WriteString("\n## 📊 Product/Service Market Comparison Table\n\n")
	writeComparisonTable(&b, r)

	if len(r.ResearchSources) > 0 {
		b.WriteString("\n## 📣 Research Sources\n\n")
		for _, s := range r.ResearchSources {
			b.WriteString("- ")
			b.WriteString(line(s))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n## 📅 Analysis Date\n")
	b.WriteString(line(r.AnalysisTimestamp))
	b.WriteString("\n\n---\n")
	b.WriteString(Note)
	b.WriteString("\n")

	return b.String()
}

func writeFieldTable(b *strings.Builder, fields entity.Fields, keys []string) {
	b.WriteString("| Field | Value |\n|-------|-------|\n")
	for _, k := range keys {
		writeRow(b, k, fields[k])
	}
}

func writeComparisonTable(b *strings.Builder, r entity.AnalysisRecord) {
	cols := entity.ComparisonColumns()

	header := make([]string, 0, len(cols)+1)
	header = append(header, "Dimension")
	for _, c := range cols {
		if c == entity.ColumnTargetCompany && strings.TrimSpace(r.CompanyName) != "" {
			c = r.CompanyName
		}
		header = append(header, c)
	}
	writeRow(b, header...)

	b.WriteString("|")
	for range header {
		b.WriteString("---|")
	}
	b.WriteString("\n")

	for _, d := range entity.ComparisonDimensions() {
		row := r.MarketComparison[d]
		cells := make([]string, 0, len(cols)+1)
		cells = append(cells, d)
		for _, c := range cols {
			cells = append(cells, row[c])
		}
		writeRow(b, cells...)
	}
}

func writeRow(b *strings.Builder, cells ...string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(cell(c))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

// cell escapes pipes and turns line breaks into <br> so a value never
// breaks the table structure.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(inline(s), "\n", "<br>")
}

// line folds line breaks into spaces for text written outside a table.
func line(s string) string {
	return strings.ReplaceAll(inline(s), "\n", " ")
}

func inline(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
