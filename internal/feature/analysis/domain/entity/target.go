package entity

import (
	"fmt"
	"strings"
)

// Section names a top-level group of a record, using its JSON name.
type Section string

const (
	SectionCompanyInfo      Section = "company_info"
	SectionProductsServices Section = "products_services"
	SectionMarketComparison Section = "market_comparison"
)

// Target addresses a single leaf: Section+Field for flat sections,
// Section+Dimension+Column for the market comparison.
type Target struct {
	Section   Section
	Field     string
	Dimension string
	Column    string
}

// FieldTarget addresses a field of a flat section.
func FieldTarget(section Section, field string) Target {
	return Target{Section: section, Field: field}
}

// CellTarget addresses a market comparison cell.
func CellTarget(dimension, column string) Target {
	return Target{Section: SectionMarketComparison, Dimension: dimension, Column: column}
}

// ParseTarget builds a target from the wire form used by update notifications,
// where market comparison cells are written as "<dimension>.<column>".
func ParseTarget(section, field string) Target {
	s := Section(section)
	if s != SectionMarketComparison {
		return FieldTarget(s, field)
	}
	i := strings.LastIndex(field, ".")
	if i < 0 {
		return CellTarget(field, "")
	}
	return CellTarget(field[:i], field[i+1:])
}

// WireField returns the field name used in update notifications.
func (t Target) WireField() string {
	if t.Section == SectionMarketComparison {
		return t.Dimension + "." + t.Column
	}
	return t.Field
}

func (t Target) String() string {
	return fmt.Sprintf("%s/%s", t.Section, t.WireField())
}

// FieldUpdate is the notification sent to a synchronization collaborator
// after a local merge.
type FieldUpdate struct {
	Section string `json:"section"`
	Field   string `json:"field"`
	Value   string `json:"value"`
}

// NewFieldUpdate builds the notification for a merged value.
func NewFieldUpdate(t Target, value string) FieldUpdate {
	return FieldUpdate{Section: string(t.Section), Field: t.WireField(), Value: value}
}
