// Package dto defines data transfer objects for the analysis feature's HTTP transport layer.
package dto

import (
	"company_analyzer/internal/feature/analysis/domain/entity"
)

// CreateAnalysisRequest represents the request body for POST /v1/analyses.
type CreateAnalysisRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
}

// UpdateFieldRequest represents the request body for PATCH /v1/analyses/:id/fields.
// Market comparison cells are addressed either by Dimension and Column or by
// the notification form Field = "<dimension>.<column>".
type UpdateFieldRequest struct {
	Section   string `json:"section" binding:"required"`
	Field     string `json:"field"`
	Dimension string `json:"dimension"`
	Column    string `json:"column"`
	Value     string `json:"value" binding:"required"`
}

// Target returns the leaf addressed by the request.
func (r UpdateFieldRequest) Target() entity.Target {
	if r.Dimension != "" || r.Column != "" {
		return entity.Target{
			Section:   entity.Section(r.Section),
			Dimension: r.Dimension,
			Column:    r.Column,
		}
	}
	return entity.ParseTarget(r.Section, r.Field)
}
