package dto

import (
	"time"

	"company_analyzer/internal/feature/analysis/domain/entity"
	"company_analyzer/internal/feature/analysis/domain/progress"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AnalysisResponse is a stored analysis with its completion summary.
type AnalysisResponse struct {
	Analysis entity.Analysis  `json:"analysis"`
	Progress progress.Summary `json:"progress"`
}

// NewAnalysisResponse builds the response for a.
func NewAnalysisResponse(a entity.Analysis) AnalysisResponse {
	return AnalysisResponse{Analysis: a, Progress: progress.Summarize(a.Record)}
}

// AnalysisSummary is one entry of GET /v1/analyses.
type AnalysisSummary struct {
	ID          string        `json:"id"`
	CompanyName string        `json:"company_name"`
	Status      entity.Status `json:"status"`
	Version     int           `json:"version"`
	Completion  float64       `json:"completion"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// NewAnalysisSummary builds the list entry for a.
func NewAnalysisSummary(a entity.Analysis) AnalysisSummary {
	return AnalysisSummary{
		ID:          a.ID,
		CompanyName: a.Record.CompanyName,
		Status:      a.Status,
		Version:     a.Version,
		Completion:  progress.CompletionRatio(a.Record),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// SyncResponse reports the outcome of the external update notification.
type SyncResponse struct {
	Attempted bool   `json:"attempted"`
	Synced    bool   `json:"synced"`
	Error     string `json:"error,omitempty"`
}

// UpdateFieldResponse is the body of a successful field update.
type UpdateFieldResponse struct {
	AnalysisResponse
	Sync SyncResponse `json:"sync"`
}

// ExportResponse is the body of POST /v1/analyses/:id/export.
type ExportResponse struct {
	Report     string `json:"report"`
	Format     string `json:"format"`
	Timestamp  string `json:"timestamp"`
	Source     string `json:"source"`
	ArchiveURL string `json:"archive_url,omitempty"`
}
