package entity

import "time"

// Status records where the initial record of an analysis came from.
type Status string

const (
	// StatusProvider means the record was produced by an analysis provider.
	StatusProvider Status = "provider"
	// StatusFallback means no provider answered and a scaffold was used.
	StatusFallback Status = "fallback"
)

// Analysis is a stored analysis record together with its bookkeeping.
type Analysis struct {
	ID        string         `json:"id"`
	Version   int            `json:"version"` // incremented on every stored update
	Status    Status         `json:"status"`
	Record    AnalysisRecord `json:"record"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
