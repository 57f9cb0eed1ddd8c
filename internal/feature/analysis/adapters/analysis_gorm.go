package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"company_analyzer/internal/feature/analysis/domain"
	"company_analyzer/internal/feature/analysis/domain/entity"
	"company_analyzer/internal/feature/analysis/usecase"
)

type analysisGorm struct {
	db *gorm.DB
}

var _ usecase.AnalysisRepository = (*analysisGorm)(nil)

func NewAnalysisRepository(db *gorm.DB) *analysisGorm {
	return &analysisGorm{db: db}
}

// AnalysisModel stores one analysis. Record sections are kept as JSON text so
// the table does not change with the record schema.
type AnalysisModel struct {
	ID                string `gorm:"primaryKey;size:36"`
	Version           int    `gorm:"not null;default:1"`
	Status            string `gorm:"size:16;not null"`
	CompanyName       string `gorm:"size:255;not null;index"`
	CompanyInfo       string `gorm:"type:text;not null"`
	ProductsServices  string `gorm:"type:text;not null"`
	MarketComparison  string `gorm:"type:text;not null"`
	ResearchSources   string `gorm:"type:text;not null"`
	AnalysisTimestamp string `gorm:"size:19;not null"`

	CreatedAt time.Time `gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (AnalysisModel) TableName() string {
	return "analyses"
}

func toModel(a *entity.Analysis) (AnalysisModel, error) {
	r := a.Record
	info, err := json.Marshal(r.CompanyInfo)
	if err != nil {
		return AnalysisModel{}, fmt.Errorf("encode company_info: %w", err)
	}
	products, err := json.Marshal(r.ProductsServices)
	if err != nil {
		return AnalysisModel{}, fmt.Errorf("encode products_services: %w", err)
	}
	market, err := json.Marshal(r.MarketComparison)
	if err != nil {
		return AnalysisModel{}, fmt.Errorf("encode market_comparison: %w", err)
	}
	sources := r.ResearchSources
	if sources == nil {
		sources = []string{}
	}
	src, err := json.Marshal(sources)
	if err != nil {
		return AnalysisModel{}, fmt.Errorf("encode research_sources: %w", err)
	}
	return AnalysisModel{
		ID:                a.ID,
		Version:           a.Version,
		Status:            string(a.Status),
		CompanyName:       r.CompanyName,
		CompanyInfo:       string(info),
		ProductsServices:  string(products),
		MarketComparison:  string(market),
		ResearchSources:   string(src),
		AnalysisTimestamp: r.AnalysisTimestamp,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}, nil
}

// ToEntity decodes a stored row into an Analysis.
func (m AnalysisModel) ToEntity() (*entity.Analysis, error) {
	r := entity.AnalysisRecord{
		CompanyName:       m.CompanyName,
		AnalysisTimestamp: m.AnalysisTimestamp,
	}
	if err := json.Unmarshal([]byte(m.CompanyInfo), &r.CompanyInfo); err != nil {
		return nil, fmt.Errorf("decode company_info of %s: %w", m.ID, err)
	}
	if err := json.Unmarshal([]byte(m.ProductsServices), &r.ProductsServices); err != nil {
		return nil, fmt.Errorf("decode products_services of %s: %w", m.ID, err)
	}
	if err := json.Unmarshal([]byte(m.MarketComparison), &r.MarketComparison); err != nil {
		return nil, fmt.Errorf("decode market_comparison of %s: %w", m.ID, err)
	}
	if err := json.Unmarshal([]byte(m.ResearchSources), &r.ResearchSources); err != nil {
		return nil, fmt.Errorf("decode research_sources of %s: %w", m.ID, err)
	}
	return &entity.Analysis{
		ID:        m.ID,
		Version:   m.Version,
		Status:    entity.Status(m.Status),
		Record:    r,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

func (r *analysisGorm) Create(ctx context.Context, a *entity.Analysis) error {
	m, err := toModel(a)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *analysisGorm) FindByID(ctx context.Context, id string) (*entity.Analysis, error) {
	var m AnalysisModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrAnalysisNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return m.ToEntity()
}

// Update writes a only if the stored version still equals expectedVersion.
func (r *analysisGorm) Update(ctx context.Context, a *entity.Analysis, expectedVersion int) error {
	m, err := toModel(a)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&AnalysisModel{}).
		Where("id = ? AND version = ?", a.ID, expectedVersion).
		Updates(map[string]any{
			"version":            m.Version,
			"status":             m.Status,
			"company_name":       m.CompanyName,
			"company_info":       m.CompanyInfo,
			"products_services":  m.ProductsServices,
			"market_comparison":  m.MarketComparison,
			"research_sources":   m.ResearchSources,
			"analysis_timestamp": m.AnalysisTimestamp,
			"updated_at":         m.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := r.db.WithContext(ctx).Model(&AnalysisModel{}).Where("id = ?", a.ID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrAnalysisNotFound, a.ID)
	}
	return fmt.Errorf("%w: %s expected version %d", domain.ErrVersionConflict, a.ID, expectedVersion)
}

func (r *analysisGorm) ListRecent(ctx context.Context, limit int) ([]entity.Analysis, error) {
	var rows []AnalysisModel
	q := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Analysis, 0, len(rows))
	for _, m := range rows {
		a, err := m.ToEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}
