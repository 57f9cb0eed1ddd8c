// Package di provides dependency injection factories for creating application components.
package di

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"company_analyzer/internal/feature/analysis/adapters"
	"company_analyzer/internal/feature/analysis/usecase"
	"company_analyzer/internal/platform/cache"
)

// NewAnalysisRepository creates the AnalysisRepository implementation.
// If Redis is available, the GORM repository is wrapped with a read-through cache.
func NewAnalysisRepository(db *gorm.DB, rdb *redis.Client) usecase.AnalysisRepository {
	repo := adapters.NewAnalysisRepository(db)
	if rdb == nil {
		return repo
	}
	return cache.NewCachingAnalysisRepository(rdb, cache.DefaultTTL, repo, cache.DefaultNamespace)
}
