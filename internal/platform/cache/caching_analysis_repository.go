// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"company_analyzer/internal/feature/analysis/domain/entity"
	"company_analyzer/internal/feature/analysis/usecase"
)

// DefaultTTL is used when no positive TTL is given.
const DefaultTTL = 10 * time.Minute

// DefaultNamespace prefixes every cache key.
const DefaultNamespace = "analysis"

// storeScript sets KEYS[1] to ARGV[1] for ARGV[3] milliseconds unless the
// cached analysis has a version newer than ARGV[2]. It returns 1 when written.
const storeScript = `
local cur = redis.call('GET', KEYS[1])
if cur then
  local ok, doc = pcall(cjson.decode, cur)
  if ok and type(doc) == 'table' and tonumber(doc.version) and tonumber(doc.version) > tonumber(ARGV[2]) then
    return 0
  end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`

var storeIfNotOlder = redis.NewScript(storeScript)

// CachingAnalysisRepository decorates an AnalysisRepository with Redis caching
// of single analyses. Listing is never cached. Cache writes never replace a
// newer version, so a slow read cannot overwrite the result of an update.
type CachingAnalysisRepository struct {
	inner     usecase.AnalysisRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.AnalysisRepository = (*CachingAnalysisRepository)(nil)

// NewCachingAnalysisRepository decorates an AnalysisRepository with Redis caching.
// If ttl is 0, it defaults to 10 minutes. If namespace is empty, it uses "analysis".
func NewCachingAnalysisRepository(rdb *redis.Client, ttl time.Duration, inner usecase.AnalysisRepository, namespace string) *CachingAnalysisRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &CachingAnalysisRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Create stores the analysis and warms the cache.
func (c *CachingAnalysisRepository) Create(ctx context.Context, a *entity.Analysis) error {
	if err := c.inner.Create(ctx, a); err != nil {
		return err
	}
	c.store(ctx, a)
	return nil
}

// FindByID checks the cache first then falls back to the database.
func (c *CachingAnalysisRepository) FindByID(ctx context.Context, id string) (*entity.Analysis, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.FindByID(ctx, id)
	}

	key := c.cacheKey(id)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out entity.Analysis
		if err := json.Unmarshal(b, &out); err == nil {
			return &out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := c.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	c.store(ctx, out)
	return out, nil
}

// Update drops the cached entry before writing so a failed or conflicting
// write never leaves a stale version behind.
func (c *CachingAnalysisRepository) Update(ctx context.Context, a *entity.Analysis, expectedVersion int) error {
	if c.rdb != nil {
		_ = c.rdb.Del(ctx, c.cacheKey(a.ID)).Err()
	}
	if err := c.inner.Update(ctx, a, expectedVersion); err != nil {
		return err
	}
	c.store(ctx, a)
	return nil
}

// ListRecent always reads from the underlying repository.
func (c *CachingAnalysisRepository) ListRecent(ctx context.Context, limit int) ([]entity.Analysis, error) {
	return c.inner.ListRecent(ctx, limit)
}

func (c *CachingAnalysisRepository) store(ctx context.Context, a *entity.Analysis) {
	if c.rdb == nil || a == nil {
		return
	}
	b, err := json.Marshal(a)
	if err != nil {
		return
	}
	_ = storeIfNotOlder.Eval(ctx, c.rdb, []string{c.cacheKey(a.ID)}, b, a.Version, c.ttl.Milliseconds()).Err()
}

// cacheKey generates the cache key of one analysis.
func (c *CachingAnalysisRepository) cacheKey(id string) string {
	return fmt.Sprintf("%s:%s", c.namespace, safe(id))
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
