package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"company_analyzer/internal/feature/analysis/domain"
	"company_analyzer/internal/feature/analysis/domain/entity"
)

// mockAnalysisRepository はテスト用のAnalysisRepositoryモック実装です。
type mockAnalysisRepository struct {
	createFn     func(ctx context.Context, a *entity.Analysis) error
	findByIDFn   func(ctx context.Context, id string) (*entity.Analysis, error)
	updateFn     func(ctx context.Context, a *entity.Analysis, expectedVersion int) error
	listRecentFn func(ctx context.Context, limit int) ([]entity.Analysis, error)
	findCalls    int
}

func (m *mockAnalysisRepository) Create(ctx context.Context, a *entity.Analysis) error {
	if m.createFn != nil {
		return m.createFn(ctx, a)
	}
	return nil
}

func (m *mockAnalysisRepository) FindByID(ctx context.Context, id string) (*entity.Analysis, error) {
	m.findCalls++
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, domain.ErrAnalysisNotFound
}

func (m *mockAnalysisRepository) Update(ctx context.Context, a *entity.Analysis, expectedVersion int) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, a, expectedVersion)
	}
	return nil
}

func (m *mockAnalysisRepository) ListRecent(ctx context.Context, limit int) ([]entity.Analysis, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, limit)
	}
	return nil, nil
}

// expectStore は版数つきのキャッシュ書き込みを期待します。
func expectStore(mock redismock.ClientMock, key string, value []byte, version int) *redismock.ExpectedCmd {
	return mock.ExpectEval(storeScript, []string{key}, value, version, DefaultTTL.Milliseconds())
}

func sampleAnalysis() *entity.Analysis {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &entity.Analysis{
		ID:        "a1",
		Version:   1,
		Status:    entity.StatusFallback,
		Record:    entity.NewScaffold("Acme", now),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TestNewCachingAnalysisRepository_Defaults はデフォルト値（TTLとnamespace）が正しく設定されることを検証します。
func TestNewCachingAnalysisRepository_Defaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		ttl               time.Duration
		namespace         string
		expectedTTL       time.Duration
		expectedNamespace string
	}{
		{name: "default values when zero/empty", expectedTTL: DefaultTTL, expectedNamespace: "analysis"},
		{name: "negative ttl uses default", ttl: -time.Minute, expectedTTL: DefaultTTL, expectedNamespace: "analysis"},
		{name: "custom values preserved", ttl: time.Minute, namespace: "custom", expectedTTL: time.Minute, expectedNamespace: "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := NewCachingAnalysisRepository(nil, tt.ttl, &mockAnalysisRepository{}, tt.namespace)

			assert.Equal(t, tt.expectedTTL, repo.ttl)
			assert.Equal(t, tt.expectedNamespace, repo.namespace)
		})
	}
}

// TestCachingAnalysisRepository_FindByID_NilRedis はRedisがnilの場合にキャッシュをバイパスすることを検証します。
func TestCachingAnalysisRepository_FindByID_NilRedis(t *testing.T) {
	t.Parallel()

	want := sampleAnalysis()
	inner := &mockAnalysisRepository{findByIDFn: func(ctx context.Context, id string) (*entity.Analysis, error) {
		return want, nil
	}}
	repo := NewCachingAnalysisRepository(nil, 0, inner, "")

	got, err := repo.FindByID(context.Background(), "a1")

	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, inner.findCalls)
}

// TestCachingAnalysisRepository_FindByID_CacheHit はキャッシュヒット時に内部リポジトリを呼ばないことを検証します。
func TestCachingAnalysisRepository_FindByID_CacheHit(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	cached := sampleAnalysis()
	cached.Record.CompanyInfo["Industry"] = "Software"
	cachedJSON, _ := json.Marshal(cached)
	mock.ExpectGet("analysis:a1").SetVal(string(cachedJSON))

	inner := &mockAnalysisRepository{}
	repo := NewCachingAnalysisRepository(rdb, 0, inner, "")

	got, err := repo.FindByID(context.Background(), "a1")

	require.NoError(t, err)
	assert.Zero(t, inner.findCalls, "inner repository should not be called on cache hit")
	assert.Equal(t, "Software", got.Record.CompanyInfo["Industry"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCachingAnalysisRepository_FindByID_CacheMiss はキャッシュミス時にDBから取得してキャッシュに保存することを検証します。
func TestCachingAnalysisRepository_FindByID_CacheMiss(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	want := sampleAnalysis()
	wantJSON, _ := json.Marshal(want)
	mock.ExpectGet("analysis:a1").RedisNil()
	expectStore(mock, "analysis:a1", wantJSON, want.Version).SetVal(int64(1))

	inner := &mockAnalysisRepository{findByIDFn: func(ctx context.Context, id string) (*entity.Analysis, error) {
		return want, nil
	}}
	repo := NewCachingAnalysisRepository(rdb, 0, inner, "")

	got, err := repo.FindByID(context.Background(), "a1")

	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCachingAnalysisRepository_FindByID_StaleRead はキャッシュに新しい版がある場合、
// DBから読んだ古い版で上書きせずにそのまま返すことを検証します。
func TestCachingAnalysisRepository_FindByID_StaleRead(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	stale := sampleAnalysis()
	staleJSON, _ := json.Marshal(stale)
	mock.ExpectGet("analysis:a1").RedisNil()
	expectStore(mock, "analysis:a1", staleJSON, stale.Version).SetVal(int64(0))

	inner := &mockAnalysisRepository{findByIDFn: func(ctx context.Context, id string) (*entity.Analysis, error) {
		return stale, nil
	}}
	repo := NewCachingAnalysisRepository(rdb, 0, inner, "")

	got, err := repo.FindByID(context.Background(), "a1")

	require.NoError(t, err)
	assert.Equal(t, stale, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestStoreScript_ComparesVersions はキャッシュ書き込みスクリプトが版数を比較してから書き込むことを検証します。
func TestStoreScript_ComparesVersions(t *testing.T) {
	t.Parallel()

	assert.Contains(t, storeScript, "doc.version")
	assert.Contains(t, storeScript, "> tonumber(ARGV[2])")
	assert.Less(t, strings.Index(storeScript, "return 0"), strings.Index(storeScript, "redis.call('SET'"),
		"a newer cached version must short-circuit before SET")
}

// TestCachingAnalysisRepository_FindByID_CorruptedEntry は壊れたキャッシュを削除してDBから取得することを検証します。
func TestCachingAnalysisRepository_FindByID_CorruptedEntry(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	want := sampleAnalysis()
	wantJSON, _ := json.Marshal(want)
	mock.ExpectGet("analysis:a1").SetVal("{not json")
	mock.ExpectDel("analysis:a1").SetVal(1)
	expectStore(mock, "analysis:a1", wantJSON, want.Version).SetVal(int64(1))

	inner := &mockAnalysisRepository{findByIDFn: func(ctx context.Context, id string) (*entity.Analysis, error) {
		return want, nil
	}}
	repo := NewCachingAnalysisRepository(rdb, 0, inner, "")

	_, err := repo.FindByID(context.Background(), "a1")

	require.NoError(t, err)
	assert.Equal(t, 1, inner.findCalls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCachingAnalysisRepository_FindByID_InnerError は内部リポジトリのエラーが伝播しキャッシュされないことを検証します。
func TestCachingAnalysisRepository_FindByID_InnerError(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectGet("analysis:missing").RedisNil()

	repo := NewCachingAnalysisRepository(rdb, 0, &mockAnalysisRepository{}, "")

	_, err := repo.FindByID(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrAnalysisNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCachingAnalysisRepository_Update は更新前にキャッシュを無効化し、成功後に保存し直すことを検証します。
func TestCachingAnalysisRepository_Update(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	next := sampleAnalysis()
	next.Version = 2
	nextJSON, _ := json.Marshal(next)
	mock.ExpectDel("analysis:a1").SetVal(1)
	expectStore(mock, "analysis:a1", nextJSON, next.Version).SetVal(int64(1))

	repo := NewCachingAnalysisRepository(rdb, 0, &mockAnalysisRepository{}, "")

	require.NoError(t, repo.Update(context.Background(), next, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCachingAnalysisRepository_Update_Conflict は競合時にキャッシュへ書き戻さないことを検証します。
func TestCachingAnalysisRepository_Update_Conflict(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectDel("analysis:a1").SetVal(0)

	inner := &mockAnalysisRepository{updateFn: func(ctx context.Context, a *entity.Analysis, expectedVersion int) error {
		return domain.ErrVersionConflict
	}}
	repo := NewCachingAnalysisRepository(rdb, 0, inner, "")

	err := repo.Update(context.Background(), sampleAnalysis(), 1)

	assert.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCachingAnalysisRepository_Create は作成後にキャッシュを温めることを検証します。
func TestCachingAnalysisRepository_Create(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	a := sampleAnalysis()
	aJSON, _ := json.Marshal(a)
	expectStore(mock, "analysis:a1", aJSON, a.Version).SetVal(int64(1))

	require.NoError(t, NewCachingAnalysisRepository(rdb, 0, &mockAnalysisRepository{}, "").Create(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCachingAnalysisRepository_Create_InnerError は保存に失敗した場合にキャッシュしないことを検証します。
func TestCachingAnalysisRepository_Create_InnerError(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	dbErr := errors.New("database error")
	inner := &mockAnalysisRepository{createFn: func(ctx context.Context, a *entity.Analysis) error { return dbErr }}

	err := NewCachingAnalysisRepository(rdb, 0, inner, "").Create(context.Background(), sampleAnalysis())

	assert.ErrorIs(t, err, dbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCachingAnalysisRepository_ListRecent は一覧取得がキャッシュを経由しないことを検証します。
func TestCachingAnalysisRepository_ListRecent(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	inner := &mockAnalysisRepository{listRecentFn: func(ctx context.Context, limit int) ([]entity.Analysis, error) {
		return []entity.Analysis{*sampleAnalysis()}, nil
	}}

	got, err := NewCachingAnalysisRepository(rdb, 0, inner, "").ListRecent(context.Background(), 5)

	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
