// Package usecase はanalysisフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"company_analyzer/internal/feature/analysis/domain"
	"company_analyzer/internal/feature/analysis/domain/entity"
	"company_analyzer/internal/feature/analysis/domain/merge"
	"company_analyzer/internal/feature/analysis/domain/report"
)

const (
	// MaxCompanyNameLength は企業名の最大文字数（rune数）です。
	MaxCompanyNameLength = 100
	// DefaultListLimit は一覧取得のデフォルト件数です。
	DefaultListLimit = 20
	// MaxListLimit は一覧取得の最大件数です。
	MaxListLimit = 100
	// MaxUpdateAttempts はバージョン競合時に保存を試みる最大回数です。
	MaxUpdateAttempts = 3
	// DefaultSyncTimeout は外部同期通知のデフォルトタイムアウトです。
	DefaultSyncTimeout = 5 * time.Second
	// ReportFormat はエクスポートされるレポートの形式です。
	ReportFormat = "markdown"
)

// レポートの生成元です。
const (
	ReportSourceRemote = "remote"
	ReportSourceLocal  = "local"
)

// validCompanyName は企業名に許可される文字パターンです（英数字・日本語・スペース・中黒）。
// 改行やタブは許可しません。
var validCompanyName = regexp.MustCompile(`^[\p{L}\p{N}\p{Zs}・\-\.&,()'/]+$`)

// Provider は企業名から分析レコードを取得するインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type Provider interface {
	// FetchAnalysis は企業の分析レコードを返します。スキーマ外のキーを含んでいてもかまいません。
	FetchAnalysis(ctx context.Context, companyName string) (entity.AnalysisRecord, error)
}

// Synchronizer は単一フィールドの更新を外部に通知するインターフェースです。
type Synchronizer interface {
	NotifyUpdate(ctx context.Context, update entity.FieldUpdate) error
}

// ReportRenderer はサーバー側で描画されたレポートを返すインターフェースです。
type ReportRenderer interface {
	RenderReport(ctx context.Context, record entity.AnalysisRecord) (string, error)
}

// ReportArchive はエクスポートしたレポートを保存し、参照URLを返すインターフェースです。
type ReportArchive interface {
	Store(ctx context.Context, key string, body []byte) (string, error)
}

// AnalysisRepository は分析結果の永続化レイヤーを抽象化します。
type AnalysisRepository interface {
	// Create は新しい分析結果を保存します。
	Create(ctx context.Context, a *entity.Analysis) error
	// FindByID はIDで分析結果を検索します。存在しない場合はdomain.ErrAnalysisNotFoundを返します。
	FindByID(ctx context.Context, id string) (*entity.Analysis, error)
	// Update は保存済みのバージョンがexpectedVersionと一致する場合のみ上書きします。
	// 一致しない場合はdomain.ErrVersionConflictを返します。
	Update(ctx context.Context, a *entity.Analysis, expectedVersion int) error
	// ListRecent は作成日時の新しい順に最大limit件を返します。
	ListRecent(ctx context.Context, limit int) ([]entity.Analysis, error)
}

// Clock は現在時刻を返します。テストで時刻を固定するために使います。
type Clock interface {
	Now() time.Time
}

// SystemClock はtime.Nowを使うClockの実装です。
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Collaborators はユースケースが利用する外部コラボレーターです。nilのものは使われません。
type Collaborators struct {
	Provider     Provider
	Synchronizer Synchronizer
	Renderer     ReportRenderer
	Archive      ReportArchive
	Clock        Clock
	SyncTimeout  time.Duration
}

// SyncStatus は外部同期通知の結果です。失敗してもローカルの更新は取り消されません。
type SyncStatus struct {
	Attempted bool   `json:"attempted"`
	Synced    bool   `json:"synced"`
	Error     string `json:"error,omitempty"`
}

// UpdateResult はフィールド更新の結果です。
type UpdateResult struct {
	Analysis *entity.Analysis
	Sync     SyncStatus
}

// ExportResult はエクスポートされたレポートです。
type ExportResult struct {
	Report     string
	Format     string
	Timestamp  time.Time
	Source     string
	ArchiveURL string
}

// analysisUsecase は企業分析レコードの作成・更新・エクスポートを提供します。
type analysisUsecase struct {
	repo        AnalysisRepository
	provider    Provider
	sync        Synchronizer
	renderer    ReportRenderer
	archive     ReportArchive
	clock       Clock
	syncTimeout time.Duration
}

// NewAnalysisUsecase はanalysisUsecaseの新しいインスタンスを生成します。
func NewAnalysisUsecase(repo AnalysisRepository, c Collaborators) *analysisUsecase {
	if c.Clock == nil {
		c.Clock = SystemClock{}
	}
	if c.SyncTimeout <= 0 {
		c.SyncTimeout = DefaultSyncTimeout
	}
	return &analysisUsecase{
		repo:        repo,
		provider:    c.Provider,
		sync:        c.Synchronizer,
		renderer:    c.Renderer,
		archive:     c.Archive,
		clock:       c.Clock,
		syncTimeout: c.SyncTimeout,
	}
}

// ValidateCompanyName は前後の空白を除いた企業名を検証して返します。
func ValidateCompanyName(companyName string) (string, error) {
	name := strings.TrimSpace(companyName)
	if name == "" {
		return "", fmt.Errorf("%w: company name is required", domain.ErrInvalidCompanyName)
	}
	if utf8.RuneCountInString(name) > MaxCompanyNameLength {
		return "", fmt.Errorf("%w: company name exceeds maximum length of %d characters", domain.ErrInvalidCompanyName, MaxCompanyNameLength)
	}
	if !validCompanyName.MatchString(name) {
		return "", fmt.Errorf("%w: company name contains invalid characters", domain.ErrInvalidCompanyName)
	}
	return name, nil
}

// Analyze は企業名から分析レコードを作成して保存します。
// プロバイダーが未設定または失敗した場合は、全項目がプレースホルダーのレコードで代替します。
func (u *analysisUsecase) Analyze(ctx context.Context, companyName string) (*entity.Analysis, error) {
	name, err := ValidateCompanyName(companyName)
	if err != nil {
		return nil, err
	}

	now := u.clock.Now()
	record, status := u.fetch(ctx, name, now)
	record.AnalysisTimestamp = now.Format(entity.TimestampLayout)

	a := &entity.Analysis{
		ID:        uuid.NewString(),
		Version:   1,
		Status:    status,
		Record:    record,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to save analysis for %q: %w", name, err)
	}
	slog.Info("analysis created", "id", a.ID, "company", name, "status", a.Status)
	return a, nil
}

func (u *analysisUsecase) fetch(ctx context.Context, name string, now time.Time) (entity.AnalysisRecord, entity.Status) {
	if u.provider == nil {
		return entity.NewScaffold(name, now), entity.StatusFallback
	}
	raw, err := u.provider.FetchAnalysis(ctx, name)
	if err != nil {
		slog.Warn("analysis provider failed, using scaffold", "company", name, "error", err)
		return entity.NewScaffold(name, now), entity.StatusFallback
	}
	return entity.Conform(raw, name, now), entity.StatusProvider
}

// Get はIDで分析結果を取得します。
func (u *analysisUsecase) Get(ctx context.Context, id string) (*entity.Analysis, error) {
	return u.repo.FindByID(ctx, id)
}

// List は最近作成された分析結果を返します。
func (u *analysisUsecase) List(ctx context.Context, limit int) ([]entity.Analysis, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return u.repo.ListRecent(ctx, limit)
}

// UpdateField は1つのフィールドを更新して保存し、その後で外部へ通知します。
// 保存はバージョン競合時に再読み込みして最大MaxUpdateAttempts回試みます。
// 通知の失敗はSyncStatusで報告され、保存済みの更新は取り消されません。
func (u *analysisUsecase) UpdateField(ctx context.Context, id string, target entity.Target, value string) (*UpdateResult, error) {
	var saved *entity.Analysis
	for attempt := 1; attempt <= MaxUpdateAttempts; attempt++ {
		current, err := u.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		record, err := merge.ApplyUpdate(current.Record, target, value)
		if err != nil {
			return nil, err
		}

		next := *current
		next.Record = record
		next.Version = current.Version + 1
		next.UpdatedAt = u.clock.Now()

		err = u.repo.Update(ctx, &next, current.Version)
		if errors.Is(err, domain.ErrVersionConflict) {
			slog.Warn("analysis changed concurrently, retrying", "id", id, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to save analysis %s: %w", id, err)
		}
		saved = &next
		break
	}
	if saved == nil {
		return nil, fmt.Errorf("%w: gave up after %d attempts", domain.ErrVersionConflict, MaxUpdateAttempts)
	}

	v, _ := saved.Record.Value(target)
	return &UpdateResult{
		Analysis: saved,
		Sync:     u.notify(ctx, saved.ID, entity.NewFieldUpdate(target, v)),
	}, nil
}

func (u *analysisUsecase) notify(ctx context.Context, id string, update entity.FieldUpdate) SyncStatus {
	if u.sync == nil {
		return SyncStatus{}
	}
	ctx, cancel := context.WithTimeout(ctx, u.syncTimeout)
	defer cancel()

	if err := u.sync.NotifyUpdate(ctx, update); err != nil {
		slog.Warn("field sync failed, keeping local update", "id", id, "section", update.Section, "field", update.Field, "error", err)
		return SyncStatus{Attempted: true, Error: err.Error()}
	}
	return SyncStatus{Attempted: true, Synced: true}
}

// Export は分析結果をmarkdownレポートとして出力します。
// リモートのレンダラーを優先し、使えない場合はローカルでシリアライズします。
// アーカイブへの保存に失敗してもエクスポート自体は成功します。
func (u *analysisUsecase) Export(ctx context.Context, id string) (*ExportResult, error) {
	a, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	res := &ExportResult{Format: ReportFormat, Timestamp: u.clock.Now()}
	if u.renderer != nil {
		body, err := u.renderer.RenderReport(ctx, a.Record)
		switch {
		case err != nil:
			slog.Warn("remote report rendering failed, serializing locally", "id", id, "error", err)
		case strings.TrimSpace(body) == "":
			slog.Warn("remote report was empty, serializing locally", "id", id)
		default:
			res.Report, res.Source = body, ReportSourceRemote
		}
	}
	if res.Report == "" {
		res.Report, res.Source = report.Serialize(a.Record), ReportSourceLocal
	}

	if u.archive != nil {
		key := fmt.Sprintf("reports/%s/v%d.md", a.ID, a.Version)
		url, err := u.archive.Store(ctx, key, []byte(res.Report))
		if err != nil {
			slog.Warn("report archive failed", "id", id, "key", key, "error", err)
		} else {
			res.ArchiveURL = url
		}
	}
	return res, nil
}
