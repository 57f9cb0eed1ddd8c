// Package handler はanalysisフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"company_analyzer/internal/feature/analysis/domain"
	"company_analyzer/internal/feature/analysis/domain/entity"
	"company_analyzer/internal/feature/analysis/transport/http/dto"
	"company_analyzer/internal/feature/analysis/usecase"
)

// AnalysisUsecase は企業分析のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type AnalysisUsecase interface {
	Analyze(ctx context.Context, companyName string) (*entity.Analysis, error)
	Get(ctx context.Context, id string) (*entity.Analysis, error)
	List(ctx context.Context, limit int) ([]entity.Analysis, error)
	UpdateField(ctx context.Context, id string, target entity.Target, value string) (*usecase.UpdateResult, error)
	Export(ctx context.Context, id string) (*usecase.ExportResult, error)
}

// AnalysisHandler は企業分析のHTTPリクエストを処理します。
type AnalysisHandler struct {
	uc AnalysisUsecase
}

// NewAnalysisHandler はAnalysisHandlerの新しいインスタンスを生成します。
func NewAnalysisHandler(uc AnalysisUsecase) *AnalysisHandler {
	return &AnalysisHandler{uc: uc}
}

// Create は企業名を受け取り、分析を実行して保存します。
//
// エンドポイント: POST /v1/analyses
func (h *AnalysisHandler) Create(c *gin.Context) {
	var req dto.CreateAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("分析リクエストのバリデーションに失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "company_name is required"})
		return
	}

	a, err := h.uc.Analyze(c.Request.Context(), req.CompanyName)
	if err != nil {
		h.fail(c, "企業分析に失敗", err)
		return
	}
	slog.Info("企業分析を作成", "id", a.ID, "company", a.Record.CompanyName, "status", a.Status)
	c.JSON(http.StatusCreated, dto.NewAnalysisResponse(*a))
}

// List は最近の分析を新しい順に返します。
//
// エンドポイント: GET /v1/analyses?limit=20
func (h *AnalysisHandler) List(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "limit must be an integer"})
			return
		}
		limit = n
	}

	items, err := h.uc.List(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, "分析一覧の取得に失敗", err)
		return
	}
	out := make([]dto.AnalysisSummary, 0, len(items))
	for _, a := range items {
		out = append(out, dto.NewAnalysisSummary(a))
	}
	c.JSON(http.StatusOK, out)
}

// Get はIDで分析を返します。
//
// エンドポイント: GET /v1/analyses/:id
func (h *AnalysisHandler) Get(c *gin.Context) {
	a, err := h.uc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "分析の取得に失敗", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAnalysisResponse(*a))
}

// UpdateField は単一のフィールドまたは比較セルを更新します。
//
// エンドポイント: PATCH /v1/analyses/:id/fields
func (h *AnalysisHandler) UpdateField(c *gin.Context) {
	var req dto.UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("更新リクエストのバリデーションに失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "section and value are required"})
		return
	}

	id := c.Param("id")
	res, err := h.uc.UpdateField(c.Request.Context(), id, req.Target(), req.Value)
	if err != nil {
		h.fail(c, "フィールドの更新に失敗", err)
		return
	}
	if res.Sync.Attempted && !res.Sync.Synced {
		slog.Warn("外部同期に失敗（ローカル更新は保持）", "id", id, "error", res.Sync.Error)
	}
	c.JSON(http.StatusOK, dto.UpdateFieldResponse{
		AnalysisResponse: dto.NewAnalysisResponse(*res.Analysis),
		Sync: dto.SyncResponse{
			Attempted: res.Sync.Attempted,
			Synced:    res.Sync.Synced,
			Error:     res.Sync.Error,
		},
	})
}

// Export は分析をMarkdownレポートとして返します。
//
// エンドポイント: POST /v1/analyses/:id/export
func (h *AnalysisHandler) Export(c *gin.Context) {
	res, err := h.uc.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "レポートのエクスポートに失敗", err)
		return
	}
	c.JSON(http.StatusOK, dto.ExportResponse{
		Report:     res.Report,
		Format:     res.Format,
		Timestamp:  res.Timestamp.UTC().Format(time.RFC3339),
		Source:     res.Source,
		ArchiveURL: res.ArchiveURL,
	})
}

// fail はユースケースのエラーをHTTPステータスに変換して返します。
func (h *AnalysisHandler) fail(c *gin.Context, msg string, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error(msg, "error", err, "path", c.FullPath())
	} else {
		slog.Warn(msg, "error", err, "path", c.FullPath())
	}
	c.JSON(status, dto.ErrorResponse{Error: body})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidCompanyName),
		errors.Is(err, domain.ErrInvalidValue),
		errors.Is(err, domain.ErrUnknownTarget):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrAnalysisNotFound):
		return http.StatusNotFound, "analysis not found"
	case errors.Is(err, domain.ErrVersionConflict):
		return http.StatusConflict, "analysis was modified concurrently, retry"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
