// Package router wires HTTP routes to their handlers.
package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	analysishandler "company_analyzer/internal/feature/analysis/transport/handler"
	"company_analyzer/internal/platform/http/handler"
	jwtmw "company_analyzer/internal/platform/jwt"
)

// NewRouter はヘルスチェックと分析APIのルートを登録したエンジンを返します。
// jwtSecretが空の場合、/v1 は認証なしで公開されます。
func NewRouter(analysis *analysishandler.AnalysisHandler, checkers map[string]handler.Checker, jwtSecret string) *gin.Engine {
	r := gin.Default()

	// 認証不要
	// 導通確認用
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	// 依存サービスの疎通確認
	r.GET("/readyz", handler.Readiness(checkers))

	v1 := r.Group("/v1")
	if jwtSecret != "" {
		// リクエストヘッダーに JWT が必要になる
		v1.Use(jwtmw.AuthRequired(jwtSecret))
	} else {
		slog.Warn("JWT_SECRET is not set; /v1 is served without authentication")
	}
	{
		v1.POST("/analyses", analysis.Create)
		v1.GET("/analyses", analysis.List)
		v1.GET("/analyses/:id", analysis.Get)
		v1.PATCH("/analyses/:id/fields", analysis.UpdateField)
		v1.POST("/analyses/:id/export", analysis.Export)
	}

	return r
}
