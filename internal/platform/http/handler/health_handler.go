// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ServiceName は /healthz のレスポンスに含めるサービス名です。
const ServiceName = "company-analyzer"

// Health はサービスヘルスチェック用の /healthz エンドポイントを処理します。
// 依存先は確認しません（Readinessを参照）。
func Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	if c.Request.Method == http.MethodHead {
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": ServiceName})
}
