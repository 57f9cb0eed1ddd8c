package ratelimiter

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterは、1分あたりの呼び出し回数を制限するトークンバケットです。
// 複数のgoroutineから同時に使用できます。
type RateLimiter struct {
	limiter *rate.Limiter
	rpm     int
}

// NewRateLimiterは新しいRateLimiterのインスタンスを生成します。
// rpmが0以下の場合は制限しません。burstが1未満の場合は1になります。
func NewRateLimiter(rpm, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if rpm > 0 {
		limit = rate.Limit(float64(rpm) / 60.0)
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, burst), rpm: rpm}
}

// Waitはトークンが得られるまで待機します。ctxがキャンセルされた場合はエラーを返します。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := rl.limiter.Wait(ctx); err != nil {
		return err
	}
	if waited := time.Since(start); waited > time.Second {
		slog.Debug("rate limit wait", "rpm", rl.rpm, "waited", waited)
	}
	return nil
}
