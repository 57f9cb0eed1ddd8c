package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const readinessTimeout = 5 * time.Second

// Checker は依存先（DB、Redisなど）の疎通を確認します。
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc は関数をCheckerとして扱うためのアダプターです。
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

// CheckStatus は個々の依存先の状態です。
type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ReadinessStatus は /readyz のレスポンスです。
type ReadinessStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
}

// Readiness はすべての依存先を確認する /readyz ハンドラーを返します。
// 1つでも失敗した場合は503を返します。
func Readiness(checkers map[string]Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")

		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		res := ReadinessStatus{
			Status:    "ready",
			Timestamp: time.Now().UTC(),
			Checks:    make(map[string]CheckStatus, len(checkers)),
		}
		for name, checker := range checkers {
			if err := checker.Check(ctx); err != nil {
				res.Status = "unavailable"
				res.Checks[name] = CheckStatus{Status: "unhealthy", Message: err.Error()}
				continue
			}
			res.Checks[name] = CheckStatus{Status: "healthy"}
		}

		code := http.StatusOK
		if res.Status != "ready" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, res)
	}
}

// DBChecker はgormの接続にPingします。
func DBChecker(db *gorm.DB) Checker {
	return CheckerFunc(func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
}

// RedisChecker はRedisにPINGを送ります。
func RedisChecker(rdb *redis.Client) Checker {
	return CheckerFunc(func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
}
