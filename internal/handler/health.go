package handler

import (
	"context"
	"net/http"
	"time"

	"eventpay/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health godoc
// @Summary Liveness/readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func Health(db *gorm.DB, rdb *redis.Client, mailerCB *infra.CircuitBreaker) gin.HandlerFunc {
	probe := func(ctx context.Context) (string, string) {
		dbStatus, redisStatus := "up", "up"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "down"
		}
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "down"
		}
		return dbStatus, redisStatus
	}

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus, redisStatus := probe(ctx)
		code := http.StatusOK
		if dbStatus != "up" || redisStatus != "up" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"ok":             code == http.StatusOK,
			"db":             dbStatus,
			"redis":          redisStatus,
			"mailer_breaker": mailerCB.State().String(),
		})
	}
}
