package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/CJosueA/Sistema-Facturacion/internal/infra"
	"github.com/CJosueA/Sistema-Facturacion/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity and reports the event circuit state and
// dead-letter backlog; never exposes credentials or internals. Only the
// database is required for a 200: invoices can be issued without Redis or
// Kafka.
func Health(db *gorm.DB, rdb *redis.Client, events *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		body := gin.H{"db": dbStatus}

		if rdb == nil {
			body["redis"] = "disabled"
		} else if rdb.Ping(ctx).Err() != nil {
			body["redis"] = "error"
		} else {
			body["redis"] = "connected"
			dlq := gin.H{}
			for _, q := range []string{worker.QueueRender, worker.QueueEmail} {
				if n, err := worker.DLQLength(ctx, rdb, q); err == nil {
					dlq[q] = n
				}
			}
			body["dlq"] = dlq
		}

		if events == nil {
			body["events"] = "disabled"
		} else {
			body["events"] = events.State().String()
		}

		status := http.StatusOK
		if dbStatus != "connected" {
			status = http.StatusServiceUnavailable
		}
		body["ok"] = status == http.StatusOK
		c.JSON(status, body)
	}
}
