package idempotency

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"coinvault/internal/api"
	"coinvault/internal/ledger"
	"coinvault/internal/logger"
	"coinvault/internal/metrics"
)

const contextKey = "tx_id"

// Journal is the pre-check slice of the ledger repository.
type Journal interface {
	Exists(ctx context.Context, txID string) (bool, error)
}

// TxID returns the validated idempotency token the middleware stored on the
// request context. Empty when the middleware did not run.
func TxID(c *gin.Context) string {
	return c.GetString(contextKey)
}

// Middleware requires a caller-supplied X-Idempotency-Key on every
// balance-mutating request. Duplicates are short-circuited here via the
// redis cache and a journal pre-check; the unique constraint on
// ledger.tx_id remains the authoritative guarantee when two duplicates race
// past both checks.
func Middleware(cache *Cache, journal Journal) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Idempotency-Key")
		if key == "" {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "missing X-Idempotency-Key header"})
			c.Abort()
			return
		}
		if _, err := uuid.Parse(key); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "X-Idempotency-Key must be a UUID"})
			c.Abort()
			return
		}

		ctx := c.Request.Context()

		if cache != nil && cache.Seen(ctx, key) {
			metrics.RecordIdempotencyConflict()
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "duplicate transaction detected"})
			c.Abort()
			return
		}

		exists, err := journal.Exists(ctx, key)
		if err != nil {
			logger.Errorf("idempotency pre-check failed: %v", err)
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal error"})
			c.Abort()
			return
		}
		if exists {
			metrics.RecordIdempotencyConflict()
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "duplicate transaction detected"})
			c.Abort()
			return
		}

		c.Set(contextKey, key)
		c.Next()

		// remember committed tokens so a retry skips the database
		if cache != nil && c.Writer.Status() < http.StatusBadRequest {
			cache.Mark(ctx, key)
		}
	}
}

var _ Journal = (*ledger.Repository)(nil)
