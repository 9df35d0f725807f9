package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"member-care.backend/pkg/redis"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	// LockDuration is how long the in-progress marker is held
	LockDuration = 30 * time.Second
	// RetentionDuration is how long a completed response is replayable
	RetentionDuration = 24 * time.Hour

	processingMarker = "processing"
)

var (
	redisGet   = redis.Get
	redisSet   = redis.Set
	redisSetNX = redis.SetNX
	redisDel   = redis.Del
)

type responseRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response for a repeated
// Idempotency-Key instead of re-running the handler. Registration runs
// before authentication, so keys are scoped by route, not by caller.
// Responses are cached as "<status>\n<body>"; non-2xx outcomes release the
// key so the client can retry.
func IdempotencyMiddleware(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		storageKey := fmt.Sprintf("idempotency:%s:%s", scope, key)
		ctx := c.Request.Context()

		val, err := redisGet(ctx, storageKey)
		if err == nil {
			if val == processingMarker {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{
					"error": "Request already in progress",
				})
				return
			}

			status, body := splitStoredResponse(val)
			c.Header("Content-Type", "application/json")
			c.Header("X-Idempotency-Hit", "true")
			c.String(status, body)
			c.Abort()
			return
		}
		if err.Error() != "redis: nil" {
			// Cache unavailable; run the request rather than block it
			c.Next()
			return
		}

		locked, err := redisSetNX(ctx, storageKey, processingMarker, LockDuration)
		if err != nil || !locked {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error": "Request already in progress",
			})
			return
		}

		w := &responseRecorder{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			stored := fmt.Sprintf("%d\n%s", status, w.body.String())
			_ = redisSet(ctx, storageKey, stored, RetentionDuration)
		} else {
			_ = redisDel(ctx, storageKey)
		}
	}
}

func splitStoredResponse(val string) (int, string) {
	statusPart, body, found := strings.Cut(val, "\n")
	if !found {
		return http.StatusOK, val
	}
	status, err := strconv.Atoi(statusPart)
	if err != nil {
		return http.StatusOK, val
	}
	return status, body
}
