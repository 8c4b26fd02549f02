package middleware

import (
	"log"
	"time"

	"nearby-jobs/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type AccessLogMiddleware struct {
	logger *log.Logger
	skip   map[string]bool
}

// NewAccessLogMiddleware logs one line per request. Paths in skip (health
// probes) are not logged unless they fail.
func NewAccessLogMiddleware(logger *log.Logger, skip ...string) *AccessLogMiddleware {
	if logger == nil {
		logger = log.Default()
	}
	m := &AccessLogMiddleware{logger: logger, skip: map[string]bool{}}
	for _, p := range skip {
		m.skip[p] = true
	}
	return m
}

func (m *AccessLogMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		rid := c.Get(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDHeader, rid)

		err := c.Next()

		status := c.Response().StatusCode()
		if m.skip[c.Path()] && status < 400 {
			return err
		}

		cacheStatus := string(c.Response().Header.Peek(response.CacheHeader))
		if cacheStatus == "" {
			cacheStatus = "-"
		}
		m.logger.Printf(
			"[HTTP] Access rid=%s ip=%s method=%s path=%s status=%d latency=%s cache=%s resp_bytes=%d ua=%q",
			rid, c.IP(), c.Method(), c.OriginalURL(), status, time.Since(start), cacheStatus, len(c.Response().Body()), c.Get(fiber.HeaderUserAgent),
		)
		return err
	}
}
