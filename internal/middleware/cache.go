package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// bodyCapture duplicates the response body while forwarding it to the
// client so successful payloads can be stored in Redis.
type bodyCapture struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *bodyCapture) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// CacheJSON caches successful JSON responses of a read-only route in
// Redis for the given TTL.  The stock endpoint tolerates slightly
// stale numbers, so a short TTL takes the hot polling load off the
// database during a sale.  A nil client disables caching.
func CacheJSON(rdb *redis.Client, ttl time.Duration) echo.MiddlewareFunc {
	if rdb == nil || ttl <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			key := "cache:" + c.Path() + "?" + c.Request().URL.RawQuery

			ctx := c.Request().Context()
			if body, err := rdb.Get(ctx, key).Bytes(); err == nil {
				return c.JSONBlob(http.StatusOK, body)
			}

			cw := &bodyCapture{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = cw
			if err := next(c); err != nil {
				return err
			}
			if cw.status == http.StatusOK && cw.buf.Len() > 0 {
				_ = rdb.Set(ctx, key, cw.buf.Bytes(), ttl).Err()
			}
			return nil
		}
	}
}
