package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	HeaderIdempotencyKey   = "Idempotency-Key"
	HeaderRequestTimestamp = "X-Request-Timestamp"
	HeaderReplayed         = "Idempotent-Replayed"
)

const (
	// a reservation outlives a stuck handler by at most this long
	pendingTTL   = 60 * time.Second
	maxClockSkew = 10 * time.Minute
	storeTimeout = 2 * time.Second
)

type record struct {
	Pending     bool      `json:"pending"`
	Status      int       `json:"status,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Body        []byte    `json:"body,omitempty"`
	BodyHash    string    `json:"body_hash"`
	RequestedAt time.Time `json:"requested_at"`
	StoredAt    time.Time `json:"stored_at"`
}

type capture struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (w *capture) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *capture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func reject(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, map[string]string{"code": code, "error": msg})
}

// IdempotencyMiddleware makes ledger writes safe to retry. Every mutating
// request carries Idempotency-Key and X-Request-Timestamp; the first
// response per (caller, method, path, key) is stored for ttl and replayed to
// identical retries. 5xx responses are not stored so the client may retry.
// It must run after JWTAuth.
func IdempotencyMiddleware(rdb redis.Cmdable, ttl time.Duration, log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			idemKey := strings.TrimSpace(req.Header.Get(HeaderIdempotencyKey))
			if idemKey == "" {
				return reject(c, http.StatusBadRequest, "missing_idempotency_key", "missing "+HeaderIdempotencyKey)
			}
			if !validKey(idemKey) {
				return reject(c, http.StatusBadRequest, "invalid_idempotency_key", HeaderIdempotencyKey+" must be a lowercase UUID or 32 hex characters")
			}
			at, err := parseTimestamp(req.Header.Get(HeaderRequestTimestamp))
			if err != nil {
				return reject(c, http.StatusBadRequest, "invalid_request_timestamp", err.Error())
			}
			if t := now(); at.Before(t.Add(-maxClockSkew)) || at.After(t.Add(maxClockSkew)) {
				return reject(c, http.StatusBadRequest, "invalid_request_timestamp", HeaderRequestTimestamp+" too skewed")
			}

			caller, ok := CallerFrom(c)
			if !ok {
				return reject(c, http.StatusUnauthorized, "unauthorized", "unauthenticated caller")
			}

			var body []byte
			if req.Body != nil {
				if body, err = io.ReadAll(req.Body); err != nil {
					return reject(c, http.StatusBadRequest, "invalid_body", "unreadable body")
				}
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			hash := fingerprint(body)

			key := storeKey(caller, req.Method, req.URL.Path, idemKey)
			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()

			reserved, err := reserve(ctx, rdb, key, record{Pending: true, BodyHash: hash, RequestedAt: at, StoredAt: now()})
			if err != nil {
				log.WarnContext(ctx, "idempotency store unavailable", "err", err)
				return reject(c, http.StatusServiceUnavailable, "idempotency_unavailable", "idempotency store unavailable")
			}
			if !reserved {
				prev, err := lookup(ctx, rdb, key)
				if err != nil {
					log.WarnContext(ctx, "idempotency record unreadable", "key", key, "err", err)
					return reject(c, http.StatusConflict, "request_in_progress", "request is already in progress")
				}
				if prev.BodyHash != hash {
					return reject(c, http.StatusConflict, "idempotency_key_reused", HeaderIdempotencyKey+" reused with a different body")
				}
				if prev.Pending {
					return reject(c, http.StatusConflict, "request_in_progress", "request is already in progress")
				}
				c.Response().Header().Set(HeaderReplayed, "true")
				if len(prev.Body) == 0 {
					return c.NoContent(prev.Status)
				}
				return c.Blob(prev.Status, prev.ContentType, prev.Body)
			}

			w := &capture{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = w
			if err := next(c); err != nil {
				c.Error(err)
			}

			// the handler is done with the request context; store independently
			storeCtx, storeCancel := context.WithTimeout(context.Background(), storeTimeout)
			defer storeCancel()
			if w.status >= http.StatusInternalServerError {
				if err := release(storeCtx, rdb, key); err != nil {
					log.Warn("idempotency release failed", "key", key, "err", err)
				}
				return nil
			}
			final := record{
				Status:      w.status,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        w.buf.Bytes(),
				BodyHash:    hash,
				RequestedAt: at,
				StoredAt:    now(),
			}
			if err := complete(storeCtx, rdb, key, final, ttl); err != nil {
				log.Warn("idempotency record save failed", "key", key, "err", err)
			}
			return nil
		}
	}
}
