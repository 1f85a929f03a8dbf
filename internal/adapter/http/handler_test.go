package http

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type healthBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Time   string            `json:"time"`
}

func callHealth(t *testing.T, h *Handler) (int, healthBody) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(stdhttp.MethodGet, "/health", nil), rec)
	if err := h.Health(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var body healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v; raw=%s", err, rec.Body.String())
	}
	return rec.Code, body
}

func TestHealth_AllChecksPass(t *testing.T) {
	ok := func(context.Context) error { return nil }
	start := time.Now().UTC()
	code, body := callHealth(t, NewHandler(Check{"database", ok}, Check{"redis", ok}))

	if code != stdhttp.StatusOK || body.Status != "ok" {
		t.Fatalf("got %d %+v", code, body)
	}
	if body.Checks["database"] != "ok" || body.Checks["redis"] != "ok" {
		t.Fatalf("checks = %v", body.Checks)
	}
	parsed, err := time.Parse(time.RFC3339Nano, body.Time)
	if err != nil || parsed.Location() != time.UTC {
		t.Fatalf("time %q not RFC3339Nano UTC: %v", body.Time, err)
	}
	if parsed.Before(start.Add(-2*time.Second)) || parsed.After(time.Now().Add(2*time.Second)) {
		t.Fatalf("time %v not fresh", parsed)
	}
}

func TestHealth_Degraded(t *testing.T) {
	code, body := callHealth(t, NewHandler(
		Check{"database", func(context.Context) error { return nil }},
		Check{"redis", func(context.Context) error { return errors.New("connection refused") }},
	))
	if code != stdhttp.StatusServiceUnavailable || body.Status != "degraded" {
		t.Fatalf("got %d %+v", code, body)
	}
	if body.Checks["redis"] != "connection refused" || body.Checks["database"] != "ok" {
		t.Fatalf("checks = %v", body.Checks)
	}
}

func TestHealth_NoChecks(t *testing.T) {
	if code, body := callHealth(t, NewHandler()); code != stdhttp.StatusOK || body.Status != "ok" {
		t.Fatalf("got %d %+v", code, body)
	}
}
