package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/notes-backend/internal/metrics"
	"github.com/pribylovaa/notes-backend/internal/pkg/log"
)

// capHandler запоминает последнюю запись лога.
type capHandler struct {
	mu      sync.Mutex
	base    []slog.Attr
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[string]any, len(h.base)+8)
	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})

	h.lastMsg = r.Message
	h.lastLvl = r.Level
	h.attrs = out
	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.base = append(h.base, attrs...)
	return h
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

func TestLogging_PropagatesRequestID(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	var seenRID string
	var seenLogger *slog.Logger

	handler := Logging(slog.New(h))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenRID = log.RequestID(r.Context())
		seenLogger = log.From(r.Context())
		time.Sleep(2 * time.Millisecond)
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hi"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set(RequestIDHeader, "rid-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, "rid-123", seenRID)
	require.NotNil(t, seenLogger)
	require.Equal(t, "rid-123", w.Header().Get(RequestIDHeader))

	require.Equal(t, "http", h.lastMsg)
	require.Equal(t, slog.LevelInfo, h.lastLvl)
	require.Equal(t, "rid-123", h.attrs["request_id"])
	require.Equal(t, "POST", h.attrs["method"])
	require.Equal(t, "/auth/login", h.attrs["path"])
	require.EqualValues(t, http.StatusTeapot, h.attrs["status"])
	require.EqualValues(t, 2, h.attrs["bytes"])

	d, ok := h.attrs["dur"].(time.Duration)
	require.True(t, ok)
	require.Greater(t, d, time.Duration(0))
}

func TestLogging_GeneratesRequestID(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	handler := Logging(slog.New(h))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	rid := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(rid)
	require.NoError(t, err)
	require.Equal(t, rid, h.attrs["request_id"])
	require.EqualValues(t, http.StatusOK, h.attrs["status"])
}

func TestRecover_PanicToInternal_AndLogsStack(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	handler := Recover(slog.New(h))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	})

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, false, body["success"])
	require.Equal(t, "Internal server error", body["message"])
	require.NotContains(t, w.Body.String(), "boom")

	require.Equal(t, "panic_recovered", h.lastMsg)
	require.Equal(t, slog.LevelError, h.lastLvl)
	require.Equal(t, "boom", h.attrs["panic"])
	require.NotEmpty(t, h.attrs["stack"])
}

func TestRecover_AbortHandlerPropagates(t *testing.T) {
	t.Parallel()

	handler := Recover(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	require.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestTimeout_SetsDeadline(t *testing.T) {
	t.Parallel()

	var dl time.Time
	var has bool
	handler := Timeout(50 * time.Millisecond)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		dl, has = r.Context().Deadline()
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, has)
	require.WithinDuration(t, time.Now().Add(50*time.Millisecond), dl, 50*time.Millisecond)
}

func TestTimeout_KeepsExistingDeadline(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()
	want, _ := parent.Deadline()

	var got time.Time
	handler := Timeout(time.Millisecond)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, _ = r.Context().Deadline()
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(parent)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, want, got)
}

func TestTimeout_Disabled(t *testing.T) {
	t.Parallel()

	var has bool
	handler := Timeout(0)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, has = r.Context().Deadline()
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.False(t, has)
}

func TestTimeout_LogsExceededDeadline(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	handler := Timeout(5 * time.Millisecond)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(log.Into(req.Context(), slog.New(h)))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, "request_timeout", h.lastMsg)
	require.Equal(t, slog.LevelWarn, h.lastLvl)
	require.Equal(t, 5*time.Millisecond, h.attrs["limit"])
	elapsed, ok := h.attrs["elapsed"].(time.Duration)
	require.True(t, ok)
	require.GreaterOrEqual(t, elapsed, 5*time.Millisecond)
}

func TestTimeout_QuietWithinDeadline(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	handler := Timeout(time.Second)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(log.Into(req.Context(), slog.New(h)))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Empty(t, h.lastMsg)
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/accounts/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/accounts/"+id, nil))
	}

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() != "notes_http_requests_total" {
			continue
		}
		require.Len(t, f.GetMetric(), 1)
		found = true

		labels := map[string]string{}
		for _, lp := range f.GetMetric()[0].GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}
		require.Equal(t, "/accounts/{id}", labels["route"])
		require.Equal(t, "204", labels["code"])
		require.Equal(t, 3.0, f.GetMetric()[0].GetCounter().GetValue())
	}
	require.True(t, found)
	n, err := testutil.GatherAndCount(reg, "notes_http_request_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
