package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avolkov/inkpress/internal/logging"
	"github.com/avolkov/inkpress/internal/store"
)

// idParam extracts the {id} chi URL parameter as int64.
func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// pageParam returns the requested page number, defaulting to 1.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// clientIP extracts the real client IP, respecting reverse proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx != -1 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return strings.TrimSpace(forwarded)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// recordEvent persists an application event. Failures are logged and do
// not interrupt the request.
func recordEvent(ctx context.Context, queries *store.Queries, level, message string, meta map[string]any) {
	metaJSON := "{}"
	if len(meta) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			metaJSON = string(b)
		}
	}

	if err := queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Message:   message,
		Meta:      metaJSON,
		CreatedAt: time.Now(),
	}); err != nil {
		slog.Error("failed to record event", "error", err, "message", message)
	}
}

// recordInfoEvent persists an informational event.
func recordInfoEvent(ctx context.Context, queries *store.Queries, message string, meta map[string]any) {
	recordEvent(ctx, queries, logging.EventLevelInfo, message, meta)
}

// recordWarningEvent persists a warning event.
func recordWarningEvent(ctx context.Context, queries *store.Queries, message string, meta map[string]any) {
	recordEvent(ctx, queries, logging.EventLevelWarning, message, meta)
}
