package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/xptrack/internal/domain/tracker"
)

// TrackerDependencies defines the interface for tracker reads. Zero start or
// end asks the provider for its default window.
type TrackerDependencies interface {
	Track(ctx context.Context, account string, start, end time.Time) (tracker.View, error)
}

// TrackerHandler handles tracker requests.
type TrackerHandler struct {
	deps TrackerDependencies
}

// NewTrackerHandler creates a new tracker handler.
func NewTrackerHandler(deps TrackerDependencies) *TrackerHandler {
	return &TrackerHandler{deps: deps}
}

// HandleGetTracker handles GET /tracker/{account}?start=&end= requests.
func (h *TrackerHandler) HandleGetTracker(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_tracker"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	account := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/tracker/"))
	if account == "" || strings.Contains(account, "/") {
		writeErr(w, NewKind(op, ErrBadRequest))
		return
	}

	q := r.URL.Query()
	start, err := parseBound(q.Get("start"), false)
	if err != nil {
		writeErr(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	end, err := parseBound(q.Get("end"), true)
	if err != nil {
		writeErr(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	view, err := h.deps.Track(r.Context(), account, start, end)
	if err != nil {
		writeErr(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// parseBound accepts RFC3339 or YYYY-MM-DD. A date-only upper bound covers
// the whole day.
func parseBound(raw string, upper bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q; use RFC3339 or YYYY-MM-DD", raw)
	}
	if upper {
		t = t.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	return t.UTC(), nil
}
