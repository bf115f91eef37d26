package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/okian/xptrack/internal/domain/dedupe"
	"github.com/okian/xptrack/internal/domain/model"
	"github.com/okian/xptrack/pkg/metrics"
)

const defaultMaxBodyBytes = 1 << 20

// SnapshotDependencies defines what ingestion needs.
type SnapshotDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, s model.Snapshot) bool
}

// snapshotRequest is the POST /snapshots body.
type snapshotRequest struct {
	Account  string         `json:"account"  validate:"required,max=64"`
	Snapshot map[string]any `json:"snapshot" validate:"required,min=1"`
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	ID        string `json:"id,omitempty"`
}

// SnapshotsHandler handles snapshot ingestion.
type SnapshotsHandler struct {
	deps     SnapshotDependencies
	strict   bool
	maxBytes int64
	validate *validator.Validate
}

// NewSnapshotsHandler creates a new snapshots handler.
func NewSnapshotsHandler(deps SnapshotDependencies, strict bool, maxBytes int64) *SnapshotsHandler {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBodyBytes
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &SnapshotsHandler{
		deps:     deps,
		strict:   strict,
		maxBytes: maxBytes,
		validate: v,
	}
}

// HandlePostSnapshot handles POST /snapshots requests.
func (h *SnapshotsHandler) HandlePostSnapshot(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_snapshot"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req snapshotRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBytes))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		metrics.RecordSnapshotRejected("decode")
		writeErr(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	req.Account = strings.TrimSpace(req.Account)
	if err := h.validate.Struct(req); err != nil {
		metrics.RecordSnapshotRejected("validation")
		writeErr(w, WrapKind(op, ErrBadRequest, describeValidation(err)))
		return
	}

	snap, err := model.ParseRecord(req.Account, req.Snapshot, h.strict)
	if err != nil {
		metrics.RecordSnapshotRejected("malformed")
		writeErr(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	// Idempotency check - mark as seen first
	key := snap.DedupeKey()
	if h.deps.SeenAndRecord(r.Context(), key) {
		metrics.RecordSnapshotDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	if ok := h.deps.Enqueue(r.Context(), snap); !ok {
		// Rollback the "seen" status since enqueue failed
		h.deps.Unrecord(r.Context(), key)
		metrics.RecordSnapshotRejected("backpressure")
		writeErr(w, NewKind(op, ErrBackpressure))
		return
	}
	metrics.RecordSnapshotAccepted()
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ID: snap.ID})
}

// describeValidation turns validator output into a short message naming the
// first failing field.
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("field %s failed %s", fe.Field(), fe.Tag())
	}
	return err
}
