// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/xptrack/internal/domain/skill"
)

// Reserved flat-record keys that are not category fields.
const (
	FieldDate = "date"
	FieldID   = "id"
)

// Snapshot is one time-stamped record of an account's rank/xp values.
// Fields holds the flat "<category>_rank" / "<category>_xp" values.
type Snapshot struct {
	ID      string
	Account string
	Date    time.Time
	Fields  map[string]int64
}

// Value returns the field value and whether it was present.
func (s Snapshot) Value(field string) (int64, bool) {
	v, ok := s.Fields[field]
	return v, ok
}

// DedupeKey identifies a snapshot by account and instant. Two submissions
// with the same key are the same observation.
func (s Snapshot) DedupeKey() string {
	return DedupeKey(s.Account, s.Date)
}

// DedupeKey builds the key used for idempotent ingestion.
func DedupeKey(account string, date time.Time) string {
	return NormalizeAccount(account) + "|" + strconv.FormatInt(date.UTC().UnixMilli(), 10)
}

// NormalizeAccount folds an account name for lookups.
func NormalizeAccount(account string) string {
	return strings.ToLower(strings.TrimSpace(account))
}

// SortedFields returns the field names in lexical order.
func (s Snapshot) SortedFields() []string {
	names := make([]string, 0, len(s.Fields))
	for k := range s.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// NewID returns a fresh snapshot identifier.
func NewID() string {
	return uuid.NewString()
}

// MalformedSnapshotError reports a flat record that cannot become a Snapshot.
type MalformedSnapshotError struct {
	Field  string
	Reason string
}

func (e *MalformedSnapshotError) Error() string {
	return fmt.Sprintf("malformed snapshot: field %q: %s", e.Field, e.Reason)
}

// ParseRecord converts a flat JSON-decoded record into a Snapshot.
//
// The date is required in every mode. Schema fields with values that are not
// integral numbers fail in strict mode and are dropped otherwise. Fields
// outside the schema and any supplied overall_xp are ignored; overall
// experience is always derived.
func ParseRecord(account string, raw map[string]any, strict bool) (Snapshot, error) {
	dateRaw, ok := raw[FieldDate]
	if !ok || dateRaw == nil {
		return Snapshot{}, &MalformedSnapshotError{Field: FieldDate, Reason: "missing"}
	}
	date, err := ParseDate(dateRaw)
	if err != nil {
		return Snapshot{}, &MalformedSnapshotError{Field: FieldDate, Reason: err.Error()}
	}

	snap := Snapshot{
		ID:      NewID(),
		Account: strings.TrimSpace(account),
		Date:    date,
		Fields:  make(map[string]int64, len(raw)),
	}
	if id, ok := raw[FieldID].(string); ok && strings.TrimSpace(id) != "" {
		snap.ID = strings.TrimSpace(id)
	}

	for name, v := range raw {
		key, part, ok := skill.Classify(name)
		if !ok {
			continue
		}
		if key == skill.Overall && part == skill.PartXP {
			continue
		}
		n, err := toInt64(v)
		if err != nil {
			if strict {
				return Snapshot{}, &MalformedSnapshotError{Field: name, Reason: err.Error()}
			}
			continue
		}
		snap.Fields[name] = n
	}
	return snap, nil
}

// TruncateDate returns t in UTC at millisecond precision, the resolution
// stores and dedupe keys compare at.
func TruncateDate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// ParseDate accepts RFC3339 strings, YYYY-MM-DD strings, or unix milliseconds.
func ParseDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return TruncateDate(d), nil
	case string:
		s := strings.TrimSpace(d)
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return TruncateDate(t), nil
		}
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			return t.UTC(), nil
		}
		return time.Time{}, fmt.Errorf("unparsable date %q", d)
	case float64, json.Number, int, int64:
		ms, err := toInt64(d)
		if err != nil {
			return time.Time{}, err
		}
		return time.UnixMilli(ms).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported date type %T", v)
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, fmt.Errorf("not an integer: %v", n)
		}
		if n > math.MaxInt64 || n < math.MinInt64 {
			return 0, fmt.Errorf("out of range: %v", n)
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("not an integer: %s", n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}
