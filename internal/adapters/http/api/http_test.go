package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/xptrack/internal/adapters/http/api"
	"github.com/okian/xptrack/internal/adapters/repository"
	"github.com/okian/xptrack/internal/domain/model"
	"github.com/okian/xptrack/internal/domain/plugin"
	"github.com/okian/xptrack/internal/domain/tracker"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockDeduper struct {
	seen map[string]bool
}

func (m *mockDeduper) SeenAndRecord(_ context.Context, id string) bool {
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if m.seen[id] {
		return true
	}
	m.seen[id] = true
	return false
}

func (m *mockDeduper) Unrecord(_ context.Context, id string) {
	delete(m.seen, id)
}

func (m *mockDeduper) Size() int64 {
	return int64(len(m.seen))
}

type mockDeps struct {
	mockDeduper
	enqueueOK bool
	enqueued  []model.Snapshot

	view     tracker.View
	trackErr error
	gotStart time.Time
	gotEnd   time.Time

	cards []plugin.Card
}

func (m *mockDeps) Enqueue(_ context.Context, s model.Snapshot) bool {
	if !m.enqueueOK {
		return false
	}
	m.enqueued = append(m.enqueued, s)
	return true
}

func (m *mockDeps) Track(_ context.Context, account string, start, end time.Time) (tracker.View, error) {
	m.gotStart, m.gotEnd = start, end
	if m.trackErr != nil {
		return tracker.View{}, m.trackErr
	}
	v := m.view
	v.Name = account
	return v, nil
}

func (m *mockDeps) PluginCards(author string, installed map[string]bool) []plugin.Card {
	var out []plugin.Card
	for _, c := range m.cards {
		if author != "" && !strings.EqualFold(c.AuthorLink.Text, author) {
			continue
		}
		c.Installed = installed[c.Name]
		out = append(out, c)
	}
	return out
}

type mockStats struct{}

func (mockStats) GetStats() map[string]any {
	return map[string]any{"queue_size": 3, "store_records": 7}
}

func newMux(deps *mockDeps, opts ...api.ServerOption) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, mockStats{}, opts...).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode(rec *httptest.ResponseRecorder) map[string]any {
	out := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return out
}

func TestSnapshotsHandler(t *testing.T) {
	const valid = `{"account":"Zezima","snapshot":{"date":"2024-03-01","mining_rank":100,"mining_xp":500}}`

	Convey("Given a snapshots endpoint with room in the queue", t, func() {
		deps := &mockDeps{enqueueOK: true}
		mux := newMux(deps)

		Convey("When posting a valid snapshot", func() {
			rec := do(mux, http.MethodPost, "/snapshots", valid)

			Convey("Then it is accepted and enqueued", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				body := decode(rec)
				So(body["status"], ShouldEqual, "accepted")
				So(body["duplicate"], ShouldEqual, false)
				So(body["id"], ShouldNotBeEmpty)
				So(len(deps.enqueued), ShouldEqual, 1)
				So(deps.enqueued[0].Fields["mining_xp"], ShouldEqual, 500)
			})

			Convey("And posting it again", func() {
				again := do(mux, http.MethodPost, "/snapshots",
					`{"account":"  zezima ","snapshot":{"date":"2024-03-01","mining_rank":90}}`)

				Convey("Then it is reported as a duplicate", func() {
					So(again.Code, ShouldEqual, http.StatusOK)
					So(decode(again)["duplicate"], ShouldEqual, true)
					So(len(deps.enqueued), ShouldEqual, 1)
				})
			})
		})

		Convey("When the body is not JSON", func() {
			rec := do(mux, http.MethodPost, "/snapshots", `{nope`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(rec)["code"], ShouldEqual, "bad_request")
		})

		Convey("When the account is blank", func() {
			rec := do(mux, http.MethodPost, "/snapshots", `{"account":"   ","snapshot":{"date":"2024-03-01"}}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(rec)["message"], ShouldContainSubstring, "account")
		})

		Convey("When the snapshot has no date", func() {
			rec := do(mux, http.MethodPost, "/snapshots", `{"account":"Zezima","snapshot":{"mining_xp":5}}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(rec)["message"], ShouldContainSubstring, "date")
		})

		Convey("When a schema value is fractional", func() {
			body := `{"account":"Zezima","snapshot":{"date":"2024-03-01","mining_xp":1.5}}`

			Convey("Then lenient mode drops the field", func() {
				rec := do(mux, http.MethodPost, "/snapshots", body)
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				_, ok := deps.enqueued[0].Fields["mining_xp"]
				So(ok, ShouldBeFalse)
			})

			Convey("Then strict mode rejects it", func() {
				strict := newMux(&mockDeps{enqueueOK: true}, api.WithStrictSnapshots(true))
				rec := do(strict, http.MethodPost, "/snapshots", body)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the body exceeds the size cap", func() {
			small := newMux(&mockDeps{enqueueOK: true}, api.WithMaxBodyBytes(16))
			rec := do(small, http.MethodPost, "/snapshots", valid)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When using GET", func() {
			rec := do(mux, http.MethodGet, "/snapshots", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})

	Convey("Given a full queue", t, func() {
		deps := &mockDeps{enqueueOK: false}
		mux := newMux(deps)

		Convey("When posting a snapshot", func() {
			rec := do(mux, http.MethodPost, "/snapshots", valid)

			Convey("Then it returns backpressure and forgets the key", func() {
				So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decode(rec)["code"], ShouldEqual, "backpressure")
				So(deps.Size(), ShouldEqual, 0)
			})
		})
	})
}

func TestTrackerHandler(t *testing.T) {
	Convey("Given a tracker endpoint", t, func() {
		deps := &mockDeps{view: tracker.View{Snapshots: 2}}
		mux := newMux(deps)

		Convey("When requesting an account without a window", func() {
			rec := do(mux, http.MethodGet, "/tracker/Zezima", "")

			Convey("Then the provider gets zero bounds", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.gotStart.IsZero(), ShouldBeTrue)
				So(deps.gotEnd.IsZero(), ShouldBeTrue)
				var v tracker.View
				So(json.Unmarshal(rec.Body.Bytes(), &v), ShouldBeNil)
				So(v.Name, ShouldEqual, "Zezima")
				So(v.Snapshots, ShouldEqual, 2)
			})
		})

		Convey("When the end is a bare date", func() {
			rec := do(mux, http.MethodGet, "/tracker/Zezima?start=2024-03-01&end=2024-03-07", "")

			Convey("Then it covers the whole day", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.gotStart.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
				So(deps.gotEnd.Equal(time.Date(2024, 3, 7, 23, 59, 59, int(999*time.Millisecond), time.UTC)), ShouldBeTrue)
			})
		})

		Convey("When the start is RFC3339", func() {
			rec := do(mux, http.MethodGet, "/tracker/Zezima?start=2024-03-01T12:00:00%2B02:00", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(deps.gotStart.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)), ShouldBeTrue)
		})

		Convey("When a bound is garbage", func() {
			rec := do(mux, http.MethodGet, "/tracker/Zezima?start=yesterday", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the account is missing", func() {
			rec := do(mux, http.MethodGet, "/tracker/", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the account is unknown", func() {
			deps.trackErr = repository.ErrNotFound
			rec := do(mux, http.MethodGet, "/tracker/nobody", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(decode(rec)["code"], ShouldEqual, "not_found")
		})

		Convey("When the window holds no snapshots", func() {
			deps.trackErr = fmt.Errorf("track: %w", repository.ErrEmptyRange)
			rec := do(mux, http.MethodGet, "/tracker/Zezima", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the range is inverted", func() {
			deps.trackErr = repository.ErrInvalidRange
			rec := do(mux, http.MethodGet, "/tracker/Zezima?start=2024-03-07&end=2024-03-01", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the provider fails", func() {
			deps.trackErr = errors.New("disk on fire")
			rec := do(mux, http.MethodGet, "/tracker/Zezima", "")
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestPluginsHandler(t *testing.T) {
	Convey("Given a plugin hub with two authors", t, func() {
		deps := &mockDeps{cards: []plugin.Card{
			{Name: "xp-drops-plus", AuthorLink: plugin.Link{Text: "skillerkid"}},
			{Name: "goal-tracker", AuthorLink: plugin.Link{Text: "mapleleaf"}},
			{Name: "rank-watch", AuthorLink: plugin.Link{Text: "skillerkid"}},
		}}
		mux := newMux(deps)

		Convey("When listing every card", func() {
			rec := do(mux, http.MethodGet, "/plugin-hub?installed=goal-tracker", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			body := decode(rec)
			So(body["count"], ShouldEqual, 3)
			cards := body["cards"].([]any)
			So(cards[1].(map[string]any)["installed"], ShouldEqual, true)
		})

		Convey("When filtering by author", func() {
			rec := do(mux, http.MethodGet, "/plugin-hub/SkillerKid", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(decode(rec)["count"], ShouldEqual, 2)
		})

		Convey("When the author has nothing", func() {
			rec := do(mux, http.MethodGet, "/plugin-hub/ghost", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the path is nested", func() {
			rec := do(mux, http.MethodGet, "/plugin-hub/a/b", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given the service endpoints", t, func() {
		mux := newMux(&mockDeps{})

		Convey("Then /healthz serves metrics", func() {
			rec := do(mux, http.MethodGet, "/healthz", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then /stats serves the provider map", func() {
			rec := do(mux, http.MethodGet, "/stats", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(decode(rec)["store_records"], ShouldEqual, 7)
		})

		Convey("Then POST /stats is not routed", func() {
			rec := do(mux, http.MethodPost, "/stats", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestKindError(t *testing.T) {
	Convey("Given a wrapped kind error", t, func() {
		cause := errors.New("boom")
		err := api.WrapKind("op", api.ErrBackpressure, cause)

		Convey("Then both kind and cause are reachable", func() {
			So(errors.Is(err, api.ErrBackpressure), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "op: backpressure: boom")
		})

		Convey("Then Wrap of nil is nil", func() {
			So(api.Wrap("op", nil), ShouldBeNil)
		})

		Convey("Then NewKind renders without a cause", func() {
			So(api.NewKind("op", api.ErrNotFound).Error(), ShouldEqual, "op: not found")
		})
	})
}
