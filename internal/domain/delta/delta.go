// Package delta computes experience gained and rank change between the first
// and last snapshots of a range, plus the overall-experience trend across it.
//
// Compute is a pure function: it reads its input, allocates a fresh Result and
// shares nothing between calls.
package delta

import (
	"sort"
	"time"

	"github.com/okian/xptrack/internal/domain/model"
	"github.com/okian/xptrack/internal/domain/skill"
)

// Point is one entry of the overall trend.
type Point struct {
	Date        time.Time `json:"date"`
	OverallXP   int64     `json:"overall_xp"`
	OverallRank int64     `json:"overall_rank"`
}

// CategoryDelta is the end-minus-start change of one category.
// A negative RankDelta is an improvement.
type CategoryDelta struct {
	Category  skill.Key `json:"category"`
	RankDelta int64     `json:"rank_delta"`
	XPDelta   int64     `json:"xp_delta"`
}

// RanksGained returns the rank change in "ranks gained" terms.
func (d CategoryDelta) RanksGained() int64 { return -d.RankDelta }

// Result is the output of Compute.
type Result struct {
	// Series has one point per input snapshot, in input order.
	Series []Point `json:"series"`
	// Deltas is sorted by category key with overall last.
	Deltas []CategoryDelta `json:"deltas"`
}

// Lookup returns the delta for k, if present.
func (r Result) Lookup(k skill.Key) (CategoryDelta, bool) {
	for _, d := range r.Deltas {
		if d.Category == k {
			return d, true
		}
	}
	return CategoryDelta{}, false
}

// Start and End return the comparison instants; zero for an empty Result.
func (r Result) Start() time.Time {
	if len(r.Series) == 0 {
		return time.Time{}
	}
	return r.Series[0].Date
}

func (r Result) End() time.Time {
	if len(r.Series) == 0 {
		return time.Time{}
	}
	return r.Series[len(r.Series)-1].Date
}

type pair struct {
	rank int64
	xp   int64
}

// OverallXP sums the xp of every non-overall schema category in s.
func OverallXP(s model.Snapshot) int64 {
	var total int64
	for _, c := range skill.Skills() {
		total += s.Fields[c.XPField]
	}
	return total
}

// fold projects one snapshot onto the schema. Fields outside the schema are
// skipped; overall xp comes from OverallXP, never from the input.
func fold(s model.Snapshot) map[skill.Key]pair {
	out := make(map[skill.Key]pair, len(s.Fields)/2+1)
	for name, v := range s.Fields {
		key, part, ok := skill.Classify(name)
		if !ok {
			continue
		}
		p := out[key]
		switch part {
		case skill.PartRank:
			p.rank = v
		case skill.PartXP:
			if key == skill.Overall {
				continue
			}
			p.xp = v
		}
		out[key] = p
	}
	p := out[skill.Overall]
	p.xp = OverallXP(s)
	out[skill.Overall] = p
	return out
}

// Compute aggregates snapshots ordered by date. An empty input yields an
// empty Result.
func Compute(snapshots []model.Snapshot) Result {
	if len(snapshots) == 0 {
		return Result{Series: []Point{}, Deltas: []CategoryDelta{}}
	}

	series := make([]Point, len(snapshots))
	for i, s := range snapshots {
		series[i] = Point{
			Date:        s.Date,
			OverallXP:   OverallXP(s),
			OverallRank: s.Fields[skill.OverallCategory().RankField],
		}
	}

	start := fold(snapshots[0])
	end := fold(snapshots[len(snapshots)-1])

	keys := make(map[skill.Key]struct{}, len(start)+len(end))
	for k := range start {
		keys[k] = struct{}{}
	}
	for k := range end {
		keys[k] = struct{}{}
	}

	deltas := make([]CategoryDelta, 0, len(keys))
	for k := range keys {
		a, b := start[k], end[k]
		deltas = append(deltas, CategoryDelta{
			Category:  k,
			RankDelta: b.rank - a.rank,
			XPDelta:   b.xp - a.xp,
		})
	}
	SortDeltas(deltas)

	return Result{Series: series, Deltas: deltas}
}

// SortDeltas orders by category key ascending, with overall forced last.
func SortDeltas(deltas []CategoryDelta) {
	sort.Slice(deltas, func(i, j int) bool {
		a, b := deltas[i].Category, deltas[j].Category
		if a == skill.Overall || b == skill.Overall {
			return b == skill.Overall && a != skill.Overall
		}
		return a < b
	})
}
