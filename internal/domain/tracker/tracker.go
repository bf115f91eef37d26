// Package tracker assembles the experience-tracker page view from a computed
// delta result.
package tracker

import (
	"time"

	"github.com/okian/xptrack/internal/domain/chart"
	"github.com/okian/xptrack/internal/domain/delta"
	"github.com/okian/xptrack/internal/domain/format"
	"github.com/okian/xptrack/internal/domain/skill"
)

// IconPathPrefix prefixes per-category icon paths.
const IconPathPrefix = "/img/skillicons/"

// RankItem is one row of the gains list.
type RankItem struct {
	Category skill.Key     `json:"category"`
	Icon     string        `json:"icon"`
	Name     string        `json:"name"`
	Ranks    format.Change `json:"ranks"`
	XP       format.Change `json:"xp"`
}

// View is everything the tracker page needs.
type View struct {
	Name       string                `json:"name"`
	Start      time.Time             `json:"start"`
	End        time.Time             `json:"end"`
	StartLabel string                `json:"start_label"`
	EndLabel   string                `json:"end_label"`
	Snapshots  int                   `json:"snapshots"`
	Items      []RankItem            `json:"items"`
	Deltas     []delta.CategoryDelta `json:"deltas"`
	Charts     chart.Charts          `json:"charts"`
}

// Build renders res for account. start and end label the requested window
// and fall back to the first and last snapshot when zero.
func Build(f *format.Formatter, palette chart.Palette, account string, start, end time.Time, res delta.Result) View {
	if f == nil {
		f = format.Default()
	}
	if start.IsZero() {
		start = res.Start()
	}
	if end.IsZero() {
		end = res.End()
	}

	items := make([]RankItem, 0, len(res.Deltas))
	for _, d := range res.Deltas {
		items = append(items, RankItem{
			Category: d.Category,
			Icon:     IconPathPrefix + string(d.Category) + ".png",
			Name:     format.Capitalize(string(d.Category)),
			Ranks:    f.Change(d.RanksGained()),
			XP:       f.Change(d.XPDelta),
		})
	}

	return View{
		Name:       account,
		Start:      start,
		End:        end,
		StartLabel: format.DateLabel(start),
		EndLabel:   format.DateLabel(end),
		Snapshots:  len(res.Series),
		Items:      items,
		Deltas:     res.Deltas,
		Charts:     chart.Build(res, palette),
	}
}
