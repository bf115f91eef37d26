// Package chart shapes a delta.Result into the plain series the tracker page
// hands to its charting widgets.
package chart

import (
	"github.com/okian/xptrack/internal/domain/delta"
	"github.com/okian/xptrack/internal/domain/format"
	"github.com/okian/xptrack/internal/domain/skill"
)

// Dataset is one labeled series.
type Dataset struct {
	Label  string   `json:"label"`
	Data   []int64  `json:"data"`
	Colors []string `json:"colors,omitempty"`
	Color  string   `json:"color,omitempty"`
}

// Chart is a set of datasets sharing x-axis labels.
type Chart struct {
	Kind     string    `json:"kind"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
	ReverseY bool      `json:"reverse_y,omitempty"`
}

// Charts holds the four tracker charts.
type Charts struct {
	OverallRank Chart `json:"overall_rank"`
	OverallXP   Chart `json:"overall_xp"`
	XPGained    Chart `json:"xp_gained"`
	RankChange  Chart `json:"rank_change"`
}

// Chart kinds.
const (
	KindLine = "line"
	KindBar  = "bar"
)

// Build lays out the charts for res. Skill bars follow schema order and
// default to zero for skills missing from res.
func Build(res delta.Result, palette Palette) Charts {
	dates := make([]string, len(res.Series))
	overallRank := make([]int64, len(res.Series))
	overallXP := make([]int64, len(res.Series))
	for i, p := range res.Series {
		dates[i] = format.DateLabel(p.Date)
		overallRank[i] = p.OverallRank
		overallXP[i] = p.OverallXP
	}

	skills := skill.Skills()
	labels := make([]string, len(skills))
	colors := make([]string, len(skills))
	xp := make([]int64, len(skills))
	ranks := make([]int64, len(skills))
	for i, c := range skills {
		labels[i] = format.Capitalize(string(c.Key))
		colors[i] = palette.Color(c.Key)
		if d, ok := res.Lookup(c.Key); ok {
			xp[i] = d.XPDelta
			ranks[i] = d.RanksGained()
		}
	}

	return Charts{
		OverallRank: Chart{
			Kind:     KindLine,
			Labels:   dates,
			Datasets: []Dataset{{Label: "Overall rank", Data: overallRank, Color: "yellow"}},
			ReverseY: true,
		},
		OverallXP: Chart{
			Kind:     KindLine,
			Labels:   dates,
			Datasets: []Dataset{{Label: "Total XP", Data: overallXP, Color: "green"}},
		},
		XPGained: Chart{
			Kind:     KindBar,
			Labels:   labels,
			Datasets: []Dataset{{Label: "Experience gained", Data: xp, Colors: colors}},
		},
		RankChange: Chart{
			Kind:     KindBar,
			Labels:   labels,
			Datasets: []Dataset{{Label: "Ranks gained", Data: ranks, Colors: colors}},
		},
	}
}
