package seed

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/xptrack/internal/domain/model"
	"github.com/okian/xptrack/internal/domain/skill"
)

// Ranges for synthetic values.
const (
	maxStartXP   = 2_000_000
	maxDailyGain = 40_000
	maxStartRank = 500_000
	maxRankSwing = 2_000
	trainOneIn   = 3 // a skill is trained on roughly one day in three
)

// History is one account's snapshots in ascending date order.
type History struct {
	Account   string
	Snapshots []model.Snapshot
}

// Generate builds cfg.Accounts histories of cfg.Days daily snapshots each.
// Experience never decreases; ranks drift and stay at least 1. The same Seed
// gives the same values, account names are always fresh.
func Generate(cfg *Config) []History {
	r := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	start := cfg.Start
	if start.IsZero() {
		start = time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -cfg.Days)
	}

	out := make([]History, cfg.Accounts)
	for a := range out {
		out[a] = History{
			Account:   "seed-" + uuid.NewString()[:accountIDChars],
			Snapshots: generateHistory(r, start, cfg.Days),
		}
		for i := range out[a].Snapshots {
			out[a].Snapshots[i].Account = out[a].Account
		}
	}
	return out
}

func generateHistory(r *rand.Rand, start time.Time, days int) []model.Snapshot {
	skills := skill.Skills()
	xp := make([]int64, len(skills))
	rank := make([]int64, len(skills))
	for i := range skills {
		xp[i] = r.Int64N(maxStartXP)
		rank[i] = 1 + r.Int64N(maxStartRank)
	}
	overallRank := 1 + r.Int64N(maxStartRank)

	out := make([]model.Snapshot, days)
	for d := range out {
		fields := make(map[string]int64, 2*len(skills)+1)
		for i, c := range skills {
			if d > 0 && r.IntN(trainOneIn) == 0 {
				xp[i] += r.Int64N(maxDailyGain)
				rank[i] = max(1, rank[i]-r.Int64N(maxRankSwing))
			} else if d > 0 {
				rank[i] += r.Int64N(maxRankSwing / 4)
			}
			fields[c.XPField] = xp[i]
			fields[c.RankField] = rank[i]
		}
		if d > 0 {
			overallRank = max(1, overallRank+r.Int64N(maxRankSwing)-maxRankSwing/2)
		}
		fields[skill.OverallCategory().RankField] = overallRank

		out[d] = model.Snapshot{
			ID:     model.NewID(),
			Date:   start.AddDate(0, 0, d),
			Fields: fields,
		}
	}
	return out
}

// Record renders s as the flat record POST /snapshots expects.
func Record(s model.Snapshot) map[string]any {
	rec := make(map[string]any, len(s.Fields)+2)
	for k, v := range s.Fields {
		rec[k] = v
	}
	rec[model.FieldDate] = s.Date.UTC().Format(time.RFC3339)
	rec[model.FieldID] = s.ID
	return rec
}
