package chart

import (
	"github.com/okian/xptrack/internal/domain/skill"
)

// Palette assigns each category a stable color.
type Palette []string

// DefaultPalette has one entry per schema category, overall included.
var DefaultPalette = Palette{ //nolint:gochecknoglobals // fixed palette
	"#9B2C2C", // attack
	"#A0785A", // construction
	"#6B3E26", // cooking
	"#B08D57", // crafting
	"#4A6FA5", // defence
	"#3F7D3A", // farming
	"#E07B2A", // firemaking
	"#5DA9D6", // fishing
	"#2F6F6F", // fletching
	"#4CAF50", // herblore
	"#C62828", // hitpoints
	"#8D6E63", // hunter
	"#3949AB", // magic
	"#607D8B", // mining
	"#F2E394", // prayer
	"#558B2F", // ranged
	"#FFB300", // runecraft
	"#37474F", // slayer
	"#78909C", // smithing
	"#2E7D32", // strength
	"#7B1FA2", // thieving
	"#795548", // woodcutting
	"#FDD835", // overall
}

// fallbackColor is used for keys outside the schema or an empty palette.
const fallbackColor = "#999999"

// Color returns the color for k, cycling when the palette is shorter than
// the schema.
func (p Palette) Color(k skill.Key) string {
	i := skill.Index(k)
	if i < 0 || len(p) == 0 {
		return fallbackColor
	}
	return p[i%len(p)]
}
