// Package skill enumerates the tracked categories and the flat field names
// each one contributes to a snapshot.
package skill

// Key is the stable lowercase identifier of a category.
type Key string

// Overall is the synthetic aggregate category. Its experience is derived from
// the other categories and it always sorts last.
const Overall Key = "overall"

// Field name suffixes.
const (
	RankSuffix = "_rank"
	XPSuffix   = "_xp"
)

// Part identifies which value of a category a field carries.
type Part int

const (
	PartRank Part = iota + 1
	PartXP
)

func (p Part) String() string {
	switch p {
	case PartRank:
		return "rank"
	case PartXP:
		return "xp"
	default:
		return "unknown"
	}
}

// Category declares one tracked category and its two field names.
type Category struct {
	Key       Key
	RankField string
	XPField   string
}

func category(k Key) Category {
	return Category{Key: k, RankField: string(k) + RankSuffix, XPField: string(k) + XPSuffix}
}

// skills is the fixed set in definition order; display order follows it.
var skills = []Category{ //nolint:gochecknoglobals // immutable schema
	category("attack"),
	category("construction"),
	category("cooking"),
	category("crafting"),
	category("defence"),
	category("farming"),
	category("firemaking"),
	category("fishing"),
	category("fletching"),
	category("herblore"),
	category("hitpoints"),
	category("hunter"),
	category("magic"),
	category("mining"),
	category("prayer"),
	category("ranged"),
	category("runecraft"),
	category("slayer"),
	category("smithing"),
	category("strength"),
	category("thieving"),
	category("woodcutting"),
}

var overall = category(Overall) //nolint:gochecknoglobals // immutable schema

type fieldRef struct {
	key  Key
	part Part
}

// byField resolves a field name to its category and part.
var byField = func() map[string]fieldRef { //nolint:gochecknoglobals // immutable schema index
	idx := make(map[string]fieldRef, 2*(len(skills)+1))
	for _, c := range append(Skills(), overall) {
		idx[c.RankField] = fieldRef{key: c.Key, part: PartRank}
		idx[c.XPField] = fieldRef{key: c.Key, part: PartXP}
	}
	return idx
}()

// Skills returns the tracked skills in definition order, excluding Overall.
func Skills() []Category {
	out := make([]Category, len(skills))
	copy(out, skills)
	return out
}

// All returns Skills followed by Overall.
func All() []Category {
	return append(Skills(), overall)
}

// OverallCategory returns the schema entry of the synthetic category.
func OverallCategory() Category { return overall }

// Lookup returns the category declared for key.
func Lookup(k Key) (Category, bool) {
	if k == Overall {
		return overall, true
	}
	for _, c := range skills {
		if c.Key == k {
			return c, true
		}
	}
	return Category{}, false
}

// Classify maps a flat field name onto the schema. Names must match exactly;
// fields outside the schema, including padded names and suffix look-alikes
// such as "sailing_xp", report ok=false.
func Classify(field string) (Key, Part, bool) {
	ref, ok := byField[field]
	if !ok {
		return "", 0, false
	}
	return ref.key, ref.part, true
}

// Index returns the position of k in All(), or -1.
func Index(k Key) int {
	if k == Overall {
		return len(skills)
	}
	for i, c := range skills {
		if c.Key == k {
			return i
		}
	}
	return -1
}
