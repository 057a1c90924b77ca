package pipeline

// Mode selects which aggregates a crawl produces.
type Mode string

const (
	// ModeFull scrapes and saves the no-group aggregate followed by every other group.
	ModeFull Mode = "full"

	// ModeGroupOnly refreshes the per-group history and budgets only.
	ModeGroupOnly Mode = "group-only"
)

// ParseMode maps a flag value to a Mode. The empty string is ModeFull.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "", ModeFull:
		return ModeFull, true
	case ModeGroupOnly:
		return ModeGroupOnly, true
	}
	return "", false
}
