package insights

import (
	"fmt"
	"time"

	"github.com/archisdhar8/religiousAI/internal/domain/memory"
)

// Greeting welcomes a returning user. It returns false when there is no prior visit.
func Greeting(m *memory.UserMemory, now time.Time) (string, bool) {
	if m == nil || m.VisitCount == 0 || m.LastVisitAt == nil {
		return "", false
	}

	var when string
	days := int(now.Sub(*m.LastVisitAt) / (24 * time.Hour))
	switch {
	case days <= 0:
		when = "earlier today"
	case days == 1:
		when = "yesterday"
	case days < 7:
		when = fmt.Sprintf("%d days ago", days)
	default:
		when = "some time ago"
	}

	out := fmt.Sprintf("Welcome back, dear seeker. I remember you were here %s.", when)
	if theme := LatestTheme(m); theme != "" {
		out += fmt.Sprintf(" You've been reflecting on matters of %s. How has your heart been since we last spoke?", theme)
	}
	return out, true
}

// LatestTheme prefers the newest extraction's themes over the lifetime set.
func LatestTheme(m *memory.UserMemory) string {
	if m == nil {
		return ""
	}
	if n := len(m.LastThemes); n > 0 {
		return m.LastThemes[n-1]
	}
	if n := len(m.Themes); n > 0 {
		return m.Themes[n-1]
	}
	return ""
}
