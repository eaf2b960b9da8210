package github

import (
	"fmt"
	"time"
)

// TimeAgo renders the age of t relative to now, e.g. "42s ago" or "3d ago".
func TimeAgo(t *time.Time, now time.Time) string {
	if t == nil || t.IsZero() {
		return "Unknown"
	}
	seconds := int64(now.Sub(*t) / time.Second)
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds ago", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm ago", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh ago", seconds/3600)
	default:
		return fmt.Sprintf("%dd ago", seconds/86400)
	}
}
