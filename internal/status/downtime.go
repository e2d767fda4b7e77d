package status

import (
	"strconv"
	"strings"
)

// FormatDowntime renders the time between failedAt and now (epoch seconds)
// for a chat message, e.g. "*1 hour 1 minute and 1 second*".
//
// A zero seconds remainder is always written out as "and 0 seconds".
func FormatDowntime(failedAt, now int64) string {
	elapsed := now - failedAt
	if elapsed < 0 {
		elapsed = 0
	}
	hours := elapsed / 3600
	minutes := (elapsed / 60) % 60
	seconds := elapsed % 60

	var b strings.Builder
	if hours > 0 {
		b.WriteString(count(hours, "hour", "hours"))
	}
	if minutes > 0 {
		if hours > 0 {
			b.WriteString(" ")
		}
		b.WriteString(count(minutes, "minute", "minutes"))
	}
	switch {
	case seconds > 0:
		if hours > 0 || minutes > 0 {
			b.WriteString(" and ")
		} else {
			b.WriteString(" ")
		}
		b.WriteString(count(seconds, "second", "seconds"))
	case b.Len() > 0:
		b.WriteString(" and 0 seconds")
	default:
		b.WriteString("and 0 seconds")
	}
	return "*" + b.String() + "*"
}

func count(n int64, one, many string) string {
	return strconv.FormatInt(n, 10) + " " + plural(n, one, many)
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
