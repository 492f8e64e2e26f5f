package inbox

import "time"

// FormatTimestamp renders t relative to now: time of day for today,
// "Yesterday", or a date otherwise.
func FormatTimestamp(t, now time.Time) string {
	t = t.In(now.Location())

	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	yesterday := today.AddDate(0, 0, -1)

	switch {
	case !t.Before(today):
		return t.Format("15:04")
	case !t.Before(yesterday):
		return "Yesterday"
	case t.Year() == now.Year():
		return t.Format("Jan 2")
	default:
		return t.Format("Jan 2, 2006")
	}
}
