package ledger

import "time"

// freeDates are promotional calendar dates (UTC) on which every generation
// intent is free of charge regardless of balance.
var freeDates = map[string]struct{}{
	"2025-12-25": {},
}

// FreeDay reports whether now falls on a promotional no-cost day. Pure
// function of the calendar date in the reference timezone (UTC).
func FreeDay(now time.Time) bool {
	_, ok := freeDates[now.UTC().Format("2006-01-02")]
	return ok
}
