package pipeline

import "time"

// CivilDate returns the YYYY-MM-DD calendar date of an instant in the given
// location. Using a real tz-database location keeps the "today" boundary
// honest across daylight saving transitions, unlike a fixed UTC offset.
func CivilDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
