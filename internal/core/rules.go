package core

import (
	"regexp"
	"time"
)

var (
	// Policy numbers, license numbers and registrations share this format.
	codePattern = regexp.MustCompile(`^[A-Z0-9-]+$`)
	// 17 alphanumeric characters, excluding I, O and Q.
	vinPattern = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)
)

// yearsBetween counts whole years elapsed from 'from' to 'to', respecting
// the anniversary date.
func yearsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	anniversary := from.AddDate(years, 0, 0)
	if anniversary.After(to) {
		years--
	}
	return years
}
