// Package normalize turns loosely formatted event input into canonical stored forms.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// clockPattern accepts H:MM or HH:MM with an optional AM/PM suffix.
var clockPattern = regexp.MustCompile(`(?i)^([0-1]?[0-9]|2[0-3]):([0-5][0-9])(?:\s*(AM|PM))?$`)

// storedTimePattern is the grammar the store accepts for Event.Time.
var storedTimePattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// Time converts inputs like "9:00", "09:00 AM" or "9:30pm" into zero-padded 24-hour HH:MM.
// With an AM/PM suffix the hour must be 1-12; 12 AM is midnight and 12 PM is noon.
// ok is false for anything outside the grammar.
func Time(raw string) (string, bool) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", false
	}
	hh, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	if suffix := strings.ToUpper(m[3]); suffix != "" {
		if hh < 1 || hh > 12 {
			return "", false
		}
		switch {
		case suffix == "PM" && hh < 12:
			hh += 12
		case suffix == "AM" && hh == 12:
			hh = 0
		}
	}
	return fmt.Sprintf("%02d:%s", hh, m[2]), true
}

// ValidStoredTime reports whether t matches the 24-hour grammar required at persistence.
func ValidStoredTime(t string) bool {
	return storedTimePattern.MatchString(t)
}
