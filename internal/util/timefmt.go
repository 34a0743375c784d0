package util

import (
	"fmt"
	"regexp"
	"strconv"
)

// TimestampStyle picks the layout used by FormatTimestamp.
type TimestampStyle int

const (
	// StyleSummary renders "Mon, 16 Feb 2026 3:35 PM IST".
	StyleSummary TimestampStyle = iota
	// StyleWarmup renders "Feb 16, 2026 @ 3:35 PM IST".
	StyleWarmup
)

// DefaultZoneLabel is appended when no label is configured.
const DefaultZoneLabel = "IST"

var (
	httpDateRe = regexp.MustCompile(`^(\w+),\s+(\d+)\s+(\w+)\s+(\d+)\s+(\d+):(\d+):(\d+)`)
	gmtSuffix  = regexp.MustCompile(` GMT.*$`)
)

// FormatTimestamp rewrites a server timestamp like "Mon, 16 Feb 2026 15:35:52 GMT"
// into a 12-hour display string tagged with zone. The clock value is not
// converted: the server already reports local time under a GMT suffix.
// Strings that do not match keep their text minus any " GMT..." tail.
func FormatTimestamp(ts string, style TimestampStyle, zone string) string {
	if ts == "" {
		return ""
	}
	if zone == "" {
		zone = DefaultZoneLabel
	}
	m := httpDateRe.FindStringSubmatch(ts)
	if m == nil {
		return gmtSuffix.ReplaceAllString(ts, "") + " " + zone
	}
	dayName, day, month, year, minutes := m[1], m[2], m[3], m[4], m[6]
	hours, _ := strconv.Atoi(m[5])
	ampm := "AM"
	if hours >= 12 {
		ampm = "PM"
	}
	hours %= 12
	if hours == 0 {
		hours = 12
	}

	if style == StyleWarmup {
		return fmt.Sprintf("%s %s, %s @ %d:%s %s %s", month, day, year, hours, minutes, ampm, zone)
	}
	return fmt.Sprintf("%s, %s %s %s %d:%s %s %s", dayName, day, month, year, hours, minutes, ampm, zone)
}
