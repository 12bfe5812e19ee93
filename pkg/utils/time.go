package utils

import "time"

// NowRFC3339 formats the current instant the way every API timestamp
// field is rendered.
func NowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ParseRFC3339 parses a timestamp produced by NowRFC3339.
func ParseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
