package common

import (
	"strconv"
	"time"
)

// ToFloat coerces a decoded JSON value into a float64. The remote list
// pages are inconsistent about numeric typing: the same field may arrive
// as a JSON number or as a quoted string.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// ClockTime formats an epoch as an HH:MM:SS wall-clock string in UTC.
func ClockTime(epoch int64) string {
	return time.Unix(epoch, 0).UTC().Format("15:04:05")
}
