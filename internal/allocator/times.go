package allocator

import (
	"fmt"
	"strconv"
	"strings"
)

// parseClock converts an HH:MM string to minutes since midnight.
func parseClock(value string) (int, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time %q out of range", value)
	}
	return hour*60 + minute, nil
}

// formatClock renders minutes since midnight as HH:MM.
func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// clockHour returns the hour component of an HH:MM string, or 0 when the
// value does not parse.
func clockHour(value string) int {
	parts := strings.SplitN(value, ":", 2)
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	return hour
}

// spansOverlap reports strict interval overlap in minutes since midnight.
func spansOverlap(start1, end1, start2, end2 int) bool {
	return start1 < end2 && start2 < end1
}
