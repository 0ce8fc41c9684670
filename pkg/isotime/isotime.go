// Package isotime reads the ISO-8601 timestamps found in shift metadata.
package isotime

import (
	"fmt"
	"strings"
	"time"
)

var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02T15:04Z07:00",
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"2006-01-02",
	}
)

// Parse reads an ISO-8601 timestamp. A trailing Z is UTC. The second result
// reports whether the value carried a zone; naive values are returned as UTC.
func Parse(value string) (time.Time, bool, error) {
	value = strings.TrimSpace(value)
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, false, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("invalid ISO-8601 timestamp %q", value)
}

// Valid reports whether value parses
func Valid(value string) bool {
	_, _, err := Parse(value)
	return err == nil
}
