package models

import (
	"sort"
	"strings"
	"time"
)

// WeeklyAvailability maps lowercase weekday names ("monday".."sunday") to the
// "HH:mm" start times a professional has declared bookable on that day.
type WeeklyAvailability map[string][]string

var weekdayKeys = []string{
	"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
}

// EmptyWeeklyAvailability returns a map with all seven day keys and no slots.
func EmptyWeeklyAvailability() WeeklyAvailability {
	weekly := make(WeeklyAvailability, len(weekdayKeys))
	for _, day := range weekdayKeys {
		weekly[day] = []string{}
	}
	return weekly
}

// Normalize lowercases day keys, trims and sorts slot values, and drops
// unknown days so a stored map always uses the canonical seven keys.
func (w WeeklyAvailability) Normalize() WeeklyAvailability {
	normalized := EmptyWeeklyAvailability()
	for day, slots := range w {
		key := strings.ToLower(strings.TrimSpace(day))
		if _, ok := normalized[key]; !ok {
			continue
		}
		cleaned := make([]string, 0, len(slots))
		for _, slot := range slots {
			if trimmed := strings.TrimSpace(slot); trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		sort.Strings(cleaned)
		normalized[key] = cleaned
	}
	return normalized
}

// Contains reports whether the candidate time falls on a declared slot. The
// weekday name and "HH:mm" component are derived in the candidate's own
// location, matching how slots were declared.
func (w WeeklyAvailability) Contains(at time.Time) bool {
	day := strings.ToLower(at.Weekday().String())
	wanted := at.Format("15:04")
	for _, slot := range w[day] {
		if slot == wanted {
			return true
		}
	}
	return false
}
