package approval

import "time"

func isWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}

// WorkingDays counts Monday-Friday days in the inclusive from/to range.
// When selected is non-empty it wins over the range: only its parseable
// weekday entries count.
func WorkingDays(from, to time.Time, selected DateList) int {
	if len(selected) > 0 {
		count := 0
		for _, raw := range selected {
			day, err := time.Parse("2006-01-02", raw)
			if err != nil {
				continue
			}
			if !isWeekend(day.Weekday()) {
				count++
			}
		}
		return count
	}

	count := 0
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if !isWeekend(day.Weekday()) {
			count++
		}
	}
	return count
}

// withinRange reports whether every entry of selected parses and falls
// inside the inclusive from/to range.
func withinRange(from, to time.Time, selected DateList) bool {
	for _, raw := range selected {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return false
		}
		if day.Before(from) || day.After(to) {
			return false
		}
	}
	return true
}
