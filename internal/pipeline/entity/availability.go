package entity

import "sort"

// DaySlot is one date's worth of availability as reported by the prober.
type DaySlot struct {
	Date       string
	DayName    string
	Available  bool
	Times      []string
	BookingURL string
}

// SoonestAvailable returns the earliest available day in the snapshot whose
// date falls inside [from, to] inclusive, or false when none qualifies.
func SoonestAvailable(snapshot []DaySlot, from, to string) (DaySlot, bool) {
	var best DaySlot
	found := false
	for _, day := range snapshot {
		if !day.Available || len(day.Times) == 0 {
			continue
		}
		if day.Date < from || day.Date > to {
			continue
		}
		if !found || day.Date < best.Date {
			best = day
			found = true
		}
	}
	return best, found
}

// AvailableWithin returns all available days in the snapshot whose date
// falls inside [from, to] inclusive, ordered by date.
func AvailableWithin(snapshot []DaySlot, from, to string) []DaySlot {
	var days []DaySlot
	for _, day := range snapshot {
		if !day.Available || len(day.Times) == 0 {
			continue
		}
		if day.Date < from || day.Date > to {
			continue
		}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}
