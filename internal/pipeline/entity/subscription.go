package entity

import "time"

// DateLayout is the wire and storage format for appointment dates.
const DateLayout = "2006-01-02"

// Subscription is a user's request to be told when slots open on a single
// date or on any date inside an inclusive range. Exactly one of TargetDate
// or (RangeStart, RangeEnd) is set.
type Subscription struct {
	ID         int64
	UserID     int64
	TargetDate string
	RangeStart string
	RangeEnd   string
	Status     SubscriptionStatus
	Method     Method
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsRange reports whether the subscription covers a date range.
func (s Subscription) IsRange() bool {
	return s.TargetDate == ""
}

// EndDate returns the last date the subscription covers.
func (s Subscription) EndDate() string {
	if s.IsRange() {
		return s.RangeEnd
	}
	return s.TargetDate
}

// Covers reports whether the given ISO date falls inside the subscription's
// window. Lexicographic comparison is correct for the fixed date layout.
func (s Subscription) Covers(date string) bool {
	if date == "" {
		return false
	}
	if !s.IsRange() {
		return date == s.TargetDate
	}
	return s.RangeStart <= date && date <= s.RangeEnd
}

// Expired reports whether the subscription's whole window is before today.
func (s Subscription) Expired(today string) bool {
	return s.EndDate() < today
}
