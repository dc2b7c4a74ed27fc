package entity

import "time"

// Appointment is one date with the newly discovered open times for it.
type Appointment struct {
	Date  string   `json:"date"`
	Times []string `json:"times"`
}

// QueueItem is a durable unit of pending delivery work. A single matcher
// run groups every eligible date for a subscription into one item, so
// Appointments always holds at least one entry.
type QueueItem struct {
	ID             int64
	SubscriptionID int64
	Appointments   []Appointment
	Status         QueueStatus
	ErrorMessage   *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ProcessedAt    *time.Time
}

// Dates returns the item's appointment dates in stored order.
func (q QueueItem) Dates() []string {
	dates := make([]string, 0, len(q.Appointments))
	for _, ap := range q.Appointments {
		dates = append(dates, ap.Date)
	}
	return dates
}

// RunResult counts queue item outcomes for one pipeline invocation.
type RunResult struct {
	Sent     int `json:"sent"`
	Skipped  int `json:"skipped"`
	Deferred int `json:"deferred"`
	Failed   int `json:"failed,omitempty"`
}

// RunSummary is the JSON body returned by a pipeline trigger.
type RunSummary struct {
	Success       bool      `json:"success"`
	ExecutionTime string    `json:"executionTime"`
	Result        RunResult `json:"result"`
}
