package entity

import "time"

// Notification is the in-app record created for every delivered message; it
// is also what the daily cap counts against.
type Notification struct {
	ID        int64
	UserID    int64
	Category  Category
	Title     string
	Body      string
	ReadAt    *time.Time
	CreatedAt time.Time
}
