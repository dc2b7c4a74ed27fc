package entity

import "time"

// User is the notification recipient. Account management lives elsewhere;
// the pipeline only reads identity, contact address and activity.
type User struct {
	ID         int64
	Email      string
	FullName   string
	IsActive   bool
	LastSeenAt *time.Time
	CreatedAt  time.Time
}
