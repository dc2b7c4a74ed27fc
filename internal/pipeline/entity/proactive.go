package entity

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ProactiveLog records one proactive notification sent to a user. DedupKey
// plus the category's rolling window enforce at-most-once semantics.
type ProactiveLog struct {
	ID           int64
	UserID       int64
	Category     Category
	RelatedDates []string
	DedupKey     string
	PushSent     bool
	EmailSent    bool
	InAppSent    bool
	SentAt       time.Time
}

// DedupKeyDates builds a dedup key from the category and the sorted related
// dates, used by detectors keyed to the event itself (hot alerts).
func DedupKeyDates(c Category, dates []string) string {
	sorted := make([]string, len(dates))
	copy(sorted, dates)
	sort.Strings(sorted)
	return c.String() + ":" + strings.Join(sorted, ",")
}

// DedupKeyDaily builds a per-user daily dedup key for detectors throttled
// by calendar day or rolling window (opportunity, digest, nudges).
func DedupKeyDaily(c Category, userID int64) string {
	return fmt.Sprintf("%s:user:%d", c, userID)
}

// DedupKeySubscription builds a dedup key tied to one subscription and its
// end date, used by expiry reminders.
func DedupKeySubscription(c Category, subscriptionID int64, endDate string) string {
	return fmt.Sprintf("%s:sub:%d:%s", c, subscriptionID, endDate)
}
