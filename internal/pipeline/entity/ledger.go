package entity

import (
	"sort"
	"strings"
	"time"
)

// NotifiedAppointment is one dedup ledger row: the exact time set a
// subscription was told about for one date. Uniqueness over
// (SubscriptionID, AppointmentDate, TimesKey) is the pipeline's idempotency
// fence.
type NotifiedAppointment struct {
	ID              int64
	SubscriptionID  int64
	AppointmentDate string
	Times           []string
	SentAt          time.Time
}

// TimesKey canonicalizes a time set for the ledger uniqueness constraint:
// sorted, deduplicated and comma-joined.
func TimesKey(times []string) string {
	if len(times) == 0 {
		return ""
	}

	sorted := make([]string, 0, len(times))
	seen := make(map[string]struct{}, len(times))
	for _, t := range times {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		sorted = append(sorted, t)
	}
	sort.Strings(sorted)

	return strings.Join(sorted, ",")
}
