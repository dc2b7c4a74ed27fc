package entity

import "time"

// MaxConsecutivePushFailures is the transient-failure count at which an
// endpoint is auto-disabled.
const MaxConsecutivePushFailures = 5

// PushEndpoint is one browser push registration. UserID is nil for
// anonymous registrations made before login.
type PushEndpoint struct {
	ID                  int64
	UserID              *int64
	Endpoint            string
	P256dh              string
	Auth                string
	DeviceType          string
	IsActive            bool
	ConsecutiveFailures int32
	LastDeliveryStatus  DeliveryStatus
	LastFailureReason   *string
	LastUsedAt          *time.Time
	CreatedAt           time.Time
}
