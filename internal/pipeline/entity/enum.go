package entity

import "strings"

// Category identifies a notification kind. The string form is stored in the
// proactive log and used as the first segment of dedup keys.
type Category string

const (
	CategoryAppointmentFound Category = "appointment_found"
	CategoryHotAlert         Category = "hot_alert"
	CategoryWeeklyDigest     Category = "weekly_digest"
	CategoryExpiryReminder   Category = "expiry_reminder"
	CategoryOpportunity      Category = "opportunity"
	CategoryInactivityNudge  Category = "inactivity_nudge"
	CategoryConfirmation     Category = "subscription_confirmation"
)

func (c Category) String() string {
	return string(c)
}

type Method int16

const (
	MethodUnknown Method = 0
	MethodEmail   Method = 1
	MethodPush    Method = 2
	MethodBoth    Method = 3
)

func MethodFromString(raw string) Method {
	switch strings.TrimSpace(raw) {
	case "email":
		return MethodEmail
	case "push":
		return MethodPush
	case "both":
		return MethodBoth
	default:
		return MethodUnknown
	}
}

func (m Method) String() string {
	switch m {
	case MethodEmail:
		return "email"
	case MethodPush:
		return "push"
	case MethodBoth:
		return "both"
	default:
		return "unknown"
	}
}

// WantsEmail reports whether the method includes the email channel.
func (m Method) WantsEmail() bool {
	return m == MethodEmail || m == MethodBoth
}

// WantsPush reports whether the method includes the push channel.
func (m Method) WantsPush() bool {
	return m == MethodPush || m == MethodBoth
}

type SubscriptionStatus int16

const (
	SubscriptionStatusUnknown   SubscriptionStatus = 0
	SubscriptionStatusActive    SubscriptionStatus = 1
	SubscriptionStatusPaused    SubscriptionStatus = 2
	SubscriptionStatusCompleted SubscriptionStatus = 3
)

func SubscriptionStatusFromString(raw string) SubscriptionStatus {
	switch strings.TrimSpace(raw) {
	case "active":
		return SubscriptionStatusActive
	case "paused":
		return SubscriptionStatusPaused
	case "completed":
		return SubscriptionStatusCompleted
	default:
		return SubscriptionStatusUnknown
	}
}

func (s SubscriptionStatus) String() string {
	switch s {
	case SubscriptionStatusActive:
		return "active"
	case SubscriptionStatusPaused:
		return "paused"
	case SubscriptionStatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

type QueueStatus int16

const (
	QueueStatusUnknown    QueueStatus = 0
	QueueStatusPending    QueueStatus = 1
	QueueStatusProcessing QueueStatus = 2
	QueueStatusSent       QueueStatus = 3
	QueueStatusSkipped    QueueStatus = 4
	QueueStatusDeferred   QueueStatus = 5
	QueueStatusFailed     QueueStatus = 6
)

func QueueStatusFromString(raw string) QueueStatus {
	switch strings.TrimSpace(raw) {
	case "pending":
		return QueueStatusPending
	case "processing":
		return QueueStatusProcessing
	case "sent":
		return QueueStatusSent
	case "skipped":
		return QueueStatusSkipped
	case "deferred":
		return QueueStatusDeferred
	case "failed":
		return QueueStatusFailed
	default:
		return QueueStatusUnknown
	}
}

func (s QueueStatus) String() string {
	switch s {
	case QueueStatusPending:
		return "pending"
	case QueueStatusProcessing:
		return "processing"
	case QueueStatusSent:
		return "sent"
	case QueueStatusSkipped:
		return "skipped"
	case QueueStatusDeferred:
		return "deferred"
	case QueueStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DeliveryStatus is the last-attempt outcome recorded on a push endpoint.
type DeliveryStatus int16

const (
	DeliveryStatusUnknown DeliveryStatus = 0
	DeliveryStatusPending DeliveryStatus = 1
	DeliveryStatusSuccess DeliveryStatus = 2
	DeliveryStatusFailed  DeliveryStatus = 3
)

func DeliveryStatusFromString(raw string) DeliveryStatus {
	switch strings.TrimSpace(raw) {
	case "pending":
		return DeliveryStatusPending
	case "success":
		return DeliveryStatusSuccess
	case "failed":
		return DeliveryStatusFailed
	default:
		return DeliveryStatusUnknown
	}
}

func (s DeliveryStatus) String() string {
	switch s {
	case DeliveryStatusPending:
		return "pending"
	case DeliveryStatusSuccess:
		return "success"
	case DeliveryStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// BlockReason tags why the eligibility gate refused a delivery.
type BlockReason string

const (
	BlockReasonNone       BlockReason = ""
	BlockReasonOptedOut   BlockReason = "opted_out"
	BlockReasonQuietHours BlockReason = "quiet_hours"
	BlockReasonDailyLimit BlockReason = "daily_limit_reached"
	BlockReasonCooldown   BlockReason = "cooldown"
)

func (r BlockReason) String() string {
	return string(r)
}
