package entity

import "time"

// Preferences holds a user's notification policy. A missing row means the
// defaults from DefaultPreferences apply.
type Preferences struct {
	UserID                 int64
	DefaultMethod          Method
	HotAlertsEnabled       bool
	WeeklyDigestEnabled    bool
	ExpiryRemindersEnabled bool
	InactivityEnabled      bool
	OpportunityEnabled     bool
	// MaxNotificationsPerDay caps in-app deliveries per local day; zero
	// means unlimited.
	MaxNotificationsPerDay int32
	CooldownMinutes        int32
	// QuietHoursStart and QuietHoursEnd are "HH:MM" local times. Both nil
	// means quiet hours are not configured.
	QuietHoursStart *string
	QuietHoursEnd   *string
	LastProactiveAt *time.Time
	UpdatedAt       time.Time
}

// DefaultPreferences returns the policy applied when a user has never saved
// preferences: every category opted in, no quiet hours, no daily cap.
func DefaultPreferences(userID int64) Preferences {
	return Preferences{
		UserID:                 userID,
		DefaultMethod:          MethodPush,
		HotAlertsEnabled:       true,
		WeeklyDigestEnabled:    true,
		ExpiryRemindersEnabled: true,
		InactivityEnabled:      true,
		OpportunityEnabled:     true,
	}
}

// CategoryEnabled reports whether the user is opted in to the category.
// Subscription matches and confirmations cannot be opted out of.
func (p Preferences) CategoryEnabled(c Category) bool {
	switch c {
	case CategoryHotAlert:
		return p.HotAlertsEnabled
	case CategoryWeeklyDigest:
		return p.WeeklyDigestEnabled
	case CategoryExpiryReminder:
		return p.ExpiryRemindersEnabled
	case CategoryInactivityNudge:
		return p.InactivityEnabled
	case CategoryOpportunity:
		return p.OpportunityEnabled
	default:
		return true
	}
}

// HasQuietHours reports whether both quiet-hour bounds are configured.
func (p Preferences) HasQuietHours() bool {
	return p.QuietHoursStart != nil && p.QuietHoursEnd != nil
}
