package entity

// PayloadAction is one tappable action on a push notification. Action is
// the service-worker handler key, Title the visible label.
type PayloadAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// PushPayload is the channel-ready notification content. Data carries the
// category-specific variant; push encoding must stay under the transport's
// 4 KiB limit.
type PushPayload struct {
	Title   string          `json:"title"`
	Body    string          `json:"body"`
	Tag     string          `json:"tag"`
	URL     string          `json:"url"`
	Actions []PayloadAction `json:"actions,omitempty"`
	Data    PayloadData     `json:"data,omitempty"`
}

// PayloadData is the category-tagged variant carried inside a push payload.
type PayloadData interface {
	PayloadCategory() Category
}

type AppointmentFoundData struct {
	Category       Category      `json:"category"`
	SubscriptionID int64         `json:"subscriptionId"`
	Appointments   []Appointment `json:"appointments"`
	BookingURL     string        `json:"bookingUrl,omitempty"`
}

func (d AppointmentFoundData) PayloadCategory() Category { return CategoryAppointmentFound }

type HotAlertData struct {
	Category   Category `json:"category"`
	Date       string   `json:"date"`
	Times      []string `json:"times"`
	BookingURL string   `json:"bookingUrl,omitempty"`
}

func (d HotAlertData) PayloadCategory() Category { return CategoryHotAlert }

type WeeklyDigestData struct {
	Category Category `json:"category"`
	Dates    []string `json:"dates"`
}

func (d WeeklyDigestData) PayloadCategory() Category { return CategoryWeeklyDigest }

type ExpiryReminderData struct {
	Category       Category `json:"category"`
	SubscriptionID int64    `json:"subscriptionId"`
	EndDate        string   `json:"endDate"`
}

func (d ExpiryReminderData) PayloadCategory() Category { return CategoryExpiryReminder }

type OpportunityData struct {
	Category Category `json:"category"`
	Date     string   `json:"date"`
	Times    []string `json:"times"`
}

func (d OpportunityData) PayloadCategory() Category { return CategoryOpportunity }

type InactivityNudgeData struct {
	Category    Category `json:"category"`
	SoonestDate string   `json:"soonestDate"`
}

func (d InactivityNudgeData) PayloadCategory() Category { return CategoryInactivityNudge }

type ConfirmationData struct {
	Category       Category `json:"category"`
	SubscriptionID int64    `json:"subscriptionId"`
	TargetDate     string   `json:"targetDate,omitempty"`
	RangeStart     string   `json:"rangeStart,omitempty"`
	RangeEnd       string   `json:"rangeEnd,omitempty"`
}

func (d ConfirmationData) PayloadCategory() Category { return CategoryConfirmation }

// FallbackData replaces richer variants when the encoded payload would
// exceed the push size limit; it keeps only a navigation target.
type FallbackData struct {
	Category Category `json:"category"`
	URL      string   `json:"url"`
}

func (d FallbackData) PayloadCategory() Category { return d.Category }

// EmailMessage is the channel-ready email content for one notification.
type EmailMessage struct {
	Subject  string
	TextBody string
	HTMLBody string
}

// PushSendOutcome reports one endpoint delivery attempt for the health
// tracker. Permanent marks status codes that mean the registration will
// never work again.
type PushSendOutcome struct {
	StatusCode int
	Permanent  bool
}

// DispatchResult aggregates per-channel outcomes for one delivery attempt.
type DispatchResult struct {
	Success       bool
	EmailSent     bool
	PushSent      bool
	PushDelivered int
	PushFailed    int
	EmailError    string
	PushError     string
}
