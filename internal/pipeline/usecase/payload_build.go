package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
)

const (
	maxTitleRunes = 50
	maxBodyRunes  = 100
	// maxPushPayloadBytes is the Web Push transport's hard payload limit.
	maxPushPayloadBytes = 4096
)

// truncateRunes shortens s to at most max runes, replacing the tail with an
// ellipsis. Rune-based so multibyte characters are never cut in half.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// summarize joins at most n items; overflow becomes a "+K more" suffix.
func summarize(items []string, n int) string {
	if len(items) <= n {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s +%d more", strings.Join(items[:n], ", "), len(items)-n)
}

// finalizePush bounds the title and body, then verifies the encoded
// payload fits in the push size limit. Oversized payloads keep only a
// fallback navigation target in Data.
func (s *Usecase) finalizePush(p entity.PushPayload) entity.PushPayload {
	p.Title = truncateRunes(p.Title, maxTitleRunes)
	p.Body = truncateRunes(p.Body, maxBodyRunes)
	if p.URL == "" {
		p.URL = s.baseURL
	}

	raw, err := json.Marshal(p)
	if err != nil || len(raw) > maxPushPayloadBytes {
		category := entity.Category("")
		if p.Data != nil {
			category = p.Data.PayloadCategory()
		}
		p.Data = entity.FallbackData{Category: category, URL: p.URL}
	}

	return p
}

// buildAppointmentFound renders the subscription-match message for one
// grouped queue item.
func (s *Usecase) buildAppointmentFound(sub entity.Subscription, appointments []entity.Appointment, bookingURL string) (entity.PushPayload, entity.EmailMessage) {
	var title, body string
	if len(appointments) == 1 {
		ap := appointments[0]
		title = fmt.Sprintf("Appointments open on %s", ap.Date)
		body = fmt.Sprintf("Times: %s", summarize(ap.Times, 5))
	} else {
		title = fmt.Sprintf("Appointments open on %d dates", len(appointments))
		dates := make([]string, 0, len(appointments))
		for _, ap := range appointments {
			dates = append(dates, ap.Date)
		}
		body = fmt.Sprintf("Dates: %s", summarize(dates, 3))
	}

	push := s.finalizePush(entity.PushPayload{
		Title:   title,
		Body:    body,
		Tag:     fmt.Sprintf("%s-%d", entity.CategoryAppointmentFound, sub.ID),
		URL:     s.baseURL + "/subscriptions",
		Actions: bookingActions(bookingURL),
		Data: entity.AppointmentFoundData{
			Category:       entity.CategoryAppointmentFound,
			SubscriptionID: sub.ID,
			Appointments:   appointments,
			BookingURL:     bookingURL,
		},
	})

	email := entity.EmailMessage{
		Subject:  title,
		TextBody: s.appointmentEmailText(appointments, bookingURL),
		HTMLBody: s.appointmentEmailHTML(appointments, bookingURL),
	}

	return push, email
}

func (s *Usecase) appointmentEmailText(appointments []entity.Appointment, bookingURL string) string {
	var sb strings.Builder
	sb.WriteString("Good news, appointment slots just opened up:\n\n")
	for _, ap := range appointments {
		fmt.Fprintf(&sb, "  %s: %s\n", ap.Date, strings.Join(ap.Times, ", "))
	}
	if bookingURL != "" {
		fmt.Fprintf(&sb, "\nBook now: %s\n", bookingURL)
	}
	fmt.Fprintf(&sb, "\nManage your subscriptions: %s/subscriptions\n", s.baseURL)
	return sb.String()
}

func (s *Usecase) appointmentEmailHTML(appointments []entity.Appointment, bookingURL string) string {
	var sb strings.Builder
	sb.WriteString("<h2>Appointment slots just opened up</h2><ul>")
	for _, ap := range appointments {
		fmt.Fprintf(&sb, "<li><strong>%s</strong>: %s</li>", ap.Date, strings.Join(ap.Times, ", "))
	}
	sb.WriteString("</ul>")
	if bookingURL != "" {
		fmt.Fprintf(&sb, `<p><a href="%s">Book now</a></p>`, bookingURL)
	}
	fmt.Fprintf(&sb, `<p><a href="%s/subscriptions">Manage your subscriptions</a></p>`, s.baseURL)
	return sb.String()
}

func (s *Usecase) buildHotAlert(day entity.DaySlot) (entity.PushPayload, entity.EmailMessage) {
	title := fmt.Sprintf("Slots open soon: %s", day.Date)
	body := fmt.Sprintf("%s has open times: %s", day.DayName, summarize(day.Times, 4))

	push := s.finalizePush(entity.PushPayload{
		Title:   title,
		Body:    body,
		Tag:     fmt.Sprintf("%s-%s", entity.CategoryHotAlert, day.Date),
		URL:     s.baseURL,
		Actions: bookingActions(day.BookingURL),
		Data: entity.HotAlertData{
			Category:   entity.CategoryHotAlert,
			Date:       day.Date,
			Times:      day.Times,
			BookingURL: day.BookingURL,
		},
	})

	email := entity.EmailMessage{
		Subject:  title,
		TextBody: fmt.Sprintf("Appointments are open on %s (%s): %s\n", day.Date, day.DayName, strings.Join(day.Times, ", ")),
		HTMLBody: fmt.Sprintf("<p>Appointments are open on <strong>%s</strong> (%s): %s</p>", day.Date, day.DayName, strings.Join(day.Times, ", ")),
	}

	return push, email
}

func (s *Usecase) buildWeeklyDigest(days []entity.DaySlot) (entity.PushPayload, entity.EmailMessage) {
	dates := make([]string, 0, len(days))
	total := 0
	for _, day := range days {
		dates = append(dates, day.Date)
		total += len(day.Times)
	}

	title := "Your weekly availability digest"
	body := fmt.Sprintf("%d open times across %d days: %s", total, len(days), summarize(dates, 3))

	push := s.finalizePush(entity.PushPayload{
		Title: title,
		Body:  body,
		Tag:   string(entity.CategoryWeeklyDigest),
		URL:   s.baseURL,
		Data: entity.WeeklyDigestData{
			Category: entity.CategoryWeeklyDigest,
			Dates:    dates,
		},
	})

	var sb strings.Builder
	sb.WriteString("Availability in the next 7 days:\n\n")
	for _, day := range days {
		fmt.Fprintf(&sb, "  %s (%s): %s\n", day.Date, day.DayName, summarize(day.Times, 10))
	}

	email := entity.EmailMessage{
		Subject:  title,
		TextBody: sb.String(),
	}

	return push, email
}

func (s *Usecase) buildExpiryReminder(sub entity.Subscription) (entity.PushPayload, entity.EmailMessage) {
	title := "Your subscription is about to end"
	body := fmt.Sprintf("The watch for %s - %s ends on %s.", sub.RangeStart, sub.RangeEnd, sub.RangeEnd)

	push := s.finalizePush(entity.PushPayload{
		Title: title,
		Body:  body,
		Tag:   fmt.Sprintf("%s-%d", entity.CategoryExpiryReminder, sub.ID),
		URL:   s.baseURL + "/subscriptions",
		Data: entity.ExpiryReminderData{
			Category:       entity.CategoryExpiryReminder,
			SubscriptionID: sub.ID,
			EndDate:        sub.RangeEnd,
		},
	})

	email := entity.EmailMessage{
		Subject:  title,
		TextBody: body + "\nExtend it from your subscriptions page: " + s.baseURL + "/subscriptions\n",
	}

	return push, email
}

func (s *Usecase) buildOpportunity(day entity.DaySlot) (entity.PushPayload, entity.EmailMessage) {
	title := fmt.Sprintf("Openings available on %s", day.Date)
	body := fmt.Sprintf("No subscription needed, slots are open now: %s", summarize(day.Times, 4))

	push := s.finalizePush(entity.PushPayload{
		Title:   title,
		Body:    body,
		Tag:     string(entity.CategoryOpportunity),
		URL:     s.baseURL,
		Actions: bookingActions(day.BookingURL),
		Data: entity.OpportunityData{
			Category: entity.CategoryOpportunity,
			Date:     day.Date,
			Times:    day.Times,
		},
	})

	email := entity.EmailMessage{
		Subject:  title,
		TextBody: fmt.Sprintf("Open times on %s: %s\n", day.Date, strings.Join(day.Times, ", ")),
	}

	return push, email
}

func (s *Usecase) buildInactivityNudge(soonest entity.DaySlot) (entity.PushPayload, entity.EmailMessage) {
	title := "We miss you, and slots are open"
	body := fmt.Sprintf("The next available appointment is on %s.", soonest.Date)

	push := s.finalizePush(entity.PushPayload{
		Title: title,
		Body:  body,
		Tag:   string(entity.CategoryInactivityNudge),
		URL:   s.baseURL,
		Data: entity.InactivityNudgeData{
			Category:    entity.CategoryInactivityNudge,
			SoonestDate: soonest.Date,
		},
	})

	email := entity.EmailMessage{
		Subject:  title,
		TextBody: body + "\nCome back and grab it: " + s.baseURL + "\n",
	}

	return push, email
}

func (s *Usecase) buildConfirmation(sub entity.Subscription) (entity.PushPayload, entity.EmailMessage) {
	var window string
	if sub.IsRange() {
		window = fmt.Sprintf("%s - %s", sub.RangeStart, sub.RangeEnd)
	} else {
		window = sub.TargetDate
	}

	title := "Subscription confirmed"
	body := fmt.Sprintf("Watching for appointments on %s.", window)

	push := s.finalizePush(entity.PushPayload{
		Title: title,
		Body:  body,
		Tag:   fmt.Sprintf("%s-%d", entity.CategoryConfirmation, sub.ID),
		URL:   s.baseURL + "/subscriptions",
		Data: entity.ConfirmationData{
			Category:       entity.CategoryConfirmation,
			SubscriptionID: sub.ID,
			TargetDate:     sub.TargetDate,
			RangeStart:     sub.RangeStart,
			RangeEnd:       sub.RangeEnd,
		},
	})

	email := entity.EmailMessage{
		Subject:  title,
		TextBody: fmt.Sprintf("You will be notified when appointments open on %s.\n", window),
	}

	return push, email
}

// bookingActions returns the "book now" action only when a booking URL
// actually exists for the event.
func bookingActions(bookingURL string) []entity.PayloadAction {
	if bookingURL == "" {
		return nil
	}
	return []entity.PayloadAction{{Action: "book", Title: "Book now"}}
}
