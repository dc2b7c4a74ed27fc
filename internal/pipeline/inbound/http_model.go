package inbound

import (
	"time"

	"github.com/DanieLevy/tor-ramel-sub000/internal/pipeline/entity"
)

type endpointRegisterRequest struct {
	UserID     *int64 `json:"user_id"`
	Endpoint   string `json:"endpoint"`
	P256dh     string `json:"p256dh"`
	Auth       string `json:"auth"`
	DeviceType string `json:"device_type"`
}

type endpointRemoveRequest struct {
	Endpoint string `json:"endpoint"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type runResponse struct {
	Success       bool             `json:"success"`
	ExecutionTime string           `json:"executionTime"`
	Result        entity.RunResult `json:"result"`
}

func newRunResponse(s entity.RunSummary) runResponse {
	return runResponse{
		Success:       s.Success,
		ExecutionTime: s.ExecutionTime,
		Result:        s.Result,
	}
}

type confirmationResponse struct {
	Success   bool `json:"success"`
	EmailSent bool `json:"email_sent"`
	PushSent  bool `json:"push_sent"`
}

type notificationResponse struct {
	ID        int64      `json:"id"`
	Category  string     `json:"category"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func newNotificationResponses(ns []entity.Notification) []notificationResponse {
	resp := make([]notificationResponse, 0, len(ns))
	for _, n := range ns {
		resp = append(resp, notificationResponse{
			ID:        n.ID,
			Category:  n.Category.String(),
			Title:     n.Title,
			Body:      n.Body,
			ReadAt:    n.ReadAt,
			CreatedAt: n.CreatedAt,
		})
	}

	return resp
}
