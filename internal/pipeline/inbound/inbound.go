package inbound

import (
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/idempotency"
	"github.com/DanieLevy/tor-ramel-sub000/internal/pkg/router"
)

// RegisterHTTPEndpoint mounts the pipeline routes. Trigger routes are
// guarded by a shared bearer token so only the scheduler and operators can
// start runs by hand, and they take the same run lock as the cron jobs.
func RegisterHTTPEndpoint(r *router.Router, uc uc, triggerToken string, locker idempotency.Locker) {
	end := &HTTPEndpoint{uc: uc, locker: locker}

	r.GET("/health", end.Health)

	r.POST("/api/v1/pipeline/endpoints", end.EndpointRegister)
	r.DELETE("/api/v1/pipeline/endpoints", end.EndpointRemove)

	r.GET("/api/v1/users/:user_id/notifications", end.NotificationList)
	r.PATCH("/api/v1/users/:user_id/notifications/:id/read", end.NotificationMarkRead)

	auth := router.TriggerAuth(triggerToken)
	r.POST("/api/v1/pipeline/run", end.Run, auth)
	r.POST("/api/v1/pipeline/detectors/:name", end.RunDetector, auth)
	r.POST("/api/v1/subscriptions/:id/confirmation", end.SendConfirmation, auth)
}
