package grpc

import (
	"git.solsynth.dev/hypernet/ponder/pkg/internal/events"
	"github.com/rs/zerolog/log"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// BroadcastEvent reflects the engine switches in the reported health.
func (v *App) BroadcastEvent(evt events.Event) {
	switch evt.Topic {
	case events.TopicPlatformPaused:
		v.setServing(false)
	case events.TopicPlatformUnpaused:
		v.setServing(true)
	}
}

func (v *App) setServing(serving bool) {
	status := healthpb.HealthCheckResponse_SERVING
	if !serving {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	v.health.SetServingStatus("", status)
	v.health.SetServingStatus(EngineService, status)
	log.Debug().Str("status", status.String()).Msg("Health status updated.")
}
