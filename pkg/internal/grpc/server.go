package grpc

import (
	"net"

	"git.solsynth.dev/hypernet/ponder/pkg/internal/events"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// EngineService is the health service name reported for the poll engine.
const EngineService = "ponder.Engine"

type App struct {
	srv    *grpc.Server
	health *health.Server
}

func NewGrpc(bus *events.Bus) *App {
	server := &App{
		srv:    grpc.NewServer(),
		health: health.NewServer(),
	}

	healthpb.RegisterHealthServer(server.srv, server.health)
	reflection.Register(server.srv)

	server.setServing(true)
	if bus != nil {
		bus.Subscribe(events.TopicPlatformPaused, server.BroadcastEvent)
		bus.Subscribe(events.TopicPlatformUnpaused, server.BroadcastEvent)
	}

	return server
}

func (v *App) Listen() error {
	listener, err := net.Listen("tcp", viper.GetString("grpc_bind"))
	if err != nil {
		return err
	}

	return v.srv.Serve(listener)
}

func (v *App) Stop() {
	v.health.Shutdown()
	v.srv.GracefulStop()
}
