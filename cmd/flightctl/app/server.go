package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/roman-kulish/flight-control/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

// telemetryServer streams tick records and mode changes to websocket clients
// connected at /telemetry.
type telemetryServer struct {
	room   *telemetry.Room
	latest *telemetry.Latest
	server *http.Server
	logger *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func startTelemetryServer(ctx context.Context, config *TelemetryConfig, logger *slog.Logger) (*telemetryServer, error) {
	ln, err := net.Listen("tcp", config.Addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", config.Addr, err)
	}

	latest := new(telemetry.Latest)
	room := telemetry.NewRoom(telemetry.WithLogger(logger), telemetry.WithReplay(latest))

	mux := http.NewServeMux()
	mux.Handle("/telemetry", room)

	s := telemetryServer{
		room:   room,
		latest: latest,
		server: &http.Server{Handler: mux, ReadHeaderTimeout: shutdownTimeout},
		logger: logger,
		done:   make(chan struct{}),
	}

	var roomCtx context.Context
	roomCtx, s.cancel = context.WithCancel(ctx)
	go func() {
		defer close(s.done)
		room.Run(roomCtx)
	}()

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(fmt.Sprintf("telemetry server: %s", err.Error()))
		}
	}()

	logger.Info("telemetry server started", slog.String("addr", ln.Addr().String()))
	return &s, nil
}

// publish makes rec the record replayed to joining clients. The record is
// broadcast when broadcast is set; its mode change, if any, always is.
func (s *telemetryServer) publish(ctx context.Context, rec *telemetry.Record, broadcast bool) error {
	s.latest.Set(rec)

	switch {
	case broadcast:
		return s.room.BroadcastRecord(ctx, rec)
	case rec.ModeChange != nil:
		return s.room.Broadcast(ctx, telemetry.MessageModeChange, rec.ModeChange)
	}
	return nil
}

// Shutdown stops accepting clients and disconnects the connected ones.
func (s *telemetryServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.cancel()
	<-s.done

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error(fmt.Sprintf("shutting down telemetry server: %s", err.Error()))
	}
	s.logger.Info("telemetry server stopped")
}
