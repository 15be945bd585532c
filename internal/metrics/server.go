package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server serves the /metrics endpoint for prometheus.
type Server struct {
	server   *http.Server
	listener net.Listener
	log      zerolog.Logger
}

// NewServer binds addr and serves the metrics gathered by gatherer on /metrics.
func NewServer(ctx context.Context, log zerolog.Logger, addr string, gatherer prometheus.Gatherer) (*Server, error) {
	log = log.With().Str("component", "metrics-server").Logger()

	listener, err := new(net.ListenConfig).Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	endpoint := "/metrics"
	mux.Handle(endpoint, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s := &Server{
		server:   &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second},
		listener: listener,
		log:      log,
	}
	go func() {
		if err := s.server.Serve(listener); err != nil {
			// http.ErrServerClosed is returned when Close or Shutdown is called
			if errors.Is(err, http.ErrServerClosed) {
				s.log.Debug().Err(err).Msg("metrics server shutdown")
			} else {
				s.log.Err(err).Msg("metrics server failed")
			}
		}
	}()
	log.Info().Str("address", listener.Addr().String()).Str("endpoint", endpoint).Msg("metrics server started")
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Stop shuts the server down, waiting at most five seconds for open requests.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
