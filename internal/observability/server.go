package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/exp/slog"
)

// Server exposes /metrics and, when a hub is given, /ws.
type Server struct {
	lo  *slog.Logger
	srv *http.Server
}

func NewServer(lo *slog.Logger, addr string, m *Metrics, hub *Hub) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	if hub != nil {
		mux.HandleFunc("/ws", hub.ServeWS)
	}
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return &Server{
		lo: lo,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.lo.Info("serving metrics", "addr", ln.Addr().String())
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.lo.Error("metrics server stopped", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }
