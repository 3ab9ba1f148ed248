// Package server implements the daemon's HTTP API and its gRPC health endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/ontrack-io/ontrack/internal/analytics"
	"github.com/ontrack-io/ontrack/internal/daemon/session"
	"github.com/ontrack-io/ontrack/internal/daemon/task"
	"github.com/ontrack-io/ontrack/internal/daemon/user"
	"github.com/ontrack-io/ontrack/internal/models"
	"github.com/ontrack-io/ontrack/internal/store"
)

// ServiceName is the gRPC health service name reported by the daemon.
const ServiceName = "ontrack.API"

const sweepInterval = 10 * time.Minute

// Options configures a Server. Settings and Store are required.
type Options struct {
	Settings *models.Settings
	Store    store.Store
	Events   task.EventSink
	Location *time.Location   // nil means time.Local
	Now      func() time.Time // nil means time.Now
}

// Server is the daemon's HTTP + gRPC server.
type Server struct {
	httpServer *http.Server
	httpLn     net.Listener
	grpcServer *grpc.Server
	grpcLn     net.Listener
	health     *health.Server
	sessions   *session.Store

	stopOnce sync.Once
	done     chan struct{}
}

// New creates a server bound to the configured addresses.
// Use port 0 in an address for dynamic allocation.
func New(opts Options) (*Server, error) {
	a := newAPI(opts)

	httpLn, err := (&net.ListenConfig{}).Listen(context.TODO(), "tcp", opts.Settings.Server.Listen)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", opts.Settings.Server.Listen, err)
	}
	grpcLn, err := (&net.ListenConfig{}).Listen(context.TODO(), "tcp", opts.Settings.Server.GRPCListen)
	if err != nil {
		httpLn.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", opts.Settings.Server.GRPCListen, err)
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Server{
		httpServer: &http.Server{
			Handler:           a.routes(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		httpLn:     httpLn,
		grpcServer: grpcServer,
		grpcLn:     grpcLn,
		health:     healthSrv,
		sessions:   a.sessions,
		done:       make(chan struct{}),
	}, nil
}

// Host returns the host the HTTP listener is bound to.
func (s *Server) Host() string {
	return s.httpLn.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the HTTP port.
func (s *Server) Port() int {
	return s.httpLn.Addr().(*net.TCPAddr).Port
}

// GRPCPort returns the gRPC health port.
func (s *Server) GRPCPort() int {
	return s.grpcLn.Addr().(*net.TCPAddr).Port
}

// Serve starts serving requests. This blocks until Stop is called or a
// listener fails.
func (s *Server) Serve() error {
	errCh := make(chan error, 2)

	go func() {
		if err := s.grpcServer.Serve(s.grpcLn); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("grpc server: %w", err)
			return
		}
		errCh <- nil
	}()
	go func() {
		if err := s.httpServer.Serve(s.httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
			return
		}
		errCh <- nil
	}()
	go s.sweepSessions()

	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	err := <-errCh
	s.Stop()
	if err2 := <-errCh; err == nil {
		err = err2
	}
	return err
}

// Stop gracefully stops both servers.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.health.Shutdown()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Printf("[http] Shutdown: %v", err)
		}
		s.grpcServer.GracefulStop()
	})
}

func (s *Server) sweepSessions() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if n := s.sessions.Sweep(); n > 0 {
				log.Printf("[http] Expired %d sessions", n)
			}
		}
	}
}

// api holds the collaborators of the HTTP handlers.
type api struct {
	tasks     *task.Manager
	users     *user.Manager
	analytics *analytics.Service
	sessions  *session.Store
	origins   []string
}

func newAPI(opts Options) *api {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ttl := opts.Settings.Server.SessionTTL
	if ttl <= 0 {
		ttl = models.NewSettings().Server.SessionTTL
	}
	return &api{
		tasks:     task.NewManager(opts.Store, loc, now, opts.Events),
		users:     user.NewManager(opts.Store, now),
		analytics: analytics.NewService(opts.Store, loc, now),
		sessions:  session.NewStore(ttl, now),
		origins:   opts.Settings.Server.CORSOrigins,
	}
}
