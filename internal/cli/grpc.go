package cli

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/ontrack-io/ontrack/internal/daemon/server"
	"github.com/ontrack-io/ontrack/internal/models"
)

// connectHealth establishes a gRPC connection to the daemon's health endpoint.
func connectHealth(info *models.DaemonInfo) (*grpc.ClientConn, error) {
	if info.GRPCPort == 0 {
		return nil, fmt.Errorf("daemon did not publish a health port")
	}
	host := info.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}

	addr := net.JoinHostPort(host, strconv.Itoa(info.GRPCPort))
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}
	return conn, nil
}

// checkHealth asks the daemon whether its API is serving.
func checkHealth(info *models.DaemonInfo) (healthpb.HealthCheckResponse_ServingStatus, error) {
	conn, err := connectHealth(info)
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: server.ServiceName})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("health check failed: %w", err)
	}
	return resp.GetStatus(), nil
}
