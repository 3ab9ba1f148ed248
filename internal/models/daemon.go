package models

import "time"

// DaemonInfo represents the daemon connection information.
// This corresponds to ~/.ontrack/daemon.yaml.
type DaemonInfo struct {
	Version   int       `yaml:"version"`
	Host      string    `yaml:"host"`
	Port      int       `yaml:"port"`
	GRPCPort  int       `yaml:"grpc_port"`
	PID       int       `yaml:"pid"`
	Backend   string    `yaml:"backend"`
	StartedAt time.Time `yaml:"started_at"`
}

// NewDaemonInfo creates a new daemon info with current values.
func NewDaemonInfo(host string, port, grpcPort, pid int, backend string) *DaemonInfo {
	return &DaemonInfo{
		Version:   1,
		Host:      host,
		Port:      port,
		GRPCPort:  grpcPort,
		PID:       pid,
		Backend:   backend,
		StartedAt: time.Now().UTC(),
	}
}
