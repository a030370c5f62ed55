package ports

import "context"

// HealthChecker is one dependency reported by GET /health.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Name() string
}

// PingFunc adapts a ping function to HealthChecker.
type PingFunc struct {
	Dependency string
	Check      func(ctx context.Context) error
}

func (p PingFunc) Ping(ctx context.Context) error { return p.Check(ctx) }

func (p PingFunc) Name() string { return p.Dependency }
