package health

import "context"

// ProviderChecker verifies the model provider is reachable.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}

// DBPinger checks key-value store connectivity.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexReader exposes index readiness.
type IndexReader interface {
	Ready() bool
	Len() int
}
