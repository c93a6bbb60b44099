package health

import "context"

// StorePinger checks cache store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// BackendChecker checks search backend reachability.
type BackendChecker interface {
	HealthCheck(ctx context.Context) error
}
