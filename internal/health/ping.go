package health

import "context"

// HealthPinger is implemented by backends that expose a cheap liveness probe.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}
