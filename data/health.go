package data

import (
	"context"
	"time"
)

// Health pings every configured connection.
func (d *Data) Health(ctx context.Context) map[string]any {
	services := map[string]any{}
	healthy := true

	if d.db != nil {
		start := time.Now()
		err := d.db.PingContext(ctx)
		services["database"] = componentStatus(err, time.Since(start))
		healthy = healthy && err == nil
	}
	if d.redis != nil {
		start := time.Now()
		err := d.redis.Ping(ctx).Err()
		services["redis"] = componentStatus(err, time.Since(start))
		healthy = healthy && err == nil
	}

	status := "healthy"
	if !healthy {
		status = "degraded"
	}
	return map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"services":  services,
	}
}

func componentStatus(err error, latency time.Duration) map[string]any {
	if err != nil {
		return map[string]any{"status": "unhealthy", "error": err.Error()}
	}
	return map[string]any{"status": "healthy", "latency_ms": latency.Milliseconds()}
}
