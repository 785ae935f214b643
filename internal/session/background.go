package session

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// RunReaper deletes finished sessions that saw no activity for ttl, checking every
// interval until ctx is done.
func (m *Manager) RunReaper(ctx context.Context, interval, ttl time.Duration) {
	m.logger.InfoContext(ctx, "session reaper started", "interval", interval, "ttl", ttl)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.InfoContext(ctx, "session reaper stopped")
			return
		case <-ticker.C:
			m.Reap(ctx, ttl)
		}
	}
}

// Reap deletes finished sessions idle for at least ttl and returns how many were removed.
func (m *Manager) Reap(ctx context.Context, ttl time.Duration) int {
	ctx, span := tracer.Start(ctx, "session.Reap")
	defer span.End()

	now := m.timeSource.Now()
	reaped := 0
	for _, s := range m.List() {
		last, finished := s.idleSince()
		if !finished || now.Sub(last) < ttl {
			continue
		}
		if err := m.Delete(ctx, s.ID); err == nil {
			reaped++
		}
	}

	span.SetAttributes(attribute.Int("sessions.reaped", reaped))
	if reaped > 0 {
		m.logger.InfoContext(ctx, "reaped finished sessions", "count", reaped)
	}
	return reaped
}
