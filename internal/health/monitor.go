// Package health periodically probes the service dependencies and publishes
// the result to the gRPC health server and the HTTP /health endpoint.
package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Check проверяет одну зависимость (postgres, redis).
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

type Monitor struct {
	checks   []Check
	server   *health.Server // может быть nil
	service  string
	interval time.Duration
	log      *zap.Logger

	mu      sync.RWMutex
	lastErr error

	started  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewMonitor(server *health.Server, service string, interval time.Duration, log *zap.Logger, checks ...Check) *Monitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Monitor{
		checks:   checks,
		server:   server,
		service:  service,
		interval: interval,
		log:      log,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// RunOnce выполняет все проверки и обновляет статус.
func (m *Monitor) RunOnce(ctx context.Context) error {
	var errs []error
	for _, c := range m.checks {
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := c.Probe(pctx)
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
		}
	}
	err := errors.Join(errs...)

	m.mu.Lock()
	prev := m.lastErr
	m.lastErr = err
	m.mu.Unlock()

	switch {
	case err != nil && prev == nil:
		m.log.Warn("dependency check failed", zap.Error(err))
	case err == nil && prev != nil:
		m.log.Info("dependencies recovered")
	}

	if m.server != nil {
		st := grpc_health_v1.HealthCheckResponse_SERVING
		if err != nil {
			st = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		}
		m.server.SetServingStatus("", st)
		if m.service != "" {
			m.server.SetServingStatus(m.service, st)
		}
	}
	return err
}

// Status отдаёт результат последней проверки.
func (m *Monitor) Status(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Start запускает периодическую проверку; первая выполняется сразу.
func (m *Monitor) Start(ctx context.Context) {
	m.log.Info("starting health monitor", zap.Duration("interval", m.interval))
	_ = m.RunOnce(ctx)
	m.started.Store(true)

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				_ = m.RunOnce(ctx)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop останавливает цикл и ждёт его завершения.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		m.log.Info("stopping health monitor")
		close(m.stopCh)
	})
	if m.started.Load() {
		<-m.done
	}
	if m.server != nil {
		m.server.Shutdown()
	}
}
