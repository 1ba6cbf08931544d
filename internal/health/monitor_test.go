package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

func servingStatus(t *testing.T, srv *health.Server, service string) grpc_health_v1.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := srv.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestRunOnceUpdatesStatus(t *testing.T) {
	var failing atomic.Bool
	srv := health.NewServer()
	m := NewMonitor(srv, "marketplace", time.Minute, zap.NewNop(), Check{
		Name: "db",
		Probe: func(ctx context.Context) error {
			if failing.Load() {
				return errors.New("connection refused")
			}
			return nil
		},
	})

	require.NoError(t, m.RunOnce(context.Background()))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, servingStatus(t, srv, ""))
	assert.NoError(t, m.Status(context.Background()))

	failing.Store(true)
	err := m.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db: connection refused")
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, servingStatus(t, srv, "marketplace"))
	assert.Error(t, m.Status(context.Background()))
}

func TestStartStop(t *testing.T) {
	var calls atomic.Int32
	m := NewMonitor(nil, "", 5*time.Millisecond, zap.NewNop(), Check{
		Name: "noop",
		Probe: func(ctx context.Context) error {
			calls.Add(1)
			return nil
		},
	})

	m.Start(context.Background())
	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	m.Stop()

	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
}
