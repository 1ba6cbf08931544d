package tenant_test

import (
	"context"
	"sync"
	"testing"

	"marketplace-service/internal/tenant"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope_ForAndNone(t *testing.T) {
	id := uuid.New()

	s := tenant.For(id)
	got, ok := s.TenantID()
	require.True(t, ok)
	assert.Equal(t, id, got)
	assert.True(t, s.Active())
	assert.Equal(t, id.String(), s.String())

	n := tenant.None()
	_, ok = n.TenantID()
	assert.False(t, ok)
	assert.False(t, n.Active())
	assert.Equal(t, "none", n.String())

	assert.False(t, tenant.For(uuid.Nil).Active())
	assert.False(t, tenant.ForPtr(nil).Active())
	assert.True(t, tenant.ForPtr(&id).Active())
}

func TestFromContext_DefaultsToNone(t *testing.T) {
	assert.False(t, tenant.FromContext(context.Background()).Active())
}

func TestWithScope_RoundTrip(t *testing.T) {
	id := uuid.New()
	ctx := tenant.WithScope(context.Background(), tenant.For(id))

	got, ok := tenant.FromContext(ctx).TenantID()
	require.True(t, ok)
	assert.Equal(t, id, got)

	// перезапись в дочернем контексте не трогает родителя
	child := tenant.WithScope(ctx, tenant.None())
	assert.False(t, tenant.FromContext(child).Active())
	assert.True(t, tenant.FromContext(ctx).Active())
}

func TestWithScope_ConcurrentRequestsIsolated(t *testing.T) {
	const n = 64
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}

	var wg sync.WaitGroup
	errs := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			base := context.Background()
			var ctx context.Context
			if i%2 == 0 {
				ctx = tenant.WithScope(base, tenant.For(ids[i]))
			} else {
				ctx = tenant.WithScope(base, tenant.None())
			}
			for k := 0; k < 100; k++ {
				s := tenant.FromContext(ctx)
				id, ok := s.TenantID()
				if i%2 == 0 && (!ok || id != ids[i]) {
					errs <- "scoped request observed a foreign tenant"
					return
				}
				if i%2 == 1 && ok {
					errs <- "unscoped request inherited a tenant"
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Fatal(e)
	}
}
