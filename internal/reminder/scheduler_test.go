package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/job-tracker/internal/email"
)

func TestValidateSpec(t *testing.T) {
	tests := []struct {
		spec    string
		wantErr bool
	}{
		{spec: DefaultSpec},
		{spec: "*/5 * * * *"},
		{spec: "@daily"},
		{spec: "@every 1h"},
		{spec: "", wantErr: true},
		{spec: "not a cron", wantErr: true},
		{spec: "0 8 * *", wantErr: true},
		{spec: "61 8 * * *", wantErr: true},
	}

	for _, tt := range tests {
		err := ValidateSpec(tt.spec)
		if tt.wantErr {
			assert.Error(t, err, "ValidateSpec(%q)", tt.spec)
		} else {
			assert.NoError(t, err, "ValidateSpec(%q)", tt.spec)
		}
	}
}

func newTestScheduler(t *testing.T, spec string, store *fakeStore, transport email.Transport) *Scheduler {
	t.Helper()
	runner, err := newTestRunner(store, transport, nil, nil)
	require.NoError(t, err)
	s, err := NewScheduler(runner, spec, time.UTC, newTestLogger(nil))
	require.NoError(t, err)
	return s
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	runner, err := newTestRunner(newFakeStore(), email.NewMemoryTransport(), nil, nil)
	require.NoError(t, err)

	_, err = NewScheduler(runner, "every morning", time.UTC, newTestLogger(nil))
	assert.Error(t, err)
}

func TestScheduler_Next(t *testing.T) {
	s := newTestScheduler(t, "0 8 * * *", newFakeStore(), email.NewMemoryTransport())

	next := s.Next().In(time.UTC)
	assert.True(t, next.After(time.Now()))
	assert.Equal(t, 8, next.Hour())
	assert.Equal(t, 0, next.Minute())
}

func TestScheduler_StartStopIdempotent(t *testing.T) {
	s := newTestScheduler(t, DefaultSpec, newFakeStore(), email.NewMemoryTransport())

	// Stop before Start is a no-op with an already-finished context.
	select {
	case <-s.Stop().Done():
	default:
		t.Fatal("Stop() on an idle scheduler should return a done context")
	}

	s.Start()
	s.Start()
	assert.True(t, s.Running())

	ctx := s.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() did not finish")
	}
	assert.False(t, s.Running())

	<-s.Stop().Done()
}

func TestScheduler_FiresCycle(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a real cron tick")
	}

	store := newFakeStore(newReminder("job-1", "Acme", "Dev", today().AddDays(3), "ada@example.com"))
	transport := email.NewMemoryTransport()
	s := newTestScheduler(t, "@every 1s", store, transport)

	s.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		select {
		case <-s.Stop().Done():
		case <-ctx.Done():
		}
	})

	require.Eventually(t, func() bool {
		return store.isSent("job-1")
	}, 5*time.Second, 50*time.Millisecond)
	assert.Len(t, transport.Sent(), 1)
}
