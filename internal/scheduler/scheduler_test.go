package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintenance-service/internal/service"
	"maintenance-service/internal/testutil"
)

func TestNextRun(t *testing.T) {
	almaty := time.FixedZone("ALMT", 5*3600)
	sevenAM := 7 * time.Hour

	tests := []struct {
		name string
		now  time.Time
		loc  *time.Location
		want time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2025, 6, 10, 5, 0, 0, 0, time.UTC),
			loc:  time.UTC,
			want: time.Date(2025, 6, 10, 7, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly at fire time moves to tomorrow",
			now:  time.Date(2025, 6, 10, 7, 0, 0, 0, time.UTC),
			loc:  time.UTC,
			want: time.Date(2025, 6, 11, 7, 0, 0, 0, time.UTC),
		},
		{
			name: "month rollover",
			now:  time.Date(2025, 6, 30, 23, 0, 0, 0, time.UTC),
			loc:  time.UTC,
			want: time.Date(2025, 7, 1, 7, 0, 0, 0, time.UTC),
		},
		{
			name: "configured location",
			now:  time.Date(2025, 6, 10, 3, 0, 0, 0, time.UTC),
			loc:  almaty,
			want: time.Date(2025, 6, 11, 7, 0, 0, 0, almaty),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextRun(tt.now, sevenAM, tt.loc)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
			assert.True(t, got.After(tt.now))
		})
	}
}

type fakeScanner struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *fakeScanner) RunExclusive(ctx context.Context) (*service.ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &service.ScanResult{Scanned: 1}, nil
}

func (s *fakeScanner) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *fakeScanner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestScheduler_RunOnceSkipsWhenScanInProgress(t *testing.T) {
	scanner := &fakeScanner{err: service.ErrScanInProgress}
	clock := testutil.NewClock(time.Date(2025, 6, 10, 7, 0, 0, 0, time.UTC))
	s := New(scanner, clock, Config{DailyAt: 7 * time.Hour}, zerolog.Nop())

	result, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Nil(t, result)

	scanner.setErr(nil)
	result, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 2, scanner.count())
}

func TestScheduler_RunOnceReturnsScanError(t *testing.T) {
	scanner := &fakeScanner{err: errors.New("db down")}
	s := New(scanner, testutil.NewClock(time.Now()), Config{}, zerolog.Nop())

	_, err := s.RunOnce(context.Background())
	assert.EqualError(t, err, "db down")
}

func TestScheduler_RunFiresAtNextRun(t *testing.T) {
	scanner := &fakeScanner{}
	clock := testutil.NewClock(time.Date(2025, 6, 10, 6, 0, 0, 0, time.UTC))
	s := New(scanner, clock, Config{DailyAt: 7 * time.Hour}, zerolog.Nop())

	waits := make(chan time.Duration, 4)
	fire := make(chan time.Time)
	s.after = func(d time.Duration) <-chan time.Time {
		waits <- d
		return fire
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Equal(t, time.Hour, <-waits)

	clock.Set(time.Date(2025, 6, 10, 7, 0, 0, 0, time.UTC))
	fire <- clock.Now()

	assert.Equal(t, 24*time.Hour, <-waits)
	assert.Equal(t, 1, scanner.count())

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
