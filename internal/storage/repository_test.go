package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"washlog/internal/core"
)

type recordingPublisher struct {
	mu    sync.Mutex
	got   []core.WashRecord
	count []int
	err   error
	// block, when set, holds every publication until it is closed.
	block chan struct{}
}

func (p *recordingPublisher) PublishWashRegistered(ctx context.Context, rec core.WashRecord, count int) error {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, rec)
	p.count = append(p.count, count)
	return p.err
}

func newTestRepo(t *testing.T, opts ...Option) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "sub", "washes.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRegisterAndHistory(t *testing.T) {
	now := time.Date(2024, 5, 31, 23, 59, 58, 0, time.Local)
	repo := newTestRepo(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	n, err := repo.Register(ctx, "pans")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	now = now.Add(3 * time.Second)
	n, err = repo.Register(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	hist, err := repo.History(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.WashRecord{
		{Date: "2024-05-31", Time: "23:59:58", Month: "2024-05", Note: "pans"},
		{Date: "2024-06-01", Time: "00:00:01", Month: "2024-06", Note: ""},
	}, hist)

	june, err := repo.ListByMonth(ctx, "2024-06")
	require.NoError(t, err)
	assert.Len(t, june, 1)
}

func TestHistoryEmpty(t *testing.T) {
	repo := newTestRepo(t)
	hist, err := repo.History(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, hist)
	assert.Empty(t, hist)
}

func TestRegisterPublishes(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	repo := newTestRepo(t, WithPublisher(pub))

	n, err := repo.Register(context.Background(), "x")
	require.NoError(t, err, "publish failure must not fail the registration")
	assert.Equal(t, 1, n)

	require.NoError(t, repo.Close(), "close waits for pending publications")
	require.Len(t, pub.got, 1)
	assert.Equal(t, "x", pub.got[0].Note)
	assert.Equal(t, []int{1}, pub.count)
}

func TestRegisterDoesNotWaitForBroker(t *testing.T) {
	pub := &recordingPublisher{block: make(chan struct{})}
	repo := newTestRepo(t, WithPublisher(pub))

	ctx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	n, err := repo.Register(ctx, "pans")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Less(t, time.Since(start), time.Second, "registration must return before the event is published")

	// The request ending must not abort the publication.
	cancel()
	close(pub.block)
	require.NoError(t, repo.Close())

	require.Len(t, pub.got, 1)
	assert.Equal(t, "pans", pub.got[0].Note)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "washes.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))
}
