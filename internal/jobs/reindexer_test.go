package jobs

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/teamkb-be/internal/models"
)

// fakeIndex keeps a stale set that Index drains.
type fakeIndex struct {
	mu      sync.Mutex
	stale   map[string]bool
	failing map[string]bool
	calls   int
}

func newFakeIndex(ids ...string) *fakeIndex {
	f := &fakeIndex{stale: map[string]bool{}, failing: map[string]bool{}}
	for _, id := range ids {
		f.stale[id] = true
	}
	return f
}

func (f *fakeIndex) ListStaleArticles(_ context.Context, limit int) ([]models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.stale))
	for id := range f.stale {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []models.Article
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		out = append(out, models.Article{ID: id})
	}
	return out, nil
}

func (f *fakeIndex) Index(_ context.Context, a models.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failing[a.ID] {
		return errors.New("embedder unavailable")
	}
	delete(f.stale, a.ID)
	return nil
}

func TestNewReindexerRejectsBadSchedule(t *testing.T) {
	_, err := NewReindexer(newFakeIndex(), newFakeIndex(), "every minute")
	assert.Error(t, err)
}

func TestRunOnceDrainsInBatches(t *testing.T) {
	f := newFakeIndex("a", "b", "c", "d", "e")
	r, err := NewReindexer(f, f, "*/5 * * * *")
	require.NoError(t, err)
	r.batchSize = 2

	n, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Empty(t, f.stale)
}

func TestRunOnceStopsWhenNothingIndexes(t *testing.T) {
	f := newFakeIndex("a", "b", "c")
	f.failing["b"] = true
	f.failing["c"] = true
	r, err := NewReindexer(f, f, "*/5 * * * *")
	require.NoError(t, err)
	r.batchSize = 2

	n, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, f.stale, 2)
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFakeIndex("a")
	r, err := NewReindexer(f, f, "0 0 1 1 *")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.stale) == 0
	}, time.Second, 10*time.Millisecond, "initial pass runs immediately")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	f := newFakeIndex()
	r, err := NewReindexer(f, f, "0 0 1 1 *")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		r.Run(context.Background())
		close(done)
	}()
	r.Stop()
	r.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
