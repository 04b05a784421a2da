package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memDraftStore applies the same seq fence as the SQLite store.
type memDraftStore struct {
	mu      sync.Mutex
	seq     map[string]uint64
	payload map[string][]byte
	saves   int
	hook    func(seq uint64)
	loadErr error
}

func newMemDraftStore() *memDraftStore {
	return &memDraftStore{seq: map[string]uint64{}, payload: map[string][]byte{}}
}

func (m *memDraftStore) SaveDraft(ctx context.Context, key string, seq uint64, payload []byte) (bool, error) {
	if m.hook != nil {
		m.hook(seq)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if cur, ok := m.seq[key]; ok && seq <= cur {
		return false, nil
	}
	m.seq[key] = seq
	m.payload[key] = append([]byte(nil), payload...)
	return true, nil
}

func (m *memDraftStore) LoadDraft(ctx context.Context, key string) (uint64, []byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return 0, nil, false, m.loadErr
	}
	seq, ok := m.seq[key]
	return seq, m.payload[key], ok, nil
}

func (m *memDraftStore) DeleteDraft(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seq, key)
	delete(m.payload, key)
	return nil
}

func (m *memDraftStore) savedTitle(t *testing.T, key string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	var doc DraftDocument
	require.NoError(t, json.Unmarshal(m.payload[key], &doc))
	return doc.Title
}

func (m *memDraftStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func TestStaleAutosaveNeverOverwritesNewer(t *testing.T) {
	store := newMemDraftStore()
	release := make(chan struct{})
	entered := make(chan struct{})
	store.hook = func(seq uint64) {
		if seq == 1 {
			close(entered)
			<-release
		}
	}

	var mu sync.Mutex
	title := "older"
	source := func() *SurveyDraft {
		mu.Lock()
		defer mu.Unlock()
		d := NewDraft()
		d.Title = title
		return d
	}
	a := NewAutosaver(store, DraftKey(0), source, time.Hour, nil)

	older := make(chan bool)
	go func() {
		ok, err := a.SaveNow(context.Background())
		assert.NoError(t, err)
		older <- ok
	}()
	<-entered

	mu.Lock()
	title = "newer"
	mu.Unlock()
	ok, err := a.SaveNow(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	close(release)
	assert.False(t, <-older)
	assert.Equal(t, "newer", store.savedTitle(t, "draft:new"))
}

func TestAutosaverPrimesSeqFromStore(t *testing.T) {
	store := newMemDraftStore()
	_, err := store.SaveDraft(context.Background(), "draft:7", 41, []byte(`{"title":"old"}`))
	require.NoError(t, err)

	a := NewAutosaver(store, DraftKey(7), func() *SurveyDraft {
		d := NewDraft()
		d.Title = "fresh"
		return d
	}, 0, nil)
	assert.Equal(t, DefaultAutosaveInterval, a.interval)

	ok, err := a.SaveNow(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(42), store.seq["draft:7"])
}

func TestAutosaverLoopAndStop(t *testing.T) {
	store := newMemDraftStore()
	a := NewAutosaver(store, "draft:loop", func() *SurveyDraft {
		d := NewDraft()
		d.Title = "tick"
		return d
	}, 10*time.Millisecond, nil)

	a.Start(context.Background())
	require.Eventually(t, func() bool { return store.saveCount() >= 2 }, time.Second, 5*time.Millisecond)
	a.Stop()
	a.Stop()

	n := store.saveCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, store.saveCount())
}

func TestAutosaverStopsOnContextCancel(t *testing.T) {
	store := newMemDraftStore()
	ctx, cancel := context.WithCancel(context.Background())
	a := NewAutosaver(store, "draft:ctx", func() *SurveyDraft { return nil }, 5*time.Millisecond, nil)
	a.Start(ctx)
	cancel()

	select {
	case <-a.done:
	case <-time.After(time.Second):
		t.Fatal("loop did not exit on cancel")
	}
	assert.Equal(t, 0, store.saveCount())
}

func TestAutosaverRestoreAndDiscard(t *testing.T) {
	store := newMemDraftStore()
	src := newTestDraft()
	src.Title = "Q3 Check-in"
	_, _ = src.AddQuestion("RATING")

	a := NewAutosaver(store, "draft:new", func() *SurveyDraft { return src.Clone() }, time.Hour, nil)
	_, err := a.SaveNow(context.Background())
	require.NoError(t, err)

	b := NewAutosaver(store, "draft:new", func() *SurveyDraft { return nil }, time.Hour, nil)
	d, err := b.Restore(context.Background(), CreationRatingPolicy, EditRatingPolicy)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "Q3 Check-in", d.Title)
	assert.Equal(t, src.Questions[0].ID, d.Questions[0].ID)

	require.NoError(t, b.Discard(context.Background()))
	d, err = b.Restore(context.Background(), CreationRatingPolicy, EditRatingPolicy)
	require.NoError(t, err)
	assert.Nil(t, d)

	b.Stop()
}

func TestAutosaverLoadError(t *testing.T) {
	store := newMemDraftStore()
	store.loadErr = errors.New("disk gone")
	a := NewAutosaver(store, "draft:x", func() *SurveyDraft { return NewDraft() }, time.Hour, nil)
	_, err := a.SaveNow(context.Background())
	assert.ErrorIs(t, err, store.loadErr)
	_, err = a.Restore(context.Background(), CreationRatingPolicy, EditRatingPolicy)
	assert.ErrorIs(t, err, store.loadErr)
}
