package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const DefaultAutosaveInterval = 30 * time.Second

// DraftStore persists autosave snapshots. SaveDraft must only accept a payload whose seq is
// greater than the stored one and report whether it did.
type DraftStore interface {
	SaveDraft(ctx context.Context, key string, seq uint64, payload []byte) (bool, error)
	LoadDraft(ctx context.Context, key string) (seq uint64, payload []byte, found bool, err error)
	DeleteDraft(ctx context.Context, key string) error
}

// Autosaver periodically snapshots a draft into a DraftStore. Every snapshot takes the next
// sequence number when it is taken, so a slow older write can never replace a newer one.
type Autosaver struct {
	store    DraftStore
	key      string
	source   func() *SurveyDraft
	interval time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	seq     uint64
	primed  bool
	started bool

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewAutosaver saves whatever source returns under key. A zero interval uses the default.
func NewAutosaver(store DraftStore, key string, source func() *SurveyDraft, interval time.Duration, log *slog.Logger) *Autosaver {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	return &Autosaver{
		store:    store,
		key:      key,
		source:   source,
		interval: interval,
		log:      orDiscard(log),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// DraftKey names the autosave slot for a survey; new surveys share the "new" slot.
func DraftKey(surveyID int64) string {
	if surveyID <= 0 {
		return "draft:new"
	}
	return fmt.Sprintf("draft:%d", surveyID)
}

// Start runs the save loop until Stop is called or ctx is cancelled.
func (a *Autosaver) Start(ctx context.Context) {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return
	}
	a.started = true
	a.mu.Unlock()
	go func() {
		defer close(a.done)
		t := time.NewTicker(a.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-a.stop:
				return
			case <-t.C:
				if _, err := a.SaveNow(ctx); err != nil && ctx.Err() == nil {
					a.log.Warn("autosave failed", "key", a.key, "error", err)
				}
			}
		}
	}()
}

// Stop ends the loop and waits for an in-flight save. Safe to call more than once.
func (a *Autosaver) Stop() {
	a.stopOnce.Do(func() { close(a.stop) })
	a.mu.Lock()
	started := a.started
	a.mu.Unlock()
	if started {
		<-a.done
	}
}

func (a *Autosaver) next(ctx context.Context) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.primed {
		seq, _, _, err := a.store.LoadDraft(ctx, a.key)
		if err != nil {
			return 0, fmt.Errorf("load draft seq: %w", err)
		}
		a.seq = seq
		a.primed = true
	}
	a.seq++
	return a.seq, nil
}

// SaveNow snapshots the draft immediately. It reports false when the store already held a
// newer snapshot.
func (a *Autosaver) SaveNow(ctx context.Context) (bool, error) {
	d := a.source()
	if d == nil {
		return false, nil
	}
	payload, err := json.Marshal(d.Document())
	if err != nil {
		return false, fmt.Errorf("encode draft: %w", err)
	}
	seq, err := a.next(ctx)
	if err != nil {
		return false, err
	}
	ok, err := a.store.SaveDraft(ctx, a.key, seq, payload)
	if err != nil {
		return false, fmt.Errorf("save draft: %w", err)
	}
	if !ok {
		a.log.Debug("stale autosave dropped", "key", a.key, "seq", seq)
		return false, nil
	}
	a.log.Debug("draft autosaved", "key", a.key, "seq", seq, "questions", len(d.Questions))
	return true, nil
}

// Restore returns the saved draft, or nil when none exists.
func (a *Autosaver) Restore(ctx context.Context, creation, edit RatingPolicy) (*SurveyDraft, error) {
	seq, payload, found, err := a.store.LoadDraft(ctx, a.key)
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if !found {
		return nil, nil
	}
	a.mu.Lock()
	if !a.primed || seq > a.seq {
		a.seq = seq
		a.primed = true
	}
	a.mu.Unlock()

	var doc DraftDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, NewInvalidError(fmt.Sprintf("saved draft is unreadable: %v", err))
	}
	return DraftFromDocument(doc, creation, edit)
}

// Discard removes the saved draft, typically after a successful submit.
func (a *Autosaver) Discard(ctx context.Context) error {
	if err := a.store.DeleteDraft(ctx, a.key); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
