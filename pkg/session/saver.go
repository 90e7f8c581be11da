package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formportal/pkg/draft"
)

// draftSaver writes snapshots through a single worker so a slow write can
// never land after a newer one. A burst of edits coalesces: only the latest
// snapshot still pending when the worker comes around gets written.
type draftSaver struct {
	store draft.Store
	log   *zap.Logger

	mu      sync.Mutex
	pending *draftSnapshot
	running bool
	idle    sync.WaitGroup
}

type draftSnapshot struct {
	ctx     context.Context
	formID  string
	answers map[string]any
}

func newDraftSaver(store draft.Store, log *zap.Logger) *draftSaver {
	return &draftSaver{store: store, log: log}
}

// Enqueue replaces any snapshot the worker has not yet taken and starts the
// worker if it is idle. The caller returns immediately; the write keeps going
// even if ctx is cancelled afterwards.
func (d *draftSaver) Enqueue(ctx context.Context, formID string, answers map[string]any) {
	d.mu.Lock()
	d.pending = &draftSnapshot{
		ctx:     context.WithoutCancel(ctx),
		formID:  formID,
		answers: answers,
	}
	if !d.running {
		d.running = true
		d.idle.Add(1)
		go d.drain()
	}
	d.mu.Unlock()
}

func (d *draftSaver) drain() {
	for {
		d.mu.Lock()
		next := d.pending
		d.pending = nil
		if next == nil {
			d.running = false
			d.mu.Unlock()
			d.idle.Done()
			return
		}
		d.mu.Unlock()

		if err := d.store.Save(next.ctx, next.formID, next.answers); err != nil {
			d.log.Warn("draft save failed", zap.String("form", next.formID), zap.Error(err))
		}
	}
}

// Wait blocks until every enqueued snapshot has been written.
func (d *draftSaver) Wait() {
	d.idle.Wait()
}
