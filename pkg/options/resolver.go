// Package options resolves dependency-triggered option lists. A field that
// declares dynamicOptions gets its choices fetched whenever the field it
// depends on changes; results are cached per dependent field and stale
// responses are discarded by trigger order.
package options

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formportal/pkg/schema"
)

const defaultMethod = "GET"

// Fetcher performs the external option lookup. Implementations live at the
// transport layer; the resolver only cares about the resulting option slice.
type Fetcher interface {
	FetchOptions(ctx context.Context, endpoint, method string, query url.Values) ([]string, error)
}

// FetcherFunc adapts a function into a Fetcher.
type FetcherFunc func(ctx context.Context, endpoint, method string, query url.Values) ([]string, error)

// FetchOptions delegates to the underlying function.
func (fn FetcherFunc) FetchOptions(ctx context.Context, endpoint, method string, query url.Values) ([]string, error) {
	return fn(ctx, endpoint, method, query)
}

// UpdateFunc is invoked after the cache entry for a dependent field settles,
// so interactive frontends can re-render when a lookup lands late.
type UpdateFunc func(fieldID string, options []string)

// Option customises resolver construction.
type Option func(*Resolver)

// WithLogger attaches a logger for discarded and failed lookups.
func WithLogger(log *zap.Logger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// WithUpdateFunc registers a callback fired whenever a field's cached options
// change.
func WithUpdateFunc(fn UpdateFunc) Option {
	return func(r *Resolver) {
		r.onUpdate = fn
	}
}

// Resolver owns the per-field option cache for the active form. It
// generalizes to any number of dependent fields; exactly one writer (the
// session) drives AnswerChanged, while fetch completions synchronise through
// the internal mutex.
type Resolver struct {
	fetcher  Fetcher
	log      *zap.Logger
	onUpdate UpdateFunc

	mu     sync.Mutex
	cache  map[string][]string
	latest map[string]uint64
	next   uint64

	inflight sync.WaitGroup
}

// NewResolver constructs a resolver around the given fetcher.
func NewResolver(fetcher Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher: fetcher,
		log:     zap.NewNop(),
		cache:   make(map[string][]string),
		latest:  make(map[string]uint64),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// AnswerChanged reacts to a mutation of the answer set. For every field whose
// dynamic options depend on changedID: an empty trigger value resets the
// cached options with no network call, anything else issues an asynchronous
// lookup carrying the value as a query parameter named after the trigger
// field. Only the most recently triggered lookup per dependent field may
// populate the cache.
func (r *Resolver) AnswerChanged(ctx context.Context, def schema.FormDefinition, changedID string, value any) {
	dependents := def.DependentsOf(changedID)
	if len(dependents) == 0 {
		return
	}

	trigger := triggerValue(value)
	for _, dep := range dependents {
		if trigger == "" {
			r.store(r.issue(dep.ID), dep.ID, nil)
			continue
		}
		token := r.issue(dep.ID)
		spec := *dep.DynamicOptions
		fieldID := dep.ID

		r.inflight.Add(1)
		go func() {
			defer r.inflight.Done()
			r.fetch(ctx, token, fieldID, spec, changedID, trigger)
		}()
	}
}

func (r *Resolver) fetch(ctx context.Context, token uint64, fieldID string, spec schema.DynamicOptionsSpec, param, value string) {
	method := strings.TrimSpace(spec.Method)
	if method == "" {
		method = defaultMethod
	}
	query := url.Values{param: []string{value}}

	opts, err := r.fetcher.FetchOptions(ctx, spec.Endpoint, method, query)
	if err != nil {
		// Option lookups never crash a form render; the field simply
		// shows no choices.
		r.log.Warn("option lookup failed",
			zap.String("field", fieldID),
			zap.String("endpoint", spec.Endpoint),
			zap.Error(err))
		opts = nil
	}
	r.store(token, fieldID, opts)
}

// issue registers a new lookup for the field and returns its token. Later
// tokens supersede earlier ones regardless of completion order.
func (r *Resolver) issue(fieldID string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.latest[fieldID] = r.next
	return r.next
}

func (r *Resolver) store(token uint64, fieldID string, opts []string) {
	r.mu.Lock()
	if r.latest[fieldID] != token {
		r.mu.Unlock()
		r.log.Debug("discarding stale option lookup", zap.String("field", fieldID))
		return
	}
	if opts == nil {
		opts = []string{}
	}
	r.cache[fieldID] = opts
	r.mu.Unlock()

	if r.onUpdate != nil {
		r.onUpdate(fieldID, append([]string(nil), opts...))
	}
}

// Options returns a snapshot of the cached option list for a field. The slice
// is empty until the field's dependency fires at least once.
func (r *Resolver) Options(fieldID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.cache[fieldID]...)
}

// Reset discards every cached option list and invalidates in-flight lookups.
// Called when the active form changes.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string][]string)
	r.latest = make(map[string]uint64)
}

// Wait blocks until all in-flight lookups have settled. Intended for shutdown
// paths and tests.
func (r *Resolver) Wait() {
	r.inflight.Wait()
}

func triggerValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
