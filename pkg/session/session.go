// Package session implements the form interpreter: it selects the active form
// definition, drives answer state, recomputes visibility on every change,
// triggers dynamic-option loads, autosaves drafts, and validates on submit.
//
// The session is the single writer for the answer set, the option cache, and
// the field order. All reads by presentation collaborators are snapshot reads.
package session

import (
	"context"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formportal/pkg/draft"
	"github.com/goliatone/go-formportal/pkg/options"
	"github.com/goliatone/go-formportal/pkg/order"
	"github.com/goliatone/go-formportal/pkg/schema"
	"github.com/goliatone/go-formportal/pkg/visibility"
)

// Submitter hands a completed application off to the backend.
type Submitter interface {
	SubmitApplication(ctx context.Context, formID string, payload map[string]any) error
}

// SubmitterFunc adapts a function into a Submitter.
type SubmitterFunc func(ctx context.Context, formID string, payload map[string]any) error

// SubmitApplication delegates to the underlying function.
func (fn SubmitterFunc) SubmitApplication(ctx context.Context, formID string, payload map[string]any) error {
	return fn(ctx, formID, payload)
}

// Notifier receives submission outcome notifications.
type Notifier interface {
	SubmissionSucceeded(formID string)
	SubmissionFailed(formID string, err error)
}

// NotifierFuncs adapts plain functions into a Notifier. Nil members are
// skipped.
type NotifierFuncs struct {
	OnSuccess func(formID string)
	OnFailure func(formID string, err error)
}

// SubmissionSucceeded invokes OnSuccess when set.
func (n NotifierFuncs) SubmissionSucceeded(formID string) {
	if n.OnSuccess != nil {
		n.OnSuccess(formID)
	}
}

// SubmissionFailed invokes OnFailure when set.
func (n NotifierFuncs) SubmissionFailed(formID string, err error) {
	if n.OnFailure != nil {
		n.OnFailure(formID, err)
	}
}

// Option customises session construction.
type Option func(*Session)

// WithDraftStore overrides the in-memory default draft store.
func WithDraftStore(store draft.Store) Option {
	return func(s *Session) {
		if store != nil {
			s.drafts = store
		}
	}
}

// WithOptionFetcher wires the external option lookup capability.
func WithOptionFetcher(fetcher options.Fetcher) Option {
	return func(s *Session) {
		s.fetcher = fetcher
	}
}

// WithOptionsUpdate registers a callback fired when a dynamic-option lookup
// settles, so frontends can re-render.
func WithOptionsUpdate(fn options.UpdateFunc) Option {
	return func(s *Session) {
		s.onOptions = fn
	}
}

// WithEvaluator overrides the declarative visibility evaluator.
func WithEvaluator(eval visibility.Evaluator) Option {
	return func(s *Session) {
		if eval != nil {
			s.evaluator = eval
		}
	}
}

// WithSubmitter wires the external submit capability.
func WithSubmitter(submitter Submitter) Option {
	return func(s *Session) {
		s.submitter = submitter
	}
}

// WithNotifier wires submission outcome notifications.
func WithNotifier(notifier Notifier) Option {
	return func(s *Session) {
		if notifier != nil {
			s.notifier = notifier
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// Session orchestrates one user's interaction with the portal, one active
// form at a time.
type Session struct {
	log       *zap.Logger
	drafts    draft.Store
	fetcher   options.Fetcher
	onOptions options.UpdateFunc
	resolver  *options.Resolver
	evaluator visibility.Evaluator
	submitter Submitter
	notifier  Notifier

	mu          sync.Mutex
	form        *schema.FormDefinition
	order       *order.Controller
	answers     map[string]any
	fieldErrors map[string][]string
	phase       Phase

	saver *draftSaver
}

// New constructs a session. Missing collaborators get safe defaults: an
// in-memory draft store, the declarative visibility evaluator, a no-op
// notifier, and an option fetcher that resolves nothing.
func New(opts ...Option) *Session {
	s := &Session{
		log:       zap.NewNop(),
		evaluator: visibility.Default(),
		notifier:  NotifierFuncs{},
		phase:     PhaseIdle,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.drafts == nil {
		s.drafts = draft.NewMemoryStore()
	}
	if s.fetcher == nil {
		s.fetcher = options.FetcherFunc(func(context.Context, string, string, url.Values) ([]string, error) {
			return nil, nil
		})
	}
	s.resolver = options.NewResolver(s.fetcher,
		options.WithLogger(s.log),
		options.WithUpdateFunc(s.onOptions))
	s.saver = newDraftSaver(s.drafts, s.log)
	return s
}

// SelectForm makes def the active form: previous in-memory state is
// discarded, the option cache reset, and the form's draft (if any) restored
// into the answer set. Restored trigger values re-arm their dependent option
// lookups so restored selects are not left without choices.
func (s *Session) SelectForm(ctx context.Context, def schema.FormDefinition) error {
	s.mu.Lock()
	s.form = &def
	s.order = order.NewController(def.Fields)
	s.answers = make(map[string]any)
	s.fieldErrors = make(map[string][]string)
	s.phase = PhaseAwaitingInput
	s.mu.Unlock()

	s.resolver.Reset()

	restored, ok, err := s.drafts.Load(ctx, def.FormID)
	if err != nil {
		s.log.Warn("draft restore failed", zap.String("form", def.FormID), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	s.mu.Lock()
	s.answers = restored
	s.mu.Unlock()

	for fieldID, value := range restored {
		s.resolver.AnswerChanged(ctx, def, fieldID, value)
	}
	return nil
}

// SetAnswer records a user input for the given field, recomputes dependent
// option lists when the field is a dependency trigger, and persists the draft
// without blocking the caller. Drafts go through the serialized saver, so
// however writes interleave the store always ends up with the newest
// snapshot. Enqueueing happens under the session lock to keep snapshot order
// aligned with answer order.
func (s *Session) SetAnswer(ctx context.Context, fieldID string, value any) error {
	s.mu.Lock()
	if s.form == nil {
		s.mu.Unlock()
		return ErrNoFormSelected
	}
	def := *s.form
	s.answers[fieldID] = value
	delete(s.fieldErrors, fieldID)
	s.saver.Enqueue(ctx, def.FormID, copyAnswers(s.answers))
	s.mu.Unlock()

	s.resolver.AnswerChanged(ctx, def, fieldID, value)
	return nil
}

// MoveItem reorders the top-level items. Returns false on a no-op gesture.
func (s *Session) MoveItem(fromID, toID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.order == nil {
		return false
	}
	return s.order.MoveItem(fromID, toID)
}

// Submit re-validates every required and currently visible field, then hands
// the full answer set to the submit capability. Validation failures mark the
// offending fields and abort before any network call.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.form == nil {
		s.mu.Unlock()
		return ErrNoFormSelected
	}
	if s.phase == PhaseSubmitting {
		s.mu.Unlock()
		return ErrSubmitInFlight
	}
	def := *s.form
	answers := copyAnswers(s.answers)
	s.mu.Unlock()

	failures := s.validate(def, answers)
	if len(failures) > 0 {
		s.mu.Lock()
		for id, msgs := range failures {
			s.fieldErrors[id] = msgs
		}
		s.mu.Unlock()
		return &ValidationError{Fields: failures}
	}

	s.setPhase(PhaseSubmitting)

	if s.submitter == nil {
		s.setPhase(PhaseAwaitingInput)
		err := ErrSubmissionFailed
		s.notifier.SubmissionFailed(def.FormID, err)
		return err
	}

	if err := s.submitter.SubmitApplication(ctx, def.FormID, answers); err != nil {
		s.setPhase(PhaseAwaitingInput)
		s.log.Warn("submission failed", zap.String("form", def.FormID), zap.Error(err))
		s.notifier.SubmissionFailed(def.FormID, err)
		return &submissionError{cause: err}
	}

	s.setPhase(PhaseSubmitted)
	s.notifier.SubmissionSucceeded(def.FormID)
	return nil
}

// Phase reports the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// FormID reports the active form id, empty when idle.
func (s *Session) FormID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form == nil {
		return ""
	}
	return s.form.FormID
}

// Answers returns a snapshot of the current answer set.
func (s *Session) Answers() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyAnswers(s.answers)
}

// Answer returns the current value for one field.
func (s *Session) Answer(fieldID string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.answers[fieldID]
	return v, ok
}

// FieldErrors returns a snapshot of the per-field validation errors.
func (s *Session) FieldErrors() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]string, len(s.fieldErrors))
	for id, msgs := range s.fieldErrors {
		out[id] = append([]string(nil), msgs...)
	}
	return out
}

// Options returns the resolved dynamic options for a field.
func (s *Session) Options(fieldID string) []string {
	return s.resolver.Options(fieldID)
}

// Wait blocks until pending draft saves and option lookups settle. Intended
// for shutdown paths and tests.
func (s *Session) Wait() {
	s.saver.Wait()
	s.resolver.Wait()
}

func (s *Session) setPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

func copyAnswers(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
