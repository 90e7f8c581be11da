package session

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formportal/pkg/draft"
	"github.com/goliatone/go-formportal/pkg/options"
	"github.com/goliatone/go-formportal/pkg/schema"
)

func healthForm() schema.FormDefinition {
	return schema.FormDefinition{
		FormID: "health_v1",
		Title:  "Health Application",
		Fields: []schema.Field{
			{ID: "country", Label: "Country", Kind: schema.FieldKindSelect, Required: true, Options: []string{"US", "CA"}},
			{ID: "state", Label: "State", Kind: schema.FieldKindSelect, DynamicOptions: &schema.DynamicOptionsSpec{
				DependsOn: "country",
				Endpoint:  "/api/regions/states",
			}},
			{ID: "smoker", Label: "Smoker", Kind: schema.FieldKindRadio, Options: []string{"Yes", "No"}},
			{ID: "discount", Label: "Discount Code", Kind: schema.FieldKindText, Visibility: &schema.VisibilitySpec{
				DependsOn: "smoker",
				Condition: schema.VisibilityEquals,
				Value:     "Yes",
			}},
		},
	}
}

func renderIDs(items []RenderItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Field.ID)
	}
	return out
}

func TestSelectFormRestoresDraft(t *testing.T) {
	t.Parallel()

	store := draft.NewMemoryStore()
	ctx := context.Background()
	if err := store.Save(ctx, "health_v1", map[string]any{"country": "US"}); err != nil {
		t.Fatalf("seed draft: %v", err)
	}

	s := New(WithDraftStore(store))
	if s.Phase() != PhaseIdle {
		t.Fatalf("fresh session must be idle")
	}
	if err := s.SelectForm(ctx, healthForm()); err != nil {
		t.Fatalf("SelectForm returned error: %v", err)
	}
	if s.Phase() != PhaseAwaitingInput {
		t.Fatalf("expected awaiting_input, got %s", s.Phase())
	}
	if got, _ := s.Answer("country"); got != "US" {
		t.Fatalf("draft not restored, got %v", got)
	}
}

func TestSetAnswerPersistsDraft(t *testing.T) {
	t.Parallel()

	store := draft.NewMemoryStore()
	ctx := context.Background()
	s := New(WithDraftStore(store))
	if err := s.SelectForm(ctx, healthForm()); err != nil {
		t.Fatalf("SelectForm: %v", err)
	}

	if err := s.SetAnswer(ctx, "country", "CA"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	s.Wait()

	saved, ok, err := store.Load(ctx, "health_v1")
	if err != nil || !ok {
		t.Fatalf("draft missing after SetAnswer: ok=%v err=%v", ok, err)
	}
	if saved["country"] != "CA" {
		t.Fatalf("unexpected draft contents: %v", saved)
	}
}

// stallStore delays its first write so a racing second write would finish
// first if saves ran concurrently.
type stallStore struct {
	inner *draft.MemoryStore

	mu      sync.Mutex
	saves   int
	active  int
	overlap bool
}

func (s *stallStore) Save(ctx context.Context, formID string, answers map[string]any) error {
	s.mu.Lock()
	s.active++
	if s.active > 1 {
		s.overlap = true
	}
	first := s.saves == 0
	s.saves++
	s.mu.Unlock()

	if first {
		time.Sleep(30 * time.Millisecond)
	}
	err := s.inner.Save(ctx, formID, answers)

	s.mu.Lock()
	s.active--
	s.mu.Unlock()
	return err
}

func (s *stallStore) Load(ctx context.Context, formID string) (map[string]any, bool, error) {
	return s.inner.Load(ctx, formID)
}

func (s *stallStore) ResetAll(ctx context.Context) error {
	return s.inner.ResetAll(ctx)
}

func TestDraftAlwaysHoldsNewestSnapshot(t *testing.T) {
	t.Parallel()

	store := &stallStore{inner: draft.NewMemoryStore()}
	ctx := context.Background()
	s := New(WithDraftStore(store))
	if err := s.SelectForm(ctx, healthForm()); err != nil {
		t.Fatalf("SelectForm: %v", err)
	}

	if err := s.SetAnswer(ctx, "country", "US"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.SetAnswer(ctx, "country", "CA"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	s.Wait()

	saved, ok, err := store.Load(ctx, "health_v1")
	if err != nil || !ok {
		t.Fatalf("draft missing: ok=%v err=%v", ok, err)
	}
	if saved["country"] != "CA" {
		t.Fatalf("draft holds stale snapshot: %v", saved)
	}
	if store.overlap {
		t.Fatalf("draft writes overlapped")
	}
}

func TestSetAnswerWithoutFormFails(t *testing.T) {
	t.Parallel()

	s := New()
	if err := s.SetAnswer(context.Background(), "country", "US"); !errors.Is(err, ErrNoFormSelected) {
		t.Fatalf("expected ErrNoFormSelected, got %v", err)
	}
}

func TestSwitchingFormsDiscardsState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	if err := s.SelectForm(ctx, healthForm()); err != nil {
		t.Fatalf("SelectForm: %v", err)
	}
	if err := s.SetAnswer(ctx, "country", "US"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}

	other := schema.FormDefinition{FormID: "auto_v2", Title: "Auto", Fields: []schema.Field{
		{ID: "vin", Kind: schema.FieldKindText},
	}}
	if err := s.SelectForm(ctx, other); err != nil {
		t.Fatalf("SelectForm: %v", err)
	}
	if _, ok := s.Answer("country"); ok {
		t.Fatalf("previous form's answers leaked into the new form")
	}
	if s.FormID() != "auto_v2" {
		t.Fatalf("unexpected active form %q", s.FormID())
	}
}

func TestRenderVisibilityProjection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	if err := s.SelectForm(ctx, healthForm()); err != nil {
		t.Fatalf("SelectForm: %v", err)
	}

	// state is gated on country, discount on smoker=Yes.
	if diff := cmp.Diff([]string{"country", "smoker"}, renderIDs(s.Render())); diff != "" {
		t.Fatalf("initial projection mismatch (-want +got):\n%s", diff)
	}

	if err := s.SetAnswer(ctx, "smoker", "Yes"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if diff := cmp.Diff([]string{"country", "smoker", "discount"}, renderIDs(s.Render())); diff != "" {
		t.Fatalf("smoker=Yes must reveal discount (-want +got):\n%s", diff)
	}

	if err := s.SetAnswer(ctx, "smoker", "No"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if diff := cmp.Diff([]string{"country", "smoker"}, renderIDs(s.Render())); diff != "" {
		t.Fatalf("smoker=No must hide discount (-want +got):\n%s", diff)
	}
	// The answer itself may be retained even while hidden.
	if err := s.SetAnswer(ctx, "discount", "SAVE10"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if got, _ := s.Answer("discount"); got != "SAVE10" {
		t.Fatalf("hidden field's answer must be retained, got %v", got)
	}
}

func TestRenderResolvesDynamicOptions(t *testing.T) {
	t.Parallel()

	fetcher := options.FetcherFunc(func(_ context.Context, endpoint, _ string, query url.Values) ([]string, error) {
		if endpoint != "/api/regions/states" {
			t.Errorf("unexpected endpoint %q", endpoint)
		}
		if query.Get("country") == "US" {
			return []string{"California", "Texas"}, nil
		}
		return []string{"Ontario"}, nil
	})

	ctx := context.Background()
	s := New(WithOptionFetcher(fetcher))
	if err := s.SelectForm(ctx, healthForm()); err != nil {
		t.Fatalf("SelectForm: %v", err)
	}

	if err := s.SetAnswer(ctx, "country", "US"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	s.Wait()

	var state *RenderItem
	for _, item := range s.Render() {
		if item.Field.ID == "state" {
			it := item
			state = &it
		}
	}
	if state == nil {
		t.Fatalf("state must render once country is set")
	}
	if diff := cmp.Diff([]string{"California", "Texas"}, state.Options); diff != "" {
		t.Fatalf("state options mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupProjection(t *testing.T) {
	t.Parallel()

	def := schema.FormDefinition{
		FormID: "grouped",
		Title:  "Grouped",
		Fields: []schema.Field{
			{ID: "employed", Kind: schema.FieldKindRadio, Options: []string{"Yes", "No"}},
			{ID: "employment", Label: "Employment", Kind: schema.FieldKindGroup, Fields: []schema.Field{
				{ID: "employer", Kind: schema.FieldKindText, Visibility: &schema.VisibilitySpec{
					DependsOn: "employed", Condition: schema.VisibilityEquals, Value: "Yes",
				}},
				{ID: "salary", Kind: schema.FieldKindNumber, Visibility: &schema.VisibilitySpec{
					DependsOn: "employed", Condition: schema.VisibilityEquals, Value: "Yes",
				}},
			}},
		},
	}

	ctx := context.Background()
	s := New()
	if err := s.SelectForm(ctx, def); err != nil {
		t.Fatalf("SelectForm: %v", err)
	}

	// All members hidden: the group disappears, not an empty shell.
	if diff := cmp.Diff([]string{"employed"}, renderIDs(s.Render())); diff != "" {
		t.Fatalf("group must be omitted when empty (-want +got):\n%s", diff)
	}

	if err := s.SetAnswer(ctx, "employed", "Yes"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	items := s.Render()
	if diff := cmp.Diff([]string{"employed", "employment"}, renderIDs(items)); diff != "" {
		t.Fatalf("projection mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"employer", "salary"}, renderIDs(items[1].Members)); diff != "" {
		t.Fatalf("group members mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitBlocksOnMissingRequiredVisibleField(t *testing.T) {
	t.Parallel()

	submitted := false
	s := New(WithSubmitter(SubmitterFunc(func(context.Context, string, map[string]any) error {
		submitted = true
		return nil
	})))

	ctx := context.Background()
	if err := s.SelectForm(ctx, healthForm()); err != nil {
		t.Fatalf("SelectForm: %v", err)
	}

	err := s.Submit(ctx)
	verr, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if submitted {
		t.Fatalf("submit capability must not be invoked on validation failure")
	}
	if len(verr.Fields) != 1 || len(verr.Fields["country"]) == 0 {
		t.Fatalf("exactly the missing field must be marked, got %v", verr.Fields)
	}
	if s.Phase() != PhaseAwaitingInput {
		t.Fatalf("session must remain awaiting input, got %s", s.Phase())
	}
	if msgs := s.FieldErrors()["country"]; len(msgs) == 0 {
		t.Fatalf("field error not recorded")
	}
}

func TestSubmitSkipsHiddenRequiredFields(t *testing.T) {
	t.Parallel()

	def := schema.FormDefinition{
		FormID: "conditional",
		Title:  "Conditional",
		Fields: []schema.Field{
			{ID: "smoker", Kind: schema.FieldKindRadio, Options: []string{"Yes", "No"}},
			{ID: "pack_years", Kind: schema.FieldKindNumber, Required: true, Visibility: &schema.VisibilitySpec{
				DependsOn: "smoker", Condition: schema.VisibilityEquals, Value: "Yes",
			}},
		},
	}

	var payload map[string]any
	s := New(WithSubmitter(SubmitterFunc(func(_ context.Context, _ string, p map[string]any) error {
		payload = p
		return nil
	})))

	ctx := context.Background()
	if err := s.SelectForm(ctx, def); err != nil {
		t.Fatalf("SelectForm: %v", err)
	}
	if err := s.SetAnswer(ctx, "smoker", "No"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}

	if err := s.Submit(ctx); err != nil {
		t.Fatalf("hidden required field must not block submit: %v", err)
	}
	if s.Phase() != PhaseSubmitted {
		t.Fatalf("expected submitted, got %s", s.Phase())
	}
	// The full answer set is submitted, not just the visible one.
	if payload["smoker"] != "No" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestSubmitFailureReturnsToAwaitingInput(t *testing.T) {
	t.Parallel()

	var failedForm string
	s := New(
		WithSubmitter(SubmitterFunc(func(context.Context, string, map[string]any) error {
			return errors.New("backend unavailable")
		})),
		WithNotifier(NotifierFuncs{OnFailure: func(formID string, _ error) { failedForm = formID }}),
	)

	ctx := context.Background()
	if err := s.SelectForm(ctx, healthForm()); err != nil {
		t.Fatalf("SelectForm: %v", err)
	}
	if err := s.SetAnswer(ctx, "country", "US"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}

	err := s.Submit(ctx)
	if !errors.Is(err, ErrSubmissionFailed) {
		t.Fatalf("expected ErrSubmissionFailed, got %v", err)
	}
	if s.Phase() != PhaseAwaitingInput {
		t.Fatalf("failure must return to awaiting_input, got %s", s.Phase())
	}
	if failedForm != "health_v1" {
		t.Fatalf("failure notification missing, got %q", failedForm)
	}
	// Answers survive the failure so the user can resubmit.
	if got, _ := s.Answer("country"); got != "US" {
		t.Fatalf("answers lost after failed submit")
	}
}

func TestSubmitSuccessNotifies(t *testing.T) {
	t.Parallel()

	var succeeded string
	s := New(
		WithSubmitter(SubmitterFunc(func(context.Context, string, map[string]any) error { return nil })),
		WithNotifier(NotifierFuncs{OnSuccess: func(formID string) { succeeded = formID }}),
	)

	ctx := context.Background()
	if err := s.SelectForm(ctx, healthForm()); err != nil {
		t.Fatalf("SelectForm: %v", err)
	}
	if err := s.SetAnswer(ctx, "country", "US"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if succeeded != "health_v1" {
		t.Fatalf("success notification missing")
	}
}

func TestSubmitValidatesConstraints(t *testing.T) {
	t.Parallel()

	minAge, maxAge := 18.0, 99.0
	def := schema.FormDefinition{
		FormID: "constrained",
		Title:  "Constrained",
		Fields: []schema.Field{
			{ID: "age", Kind: schema.FieldKindNumber, Validation: &schema.ValidationSpec{Min: &minAge, Max: &maxAge}},
			{ID: "zip", Kind: schema.FieldKindText, Validation: &schema.ValidationSpec{Pattern: `^\d{5}$`}},
		},
	}

	s := New(WithSubmitter(SubmitterFunc(func(context.Context, string, map[string]any) error { return nil })))
	ctx := context.Background()
	if err := s.SelectForm(ctx, def); err != nil {
		t.Fatalf("SelectForm: %v", err)
	}
	if err := s.SetAnswer(ctx, "age", "12"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.SetAnswer(ctx, "zip", "abc"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}

	verr, ok := AsValidationError(s.Submit(ctx))
	if !ok {
		t.Fatalf("expected ValidationError")
	}
	if len(verr.Fields["age"]) == 0 || len(verr.Fields["zip"]) == 0 {
		t.Fatalf("constraint failures missing: %v", verr.Fields)
	}
}

func TestMoveItemReordersProjection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	if err := s.SelectForm(ctx, healthForm()); err != nil {
		t.Fatalf("SelectForm: %v", err)
	}

	if !s.MoveItem("country", "smoker") {
		t.Fatalf("expected move to apply")
	}
	if diff := cmp.Diff([]string{"smoker", "country"}, renderIDs(s.Render())); diff != "" {
		t.Fatalf("projection order mismatch (-want +got):\n%s", diff)
	}
	if s.MoveItem("country", "country") {
		t.Fatalf("same-id move must be a no-op")
	}
}
