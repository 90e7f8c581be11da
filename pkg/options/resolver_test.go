package options

import (
	"context"
	"errors"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formportal/pkg/schema"
)

func formWithStateField() schema.FormDefinition {
	return schema.FormDefinition{
		FormID: "health_v1",
		Title:  "Health",
		Fields: []schema.Field{
			{ID: "country", Kind: schema.FieldKindSelect, Options: []string{"US", "CA"}},
			{ID: "state", Kind: schema.FieldKindSelect, DynamicOptions: &schema.DynamicOptionsSpec{
				DependsOn: "country",
				Endpoint:  "/api/regions/states",
				Method:    "GET",
			}},
		},
	}
}

func TestResolverFetchesDependentOptions(t *testing.T) {
	t.Parallel()

	fetcher := FetcherFunc(func(_ context.Context, endpoint, method string, query url.Values) ([]string, error) {
		if endpoint != "/api/regions/states" || method != "GET" {
			t.Errorf("unexpected request %s %s", method, endpoint)
		}
		if got := query.Get("country"); got != "US" {
			t.Errorf("unexpected query value %q", got)
		}
		return []string{"California", "Texas"}, nil
	})

	updates := make(chan []string, 1)
	r := NewResolver(fetcher, WithUpdateFunc(func(fieldID string, opts []string) {
		if fieldID == "state" {
			updates <- opts
		}
	}))

	r.AnswerChanged(context.Background(), formWithStateField(), "country", "US")
	r.Wait()

	got := <-updates
	if diff := cmp.Diff([]string{"California", "Texas"}, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"California", "Texas"}, r.Options("state")); diff != "" {
		t.Fatalf("cached options mismatch (-want +got):\n%s", diff)
	}
}

func TestResolverEmptyTriggerResetsWithoutFetch(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	fetcher := FetcherFunc(func(context.Context, string, string, url.Values) ([]string, error) {
		calls.Add(1)
		return []string{"stale"}, nil
	})
	r := NewResolver(fetcher)
	form := formWithStateField()

	r.AnswerChanged(context.Background(), form, "country", "US")
	r.Wait()
	if len(r.Options("state")) == 0 {
		t.Fatalf("expected options after trigger")
	}

	r.AnswerChanged(context.Background(), form, "country", "")
	r.Wait()
	if got := r.Options("state"); len(got) != 0 {
		t.Fatalf("empty trigger must reset options, got %v", got)
	}
	if calls.Load() != 1 {
		t.Fatalf("empty trigger must not fetch, saw %d calls", calls.Load())
	}
}

func TestResolverFailureResetsToEmpty(t *testing.T) {
	t.Parallel()

	fetcher := FetcherFunc(func(context.Context, string, string, url.Values) ([]string, error) {
		return nil, errors.New("boom")
	})
	updates := make(chan []string, 1)
	r := NewResolver(fetcher, WithUpdateFunc(func(_ string, opts []string) {
		updates <- opts
	}))

	r.AnswerChanged(context.Background(), formWithStateField(), "country", "US")
	r.Wait()

	if got := <-updates; len(got) != 0 {
		t.Fatalf("failed lookup must reset to empty, got %v", got)
	}
}

func TestResolverStaleResponseDiscarded(t *testing.T) {
	t.Parallel()

	release := map[string]chan struct{}{
		"US": make(chan struct{}),
		"CA": make(chan struct{}),
	}
	fetcher := FetcherFunc(func(_ context.Context, _, _ string, query url.Values) ([]string, error) {
		country := query.Get("country")
		<-release[country]
		return []string{country + "-region"}, nil
	})

	updates := make(chan []string, 2)
	r := NewResolver(fetcher, WithUpdateFunc(func(_ string, opts []string) {
		updates <- opts
	}))
	form := formWithStateField()

	ctx := context.Background()
	r.AnswerChanged(ctx, form, "country", "US") // F1
	r.AnswerChanged(ctx, form, "country", "CA") // F2

	// F2 resolves first, then the older F1 lands and must be discarded.
	close(release["CA"])
	first := <-updates
	if diff := cmp.Diff([]string{"CA-region"}, first); diff != "" {
		t.Fatalf("newest lookup must win (-want +got):\n%s", diff)
	}

	close(release["US"])
	r.Wait()

	if diff := cmp.Diff([]string{"CA-region"}, r.Options("state")); diff != "" {
		t.Fatalf("stale response overwrote cache (-want +got):\n%s", diff)
	}
}

func TestResolverResetInvalidatesInflight(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	fetcher := FetcherFunc(func(context.Context, string, string, url.Values) ([]string, error) {
		<-release
		return []string{"late"}, nil
	})
	r := NewResolver(fetcher)
	form := formWithStateField()

	r.AnswerChanged(context.Background(), form, "country", "US")
	r.Reset()
	close(release)
	r.Wait()

	if got := r.Options("state"); len(got) != 0 {
		t.Fatalf("lookup issued before Reset must not populate cache, got %v", got)
	}
}

func TestResolverIgnoresNonTriggerFields(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	fetcher := FetcherFunc(func(context.Context, string, string, url.Values) ([]string, error) {
		calls.Add(1)
		return nil, nil
	})
	r := NewResolver(fetcher)

	r.AnswerChanged(context.Background(), formWithStateField(), "state", "California")
	r.Wait()
	if calls.Load() != 0 {
		t.Fatalf("non-trigger change must not fetch")
	}
}
