package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/playlistify/internal/shared"
	tu "github.com/desertthunder/playlistify/internal/testing"
)

func TestPlaylistResolver(t *testing.T) {
	fake := tu.NewFakeSpotify(t)
	fake.AddPlaylist("37i9dQZF1DXcBWIGoYBM5M", "Today's Top Hits")
	resolver := NewPlaylistResolver(http.DefaultClient, fake.URL())
	ctx := context.Background()

	t.Run("resolves share links", func(t *testing.T) {
		ref, err := resolver.Resolve(ctx, "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=xyz")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if ref.ID != "37i9dQZF1DXcBWIGoYBM5M" || ref.Name != "Today's Top Hits" {
			t.Errorf("unexpected ref: %+v", ref)
		}
	})

	t.Run("resolves several links in order", func(t *testing.T) {
		refs, err := resolver.ResolveAll(ctx, []string{"spotify:playlist:37i9dQZF1DXcBWIGoYBM5M", "37i9dQZF1DXcBWIGoYBM5M"})
		if err != nil {
			t.Fatalf("ResolveAll() error = %v", err)
		}
		if len(refs) != 2 || refs[1].Name != "Today's Top Hits" {
			t.Errorf("unexpected refs: %+v", refs)
		}
	})

	t.Run("requests only id and name", func(t *testing.T) {
		if _, err := resolver.Resolve(ctx, "37i9dQZF1DXcBWIGoYBM5M"); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		calls := fake.Calls()
		if last := calls[len(calls)-1]; last.Query != "fields=id%2Cname" {
			t.Errorf("unexpected query %q", last.Query)
		}
	})

	t.Run("invalid link", func(t *testing.T) {
		if _, err := resolver.Resolve(ctx, "https://example.com/nothing"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("unknown playlist", func(t *testing.T) {
		if _, err := resolver.Resolve(ctx, "0000000000AAAAAAAAAAAA"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})
}

func TestPlaylistResolverRetries(t *testing.T) {
	t.Run("waits out a rate limit", func(t *testing.T) {
		var hits atomic.Int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"id":"37i9dQZF1DXcBWIGoYBM5M","name":"Rush Hour"}`)
		}))
		t.Cleanup(ts.Close)

		rec := &sleepRecorder{}
		retrier := NewRetrier(http.DefaultClient, retryConfig(3, time.Millisecond, 10), nil).WithSleeper(rec.sleep)
		resolver := NewPlaylistResolver(retrier.HTTPClient(), ts.URL)

		ref, err := resolver.Resolve(context.Background(), "37i9dQZF1DXcBWIGoYBM5M")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if ref.Name != "Rush Hour" {
			t.Errorf("unexpected ref: %+v", ref)
		}
		if got := hits.Load(); got != 2 {
			t.Errorf("expected 2 requests, got %d", got)
		}
		if got := rec.recorded(); !equalDurations(got, []time.Duration{time.Second}) {
			t.Errorf("expected one 1s wait, got %v", got)
		}
	})

	t.Run("retries transport failures", func(t *testing.T) {
		rt := tu.NewSequenceRoundTripper(errors.New("connection reset"))
		retrier := NewRetrier(&http.Client{Transport: rt}, retryConfig(3, time.Millisecond, 10), nil).WithSleeper((&sleepRecorder{}).sleep)
		resolver := NewPlaylistResolver(retrier.HTTPClient(), "http://spotify.test/v1")

		_, err := resolver.Resolve(context.Background(), "37i9dQZF1DXcBWIGoYBM5M")
		if rt.Calls != 2 {
			t.Errorf("expected 2 attempts, got %d", rt.Calls)
		}
		// the second attempt answers 200 with an empty body, which the client cannot decode
		if err == nil {
			t.Error("expected decode error for empty body")
		}
	})
}
