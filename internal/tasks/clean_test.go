package tasks

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/desertthunder/playlistify/internal/models"
	"github.com/desertthunder/playlistify/internal/shared"
	tu "github.com/desertthunder/playlistify/internal/testing"
)

func TestMatchCleanVersion(t *testing.T) {
	source := models.Track{Name: "Song", Artist: "Band", Explicit: true}

	t.Run("exact match wins over earlier weaker candidates", func(t *testing.T) {
		candidates := []models.Track{
			{URI: "spotify:track:similar", Name: "Song (Edit)", Artist: "Band"},
			{URI: "spotify:track:explicit", Name: "Song", Artist: "Band", Explicit: true},
			{URI: "spotify:track:exact", Name: "Song", Artist: "Band"},
		}

		got, ok := MatchCleanVersion(source, candidates)
		if !ok || got.URI != "spotify:track:exact" {
			t.Errorf("expected exact match, got %+v (ok=%v)", got, ok)
		}
	})

	t.Run("similar title with exact artist", func(t *testing.T) {
		candidates := []models.Track{
			{URI: "spotify:track:fuzzy", Name: "Song", Artist: "Bnad"},
			{URI: "spotify:track:similar", Name: "Song (Clean)", Artist: "Other", Artists: []string{"Other", "Band"}},
		}

		got, ok := MatchCleanVersion(source, candidates)
		if !ok || got.URI != "spotify:track:similar" {
			t.Errorf("expected similar-title match, got %+v (ok=%v)", got, ok)
		}
	})

	t.Run("similar title and artist", func(t *testing.T) {
		src := models.Track{Name: "Halo", Artist: "Beyoncé", Explicit: true}
		candidates := []models.Track{{URI: "spotify:track:fuzzy", Name: "Halo (Radio Edit)", Artist: "Beyonce"}}

		got, ok := MatchCleanVersion(src, candidates)
		if !ok || got.URI != "spotify:track:fuzzy" {
			t.Errorf("expected fuzzy match, got %+v (ok=%v)", got, ok)
		}
	})

	t.Run("explicit and local candidates never match", func(t *testing.T) {
		candidates := []models.Track{
			{URI: "spotify:track:explicit", Name: "Song", Artist: "Band", Explicit: true},
			{URI: "spotify:local:x", Name: "Song", Artist: "Band", IsLocal: true},
			{URI: "spotify:track:other", Name: "Another Tune", Artist: "Band"},
		}

		if got, ok := MatchCleanVersion(source, candidates); ok {
			t.Errorf("expected no match, got %+v", got)
		}
	})
}

func cleanFixture(fake *tu.FakeSpotify) {
	fake.AddPlaylist("mix", "Mix",
		&tu.FakeTrack{ID: "intro", Name: "Intro", Artist: "Band", ArtistID: "band"},
		&tu.FakeTrack{ID: "songA", Name: "Song A", Artist: "Band", ArtistID: "band", Explicit: true},
		&tu.FakeTrack{Name: "Home Demo", Artist: "Band", Album: "Demos", IsLocal: true},
		&tu.FakeTrack{ID: "songB", Name: "Song B", Artist: "Band", ArtistID: "band", Explicit: true},
		&tu.FakeTrack{ID: "songA2", Name: "Song A", Artist: "Band", ArtistID: "band", Explicit: true},
		&tu.FakeTrack{ID: "outro", Name: "Outro", Artist: "Band", ArtistID: "band"},
		&tu.FakeTrack{ID: "songC", Name: "Song C", Artist: "Beyoncé", ArtistID: "bey", Explicit: true},
	)
	fake.SetSearchResults(`track:"Song A" artist:"Band"`,
		tu.FakeTrack{ID: "songAx", Name: "Song A", Artist: "Band", Explicit: true},
		tu.FakeTrack{ID: "cleanA", Name: "Song A", Artist: "Band"},
	)
	fake.SetSearchResults(`track:"Song C" artist:"Beyoncé"`,
		tu.FakeTrack{ID: "cleanC", Name: "Song C (Radio Edit)", Artist: "Beyonce"},
	)
}

func TestClean(t *testing.T) {
	ctx := context.Background()
	src := []models.PlaylistRef{{ID: "mix", Name: "Mix"}}

	t.Run("replaces explicit tracks and drops the rest", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		cleanFixture(fake)
		fake.RateLimitSearch = 1
		engine, rec := newFakeEngine(t, fake, testLimits())

		result, err := engine.Clean(ctx, nil, src, models.PlaylistOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		created := fake.Created()
		if len(created) != 1 {
			t.Fatalf("expected 1 playlist, got %d", len(created))
		}
		want := []string{"spotify:track:intro", "spotify:track:cleanA", "spotify:track:cleanA", "spotify:track:outro", "spotify:track:cleanC"}
		if !slices.Equal(created[0].URIs, want) {
			t.Errorf("expected %v, got %v", want, created[0].URIs)
		}
		if created[0].Name != "Mix (Clean)" || created[0].Description != CleanDescription {
			t.Errorf("unexpected playlist %q / %q", created[0].Name, created[0].Description)
		}

		if result.ExplicitCount != 4 || result.Replaced != 3 || result.Dropped != 1 || result.LocalSkipped != 1 {
			t.Errorf("unexpected stats %+v", result)
		}
		if result.TrackCount != 5 {
			t.Errorf("expected 5 tracks, got %d", result.TrackCount)
		}

		if got := fake.CountCalls("GET", "/v1/search", ""); got != 4 {
			t.Errorf("expected 3 searches plus one rate-limited retry, got %d", got)
		}
		if got := countDelays(rec.recorded(), time.Second); got != 1 {
			t.Errorf("expected one pause between batches, got %d (%v)", got, rec.recorded())
		}
	})

	t.Run("searches tracks without artists under the placeholder artist", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		fake.AddPlaylist("mix", "Mix", &tu.FakeTrack{ID: "anon", Name: "Nameless", Explicit: true})
		fake.SetSearchResults(`track:"Nameless" artist:"Unknown Artist"`,
			tu.FakeTrack{ID: "anonClean", Name: "Nameless", Artist: models.UnknownArtist},
		)
		engine, _ := newFakeEngine(t, fake, testLimits())

		result, err := engine.Clean(ctx, nil, src, models.PlaylistOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := fake.Created()[0].URIs; !slices.Equal(got, []string{"spotify:track:anonClean"}) {
			t.Errorf("unexpected URIs %v", got)
		}
		if result.Replaced != 1 {
			t.Errorf("expected 1 replacement, got %+v", result)
		}
	})

	t.Run("name override", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		cleanFixture(fake)
		engine, _ := newFakeEngine(t, fake, testLimits())

		if _, err := engine.Clean(ctx, nil, src, models.PlaylistOptions{Name: "Family Friendly"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := fake.Created()[0].Name; got != "Family Friendly" {
			t.Errorf("expected override name, got %q", got)
		}
	})

	t.Run("nothing left to write", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		fake.AddPlaylist("mix", "Mix",
			&tu.FakeTrack{ID: "x", Name: "Unmatched", Artist: "Band", Explicit: true},
			&tu.FakeTrack{Name: "Local", Artist: "Band", IsLocal: true},
		)
		engine, _ := newFakeEngine(t, fake, testLimits())

		_, err := engine.Clean(ctx, nil, src, models.PlaylistOptions{})
		if !errors.Is(err, shared.ErrNoCleanTracks) {
			t.Errorf("expected ErrNoCleanTracks, got %v", err)
		}
		if len(fake.Created()) != 0 {
			t.Error("expected no playlist to be created")
		}
	})
}

func TestResolveCleanVersions(t *testing.T) {
	ctx := context.Background()

	t.Run("exact match", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		fake.SetSearchResults(`track:"Song" artist:"Band"`, tu.FakeTrack{ID: "clean", Name: "Song", Artist: "Band"})
		engine, _ := newFakeEngine(t, fake, testLimits())

		got, err := engine.ResolveCleanVersions(ctx, []models.Track{{URI: "spotify:track:dirty", Name: "Song", Artist: "Band", Explicit: true}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(got, []string{"spotify:track:clean"}) {
			t.Errorf("expected the clean URI, got %v", got)
		}
	})

	t.Run("only local tracks", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		engine, _ := newFakeEngine(t, fake, testLimits())

		got, err := engine.ResolveCleanVersions(ctx, []models.Track{
			{URI: "spotify:local:a", Name: "A", IsLocal: true},
			{URI: "spotify:local:b", Name: "B", IsLocal: true, Explicit: true},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no URIs, got %v", got)
		}
		if n := fake.CountCalls("GET", "/v1/search", ""); n != 0 {
			t.Errorf("expected no searches, got %d", n)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		engine, _ := newFakeEngine(t, fake, testLimits())

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := engine.ResolveCleanVersions(cctx, []models.Track{{URI: "spotify:track:x", Name: "X", Artist: "Y", Explicit: true}})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
