package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/desertthunder/playlistify/internal/models"
	"github.com/desertthunder/playlistify/internal/services"
	"github.com/desertthunder/playlistify/internal/shared"
)

func names(tracks []models.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.Name
	}
	return out
}

func TestSortTracks(t *testing.T) {
	t.Run("popularity descending", func(t *testing.T) {
		tracks := []models.Track{
			{Name: "a", Popularity: 10},
			{Name: "b", Popularity: 90},
			{Name: "c", Popularity: 50},
		}

		got := SortTracks(tracks, models.CriterionPopularity)
		pops := []int{got[0].Popularity, got[1].Popularity, got[2].Popularity}
		if !slices.Equal(pops, []int{90, 50, 10}) {
			t.Errorf("expected [90 50 10], got %v", pops)
		}
		if tracks[0].Popularity != 10 {
			t.Error("expected input to be left untouched")
		}
	})

	t.Run("release date newest first with undated last", func(t *testing.T) {
		tracks := []models.Track{
			{Name: "undated"},
			{Name: "2001", ReleaseDate: "2001-05-01"},
			{Name: "2010", ReleaseDate: "2010"},
			{Name: "1999", ReleaseDate: "1999-12"},
			{Name: "garbage", ReleaseDate: "soon"},
		}

		got := names(SortTracks(tracks, models.CriterionDate))
		want := []string{"2010", "2001", "1999", "undated", "garbage"}
		if !slices.Equal(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("artist uses collation", func(t *testing.T) {
		tracks := []models.Track{
			{Name: "1", Artist: "Zed"},
			{Name: "2", Artist: "abba"},
			{Name: "3", Artist: "Beyoncé"},
		}

		got := names(SortTracks(tracks, models.CriterionArtist))
		if !slices.Equal(got, []string{"2", "3", "1"}) {
			t.Errorf("expected [2 3 1], got %v", got)
		}
	})

	t.Run("genre with unknown", func(t *testing.T) {
		tracks := []models.Track{
			{Name: "1", Genres: []string{"rock", "indie"}},
			{Name: "2"},
			{Name: "3", Genres: []string{"ambient"}},
		}

		got := names(SortTracks(tracks, models.CriterionGenre))
		if !slices.Equal(got, []string{"3", "1", "2"}) {
			t.Errorf("expected [3 1 2], got %v", got)
		}
	})

	t.Run("ties keep source order", func(t *testing.T) {
		tracks := []models.Track{
			{Name: "first", Popularity: 50},
			{Name: "second", Popularity: 50},
			{Name: "third", Popularity: 50},
		}

		got := names(SortTracks(tracks, models.CriterionPopularity))
		if !slices.Equal(got, []string{"first", "second", "third"}) {
			t.Errorf("expected stable order, got %v", got)
		}
	})

	t.Run("no criterion sorts by name", func(t *testing.T) {
		tracks := []models.Track{{Name: "beta"}, {Name: "Alpha"}, {Name: "gamma"}}

		got := names(SortTracks(tracks, models.CriterionNone))
		if !slices.Equal(got, []string{"Alpha", "beta", "gamma"}) {
			t.Errorf("expected name order, got %v", got)
		}
	})
}

func TestSort(t *testing.T) {
	ctx := context.Background()
	src := []models.PlaylistRef{{ID: "src", Name: "Road Trip"}}

	t.Run("writes a sorted copy", func(t *testing.T) {
		svc := newMockService()
		svc.tracks["src"] = tracksWith(3, func(i int, tr *models.Track) {
			tr.Popularity = []int{10, 90, 50}[i]
		})
		engine, _ := newMockEngine(svc, testLimits())

		playlist, err := engine.Sort(ctx, nil, src, models.CriterionPopularity, models.PlaylistOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"spotify:track:001", "spotify:track:002", "spotify:track:000"}
		if !slices.Equal(svc.written(playlist.ID), want) {
			t.Errorf("expected %v, got %v", want, svc.written(playlist.ID))
		}

		created := svc.created[0]
		if created.Name != "Road Trip (Sorted by Popularity)" {
			t.Errorf("unexpected name %q", created.Name)
		}
		if created.Description != "Sorted with Playlistify by Popularity" {
			t.Errorf("unexpected description %q", created.Description)
		}
		if created.Public {
			t.Error("expected a private playlist by default")
		}
	})

	t.Run("name override keeps the criterion suffix", func(t *testing.T) {
		svc := newMockService()
		svc.tracks["src"] = tracksWith(2, nil)
		engine, _ := newMockEngine(svc, testLimits())

		public := true
		opts := models.PlaylistOptions{Name: "Custom", Public: &public}
		if _, err := engine.Sort(ctx, nil, src, models.CriterionDate, opts); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := svc.created[0]; got.Name != "Custom (Sorted by Release Date)" || !got.Public {
			t.Errorf("unexpected playlist %+v", got)
		}
	})

	t.Run("genre enriches artists in batches", func(t *testing.T) {
		svc := newMockService()
		svc.tracks["src"] = tracksWith(120, func(i int, tr *models.Track) {
			tr.ArtistID = fmt.Sprintf("artist-%02d", i%60)
		})
		for i := range 60 {
			id := fmt.Sprintf("artist-%02d", i)
			genre := "rock"
			if i%2 == 0 {
				genre = "ambient"
			}
			svc.artists[id] = services.SpotifyArtist{ID: id, Genres: []string{genre}}
		}
		engine, _ := newMockEngine(svc, testLimits())

		playlist, err := engine.Sort(ctx, nil, src, models.CriterionGenre, models.PlaylistOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		sizes := []int{}
		for _, batch := range svc.severalCalls {
			sizes = append(sizes, len(batch))
		}
		slices.Sort(sizes)
		if !slices.Equal(sizes, []int{10, 50}) {
			t.Errorf("expected artist batches of 50 and 10, got %v", sizes)
		}

		written := svc.written(playlist.ID)
		if len(written) != 120 {
			t.Fatalf("expected 120 tracks, got %d", len(written))
		}
		if written[0] != "spotify:track:000" || written[60] != "spotify:track:001" {
			t.Errorf("expected ambient tracks first, got %s and %s", written[0], written[60])
		}
	})

	t.Run("no playlists selected", func(t *testing.T) {
		engine, _ := newMockEngine(newMockService(), testLimits())
		if _, err := engine.Sort(ctx, nil, nil, models.CriterionArtist, models.PlaylistOptions{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("empty source", func(t *testing.T) {
		svc := newMockService()
		engine, _ := newMockEngine(svc, testLimits())
		if _, err := engine.Sort(ctx, nil, src, models.CriterionArtist, models.PlaylistOptions{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if len(svc.created) != 0 {
			t.Error("expected no playlist to be created")
		}
	})

	t.Run("fetch failure", func(t *testing.T) {
		svc := newMockService()
		svc.fetchErr = fmt.Errorf("%w: boom", shared.ErrFetch)
		engine, _ := newMockEngine(svc, testLimits())
		if _, err := engine.Sort(ctx, nil, src, models.CriterionArtist, models.PlaylistOptions{}); !errors.Is(err, shared.ErrFetch) {
			t.Errorf("expected ErrFetch, got %v", err)
		}
	})

	t.Run("service not initialized", func(t *testing.T) {
		engine := NewPlaylistEngine(nil, testLimits())
		if _, err := engine.Sort(ctx, nil, src, models.CriterionArtist, models.PlaylistOptions{}); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
