package local_test

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"rbtv/internal/catalog"
	"rbtv/internal/catalog/live"
	"rbtv/internal/catalog/local"
	"rbtv/internal/rbtvapi"
	"rbtv/internal/rbtvapi/rbtvapitest"
)

func fixture() *rbtvapitest.Fixture {
	return &rbtvapitest.Fixture{
		Shows: []catalog.Show{
			{ID: 1, Title: "Almost Daily", Seasons: []catalog.Season{
				{ID: 100, Name: "Staffel 1", Numeric: "1"},
			}},
			{ID: 2, Title: "Game Plus", Seasons: []catalog.Season{
				{ID: 200, Numeric: "2"},
			}},
		},
		Episodes: []catalog.Episode{
			{ID: 10, ShowID: 1, SeasonID: 100, Title: "Folge 1", Hosts: []int{5}, YoutubeTokens: []string{"aaaaaaaaaaA"}},
			{ID: 11, ShowID: 1, SeasonID: 100, Title: "Folge 2", Hosts: []int{5, 6}},
			{ID: 12, ShowID: 1, Title: "Spezial", Hosts: []int{6}},
			{ID: 13, ShowID: 2, SeasonID: 200, Title: "GP #1"},
		},
		Bohnen: []catalog.Bohne{
			{ID: 5, Name: "Budi", EpisodeCount: 2},
			{ID: 6, Name: "Simon", EpisodeCount: 2},
		},
		Posts: []catalog.BlogPost{
			{ID: 50, Title: "Wochenplan", ContentMK: "Sendeplan der Woche"},
		},
	}
}

// buildSnapshot dumps the fixture catalog into a temp bbolt file and opens
// it read-only.
func buildSnapshot(t *testing.T, fx *rbtvapitest.Fixture) *local.Backend {
	t.Helper()
	srv := rbtvapitest.NewServer(fx)
	t.Cleanup(srv.Close)
	client := rbtvapi.New(rbtvapi.WithBaseURL(srv.URL), rbtvapi.WithHTTPClient(srv.Client()))

	path := filepath.Join(t.TempDir(), "catalog.db")
	if err := local.Create(context.Background(), path, client, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	backend, err := local.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { backend.Close() })
	return backend
}

func episodeIDs(eps []catalog.Episode) []int {
	ids := make([]int, len(eps))
	for i, ep := range eps {
		ids[i] = ep.ID
	}
	slices.Sort(ids)
	return ids
}

func TestOpenMissingSnapshot(t *testing.T) {
	_, err := local.Open(filepath.Join(t.TempDir(), "nope.db"))
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSnapshotQueries(t *testing.T) {
	backend := buildSnapshot(t, fixture())
	ctx := context.Background()

	eps, err := backend.EpisodesByShow(ctx, []int{1}, false, catalog.ListOptions{})
	if err != nil {
		t.Fatalf("EpisodesByShow: %v", err)
	}
	if got := episodeIDs(eps); !slices.Equal(got, []int{10, 11, 12}) {
		t.Fatalf("unexpected episodes: %v", got)
	}

	unsorted, err := backend.EpisodesByShow(ctx, []int{1}, true, catalog.ListOptions{})
	if err != nil {
		t.Fatalf("EpisodesByShow unsorted: %v", err)
	}
	if got := episodeIDs(unsorted); !slices.Equal(got, []int{12}) {
		t.Fatalf("unexpected unsorted episodes: %v", got)
	}

	season, err := backend.Season(ctx, 1, 100)
	if err != nil {
		t.Fatalf("Season: %v", err)
	}
	if season.Name != "Staffel 1" {
		t.Fatalf("unexpected season: %+v", season)
	}
	// Second lookup is served from the cache.
	if _, err := backend.Season(ctx, 1, 100); err != nil {
		t.Fatalf("cached Season: %v", err)
	}
	if _, err := backend.Season(ctx, 1, 999); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	byToken, err := backend.EpisodesByYoutubeToken(ctx, []string{"aaaaaaaaaaA"}, catalog.ListOptions{})
	if err != nil {
		t.Fatalf("EpisodesByYoutubeToken: %v", err)
	}
	if got := episodeIDs(byToken); !slices.Equal(got, []int{10}) {
		t.Fatalf("unexpected token match: %v", got)
	}

	byName, err := backend.EpisodesByShowName(ctx, []string{"game plus"}, false, catalog.ListOptions{})
	if err != nil {
		t.Fatalf("EpisodesByShowName: %v", err)
	}
	if got := episodeIDs(byName); !slices.Equal(got, []int{13}) {
		t.Fatalf("unexpected by-name episodes: %v", got)
	}
}

func TestSnapshotBohneFiltering(t *testing.T) {
	backend := buildSnapshot(t, fixture())
	ctx := context.Background()

	both, err := backend.EpisodesByBohne(ctx, []int{5, 6}, 2, false, catalog.ListOptions{})
	if err != nil {
		t.Fatalf("EpisodesByBohne: %v", err)
	}
	if got := episodeIDs(both); !slices.Equal(got, []int{11}) {
		t.Fatalf("expected only the episode with both hosts, got %v", got)
	}

	exclusive, err := backend.EpisodesByBohne(ctx, []int{5}, 1, true, catalog.ListOptions{})
	if err != nil {
		t.Fatalf("EpisodesByBohne exclusive: %v", err)
	}
	if got := episodeIDs(exclusive); !slices.Equal(got, []int{10}) {
		t.Fatalf("expected only the solo episode, got %v", got)
	}
}

func TestSnapshotSearch(t *testing.T) {
	backend := buildSnapshot(t, fixture())
	result, err := backend.Search(context.Background(), "woche")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(result.Posts) != 1 || result.Posts[0].ID != 50 {
		t.Fatalf("unexpected search result: %+v", result)
	}
}

// A show whose episode listing fails upstream is skipped during the dump
// without aborting the rest of the snapshot.
func TestCreateSkipsBrokenShow(t *testing.T) {
	fx := fixture()
	fx.EpisodeListStatus = map[int]int{2: 400}
	backend := buildSnapshot(t, fx)

	eps, err := backend.AllEpisodes(context.Background(), false, catalog.ListOptions{})
	if err != nil {
		t.Fatalf("AllEpisodes: %v", err)
	}
	if got := episodeIDs(eps); !slices.Equal(got, []int{10, 11, 12}) {
		t.Fatalf("expected episodes of show 2 to be skipped, got %v", got)
	}
}

// The snapshot and the remote backend must answer show queries with the
// same episode set for the same catalog.
func TestSnapshotMatchesLive(t *testing.T) {
	fx := fixture()
	snapshot := buildSnapshot(t, fx)

	srv := rbtvapitest.NewServer(fx)
	t.Cleanup(srv.Close)
	remote := live.New(rbtvapi.New(rbtvapi.WithBaseURL(srv.URL), rbtvapi.WithHTTPClient(srv.Client())), nil)

	ctx := context.Background()
	for _, showID := range []int{1, 2} {
		fromSnapshot, err := snapshot.EpisodesByShow(ctx, []int{showID}, false, catalog.ListOptions{})
		if err != nil {
			t.Fatalf("snapshot EpisodesByShow(%d): %v", showID, err)
		}
		fromRemote, err := remote.EpisodesByShow(ctx, []int{showID}, false, catalog.ListOptions{})
		if err != nil {
			t.Fatalf("remote EpisodesByShow(%d): %v", showID, err)
		}
		if !slices.Equal(episodeIDs(fromSnapshot), episodeIDs(fromRemote)) {
			t.Fatalf("show %d: snapshot %v != remote %v",
				showID, episodeIDs(fromSnapshot), episodeIDs(fromRemote))
		}
	}
}
