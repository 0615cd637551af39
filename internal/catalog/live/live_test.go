package live_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"rbtv/internal/catalog"
	"rbtv/internal/catalog/live"
	"rbtv/internal/rbtvapi"
	"rbtv/internal/rbtvapi/rbtvapitest"
)

func fixture() *rbtvapitest.Fixture {
	return &rbtvapitest.Fixture{
		Shows: []catalog.Show{
			{ID: 1, Title: "Almost Daily", Seasons: []catalog.Season{{ID: 100, Name: "Staffel 1"}}},
			{ID: 2, Title: "Kino+"},
		},
		Episodes: []catalog.Episode{
			{ID: 10, ShowID: 1, SeasonID: 100, Title: "Folge 1", Hosts: []int{7}},
			{ID: 11, ShowID: 1, SeasonID: 100, Title: "Folge 2", Hosts: []int{7, 8}},
			{ID: 12, ShowID: 1, Title: "Spezial", Hosts: []int{8}},
			{ID: 20, ShowID: 2, Title: "Folge 100", Hosts: []int{7, 9}},
		},
		Bohnen: []catalog.Bohne{
			{ID: 7, Name: "Budi"},
			{ID: 8, Name: "Etienne"},
			{ID: 9, Name: "Simon"},
		},
		Posts: []catalog.BlogPost{{ID: 5, Title: "Hinter den Kulissen"}},
	}
}

func newBackend(t *testing.T, fx *rbtvapitest.Fixture) *live.Backend {
	t.Helper()
	srv := rbtvapitest.NewServer(fx)
	t.Cleanup(srv.Close)
	return live.New(rbtvapi.New(rbtvapi.WithBaseURL(srv.URL)), nil)
}

func episodeIDs(eps []catalog.Episode) []int {
	ids := make([]int, len(eps))
	for i, ep := range eps {
		ids[i] = ep.ID
	}
	return ids
}

func TestEpisodesByShowFlattensBatches(t *testing.T) {
	fx := fixture()
	fx.PageSize = 1 // one episode per batch, one batch per page
	backend := newBackend(t, fx)

	eps, err := backend.EpisodesByShow(context.Background(), []int{1}, false, catalog.ListOptions{})
	if err != nil {
		t.Fatalf("EpisodesByShow: %v", err)
	}
	if got := episodeIDs(eps); len(got) != 3 || got[0] != 10 || got[1] != 11 || got[2] != 12 {
		t.Fatalf("unexpected episodes: %v", got)
	}
}

func TestEpisodesByShowSkipsBadRequestShows(t *testing.T) {
	fx := fixture()
	fx.EpisodeListStatus = map[int]int{1: http.StatusBadRequest}
	backend := newBackend(t, fx)

	eps, err := backend.EpisodesByShow(context.Background(), []int{1, 2}, false, catalog.ListOptions{})
	if err != nil {
		t.Fatalf("EpisodesByShow: %v", err)
	}
	if got := episodeIDs(eps); len(got) != 1 || got[0] != 20 {
		t.Fatalf("expected only show 2 episodes, got %v", got)
	}
}

func TestEpisodesByShowPropagatesOtherErrors(t *testing.T) {
	fx := fixture()
	fx.EpisodeListStatus = map[int]int{1: http.StatusInternalServerError}
	backend := newBackend(t, fx)

	if _, err := backend.EpisodesByShow(context.Background(), []int{1}, false, catalog.ListOptions{}); err == nil {
		t.Fatal("expected server error to propagate")
	}
}

func TestUnsortedOnly(t *testing.T) {
	backend := newBackend(t, fixture())

	eps, err := backend.EpisodesByShow(context.Background(), []int{1}, true, catalog.ListOptions{})
	if err != nil {
		t.Fatalf("EpisodesByShow unsorted: %v", err)
	}
	if got := episodeIDs(eps); len(got) != 1 || got[0] != 12 {
		t.Fatalf("expected unsorted episode only, got %v", got)
	}
}

func TestEpisodesByBohneThresholdAndExclusive(t *testing.T) {
	backend := newBackend(t, fixture())
	ctx := context.Background()

	// Any of the two queried hosts.
	eps, err := backend.EpisodesByBohne(ctx, []int{7, 8}, 1, false, catalog.ListOptions{})
	if err != nil {
		t.Fatalf("EpisodesByBohne: %v", err)
	}
	if got := episodeIDs(eps); len(got) != 4 {
		t.Fatalf("expected all four episodes, got %v", got)
	}

	// Both hosts at once.
	eps, err = backend.EpisodesByBohne(ctx, []int{7, 8}, 2, false, catalog.ListOptions{})
	if err != nil {
		t.Fatalf("EpisodesByBohne num=2: %v", err)
	}
	if got := episodeIDs(eps); len(got) != 1 || got[0] != 11 {
		t.Fatalf("expected episode 11 only, got %v", got)
	}

	// Exclusive: no hosts outside the queried set. Episode 20 has host 9.
	eps, err = backend.EpisodesByBohne(ctx, []int{7, 8}, 1, true, catalog.ListOptions{})
	if err != nil {
		t.Fatalf("EpisodesByBohne exclusive: %v", err)
	}
	for _, ep := range eps {
		if ep.ID == 20 {
			t.Fatalf("episode 20 has an outside host and must be excluded: %v", episodeIDs(eps))
		}
	}
}

func TestEpisodesByShowNameResolvesCaseInsensitively(t *testing.T) {
	backend := newBackend(t, fixture())

	eps, err := backend.EpisodesByShowName(context.Background(), []string{"almost daily"}, false, catalog.ListOptions{})
	if err != nil {
		t.Fatalf("EpisodesByShowName: %v", err)
	}
	if len(eps) != 3 {
		t.Fatalf("unexpected episode count: %v", episodeIDs(eps))
	}

	_, err = backend.EpisodesByShowName(context.Background(), []string{"does not exist"}, false, catalog.ListOptions{})
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStreamLimitStopsEarly(t *testing.T) {
	backend := newBackend(t, fixture())

	eps, err := backend.EpisodesByShow(context.Background(), []int{1, 2}, false, catalog.ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("EpisodesByShow limited: %v", err)
	}
	if len(eps) != 2 {
		t.Fatalf("expected 2 episodes, got %v", episodeIDs(eps))
	}
}

func TestSortedListingMaterializes(t *testing.T) {
	backend := newBackend(t, fixture())

	eps, err := backend.EpisodesByShow(context.Background(), []int{1, 2}, false,
		catalog.ListOptions{SortBy: "title", Limit: 1})
	if err != nil {
		t.Fatalf("EpisodesByShow sorted: %v", err)
	}
	if len(eps) != 1 || eps[0].Title != "Folge 1" {
		t.Fatalf("expected title-sorted head, got %+v", eps)
	}
}

func TestEpisodesByYoutubeTokenUnsupported(t *testing.T) {
	backend := newBackend(t, fixture())

	_, err := backend.EpisodesByYoutubeToken(context.Background(), []string{"aaaaaaaaaaA"}, catalog.ListOptions{})
	if !errors.Is(err, catalog.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestSeasonLookup(t *testing.T) {
	backend := newBackend(t, fixture())

	season, err := backend.Season(context.Background(), 1, 100)
	if err != nil {
		t.Fatalf("Season: %v", err)
	}
	if season.Name != "Staffel 1" {
		t.Fatalf("unexpected season: %+v", season)
	}

	_, err = backend.Season(context.Background(), 1, 999)
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
