package rbtvapi_test

import (
	"context"
	"testing"

	"rbtv/internal/catalog"
	"rbtv/internal/rbtvapi"
	"rbtv/internal/rbtvapi/rbtvapitest"
)

func fixture() *rbtvapitest.Fixture {
	return &rbtvapitest.Fixture{
		Shows: []catalog.Show{
			{ID: 1, Title: "Almost Daily"},
			{ID: 2, Title: "Game Plus"},
			{ID: 3, Title: "Kino Plus"},
		},
		Episodes: []catalog.Episode{
			{ID: 10, ShowID: 1, SeasonID: 100, Title: "Folge 1", Hosts: []int{5}},
			{ID: 11, ShowID: 1, SeasonID: 100, Title: "Folge 2", Hosts: []int{5, 6}},
			{ID: 12, ShowID: 1, Title: "Spezial", Hosts: []int{6}},
			{ID: 13, ShowID: 2, SeasonID: 200, Title: "GP #1"},
			{ID: 14, ShowID: 2, SeasonID: 200, Title: "GP #2"},
		},
		Bohnen: []catalog.Bohne{
			{ID: 5, Name: "Budi", EpisodeCount: 2},
			{ID: 6, Name: "Simon", EpisodeCount: 2},
		},
		Posts: []catalog.BlogPost{
			{ID: 50, Title: "Wochenplan"},
		},
	}
}

func newClient(t *testing.T) *rbtvapi.Client {
	t.Helper()
	srv := rbtvapitest.NewServer(fixture())
	t.Cleanup(srv.Close)
	return rbtvapi.New(rbtvapi.WithBaseURL(srv.URL), rbtvapi.WithHTTPClient(srv.Client()))
}

func TestShowsPaginates(t *testing.T) {
	client := newClient(t)
	shows, err := client.Shows(context.Background())
	if err != nil {
		t.Fatalf("Shows: %v", err)
	}
	// Fixture page size is 2, so three shows require two pages.
	if len(shows) != 3 {
		t.Fatalf("expected 3 shows, got %d", len(shows))
	}
	if shows[2].Title != "Kino Plus" {
		t.Fatalf("unexpected last show: %+v", shows[2])
	}
}

func TestEpisodesByShowFlattensBatches(t *testing.T) {
	client := newClient(t)
	eps, err := client.EpisodesByShow(context.Background(), 1)
	if err != nil {
		t.Fatalf("EpisodesByShow: %v", err)
	}
	if len(eps) != 3 {
		t.Fatalf("expected 3 episodes, got %d", len(eps))
	}
}

func TestUnsortedEpisodesByShow(t *testing.T) {
	client := newClient(t)
	eps, err := client.UnsortedEpisodesByShow(context.Background(), 1)
	if err != nil {
		t.Fatalf("UnsortedEpisodesByShow: %v", err)
	}
	if len(eps) != 1 || eps[0].ID != 12 {
		t.Fatalf("unexpected unsorted episodes: %+v", eps)
	}
}

func TestEpisodeListStatusSurfacesHTTPError(t *testing.T) {
	fx := fixture()
	fx.EpisodeListStatus = map[int]int{2: 400}
	srv := rbtvapitest.NewServer(fx)
	t.Cleanup(srv.Close)
	client := rbtvapi.New(rbtvapi.WithBaseURL(srv.URL), rbtvapi.WithHTTPClient(srv.Client()))

	_, err := client.EpisodesByShow(context.Background(), 2)
	if err == nil {
		t.Fatal("expected error")
	}
	if !rbtvapi.IsStatus(err, 400) {
		t.Fatalf("expected HTTP 400, got %v", err)
	}
	if rbtvapi.IsStatus(err, 404) {
		t.Fatal("IsStatus must match the exact code")
	}
}

func TestNameResolution(t *testing.T) {
	client := newClient(t)
	id, err := client.ShowNameToID(context.Background(), "game plus")
	if err != nil || id != 2 {
		t.Fatalf("ShowNameToID: id=%d err=%v", id, err)
	}
	if _, err := client.BohneNameToID(context.Background(), "nobody"); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestSearch(t *testing.T) {
	client := newClient(t)
	result, err := client.Search(context.Background(), "folge")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(result.Episodes) != 2 || len(result.Shows) != 0 {
		t.Fatalf("unexpected search result: %+v", result)
	}
}
