package downloader

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rbtv/internal/catalog"
	"rbtv/internal/catalog/catalogtest"
	"rbtv/internal/fetch"
	"rbtv/internal/records"
)

// fakeFetcher records every request and answers from a per-URL script.
type fakeFetcher struct {
	requests []fetch.Request
	// failures maps a URL to the downloader error text it should fail with.
	failures map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, req fetch.Request) (*fetch.Result, error) {
	f.requests = append(f.requests, req)
	if msg, ok := f.failures[req.URL]; ok {
		return nil, &fetch.DownloadError{Message: msg}
	}
	return &fetch.Result{
		Filename: req.OutputTemplate + ".mp4",
		Info:     json.RawMessage(`{"ok":true}`),
	}, nil
}

func testBackend() *catalogtest.Fake {
	return &catalogtest.Fake{
		ShowsData: []catalog.Show{
			{ID: 1, Title: "Almost Daily", Seasons: []catalog.Season{
				{ID: 100, Name: "Staffel 1", Numeric: "1"},
			}},
		},
		EpisodesData: []catalog.Episode{
			{
				ID: 10, ShowID: 1, ShowName: "Almost Daily", SeasonID: 100,
				Title: "Folge 1", Episode: "1",
				FirstBroadcastdate: "2020-03-01T18:30:00",
				Duration:           3600,
				YoutubeTokens:      []string{"tokA", "tokB", "tokC"},
			},
			{
				ID: 11, ShowID: 1, ShowName: "Almost Daily",
				Title:         "Spezial",
				YoutubeTokens: []string{"tokD"},
			},
		},
	}
}

func newDownloader(backend catalog.Backend, ledger records.Ledger, fetcher fetch.Fetcher) *Downloader {
	d := New(backend, ledger, fetcher, nil, Config{
		OutDirTemplate:  "{show_name}/{season_name}",
		OutFileTemplate: "%(title)s-%(id)s.%(ext)s",
		MissingValue:    "-",
		Retries:         10,
		RateLimitDelay:  time.Minute,
	})
	d.sleep = func(time.Duration) {}
	return d
}

func TestIdempotentResume(t *testing.T) {
	fetcher := &fakeFetcher{}
	ledger := records.NewMemory()
	d := newDownloader(testBackend(), ledger, fetcher)
	ctx := context.Background()

	if err := d.DownloadEpisodes(ctx, []int{10}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(fetcher.requests) != 3 {
		t.Fatalf("expected 3 fetches, got %d", len(fetcher.requests))
	}
	done, err := ledger.EpisodeDone(ctx, 10)
	if err != nil || !done {
		t.Fatalf("episode should be complete: done=%v err=%v", done, err)
	}

	if err := d.DownloadEpisodes(ctx, []int{10}); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(fetcher.requests) != 3 {
		t.Fatalf("second run must not fetch again, got %d total requests", len(fetcher.requests))
	}
}

func TestPartLevelResume(t *testing.T) {
	fetcher := &fakeFetcher{}
	ledger := records.NewMemory()
	ctx := context.Background()
	for part := 0; part < 2; part++ {
		if err := ledger.MarkPart(ctx, records.Part{EpisodeID: 10, EpisodePart: part}); err != nil {
			t.Fatal(err)
		}
	}

	d := newDownloader(testBackend(), ledger, fetcher)
	if err := d.DownloadEpisodes(ctx, []int{10}); err != nil {
		t.Fatalf("DownloadEpisodes: %v", err)
	}
	if len(fetcher.requests) != 1 {
		t.Fatalf("expected only part 2 to be fetched, got %d requests", len(fetcher.requests))
	}
	if want := catalog.YoutubeURL("tokC"); fetcher.requests[0].URL != want {
		t.Fatalf("expected %s, got %s", want, fetcher.requests[0].URL)
	}
}

func TestFailedPartKeepsEpisodeIncomplete(t *testing.T) {
	fetcher := &fakeFetcher{failures: map[string]string{
		catalog.YoutubeURL("tokB"): "ERROR: This video is not available in your country.",
	}}
	ledger := records.NewMemory()
	d := newDownloader(testBackend(), ledger, fetcher)
	ctx := context.Background()

	if err := d.DownloadEpisodes(ctx, []int{10}); err != nil {
		t.Fatalf("DownloadEpisodes: %v", err)
	}
	if len(fetcher.requests) != 3 {
		t.Fatalf("all parts should still be attempted, got %d", len(fetcher.requests))
	}
	done, err := ledger.EpisodeDone(ctx, 10)
	if err != nil || done {
		t.Fatalf("episode must stay incomplete: done=%v err=%v", done, err)
	}
	// The successful parts are recorded, so a retry fetches only the failure.
	fetcher.failures = nil
	fetcher.requests = nil
	if err := d.DownloadEpisodes(ctx, []int{10}); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(fetcher.requests) != 1 {
		t.Fatalf("retry should fetch only the failed part, got %d", len(fetcher.requests))
	}
	done, err = ledger.EpisodeDone(ctx, 10)
	if err != nil || !done {
		t.Fatalf("episode should now be complete: done=%v err=%v", done, err)
	}
}

func TestUnknownFailureAborts(t *testing.T) {
	fetcher := &fakeFetcher{failures: map[string]string{
		catalog.YoutubeURL("tokA"): "ERROR: some new upstream failure",
	}}
	d := newDownloader(testBackend(), records.NewMemory(), fetcher)

	if err := d.DownloadEpisodes(context.Background(), []int{10}); err == nil {
		t.Fatal("expected unrecognized failure to abort the run")
	}
	if len(fetcher.requests) != 1 {
		t.Fatalf("run must stop at the unknown failure, got %d requests", len(fetcher.requests))
	}
}

func TestRateLimitSleeps(t *testing.T) {
	fetcher := &fakeFetcher{failures: map[string]string{
		catalog.YoutubeURL("tokA"): "ERROR: Unable to download webpage: HTTP Error 429: Too Many Requests (caused by ...)",
	}}
	d := newDownloader(testBackend(), records.NewMemory(), fetcher)

	var slept []time.Duration
	d.sleep = func(delay time.Duration) { slept = append(slept, delay) }

	if err := d.DownloadEpisodes(context.Background(), []int{10}); err != nil {
		t.Fatalf("DownloadEpisodes: %v", err)
	}
	if len(slept) != 1 || slept[0] != time.Minute {
		t.Fatalf("expected one rate-limit pause of 1m, got %v", slept)
	}
	// The run continues past the rate-limited part.
	if len(fetcher.requests) != 3 {
		t.Fatalf("expected remaining parts to be attempted, got %d", len(fetcher.requests))
	}
}

func TestTemplateFallbackForUnsortedEpisode(t *testing.T) {
	fetcher := &fakeFetcher{}
	d := newDownloader(testBackend(), records.NewMemory(), fetcher)

	// Episode 11 has no season, so the season segment resolves to the
	// missing value.
	if err := d.DownloadEpisodes(context.Background(), []int{11}); err != nil {
		t.Fatalf("DownloadEpisodes: %v", err)
	}
	if len(fetcher.requests) != 1 {
		t.Fatalf("expected 1 fetch, got %d", len(fetcher.requests))
	}
	got := fetcher.requests[0].OutputTemplate
	if !strings.HasPrefix(got, filepath.Join("Almost Daily", "-")+string(filepath.Separator)) {
		t.Fatalf("expected missing-value season directory, got %q", got)
	}
	if !strings.Contains(got, "%(title)s") {
		t.Fatalf("downloader placeholders must pass through, got %q", got)
	}
}

func TestTemplateVarsFromSeason(t *testing.T) {
	fetcher := &fakeFetcher{}
	d := newDownloader(testBackend(), records.NewMemory(), fetcher)
	d.cfg.OutDirTemplate = "{show_name}/{season_number}-{season_name}/{year}-{month}"

	if err := d.DownloadEpisodes(context.Background(), []int{10}); err != nil {
		t.Fatalf("DownloadEpisodes: %v", err)
	}
	got := fetcher.requests[0].OutputTemplate
	want := filepath.Join("Almost Daily", "1-Staffel 1", "2020-3")
	if !strings.HasPrefix(got, want) {
		t.Fatalf("expected prefix %q, got %q", want, got)
	}
}

func TestEmptyTokenSkippedWithoutFailing(t *testing.T) {
	backend := &catalogtest.Fake{
		EpisodesData: []catalog.Episode{
			{ID: 30, ShowID: 1, ShowName: "Show", Title: "Ep", YoutubeTokens: []string{"", "tokX"}},
		},
	}
	fetcher := &fakeFetcher{}
	ledger := records.NewMemory()
	d := newDownloader(backend, ledger, fetcher)
	ctx := context.Background()

	if err := d.DownloadEpisodes(ctx, []int{30}); err != nil {
		t.Fatalf("DownloadEpisodes: %v", err)
	}
	if len(fetcher.requests) != 1 {
		t.Fatalf("empty token must not be fetched, got %d requests", len(fetcher.requests))
	}
	// An empty token does not count as a failure, so the episode still
	// completes.
	done, err := ledger.EpisodeDone(ctx, 30)
	if err != nil || !done {
		t.Fatalf("episode should be complete: done=%v err=%v", done, err)
	}
}

func TestDuplicateTokenEpisodeCompletes(t *testing.T) {
	backend := &catalogtest.Fake{
		EpisodesData: []catalog.Episode{
			{ID: 60, ShowID: 1, ShowName: "Show", Title: "Ep", YoutubeTokens: []string{"tokZ", "tokZ"}},
		},
	}
	store, err := records.Open(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("records.Open: %v", err)
	}
	defer store.Close()

	fetcher := &fakeFetcher{}
	d := newDownloader(backend, store, fetcher)
	ctx := context.Background()

	// Episodes with a repeated token exist upstream; both parts get their
	// own ledger row.
	if err := d.DownloadEpisodes(ctx, []int{60}); err != nil {
		t.Fatalf("DownloadEpisodes: %v", err)
	}
	if len(fetcher.requests) != 2 {
		t.Fatalf("expected both parts to be fetched, got %d", len(fetcher.requests))
	}
	for part := 0; part < 2; part++ {
		done, err := store.PartDone(ctx, 60, part)
		if err != nil || !done {
			t.Fatalf("PartDone(60,%d): done=%v err=%v", part, done, err)
		}
	}
	done, err := store.EpisodeDone(ctx, 60)
	if err != nil || !done {
		t.Fatalf("episode should be complete: done=%v err=%v", done, err)
	}
}

func TestEpisodeWithoutTokensSkipped(t *testing.T) {
	backend := &catalogtest.Fake{
		EpisodesData: []catalog.Episode{{ID: 40, ShowID: 1, ShowName: "Show", Title: "Ep"}},
	}
	fetcher := &fakeFetcher{}
	ledger := records.NewMemory()
	d := newDownloader(backend, ledger, fetcher)
	ctx := context.Background()

	if err := d.DownloadEpisodes(ctx, []int{40}); err != nil {
		t.Fatalf("DownloadEpisodes: %v", err)
	}
	if len(fetcher.requests) != 0 {
		t.Fatalf("nothing to fetch, got %d requests", len(fetcher.requests))
	}
	done, err := ledger.EpisodeDone(ctx, 40)
	if err != nil || done {
		t.Fatalf("no ledger writes expected: done=%v err=%v", done, err)
	}
}

func TestTypedTokenNormalization(t *testing.T) {
	backend := &catalogtest.Fake{
		EpisodesData: []catalog.Episode{
			{ID: 50, ShowID: 1, ShowName: "Show", Title: "Ep", Tokens: []catalog.Token{
				{Type: "youtube", Token: "tokY"},
				{Type: "vimeo", Token: "tokV"},
			}},
		},
	}
	fetcher := &fakeFetcher{}
	d := newDownloader(backend, records.NewMemory(), fetcher)

	if err := d.DownloadEpisodes(context.Background(), []int{50}); err != nil {
		t.Fatalf("DownloadEpisodes: %v", err)
	}
	if len(fetcher.requests) != 1 || fetcher.requests[0].URL != catalog.YoutubeURL("tokY") {
		t.Fatalf("expected only the youtube token to be fetched, got %+v", fetcher.requests)
	}
}

func TestClassifyKnownFailures(t *testing.T) {
	cases := []struct {
		message string
		kind    failureKind
		detail  string
	}{
		{"ERROR: Unsupported URL: https://example.org", failureUnsupportedURL, ""},
		{"ERROR: Incomplete YouTube ID abc", failureIncompleteID, ""},
		{"ERROR: Did not get any data blocks", failureNoData, ""},
		{"ERROR: abc-DEF_123: YouTube said: Unable to extract video data", failureExtract, ""},
		{"ERROR: unable to download video data: timeout", failureDownloadData, ""},
		{"ERROR: giving up after 10 retries", failureRetriesExceeded, "10"},
		{"ERROR: This video is not available in your country.", failureGeoBlocked, ""},
		{"ERROR: Unable to download webpage: HTTP Error 429: Too Many Requests (caused by x)", failureRateLimited, "(caused by x)"},
		{"ERROR: Video unavailable\nThis video contains content from ACME, who has blocked it on copyright grounds.", failureCopyright, "ACME"},
		{"ERROR: Video unavailable\nThis video contains content from ACME, who has blocked it in your country on copyright grounds.", failureCopyrightCountry, "ACME"},
		{"ERROR: Video unavailable\nThis video is private.", failurePrivate, ""},
	}
	for _, tc := range cases {
		kind, detail := classify(tc.message)
		if kind != tc.kind || detail != tc.detail {
			t.Errorf("classify(%q) = (%v, %q), want (%v, %q)", tc.message, kind, detail, tc.kind, tc.detail)
		}
	}
	if kind, _ := classify("ERROR: some new upstream failure"); kind != failureUnknown {
		t.Errorf("expected unknown classification, got %v", kind)
	}
}

func TestBlogPostExport(t *testing.T) {
	backend := &catalogtest.Fake{
		PostsData: []catalog.BlogPost{
			{ID: 50, Title: "Wochenplan"},
			{ID: 51, Title: "Rückblick"},
		},
	}
	dir := t.TempDir()
	d := newDownloader(backend, records.NewMemory(), &fakeFetcher{})
	d.cfg.BasePath = dir
	ctx := context.Background()

	if err := d.DownloadBlogPosts(ctx, []int{50}); err != nil {
		t.Fatalf("DownloadBlogPosts: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "blog-50.json"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(raw), "\t\"title\": \"Wochenplan\"") {
		t.Fatalf("expected pretty-printed post, got %q", raw)
	}

	// Existing output is never overwritten.
	if err := d.DownloadBlogPosts(ctx, []int{50}); err == nil {
		t.Fatal("expected file-exists error")
	}

	if err := d.DownloadAllBlogPosts(ctx); err != nil {
		t.Fatalf("DownloadAllBlogPosts: %v", err)
	}
	raw, err = os.ReadFile(filepath.Join(dir, "blog-posts.jl"))
	if err != nil {
		t.Fatalf("read combined export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 newline-delimited posts, got %d", len(lines))
	}
	var post catalog.BlogPost
	if err := json.Unmarshal([]byte(lines[1]), &post); err != nil || post.ID != 51 {
		t.Fatalf("unexpected second line %q: %v", lines[1], err)
	}
	if err := d.DownloadAllBlogPosts(ctx); err == nil {
		t.Fatal("expected file-exists error for combined export")
	}
}

func TestDownloadSelectors(t *testing.T) {
	backend := testBackend()
	backend.BohnenData = []catalog.Bohne{{ID: 5, Name: "Budi"}}
	backend.EpisodesData[0].Hosts = []int{5}

	for name, run := range map[string]func(*Downloader) error{
		"seasons": func(d *Downloader) error {
			return d.DownloadSeasons(context.Background(), []int{100})
		},
		"shows": func(d *Downloader) error {
			return d.DownloadShows(context.Background(), []int{1}, false)
		},
		"shows by name": func(d *Downloader) error {
			return d.DownloadShowsByName(context.Background(), []string{"almost daily"}, false)
		},
		"all shows": func(d *Downloader) error {
			return d.DownloadAllShows(context.Background(), false)
		},
		"bohnen": func(d *Downloader) error {
			return d.DownloadBohnen(context.Background(), []int{5}, 1, false)
		},
		"bohnen by name": func(d *Downloader) error {
			return d.DownloadBohnenByName(context.Background(), []string{"budi"}, 1, false)
		},
	} {
		fetcher := &fakeFetcher{}
		d := newDownloader(backend, records.NewMemory(), fetcher)
		if err := run(d); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(fetcher.requests) == 0 {
			t.Fatalf("%s: expected fetches", name)
		}
	}
}
