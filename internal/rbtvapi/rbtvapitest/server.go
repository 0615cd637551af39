// Package rbtvapitest serves a fixture catalog over the wire shape of the
// Rocket Beans TV API for client and backend tests.
package rbtvapitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"

	"rbtv/internal/catalog"
)

// Fixture holds the catalog the test server exposes.
type Fixture struct {
	Shows    []catalog.Show
	Episodes []catalog.Episode
	Bohnen   []catalog.Bohne
	Posts    []catalog.BlogPost

	// EpisodeListStatus forces an HTTP status for a show's episode listing,
	// emulating upstream shows whose episodes cannot be retrieved.
	EpisodeListStatus map[int]int

	// PageSize overrides the server-side page length (default 2 so tests
	// exercise pagination with small fixtures).
	PageSize int
}

// NewServer starts an httptest server for the fixture. Callers own Close.
func NewServer(fx *Fixture) *httptest.Server {
	if fx.PageSize == 0 {
		fx.PageSize = 2
	}
	return httptest.NewServer(http.HandlerFunc(fx.handle))
}

func (fx *Fixture) handle(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	parts := strings.Split(path, "/")

	switch {
	case path == "shows/all":
		fx.writePage(w, r, toAny(fx.Shows))
	case len(parts) == 2 && parts[0] == "shows":
		fx.writeOne(w, fx.findShow(parts[1]))
	case path == "bohne/portrait/all":
		fx.writePage(w, r, toAny(fx.Bohnen))
	case len(parts) == 3 && parts[0] == "bohne" && parts[1] == "portrait":
		fx.writeOne(w, fx.findBohne(parts[2]))
	case path == "blog/all":
		fx.writePage(w, r, toAny(fx.Posts))
	case len(parts) == 2 && parts[0] == "blog":
		fx.writeOne(w, fx.findPost(parts[1]))
	case len(parts) == 3 && parts[0] == "media" && parts[1] == "episode":
		id, _ := strconv.Atoi(parts[2])
		fx.writeBatches(w, r, fx.episodesWhere(func(ep catalog.Episode) bool { return ep.ID == id }))
	case len(parts) == 4 && parts[0] == "media" && parts[2] == "byseason":
		id, _ := strconv.Atoi(parts[3])
		fx.writeBatches(w, r, fx.episodesWhere(func(ep catalog.Episode) bool { return ep.SeasonID == id }))
	case len(parts) == 4 && parts[0] == "media" && parts[2] == "byshow":
		id, _ := strconv.Atoi(parts[3])
		if status, ok := fx.EpisodeListStatus[id]; ok {
			http.Error(w, "bad request", status)
			return
		}
		fx.writeBatches(w, r, fx.episodesWhere(func(ep catalog.Episode) bool { return ep.ShowID == id }))
	case len(parts) == 5 && parts[0] == "media" && parts[2] == "byshow" && parts[3] == "unsorted":
		id, _ := strconv.Atoi(parts[4])
		if status, ok := fx.EpisodeListStatus[id]; ok {
			http.Error(w, "bad request", status)
			return
		}
		fx.writeBatches(w, r, fx.episodesWhere(func(ep catalog.Episode) bool {
			return ep.ShowID == id && !ep.InSeason()
		}))
	case len(parts) == 4 && parts[0] == "media" && parts[2] == "bybohne":
		id, _ := strconv.Atoi(parts[3])
		fx.writeBatches(w, r, fx.episodesWhere(func(ep catalog.Episode) bool {
			for _, h := range ep.Hosts {
				if h == id {
					return true
				}
			}
			return false
		}))
	case path == "search":
		fx.writeSearch(w, r.URL.Query().Get("q"))
	default:
		http.NotFound(w, r)
	}
}

func (fx *Fixture) episodesWhere(match func(catalog.Episode) bool) []catalog.Episode {
	var out []catalog.Episode
	for _, ep := range fx.Episodes {
		if match(ep) {
			out = append(out, ep)
		}
	}
	return out
}

func (fx *Fixture) findShow(raw string) any {
	id, _ := strconv.Atoi(raw)
	for _, s := range fx.Shows {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (fx *Fixture) findBohne(raw string) any {
	id, _ := strconv.Atoi(raw)
	for _, b := range fx.Bohnen {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func (fx *Fixture) findPost(raw string) any {
	id, _ := strconv.Atoi(raw)
	for _, p := range fx.Posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (fx *Fixture) writeOne(w http.ResponseWriter, item any) {
	if item == nil {
		http.NotFound(w, nil)
		return
	}
	writeEnvelope(w, item, 0, 0)
}

// writePage slices items according to limit/offset query parameters.
func (fx *Fixture) writePage(w http.ResponseWriter, r *http.Request, items []any) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit := fx.PageSize
	if offset > len(items) {
		offset = len(items)
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	writeEnvelope(w, items[offset:end], offset, len(items))
}

// writeBatches chunks episodes into combined batches and pages over the
// batch list, mirroring the wire shape of the media endpoints.
func (fx *Fixture) writeBatches(w http.ResponseWriter, r *http.Request, eps []catalog.Episode) {
	var batches []any
	for start := 0; start < len(eps); start += fx.PageSize {
		end := start + fx.PageSize
		if end > len(eps) {
			end = len(eps)
		}
		batches = append(batches, map[string]any{"episodes": eps[start:end]})
	}
	fx.writePage(w, r, batches)
}

func (fx *Fixture) writeSearch(w http.ResponseWriter, q string) {
	result := map[string]any{"shows": []catalog.Show{}, "episodes": []catalog.Episode{}, "blog": []catalog.BlogPost{}}
	var shows []catalog.Show
	for _, s := range fx.Shows {
		if catalog.FoldContains(s.Title, q) {
			shows = append(shows, s)
		}
	}
	var eps []catalog.Episode
	for _, ep := range fx.Episodes {
		if catalog.FoldContains(ep.Title, q) || catalog.FoldContains(ep.Description, q) {
			eps = append(eps, ep)
		}
	}
	var posts []catalog.BlogPost
	for _, p := range fx.Posts {
		if catalog.FoldContains(p.Title, q) || catalog.FoldContains(p.Subtitle, q) {
			posts = append(posts, p)
		}
	}
	result["shows"] = shows
	result["episodes"] = eps
	result["blog"] = posts
	writeEnvelope(w, result, 0, 0)
}

func writeEnvelope(w http.ResponseWriter, data any, offset, total int) {
	w.Header().Set("Content-Type", "application/json")
	payload := map[string]any{"success": true, "data": data}
	if total > 0 {
		payload["pagination"] = map[string]int{"offset": offset, "total": total}
	}
	json.NewEncoder(w).Encode(payload)
}

func toAny[T any](items []T) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
