package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrNotFound marks lookups that could not resolve an id or name. The CLI
// maps it to user guidance (e.g. "run `rbtv dump` first" for a missing
// snapshot).
var ErrNotFound = errors.New("not found")

// ErrUnsupported marks operations a backend does not implement.
var ErrUnsupported = errors.New("operation not supported by this backend")

// ListOptions controls post-filter ordering and truncation of list results.
// When SortBy is set the result is fully materialized, sorted ascending by
// the named field and then truncated; otherwise results keep source order
// and are truncated as produced. A Limit of zero means unlimited.
type ListOptions struct {
	SortBy string
	Limit  int
}

// Backend is the uniform query contract over the content graph, satisfied
// by both the live API adapter and the local snapshot adapter.
type Backend interface {
	Episodes(ctx context.Context, episodeIDs []int) ([]Episode, error)
	Season(ctx context.Context, showID, seasonID int) (Season, error)
	EpisodesBySeason(ctx context.Context, seasonIDs []int, opts ListOptions) ([]Episode, error)
	EpisodesByShow(ctx context.Context, showIDs []int, unsortedOnly bool, opts ListOptions) ([]Episode, error)
	EpisodesByShowName(ctx context.Context, showNames []string, unsortedOnly bool, opts ListOptions) ([]Episode, error)
	AllEpisodes(ctx context.Context, unsortedOnly bool, opts ListOptions) ([]Episode, error)
	EpisodesByBohne(ctx context.Context, bohneIDs []int, num int, exclusive bool, opts ListOptions) ([]Episode, error)
	EpisodesByBohneName(ctx context.Context, bohneNames []string, num int, exclusive bool, opts ListOptions) ([]Episode, error)
	EpisodesByYoutubeToken(ctx context.Context, tokens []string, opts ListOptions) ([]Episode, error)

	Shows(ctx context.Context, showIDs []int) ([]Show, error)
	ShowsByName(ctx context.Context, showNames []string) ([]Show, error)
	AllShows(ctx context.Context, opts ListOptions) ([]Show, error)

	Bohnen(ctx context.Context, bohneIDs []int) ([]Bohne, error)
	BohnenByName(ctx context.Context, bohneNames []string) ([]Bohne, error)
	AllBohnen(ctx context.Context, opts ListOptions) ([]Bohne, error)

	Posts(ctx context.Context, blogIDs []int) ([]BlogPost, error)
	AllPosts(ctx context.Context, opts ListOptions) ([]BlogPost, error)

	Search(ctx context.Context, text string) (SearchResult, error)

	Close() error
}

// HostsMatch implements the Bohne co-occurrence predicate: at least num of
// the queried ids must host the episode, and with exclusive set no host
// outside the queried set may be present.
func HostsMatch(hosts []int, queried map[int]struct{}, num int, exclusive bool) bool {
	matched := 0
	for _, h := range hosts {
		if _, ok := queried[h]; ok {
			matched++
		} else if exclusive {
			return false
		}
	}
	return matched >= num
}

// IDSet builds a membership set from an id list.
func IDSet(ids []int) map[int]struct{} {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Limit truncates a slice according to opts.Limit.
func Limit[T any](items []T, opts ListOptions) []T {
	if opts.Limit > 0 && len(items) > opts.Limit {
		return items[:opts.Limit]
	}
	return items
}

// SortEpisodes orders episodes ascending by the named field.
func SortEpisodes(eps []Episode, key string) error {
	var less func(a, b Episode) bool
	switch key {
	case "id":
		less = func(a, b Episode) bool { return a.ID < b.ID }
	case "title":
		less = func(a, b Episode) bool { return a.Title < b.Title }
	case "showName":
		less = func(a, b Episode) bool { return a.ShowName < b.ShowName }
	case "firstBroadcastdate":
		// ISO-8601 timestamps order correctly as strings.
		less = func(a, b Episode) bool { return a.FirstBroadcastdate < b.FirstBroadcastdate }
	case "duration":
		less = func(a, b Episode) bool { return a.Duration < b.Duration }
	default:
		return fmt.Errorf("sort episodes by %q: unknown field", key)
	}
	sort.SliceStable(eps, func(i, j int) bool { return less(eps[i], eps[j]) })
	return nil
}

// SortAndLimitEpisodes applies ListOptions to an already-filtered list.
func SortAndLimitEpisodes(eps []Episode, opts ListOptions) ([]Episode, error) {
	if opts.SortBy != "" {
		if err := SortEpisodes(eps, opts.SortBy); err != nil {
			return nil, err
		}
	}
	return Limit(eps, opts), nil
}

// SortAndLimitShows applies ListOptions to a show list.
func SortAndLimitShows(shows []Show, opts ListOptions) ([]Show, error) {
	if opts.SortBy != "" {
		var less func(a, b Show) bool
		switch opts.SortBy {
		case "id":
			less = func(a, b Show) bool { return a.ID < b.ID }
		case "title":
			less = func(a, b Show) bool { return a.Title < b.Title }
		case "genre":
			less = func(a, b Show) bool { return a.Genre < b.Genre }
		default:
			return nil, fmt.Errorf("sort shows by %q: unknown field", opts.SortBy)
		}
		sort.SliceStable(shows, func(i, j int) bool { return less(shows[i], shows[j]) })
	}
	return Limit(shows, opts), nil
}

// SortAndLimitBohnen applies ListOptions to a Bohnen list.
func SortAndLimitBohnen(bohnen []Bohne, opts ListOptions) ([]Bohne, error) {
	if opts.SortBy != "" {
		var less func(a, b Bohne) bool
		switch opts.SortBy {
		case "id", "mgmtid":
			less = func(a, b Bohne) bool { return a.ID < b.ID }
		case "name":
			less = func(a, b Bohne) bool { return a.Name < b.Name }
		case "episodeCount":
			less = func(a, b Bohne) bool { return a.EpisodeCount < b.EpisodeCount }
		default:
			return nil, fmt.Errorf("sort bohnen by %q: unknown field", opts.SortBy)
		}
		sort.SliceStable(bohnen, func(i, j int) bool { return less(bohnen[i], bohnen[j]) })
	}
	return Limit(bohnen, opts), nil
}

// SortAndLimitPosts applies ListOptions to a blog post list.
func SortAndLimitPosts(posts []BlogPost, opts ListOptions) ([]BlogPost, error) {
	if opts.SortBy != "" {
		var less func(a, b BlogPost) bool
		switch opts.SortBy {
		case "id":
			less = func(a, b BlogPost) bool { return a.ID < b.ID }
		case "title":
			less = func(a, b BlogPost) bool { return a.Title < b.Title }
		case "publishDate":
			less = func(a, b BlogPost) bool { return a.PublishDate < b.PublishDate }
		default:
			return nil, fmt.Errorf("sort posts by %q: unknown field", opts.SortBy)
		}
		sort.SliceStable(posts, func(i, j int) bool { return less(posts[i], posts[j]) })
	}
	return Limit(posts, opts), nil
}
