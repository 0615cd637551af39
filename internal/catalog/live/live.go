// Package live implements the catalog query contract against the remote
// Rocket Beans TV API.
package live

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"rbtv/internal/catalog"
	"rbtv/internal/rbtvapi"
)

// Backend serves catalog queries straight from the remote API.
type Backend struct {
	client *rbtvapi.Client
	logger *slog.Logger
}

var _ catalog.Backend = (*Backend)(nil)

// New wraps an API client as a catalog backend.
func New(client *rbtvapi.Client, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Backend{client: client, logger: logger}
}

func (b *Backend) Episodes(ctx context.Context, episodeIDs []int) ([]catalog.Episode, error) {
	out := make([]catalog.Episode, 0, len(episodeIDs))
	for _, id := range episodeIDs {
		eps, err := b.client.Episode(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(eps) != 1 {
			return nil, fmt.Errorf("episode %d: expected exactly one record, got %d", id, len(eps))
		}
		out = append(out, eps[0])
	}
	return out, nil
}

func (b *Backend) Season(ctx context.Context, showID, seasonID int) (catalog.Season, error) {
	show, err := b.client.Show(ctx, showID)
	if err != nil {
		return catalog.Season{}, err
	}
	for _, season := range show.Seasons {
		if season.ID == seasonID {
			return season, nil
		}
	}
	return catalog.Season{}, fmt.Errorf("season show=%d season=%d: %w", showID, seasonID, catalog.ErrNotFound)
}

func (b *Backend) EpisodesBySeason(ctx context.Context, seasonIDs []int, opts catalog.ListOptions) ([]catalog.Episode, error) {
	var out []catalog.Episode
	for _, id := range seasonIDs {
		eps, err := b.client.EpisodesBySeason(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, eps...)
		if streamFull(out, opts) {
			break
		}
	}
	return catalog.SortAndLimitEpisodes(out, opts)
}

func (b *Backend) EpisodesByShow(ctx context.Context, showIDs []int, unsortedOnly bool, opts catalog.ListOptions) ([]catalog.Episode, error) {
	list := b.client.EpisodesByShow
	if unsortedOnly {
		list = b.client.UnsortedEpisodesByShow
	}

	var out []catalog.Episode
	for _, id := range showIDs {
		eps, err := list(ctx, id)
		if err != nil {
			// Some shows have no retrievable episodes; upstream answers
			// with a bad request instead of an empty list.
			if rbtvapi.IsStatus(err, http.StatusBadRequest) {
				b.logger.Warn("failed to get episodes for show", slog.Int("show_id", id))
				continue
			}
			return nil, err
		}
		out = append(out, eps...)
		if streamFull(out, opts) {
			break
		}
	}
	return catalog.SortAndLimitEpisodes(out, opts)
}

func (b *Backend) EpisodesByShowName(ctx context.Context, showNames []string, unsortedOnly bool, opts catalog.ListOptions) ([]catalog.Episode, error) {
	ids, err := b.resolveShowNames(ctx, showNames)
	if err != nil {
		return nil, err
	}
	return b.EpisodesByShow(ctx, ids, unsortedOnly, opts)
}

func (b *Backend) AllEpisodes(ctx context.Context, unsortedOnly bool, opts catalog.ListOptions) ([]catalog.Episode, error) {
	shows, err := b.client.Shows(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int, len(shows))
	for i, show := range shows {
		ids[i] = show.ID
	}
	return b.EpisodesByShow(ctx, ids, unsortedOnly, opts)
}

func (b *Backend) EpisodesByBohne(ctx context.Context, bohneIDs []int, num int, exclusive bool, opts catalog.ListOptions) ([]catalog.Episode, error) {
	if num == 1 && !exclusive {
		// Common case: any queried Bohne qualifies, no need to hold the
		// full host map in memory.
		var out []catalog.Episode
		seen := make(map[int]struct{})
		for _, id := range bohneIDs {
			eps, err := b.client.EpisodesByBohne(ctx, id)
			if err != nil {
				return nil, err
			}
			for _, ep := range eps {
				if _, ok := seen[ep.ID]; ok {
					continue
				}
				seen[ep.ID] = struct{}{}
				out = append(out, ep)
			}
			if streamFull(out, opts) {
				break
			}
		}
		return catalog.SortAndLimitEpisodes(out, opts)
	}

	// Exclusivity and thresholds are properties of an episode's full host
	// set, so all candidates must be materialized before filtering.
	candidates := make(map[int]catalog.Episode)
	var order []int
	for _, id := range bohneIDs {
		eps, err := b.client.EpisodesByBohne(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, ep := range eps {
			if _, ok := candidates[ep.ID]; !ok {
				order = append(order, ep.ID)
			}
			candidates[ep.ID] = ep
		}
	}

	queried := catalog.IDSet(bohneIDs)
	var out []catalog.Episode
	for _, id := range order {
		ep := candidates[id]
		if catalog.HostsMatch(ep.Hosts, queried, num, exclusive) {
			out = append(out, ep)
		}
	}
	return catalog.SortAndLimitEpisodes(out, opts)
}

func (b *Backend) EpisodesByBohneName(ctx context.Context, bohneNames []string, num int, exclusive bool, opts catalog.ListOptions) ([]catalog.Episode, error) {
	ids, err := b.resolveBohneNames(ctx, bohneNames)
	if err != nil {
		return nil, err
	}
	return b.EpisodesByBohne(ctx, ids, num, exclusive, opts)
}

func (b *Backend) EpisodesByYoutubeToken(ctx context.Context, tokens []string, opts catalog.ListOptions) ([]catalog.Episode, error) {
	return nil, fmt.Errorf("episodes by youtube token: %w", catalog.ErrUnsupported)
}

func (b *Backend) Shows(ctx context.Context, showIDs []int) ([]catalog.Show, error) {
	out := make([]catalog.Show, 0, len(showIDs))
	for _, id := range showIDs {
		show, err := b.client.Show(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, show)
	}
	return out, nil
}

func (b *Backend) ShowsByName(ctx context.Context, showNames []string) ([]catalog.Show, error) {
	ids, err := b.resolveShowNames(ctx, showNames)
	if err != nil {
		return nil, err
	}
	return b.Shows(ctx, ids)
}

func (b *Backend) AllShows(ctx context.Context, opts catalog.ListOptions) ([]catalog.Show, error) {
	shows, err := b.client.Shows(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.SortAndLimitShows(shows, opts)
}

func (b *Backend) Bohnen(ctx context.Context, bohneIDs []int) ([]catalog.Bohne, error) {
	out := make([]catalog.Bohne, 0, len(bohneIDs))
	for _, id := range bohneIDs {
		bohne, err := b.client.Bohne(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, bohne)
	}
	return out, nil
}

func (b *Backend) BohnenByName(ctx context.Context, bohneNames []string) ([]catalog.Bohne, error) {
	ids, err := b.resolveBohneNames(ctx, bohneNames)
	if err != nil {
		return nil, err
	}
	return b.Bohnen(ctx, ids)
}

func (b *Backend) AllBohnen(ctx context.Context, opts catalog.ListOptions) ([]catalog.Bohne, error) {
	bohnen, err := b.client.Bohnen(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.SortAndLimitBohnen(bohnen, opts)
}

func (b *Backend) Posts(ctx context.Context, blogIDs []int) ([]catalog.BlogPost, error) {
	out := make([]catalog.BlogPost, 0, len(blogIDs))
	for _, id := range blogIDs {
		post, err := b.client.BlogPost(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, post)
	}
	return out, nil
}

func (b *Backend) AllPosts(ctx context.Context, opts catalog.ListOptions) ([]catalog.BlogPost, error) {
	posts, err := b.client.BlogPosts(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.SortAndLimitPosts(posts, opts)
}

func (b *Backend) Search(ctx context.Context, text string) (catalog.SearchResult, error) {
	return b.client.Search(ctx, text)
}

func (b *Backend) Close() error { return nil }

func (b *Backend) resolveShowNames(ctx context.Context, names []string) ([]int, error) {
	ids := make([]int, 0, len(names))
	for _, name := range names {
		id, err := b.client.ShowNameToID(ctx, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (b *Backend) resolveBohneNames(ctx context.Context, names []string) ([]int, error) {
	ids := make([]int, 0, len(names))
	for _, name := range names {
		id, err := b.client.BohneNameToID(ctx, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// streamFull reports whether an unsorted, limited listing already has
// enough items to stop pulling further sources.
func streamFull[T any](items []T, opts catalog.ListOptions) bool {
	return opts.SortBy == "" && opts.Limit > 0 && len(items) >= opts.Limit
}
