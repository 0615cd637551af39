// Package catalogtest provides an in-memory catalog.Backend for tests.
package catalogtest

import (
	"context"
	"fmt"
	"slices"

	"rbtv/internal/catalog"
)

// Fake serves catalog queries from fixture slices. It mirrors the filtering
// semantics of the real backends closely enough for engine-level tests.
type Fake struct {
	ShowsData    []catalog.Show
	EpisodesData []catalog.Episode
	BohnenData   []catalog.Bohne
	PostsData    []catalog.BlogPost
}

var _ catalog.Backend = (*Fake)(nil)

func (f *Fake) Episodes(_ context.Context, episodeIDs []int) ([]catalog.Episode, error) {
	set := catalog.IDSet(episodeIDs)
	var out []catalog.Episode
	for _, ep := range f.EpisodesData {
		if _, ok := set[ep.ID]; ok {
			out = append(out, ep)
		}
	}
	return out, nil
}

func (f *Fake) Season(_ context.Context, showID, seasonID int) (catalog.Season, error) {
	for _, show := range f.ShowsData {
		if show.ID != showID {
			continue
		}
		for _, season := range show.Seasons {
			if season.ID == seasonID {
				return season, nil
			}
		}
	}
	return catalog.Season{}, fmt.Errorf("season show=%d season=%d: %w", showID, seasonID, catalog.ErrNotFound)
}

func (f *Fake) EpisodesBySeason(_ context.Context, seasonIDs []int, opts catalog.ListOptions) ([]catalog.Episode, error) {
	set := catalog.IDSet(seasonIDs)
	var out []catalog.Episode
	for _, ep := range f.EpisodesData {
		if _, ok := set[ep.SeasonID]; ok {
			out = append(out, ep)
		}
	}
	return catalog.SortAndLimitEpisodes(out, opts)
}

func (f *Fake) EpisodesByShow(_ context.Context, showIDs []int, unsortedOnly bool, opts catalog.ListOptions) ([]catalog.Episode, error) {
	set := catalog.IDSet(showIDs)
	var out []catalog.Episode
	for _, ep := range f.EpisodesData {
		if _, ok := set[ep.ShowID]; !ok {
			continue
		}
		if unsortedOnly && ep.InSeason() {
			continue
		}
		out = append(out, ep)
	}
	return catalog.SortAndLimitEpisodes(out, opts)
}

func (f *Fake) EpisodesByShowName(ctx context.Context, showNames []string, unsortedOnly bool, opts catalog.ListOptions) ([]catalog.Episode, error) {
	ids := make([]int, 0, len(showNames))
	for _, name := range showNames {
		id, err := catalog.ShowNameToID(f.ShowsData, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return f.EpisodesByShow(ctx, ids, unsortedOnly, opts)
}

func (f *Fake) AllEpisodes(_ context.Context, unsortedOnly bool, opts catalog.ListOptions) ([]catalog.Episode, error) {
	var out []catalog.Episode
	for _, ep := range f.EpisodesData {
		if unsortedOnly && ep.InSeason() {
			continue
		}
		out = append(out, ep)
	}
	return catalog.SortAndLimitEpisodes(out, opts)
}

func (f *Fake) EpisodesByBohne(_ context.Context, bohneIDs []int, num int, exclusive bool, opts catalog.ListOptions) ([]catalog.Episode, error) {
	queried := catalog.IDSet(bohneIDs)
	var out []catalog.Episode
	for _, ep := range f.EpisodesData {
		if catalog.HostsMatch(ep.Hosts, queried, num, exclusive) {
			out = append(out, ep)
		}
	}
	return catalog.SortAndLimitEpisodes(out, opts)
}

func (f *Fake) EpisodesByBohneName(ctx context.Context, bohneNames []string, num int, exclusive bool, opts catalog.ListOptions) ([]catalog.Episode, error) {
	ids := make([]int, 0, len(bohneNames))
	for _, name := range bohneNames {
		id, err := catalog.BohneNameToID(f.BohnenData, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return f.EpisodesByBohne(ctx, ids, num, exclusive, opts)
}

func (f *Fake) EpisodesByYoutubeToken(_ context.Context, tokens []string, opts catalog.ListOptions) ([]catalog.Episode, error) {
	var out []catalog.Episode
	for _, ep := range f.EpisodesData {
		for _, token := range ep.AllYoutubeTokens() {
			if slices.Contains(tokens, token) {
				out = append(out, ep)
				break
			}
		}
	}
	return catalog.SortAndLimitEpisodes(out, opts)
}

func (f *Fake) Shows(_ context.Context, showIDs []int) ([]catalog.Show, error) {
	set := catalog.IDSet(showIDs)
	var out []catalog.Show
	for _, show := range f.ShowsData {
		if _, ok := set[show.ID]; ok {
			out = append(out, show)
		}
	}
	return out, nil
}

func (f *Fake) ShowsByName(ctx context.Context, showNames []string) ([]catalog.Show, error) {
	ids := make([]int, 0, len(showNames))
	for _, name := range showNames {
		id, err := catalog.ShowNameToID(f.ShowsData, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return f.Shows(ctx, ids)
}

func (f *Fake) AllShows(_ context.Context, opts catalog.ListOptions) ([]catalog.Show, error) {
	return catalog.SortAndLimitShows(slices.Clone(f.ShowsData), opts)
}

func (f *Fake) Bohnen(_ context.Context, bohneIDs []int) ([]catalog.Bohne, error) {
	set := catalog.IDSet(bohneIDs)
	var out []catalog.Bohne
	for _, bohne := range f.BohnenData {
		if _, ok := set[bohne.ID]; ok {
			out = append(out, bohne)
		}
	}
	return out, nil
}

func (f *Fake) BohnenByName(ctx context.Context, bohneNames []string) ([]catalog.Bohne, error) {
	ids := make([]int, 0, len(bohneNames))
	for _, name := range bohneNames {
		id, err := catalog.BohneNameToID(f.BohnenData, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return f.Bohnen(ctx, ids)
}

func (f *Fake) AllBohnen(_ context.Context, opts catalog.ListOptions) ([]catalog.Bohne, error) {
	return catalog.SortAndLimitBohnen(slices.Clone(f.BohnenData), opts)
}

func (f *Fake) Posts(_ context.Context, blogIDs []int) ([]catalog.BlogPost, error) {
	set := catalog.IDSet(blogIDs)
	var out []catalog.BlogPost
	for _, post := range f.PostsData {
		if _, ok := set[post.ID]; ok {
			out = append(out, post)
		}
	}
	return out, nil
}

func (f *Fake) AllPosts(_ context.Context, opts catalog.ListOptions) ([]catalog.BlogPost, error) {
	return catalog.SortAndLimitPosts(slices.Clone(f.PostsData), opts)
}

func (f *Fake) Search(_ context.Context, text string) (catalog.SearchResult, error) {
	var result catalog.SearchResult
	for _, show := range f.ShowsData {
		if catalog.FoldContains(show.Title, text) || catalog.FoldContains(show.Description, text) {
			result.Shows = append(result.Shows, show)
		}
	}
	for _, ep := range f.EpisodesData {
		if catalog.FoldContains(ep.Title, text) || catalog.FoldContains(ep.Description, text) {
			result.Episodes = append(result.Episodes, ep)
		}
	}
	for _, post := range f.PostsData {
		if catalog.FoldContains(post.Title, text) || catalog.FoldContains(post.Subtitle, text) {
			result.Posts = append(result.Posts, post)
		}
	}
	return result, nil
}

func (f *Fake) Close() error { return nil }
