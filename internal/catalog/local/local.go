// Package local implements the catalog query contract over a previously
// dumped bbolt snapshot of the remote catalog.
package local

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"

	bolt "go.etcd.io/bbolt"

	"rbtv/internal/catalog"
)

var (
	bucketShows    = []byte("shows")
	bucketEpisodes = []byte("episodes")
	bucketBohnen   = []byte("bohnen")
	bucketBlog     = []byte("blog")
)

const seasonCacheSize = 128

// Backend serves catalog queries from a read-only snapshot database.
type Backend struct {
	db *bolt.DB

	// Season attributes are immutable once snapshotted, so lookups are
	// cached per (show, season) pair with a bounded map.
	seasonCache map[[2]int]catalog.Season
}

var _ catalog.Backend = (*Backend)(nil)

// Open opens an existing snapshot read-only. A missing snapshot file is
// reported as a not-found error so the CLI can suggest running dump first.
func Open(path string) (*Backend, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("snapshot %s: %w", path, catalog.ErrNotFound)
		}
		return nil, fmt.Errorf("stat snapshot: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	return &Backend{db: db, seasonCache: make(map[[2]int]catalog.Season)}, nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}

func itob(id int) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], uint64(id))
	return key[:]
}

// forEachDoc walks every JSON document in a bucket. A missing bucket means
// the snapshot was never (fully) built.
func forEachDoc[T any](db *bolt.DB, bucket []byte, fn func(T) error) error {
	return db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucket)
		if bkt == nil {
			return fmt.Errorf("snapshot collection %q missing: %w", bucket, catalog.ErrNotFound)
		}
		return bkt.ForEach(func(_, v []byte) error {
			var doc T
			if err := json.Unmarshal(v, &doc); err != nil {
				return fmt.Errorf("decode %q document: %w", bucket, err)
			}
			return fn(doc)
		})
	})
}

func filterDocs[T any](db *bolt.DB, bucket []byte, match func(T) bool) ([]T, error) {
	var out []T
	err := forEachDoc(db, bucket, func(doc T) error {
		if match(doc) {
			out = append(out, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Backend) Episodes(_ context.Context, episodeIDs []int) ([]catalog.Episode, error) {
	set := catalog.IDSet(episodeIDs)
	return filterDocs(b.db, bucketEpisodes, func(ep catalog.Episode) bool {
		_, ok := set[ep.ID]
		return ok
	})
}

func (b *Backend) Season(_ context.Context, showID, seasonID int) (catalog.Season, error) {
	key := [2]int{showID, seasonID}
	if season, ok := b.seasonCache[key]; ok {
		return season, nil
	}

	var show catalog.Show
	found := false
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketShows)
		if bkt == nil {
			return fmt.Errorf("snapshot collection %q missing: %w", bucketShows, catalog.ErrNotFound)
		}
		v := bkt.Get(itob(showID))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &show)
	})
	if err != nil {
		return catalog.Season{}, err
	}
	if !found {
		return catalog.Season{}, fmt.Errorf("show %d: %w", showID, catalog.ErrNotFound)
	}
	for _, season := range show.Seasons {
		if season.ID == seasonID {
			if len(b.seasonCache) >= seasonCacheSize {
				clear(b.seasonCache)
			}
			b.seasonCache[key] = season
			return season, nil
		}
	}
	return catalog.Season{}, fmt.Errorf("season show=%d season=%d: %w", showID, seasonID, catalog.ErrNotFound)
}

func (b *Backend) EpisodesBySeason(_ context.Context, seasonIDs []int, opts catalog.ListOptions) ([]catalog.Episode, error) {
	set := catalog.IDSet(seasonIDs)
	eps, err := filterDocs(b.db, bucketEpisodes, func(ep catalog.Episode) bool {
		_, ok := set[ep.SeasonID]
		return ok
	})
	if err != nil {
		return nil, err
	}
	return catalog.SortAndLimitEpisodes(eps, opts)
}

func (b *Backend) EpisodesByShow(_ context.Context, showIDs []int, unsortedOnly bool, opts catalog.ListOptions) ([]catalog.Episode, error) {
	set := catalog.IDSet(showIDs)
	eps, err := filterDocs(b.db, bucketEpisodes, func(ep catalog.Episode) bool {
		if _, ok := set[ep.ShowID]; !ok {
			return false
		}
		return !unsortedOnly || !ep.InSeason()
	})
	if err != nil {
		return nil, err
	}
	return catalog.SortAndLimitEpisodes(eps, opts)
}

func (b *Backend) EpisodesByShowName(ctx context.Context, showNames []string, unsortedOnly bool, opts catalog.ListOptions) ([]catalog.Episode, error) {
	ids, err := b.resolveShowNames(showNames)
	if err != nil {
		return nil, err
	}
	return b.EpisodesByShow(ctx, ids, unsortedOnly, opts)
}

func (b *Backend) AllEpisodes(_ context.Context, unsortedOnly bool, opts catalog.ListOptions) ([]catalog.Episode, error) {
	eps, err := filterDocs(b.db, bucketEpisodes, func(ep catalog.Episode) bool {
		return !unsortedOnly || !ep.InSeason()
	})
	if err != nil {
		return nil, err
	}
	return catalog.SortAndLimitEpisodes(eps, opts)
}

func (b *Backend) EpisodesByBohne(_ context.Context, bohneIDs []int, num int, exclusive bool, opts catalog.ListOptions) ([]catalog.Episode, error) {
	queried := catalog.IDSet(bohneIDs)
	eps, err := filterDocs(b.db, bucketEpisodes, func(ep catalog.Episode) bool {
		return catalog.HostsMatch(ep.Hosts, queried, num, exclusive)
	})
	if err != nil {
		return nil, err
	}
	return catalog.SortAndLimitEpisodes(eps, opts)
}

func (b *Backend) EpisodesByBohneName(ctx context.Context, bohneNames []string, num int, exclusive bool, opts catalog.ListOptions) ([]catalog.Episode, error) {
	ids, err := b.resolveBohneNames(bohneNames)
	if err != nil {
		return nil, err
	}
	return b.EpisodesByBohne(ctx, ids, num, exclusive, opts)
}

func (b *Backend) EpisodesByYoutubeToken(_ context.Context, tokens []string, opts catalog.ListOptions) ([]catalog.Episode, error) {
	eps, err := filterDocs(b.db, bucketEpisodes, func(ep catalog.Episode) bool {
		for _, token := range ep.AllYoutubeTokens() {
			if slices.Contains(tokens, token) {
				return true
			}
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	return catalog.SortAndLimitEpisodes(eps, opts)
}

func (b *Backend) Shows(_ context.Context, showIDs []int) ([]catalog.Show, error) {
	set := catalog.IDSet(showIDs)
	return filterDocs(b.db, bucketShows, func(show catalog.Show) bool {
		_, ok := set[show.ID]
		return ok
	})
}

func (b *Backend) ShowsByName(ctx context.Context, showNames []string) ([]catalog.Show, error) {
	ids, err := b.resolveShowNames(showNames)
	if err != nil {
		return nil, err
	}
	return b.Shows(ctx, ids)
}

func (b *Backend) AllShows(_ context.Context, opts catalog.ListOptions) ([]catalog.Show, error) {
	shows, err := filterDocs(b.db, bucketShows, func(catalog.Show) bool { return true })
	if err != nil {
		return nil, err
	}
	return catalog.SortAndLimitShows(shows, opts)
}

func (b *Backend) Bohnen(_ context.Context, bohneIDs []int) ([]catalog.Bohne, error) {
	set := catalog.IDSet(bohneIDs)
	return filterDocs(b.db, bucketBohnen, func(bohne catalog.Bohne) bool {
		_, ok := set[bohne.ID]
		return ok
	})
}

func (b *Backend) BohnenByName(ctx context.Context, bohneNames []string) ([]catalog.Bohne, error) {
	ids, err := b.resolveBohneNames(bohneNames)
	if err != nil {
		return nil, err
	}
	return b.Bohnen(ctx, ids)
}

func (b *Backend) AllBohnen(_ context.Context, opts catalog.ListOptions) ([]catalog.Bohne, error) {
	bohnen, err := filterDocs(b.db, bucketBohnen, func(catalog.Bohne) bool { return true })
	if err != nil {
		return nil, err
	}
	return catalog.SortAndLimitBohnen(bohnen, opts)
}

func (b *Backend) Posts(_ context.Context, blogIDs []int) ([]catalog.BlogPost, error) {
	set := catalog.IDSet(blogIDs)
	return filterDocs(b.db, bucketBlog, func(post catalog.BlogPost) bool {
		_, ok := set[post.ID]
		return ok
	})
}

func (b *Backend) AllPosts(_ context.Context, opts catalog.ListOptions) ([]catalog.BlogPost, error) {
	posts, err := filterDocs(b.db, bucketBlog, func(catalog.BlogPost) bool { return true })
	if err != nil {
		return nil, err
	}
	return catalog.SortAndLimitPosts(posts, opts)
}

func (b *Backend) Search(_ context.Context, text string) (catalog.SearchResult, error) {
	var result catalog.SearchResult
	shows, err := filterDocs(b.db, bucketShows, func(show catalog.Show) bool {
		return catalog.FoldContains(show.Title, text) || catalog.FoldContains(show.Description, text)
	})
	if err != nil {
		return catalog.SearchResult{}, err
	}
	episodes, err := filterDocs(b.db, bucketEpisodes, func(ep catalog.Episode) bool {
		return catalog.FoldContains(ep.Title, text) || catalog.FoldContains(ep.Description, text)
	})
	if err != nil {
		return catalog.SearchResult{}, err
	}
	posts, err := filterDocs(b.db, bucketBlog, func(post catalog.BlogPost) bool {
		return catalog.FoldContains(post.Title, text) ||
			catalog.FoldContains(post.Subtitle, text) ||
			catalog.FoldContains(post.ContentMK, text) ||
			catalog.FoldContains(post.ContentHTML, text)
	})
	if err != nil {
		return catalog.SearchResult{}, err
	}
	result.Shows = shows
	result.Episodes = episodes
	result.Posts = posts
	return result, nil
}

func (b *Backend) resolveShowNames(names []string) ([]int, error) {
	shows, err := filterDocs(b.db, bucketShows, func(catalog.Show) bool { return true })
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(names))
	for _, name := range names {
		id, err := catalog.ShowNameToID(shows, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (b *Backend) resolveBohneNames(names []string) ([]int, error) {
	bohnen, err := filterDocs(b.db, bucketBohnen, func(catalog.Bohne) bool { return true })
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(names))
	for _, name := range names {
		id, err := catalog.BohneNameToID(bohnen, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
