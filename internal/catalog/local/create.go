package local

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	bolt "go.etcd.io/bbolt"

	"rbtv/internal/rbtvapi"
)

// Create builds a fresh snapshot at path from the remote API. Existing
// collections are dropped and rebuilt one at a time, so an aborted run
// leaves at most one collection missing rather than half filled.
func Create(ctx context.Context, path string, client *rbtvapi.Client, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("open snapshot for writing: %w", err)
	}
	defer db.Close()

	logger.Info("dumping shows")
	shows, err := client.Shows(ctx)
	if err != nil {
		return fmt.Errorf("fetch shows: %w", err)
	}
	if err := rebuildBucket(db, bucketShows, func(put func(int, any) error) error {
		for _, show := range shows {
			if err := put(show.ID, show); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	logger.Info("dumping episodes", slog.Int("shows", len(shows)))
	if err := rebuildBucket(db, bucketEpisodes, func(put func(int, any) error) error {
		for _, show := range shows {
			if err := ctx.Err(); err != nil {
				return err
			}
			eps, err := client.EpisodesByShow(ctx, show.ID)
			if err != nil {
				// Some shows answer episode listings with a bad request.
				// The rest of the catalog is still worth having.
				if rbtvapi.IsStatus(err, http.StatusBadRequest) {
					logger.Warn("failed to get episodes for show",
						slog.Int("show_id", show.ID),
						slog.String("show_title", show.Title))
					continue
				}
				return fmt.Errorf("fetch episodes for show %d: %w", show.ID, err)
			}
			for _, ep := range eps {
				if err := put(ep.ID, ep); err != nil {
					return err
				}
			}
		}
		return nil
	}); err != nil {
		return err
	}

	logger.Info("dumping bohnen")
	bohnen, err := client.Bohnen(ctx)
	if err != nil {
		return fmt.Errorf("fetch bohnen: %w", err)
	}
	if err := rebuildBucket(db, bucketBohnen, func(put func(int, any) error) error {
		for _, bohne := range bohnen {
			if err := put(bohne.ID, bohne); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	logger.Info("dumping blog posts")
	posts, err := client.BlogPosts(ctx)
	if err != nil {
		return fmt.Errorf("fetch blog posts: %w", err)
	}
	if err := rebuildBucket(db, bucketBlog, func(put func(int, any) error) error {
		for _, post := range posts {
			if err := put(post.ID, post); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	return nil
}

// rebuildBucket drops and refills one collection inside a single write
// transaction.
func rebuildBucket(db *bolt.DB, bucket []byte, fill func(put func(int, any) error) error) error {
	return db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucket) != nil {
			if err := tx.DeleteBucket(bucket); err != nil {
				return fmt.Errorf("drop collection %q: %w", bucket, err)
			}
		}
		bkt, err := tx.CreateBucket(bucket)
		if err != nil {
			return fmt.Errorf("create collection %q: %w", bucket, err)
		}
		return fill(func(id int, doc any) error {
			raw, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("encode %q document %d: %w", bucket, id, err)
			}
			return bkt.Put(itob(id), raw)
		})
	})
}
