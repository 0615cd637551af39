package downloader

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"rbtv/internal/catalog"
)

const allBlogFile = "blog-posts.jl"

func singleBlogFile(blogID int) string {
	return fmt.Sprintf("blog-%d.json", blogID)
}

// DownloadBlogPosts writes one pretty-printed JSON file per post. Existing
// files are an error, prior output is never overwritten.
func (d *Downloader) DownloadBlogPosts(ctx context.Context, blogIDs []int) error {
	posts, err := d.backend.Posts(ctx, blogIDs)
	if err != nil {
		return err
	}
	for _, post := range posts {
		path := filepath.Join(d.cfg.BasePath, singleBlogFile(post.ID))
		if err := writeBlogPost(path, post); err != nil {
			return err
		}
		d.logger.Info("wrote blog post", slog.Int("blog_id", post.ID), slog.String("file", path))
	}
	return nil
}

// DownloadAllBlogPosts writes the whole blog as newline-delimited JSON to
// one file, failing if it already exists.
func (d *Downloader) DownloadAllBlogPosts(ctx context.Context) error {
	posts, err := d.backend.AllPosts(ctx, catalog.ListOptions{})
	if err != nil {
		return err
	}

	path := filepath.Join(d.cfg.BasePath, allBlogFile)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create blog export: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	for _, post := range posts {
		if err := enc.Encode(post); err != nil {
			return fmt.Errorf("write blog post %d: %w", post.ID, err)
		}
	}
	d.logger.Info("wrote blog export", slog.Int("posts", len(posts)), slog.String("file", path))
	return nil
}

func writeBlogPost(path string, post catalog.BlogPost) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create blog file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "\t")
	if err := enc.Encode(post); err != nil {
		return fmt.Errorf("write blog post %d: %w", post.ID, err)
	}
	return nil
}
