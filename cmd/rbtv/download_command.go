package main

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"rbtv/internal/downloader"
	"rbtv/internal/fetch"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var sel selection
	var blogIDs []int
	var allBlog bool

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download selected episodes or blog posts",
		Long: `Download the selected episodes through yt-dlp, recording every finished
part so an interrupted run resumes where it stopped. Blog selectors export
posts as JSON instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateDownloadSelection(&sel, blogIDs, allBlog); err != nil {
				return err
			}
			return runDownload(ctx, cmd, &sel, blogIDs, allBlog)
		},
	}

	sel.register(cmd)
	cmd.Flags().IntSliceVar(&blogIDs, "blog-id", nil, "Export the blog posts with the given ids")
	cmd.Flags().BoolVar(&allBlog, "all-blog", false, "Export every blog post")
	return cmd
}

func validateDownloadSelection(sel *selection, blogIDs []int, allBlog bool) error {
	if len(blogIDs) > 0 && allBlog {
		return errors.New("--blog-id and --all-blog are mutually exclusive")
	}
	if len(blogIDs) > 0 || allBlog {
		if sel.anySet() {
			return errors.New("blog selectors cannot be combined with episode selectors")
		}
		return nil
	}
	return sel.validate()
}

func runDownload(ctx *commandContext, cmd *cobra.Command, sel *selection, blogIDs []int, allBlog bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	logger = logger.With(
		slog.String("component", "downloader"),
		slog.String("run_id", uuid.NewString()))

	backend, err := ctx.openBackend()
	if err != nil {
		return err
	}
	defer backend.Close()

	ledger, err := ctx.openLedger()
	if err != nil {
		return err
	}
	defer ledger.Close()

	dl := downloader.New(backend, ledger, fetch.NewCLI(), logger, downloader.Config{
		BasePath:        cfg.Paths.BasePath,
		OutDirTemplate:  cfg.Download.OutDirTemplate,
		OutFileTemplate: cfg.Download.OutFileTemplate,
		Format:          cfg.Download.Format,
		MissingValue:    cfg.Download.MissingValue,
		Retries:         cfg.Download.Retries,
		CookieFile:      cfg.Download.CookieFile,
		RateLimitDelay:  cfg.RateLimitDelay(),
	})

	runCtx := cmd.Context()
	switch {
	case allBlog:
		return dl.DownloadAllBlogPosts(runCtx)
	case len(blogIDs) > 0:
		return dl.DownloadBlogPosts(runCtx, blogIDs)
	case len(sel.episodeIDs) > 0:
		return dl.DownloadEpisodes(runCtx, sel.episodeIDs)
	case len(sel.seasonIDs) > 0:
		return dl.DownloadSeasons(runCtx, sel.seasonIDs)
	case len(sel.showIDs) > 0:
		return dl.DownloadShows(runCtx, sel.showIDs, sel.unsortedOnly)
	case len(sel.showNames) > 0:
		return dl.DownloadShowsByName(runCtx, sel.showNames, sel.unsortedOnly)
	case sel.allShows:
		return dl.DownloadAllShows(runCtx, sel.unsortedOnly)
	case len(sel.bohneIDs) > 0:
		return dl.DownloadBohnen(runCtx, sel.bohneIDs, sel.bohneNum, sel.bohneExclusive)
	case len(sel.bohneNames) > 0:
		return dl.DownloadBohnenByName(runCtx, sel.bohneNames, sel.bohneNum, sel.bohneExclusive)
	}
	return errors.New("nothing selected")
}
