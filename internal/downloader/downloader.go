// Package downloader is the bulk download engine: it pulls episode records
// from a catalog backend, fetches each downloadable part, classifies
// failures, and keeps the completion ledger current so interrupted runs
// resume where they stopped.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"rbtv/internal/catalog"
	"rbtv/internal/fetch"
	"rbtv/internal/records"
)

// Config holds the output and fetch settings of one download run.
type Config struct {
	BasePath        string
	OutDirTemplate  string
	OutFileTemplate string
	Format          string
	MissingValue    string
	Retries         int
	CookieFile      string
	RateLimitDelay  time.Duration
}

// Downloader drives sequential episode downloads against one backend,
// ledger, and fetcher.
type Downloader struct {
	backend catalog.Backend
	ledger  records.Ledger
	fetcher fetch.Fetcher
	logger  *slog.Logger
	cfg     Config

	// sleep is swapped in tests so the rate-limit pause does not block.
	sleep func(time.Duration)
}

// New constructs a downloader.
func New(backend catalog.Backend, ledger records.Ledger, fetcher fetch.Fetcher, logger *slog.Logger, cfg Config) *Downloader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Downloader{
		backend: backend,
		ledger:  ledger,
		fetcher: fetcher,
		logger:  logger,
		cfg:     cfg,
		sleep:   time.Sleep,
	}
}

// downloadEpisode fetches every outstanding part of one episode. It reports
// true when the episode was attempted and false when it was already fully
// complete. Only ledger failures, non-downloader fetch failures, and
// unrecognized downloader messages return an error; known failure shapes
// are logged and skipped.
func (d *Downloader) downloadEpisode(ctx context.Context, ep catalog.Episode) (bool, error) {
	done, err := d.ledger.EpisodeDone(ctx, ep.ID)
	if err != nil {
		return false, err
	}
	if done {
		d.logger.Info("episode already downloaded", slog.Int("episode_id", ep.ID))
		return false, nil
	}

	if ep.InSeason() {
		d.logger.Debug("downloading episode",
			slog.Int("show_id", ep.ShowID),
			slog.Int("season_id", ep.SeasonID),
			slog.Int("episode_id", ep.ID))
	} else {
		d.logger.Debug("downloading episode",
			slog.Int("show_id", ep.ShowID),
			slog.Int("episode_id", ep.ID))
	}

	tokens, other, ok := ep.DownloadTokens()
	if !ok {
		d.logger.Warn("no youtube tokens for episode", slog.Int("episode_id", ep.ID))
		return false, nil
	}
	if len(other) > 0 {
		d.logger.Warn("found non-youtube tokens for episode",
			slog.Int("episode_id", ep.ID),
			slog.Int("count", len(other)),
			slog.Any("tokens", other))
	}

	season := catalog.GetSeasonInfo(ctx, d.backend, d.logger, ep)
	vars := d.templateVars(season, ep)

	allDone := true
	for part, token := range tokens {
		partDone, err := d.ledger.PartDone(ctx, ep.ID, part)
		if err != nil {
			return true, err
		}
		if partDone {
			d.logger.Info("part already downloaded",
				slog.Int("episode_id", ep.ID),
				slog.Int("part", part))
			continue
		}
		if token == "" {
			// An empty token cannot be fetched but also never will be, so
			// it does not count against episode completion.
			d.logger.Warn("empty youtube token",
				slog.Int("episode_id", ep.ID),
				slog.Int("part", part))
			continue
		}

		url := catalog.YoutubeURL(token)
		vars["episode_part"] = strconv.Itoa(part)
		outputTemplate := filepath.Join(
			d.cfg.BasePath,
			expandTemplate(d.cfg.OutDirTemplate, vars),
			expandTemplate(d.cfg.OutFileTemplate, vars),
		)

		result, err := d.fetcher.Fetch(ctx, fetch.Request{
			URL:            url,
			OutputTemplate: outputTemplate,
			Format:         d.cfg.Format,
			Retries:        d.cfg.Retries,
			CookieFile:     d.cfg.CookieFile,
		})
		if err != nil {
			var dlErr *fetch.DownloadError
			if !errors.As(err, &dlErr) {
				return true, err
			}
			kind, detail := classify(dlErr.Message)
			if kind == failureUnknown {
				d.logger.Error("unrecognized downloader failure",
					slog.Int("episode_id", ep.ID),
					slog.String("url", url),
					slog.String("message", dlErr.Message))
				return true, fmt.Errorf("episode %d part %d: %w", ep.ID, part, err)
			}
			allDone = false
			d.logFailure(kind, detail, ep.ID, url, token)
			if kind == failureRateLimited {
				d.sleep(d.cfg.RateLimitDelay)
			}
			continue
		}

		d.logger.Info("downloaded part",
			slog.Int("episode_id", ep.ID),
			slog.Int("part", part),
			slog.String("token", token),
			slog.String("file", result.Filename))

		if err := d.ledger.MarkPart(ctx, records.Part{
			EpisodeID:   ep.ID,
			EpisodePart: part,
			Token:       token,
			LocalPath:   result.Filename,
			Info:        result.Info,
		}); err != nil {
			return true, err
		}
	}

	if allDone {
		if err := d.ledger.MarkEpisode(ctx, ep.ID); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (d *Downloader) logFailure(kind failureKind, detail string, episodeID int, url, token string) {
	attrs := []any{slog.Int("episode_id", episodeID), slog.String("url", url)}
	switch kind {
	case failureUnsupportedURL:
		d.logger.Error("download not supported", attrs...)
	case failureIncompleteID:
		d.logger.Error("youtube id looks incomplete",
			slog.Int("episode_id", episodeID), slog.String("token", token))
	case failureNoData:
		d.logger.Error("did not get any data blocks", attrs...)
	case failureExtract:
		d.logger.Error("unable to extract video data", attrs...)
	case failureDownloadData:
		d.logger.Error("unable to download video data", attrs...)
	case failureRetriesExceeded:
		d.logger.Error("max retries exceeded",
			append(attrs, slog.String("retries", detail))...)
	case failureGeoBlocked:
		d.logger.Error("video geo-blocked", attrs...)
	case failureRateLimited:
		d.logger.Error("too many requests, waiting",
			append(attrs,
				slog.String("message", detail),
				slog.Duration("delay", d.cfg.RateLimitDelay))...)
	case failureCopyright:
		d.logger.Error("video blocked on copyright grounds",
			append(attrs, slog.String("owner", detail))...)
	case failureCopyrightCountry:
		d.logger.Error("video blocked in this country on copyright grounds",
			append(attrs, slog.String("owner", detail))...)
	case failurePrivate:
		d.logger.Error("video is private", attrs...)
	}
}

func (d *Downloader) downloadAll(ctx context.Context, eps []catalog.Episode) error {
	for _, ep := range eps {
		if _, err := d.downloadEpisode(ctx, ep); err != nil {
			return err
		}
	}
	return nil
}

// DownloadEpisodes fetches the episodes with the given ids.
func (d *Downloader) DownloadEpisodes(ctx context.Context, episodeIDs []int) error {
	eps, err := d.backend.Episodes(ctx, episodeIDs)
	if err != nil {
		return err
	}
	return d.downloadAll(ctx, eps)
}

// DownloadSeasons fetches every episode of the given seasons.
func (d *Downloader) DownloadSeasons(ctx context.Context, seasonIDs []int) error {
	eps, err := d.backend.EpisodesBySeason(ctx, seasonIDs, catalog.ListOptions{})
	if err != nil {
		return err
	}
	return d.downloadAll(ctx, eps)
}

// DownloadShows fetches every episode of the given shows.
func (d *Downloader) DownloadShows(ctx context.Context, showIDs []int, unsortedOnly bool) error {
	eps, err := d.backend.EpisodesByShow(ctx, showIDs, unsortedOnly, catalog.ListOptions{})
	if err != nil {
		return err
	}
	return d.downloadAll(ctx, eps)
}

// DownloadShowsByName resolves show names and fetches their episodes.
func (d *Downloader) DownloadShowsByName(ctx context.Context, showNames []string, unsortedOnly bool) error {
	eps, err := d.backend.EpisodesByShowName(ctx, showNames, unsortedOnly, catalog.ListOptions{})
	if err != nil {
		return err
	}
	return d.downloadAll(ctx, eps)
}

// DownloadAllShows fetches the whole catalog.
func (d *Downloader) DownloadAllShows(ctx context.Context, unsortedOnly bool) error {
	eps, err := d.backend.AllEpisodes(ctx, unsortedOnly, catalog.ListOptions{})
	if err != nil {
		return err
	}
	return d.downloadAll(ctx, eps)
}

// DownloadBohnen fetches every episode matching the Bohne co-occurrence
// query.
func (d *Downloader) DownloadBohnen(ctx context.Context, bohneIDs []int, num int, exclusive bool) error {
	eps, err := d.backend.EpisodesByBohne(ctx, bohneIDs, num, exclusive, catalog.ListOptions{})
	if err != nil {
		return err
	}
	return d.downloadAll(ctx, eps)
}

// DownloadBohnenByName resolves Bohne names and fetches their episodes.
func (d *Downloader) DownloadBohnenByName(ctx context.Context, bohneNames []string, num int, exclusive bool) error {
	eps, err := d.backend.EpisodesByBohneName(ctx, bohneNames, num, exclusive, catalog.ListOptions{})
	if err != nil {
		return err
	}
	return d.downloadAll(ctx, eps)
}
