// Package reorganize audits and repairs drift between the download ledger
// and the files actually on disk.
package reorganize

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/dustin/go-humanize"

	"rbtv/internal/catalog"
	"rbtv/internal/records"
)

// Tool runs the reconciliation operations. It needs the SQLite ledger
// because the other ledger implementations cannot be iterated or pruned.
type Tool struct {
	backend  catalog.Backend
	store    *records.Store
	basePath string
	logger   *slog.Logger
	out      io.Writer
}

// New constructs a reconciliation tool reporting to out.
func New(backend catalog.Backend, store *records.Store, basePath string, logger *slog.Logger, out io.Writer) *Tool {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Tool{
		backend:  backend,
		store:    store,
		basePath: basePath,
		logger:   logger,
		out:      out,
	}
}

func (t *Tool) printEpisodes(ctx context.Context, episodeIDs []int) error {
	eps, err := t.backend.Episodes(ctx, episodeIDs)
	if err != nil {
		return err
	}
	for _, ep := range eps {
		season := catalog.GetSeasonInfo(ctx, t.backend, t.logger, ep)
		fmt.Fprintln(t.out, catalog.FormatEpisodeShort(ep, season))
	}
	return nil
}

// ListIncompleteEpisodes reports episodes with part records but no
// whole-episode record, and episodes marked complete without any part.
func (t *Tool) ListIncompleteEpisodes(ctx context.Context) error {
	withParts, err := t.store.EpisodeIDsWithParts(ctx)
	if err != nil {
		return err
	}
	complete, err := t.store.CompleteEpisodeIDs(ctx)
	if err != nil {
		return err
	}

	partial := difference(withParts, complete)
	inconsistent := difference(complete, withParts)

	fmt.Fprintf(t.out, "Episodes with missing parts (%d)\n", len(partial))
	if err := t.printEpisodes(ctx, partial); err != nil {
		return err
	}
	fmt.Fprintf(t.out, "Completed episodes without a single part (%d)\n", len(inconsistent))
	return t.printEpisodes(ctx, inconsistent)
}

// ListFiles dumps every part record.
func (t *Tool) ListFiles(ctx context.Context) error {
	parts, err := t.store.Parts(ctx)
	if err != nil {
		return err
	}
	for _, part := range parts {
		fmt.Fprintf(t.out, "%d %d %s %s\n", part.EpisodeID, part.EpisodePart, part.Token, part.LocalPath)
	}
	return nil
}

// ForgetMissingFiles removes the records of parts whose file no longer
// exists, along with the whole-episode record of the affected episodes.
func (t *Tool) ForgetMissingFiles(ctx context.Context) error {
	parts, err := t.store.Parts(ctx)
	if err != nil {
		return err
	}

	var forget []records.Part
	byEpisode := make(map[int][]string)
	var order []int
	for _, part := range parts {
		if _, err := os.Stat(part.LocalPath); err == nil {
			continue
		}
		forget = append(forget, part)
		if _, ok := byEpisode[part.EpisodeID]; !ok {
			order = append(order, part.EpisodeID)
		}
		byEpisode[part.EpisodeID] = append(byEpisode[part.EpisodeID], part.LocalPath)
	}

	fmt.Fprintf(t.out, "Removing %d parts belonging to %d episodes\n", len(forget), len(byEpisode))
	eps, err := t.backend.Episodes(ctx, order)
	if err != nil {
		return err
	}
	for _, ep := range eps {
		season := catalog.GetSeasonInfo(ctx, t.backend, t.logger, ep)
		fmt.Fprintln(t.out, catalog.FormatEpisodeShort(ep, season))
		for _, path := range byEpisode[ep.ID] {
			fmt.Fprintln(t.out, "\t"+path)
		}
	}

	for _, part := range forget {
		if _, err := t.store.RemoveEpisode(ctx, part.EpisodeID); err != nil {
			return err
		}
		if _, err := t.store.RemovePart(ctx, part.EpisodeID, part.EpisodePart); err != nil {
			return err
		}
	}
	return nil
}

// untrackedFiles walks the output tree and returns every file no part
// record points at.
func (t *Tool) untrackedFiles(ctx context.Context) ([]string, error) {
	var untracked []string
	err := filepath.WalkDir(t.basePath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		part, err := t.store.PartByLocalPath(ctx, path)
		if err != nil {
			return err
		}
		if part == nil {
			untracked = append(untracked, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk output tree: %w", err)
	}
	return untracked, nil
}

// ListUntrackedFiles reports files in the output tree with no part record,
// with human-readable sizes.
func (t *Tool) ListUntrackedFiles(ctx context.Context) error {
	untracked, err := t.untrackedFiles(ctx)
	if err != nil {
		return err
	}
	for _, path := range untracked {
		size := ""
		if info, err := os.Stat(path); err == nil {
			size = humanize.Bytes(uint64(info.Size()))
		}
		fmt.Fprintf(t.out, "%s (%s)\n", path, size)
	}
	return nil
}

// TrackUntrackedFiles associates untracked files with episodes by the media
// token embedded in their filename. Ambiguous mappings and records that
// violate ledger constraints are logged and left for manual resolution.
func (t *Tool) TrackUntrackedFiles(ctx context.Context, tokenRegex string) error {
	tokenPattern, err := regexp.Compile(tokenRegex)
	if err != nil {
		return fmt.Errorf("compile token regex: %w", err)
	}

	untracked, err := t.untrackedFiles(ctx)
	if err != nil {
		return err
	}

	tokenToPaths := make(map[string][]string)
	var tokens []string
	for _, path := range untracked {
		m := tokenPattern.FindStringSubmatch(filepath.Base(path))
		if m == nil || len(m) < 2 {
			t.logger.Error("could not extract youtube token from file", slog.String("path", path))
			continue
		}
		token := m[1]
		if _, ok := tokenToPaths[token]; !ok {
			tokens = append(tokens, token)
		}
		tokenToPaths[token] = append(tokenToPaths[token], path)
	}
	if len(tokens) == 0 {
		return nil
	}

	eps, err := t.backend.EpisodesByYoutubeToken(ctx, tokens, catalog.ListOptions{})
	if err != nil {
		return err
	}

	tokenToEpisodes := make(map[string][]catalog.Episode)
	for _, ep := range eps {
		epTokens := ep.AllYoutubeTokens()
		if hasDuplicates(epTokens) {
			// Positional part indices are meaningless when a token repeats
			// inside one episode.
			t.logger.Error("episode has duplicate parts",
				slog.Int("episode_id", ep.ID),
				slog.Any("tokens", epTokens))
			season := catalog.GetSeasonInfo(ctx, t.backend, t.logger, ep)
			fmt.Fprintln(t.out, catalog.FormatEpisodeShort(ep, season))
			continue
		}
		for _, token := range epTokens {
			if _, ok := tokenToPaths[token]; ok {
				tokenToEpisodes[token] = append(tokenToEpisodes[token], ep)
			}
		}
	}

	for _, token := range tokens {
		paths := tokenToPaths[token]
		episodes, ok := tokenToEpisodes[token]
		if !ok {
			t.logger.Error("could not find youtube token", slog.String("token", token))
			continue
		}
		if len(paths) != 1 {
			t.logger.Warn("ambiguous token mapping, requires manual fix",
				slog.String("token", token),
				slog.Int("files", len(paths)),
				slog.Int("episodes", len(episodes)))
			for _, path := range paths {
				fmt.Fprintln(t.out, "\t"+path)
			}
			continue
		}

		path := paths[0]
		for _, ep := range episodes {
			part := slices.Index(ep.AllYoutubeTokens(), token)
			err := t.store.MarkPart(ctx, records.Part{
				EpisodeID:   ep.ID,
				EpisodePart: part,
				Token:       token,
				LocalPath:   path,
			})
			if err != nil {
				if records.IsConstraint(err) {
					t.logger.Warn("failed to insert part record",
						slog.Int("episode_id", ep.ID),
						slog.Int("part", part),
						slog.String("token", token),
						slog.String("path", path),
						slog.Any("error", err))
					continue
				}
				return err
			}
		}
	}
	return nil
}

func difference(a, b []int) []int {
	set := make(map[int]struct{}, len(b))
	for _, id := range b {
		set[id] = struct{}{}
	}
	var out []int
	for _, id := range a {
		if _, ok := set[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func hasDuplicates(tokens []string) bool {
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		if _, ok := seen[token]; ok {
			return true
		}
		seen[token] = struct{}{}
	}
	return false
}
