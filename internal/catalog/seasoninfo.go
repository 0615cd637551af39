package catalog

import (
	"context"
	"log/slog"

	"rbtv/internal/sanitize"
)

// SeasonInfo is the derived season attribute set used for output path
// templating and episode display. Zero values mean the attribute is absent.
type SeasonInfo struct {
	ID     int
	Name   string
	Number int
}

// GetSeasonInfo derives the season attributes for an episode. Episodes
// without a season yield an empty set. A failed season lookup is logged and
// degrades to the raw season id instead of propagating the error.
func GetSeasonInfo(ctx context.Context, b Backend, logger *slog.Logger, ep Episode) SeasonInfo {
	if !ep.InSeason() {
		return SeasonInfo{}
	}
	season, err := b.Season(ctx, ep.ShowID, ep.SeasonID)
	if err != nil {
		logger.Warn("season not found",
			slog.Int("show_id", ep.ShowID),
			slog.Int("season_id", ep.SeasonID),
			slog.Int("episode_id", ep.ID),
			slog.Any("error", err))
		return SeasonInfo{ID: ep.SeasonID}
	}
	info := SeasonInfo{
		ID:   ep.SeasonID,
		Name: sanitize.Filename(NameOfSeason(season)),
	}
	if n, ok := season.Number(); ok {
		info.Number = n
	}
	return info
}
