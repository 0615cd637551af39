// Package records tracks which episodes and episode parts have been
// downloaded so interrupted bulk runs can resume without refetching.
package records

import (
	"context"
	"errors"
)

// ErrDuplicate indicates a record for the same key already exists.
var ErrDuplicate = errors.New("record already exists")

// Part describes one downloaded file of an episode. Episodes backed by
// several videos produce one part per video.
type Part struct {
	EpisodeID   int
	EpisodePart int
	Token       string
	LocalPath   string
	// Info is the downloader's raw metadata document for the file.
	Info []byte
}

// Ledger is the minimal contract bulk downloads need: mark work done and
// ask whether it already happened.
//
// MarkEpisode records that every part of an episode finished. MarkPart
// records a single finished file. The two levels are checked separately
// because a resumed run skips whole episodes first and then individual
// parts.
type Ledger interface {
	MarkEpisode(ctx context.Context, episodeID int) error
	EpisodeDone(ctx context.Context, episodeID int) (bool, error)
	MarkPart(ctx context.Context, part Part) error
	PartDone(ctx context.Context, episodeID, episodePart int) (bool, error)
	Close() error
}
