package records

import (
	"context"
	"sync"
)

// Memory is a ledger that forgets everything when the process exits.
// Useful for one-shot downloads where resumability does not matter.
type Memory struct {
	mu       sync.Mutex
	episodes map[int]struct{}
	parts    map[[2]int]struct{}
}

var _ Ledger = (*Memory)(nil)

// NewMemory returns an empty in-process ledger.
func NewMemory() *Memory {
	return &Memory{
		episodes: make(map[int]struct{}),
		parts:    make(map[[2]int]struct{}),
	}
}

func (m *Memory) MarkEpisode(_ context.Context, episodeID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.episodes[episodeID] = struct{}{}
	return nil
}

func (m *Memory) EpisodeDone(_ context.Context, episodeID int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.episodes[episodeID]
	return ok, nil
}

func (m *Memory) MarkPart(_ context.Context, part Part) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parts[[2]int{part.EpisodeID, part.EpisodePart}] = struct{}{}
	return nil
}

func (m *Memory) PartDone(_ context.Context, episodeID, episodePart int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.parts[[2]int{episodeID, episodePart}]
	return ok, nil
}

func (m *Memory) Close() error { return nil }
