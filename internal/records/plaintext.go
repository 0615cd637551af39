package records

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// allMarker is the part column value for a whole-episode record.
const allMarker = "all"

// Plaintext is an append-only ledger file with one record per line:
//
//	<episode_id> <part>
//	<episode_id> all
//
// The whole file is loaded on open and lines are appended and flushed per
// record, so a killed run loses at most the record being written.
type Plaintext struct {
	mu   sync.Mutex
	file *os.File
	w    *bufio.Writer

	episodes map[int]struct{}
	parts    map[[2]int]struct{}
}

var _ Ledger = (*Plaintext)(nil)

// OpenPlaintext opens or creates a ledger file at path.
func OpenPlaintext(path string) (*Plaintext, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open record file: %w", err)
	}

	p := &Plaintext{
		file:     file,
		w:        bufio.NewWriter(file),
		episodes: make(map[int]struct{}),
		parts:    make(map[[2]int]struct{}),
	}
	if err := p.load(); err != nil {
		file.Close()
		return nil, err
	}
	return p, nil
}

func (p *Plaintext) load() error {
	scanner := bufio.NewScanner(p.file)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return fmt.Errorf("record file line %d: malformed record %q", line, text)
		}
		episodeID, err := strconv.Atoi(fields[0])
		if err != nil {
			return fmt.Errorf("record file line %d: bad episode id %q", line, fields[0])
		}
		if fields[1] == allMarker {
			p.episodes[episodeID] = struct{}{}
			continue
		}
		part, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("record file line %d: bad part %q", line, fields[1])
		}
		p.parts[[2]int{episodeID, part}] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read record file: %w", err)
	}
	return nil
}

func (p *Plaintext) append(episodeID int, part string) error {
	if _, err := fmt.Fprintf(p.w, "%d %s\n", episodeID, part); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	if err := p.w.Flush(); err != nil {
		return fmt.Errorf("flush record: %w", err)
	}
	return nil
}

func (p *Plaintext) MarkEpisode(_ context.Context, episodeID int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.episodes[episodeID]; ok {
		return nil
	}
	if err := p.append(episodeID, allMarker); err != nil {
		return err
	}
	p.episodes[episodeID] = struct{}{}
	return nil
}

func (p *Plaintext) EpisodeDone(_ context.Context, episodeID int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.episodes[episodeID]
	return ok, nil
}

func (p *Plaintext) MarkPart(_ context.Context, part Part) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := [2]int{part.EpisodeID, part.EpisodePart}
	if _, ok := p.parts[key]; ok {
		return nil
	}
	if err := p.append(part.EpisodeID, strconv.Itoa(part.EpisodePart)); err != nil {
		return err
	}
	p.parts[key] = struct{}{}
	return nil
}

func (p *Plaintext) PartDone(_ context.Context, episodeID, episodePart int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.parts[[2]int{episodeID, episodePart}]
	return ok, nil
}

func (p *Plaintext) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.w.Flush(); err != nil {
		p.file.Close()
		return err
	}
	return p.file.Close()
}
