package main

import (
	"errors"

	"github.com/spf13/cobra"
)

// selection holds the episode selector flags shared by download and browse.
// Exactly one primary selector must be set per invocation.
type selection struct {
	episodeIDs []int
	seasonIDs  []int
	showIDs    []int
	showNames  []string
	allShows   bool

	bohneIDs       []int
	bohneNames     []string
	bohneNum       int
	bohneExclusive bool

	unsortedOnly bool
}

func (s *selection) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.IntSliceVar(&s.episodeIDs, "episode-id", nil, "Select episodes by id")
	flags.IntSliceVar(&s.seasonIDs, "season-id", nil, "Select every episode of the given seasons")
	flags.IntSliceVar(&s.showIDs, "show-id", nil, "Select every episode of the given shows")
	flags.StringSliceVar(&s.showNames, "show-name", nil, "Select every episode of the named shows")
	flags.BoolVar(&s.allShows, "all-shows", false, "Select every episode of every show")
	flags.IntSliceVar(&s.bohneIDs, "bohne-id", nil, "Select episodes hosted by the given Bohnen")
	flags.StringSliceVar(&s.bohneNames, "bohne-name", nil, "Select episodes hosted by the named Bohnen")
	flags.IntVar(&s.bohneNum, "bohne-num", 1, "Require at least this many of the selected Bohnen per episode")
	flags.BoolVar(&s.bohneExclusive, "bohne-exclusive", false, "Reject episodes with hosts outside the selected Bohnen")
	flags.BoolVar(&s.unsortedOnly, "unsorted-only", false, "Only episodes not assigned to a season")
}

func (s *selection) selectsShows() bool {
	return len(s.showIDs) > 0 || len(s.showNames) > 0 || s.allShows
}

func (s *selection) selectsBohnen() bool {
	return len(s.bohneIDs) > 0 || len(s.bohneNames) > 0
}

// anySet reports whether any selection flag differs from its default.
func (s *selection) anySet() bool {
	return len(s.episodeIDs) > 0 || len(s.seasonIDs) > 0 ||
		s.selectsShows() || s.selectsBohnen() ||
		s.bohneNum != 1 || s.bohneExclusive || s.unsortedOnly
}

// validate enforces mutual exclusivity of the primary selectors and the
// cross-flag constraints.
func (s *selection) validate() error {
	primary := 0
	for _, set := range []bool{
		len(s.episodeIDs) > 0,
		len(s.seasonIDs) > 0,
		len(s.showIDs) > 0,
		len(s.showNames) > 0,
		s.allShows,
		len(s.bohneIDs) > 0,
		len(s.bohneNames) > 0,
	} {
		if set {
			primary++
		}
	}
	if primary == 0 {
		return errors.New("select episodes with one of --episode-id, --season-id, --show-id, --show-name, --all-shows, --bohne-id or --bohne-name")
	}
	if primary > 1 {
		return errors.New("episode selectors are mutually exclusive")
	}

	if !s.selectsBohnen() {
		if s.bohneNum != 1 {
			return errors.New("--bohne-num requires --bohne-id or --bohne-name")
		}
		if s.bohneExclusive {
			return errors.New("--bohne-exclusive requires --bohne-id or --bohne-name")
		}
	}
	if s.bohneNum < 1 {
		return errors.New("--bohne-num must be at least 1")
	}
	if s.unsortedOnly && !s.selectsShows() {
		return errors.New("--unsorted-only requires a show selector")
	}
	return nil
}
