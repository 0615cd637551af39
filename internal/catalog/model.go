package catalog

import (
	"strconv"
	"time"
)

// Token is one entry of an episode's generalized token list. Only entries
// with type "youtube" are downloadable.
type Token struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// TokenTypeYoutube marks tokens the downloader can fetch.
const TokenTypeYoutube = "youtube"

// Episode is a single mediathek entry. A zero SeasonID means the episode is
// unsorted, i.e. not assigned to any season.
type Episode struct {
	ID                 int     `json:"id"`
	ShowID             int     `json:"showId"`
	ShowName           string  `json:"showName"`
	SeasonID           int     `json:"seasonId,omitempty"`
	Episode            string  `json:"episode,omitempty"`
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	FirstBroadcastdate string  `json:"firstBroadcastdate,omitempty"`
	Duration           int     `json:"duration"`
	Hosts              []int   `json:"hosts,omitempty"`
	// YoutubeTokens is the legacy flat token list. Newer records carry the
	// typed Tokens list instead; at most one of the two is present.
	YoutubeTokens []string `json:"youtubeTokens,omitempty"`
	Tokens        []Token  `json:"tokens,omitempty"`
}

// InSeason reports whether the episode is assigned to a season.
func (e Episode) InSeason() bool {
	return e.SeasonID != 0
}

// Number returns the episode ordinal within its season, if present.
func (e Episode) Number() (int, bool) {
	if e.Episode == "" {
		return 0, false
	}
	n, err := strconv.Atoi(e.Episode)
	if err != nil {
		return 0, false
	}
	return n, true
}

// BroadcastDate parses the first broadcast timestamp. Malformed or empty
// values report false rather than an error.
func (e Episode) BroadcastDate() (time.Time, bool) {
	if e.FirstBroadcastdate == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, e.FirstBroadcastdate); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DownloadTokens normalizes the two historical token encodings into one
// ordered list of downloadable tokens plus the non-youtube entries seen
// alongside. ok is false when the episode carries neither field.
func (e Episode) DownloadTokens() (tokens []string, other []Token, ok bool) {
	if e.YoutubeTokens != nil {
		return e.YoutubeTokens, nil, true
	}
	if e.Tokens == nil {
		return nil, nil, false
	}
	tokens = make([]string, 0, len(e.Tokens))
	for _, t := range e.Tokens {
		if t.Type == TokenTypeYoutube {
			tokens = append(tokens, t.Token)
		} else {
			other = append(other, t)
		}
	}
	return tokens, other, true
}

// AllYoutubeTokens returns the downloadable token list regardless of which
// encoding the episode uses, or nil when neither field is present.
func (e Episode) AllYoutubeTokens() []string {
	tokens, _, ok := e.DownloadTokens()
	if !ok {
		return nil
	}
	return tokens
}

// Season groups episodes within a show. Numeric is the season ordinal as
// reported upstream, which is a decimal string and may be empty.
type Season struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Numeric string `json:"numeric"`
}

// Number returns the season ordinal, if present.
func (s Season) Number() (int, bool) {
	if s.Numeric == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s.Numeric)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NameOfSeason derives a display name for a season, falling back to the
// ordinal or id when the upstream record has no name.
func NameOfSeason(s Season) string {
	if s.Name != "" {
		return s.Name
	}
	if s.Numeric != "" {
		return "Season " + s.Numeric
	}
	return "Season " + strconv.Itoa(s.ID)
}

// Show is a series of episodes, optionally organized into seasons.
type Show struct {
	ID                  int      `json:"id"`
	Title               string   `json:"title"`
	Genre               string   `json:"genre"`
	Description         string   `json:"description"`
	StatusPublicNote    string   `json:"statusPublicNote"`
	HasUnsortedEpisodes bool     `json:"hasUnsortedEpisodes"`
	IsTruePodcast       bool     `json:"isTruePodcast"`
	Seasons             []Season `json:"seasons"`
}

// Bohne is a recurring on-screen participant. Episodes reference Bohnen
// through their host id set.
type Bohne struct {
	ID           int    `json:"mgmtid"`
	Name         string `json:"name"`
	EpisodeCount int    `json:"episodeCount"`
}

// Author is a blog post byline entry.
type Author struct {
	Name string `json:"name"`
}

// BlogPost is a blog entry. The content fields are used only for search.
type BlogPost struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle"`
	PublishDate string   `json:"publishDate"`
	Authors     []Author `json:"authors,omitempty"`
	ContentMK   string   `json:"contentMK,omitempty"`
	ContentHTML string   `json:"contentHTML,omitempty"`
}

// PublishedAt parses the publish timestamp, reporting false when absent or
// malformed.
func (p BlogPost) PublishedAt() (time.Time, bool) {
	if p.PublishDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, p.PublishDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SearchResult bundles the three result lists of a full-text search.
type SearchResult struct {
	Shows    []Show
	Episodes []Episode
	Posts    []BlogPost
}

// YoutubeURL builds the watch URL for a download token.
func YoutubeURL(token string) string {
	return "https://www.youtube.com/watch?v=" + token
}
