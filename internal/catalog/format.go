package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatEpisodeShort renders a one-line episode summary.
func FormatEpisodeShort(ep Episode, season SeasonInfo) string {
	seasonLabel := ""
	switch {
	case season.Name != "":
		seasonLabel = season.Name
	case season.Number != 0:
		seasonLabel = strconv.Itoa(season.Number)
	case season.ID != 0:
		seasonLabel = strconv.Itoa(season.ID)
	}
	date := ""
	if t, ok := ep.BroadcastDate(); ok {
		date = t.Format("2006-01-02 15:04")
	}
	return fmt.Sprintf("id=%d %s (show=%s season=%s ep=%s) (%s)",
		ep.ID, ep.Title, ep.ShowName, seasonLabel, ep.Episode, date)
}

// FormatEpisodeLong renders an episode with description and watch URLs,
// listing at most limit tokens (0 = all).
func FormatEpisodeLong(ep Episode, season SeasonInfo, limit int) string {
	var b strings.Builder
	b.WriteString(FormatEpisodeShort(ep, season))
	b.WriteByte('\n')
	b.WriteString(ep.Description)
	for i, token := range ep.AllYoutubeTokens() {
		if limit > 0 && i >= limit {
			break
		}
		b.WriteByte('\n')
		b.WriteString(YoutubeURL(token))
	}
	return b.String()
}

// FormatShowShort renders a one-line show summary.
func FormatShowShort(show Show) string {
	return fmt.Sprintf("id=%d %s (genre=%s seasons=%d '%s')",
		show.ID, show.Title, show.Genre, len(show.Seasons), show.StatusPublicNote)
}

// FormatShowLong renders a show with its season list, at most limit seasons
// (0 = all).
func FormatShowLong(show Show, limit int) string {
	var b strings.Builder
	b.WriteString(FormatShowShort(show))
	if show.HasUnsortedEpisodes {
		b.WriteString("\nThis show contains episodes which are not categorized into a season")
	}
	for i, season := range show.Seasons {
		if limit > 0 && i >= limit {
			break
		}
		fmt.Fprintf(&b, "\nid=%d #%s %s", season.ID, season.Numeric, season.Name)
	}
	if len(show.Seasons) == 0 {
		b.WriteString("\nThis show doesn't have any seasons")
	}
	return b.String()
}

// FormatBohneShort renders a one-line Bohne summary.
func FormatBohneShort(bohne Bohne) string {
	return fmt.Sprintf("id=%d %s (episodes=%d)", bohne.ID, bohne.Name, bohne.EpisodeCount)
}

// FormatPostShort renders a one-line blog post summary.
func FormatPostShort(post BlogPost) string {
	names := make([]string, 0, len(post.Authors))
	for _, a := range post.Authors {
		names = append(names, a.Name)
	}
	date := ""
	if t, ok := post.PublishedAt(); ok {
		date = t.Format("2006-01-02")
	}
	return fmt.Sprintf("id=%d %s by '%s' (%s)", post.ID, post.Title, strings.Join(names, ", "), date)
}

// FormatPostLong renders a blog post summary with its subtitle.
func FormatPostLong(post BlogPost) string {
	return FormatPostShort(post) + "\n" + post.Subtitle
}
