package downloader

import (
	"strconv"
	"strings"

	"rbtv/internal/catalog"
	"rbtv/internal/sanitize"
)

// templateFields are the names available to the output directory and
// filename templates. episode_part is only set while a part is processed.
var templateFields = []string{
	"show_id", "show_name",
	"season_id", "season_name", "season_number",
	"episode_id", "episode_name", "episode_number",
	"year", "month", "day", "hour", "minute", "second",
	"duration", "episode_part",
}

// expandTemplate substitutes {field} placeholders. Anything else in the
// template, including the downloader's own %(...)s placeholders, passes
// through untouched.
func expandTemplate(tpl string, vars map[string]string) string {
	for _, field := range templateFields {
		value, ok := vars[field]
		if !ok {
			continue
		}
		tpl = strings.ReplaceAll(tpl, "{"+field+"}", value)
	}
	return tpl
}

// templateVars derives the path template variables for one episode. Absent
// fields are replaced with the configured missing value.
func (d *Downloader) templateVars(season catalog.SeasonInfo, ep catalog.Episode) map[string]string {
	miss := d.cfg.MissingValue

	vars := map[string]string{
		"show_id":        strconv.Itoa(ep.ShowID),
		"show_name":      orMissing(sanitize.Filename(ep.ShowName), miss),
		"season_id":      miss,
		"season_name":    orMissing(season.Name, miss),
		"season_number":  miss,
		"episode_id":     strconv.Itoa(ep.ID),
		"episode_name":   orMissing(sanitize.Filename(ep.Title), miss),
		"episode_number": miss,
		"duration":       strconv.Itoa(ep.Duration),
	}
	if season.ID != 0 {
		vars["season_id"] = strconv.Itoa(season.ID)
	}
	if season.Number != 0 {
		vars["season_number"] = strconv.Itoa(season.Number)
	}
	if n, ok := ep.Number(); ok {
		vars["episode_number"] = strconv.Itoa(n)
	}

	if dt, ok := ep.BroadcastDate(); ok {
		vars["year"] = strconv.Itoa(dt.Year())
		vars["month"] = strconv.Itoa(int(dt.Month()))
		vars["day"] = strconv.Itoa(dt.Day())
		vars["hour"] = strconv.Itoa(dt.Hour())
		vars["minute"] = strconv.Itoa(dt.Minute())
		vars["second"] = strconv.Itoa(dt.Second())
	} else {
		for _, field := range []string{"year", "month", "day", "hour", "minute", "second"} {
			vars[field] = miss
		}
	}
	return vars
}

func orMissing(value, miss string) string {
	if value == "" {
		return miss
	}
	return value
}
