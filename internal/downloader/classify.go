package downloader

import "regexp"

// failureKind buckets the downloader's free-text error messages. Known
// kinds are logged and skipped; an unknown message aborts the run because
// it usually means the tool's error surface changed.
type failureKind int

const (
	failureUnknown failureKind = iota
	failureUnsupportedURL
	failureIncompleteID
	failureNoData
	failureExtract
	failureDownloadData
	failureRetriesExceeded
	failureGeoBlocked
	failureRateLimited
	failureCopyright
	failureCopyrightCountry
	failurePrivate
)

type failureRule struct {
	re   *regexp.Regexp
	kind failureKind
}

// failureRules are tried in order, first match wins. Patterns are anchored
// at the start of the message; the order matters because some messages are
// prefixes of others.
var failureRules = []failureRule{
	{regexp.MustCompile(`^ERROR: Unsupported URL`), failureUnsupportedURL},
	{regexp.MustCompile(`^ERROR: Incomplete YouTube ID`), failureIncompleteID},
	{regexp.MustCompile(`^ERROR: Did not get any data blocks`), failureNoData},
	{regexp.MustCompile(`^ERROR: [a-zA-Z0-9\-_]+: YouTube said: Unable to extract video data`), failureExtract},
	{regexp.MustCompile(`^ERROR: unable to download video data`), failureDownloadData},
	{regexp.MustCompile(`^ERROR: giving up after (?P<num>[0-9]+) retries`), failureRetriesExceeded},
	{regexp.MustCompile(`^ERROR: This video is not available in your country.`), failureGeoBlocked},
	{regexp.MustCompile(`^ERROR: Unable to download webpage: HTTP Error 429: Too Many Requests (?P<msg>.*)`), failureRateLimited},
	{regexp.MustCompile(`^ERROR: Video unavailable\nThis video contains content from (?P<owner>.*), who has blocked it on copyright grounds\.`), failureCopyright},
	{regexp.MustCompile(`^ERROR: Video unavailable\nThis video contains content from (?P<owner>.*), who has blocked it in your country on copyright grounds\.`), failureCopyrightCountry},
	{regexp.MustCompile(`^ERROR: Video unavailable\nThis video is private\.`), failurePrivate},
}

// classify matches a failure message against the known shapes. detail is
// the first named capture of the matching pattern (retry count, server
// message, or rights holder), empty when the pattern captures nothing.
func classify(message string) (failureKind, string) {
	for _, rule := range failureRules {
		m := rule.re.FindStringSubmatch(message)
		if m == nil {
			continue
		}
		detail := ""
		if len(m) > 1 {
			detail = m[1]
		}
		return rule.kind, detail
	}
	return failureUnknown, ""
}
