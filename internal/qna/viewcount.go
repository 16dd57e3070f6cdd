package qna

import (
	"strings"
	"time"
)

// ViewCookieName is the cookie that carries the view token between requests.
const ViewCookieName = "viewCookie"

// MaxViewTokenEntries bounds the view token so the cookie stays well under
// the 4 KB browsers accept. Past it the oldest entries are dropped, and a
// dropped question counts again on the next visit that day.
const MaxViewTokenEntries = 64

// ShouldCountView decides whether a viewer holding token should add a view
// to questionID. The token is the set of questions already counted for the
// viewer, encoded as "[id1][id2]...". It returns the token to hand back to
// the viewer, which is unchanged when the view is not counted.
func ShouldCountView(questionID, token string) (bool, string) {
	mark := "[" + questionID + "]"
	if token == "" {
		return true, mark
	}
	if strings.Contains(token, mark) {
		return false, token
	}
	for strings.Count(token, "[") >= MaxViewTokenEntries {
		end := strings.Index(token, "]")
		if end < 0 {
			token = ""
			break
		}
		token = token[end+1:]
	}
	return true, token + mark
}

// SecondsUntilEndOfDay is the lifetime to give a view token issued at now so
// that it expires at the next local midnight.
func SecondsUntilEndOfDay(now time.Time) int {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	secs := int(midnight.Sub(now) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
