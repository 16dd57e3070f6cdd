package qna

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/stretchr/testify/require"
)

func TestShouldCountView(t *testing.T) {
	count, tok := ShouldCountView("7", "")
	require.True(t, count)
	require.Equal(t, "[7]", tok)

	count, tok = ShouldCountView("7", tok)
	require.False(t, count)
	require.Equal(t, "[7]", tok)

	count, tok = ShouldCountView("8", tok)
	require.True(t, count)
	require.Equal(t, "[7][8]", tok)

	// "[1]" must not match inside "[11]"
	count, tok = ShouldCountView("1", "[11]")
	require.True(t, count)
	require.Equal(t, "[11][1]", tok)
}

func TestViewTokenIsBounded(t *testing.T) {
	var ids []string
	tok := ""
	for i := 0; i < MaxViewTokenEntries+10; i++ {
		id := uuid.NewString()
		ids = append(ids, id)
		var count bool
		count, tok = ShouldCountView(id, tok)
		require.True(t, count)
	}
	require.Equal(t, MaxViewTokenEntries, strings.Count(tok, "["))
	require.Less(t, len(tok)+len(ViewCookieName), 4096)
	require.True(t, strings.HasSuffix(tok, "["+ids[len(ids)-1]+"]"))

	// the oldest entries made room for the newest
	count, _ := ShouldCountView(ids[0], tok)
	require.True(t, count)
	count, _ = ShouldCountView(ids[len(ids)-MaxViewTokenEntries], tok)
	require.False(t, count)
}

func TestSecondsUntilEndOfDay(t *testing.T) {
	loc := time.FixedZone("KST", 9*3600)
	require.Equal(t, 3600, SecondsUntilEndOfDay(time.Date(2024, 3, 1, 23, 0, 0, 0, loc)))
	require.Equal(t, 86400, SecondsUntilEndOfDay(time.Date(2024, 3, 1, 0, 0, 0, 0, loc)))
	require.Equal(t, 1, SecondsUntilEndOfDay(time.Date(2024, 3, 1, 23, 59, 59, 500, loc)))
	// month rollover
	require.Equal(t, 60, SecondsUntilEndOfDay(time.Date(2024, 2, 29, 23, 59, 0, 0, loc)))
}
