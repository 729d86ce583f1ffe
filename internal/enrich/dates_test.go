package enrich

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeTimezone(t *testing.T) {
	t.Run("appends GMT when no zone marker", func(t *testing.T) {
		require.Equal(t, "Wed, 14 Jan 2026 18:23:23 GMT", NormalizeTimezone("Wed, 14 Jan 2026 18:23:23"))
	})

	t.Run("idempotent", func(t *testing.T) {
		once := NormalizeTimezone("Wed, 14 Jan 2026 18:23:23")
		require.Equal(t, once, NormalizeTimezone(once))
	})

	for _, tagged := range []string{
		"2026-01-14T18:23:23Z",
		"2026-01-14T18:23:23+01:00",
		"Wed, 14 Jan 2026 18:23:23 GMT",
		"Wed, 14 Jan 2026 18:23:23 UTC",
		"Wed, 14 Jan 2026 18:23:23 +0000",
	} {
		t.Run("untouched: "+tagged, func(t *testing.T) {
			require.Equal(t, tagged, NormalizeTimezone(tagged))
		})
	}
}

func TestParseDate(t *testing.T) {
	t.Run("zoneless equals explicit GMT", func(t *testing.T) {
		bare, ok := ParseDate("Wed, 14 Jan 2026 18:23:23")
		require.True(t, ok)
		tagged, ok := ParseDate("Wed, 14 Jan 2026 18:23:23 GMT")
		require.True(t, ok)
		require.True(t, bare.Equal(tagged))
	})

	t.Run("rfc3339", func(t *testing.T) {
		got, ok := ParseDate("2026-01-14T18:23:23Z")
		require.True(t, ok)
		require.Equal(t, time.Date(2026, time.January, 14, 18, 23, 23, 0, time.UTC), got)
	})

	t.Run("numeric offset converts to UTC", func(t *testing.T) {
		got, ok := ParseDate("2026-01-14T18:23:23+02:00")
		require.True(t, ok)
		require.Equal(t, time.Date(2026, time.January, 14, 16, 23, 23, 0, time.UTC), got)
	})

	t.Run("human-readable page date", func(t *testing.T) {
		got, ok := ParseDate("14 Jan 2026")
		require.True(t, ok)
		require.Equal(t, 2026, got.Year())
		require.Equal(t, time.January, got.Month())
		require.Equal(t, 14, got.Day())
	})

	t.Run("empty and garbage fail", func(t *testing.T) {
		_, ok := ParseDate("")
		require.False(t, ok)
		_, ok = ParseDate("   ")
		require.False(t, ok)
		_, ok = ParseDate("not a date at all")
		require.False(t, ok)
	})
}
