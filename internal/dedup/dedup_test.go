package dedup

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/obeng-labs/newswire/internal/model"
)

func TestSimilarity(t *testing.T) {
	t.Run("identical titles score one", func(t *testing.T) {
		require.Equal(t, 1.0, Similarity("Mahama promises new roads", "Mahama promises new roads"))
	})

	t.Run("punctuation and case do not matter", func(t *testing.T) {
		require.Equal(t, 1.0, Similarity("Ghana's economy rebounds!", "ghanas economy rebounds"))
	})

	t.Run("symmetric", func(t *testing.T) {
		a := "Black Stars name squad for qualifier"
		b := "Black Stars arrive in Accra ahead of friendly"
		require.Equal(t, Similarity(a, b), Similarity(b, a))
	})

	t.Run("bounded", func(t *testing.T) {
		s := Similarity("Electricity tariffs go up by 18 percent", "Fuel prices drop at the pumps")
		require.GreaterOrEqual(t, s, 0.0)
		require.LessOrEqual(t, s, 1.0)
	})

	t.Run("unrelated titles score low", func(t *testing.T) {
		s := Similarity(
			"Black Stars name squad for World Cup qualifier",
			"Cedi gains against the dollar in early trading",
		)
		require.Less(t, s, 0.3)
	})

	t.Run("empty titles score zero", func(t *testing.T) {
		require.Equal(t, 0.0, Similarity("", ""))
		require.Equal(t, 0.0, Similarity("Mahama promises new roads", ""))
	})
}

func TestDedupeExact(t *testing.T) {
	items := []model.Item{
		{Title: "First story", Link: "https://example.com/a"},
		{Title: "Second story", Link: "https://example.com/b"},
		{Title: "First story updated", Link: "https://example.com/a", ImageURL: "https://example.com/a.jpg"},
	}

	got := Dedupe(items, false, 0.75)

	require.Len(t, got, 2)
	// re-listed duplicate keeps its first-seen position but wins on fields
	require.Equal(t, "https://example.com/a", got[0].Link)
	require.Equal(t, "First story updated", got[0].Title)
	require.Equal(t, "https://example.com/a.jpg", got[0].ImageURL)
	require.Equal(t, "https://example.com/b", got[1].Link)
}

func TestDedupeFuzzy(t *testing.T) {
	items := []model.Item{
		{Title: "Mahama promises new roads in Ashanti Region", Link: "https://a.example/1"},
		{Title: "Mahama promises new roads in Ashanti", Link: "https://b.example/1"},
		{Title: "Cedi gains against the dollar in early trading", Link: "https://c.example/1"},
	}

	t.Run("disabled keeps near duplicates", func(t *testing.T) {
		require.Len(t, Dedupe(items, false, 0.75), 3)
	})

	t.Run("enabled keeps first representative", func(t *testing.T) {
		got := Dedupe(items, true, 0.75)
		require.Len(t, got, 2)
		require.Equal(t, "https://a.example/1", got[0].Link)
		require.Equal(t, "https://c.example/1", got[1].Link)
	})

	t.Run("idempotent", func(t *testing.T) {
		once := Dedupe(items, true, 0.75)
		require.Equal(t, once, Dedupe(once, true, 0.75))
	})
}

func TestDedupeFuzzyReorderedHeadlines(t *testing.T) {
	// the same story from two outlets, clauses swapped
	items := []model.Item{
		{Title: "Mahama confirms Ghana to host 2025 African Games", Link: "https://a.example/games"},
		{Title: "Ghana to host 2025 African Games, Mahama confirms", Link: "https://b.example/games"},
	}

	got := Dedupe(items, true, 0.75)

	require.Len(t, got, 1)
	require.Equal(t, "https://a.example/games", got[0].Link)
}
