package format

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func requireFits(t *testing.T, chunks []Chunk, lim Limits) {
	t.Helper()
	for i, c := range chunks {
		n := utf8.RuneCountInString(c.Title) + utf8.RuneCountInString(c.Body)
		require.LessOrEqualf(t, n, lim.BodyMaxLen, "chunk %d too long: %q/%q", i, c.Title, c.Body)
		if lim.TitleMaxLen > 0 {
			require.LessOrEqual(t, utf8.RuneCountInString(c.Title), lim.TitleMaxLen)
		}
	}
}

func joinBodies(chunks []Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Body)
	}
	return b.String()
}

func TestApplyTruncate(t *testing.T) {
	t.Parallel()
	lim := Limits{TitleMaxLen: 3, BodyMaxLen: 5}
	chunks, err := Apply("title", "0123456789", lim)
	require.NoError(t, err)
	require.Equal(t, []Chunk{{Title: "tit", Body: "01234"}}, chunks)

	chunks, err = Apply("hi", "short", lim)
	require.NoError(t, err)
	require.Equal(t, []Chunk{{Title: "hi", Body: "short"}}, chunks)
}

func TestApplyTruncateCountsRunes(t *testing.T) {
	t.Parallel()
	chunks, err := Apply("", "héllo wörld", Limits{TitleMaxLen: 10, BodyMaxLen: 7})
	require.NoError(t, err)
	require.Equal(t, "héllo w", chunks[0].Body)
	require.True(t, utf8.ValidString(chunks[0].Body))
}

func TestApplyFoldsTitleWithoutTitleField(t *testing.T) {
	t.Parallel()
	chunks, err := Apply("Alert", "disk full", Limits{TitleMaxLen: 0, BodyMaxLen: 100})
	require.NoError(t, err)
	require.Equal(t, []Chunk{{Body: "Alert\ndisk full"}}, chunks)
}

func TestApplySplitScenario(t *testing.T) {
	t.Parallel()
	lim := Limits{TitleMaxLen: 10, BodyMaxLen: 10, Overflow: Split}
	body := strings.Repeat("x", 25)
	chunks, err := Apply("", body, lim)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	requireFits(t, chunks, lim)
	require.Equal(t, body, joinBodies(chunks))
}

func TestApplySplitRepeatsTitle(t *testing.T) {
	t.Parallel()
	lim := Limits{TitleMaxLen: 10, BodyMaxLen: 10, Overflow: Split}
	chunks, err := Apply("T:", strings.Repeat("y", 20), lim)
	require.NoError(t, err)
	require.Len(t, chunks, 3) // 8 + 8 + 4
	requireFits(t, chunks, lim)
	for _, c := range chunks {
		require.Equal(t, "T:", c.Title)
	}
}

func TestApplySplitTitleFirstChunkOnly(t *testing.T) {
	t.Parallel()
	lim := Limits{TitleMaxLen: 10, BodyMaxLen: 10, Overflow: Split, TitleFirstChunkOnly: true}
	chunks, err := Apply("T:", strings.Repeat("y", 20), lim)
	require.NoError(t, err)
	require.Len(t, chunks, 3) // 8 + 10 + 2
	requireFits(t, chunks, lim)
	require.Equal(t, "T:", chunks[0].Title)
	require.Empty(t, chunks[1].Title)
	require.Empty(t, chunks[2].Title)
	require.Equal(t, strings.Repeat("y", 20), joinBodies(chunks))
}

func TestApplySplitPrefersLineBoundaries(t *testing.T) {
	t.Parallel()
	lim := Limits{TitleMaxLen: 5, BodyMaxLen: 12, Overflow: Split}
	body := "alpha\nbravo\ncharlie"
	chunks, err := Apply("", body, lim)
	require.NoError(t, err)
	requireFits(t, chunks, lim)
	require.Equal(t, []Chunk{{Body: "alpha\nbravo"}, {Body: "charlie"}}, chunks)
}

func TestApplySplitNeverAddsChunksForBoundaries(t *testing.T) {
	t.Parallel()
	// A newline early in the window would force a third chunk; the splitter
	// must fall back to a hard cut to keep the minimum of two.
	lim := Limits{TitleMaxLen: 5, BodyMaxLen: 10, Overflow: Split}
	body := "a\n" + strings.Repeat("z", 18)
	chunks, err := Apply("", body, lim)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	requireFits(t, chunks, lim)
	require.Equal(t, body, joinBodies(chunks))
}

func TestApplySplitHugeTitle(t *testing.T) {
	t.Parallel()
	lim := Limits{TitleMaxLen: 50, BodyMaxLen: 5, Overflow: Split}
	chunks, err := Apply("a very long title", "body", lim)
	require.NoError(t, err)
	requireFits(t, chunks, lim)
	require.Equal(t, "body", joinBodies(chunks))
	require.Equal(t, "a ve", chunks[0].Title)
}

func TestApplySplitEmptyBody(t *testing.T) {
	t.Parallel()
	chunks, err := Apply("only title", "", Limits{TitleMaxLen: 20, BodyMaxLen: 20, Overflow: Split})
	require.NoError(t, err)
	require.Equal(t, []Chunk{{Title: "only title"}}, chunks)
}

func TestApplySplitPropertyRandomish(t *testing.T) {
	t.Parallel()
	words := []string{"lorem", "ipsum\n", "dolor ", "sit", "amet,\n", "ünïcode", " ", "\n\n"}
	for n := 1; n <= 30; n++ {
		var b strings.Builder
		for i := 0; i < 40; i++ {
			b.WriteString(words[(i*7+n)%len(words)])
		}
		lim := Limits{TitleMaxLen: 4, BodyMaxLen: n, Overflow: Split}
		chunks, err := Apply("Tt", b.String(), lim)
		require.NoError(t, err)
		requireFits(t, chunks, lim)
		require.NotEmpty(t, chunks)
	}
}

func TestApplyUpstreamPassesThrough(t *testing.T) {
	t.Parallel()
	body := strings.Repeat("q", 100)
	chunks, err := Apply("title", body, Limits{TitleMaxLen: 1, BodyMaxLen: 10, Overflow: Upstream})
	require.NoError(t, err)
	require.Equal(t, []Chunk{{Title: "title", Body: body}}, chunks)
}
