package format

import (
	"strings"
	"unicode"
)

// Apply fits an already converted (title, body) into lim.
//
// TRUNCATE returns a single chunk. SPLIT returns the fewest contiguous chunks
// for which len(title)+len(body) <= BodyMaxLen, preferring to cut after a
// newline, then after whitespace, but never at the cost of an extra chunk.
// UPSTREAM returns the input untouched.
func Apply(title, body string, lim Limits) ([]Chunk, error) {
	if lim.BodyMaxLen <= 0 {
		return nil, &ConversionError{BodyMaxLen: lim.BodyMaxLen, Reason: "body limit must be positive"}
	}
	if lim.Overflow == Upstream {
		return []Chunk{{Title: title, Body: body}}, nil
	}

	if lim.TitleMaxLen <= 0 {
		title, body = foldTitle(title, body)
	} else {
		title = truncRunes(title, lim.TitleMaxLen)
	}

	if lim.Overflow == Split {
		return split(title, body, lim), nil
	}
	return []Chunk{{Title: title, Body: truncRunes(body, lim.BodyMaxLen)}}, nil
}

func foldTitle(title, body string) (string, string) {
	if title == "" {
		return "", body
	}
	if body == "" {
		return "", title
	}
	return "", title + "\n" + body
}

// truncRunes cuts s to at most n runes.
func truncRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func split(title, body string, lim Limits) []Chunk {
	limit := lim.BodyMaxLen
	tr := []rune(title)
	// Leave at least one rune of body space on chunks that carry the title.
	if len(tr) >= limit {
		tr = tr[:limit-1]
		title = string(tr)
	}

	rs := []rune(body)
	if len(rs) == 0 {
		return []Chunk{{Title: title}}
	}

	roomAt := func(i int) int {
		if i == 0 || !lim.TitleFirstChunkOnly {
			return limit - len(tr)
		}
		return limit
	}

	var out []Chunk
	for start := 0; start < len(rs); {
		idx := len(out)
		room := roomAt(idx)
		t := title
		if idx > 0 && lim.TitleFirstChunkOnly {
			t = ""
		}

		rest := len(rs) - start
		if rest <= room {
			out = append(out, Chunk{Title: t, Body: string(rs[start:])})
			break
		}

		p, atNewline := bestCut(rs[start:start+room], rest, roomAt(idx+1))
		text := string(rs[start : start+p])
		if atNewline {
			text = strings.TrimRight(text, "\r\n")
		}
		out = append(out, Chunk{Title: t, Body: text})
		start += p
	}
	return out
}

// bestCut picks how many runes of window to emit. rest is everything left
// (window included) and next is the room of each later chunk. A cut is only
// taken early when the remainder still fits in as many chunks as a full cut
// would need.
func bestCut(window []rune, rest, next int) (int, bool) {
	room := len(window)
	need := ceilDiv(rest-room, next)
	lo := rest - need*next
	if lo < 1 {
		lo = 1
	}
	for p := room; p >= lo; p-- {
		if window[p-1] == '\n' {
			return p, true
		}
	}
	for p := room; p >= lo; p-- {
		if unicode.IsSpace(window[p-1]) {
			return p, false
		}
	}
	return room, false
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
