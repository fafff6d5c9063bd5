package format

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
)

// markdownV2Special are the characters MarkdownV2 treats as markup.
const markdownV2Special = "_*[]()~`>#+=|{}.!-\\"

var md = goldmark.New()

// MarkdownToHTML renders markdown. Raw HTML in the input is not passed
// through. On a renderer error the input is returned escaped.
func MarkdownToHTML(s string) string {
	if s == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(s), &buf); err != nil {
		return TextToHTML(s, true)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// EscapeMarkdownV2 escapes every MarkdownV2 metacharacter that is not already
// escaped, so the text renders literally.
func EscapeMarkdownV2(s string) string {
	if s == "" {
		return ""
	}
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + len(s)/4)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if r == '\\' {
			if i+1 < len(rs) && strings.ContainsRune(markdownV2Special, rs[i+1]) {
				// Already an escape sequence; keep both runes as-is.
				b.WriteRune(r)
				b.WriteRune(rs[i+1])
				i++
				continue
			}
			b.WriteString(`\\`)
			continue
		}
		if strings.ContainsRune(markdownV2Special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
