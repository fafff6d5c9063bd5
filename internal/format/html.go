package format

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// blockTags start a new line in plain text output.
var blockTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"div": true, "p": true, "br": true, "li": true,
}

// HTMLToText strips tags and unescapes entities. Block elements become line
// boundaries; script and style contents are dropped.
func HTMLToText(s string) string {
	if s == "" {
		return ""
	}
	z := html.NewTokenizer(strings.NewReader(s))
	w := &textWriter{}
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or a malformed tail; either way we emit what we have.
			return w.finish()
		case html.TextToken:
			if skip == 0 {
				w.text(string(z.Text()))
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if (tag == "script" || tag == "style") && tt == html.StartTagToken {
				skip++
				continue
			}
			if tag == "br" {
				w.hardBreak()
			} else if blockTags[tag] {
				w.softBreak()
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				if skip > 0 {
					skip--
				}
				continue
			}
			if blockTags[tag] && tag != "br" {
				w.softBreak()
			}
		}
	}
}

// textWriter collapses HTML whitespace the way a renderer would.
type textWriter struct {
	b         strings.Builder
	lineStart bool
	pendingSp bool
}

func (w *textWriter) text(s string) {
	for _, r := range s {
		if unicode.IsSpace(r) {
			w.pendingSp = true
			continue
		}
		if w.pendingSp && w.b.Len() > 0 && !w.lineStart {
			w.b.WriteByte(' ')
		}
		w.pendingSp = false
		w.lineStart = false
		w.b.WriteRune(r)
	}
}

// softBreak ends the current line unless we are already at a line start.
func (w *textWriter) softBreak() {
	w.pendingSp = false
	if w.b.Len() == 0 || w.lineStart {
		return
	}
	w.b.WriteByte('\n')
	w.lineStart = true
}

// hardBreak always emits a newline (<br><br> yields a blank line).
func (w *textWriter) hardBreak() {
	w.pendingSp = false
	w.b.WriteByte('\n')
	w.lineStart = true
}

func (w *textWriter) finish() string {
	lines := strings.Split(w.b.String(), "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, ln := range lines {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, ln)
	}
	return strings.Trim(strings.Join(out, "\n"), "\n")
}

// TextToHTML escapes s for HTML bodies; newlines optionally become <br/>.
func TextToHTML(s string, newlineToBR bool) string {
	esc := html.EscapeString(s)
	if !newlineToBR {
		return esc
	}
	esc = strings.ReplaceAll(esc, "\r\n", "\n")
	return strings.ReplaceAll(esc, "\n", "<br/>")
}
