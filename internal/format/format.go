// Package format converts a notification between body formats and fits it
// into a target's title/body length limits.
//
// Conversion is a small matrix over TEXT, HTML and MARKDOWN (identity when the
// formats match). Fitting follows the target's overflow policy: TRUNCATE keeps
// one chunk, SPLIT cuts the body into the fewest contiguous chunks that fit,
// UPSTREAM leaves the message alone and lets the remote service decide.
//
// Lengths are counted in runes, never bytes, so cuts never break a UTF-8
// sequence.
package format

import (
	"errors"
	"fmt"
	"strings"
)

// Format is a body markup format.
type Format int

const (
	Text Format = iota
	HTML
	Markdown
)

func (f Format) String() string {
	switch f {
	case HTML:
		return "html"
	case Markdown:
		return "markdown"
	default:
		return "text"
	}
}

// ParseFormat maps a config/CLI value to a Format. Empty means Text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt", "plain":
		return Text, nil
	case "html":
		return HTML, nil
	case "markdown", "md":
		return Markdown, nil
	default:
		return Text, fmt.Errorf("format: unknown format %q", s)
	}
}

// Overflow is the policy applied when a message exceeds a target's limits.
type Overflow int

const (
	Truncate Overflow = iota
	Split
	Upstream
)

func (o Overflow) String() string {
	switch o {
	case Split:
		return "split"
	case Upstream:
		return "upstream"
	default:
		return "truncate"
	}
}

// ParseOverflow maps a config value to an Overflow. Empty means Truncate.
func ParseOverflow(s string) (Overflow, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "truncate":
		return Truncate, nil
	case "split":
		return Split, nil
	case "upstream":
		return Upstream, nil
	default:
		return Truncate, fmt.Errorf("format: unknown overflow mode %q", s)
	}
}

// Chunk is one deliverable (title, body) pair.
type Chunk struct {
	Title string
	Body  string
}

// Limits describes what one target accepts.
//
// TitleMaxLen <= 0 means the target has no title field: the title is folded
// into the first line of the body instead of being dropped.
type Limits struct {
	TitleMaxLen int
	BodyMaxLen  int
	Overflow    Overflow
	// TitleFirstChunkOnly drops the title from every SPLIT chunk after the
	// first. By default each chunk repeats it.
	TitleFirstChunkOnly bool
}

// ErrInvalidLimits is the sentinel wrapped by every ConversionError.
var ErrInvalidLimits = errors.New("format: invalid target limits")

// ConversionError reports limits that make a message impossible to fit.
// It only ever fails the target that declared those limits.
type ConversionError struct {
	BodyMaxLen int
	Reason     string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("format: %s (body_max_len=%d)", e.Reason, e.BodyMaxLen)
}

func (e *ConversionError) Unwrap() error { return ErrInvalidLimits }
