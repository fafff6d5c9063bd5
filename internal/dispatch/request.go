package dispatch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caronc/apprise-sub007/internal/format"
	"github.com/caronc/apprise-sub007/internal/invoke"
	"github.com/caronc/apprise-sub007/internal/target"
)

var (
	ErrNoTargets       = errors.New("dispatch: no targets registered")
	ErrEmptyMessage    = errors.New("dispatch: title and body are both empty")
	ErrInvalidEncoding = errors.New("dispatch: title or body is not valid UTF-8")
)

// Mode selects how selected targets are driven.
type Mode int

const (
	// ModeDefault defers to the engine's configured mode.
	ModeDefault Mode = iota
	Sequential
	Concurrent
)

func (m Mode) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case Concurrent:
		return "concurrent"
	default:
		return "default"
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return ModeDefault, nil
	case "sequential", "serial", "seq":
		return Sequential, nil
	case "concurrent", "parallel", "async":
		return Concurrent, nil
	default:
		return ModeDefault, fmt.Errorf("dispatch: unknown mode %q", s)
	}
}

// Request is one notification to fan out.
type Request struct {
	Title string
	Body  string
	Type  target.NotifyType
	// Format is the format Title and Body are written in.
	Format format.Format
	// Tags is a tag expression as accepted by tags.Match; nil selects every
	// target.
	Tags any
	Mode Mode
}

// Outcome is the tri-state result of a dispatch.
type Outcome int

const (
	Failed Outcome = iota
	Delivered
	NoMatch
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case NoMatch:
		return "no_match"
	default:
		return "failed"
	}
}

// Bool maps the outcome to true, false or nil (nothing matched).
func (o Outcome) Bool() *bool {
	var b bool
	switch o {
	case Delivered:
		b = true
	case NoMatch:
		return nil
	}
	return &b
}

// Report is the detailed result of one dispatch.
type Report struct {
	ID      string
	Outcome Outcome
	Mode    Mode
	// Err is set when the dispatch failed before any target was called.
	Err      error
	Selected int
	Results  []invoke.Result
	Elapsed  time.Duration
}

// Failures returns the results of targets that did not succeed.
func (r Report) Failures() []invoke.Result {
	var out []invoke.Result
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}
