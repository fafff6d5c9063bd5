package target

import (
	"strconv"
	"sync/atomic"

	"github.com/caronc/apprise-sub007/internal/tags"
)

var instances atomic.Uint64

// Base implements the identity part of Target. Concrete targets embed it and
// add Notify or AsyncNotify.
type Base struct {
	url  string
	key  string
	tags tags.Set
	opts Options
}

// NewBase builds a Base. Zero limits and timeout in opts fall back to
// DefaultOptions; negative limits are kept as declared.
func NewBase(url string, tagList []string, opts Options) Base {
	def := DefaultOptions()
	if opts.TitleMaxLen == 0 {
		opts.TitleMaxLen = def.TitleMaxLen
	}
	if opts.BodyMaxLen == 0 {
		opts.BodyMaxLen = def.BodyMaxLen
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	key := url + "#" + strconv.FormatUint(instances.Add(1), 10)
	return Base{url: url, key: key, tags: tags.NewSet(tagList...), opts: opts}
}

func (b Base) URL() string      { return b.url }
func (b Base) Key() string      { return b.key }
func (b Base) Tags() tags.Set   { return b.tags }
func (b Base) Options() Options { return b.opts }
