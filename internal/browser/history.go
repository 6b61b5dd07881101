package browser

import (
	"errors"

	"github.com/raysh454/httpbrowser/internal/interfaces"
	"github.com/raysh454/httpbrowser/internal/model"
)

// ErrHistoryBoundary is returned when moving past either end of the history.
var ErrHistoryBoundary = errors.New("no page in that direction")

// Entry is one visited page.
type Entry struct {
	Request  *model.Request
	Response *model.Response
}

// URI returns the absolute URI the entry was fetched from.
func (e Entry) URI() string {
	if e.Response != nil && e.Response.URI != "" {
		return e.Response.URI
	}
	if e.Request != nil {
		return e.Request.URI
	}
	return ""
}

// History is the navigation history of a session. Adding a page after
// moving back drops the forward entries.
type History struct {
	entries []Entry
	pos     int
}

var _ interfaces.History = (*History)(nil)

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{pos: -1}
}

// Add records a visited page and makes it current.
func (h *History) Add(req *model.Request, resp *model.Response) {
	h.entries = append(h.entries[:h.pos+1], Entry{Request: req, Response: resp})
	h.pos = len(h.entries) - 1
}

// IsEmpty reports whether nothing was visited yet.
func (h *History) IsEmpty() bool {
	return h.pos < 0
}

// Current returns the URI and response of the current page.
func (h *History) Current() (string, *model.Response) {
	e, ok := h.CurrentEntry()
	if !ok {
		return "", nil
	}
	return e.URI(), e.Response
}

// CurrentEntry returns the current page.
func (h *History) CurrentEntry() (Entry, bool) {
	if h.IsEmpty() {
		return Entry{}, false
	}
	return h.entries[h.pos], true
}

// Back moves to the previous page.
func (h *History) Back() (Entry, error) {
	if h.pos < 1 {
		return Entry{}, ErrHistoryBoundary
	}
	h.pos--
	return h.entries[h.pos], nil
}

// Forward moves to the next page.
func (h *History) Forward() (Entry, error) {
	if h.pos >= len(h.entries)-1 {
		return Entry{}, ErrHistoryBoundary
	}
	h.pos++
	return h.entries[h.pos], nil
}

// Len returns the number of recorded pages.
func (h *History) Len() int { return len(h.entries) }

// Clear forgets every page.
func (h *History) Clear() {
	h.entries = nil
	h.pos = -1
}

// Clone returns an independent copy. Requests and responses are treated as
// immutable and shared.
func (h *History) Clone() *History {
	return &History{entries: append([]Entry(nil), h.entries...), pos: h.pos}
}
