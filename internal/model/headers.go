package model

import (
	"net/http"
	"strings"
)

// Headers is an ordered header map with case-insensitive keys. Setting an
// existing key replaces its value and keeps its original position.
type Headers struct {
	order  []string
	names  map[string]string
	values map[string]string
}

// NewHeaders returns an empty Headers.
func NewHeaders() *Headers {
	return &Headers{
		names:  make(map[string]string),
		values: make(map[string]string),
	}
}

// HeadersFromMap builds Headers from m. Map iteration order is not stable,
// so callers that care about order should use Set directly.
func HeadersFromMap(m map[string]string) *Headers {
	h := NewHeaders()
	for k, v := range m {
		h.Set(k, v)
	}
	return h
}

func (h *Headers) init() {
	if h.names == nil {
		h.names = make(map[string]string)
		h.values = make(map[string]string)
	}
}

// Set stores value under name, last write wins.
func (h *Headers) Set(name, value string) {
	h.init()
	key := strings.ToLower(name)
	if _, ok := h.values[key]; !ok {
		h.order = append(h.order, key)
	}
	h.names[key] = name
	h.values[key] = value
}

// Get returns the value for name and whether it exists.
func (h *Headers) Get(name string) (string, bool) {
	if h == nil || h.values == nil {
		return "", false
	}
	v, ok := h.values[strings.ToLower(name)]
	return v, ok
}

// Has reports whether name is present.
func (h *Headers) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Del removes name.
func (h *Headers) Del(name string) {
	if h == nil || h.values == nil {
		return
	}
	key := strings.ToLower(name)
	if _, ok := h.values[key]; !ok {
		return
	}
	delete(h.values, key)
	delete(h.names, key)
	for i, k := range h.order {
		if k == key {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Keys returns header names in insertion order, using the casing of the
// last write.
func (h *Headers) Keys() []string {
	if h == nil {
		return nil
	}
	out := make([]string, 0, len(h.order))
	for _, k := range h.order {
		out = append(out, h.names[k])
	}
	return out
}

// Len returns the number of headers.
func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	return len(h.order)
}

// Each calls fn for every header in order.
func (h *Headers) Each(fn func(name, value string)) {
	if h == nil {
		return
	}
	for _, k := range h.order {
		fn(h.names[k], h.values[k])
	}
}

// Clone returns a deep copy.
func (h *Headers) Clone() *Headers {
	c := NewHeaders()
	h.Each(c.Set)
	return c
}

// Merge copies every header of other into h, overwriting existing values.
func (h *Headers) Merge(other *Headers) {
	other.Each(h.Set)
}

// HTTPHeader converts to net/http form, one value per name. Names are kept
// as they were set.
func (h *Headers) HTTPHeader() http.Header {
	out := make(http.Header, h.Len())
	h.Each(func(name, value string) {
		out[name] = []string{value}
	})
	return out
}
