package browser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/httpbrowser/internal/browser"
	"github.com/raysh454/httpbrowser/internal/model"
)

func visit(h *browser.History, uri string) {
	h.Add(model.NewRequest("GET", uri), &model.Response{URI: uri, Status: 200})
}

func TestHistory_Navigation(t *testing.T) {
	t.Parallel()
	h := browser.NewHistory()
	assert.True(t, h.IsEmpty())
	current, resp := h.Current()
	assert.Empty(t, current)
	assert.Nil(t, resp)

	visit(h, "http://localhost/one")
	visit(h, "http://localhost/two")
	current, _ = h.Current()
	assert.Equal(t, "http://localhost/two", current)

	e, err := h.Back()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/one", e.URI())
	_, err = h.Back()
	assert.ErrorIs(t, err, browser.ErrHistoryBoundary)

	e, err = h.Forward()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/two", e.URI())
	_, err = h.Forward()
	assert.ErrorIs(t, err, browser.ErrHistoryBoundary)
}

func TestHistory_AddAfterBackDropsForward(t *testing.T) {
	t.Parallel()
	h := browser.NewHistory()
	visit(h, "http://localhost/one")
	visit(h, "http://localhost/two")
	_, _ = h.Back()

	visit(h, "http://localhost/three")
	assert.Equal(t, 2, h.Len())
	_, err := h.Forward()
	assert.ErrorIs(t, err, browser.ErrHistoryBoundary)
}

func TestHistory_CloneAndClear(t *testing.T) {
	t.Parallel()
	h := browser.NewHistory()
	visit(h, "http://localhost/one")

	c := h.Clone()
	h.Clear()
	visit(h, "http://localhost/two")

	current, _ := c.Current()
	assert.Equal(t, "http://localhost/one", current)
	assert.Equal(t, 1, c.Len())
}

func TestEntry_URIFallsBackToRequest(t *testing.T) {
	t.Parallel()
	e := browser.Entry{Request: model.NewRequest("GET", "http://localhost/req")}
	assert.Equal(t, "http://localhost/req", e.URI())
}
