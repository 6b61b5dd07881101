package interfaces

import "github.com/raysh454/httpbrowser/internal/model"

// History is the navigation history consumed by the connector for relative
// URL resolution and self-refresh detection.
type History interface {
	// IsEmpty reports whether no request has been recorded yet.
	IsEmpty() bool

	// Current returns the URI and response of the last entry. It returns
	// ("", nil) when the history is empty.
	Current() (uri string, resp *model.Response)
}
