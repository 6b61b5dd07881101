package interfaces

import "github.com/raysh454/httpbrowser/internal/model"

// CookieStore is the session cookie jar read by the connector. The connector
// never writes to it.
type CookieStore interface {
	// All returns the stored cookies, unexpired ones only.
	All() []model.Cookie
}
