package interfaces

import (
	"context"

	"github.com/raysh454/httpbrowser/internal/model"
)

// Executor runs one browser request and returns the canonical response.
// HTTP error statuses are responses, not errors.
type Executor interface {
	Execute(ctx context.Context, req *model.Request, history History, cookies CookieStore) (*model.Response, error)
}
