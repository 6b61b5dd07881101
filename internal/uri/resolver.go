package uri

import (
	"net/url"
	"strings"

	"github.com/raysh454/httpbrowser/internal/interfaces"
)

// Resolver turns navigation targets into absolute URLs.
type Resolver struct {
	Base string
}

// Resolve returns the absolute URL for target.
//
// Absolute targets are returned as given and protocol-relative targets take
// the base scheme. Site-root targets ("/x") are appended to the base URL,
// dropping a leading copy of the base path so a base of http://host/app and
// a target of /app/x do not become /app/app/x. Other relative targets are
// merged against the current history entry, or the base URL when the
// history is empty.
func (r Resolver) Resolve(target string, h interfaces.History) string {
	if isAbsolute(target) {
		return target
	}
	if strings.HasPrefix(target, "//") {
		return MergeURLs(r.Base, target)
	}

	if strings.HasPrefix(target, "/") {
		if basePath := r.basePath(); basePath != "" && hasPathPrefix(target, basePath) {
			target = target[len(basePath):]
		}
		return AppendPath(r.Base, target)
	}

	if h != nil && !h.IsEmpty() {
		if current, _ := h.Current(); current != "" {
			return MergeURLs(current, target)
		}
	}
	return MergeURLs(r.Base, target)
}

// isAbsolute reports whether target carries its own scheme and host. A
// "://" inside the query or fragment does not count.
func isAbsolute(target string) bool {
	u, err := url.Parse(target)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func (r Resolver) basePath() string {
	u, err := url.Parse(r.Base)
	if err != nil {
		return ""
	}
	p := strings.TrimRight(u.EscapedPath(), "/")
	return p
}

// hasPathPrefix reports whether target starts with prefix on a segment
// boundary.
func hasPathPrefix(target, prefix string) bool {
	if !strings.HasPrefix(target, prefix) {
		return false
	}
	if len(target) == len(prefix) {
		return true
	}
	switch target[len(prefix)] {
	case '/', '?', '#':
		return true
	}
	return false
}
