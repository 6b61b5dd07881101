package translator

import (
	"html"
	"strings"

	"github.com/raysh454/httpbrowser/internal/model"
)

// contentHeaders pass through without the HTTP_ prefix.
var contentHeaders = map[string]bool{
	"Content-Length": true,
	"Content-Md5":    true,
	"Content-Type":   true,
}

// CanonicalHeaderName turns a server-variable key into dash separated,
// capitalized form: HTTP_X_FORWARDED_FOR becomes Http-X-Forwarded-For.
func CanonicalHeaderName(key string) string {
	segments := strings.Split(strings.ToLower(strings.ReplaceAll(key, "_", "-")), "-")
	for i, s := range segments {
		if s == "" {
			continue
		}
		segments[i] = strings.ToUpper(s[:1]) + s[1:]
	}
	return html.UnescapeString(strings.Join(segments, "-"))
}

// ExtractHeaders decodes server variables into request headers. HTTP_*
// entries lose their prefix; content headers are kept as they are. Keys with
// nothing left after the prefix are dropped.
func ExtractHeaders(server *model.Headers) *model.Headers {
	out := model.NewHeaders()
	server.Each(func(key, value string) {
		name := CanonicalHeaderName(key)
		switch {
		case strings.HasPrefix(name, "Http-"):
			if n := name[len("Http-"):]; strings.Trim(n, "-") != "" {
				out.Set(n, value)
			}
		case contentHeaders[name]:
			out.Set(name, value)
		}
	})
	return out
}
