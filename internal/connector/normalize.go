package connector

import (
	"html"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/raysh454/httpbrowser/internal/model"
	"github.com/raysh454/httpbrowser/internal/uri"
)

var (
	metaCharsetRe   = regexp.MustCompile(`(?i)<meta[^>]+charset *= *["']?([a-zA-Z\-0-9]+)`)
	metaRefreshRe   = regexp.MustCompile(`(?i)<meta[^>]+http-equiv="refresh" content="\s*(\d*)\s*;\s*url=(.*?)"`)
	headerRefreshRe = regexp.MustCompile(`(?i)^\s*(\d*)\s*;\s*url=(.*)`)
)

// Normalizer turns a raw HTTP answer into a canonical response: it fills in
// the charset and rewrites short refreshes into 302 redirects.
type Normalizer struct {
	RefreshMaxInterval int
	// Resolve makes a refresh target absolute.
	Resolve func(target string) string
}

// Normalize builds the canonical response for the exchange that fetched
// current. headers is not modified.
func (n Normalizer) Normalize(body []byte, status int, headers http.Header, current string) *model.Response {
	out := headers.Clone()
	if out == nil {
		out = http.Header{}
	}

	contentType := out.Get("Content-Type")
	if contentType == "" {
		contentType = "text/html"
	}
	if !strings.Contains(contentType, "charset=") {
		if m := metaCharsetRe.FindSubmatch(body); m != nil {
			contentType += ";charset=" + string(m[1])
		}
		out["Content-Type"] = []string{contentType}
	}

	if status < 300 || status >= 400 {
		if location, ok := n.refreshTarget(body, out, current); ok {
			status = http.StatusFound
			out.Set("Location", location)
		}
	}

	return &model.Response{
		URI:       current,
		Status:    status,
		Headers:   out,
		Body:      body,
		FetchedAt: time.Now(),
	}
}

func (n Normalizer) refreshTarget(body []byte, headers http.Header, current string) (string, bool) {
	var (
		interval, target string
		fromMeta         bool
	)
	if m := metaRefreshRe.FindSubmatch(body); m != nil {
		interval, target, fromMeta = string(m[1]), string(m[2]), true
	} else if m := headerRefreshRe.FindStringSubmatch(headers.Get("Refresh")); m != nil {
		interval, target = m[1], m[2]
	} else {
		return "", false
	}

	// "0" counts as no delay at all.
	if interval != "" && interval != "0" {
		secs, err := strconv.Atoi(interval)
		if err != nil || secs >= n.RefreshMaxInterval {
			return "", false
		}
	}

	resolved := target
	if n.Resolve != nil {
		resolved = n.Resolve(target)
	}
	if uri.WithoutFragment(resolved) == uri.WithoutFragment(current) {
		return "", false
	}
	if fromMeta {
		resolved = html.UnescapeString(resolved)
	}
	return resolved, true
}
