// Package uri resolves navigation targets against the configured base URL
// and the navigation history.
package uri

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

// ErrMissingHost is returned when a URL has no scheme or host.
var ErrMissingHost = errors.New("url has no scheme or host")

// AppendPath appends path to base, dropping the base query and fragment.
// A path that is only a query or fragment is attached to the base path as is.
func AppendPath(base, path string) string {
	u, err := url.Parse(base)
	if err != nil {
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""
	cut := u.String()

	if path == "" || path[0] == '#' || path[0] == '?' {
		return cut + path
	}
	return strings.TrimRight(cut, "/") + "/" + strings.TrimLeft(path, "/")
}

// MergeURLs resolves ref against base following RFC 3986 section 5. Inputs
// that do not parse are returned unchanged so the transport reports them.
func MergeURLs(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if r.IsAbs() && r.Host != "" {
		return ref
	}
	return b.ResolveReference(r).String()
}

// WithoutFragment returns raw without its #fragment.
func WithoutFragment(raw string) string {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		return raw[:i]
	}
	return raw
}

// RetrieveHost returns scheme://host[:port] of raw. The host is lowercased
// and converted to its ASCII (punycode) form.
func RetrieveHost(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("retrieve host from %q: %w", raw, ErrMissingHost)
	}
	host := strings.ToLower(u.Hostname())
	if puny, err := idna.Lookup.ToASCII(host); err == nil {
		host = puny
	}
	if port := u.Port(); port != "" {
		host = net.JoinHostPort(host, port)
	}
	return strings.ToLower(u.Scheme) + "://" + host, nil
}

// Path returns the path, query and fragment of raw, "/" when empty.
func Path(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		p += "#" + u.EscapedFragment()
	}
	return p
}

var (
	currentSubdomain = regexp.MustCompile(`(https?://)(.*\.)(.*\.)`)
	schemeAndRest    = regexp.MustCompile(`(https?://)(.*)`)
)

// SwapSubdomain replaces the left-most subdomain of raw with subdomain, or
// adds one when raw is a bare domain.
func SwapSubdomain(raw, subdomain string) string {
	stripped := currentSubdomain.ReplaceAllString(raw, "${1}${3}")
	return schemeAndRest.ReplaceAllString(stripped, "${1}"+subdomain+".${2}")
}
