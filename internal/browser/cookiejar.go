package browser

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/raysh454/httpbrowser/internal/interfaces"
	"github.com/raysh454/httpbrowser/internal/model"
)

type cookieKey struct {
	name, domain, path string
}

func keyOf(c model.Cookie) cookieKey {
	return cookieKey{name: c.Name, domain: strings.TrimPrefix(strings.ToLower(c.Domain), "."), path: c.Path}
}

// CookieJar holds the cookies of a session. Cookies are unique by name,
// domain and path; a later Set replaces an earlier one.
type CookieJar struct {
	cookies map[cookieKey]model.Cookie
	order   []cookieKey
	now     func() time.Time
}

var _ interfaces.CookieStore = (*CookieJar)(nil)

// NewCookieJar returns an empty jar.
func NewCookieJar() *CookieJar {
	return &CookieJar{cookies: map[cookieKey]model.Cookie{}, now: time.Now}
}

// Set stores c, or removes the stored cookie when c is already expired.
func (j *CookieJar) Set(c model.Cookie) {
	k := keyOf(c)
	if c.Expired(j.now()) {
		j.remove(k)
		return
	}
	if _, ok := j.cookies[k]; !ok {
		j.order = append(j.order, k)
	}
	j.cookies[k] = c
}

// Get returns the cookie stored under name. Empty path and domain match any.
func (j *CookieJar) Get(name, path, domain string) (model.Cookie, bool) {
	domain = strings.TrimPrefix(strings.ToLower(domain), ".")
	now := j.now()
	for _, k := range j.order {
		c := j.cookies[k]
		if k.name != name || c.Expired(now) {
			continue
		}
		if (path == "" || k.path == path) && (domain == "" || k.domain == domain) {
			return c, true
		}
	}
	return model.Cookie{}, false
}

// All returns the unexpired cookies in insertion order.
func (j *CookieJar) All() []model.Cookie {
	now := j.now()
	out := make([]model.Cookie, 0, len(j.order))
	for _, k := range j.order {
		if c := j.cookies[k]; !c.Expired(now) {
			out = append(out, c)
		}
	}
	return out
}

// Expire removes every cookie matching name, path and domain. Empty path
// and domain match any.
func (j *CookieJar) Expire(name, path, domain string) {
	domain = strings.TrimPrefix(strings.ToLower(domain), ".")
	for _, k := range append([]cookieKey(nil), j.order...) {
		if k.name == name && (path == "" || k.path == path) && (domain == "" || k.domain == domain) {
			j.remove(k)
		}
	}
}

// Clear empties the jar.
func (j *CookieJar) Clear() {
	j.cookies = map[cookieKey]model.Cookie{}
	j.order = nil
}

// UpdateFromResponse stores the Set-Cookie headers of a response fetched
// from uri. Cookies without a Domain attribute are bound to the uri host,
// cookies without a Path get the default path of uri.
func (j *CookieJar) UpdateFromResponse(header http.Header, uri string) {
	lines := header.Values("Set-Cookie")
	if len(lines) == 0 {
		return
	}
	u, err := url.Parse(uri)
	if err != nil {
		return
	}
	now := j.now()
	for _, line := range lines {
		hc, err := http.ParseSetCookie(line)
		if err != nil {
			continue
		}
		c := model.CookieFromHTTP(hc, now)
		if c.Domain == "" {
			c.Domain = u.Hostname()
			c.HostOnly = true
		}
		if c.Path == "" || !strings.HasPrefix(c.Path, "/") {
			c.Path = defaultPath(u.Path)
		}
		j.Set(c)
	}
}

// Values returns name=value of the cookies that would be sent to uri.
func (j *CookieJar) Values(uri string) map[string]string {
	u, err := url.Parse(uri)
	if err != nil {
		return nil
	}
	host := strings.ToLower(u.Hostname())
	out := map[string]string{}
	for _, c := range j.All() {
		domain := strings.TrimPrefix(strings.ToLower(c.Domain), ".")
		switch {
		case c.Secure && u.Scheme != "https":
			continue
		case domain != "" && c.HostOnly && host != domain:
			continue
		case domain != "" && !c.HostOnly && host != domain && !strings.HasSuffix(host, "."+domain):
			continue
		case c.Path != "" && !pathMatch(u.Path, c.Path):
			continue
		}
		out[c.Name] = c.Value
	}
	return out
}

// Len returns the number of unexpired cookies.
func (j *CookieJar) Len() int { return len(j.All()) }

// Clone returns an independent copy.
func (j *CookieJar) Clone() *CookieJar {
	cp := &CookieJar{
		cookies: make(map[cookieKey]model.Cookie, len(j.cookies)),
		order:   append([]cookieKey(nil), j.order...),
		now:     j.now,
	}
	for k, c := range j.cookies {
		cp.cookies[k] = c
	}
	return cp
}

func (j *CookieJar) remove(k cookieKey) {
	if _, ok := j.cookies[k]; !ok {
		return
	}
	delete(j.cookies, k)
	for i, o := range j.order {
		if o == k {
			j.order = append(j.order[:i], j.order[i+1:]...)
			break
		}
	}
}

// defaultPath implements the RFC 6265 default-path of a request path.
func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

func pathMatch(reqPath, cookiePath string) bool {
	if reqPath == "" {
		reqPath = "/"
	}
	if reqPath == cookiePath {
		return true
	}
	if !strings.HasPrefix(reqPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || reqPath[len(cookiePath)] == '/'
}
