package translator

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/raysh454/httpbrowser/internal/interfaces"
	"github.com/raysh454/httpbrowser/internal/model"
	"golang.org/x/net/publicsuffix"
)

// Jar is the request-local cookie jar handed to the transport.
type Jar struct {
	cookies []model.Cookie
	now     func() time.Time
}

// ExtractCookies copies the session cookies into a request-local jar.
// Cookies set without a domain are scoped to host so the transport does not
// reject them; explicit domains are kept.
func ExtractCookies(store interfaces.CookieStore, host string) *Jar {
	j := &Jar{now: time.Now}
	if store == nil {
		return j
	}
	for _, c := range store.All() {
		if c.Domain == "" {
			c.Domain = host
			c.HostOnly = true
		}
		j.cookies = append(j.cookies, c)
	}
	return j
}

// All returns every cookie in the jar.
func (j *Jar) All() []model.Cookie {
	return append([]model.Cookie(nil), j.cookies...)
}

// Len returns the number of cookies.
func (j *Jar) Len() int {
	return len(j.cookies)
}

// Cookies returns the cookies to send to u, applying domain, path, secure
// and expiry matching.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	if len(j.cookies) == 0 {
		return nil
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil
	}

	now := j.now()
	for _, c := range j.cookies {
		if c.Expired(now) || c.Domain == "" {
			continue
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		scheme := "http"
		if c.Secure {
			scheme = "https"
		}
		origin := &url.URL{Scheme: scheme, Host: strings.TrimPrefix(c.Domain, "."), Path: path}

		hc := c.HTTPCookie()
		hc.Path = path
		if c.HostOnly {
			hc.Domain = ""
		}
		jar.SetCookies(origin, []*http.Cookie{hc})
	}
	return jar.Cookies(u)
}
