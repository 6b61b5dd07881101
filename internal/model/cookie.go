package model

import (
	"net/http"
	"time"
)

// Cookie is a browser cookie. An empty Domain means the cookie was set
// without a Domain attribute; HostOnly marks a domain that was filled in
// from the request host rather than set by the application.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  time.Time
	Secure   bool
	HTTPOnly bool
	HostOnly bool
}

// Expired reports whether the cookie has an expiry before now.
func (c Cookie) Expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

// HTTPCookie converts to net/http form.
func (c Cookie) HTTPCookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Expires:  c.Expires,
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
	}
}

// CookieFromHTTP converts a parsed Set-Cookie. Max-Age wins over Expires.
func CookieFromHTTP(hc *http.Cookie, now time.Time) Cookie {
	c := Cookie{
		Name:     hc.Name,
		Value:    hc.Value,
		Domain:   hc.Domain,
		Path:     hc.Path,
		Expires:  hc.Expires,
		Secure:   hc.Secure,
		HTTPOnly: hc.HttpOnly,
	}
	switch {
	case hc.MaxAge < 0:
		c.Expires = time.Unix(0, 0)
	case hc.MaxAge > 0:
		c.Expires = now.Add(time.Duration(hc.MaxAge) * time.Second)
	}
	return c
}
