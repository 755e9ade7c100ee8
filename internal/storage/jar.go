package storage

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"golang.org/x/net/publicsuffix"
)

// PersistentJar is an http.CookieJar that writes every cookie it accepts
// through to a Store and is seeded from it on construction.
type PersistentJar struct {
	jar         *cookiejar.Jar
	store       Store
	onSaveError func(error)
}

// NewJar builds a jar seeded with the unexpired cookies in store.
// onSaveError, when set, receives write-through failures; SetCookies cannot return them.
func NewJar(store Store, onSaveError func(error)) (*PersistentJar, error) {
	if store == nil {
		store = noopStore{}
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	stored, err := store.LoadCookies()
	if err != nil {
		return nil, fmt.Errorf("load cookies: %w", err)
	}
	for _, sc := range stored {
		u, err := url.Parse(sc.URL)
		if err != nil || sc.Cookie == nil {
			continue
		}
		jar.SetCookies(u, []*http.Cookie{sc.Cookie})
	}

	return &PersistentJar{jar: jar, store: store, onSaveError: onSaveError}, nil
}

// SetCookies implements http.CookieJar.
func (p *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	p.jar.SetCookies(u, cookies)
	if err := p.store.SaveCookies(u.String(), cookies); err != nil && p.onSaveError != nil {
		p.onSaveError(err)
	}
}

// Cookies implements http.CookieJar.
func (p *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	return p.jar.Cookies(u)
}
