package storage

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Package storage persists the credentials (cookies) the API client sends.

// StoredCookie is a cookie together with the URL it was set from.
type StoredCookie struct {
	URL    string
	Cookie *http.Cookie
}

// Store keeps cookies across process restarts.
type Store interface {
	Close() error
	SaveCookies(rawURL string, cookies []*http.Cookie) error
	LoadCookies() ([]StoredCookie, error)
	Clear() error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	// SessionTTL bounds how long cookies without Expires/Max-Age are kept.
	SessionTTL      time.Duration
	CleanupInterval time.Duration
}

const (
	defaultSessionTTL      = 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                             { return nil }
func (noopStore) SaveCookies(string, []*http.Cookie) error { return nil }
func (noopStore) LoadCookies() ([]StoredCookie, error)     { return nil, nil }
func (noopStore) Clear() error                             { return nil }
