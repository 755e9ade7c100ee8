package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const cookieBucket = "cookies"

// cookieRecord is the persisted form of a cookie.
type cookieRecord struct {
	URL       string        `json:"url"`
	Name      string        `json:"name"`
	Value     string        `json:"value"`
	Path      string        `json:"path,omitempty"`
	Domain    string        `json:"domain,omitempty"`
	Secure    bool          `json:"secure,omitempty"`
	HttpOnly  bool          `json:"http_only,omitempty"`
	SameSite  http.SameSite `json:"same_site,omitempty"`
	ExpiresAt int64         `json:"expires_at"`
}

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	sessionTTL      time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(cookieBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		sessionTTL:      opts.SessionTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// SaveCookies persists cookies set by rawURL. Cookies that are already
// expired, or carry a negative Max-Age, are removed instead.
func (b *boltStore) SaveCookies(rawURL string, cookies []*http.Cookie) error {
	if b == nil || b.db == nil || len(cookies) == 0 {
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse cookie url: %w", err)
	}
	origin := (&url.URL{Scheme: u.Scheme, Host: u.Host}).String()

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(cookieBucket))
		if bucket == nil {
			return fmt.Errorf("cookie bucket missing")
		}
		for _, c := range cookies {
			if c == nil || c.Name == "" {
				continue
			}
			key := []byte(cookieKey(u, c))
			expiry, keep := b.expiryFor(c, now)
			if !keep {
				if err := bucket.Delete(key); err != nil {
					return err
				}
				continue
			}
			raw, err := json.Marshal(cookieRecord{
				URL:       origin,
				Name:      c.Name,
				Value:     c.Value,
				Path:      c.Path,
				Domain:    c.Domain,
				Secure:    c.Secure,
				HttpOnly:  c.HttpOnly,
				SameSite:  c.SameSite,
				ExpiresAt: expiry.Unix(),
			})
			if err != nil {
				return fmt.Errorf("encode cookie %s: %w", c.Name, err)
			}
			if err := bucket.Put(key, raw); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadCookies returns every unexpired cookie.
func (b *boltStore) LoadCookies() ([]StoredCookie, error) {
	if b == nil || b.db == nil {
		return nil, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return nil, err
	}

	var out []StoredCookie
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(cookieBucket))
		if bucket == nil {
			return fmt.Errorf("cookie bucket missing")
		}
		return bucket.ForEach(func(_, v []byte) error {
			rec, ok := decodeRecord(v)
			if !ok || !time.Unix(rec.ExpiresAt, 0).After(now) {
				return nil
			}
			out = append(out, StoredCookie{
				URL: rec.URL,
				Cookie: &http.Cookie{
					Name:     rec.Name,
					Value:    rec.Value,
					Path:     rec.Path,
					Domain:   rec.Domain,
					Secure:   rec.Secure,
					HttpOnly: rec.HttpOnly,
					SameSite: rec.SameSite,
					Expires:  time.Unix(rec.ExpiresAt, 0),
				},
			})
			return nil
		})
	})
	return out, err
}

// Clear removes every persisted cookie.
func (b *boltStore) Clear() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(cookieBucket)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket([]byte(cookieBucket))
		return err
	})
}

// expiryFor derives the persisted expiry of c. keep is false when the cookie
// asks to be deleted.
func (b *boltStore) expiryFor(c *http.Cookie, now time.Time) (expiry time.Time, keep bool) {
	switch {
	case c.MaxAge < 0:
		return time.Time{}, false
	case c.MaxAge > 0:
		return now.Add(time.Duration(c.MaxAge) * time.Second), true
	case !c.Expires.IsZero():
		return c.Expires, c.Expires.After(now)
	default:
		return now.Add(b.sessionTTL), true
	}
}

// maybeCleanupExpired removes expired cookies on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(cookieBucket))
		if bucket == nil {
			return fmt.Errorf("cookie bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			rec, ok := decodeRecord(v)
			if !ok || !time.Unix(rec.ExpiresAt, 0).After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// cookieKey identifies a cookie the way a jar does: by domain, path and name.
func cookieKey(u *url.URL, c *http.Cookie) string {
	domain := strings.ToLower(strings.TrimPrefix(c.Domain, "."))
	if domain == "" {
		domain = strings.ToLower(u.Hostname())
	}
	path := c.Path
	if path == "" {
		path = "/"
	}
	return domain + "\x00" + path + "\x00" + c.Name
}

// decodeRecord decodes a stored cookie record.
func decodeRecord(value []byte) (cookieRecord, bool) {
	var rec cookieRecord
	if err := json.Unmarshal(value, &rec); err != nil {
		return cookieRecord{}, false
	}
	if rec.Name == "" || rec.URL == "" || rec.ExpiresAt <= 0 {
		return cookieRecord{}, false
	}
	return rec, true
}
