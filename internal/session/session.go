// Package session provides cookie-backed server-side sessions persisted
// in a BoltDB file, so logins survive a process restart.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// CookieName carries the session token.
const CookieName = "amparo_session"

var bucketSessions = []byte("sessions")

// record is the stored value for one session token.
type record struct {
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Store manages session tokens in a BoltDB file.
type Store struct {
	db     *bolt.DB
	ttl    time.Duration
	secure bool

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewStore opens (or creates) the session database at path. Sessions
// older than ttl are rejected and swept. secure marks the cookie
// Secure for HTTPS deployments.
func NewStore(path string, ttl time.Duration, secure bool) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create session bucket: %w", err)
	}
	return &Store{
		db:       db,
		ttl:      ttl,
		secure:   secure,
		stopChan: make(chan struct{}),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return s.db.Close()
}

// Create issues a new session token for the user.
func (s *Store) Create(userID int64) (string, error) {
	token := uuid.NewString()
	val, err := json.Marshal(record{UserID: userID, CreatedAt: time.Now()})
	if err != nil {
		return "", err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Put([]byte(token), val)
	})
	if err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Lookup resolves a token to a user ID. Expired or unknown tokens
// return ok=false.
func (s *Store) Lookup(token string) (int64, bool, error) {
	var rec record
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		val := tx.Bucket(bucketSessions).Get([]byte(token))
		if val == nil {
			return nil
		}
		found = true
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return 0, false, err
	}
	if !found {
		return 0, false, nil
	}
	if s.ttl > 0 && time.Since(rec.CreatedAt) > s.ttl {
		// Lazily drop the expired token.
		s.Delete(token)
		return 0, false, nil
	}
	return rec.UserID, true, nil
}

// Delete invalidates a token. Deleting an unknown token is not an error.
func (s *Store) Delete(token string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Delete([]byte(token))
	})
}

// Sweep removes every expired session and returns how many were dropped.
func (s *Store) Sweep() (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-s.ttl)
	deleted := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		c := b.Cursor()
		var stale [][]byte
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil || rec.CreatedAt.Before(cutoff) {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	return deleted, err
}

// StartSweeper runs Sweep on the given interval until Close.
func (s *Store) StartSweeper(interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := s.Sweep(); err != nil {
					log.Printf("Session sweep error: %v", err)
				} else if n > 0 {
					log.Printf("Session sweep: dropped %d expired sessions", n)
				}
			case <-s.stopChan:
				return
			}
		}
	}()
}

// --- Cookie helpers ---

// ErrNoSession is returned by FromRequest when no valid cookie is present.
var ErrNoSession = errors.New("no session")

// SetCookie attaches the session token to the response.
func (s *Store) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie on the client.
func (s *Store) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// FromRequest resolves the request's session cookie to a user ID.
func (s *Store) FromRequest(r *http.Request) (int64, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return 0, ErrNoSession
	}
	userID, ok, err := s.Lookup(cookie.Value)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNoSession
	}
	return userID, nil
}
