package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TokenStore persists a session across process runs. Token and expiry are
// always written and cleared together; a store never holds one without the
// other.
type TokenStore interface {
	// Load returns the stored session, or ok=false when none is stored.
	Load() (token string, expiry time.Time, ok bool, err error)
	// Save stores the session, replacing any previous one.
	Save(token string, expiry time.Time) error
	// Clear removes the stored session. Clearing an empty store is not an
	// error.
	Clear() error
}

// storedSession is the on-disk format. Expiry is milliseconds since epoch,
// matching what the browser form keeps in localStorage.
type storedSession struct {
	Token    string `json:"token"`
	ExpiryMS int64  `json:"expiry_ms"`
}

// FileStore keeps the session in a single JSON file, mode 0600.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore rooted at dir (created on first Save).
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, "session.json")}
}

func (f *FileStore) Load() (string, time.Time, bool, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", time.Time{}, false, nil
		}
		return "", time.Time{}, false, fmt.Errorf("read session: %w", err)
	}

	var s storedSession
	if err := json.Unmarshal(data, &s); err != nil || s.Token == "" || s.ExpiryMS == 0 {
		// A corrupt file is treated as no session; it gets overwritten on
		// the next Save.
		return "", time.Time{}, false, nil
	}
	return s.Token, time.UnixMilli(s.ExpiryMS), true, nil
}

func (f *FileStore) Save(token string, expiry time.Time) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.Marshal(storedSession{Token: token, ExpiryMS: expiry.UnixMilli()})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// MemoryStore is an in-process TokenStore, used by tests.
type MemoryStore struct {
	token  string
	expiry time.Time
	set    bool
}

func (m *MemoryStore) Load() (string, time.Time, bool, error) {
	if !m.set {
		return "", time.Time{}, false, nil
	}
	return m.token, m.expiry, true, nil
}

func (m *MemoryStore) Save(token string, expiry time.Time) error {
	m.token, m.expiry, m.set = token, expiry, true
	return nil
}

func (m *MemoryStore) Clear() error {
	m.token, m.expiry, m.set = "", time.Time{}, false
	return nil
}
