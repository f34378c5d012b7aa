// Package session holds the photographer's access/refresh credential pair.
// The Store keeps the current Session in memory behind a lock and persists
// it to a token file so credentials survive process restarts. It performs
// no network activity: the gateway reads it on every outgoing call, and it
// is written only by sign-in success, refresh success, and sign-out.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
)

// FilePerms restricts token files to owner-only read/write.
const FilePerms = 0o600

// DirPerms is used when creating the tokens directory.
const DirPerms = 0o700

// Session is the credential pair for the authenticated gateway.
// The invariant Authenticated() == (AccessToken != "") holds at all times;
// an absent RefreshToken means no automatic refresh is attempted.
type Session struct {
	AccessToken  string
	RefreshToken string
}

// Authenticated reports whether the session carries an access token.
func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}

// file is the on-disk token file format. Reusing oauth2.Token keeps the
// shape compatible with standard token tooling; Meta carries cached
// account details (e.g. the signed-in email) across restarts.
type file struct {
	Token *oauth2.Token     `json:"token"`
	Meta  map[string]string `json:"meta,omitempty"`
}

// Store owns the current Session. Safe for concurrent use: readers attach
// credentials to outgoing requests while a refresh may be replacing the
// pair, so every mutation swaps both tokens under the write lock and
// persists them together.
type Store struct {
	path string

	mu   sync.RWMutex
	sess Session
	meta map[string]string
}

// Open creates a Store backed by the token file at path, loading any
// persisted session. A missing file yields an empty, unauthenticated
// session rather than an error.
func Open(path string) (*Store, error) {
	st := &Store{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return st, nil
	}

	if err != nil {
		return nil, fmt.Errorf("session: reading %s: %w", path, err)
	}

	var tf file
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("session: decoding %s: %w", path, err)
	}

	if tf.Token != nil {
		st.sess = Session{
			AccessToken:  tf.Token.AccessToken,
			RefreshToken: tf.Token.RefreshToken,
		}
	}

	st.meta = tf.Meta

	return st, nil
}

// Current returns the session as of this instant. The returned value is a
// copy; it does not change when a concurrent refresh lands.
func (st *Store) Current() Session {
	st.mu.RLock()
	defer st.mu.RUnlock()

	return st.sess
}

// Meta returns the cached metadata value for key, or "".
func (st *Store) Meta(key string) string {
	st.mu.RLock()
	defer st.mu.RUnlock()

	return st.meta[key]
}

// SetMeta records a metadata key alongside the credentials and persists.
func (st *Store) SetMeta(key, value string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.meta == nil {
		st.meta = make(map[string]string)
	}

	st.meta[key] = value

	return st.persistLocked()
}

// Save replaces the credential pair and persists it. Both tokens are
// written together — a partial write must never leave a mismatched pair
// on disk, so the file is written to a temp file and renamed into place.
func (st *Store) Save(sess Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.sess = sess

	return st.persistLocked()
}

// Clear removes all credentials from memory and disk.
func (st *Store) Clear() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.sess = Session{}
	st.meta = nil

	err := os.Remove(st.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: removing %s: %w", st.path, err)
	}

	return nil
}

// persistLocked writes the current session atomically. Callers hold mu.
func (st *Store) persistLocked() error {
	tf := file{
		Token: &oauth2.Token{
			AccessToken:  st.sess.AccessToken,
			RefreshToken: st.sess.RefreshToken,
		},
		Meta: st.meta,
	}

	data, err := json.MarshalIndent(tf, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encoding: %w", err)
	}

	dir := filepath.Dir(st.path)
	if mkErr := os.MkdirAll(dir, DirPerms); mkErr != nil {
		return fmt.Errorf("session: creating directory %s: %w", dir, mkErr)
	}

	// Atomic write: temp file in the same directory, then rename.
	// Same directory guarantees same filesystem for rename(2).
	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("session: creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, FilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("session: setting permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("session: writing: %w", err)
	}

	// Flush to stable storage before rename so a crash between close and
	// rename cannot leave an empty or partial token file at the final path.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("session: syncing: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session: closing: %w", err)
	}

	if err := os.Rename(tmpPath, st.path); err != nil {
		return fmt.Errorf("session: renaming: %w", err)
	}

	success = true

	return nil
}
