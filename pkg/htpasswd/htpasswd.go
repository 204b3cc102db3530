// Package htpasswd implements the basic-auth credential store.
//
// Credentials live in a line-oriented htpasswd file with bcrypt hashes,
// the format produced by `htpasswd -B`. The store is read-only at request
// time; reloads swap the whole entry map atomically so concurrent password
// checks never observe a partially parsed file.
package htpasswd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/crypto/bcrypt"

	"github.com/mitodl/lmod-proxy/internal/logger"
)

// Store answers password-check queries against an htpasswd file.
type Store struct {
	path    string
	entries atomic.Pointer[map[string]string]
}

// New creates a store from the htpasswd file at path.
//
// A missing or unreadable file yields an empty store, not an error: the
// process must start so operators can fix the deployment, but every
// authentication attempt then fails closed. The misconfiguration is logged
// at ERROR level so it cannot go unnoticed.
//
// An empty path is treated the same way (no credentials configured).
func New(path string) *Store {
	s := &Store{path: path}

	empty := map[string]string{}
	s.entries.Store(&empty)

	if path == "" {
		logger.Error("no htpasswd file configured; all authentication will fail")
		return s
	}
	if err := s.Reload(); err != nil {
		logger.Error("failed to load htpasswd file; all authentication will fail",
			"path", path,
			"error", err,
		)
	}
	return s
}

// Reload re-reads the htpasswd file and atomically swaps the entry map.
// On error the previous entries remain in effect.
func (s *Store) Reload() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open htpasswd file: %w", err)
	}
	defer func() { _ = f.Close() }()

	entries, err := parse(f)
	if err != nil {
		return fmt.Errorf("failed to parse htpasswd file: %w", err)
	}

	s.entries.Store(&entries)
	logger.Debug("htpasswd file loaded", "path", s.path, "users", len(entries))
	return nil
}

// parse reads username:hash entries, one per line. Blank lines and lines
// starting with '#' are ignored; malformed lines are skipped with a warning.
func parse(r io.Reader) (map[string]string, error) {
	entries := make(map[string]string)

	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		username, hash, ok := strings.Cut(line, ":")
		if !ok || username == "" || hash == "" {
			logger.Warn("skipping malformed htpasswd line", "line", lineno)
			continue
		}
		entries[username] = hash
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// CheckPassword reports whether the username/password pair matches a stored
// entry. Username lookup is a case-sensitive exact match.
func (s *Store) CheckPassword(username, password string) bool {
	entries := *s.entries.Load()
	hash, ok := entries[username]
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Users returns the sorted usernames known to the store.
func (s *Store) Users() []string {
	entries := *s.entries.Load()
	users := make([]string, 0, len(entries))
	for username := range entries {
		users = append(users, username)
	}
	sort.Strings(users)
	return users
}

// Watch reloads the store whenever the htpasswd file changes on disk,
// until the context is cancelled.
//
// The parent directory is watched rather than the file itself because
// most tools (htpasswd, editors, configuration management) replace the
// file instead of writing it in place.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return fmt.Errorf("no htpasswd file configured")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	logger.Info("watching htpasswd file for changes", "path", s.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != s.path {
				continue
			}
			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename) {
				if err := s.Reload(); err != nil {
					logger.Error("htpasswd reload failed; keeping previous credentials",
						"path", s.path,
						"error", err,
					)
				} else {
					logger.Info("htpasswd file reloaded", "path", s.path)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("htpasswd watcher error", "error", err)
		}
	}
}
