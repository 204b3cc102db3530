package htpasswd

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func writeHtpasswd(t *testing.T, entries map[string]string) string {
	t.Helper()

	content := "# test credentials\n"
	for username, password := range entries {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("Failed to hash password: %v", err)
		}
		content += username + ":" + string(hash) + "\n"
	}

	path := filepath.Join(t.TempDir(), "htpasswd")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write htpasswd file: %v", err)
	}
	return path
}

func TestCheckPassword(t *testing.T) {
	store := New(writeHtpasswd(t, map[string]string{"foo": "bar"}))

	if !store.CheckPassword("foo", "bar") {
		t.Error("Expected correct credentials to verify")
	}
	if store.CheckPassword("foo", "wrong") {
		t.Error("Expected wrong password to fail")
	}
	if store.CheckPassword("notuser", "bar") {
		t.Error("Expected unknown user to fail")
	}
	if store.CheckPassword("Foo", "bar") {
		t.Error("Expected username lookup to be case-sensitive")
	}
}

func TestMissingFileYieldsEmptyStore(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "does-not-exist"))

	if len(store.Users()) != 0 {
		t.Errorf("Expected empty store, got users %v", store.Users())
	}
	if store.CheckPassword("anyone", "anything") {
		t.Error("Expected empty store to fail every check")
	}
}

func TestEmptyPathYieldsEmptyStore(t *testing.T) {
	store := New("")

	if store.CheckPassword("anyone", "anything") {
		t.Error("Expected unconfigured store to fail every check")
	}
}

func TestMalformedLinesSkipped(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("bar"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	content := "no-colon-here\n:\nfoo:" + string(hash) + "\n"

	path := filepath.Join(t.TempDir(), "htpasswd")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write htpasswd file: %v", err)
	}

	store := New(path)
	users := store.Users()
	if len(users) != 1 || users[0] != "foo" {
		t.Errorf("Expected only 'foo' to survive parsing, got %v", users)
	}
}

func TestReloadSwapsEntries(t *testing.T) {
	path := writeHtpasswd(t, map[string]string{"foo": "bar"})
	store := New(path)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	if err := os.WriteFile(path, []byte("alice:"+string(hash)+"\n"), 0600); err != nil {
		t.Fatalf("Failed to rewrite htpasswd file: %v", err)
	}

	if err := store.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	if store.CheckPassword("foo", "bar") {
		t.Error("Expected old user to be gone after reload")
	}
	if !store.CheckPassword("alice", "s3cret") {
		t.Error("Expected new user to verify after reload")
	}
}

func TestReloadKeepsEntriesOnError(t *testing.T) {
	path := writeHtpasswd(t, map[string]string{"foo": "bar"})
	store := New(path)

	if err := os.Remove(path); err != nil {
		t.Fatalf("Failed to remove htpasswd file: %v", err)
	}

	if err := store.Reload(); err == nil {
		t.Fatal("Expected reload of a removed file to fail")
	}
	if !store.CheckPassword("foo", "bar") {
		t.Error("Expected previous entries to survive a failed reload")
	}
}
