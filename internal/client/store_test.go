package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStoreRoundTrip(t *testing.T) {
	fs := NewFileStore(t.TempDir())

	if _, _, ok, err := fs.Load(); err != nil || ok {
		t.Fatalf("Load on empty store = ok=%v, err=%v", ok, err)
	}

	expiry := time.Now().Add(8 * time.Hour).Truncate(time.Millisecond)
	if err := fs.Save("some-token", expiry); err != nil {
		t.Fatalf("Save: %v", err)
	}

	token, gotExpiry, ok, err := fs.Load()
	if err != nil || !ok {
		t.Fatalf("Load = ok=%v, err=%v", ok, err)
	}
	if token != "some-token" {
		t.Errorf("token = %q", token)
	}
	if !gotExpiry.Equal(expiry) {
		t.Errorf("expiry = %v, want %v", gotExpiry, expiry)
	}
}

func TestFileStoreClear(t *testing.T) {
	fs := NewFileStore(t.TempDir())

	// Clearing an empty store is fine.
	if err := fs.Clear(); err != nil {
		t.Fatalf("Clear on empty store: %v", err)
	}

	fs.Save("tok", time.Now().Add(time.Hour))
	if err := fs.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, _, ok, _ := fs.Load(); ok {
		t.Error("session survived Clear")
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStore(dir)

	os.WriteFile(filepath.Join(dir, "session.json"), []byte("{not json"), 0600)
	if _, _, ok, err := fs.Load(); err != nil || ok {
		t.Fatalf("Load on corrupt file = ok=%v, err=%v, want false, nil", ok, err)
	}
}

func TestFileStorePermissions(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStore(dir)
	fs.Save("tok", time.Now().Add(time.Hour))

	info, err := os.Stat(filepath.Join(dir, "session.json"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("session file mode = %o, want 0600", perm)
	}
}
