package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/wordbank/dictionary/config"
)

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "images")

	s, err := Open(ctx, config.StorageConfig{Backend: BackendLocal, LocalDir: dir})
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("expected root directory to exist: %v", err)
	}

	key := "words/abc/kuri.png"
	if err := s.Put(ctx, key, bytes.NewReader([]byte("woof")), 4, "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}

	rc, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil || string(data) != "woof" {
		t.Fatalf("unexpected object %q (%v)", data, err)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("second delete should succeed, got %v", err)
	}
	if _, err := s.Get(ctx, key); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestRejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, config.StorageConfig{Backend: BackendLocal, LocalDir: t.TempDir()})
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}

	for _, key := range []string{"", "../secret", "words/../../x", "/etc/passwd", `words\x`, "words//x"} {
		if err := s.Put(ctx, key, bytes.NewReader(nil), 0, ""); err == nil {
			t.Fatalf("expected %q to be rejected", key)
		}
		if _, err := s.Get(ctx, key); !errors.Is(err, ErrObjectNotFound) {
			t.Fatalf("expected %q to read as not found, got %v", key, err)
		}
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), config.StorageConfig{Backend: "ftp"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
