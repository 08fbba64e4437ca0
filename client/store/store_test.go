package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()

	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Set("k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, err := s.Get("k")
	if err != nil || v != "v" {
		t.Fatalf("got (%q, %v), want (\"v\", nil)", v, err)
	}
	if err := s.Del("k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := s.Get("k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreQuota(t *testing.T) {
	s := NewMemoryStore()
	s.MaxBytes = 10

	if err := s.Set("a", "12345"); err != nil {
		t.Fatalf("set within budget: %v", err)
	}
	if err := s.Set("b", "123456789"); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	// The failed write must not have landed.
	if _, err := s.Get("b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("rejected write leaked into the store")
	}
	// Overwriting an existing key only counts the new value.
	if err := s.Set("a", "123456789"); err != nil {
		t.Fatalf("overwrite within budget: %v", err)
	}
}

func TestPebbleStorePersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	s, err := OpenPebbleStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Set("token", "abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set("role", "user"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Del("role"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenPebbleStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	v, err := reopened.Get("token")
	if err != nil || v != "abc" {
		t.Fatalf("got (%q, %v) after reopen, want (\"abc\", nil)", v, err)
	}
	if _, err := reopened.Get("role"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted key survived reopen")
	}
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set("token", "abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set("role", "user"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Del("role"); err != nil {
		t.Fatalf("del: %v", err)
	}

	reopened, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	v, err := reopened.Get("token")
	if err != nil || v != "abc" {
		t.Fatalf("got (%q, %v) after reopen, want (\"abc\", nil)", v, err)
	}
	if _, err := reopened.Get("role"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted key survived reopen")
	}
}
