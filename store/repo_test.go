package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"narralign/b3"
	"narralign/segment"
)

func newTestRepo(t *testing.T) SQLiteRepo {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteRepo(db)
}

func TestNarrationRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	blob := []byte{0x49, 0x44, 0x33, 0x04, 0x00}

	if err := r.SaveNarration(ctx, "chapter1.mp3", blob); err != nil {
		t.Fatalf("save: %v", err)
	}
	name, hash, data, err := r.LoadNarration(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if name != "chapter1.mp3" {
		t.Fatalf("name = %q", name)
	}
	if len(data) != len(blob) {
		t.Fatalf("blob changed: %d bytes, want %d", len(data), len(blob))
	}
	want, err := b3.HashBytes(blob)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash != want {
		t.Fatalf("stored hash = %q, want %q", hash, want)
	}
}

func TestNarrationOverwrite(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	if err := r.SaveNarration(ctx, "old.mp3", []byte("old")); err != nil {
		t.Fatalf("save old: %v", err)
	}
	if err := r.SaveNarration(ctx, "new.mp3", []byte("new")); err != nil {
		t.Fatalf("save new: %v", err)
	}

	name, hash, data, err := r.LoadNarration(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if name != "new.mp3" || string(data) != "new" {
		t.Fatalf("fixed key must hold the latest blob, got %q %q", name, data)
	}
	want, err := b3.HashBytes([]byte("new"))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash != want {
		t.Fatalf("hash not refreshed on overwrite: %q, want %q", hash, want)
	}
}

func TestNarrationDelete(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	if err := r.SaveNarration(ctx, "a.mp3", []byte("a")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := r.DeleteNarration(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, _, err := r.LoadNarration(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestLoadNarrationEmpty(t *testing.T) {
	r := newTestRepo(t)
	if _, _, _, err := r.LoadNarration(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAlignmentRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	s := segment.Store{
		{Word: "hello", Start: 0.20, End: 0.88},
		{Word: "world", Start: 0.90, End: 1.40},
	}

	if err := r.SaveAlignment(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := r.LoadAlignment(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != len(s) {
		t.Fatalf("expected %d segments, got %d", len(s), len(got))
	}
	for i := range s {
		if got[i] != s[i] {
			t.Fatalf("segment %d = %+v, want %+v", i, got[i], s[i])
		}
	}
}

func TestSaveAlignmentReplacesPrior(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	first := segment.Store{
		{Word: "one", Start: 0.1, End: 0.5},
		{Word: "two", Start: 0.6, End: 1.0},
		{Word: "three", Start: 1.1, End: 1.5},
	}
	if err := r.SaveAlignment(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}

	second := segment.Store{{Word: "alone", Start: 0.2, End: 0.9}}
	if err := r.SaveAlignment(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	got, err := r.LoadAlignment(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].Word != "alone" {
		t.Fatalf("prior document must be replaced wholesale, got %+v", got)
	}
}

func TestLoadAlignmentEmpty(t *testing.T) {
	r := newTestRepo(t)
	if _, err := r.LoadAlignment(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
