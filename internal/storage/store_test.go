package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/yungbote/coursecraft-backend/internal/logger"
)

func newLocal(t *testing.T) FileStore {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	store, err := NewLocalStore(log, t.TempDir())
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	return store
}

func TestLocalStoreRoundTrip(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	if err := store.Save(ctx, "school-a/bio9.txt", strings.NewReader("unit one")); err != nil {
		t.Fatalf("save: %v", err)
	}
	rc, err := store.Open(ctx, "school-a/bio9.txt")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "unit one" {
		t.Fatalf("unexpected content %q", data)
	}

	if err := store.Delete(ctx, "school-a/bio9.txt"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Open(ctx, "school-a/bio9.txt"); err == nil {
		t.Fatal("open after delete should fail")
	}
}

func TestLocalStoreDeleteMissingIsNoop(t *testing.T) {
	store := newLocal(t)
	if err := store.Delete(context.Background(), "never-saved.txt"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	if err := store.Save(ctx, "../outside.txt", strings.NewReader("x")); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
	if err := store.Save(ctx, "/abs.txt", strings.NewReader("x")); err == nil {
		t.Fatal("expected absolute key to be rejected")
	}
}
