package sync

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestFileDestination(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "backup.jsonl")
	d := NewFileDestination(path)

	if d.Name() != "file://"+path {
		t.Errorf("Name() = %q", d.Name())
	}
	if _, err := d.Open(ctx); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist before first write, got %v", err)
	}

	for _, payload := range []string{"first\n", "second\n"} {
		if err := d.Write(ctx, []byte(payload)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	rc, err := d.Open(ctx)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "second\n" {
		t.Errorf("content = %q, want second write", got)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}
