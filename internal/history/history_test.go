package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestFileLogAppendAndRead(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log := NewFileLog(path, zap.NewNop())

	for i := 0; i < 3; i++ {
		if err := log.Append(ctx, "answer", map[string]any{"n": i}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	events, err := log.Read(ctx, 10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for _, ev := range events {
		if ev.ID == "" {
			t.Error("event missing id")
		}
		if ev.Type != "answer" {
			t.Errorf("got type %q, want answer", ev.Type)
		}
	}
	if events[0].TS.After(events[2].TS) {
		t.Error("events should come back oldest first")
	}
}

func TestFileLogReadHonorsLimit(t *testing.T) {
	ctx := context.Background()
	log := NewFileLog(filepath.Join(t.TempDir(), "events.jsonl"), zap.NewNop())
	for i := 0; i < 5; i++ {
		if err := log.Append(ctx, "answer", map[string]int{"n": i}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	events, err := log.Read(ctx, 2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (most recent)", len(events))
	}
}

func TestFileLogSkipsMalformedLines(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log := NewFileLog(path, zap.NewNop())
	if err := log.Append(ctx, "answer", map[string]string{"k": "v"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.WriteString("not json\n"); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	f.Close()

	events, err := log.Read(ctx, 10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("got %d events, want 1 (garbage skipped)", len(events))
	}
}

func TestFileLogReadMissingFile(t *testing.T) {
	log := NewFileLog(filepath.Join(t.TempDir(), "missing.jsonl"), zap.NewNop())
	events, err := log.Read(context.Background(), 10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events, want 0", len(events))
	}
}
