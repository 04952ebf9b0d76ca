package audit

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	blobmem "fishynet/internal/infra/blob/memory"
	"fishynet/pkg/domain"
)

func TestArchiverFlushesOnStop(t *testing.T) {
	store := blobmem.New()
	archiver := NewArchiver(store)
	archiver.Start()

	for i := 0; i < 3; i++ {
		archiver.Emit(domain.Event{
			ID:     fmt.Sprintf("e%d", i),
			Kind:   domain.EventFishCaught,
			FishID: "WTUNA1",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := archiver.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := archiver.Err(); err != nil {
		t.Fatalf("flush error: %v", err)
	}
	if got := archiver.Archived(); got != 3 {
		t.Fatalf("archived = %d, want 3", got)
	}

	events, err := Replay(context.Background(), store, "")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("replayed %d events, want 3", len(events))
	}
	for i, event := range events {
		if event.ID != fmt.Sprintf("e%d", i) {
			t.Fatalf("event %d out of order: %+v", i, event)
		}
	}
}

func TestArchiverBatchSizeTriggersFlush(t *testing.T) {
	store := blobmem.New()
	archiver := NewArchiver(store, WithBatchSize(2), WithFlushInterval(time.Hour))
	archiver.Start()

	archiver.Emit(domain.Event{ID: "e0", Kind: domain.EventFishSold})
	archiver.Emit(domain.Event{ID: "e1", Kind: domain.EventFishSold})

	deadline := time.Now().Add(5 * time.Second)
	for archiver.Archived() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("batch never flushed, archived=%d", archiver.Archived())
		}
		time.Sleep(5 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := archiver.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	infos, err := store.List(context.Background(), "events/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected one batch object, got %d", len(infos))
	}
	if !strings.HasSuffix(infos[0].Key, ".jsonl") {
		t.Fatalf("unexpected batch key %s", infos[0].Key)
	}
	if infos[0].ContentType != "application/x-ndjson" {
		t.Fatalf("unexpected content type %s", infos[0].ContentType)
	}
}

func TestArchiverDropsWhenQueueFull(t *testing.T) {
	store := blobmem.New()
	// Not started: the queue fills and overflow is counted, never blocking.
	archiver := NewArchiver(store)
	for i := 0; i < defaultQueueSize+5; i++ {
		archiver.Emit(domain.Event{ID: fmt.Sprintf("e%d", i)})
	}
	if got := archiver.Dropped(); got != 5 {
		t.Fatalf("dropped = %d, want 5", got)
	}
}

func TestReplayEmptyArchive(t *testing.T) {
	events, err := Replay(context.Background(), blobmem.New(), "")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}
