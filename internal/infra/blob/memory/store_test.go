package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"fishynet/internal/blob/core"
)

func TestPutGetHead(t *testing.T) {
	store := New()
	ctx := context.Background()

	info, err := store.Put(ctx, "events/2018/05/01/a.jsonl", bytes.NewReader([]byte("{}\n")), core.PutOptions{
		ContentType: "application/x-ndjson",
		Metadata:    map[string]string{"events": "1"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 3 || info.ContentType != "application/x-ndjson" {
		t.Fatalf("unexpected info: %+v", info)
	}

	got, rc, err := store.Get(ctx, "events/2018/05/01/a.jsonl")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil || string(data) != "{}\n" {
		t.Fatalf("payload = %q err=%v", data, err)
	}
	if got.Metadata["events"] != "1" {
		t.Fatalf("metadata lost: %+v", got.Metadata)
	}

	head, err := store.Head(ctx, "events/2018/05/01/a.jsonl")
	if err != nil || head.Size != 3 {
		t.Fatalf("head: %+v err=%v", head, err)
	}
}

func TestPutRejectsExistingKey(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("a")), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("b")), core.PutOptions{}); err == nil {
		t.Fatalf("expected create-only failure")
	}
}

func TestListPrefixAndDelete(t *testing.T) {
	store := New()
	ctx := context.Background()
	for _, key := range []string{"events/b", "events/a", "other/c"} {
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	infos, err := store.List(ctx, "events/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "events/a" || infos[1].Key != "events/b" {
		t.Fatalf("unexpected listing: %+v", infos)
	}

	existed, err := store.Delete(ctx, "events/a")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	existed, err = store.Delete(ctx, "events/a")
	if err != nil || existed {
		t.Fatalf("second delete should report missing: existed=%v err=%v", existed, err)
	}
}

func TestPresignUnsupported(t *testing.T) {
	store := New()
	if _, err := store.PresignURL(context.Background(), "k", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if store.Driver() != core.DriverMemory {
		t.Fatalf("driver = %s", store.Driver())
	}
}
