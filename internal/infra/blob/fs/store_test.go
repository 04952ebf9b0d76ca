package fs

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"fishynet/internal/blob/core"
)

func TestPutGetRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	payload := []byte(`{"kind":"fish_sold"}` + "\n")
	info, err := store.Put(ctx, "events/2018/05/01/a.jsonl", bytes.NewReader(payload), core.PutOptions{
		ContentType: "application/x-ndjson",
		Metadata:    map[string]string{"events": "1"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len(payload)) || info.ETag == "" {
		t.Fatalf("unexpected info: %+v", info)
	}

	got, rc, err := store.Get(ctx, "events/2018/05/01/a.jsonl")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil || !bytes.Equal(data, payload) {
		t.Fatalf("payload mismatch: %q err=%v", data, err)
	}
	if got.ContentType != "application/x-ndjson" || got.Metadata["events"] != "1" {
		t.Fatalf("metadata sidecar lost: %+v", got)
	}
}

func TestPutRejectsExistingKey(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("a")), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("b")), core.PutOptions{}); err == nil {
		t.Fatalf("expected create-only failure")
	}
}

func TestKeySanitization(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"", "  ", "../escape", "/absolute", "a/../../b"} {
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("x")), core.PutOptions{}); err == nil {
			t.Fatalf("key %q should be rejected", key)
		}
	}
}

func TestListPrefixAndDelete(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"events/b.jsonl", "events/a.jsonl", "other/c.jsonl"} {
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	infos, err := store.List(ctx, "events/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "events/a.jsonl" || infos[1].Key != "events/b.jsonl" {
		t.Fatalf("unexpected listing: %+v", infos)
	}

	existed, err := store.Delete(ctx, "events/a.jsonl")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	if _, err := store.Head(ctx, "events/a.jsonl"); err == nil {
		t.Fatalf("deleted key still resolves")
	}
	existed, err = store.Delete(ctx, "events/a.jsonl")
	if err != nil || existed {
		t.Fatalf("second delete should report missing: existed=%v err=%v", existed, err)
	}
}

func TestPresignLocalURL(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	url, err := store.PresignURL(context.Background(), "events/a.jsonl", core.SignedURLOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.HasPrefix(url, "http://local.blob/") {
		t.Fatalf("unexpected url %s", url)
	}
	if _, err := store.PresignURL(context.Background(), "k", core.SignedURLOptions{Method: "PUT"}); err == nil {
		t.Fatalf("non-GET presign should be unsupported")
	}
}
