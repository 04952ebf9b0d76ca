package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"fishynet/internal/blob"
	"fishynet/pkg/domain"
)

// Replay reads archived event batches under prefix (default "events/") and
// returns the decoded events in key order.
func Replay(ctx context.Context, store blob.Store, prefix string) ([]domain.Event, error) {
	if prefix == "" {
		prefix = "events/"
	}
	infos, err := store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	var events []domain.Event
	for _, info := range infos {
		batch, err := readBatch(ctx, store, info.Key)
		if err != nil {
			return nil, err
		}
		events = append(events, batch...)
	}
	return events, nil
}

func readBatch(ctx context.Context, store blob.Store, key string) ([]domain.Event, error) {
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get archive %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	var events []domain.Event
	dec := json.NewDecoder(rc)
	for {
		var event domain.Event
		if err := dec.Decode(&event); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("decode archive %s: %w", key, err)
		}
		events = append(events, event)
	}
	return events, nil
}
