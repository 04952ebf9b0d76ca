// Package audit archives emitted ledger events into blob storage. Batches
// are written as JSON Lines so regulators can replay the full event history
// without touching live state.
package audit

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"fishynet/internal/blob"
	"fishynet/pkg/domain"
)

const (
	defaultQueueSize     = 256
	defaultBatchSize     = 32
	defaultFlushInterval = 5 * time.Second
)

// Archiver consumes events asynchronously and persists them in batches.
// Emit never blocks; events are dropped when the queue is full.
type Archiver struct {
	store blob.Store

	queue         chan domain.Event
	batchSize     int
	flushInterval time.Duration
	nowFn         func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	dropped  int
	archived int
	lastErr  error
}

// Option adjusts archiver construction.
type Option func(*Archiver)

// WithBatchSize sets how many events trigger an immediate flush.
func WithBatchSize(n int) Option {
	return func(a *Archiver) {
		if n > 0 {
			a.batchSize = n
		}
	}
}

// WithFlushInterval sets how often a partial batch is flushed.
func WithFlushInterval(d time.Duration) Option {
	return func(a *Archiver) {
		if d > 0 {
			a.flushInterval = d
		}
	}
}

// WithNowFunc overrides the clock used for batch keys.
func WithNowFunc(fn func() time.Time) Option {
	return func(a *Archiver) {
		if fn != nil {
			a.nowFn = fn
		}
	}
}

// NewArchiver constructs an event archiver writing to the given blob store.
func NewArchiver(store blob.Store, opts ...Option) *Archiver {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Archiver{
		store:         store,
		queue:         make(chan domain.Event, defaultQueueSize),
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		nowFn:         func() time.Time { return time.Now().UTC() },
		ctx:           ctx,
		cancel:        cancel,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Emit enqueues an event for archival. Never blocks the caller.
func (a *Archiver) Emit(event domain.Event) {
	select {
	case a.queue <- event:
	default:
		a.mu.Lock()
		a.dropped++
		a.mu.Unlock()
	}
}

// Start begins the archival loop.
func (a *Archiver) Start() {
	a.wg.Add(1)
	go a.loop()
}

// Stop halts the loop, flushes any pending batch, and waits for completion.
func (a *Archiver) Stop(ctx context.Context) error {
	a.cancel()
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dropped reports how many events were discarded due to a full queue.
func (a *Archiver) Dropped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Archived reports how many events were written to blob storage.
func (a *Archiver) Archived() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.archived
}

// Err returns the most recent flush error, if any.
func (a *Archiver) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

func (a *Archiver) loop() {
	defer a.wg.Done()
	ticker := time.NewTicker(a.flushInterval)
	defer ticker.Stop()
	var batch []domain.Event
	for {
		select {
		case <-a.ctx.Done():
			batch = a.drain(batch)
			a.flush(batch)
			return
		case event := <-a.queue:
			batch = append(batch, event)
			if len(batch) >= a.batchSize {
				a.flush(batch)
				batch = nil
			}
		case <-ticker.C:
			a.flush(batch)
			batch = nil
		}
	}
}

// drain empties whatever is still queued without blocking.
func (a *Archiver) drain(batch []domain.Event) []domain.Event {
	for {
		select {
		case event := <-a.queue:
			batch = append(batch, event)
		default:
			return batch
		}
	}
}

func (a *Archiver) flush(batch []domain.Event) {
	if len(batch) == 0 {
		return
	}
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	for _, event := range batch {
		if err := enc.Encode(event); err != nil {
			a.record(0, fmt.Errorf("encode event %s: %w", event.ID, err))
			return
		}
	}
	key := a.batchKey()
	_, err := a.store.Put(context.Background(), key, buf, blob.PutOptions{
		ContentType: "application/x-ndjson",
		Metadata:    map[string]string{"events": fmt.Sprintf("%d", len(batch))},
	})
	if err != nil {
		a.record(0, fmt.Errorf("archive batch %s: %w", key, err))
		return
	}
	a.record(len(batch), nil)
}

func (a *Archiver) record(archived int, err error) {
	a.mu.Lock()
	a.archived += archived
	a.lastErr = err
	a.mu.Unlock()
}

// batchKey yields keys that sort chronologically so Replay preserves emission
// order across batches.
func (a *Archiver) batchKey() string {
	now := a.nowFn()
	return fmt.Sprintf("events/%s/%s-%s.jsonl", now.Format("2006/01/02"), now.Format("150405.000000000"), newBatchID())
}

func newBatchID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return strings.ToLower(fmt.Sprintf("%x", b[:]))
}
