package store

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	outboxQueueSize  = 256
	outboxMaxRetries = 3
	outboxRetryDelay = 100 * time.Millisecond
)

type opKind int

const (
	opSet opKind = iota
	opRemove
	opFlush
)

type outboxOp struct {
	kind       opKind
	collection string
	id         string
	data       []byte
	done       chan struct{} // flush marker only
}

// Outbox is a write-behind queue in front of a Store. Mutations enqueue
// and return immediately; a single worker drains the queue in order,
// retrying transient failures, so the ledger's in-memory state stays
// authoritative while writes settle. Flush blocks until everything
// enqueued before it is durable, which makes "flushed" observable for
// shutdown and tests.
//
// ReplaceAll bypasses the queue: backup import relies on synchronous
// failure detection, so it drains pending writes first and then writes
// through.
type Outbox struct {
	store *Store
	queue chan outboxOp
	wg    sync.WaitGroup

	mu      sync.Mutex
	lastErr error
}

// NewOutbox creates an outbox and starts its worker.
func NewOutbox(store *Store) *Outbox {
	o := &Outbox{
		store: store,
		queue: make(chan outboxOp, outboxQueueSize),
	}
	o.wg.Add(1)
	go o.run()
	return o
}

// Set enqueues a record write. The returned error is always nil; write
// failures surface through Flush.
func (o *Outbox) Set(collection, id string, data []byte) error {
	o.queue <- outboxOp{kind: opSet, collection: collection, id: id, data: data}
	return nil
}

// Remove enqueues a record deletion.
func (o *Outbox) Remove(collection, id string) error {
	o.queue <- outboxOp{kind: opRemove, collection: collection, id: id}
	return nil
}

// LoadAll reads through to the store after draining pending writes.
func (o *Outbox) LoadAll(collection string) (map[string][]byte, error) {
	if err := o.Flush(); err != nil {
		return nil, err
	}
	return o.store.LoadAll(collection)
}

// ReplaceAll drains pending writes, then writes through synchronously.
func (o *Outbox) ReplaceAll(collection string, records map[string][]byte) error {
	if err := o.Flush(); err != nil {
		return err
	}
	return o.store.ReplaceAll(collection, records)
}

// Flush blocks until every previously enqueued write has been applied.
// It returns (and clears) the first error seen since the last flush.
func (o *Outbox) Flush() error {
	done := make(chan struct{})
	o.queue <- outboxOp{kind: opFlush, done: done}
	<-done

	o.mu.Lock()
	defer o.mu.Unlock()
	err := o.lastErr
	o.lastErr = nil
	return err
}

// Close flushes and stops the worker. The outbox must not be used after
// Close.
func (o *Outbox) Close() error {
	err := o.Flush()
	close(o.queue)
	o.wg.Wait()
	return err
}

func (o *Outbox) run() {
	defer o.wg.Done()
	for op := range o.queue {
		switch op.kind {
		case opFlush:
			close(op.done)
		case opSet:
			o.apply(op, func() error {
				return o.store.Set(op.collection, op.id, op.data)
			})
		case opRemove:
			o.apply(op, func() error {
				return o.store.Remove(op.collection, op.id)
			})
		}
	}
}

func (o *Outbox) apply(op outboxOp, write func() error) {
	var err error
	for attempt := 1; attempt <= outboxMaxRetries; attempt++ {
		if err = write(); err == nil {
			return
		}
		slog.Warn("outbox write failed, retrying",
			"collection", op.collection, "id", op.id, "attempt", attempt, "error", err)
		time.Sleep(outboxRetryDelay)
	}

	slog.Error("outbox write dropped after retries",
		"collection", op.collection, "id", op.id, "error", err)
	o.mu.Lock()
	if o.lastErr == nil {
		o.lastErr = fmt.Errorf("write %s/%s failed: %w", op.collection, op.id, err)
	}
	o.mu.Unlock()
}
