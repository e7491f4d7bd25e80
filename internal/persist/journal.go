package persist

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PlacementStore is where the journal writes batches. *PlacementRepo
// implements it.
type PlacementStore interface {
	InsertBatch(ctx context.Context, batch []Placement) error
}

// JournalOptions size the journal's queue and batches.
type JournalOptions struct {
	QueueSize    int
	BatchSize    int
	WriteTimeout time.Duration
}

// Journal writes placements on a background goroutine so the frame loop
// never waits on the database. When the queue is full new placements are
// dropped and counted.
type Journal struct {
	store PlacementStore
	opts  JournalOptions
	log   *zap.Logger

	in   chan Placement
	done chan struct{}
	once sync.Once

	mu      sync.Mutex
	written int
	dropped int
	failed  int
}

func NewJournal(store PlacementStore, opts JournalOptions, log *zap.Logger) *Journal {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	j := &Journal{
		store: store,
		opts:  opts,
		log:   log,
		in:    make(chan Placement, opts.QueueSize),
		done:  make(chan struct{}),
	}
	go j.run()
	return j
}

// Enqueue hands p to the writer without blocking. It reports false when
// the queue is full.
func (j *Journal) Enqueue(p Placement) bool {
	select {
	case j.in <- p:
		return true
	default:
		j.mu.Lock()
		j.dropped++
		j.mu.Unlock()
		return false
	}
}

// Close stops accepting placements, flushes what is queued and waits for
// the writer to exit. Enqueue must not be called after Close.
func (j *Journal) Close() {
	j.once.Do(func() { close(j.in) })
	<-j.done
}

// Stats returns written, dropped and failed placement counts.
func (j *Journal) Stats() (written, dropped, failed int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.written, j.dropped, j.failed
}

func (j *Journal) run() {
	defer close(j.done)
	batch := make([]Placement, 0, j.opts.BatchSize)
	for p := range j.in {
		batch = append(batch, p)
		// Take whatever else is already queued, up to a full batch.
	fill:
		for len(batch) < j.opts.BatchSize {
			select {
			case next, ok := <-j.in:
				if !ok {
					break fill
				}
				batch = append(batch, next)
			default:
				break fill
			}
		}
		j.flush(batch)
		batch = batch[:0]
	}
}

func (j *Journal) flush(batch []Placement) {
	ctx, cancel := context.WithTimeout(context.Background(), j.opts.WriteTimeout)
	defer cancel()
	err := j.store.InsertBatch(ctx, batch)

	j.mu.Lock()
	defer j.mu.Unlock()
	if err != nil {
		j.failed += len(batch)
		j.log.Error("placement journal write failed", zap.Int("placements", len(batch)), zap.Error(err))
		return
	}
	j.written += len(batch)
}
