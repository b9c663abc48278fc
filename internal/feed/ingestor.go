package feed

import (
	"context"
	"log"
	"sync"
	"time"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/observability"
	"strategy-perf-lab/internal/storage"
)

// Ingestor buffers incoming measurements and writes them to storage in
// batches. Its Handle method is the feed client's Handler.
type Ingestor struct {
	store   storage.MeasurementStore
	metrics *observability.Metrics

	batchSize     int
	flushInterval time.Duration

	mu      sync.Mutex
	pending []*domain.Measurement

	done chan struct{}
	wg   sync.WaitGroup
}

// IngestorOptions configures an Ingestor.
type IngestorOptions struct {
	Store         storage.MeasurementStore
	Metrics       *observability.Metrics // optional
	BatchSize     int                    // default 100
	FlushInterval time.Duration          // default 2s
}

// NewIngestor creates an ingestor and starts its flush loop.
func NewIngestor(opts IngestorOptions) *Ingestor {
	i := &Ingestor{
		store:         opts.Store,
		metrics:       opts.Metrics,
		batchSize:     opts.BatchSize,
		flushInterval: opts.FlushInterval,
		done:          make(chan struct{}),
	}
	if i.batchSize <= 0 {
		i.batchSize = 100
	}
	if i.flushInterval <= 0 {
		i.flushInterval = 2 * time.Second
	}

	i.wg.Add(1)
	go i.flushLoop()

	return i
}

// Handle buffers one measurement, flushing when the batch is full.
func (i *Ingestor) Handle(m *domain.Measurement) error {
	i.mu.Lock()
	i.pending = append(i.pending, m)
	full := len(i.pending) >= i.batchSize
	i.mu.Unlock()

	if full {
		i.Flush(context.Background())
	}
	return nil
}

// Flush writes all buffered measurements to storage.
func (i *Ingestor) Flush(ctx context.Context) {
	i.mu.Lock()
	batch := i.pending
	i.pending = nil
	i.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	if err := i.store.InsertBulk(ctx, batch); err != nil {
		log.Printf("[feed] flush failed, %d measurements dropped: %v", len(batch), err)
		if i.metrics != nil {
			i.metrics.RecordIngestError("flush")
		}
		return
	}

	if i.metrics != nil {
		byKind := make(map[string]int)
		for _, m := range batch {
			byKind[m.Kind]++
		}
		for kind, n := range byKind {
			i.metrics.RecordIngested(kind, n)
		}
	}
}

// Close flushes remaining measurements and stops the flush loop.
func (i *Ingestor) Close() {
	close(i.done)
	i.wg.Wait()
	i.Flush(context.Background())
}

func (i *Ingestor) flushLoop() {
	defer i.wg.Done()

	ticker := time.NewTicker(i.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-i.done:
			return
		case <-ticker.C:
			i.Flush(context.Background())
		}
	}
}
