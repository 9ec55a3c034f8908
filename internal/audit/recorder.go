// Package audit writes committed stock changes to the inventory transaction log.
//
// Writes happen after the stock change has committed. A failed write is logged
// and counted but never reported back to the caller, whose change already stands.
package audit

import (
	"context"
	"time"

	"go-variant-inventory/internal/metrics"
	"go-variant-inventory/internal/model"
	"go-variant-inventory/internal/repository"
	"go-variant-inventory/pkg/logger"
	"go-variant-inventory/pkg/workerpool"
)

const (
	writeTimeout   = 5 * time.Second
	retryBackoff   = 50 * time.Millisecond
	queuePerWorker = 64
)

// Recorder accepts log entries for committed changes.
type Recorder interface {
	Record(ctx context.Context, entries ...model.InventoryTransaction)
	Close()
}

// writer appends entries with bounded retries. Entries carry their IDs, so a
// retry after an ambiguous failure cannot duplicate them.
type writer struct {
	repo    repository.TransactionRepository
	retries int
}

func (w writer) write(ctx context.Context, entries []model.InventoryTransaction) {
	var err error
	for attempt := 1; attempt <= w.retries; attempt++ {
		writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
		err = w.repo.Append(writeCtx, entries...)
		cancel()
		if err == nil {
			metrics.AuditWrites.WithLabelValues("ok").Add(float64(len(entries)))
			return
		}
		if attempt < w.retries {
			time.Sleep(time.Duration(attempt) * retryBackoff)
		}
	}

	metrics.AuditWrites.WithLabelValues("failed").Add(float64(len(entries)))
	log := logger.WithCtx(ctx)
	for _, e := range entries {
		log.Error("inventory transaction not recorded",
			"error", err,
			"transaction_id", e.ID,
			"variant_id", e.VariantID,
			"type", e.TransactionType,
			"quantity_change", e.QuantityChange,
		)
	}
}

// InlineRecorder writes on the caller's goroutine. The CLI and tests use it.
type InlineRecorder struct {
	w writer
}

func NewInlineRecorder(repo repository.TransactionRepository, retries int) *InlineRecorder {
	if retries <= 0 {
		retries = 1
	}
	return &InlineRecorder{w: writer{repo: repo, retries: retries}}
}

func (r *InlineRecorder) Record(ctx context.Context, entries ...model.InventoryTransaction) {
	if len(entries) == 0 {
		return
	}
	r.w.write(context.WithoutCancel(ctx), entries)
}

func (r *InlineRecorder) Close() {}

// AsyncRecorder hands entries to a worker pool so the request path never waits
// on the log. Close drains everything already accepted.
type AsyncRecorder struct {
	w    writer
	pool *workerpool.Pool
}

func NewAsyncRecorder(repo repository.TransactionRepository, workers, retries int) *AsyncRecorder {
	if retries <= 0 {
		retries = 1
	}
	if workers <= 0 {
		workers = 1
	}
	pool := workerpool.New(workers, workers*queuePerWorker, workerpool.WithPanicHandler(func(r any) {
		logger.L.Error("audit worker panic", "panic", r)
	}))
	return &AsyncRecorder{w: writer{repo: repo, retries: retries}, pool: pool}
}

// Record queues entries. When the queue is full it waits rather than drop them;
// after Close the write happens inline.
func (r *AsyncRecorder) Record(ctx context.Context, entries ...model.InventoryTransaction) {
	if len(entries) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	batch := append([]model.InventoryTransaction(nil), entries...)

	err := r.pool.SubmitWait(ctx, func() { r.w.write(ctx, batch) })
	if err != nil {
		logger.WithCtx(ctx).Warn("audit queue unavailable, writing inline", "error", err)
		r.w.write(ctx, batch)
	}
}

func (r *AsyncRecorder) Close() {
	r.pool.Shutdown()
}
