package workers

import (
	"context"
	"time"

	"campusnest_backend/internal/logger"
)

// TempSweeper is implemented by storage backends that can leave temp files
// behind (local disk).
type TempSweeper interface {
	SweepTemp(ctx context.Context, maxAge time.Duration) (int, error)
}

type StorageWorker struct {
	storage  TempSweeper
	interval time.Duration
	maxAge   time.Duration
}

func NewStorageWorker(storage TempSweeper, interval, maxAge time.Duration) *StorageWorker {
	return &StorageWorker{storage: storage, interval: interval, maxAge: maxAge}
}

// Start запускает фоновую очистку незавершенных загрузок.
func (w *StorageWorker) Start(ctx context.Context) {
	go w.sweepTempFiles(ctx)
}

func (w *StorageWorker) sweepTempFiles(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Storage worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and returns the number of removed files.
func (w *StorageWorker) RunOnce(ctx context.Context) int {
	removed, err := w.storage.SweepTemp(ctx, w.maxAge)
	if err != nil {
		logger.Error("Error sweeping temp uploads", "error", err)
	}
	if removed > 0 {
		logger.Info("Removed stale temp uploads", "count", removed)
	}
	return removed
}
