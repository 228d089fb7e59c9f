package metrics

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
	"go.uber.org/zap"
)

// Metric names recorded by the checkout path.
const (
	CheckoutSuccess       = "checkout_success"
	CheckoutFailure       = "checkout_failure"
	CheckoutConflictRetry = "checkout_conflict_retry"
	StockResyncRun        = "stock_resync_run"
)

var (
	storage tstorage.Storage
	mu      sync.RWMutex
)

// InitMetrics opens the local time-series store under the workdir. Metrics
// are best-effort; callers never fail an operation on a metrics error.
func InitMetrics(workdir string) error {
	s, err := tstorage.NewStorage(
		tstorage.WithDataPath(filepath.Join(workdir, "metrics")),
		tstorage.WithTimestampPrecision(tstorage.Seconds),
		tstorage.WithPartitionDuration(24*time.Hour),
	)
	if err != nil {
		return err
	}
	mu.Lock()
	storage = s
	mu.Unlock()
	return nil
}

// Inc records a single occurrence of the named metric.
func Inc(name string) {
	Add(name, 1)
}

// Add records value occurrences of the named metric.
func Add(name string, value float64) {
	mu.RLock()
	s := storage
	mu.RUnlock()
	if s == nil {
		return
	}
	err := s.InsertRows([]tstorage.Row{
		{
			Metric:    name,
			DataPoint: tstorage.DataPoint{Timestamp: time.Now().Unix(), Value: value},
		},
	})
	if err != nil {
		zap.L().Debug("metrics insert failed", zap.String("metric", name), zap.Error(err))
	}
}

// SumSince totals the metric's datapoints between start and now.
func SumSince(name string, start time.Time) float64 {
	mu.RLock()
	s := storage
	mu.RUnlock()
	if s == nil {
		return 0
	}
	points, err := s.Select(name, nil, start.Unix(), time.Now().Unix()+1)
	if err != nil {
		return 0
	}
	var total float64
	for _, p := range points {
		total += p.Value
	}
	return total
}

// Close flushes and closes the metrics store.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return nil
	}
	err := storage.Close()
	storage = nil
	return err
}
