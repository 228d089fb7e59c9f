package app

import (
	"context"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/corethreads/commerce/internal/checkout"
	"github.com/corethreads/commerce/internal/domain"
	"github.com/corethreads/commerce/pkg/metrics"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error
	_, err = a.sched.AddFunc("@every 1h", func() {
		if err := a.ResyncAllProducts(context.Background()); err != nil {
			zap.L().Error("stock resync sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", func() {
		a.gormDB.
			Where("opt_time < ? ", time.Now().
				Add(-time.Hour*24*365)).Delete(domain.SysOprLog{})
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}
}

// RunStockResyncNow rewrites one product's denormalized stock immediately.
func (a *Application) RunStockResyncNow(productID int64) error {
	return checkout.NewGormInventoryStore(a.gormDB).
		ResyncProductStock(context.Background(), productID)
}

// ResyncAllProducts sweeps every product and rewrites its denormalized stock
// from the sum of its variants. Checkout keeps touched products in sync on
// its own; this sweep self-heals drift from direct variant edits.
func (a *Application) ResyncAllProducts(ctx context.Context) error {
	var ids []int64
	if err := a.gormDB.WithContext(ctx).
		Model(&domain.Product{}).
		Where("is_active = ?", true).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	workers := 8
	if a.configManager != nil {
		if w := a.configManager.GetInt64("jobs", "stock_resync_workers"); w > 0 {
			workers = int(w)
		}
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return err
	}
	defer pool.Release()

	inventory := checkout.NewGormInventoryStore(a.gormDB)
	var wg sync.WaitGroup
	for _, id := range ids {
		id := id
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := inventory.ResyncProductStock(ctx, id); err != nil {
				zap.L().Error("stock resync failed",
					zap.Int64("product_id", id),
					zap.Error(err))
			}
		})
		if submitErr != nil {
			wg.Done()
			zap.L().Error("stock resync submit failed", zap.Error(submitErr))
		}
	}
	wg.Wait()

	metrics.Inc(metrics.StockResyncRun)
	zap.L().Debug("stock resync sweep completed", zap.Int("products", len(ids)))
	return nil
}
