package scheduler

import (
	"context"

	"go.uber.org/zap"

	appsync "github.com/AdX213/erli-sync/internal/application/sync"
)

// Job names as registered on the scheduler and accepted by RunJob
const (
	JobProductSync = "product-sync"
	JobInboxSync   = "inbox-sync"
)

// Jobs bundles the background synchronization work
type Jobs struct {
	products *appsync.ProductEngine
	orders   *appsync.OrderEngine
	logger   *zap.Logger
}

// NewJobs creates the job bundle
func NewJobs(products *appsync.ProductEngine, orders *appsync.OrderEngine, logger *zap.Logger) *Jobs {
	return &Jobs{
		products: products,
		orders:   orders,
		logger:   logger,
	}
}

// ProductSync refreshes link rows for the catalog and pushes pending links
func (j *Jobs) ProductSync(ctx context.Context) error {
	added, err := j.products.PrepareLinks(ctx)
	if err != nil {
		return err
	}
	if added > 0 {
		j.logger.Info("Link rows prepared", zap.Int("added", added))
	}

	stats, err := j.products.SyncPending(ctx)
	if err != nil {
		return err
	}
	j.logger.Info("Product sync run finished",
		zap.Int("processed", stats.Processed),
		zap.Int("pushed", stats.Pushed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Bool("rate_limited", stats.RateLimited),
	)
	return nil
}

// InboxSync drains the marketplace inbox and imports new orders
func (j *Jobs) InboxSync(ctx context.Context) error {
	stats, err := j.orders.ProcessInbox(ctx)
	if err != nil {
		return err
	}
	j.logger.Info("Inbox run finished",
		zap.Int("batches", stats.Batches),
		zap.Int("events", stats.Events),
		zap.Int("created", stats.Created),
		zap.Int("ignored", stats.Ignored),
		zap.Int("exceptions", stats.Exceptions),
		zap.Int("acked", stats.Acked),
	)
	return nil
}
