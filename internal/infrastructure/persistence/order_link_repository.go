package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	sync "github.com/AdX213/erli-sync/internal/domain/sync"
	"github.com/AdX213/erli-sync/internal/infrastructure/persistence/models"
)

// GormOrderLinkRepository implements OrderLinkRepository using GORM
type GormOrderLinkRepository struct {
	db *gorm.DB
}

// NewGormOrderLinkRepository creates a new GormOrderLinkRepository
func NewGormOrderLinkRepository(db *gorm.DB) *GormOrderLinkRepository {
	return &GormOrderLinkRepository{db: db}
}

// FindByExternalOrderID finds a link by marketplace order id
func (r *GormOrderLinkRepository) FindByExternalOrderID(ctx context.Context, externalOrderID string) (*sync.OrderLink, error) {
	var model models.OrderLinkModel
	if err := r.db.WithContext(ctx).First(&model, "external_order_id = ?", externalOrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sync.ErrLinkNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByExternalOrderID checks whether a marketplace order was imported
func (r *GormOrderLinkRepository) ExistsByExternalOrderID(ctx context.Context, externalOrderID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderLinkModel{}).
		Where("external_order_id = ?", externalOrderID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new link. The unique index on the external order id turns
// a concurrent duplicate import into an error here.
func (r *GormOrderLinkRepository) Create(ctx context.Context, link *sync.OrderLink) error {
	model := models.OrderLinkModelFromDomain(link)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return sync.ErrLinkExists
		}
		return err
	}
	link.ID = model.ID
	return nil
}

// Ensure GormOrderLinkRepository implements OrderLinkRepository
var _ sync.OrderLinkRepository = (*GormOrderLinkRepository)(nil)
