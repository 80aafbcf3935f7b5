package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	sync "github.com/AdX213/erli-sync/internal/domain/sync"
	"github.com/AdX213/erli-sync/internal/infrastructure/persistence/models"
)

// GormProductLinkRepository implements ProductLinkRepository using GORM
type GormProductLinkRepository struct {
	db *gorm.DB
}

// NewGormProductLinkRepository creates a new GormProductLinkRepository
func NewGormProductLinkRepository(db *gorm.DB) *GormProductLinkRepository {
	return &GormProductLinkRepository{db: db}
}

// FindByID finds a link by its surrogate key
func (r *GormProductLinkRepository) FindByID(ctx context.Context, id int64) (*sync.ProductLink, error) {
	var model models.ProductLinkModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sync.ErrLinkNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByExternalID finds a link by its marketplace identifier
func (r *GormProductLinkRepository) FindByExternalID(ctx context.Context, externalID string) (*sync.ProductLink, error) {
	var model models.ProductLinkModel
	if err := r.db.WithContext(ctx).First(&model, "external_id = ?", externalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sync.ErrLinkNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCatalogRow finds the link for a product/variant pair
func (r *GormProductLinkRepository) FindByCatalogRow(ctx context.Context, productID, variantID int64) (*sync.ProductLink, error) {
	var model models.ProductLinkModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND variant_id = ?", productID, variantID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sync.ErrLinkNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListAfter returns up to limit links with ID greater than cursor, in ID order
func (r *GormProductLinkRepository) ListAfter(ctx context.Context, cursor int64, limit int) ([]sync.ProductLink, error) {
	var linkModels []models.ProductLinkModel
	if err := r.db.WithContext(ctx).
		Where("id > ?", cursor).
		Order("id ASC").
		Limit(limit).
		Find(&linkModels).Error; err != nil {
		return nil, err
	}

	links := make([]sync.ProductLink, len(linkModels))
	for i := range linkModels {
		links[i] = *linkModels[i].ToDomain()
	}
	return links, nil
}

// ListPendingAfter is ListAfter restricted to rows not yet successfully synced
func (r *GormProductLinkRepository) ListPendingAfter(ctx context.Context, cursor int64, limit int) ([]sync.ProductLink, error) {
	var linkModels []models.ProductLinkModel
	if err := r.db.WithContext(ctx).
		Where("id > ? AND status <> ?", cursor, sync.SyncStatusOK).
		Order("id ASC").
		Limit(limit).
		Find(&linkModels).Error; err != nil {
		return nil, err
	}

	links := make([]sync.ProductLink, len(linkModels))
	for i := range linkModels {
		links[i] = *linkModels[i].ToDomain()
	}
	return links, nil
}

// CreateIfAbsent inserts the link unless its product/variant pair already has
// a row. Concurrency-safe: the unique index decides, not a prior lookup.
func (r *GormProductLinkRepository) CreateIfAbsent(ctx context.Context, link *sync.ProductLink) (bool, error) {
	model := models.ProductLinkModelFromDomain(link)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "variant_id"}},
			DoNothing: true,
		}).
		Create(model)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	link.ID = model.ID
	return true, nil
}

// Save persists the current state of the link
func (r *GormProductLinkRepository) Save(ctx context.Context, link *sync.ProductLink) error {
	model := models.ProductLinkModelFromDomain(link)
	return r.db.WithContext(ctx).Save(model).Error
}

// DeleteCatalogRow removes the link for a product/variant pair
func (r *GormProductLinkRepository) DeleteCatalogRow(ctx context.Context, productID, variantID int64) error {
	return r.db.WithContext(ctx).
		Delete(&models.ProductLinkModel{}, "product_id = ? AND variant_id = ?", productID, variantID).Error
}

// Count returns the total number of links
func (r *GormProductLinkRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProductLinkModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormProductLinkRepository implements ProductLinkRepository
var _ sync.ProductLinkRepository = (*GormProductLinkRepository)(nil)
