package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/AdX213/erli-sync/internal/domain/commerce"
	"github.com/AdX213/erli-sync/internal/infrastructure/persistence/models"
)

// GormCatalogRepository implements CatalogRepository using GORM
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository creates a new GormCatalogRepository
func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// FindProduct loads a product with its variants
func (r *GormCatalogRepository) FindProduct(ctx context.Context, productID int64) (*commerce.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Preload("Variants").
		First(&model, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commerce.ErrProductNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListSellableIDs returns the ids of all active products in id order
func (r *GormCatalogRepository) ListSellableIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("active = ?", true).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// SaveProduct persists a product with its variants. Used by seeding and tests.
func (r *GormCatalogRepository) SaveProduct(ctx context.Context, product *commerce.Product) error {
	var model models.ProductModel
	model.FromDomain(product)
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return err
	}
	product.ID = model.ID
	for i := range model.Variants {
		product.Variants[i].ID = model.Variants[i].ID
		product.Variants[i].ProductID = model.ID
	}
	return nil
}

// Ensure GormCatalogRepository implements CatalogRepository
var _ commerce.CatalogRepository = (*GormCatalogRepository)(nil)

// GormCategoryMapRepository implements CategoryMapRepository using GORM
type GormCategoryMapRepository struct {
	db *gorm.DB
}

// NewGormCategoryMapRepository creates a new GormCategoryMapRepository
func NewGormCategoryMapRepository(db *gorm.DB) *GormCategoryMapRepository {
	return &GormCategoryMapRepository{db: db}
}

// FindByCategoryID returns the mapping for a local category
func (r *GormCategoryMapRepository) FindByCategoryID(ctx context.Context, categoryID int64) (*commerce.CategoryMapping, error) {
	var model models.CategoryMapModel
	if err := r.db.WithContext(ctx).First(&model, "category_id = ?", categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commerce.ErrCategoryNotMapped
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormCategoryMapRepository implements CategoryMapRepository
var _ commerce.CategoryMapRepository = (*GormCategoryMapRepository)(nil)
