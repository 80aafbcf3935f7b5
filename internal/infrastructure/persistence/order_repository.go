package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/AdX213/erli-sync/internal/domain/commerce"
	"github.com/AdX213/erli-sync/internal/infrastructure/persistence/models"
)

// GormCartRepository implements CartRepository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// Create inserts the cart with its lines and fills in its ID
func (r *GormCartRepository) Create(ctx context.Context, cart *commerce.Cart) error {
	model := models.CartModelFromDomain(cart)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	cart.ID = model.ID
	return nil
}

// Ensure GormCartRepository implements CartRepository
var _ commerce.CartRepository = (*GormCartRepository)(nil)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order with its state history
func (r *GormOrderRepository) FindByID(ctx context.Context, id int64) (*commerce.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("History").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commerce.ErrOrderNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts the order with its history and fills in its ID
func (r *GormOrderRepository) Create(ctx context.Context, order *commerce.Order) error {
	var model models.OrderModel
	model.FromDomain(order)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	order.ID = model.ID
	return nil
}

// Save persists the current state of the order, replacing its history
func (r *GormOrderRepository) Save(ctx context.Context, order *commerce.Order) error {
	var model models.OrderModel
	model.FromDomain(order)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("History").Save(&model).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.OrderHistoryModel{}, "order_id = ?", order.ID).Error; err != nil {
			return err
		}
		if len(model.History) == 0 {
			return nil
		}
		return tx.Create(&model.History).Error
	})
}

// Ensure GormOrderRepository implements OrderRepository
var _ commerce.OrderRepository = (*GormOrderRepository)(nil)
