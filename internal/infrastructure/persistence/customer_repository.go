package persistence

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/AdX213/erli-sync/internal/domain/commerce"
	"github.com/AdX213/erli-sync/internal/infrastructure/persistence/models"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByEmail finds a customer by email, case-insensitively
func (r *GormCustomerRepository) FindByEmail(ctx context.Context, email string) (*commerce.Customer, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "email = ?", normalized).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commerce.ErrCustomerNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new customer and fills in its ID
func (r *GormCustomerRepository) Create(ctx context.Context, customer *commerce.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	customer.ID = model.ID
	return nil
}

// Ensure GormCustomerRepository implements CustomerRepository
var _ commerce.CustomerRepository = (*GormCustomerRepository)(nil)

// GormAddressRepository implements AddressRepository using GORM
type GormAddressRepository struct {
	db *gorm.DB
}

// NewGormAddressRepository creates a new GormAddressRepository
func NewGormAddressRepository(db *gorm.DB) *GormAddressRepository {
	return &GormAddressRepository{db: db}
}

// Create inserts a new address and fills in its ID
func (r *GormAddressRepository) Create(ctx context.Context, address *commerce.Address) error {
	model := models.AddressModelFromDomain(address)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	address.ID = model.ID
	return nil
}

// Ensure GormAddressRepository implements AddressRepository
var _ commerce.AddressRepository = (*GormAddressRepository)(nil)
