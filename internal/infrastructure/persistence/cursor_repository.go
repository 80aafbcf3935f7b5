package persistence

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	sync "github.com/AdX213/erli-sync/internal/domain/sync"
	"github.com/AdX213/erli-sync/internal/infrastructure/persistence/models"
)

// GormCursorRepository implements CursorRepository using GORM
type GormCursorRepository struct {
	db *gorm.DB
}

// NewGormCursorRepository creates a new GormCursorRepository
func NewGormCursorRepository(db *gorm.DB) *GormCursorRepository {
	return &GormCursorRepository{db: db}
}

// Get returns the stored value for key, or ErrCursorNotFound
func (r *GormCursorRepository) Get(ctx context.Context, key string) (string, error) {
	var model models.CursorModel
	if err := r.db.WithContext(ctx).First(&model, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", sync.ErrCursorNotFound
		}
		return "", err
	}
	return model.Value, nil
}

// GetInt returns the stored value parsed as int64; a missing key yields zero
func (r *GormCursorRepository) GetInt(ctx context.Context, key string) (int64, error) {
	value, err := r.Get(ctx, key)
	if err != nil {
		if errors.Is(err, sync.ErrCursorNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return strconv.ParseInt(value, 10, 64)
}

// Set stores the value for key, creating or replacing it
func (r *GormCursorRepository) Set(ctx context.Context, key, value string) error {
	model := models.CursorModel{Key: key, Value: value}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		}).
		Create(&model).Error
}

// SetInt stores an integer value for key
func (r *GormCursorRepository) SetInt(ctx context.Context, key string, value int64) error {
	return r.Set(ctx, key, strconv.FormatInt(value, 10))
}

// Ensure GormCursorRepository implements CursorRepository
var _ sync.CursorRepository = (*GormCursorRepository)(nil)
