package repository

import (
	"context"
	"time"

	"github.com/xjanova/smschecker-sub001/internal/domain"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/postgres/mappers"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultNonceRepository struct {
	DB *gorm.DB
}

func NewDefaultNonceRepository(db *gorm.DB) *DefaultNonceRepository {
	return &DefaultNonceRepository{
		DB: db,
	}
}

// InsertNonce relies on the primary key: a concurrent writer with the same
// nonce affects zero rows instead of failing.
func (r *DefaultNonceRepository) InsertNonce(ctx context.Context, record *domain.NonceRecord) (bool, error) {
	result := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(mappers.ToGORMNonce(record))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *DefaultNonceRepository) DeleteNoncesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.DB.WithContext(ctx).Where("used_at < ?", cutoff).Delete(&models.NonceModel{})
	return result.RowsAffected, result.Error
}
