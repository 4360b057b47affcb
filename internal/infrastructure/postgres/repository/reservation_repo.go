package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xjanova/smschecker-sub001/internal/domain"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/postgres/mappers"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultReservationRepository struct {
	DB *gorm.DB
}

func NewDefaultReservationRepository(db *gorm.DB) *DefaultReservationRepository {
	return &DefaultReservationRepository{
		DB: db,
	}
}

func (r *DefaultReservationRepository) ExpireOverdue(ctx context.Context, scope domain.OverdueScope, now time.Time) (int64, error) {
	query := r.DB.WithContext(ctx).Model(&models.ReservationModel{}).
		Where("status = ? AND expires_at <= ?", string(domain.ReservationStatusReserved), now)
	switch {
	case scope.BaseAmount != nil && scope.TransactionID != "":
		query = query.Where("(base_amount_minor = ? OR transaction_id = ?)", domain.ToMinorUnits(*scope.BaseAmount), scope.TransactionID)
	case scope.BaseAmount != nil:
		query = query.Where("base_amount_minor = ?", domain.ToMinorUnits(*scope.BaseAmount))
	case scope.TransactionID != "":
		query = query.Where("transaction_id = ?", scope.TransactionID)
	}
	result := query.Update("status", string(domain.ReservationStatusExpired))
	return result.RowsAffected, result.Error
}

func (r *DefaultReservationRepository) ActiveSuffixes(ctx context.Context, base decimal.Decimal, now time.Time) ([]int, error) {
	var suffixes []int
	err := r.DB.WithContext(ctx).Model(&models.ReservationModel{}).
		Where("base_amount_minor = ? AND status = ? AND expires_at > ?",
			domain.ToMinorUnits(base), string(domain.ReservationStatusReserved), now).
		Order("suffix ASC").
		Pluck("suffix", &suffixes).Error
	return suffixes, err
}

// InsertReservation returns false when a reserved row already holds the
// (base, suffix) slot or the transaction already has a live reservation.
func (r *DefaultReservationRepository) InsertReservation(ctx context.Context, reservation *domain.UniquePaymentAmount) (bool, error) {
	model := mappers.ToGORMReservation(reservation)
	result := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(model)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	reservation.CreatedAt = model.CreatedAt
	return true, nil
}

func (r *DefaultReservationRepository) GetActiveByTransactionID(ctx context.Context, transactionID string, now time.Time) (*domain.UniquePaymentAmount, error) {
	var model models.ReservationModel
	err := r.DB.WithContext(ctx).
		Where("transaction_id = ? AND status = ? AND expires_at > ?", transactionID, string(domain.ReservationStatusReserved), now).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, err
	}
	return mappers.ToDomainReservation(&model), nil
}

func (r *DefaultReservationRepository) GetLatestByTransactionID(ctx context.Context, transactionID string) (*domain.UniquePaymentAmount, error) {
	var model models.ReservationModel
	err := r.DB.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, err
	}
	return mappers.ToDomainReservation(&model), nil
}

func (r *DefaultReservationRepository) ClaimByUniqueAmount(ctx context.Context, amount decimal.Decimal, now time.Time) (*domain.UniquePaymentAmount, error) {
	minor, ok := domain.MinorUnits(amount)
	if !ok {
		return nil, nil
	}

	var candidate models.ReservationModel
	err := r.DB.WithContext(ctx).
		Where("unique_amount_minor = ? AND status = ? AND expires_at > ?",
			minor, string(domain.ReservationStatusReserved), now).
		Order("created_at ASC").
		First(&candidate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	// Conditional update: only one claimer moves the row out of reserved.
	result := r.DB.WithContext(ctx).Model(&models.ReservationModel{}).
		Where("id = ? AND status = ?", candidate.ID, string(domain.ReservationStatusReserved)).
		Updates(map[string]interface{}{
			"status":     string(domain.ReservationStatusUsed),
			"matched_at": now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}

	candidate.Status = string(domain.ReservationStatusUsed)
	candidate.MatchedAt = &now
	return mappers.ToDomainReservation(&candidate), nil
}

func (r *DefaultReservationRepository) ReleaseByTransactionID(ctx context.Context, transactionID string, now time.Time) (bool, error) {
	result := r.DB.WithContext(ctx).Model(&models.ReservationModel{}).
		Where("transaction_id = ? AND status = ?", transactionID, string(domain.ReservationStatusReserved)).
		Updates(map[string]interface{}{
			"status":     string(domain.ReservationStatusExpired),
			"expires_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *DefaultReservationRepository) CountActiveCohort(ctx context.Context, q domain.CohortQuery) (int64, error) {
	var count int64
	query := r.DB.WithContext(ctx).Model(&models.ReservationModel{}).
		Where("base_amount_minor = ? AND status = ? AND expires_at > ? AND created_at >= ?",
			domain.ToMinorUnits(q.BaseAmount), string(domain.ReservationStatusReserved), q.Now, q.CreatedAfter)
	if q.ExcludeID != "" {
		query = query.Where("id <> ?", q.ExcludeID)
	}
	err := query.Count(&count).Error
	return count, err
}
