package mappers

import (
	"github.com/xjanova/smschecker-sub001/internal/domain"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/postgres/models"
)

func ToGORMReservation(r *domain.UniquePaymentAmount) *models.ReservationModel {
	return &models.ReservationModel{
		ID:                r.ID,
		BaseAmountMinor:   domain.ToMinorUnits(r.BaseAmount),
		Suffix:            r.Suffix,
		UniqueAmountMinor: domain.ToMinorUnits(r.UniqueAmount),
		Status:            string(r.Status),
		TransactionID:     r.TransactionID,
		ExpiresAt:         r.ExpiresAt,
		MatchedAt:         r.MatchedAt,
		CreatedAt:         r.CreatedAt,
	}
}

func ToDomainReservation(model *models.ReservationModel) *domain.UniquePaymentAmount {
	return &domain.UniquePaymentAmount{
		ID:            model.ID,
		BaseAmount:    domain.FromMinorUnits(model.BaseAmountMinor),
		Suffix:        model.Suffix,
		UniqueAmount:  domain.FromMinorUnits(model.UniqueAmountMinor),
		Status:        domain.ReservationStatus(model.Status),
		TransactionID: model.TransactionID,
		ExpiresAt:     model.ExpiresAt,
		MatchedAt:     model.MatchedAt,
		CreatedAt:     model.CreatedAt,
	}
}
