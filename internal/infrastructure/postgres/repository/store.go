package repository

import (
	"context"

	"github.com/xjanova/smschecker-sub001/internal/domain"
	"gorm.io/gorm"
)

// GormStore binds every repository to the same handle, either the pool or a
// single transaction.
type GormStore struct {
	db *gorm.DB

	devices       *DefaultDeviceRepository
	nonces        *DefaultNonceRepository
	reservations  *DefaultReservationRepository
	notifications *DefaultNotificationRepository
	approvals     *DefaultApprovalRepository
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:            db,
		devices:       NewDefaultDeviceRepository(db),
		nonces:        NewDefaultNonceRepository(db),
		reservations:  NewDefaultReservationRepository(db),
		notifications: NewDefaultNotificationRepository(db),
		approvals:     NewDefaultApprovalRepository(db),
	}
}

func (s *GormStore) Devices() domain.DeviceRepository             { return s.devices }
func (s *GormStore) Nonces() domain.NonceRepository               { return s.nonces }
func (s *GormStore) Reservations() domain.ReservationRepository   { return s.reservations }
func (s *GormStore) Notifications() domain.NotificationRepository { return s.notifications }
func (s *GormStore) Approvals() domain.ApprovalRepository         { return s.approvals }

func (s *GormStore) InTx(ctx context.Context, fn func(tx domain.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}
