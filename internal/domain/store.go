package domain

import "context"

// Store groups the repositories that take part in one unit of work.
type Store interface {
	Devices() DeviceRepository
	Nonces() NonceRepository
	Reservations() ReservationRepository
	Notifications() NotificationRepository
	Approvals() ApprovalRepository

	// InTx runs fn against a store bound to a single database transaction.
	// Returning an error from fn rolls the transaction back.
	InTx(ctx context.Context, fn func(tx Store) error) error
}
