package usecase

import (
	"context"

	"github.com/xjanova/smschecker-sub001/internal/domain"
)

type NoopConfirmationNotifier struct{}

func (NoopConfirmationNotifier) ConfirmOrder(context.Context, domain.OrderConfirmation) error {
	return nil
}

// NoopOrderDetailsResolver is used when no order service is configured.
type NoopOrderDetailsResolver struct{}

func (NoopOrderDetailsResolver) ResolveOrder(context.Context, string) (*domain.OrderDetails, error) {
	return nil, nil
}

type NoopEventPublisher struct{}

func (NoopEventPublisher) PublishNotification(context.Context, domain.NotificationEvent) error {
	return nil
}

func (NoopEventPublisher) PublishApproval(context.Context, domain.ApprovalEvent) error {
	return nil
}

func (NoopEventPublisher) PublishReservation(context.Context, domain.ReservationEvent) error {
	return nil
}
