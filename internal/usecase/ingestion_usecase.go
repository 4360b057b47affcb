package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xjanova/smschecker-sub001/internal/domain"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/metrics"
	"github.com/xjanova/smschecker-sub001/internal/security"
	devicedto "github.com/xjanova/smschecker-sub001/internal/usecase/dto/device"
	ingestiondto "github.com/xjanova/smschecker-sub001/internal/usecase/dto/ingestion"
)

const (
	DefaultTimestampTolerance     = 300 * time.Second
	DefaultPendingNotificationTTL = 24 * time.Hour
)

const (
	maxBankLength             = 20
	maxAccountNumberLength    = 50
	maxSenderOrReceiverLength = 255
	maxReferenceNumberLength  = 100
	maxNonceLength            = 50
)

type IngestionUsecase interface {
	Ingest(ctx context.Context, input *ingestiondto.IngestInput) (*ingestiondto.IngestOutput, error)
	Status(ctx context.Context, input *ingestiondto.StatusInput) (*devicedto.DeviceStatusOutput, error)
	DeviceApprovals(ctx context.Context, input *ingestiondto.DeviceApprovalsInput) ([]*domain.Approval, error)
	// ExpireStaleNotifications expires notifications that never matched
	// within the pending TTL.
	ExpireStaleNotifications(ctx context.Context) (int64, error)
}

type DefaultIngestionUsecase struct {
	store        domain.Store
	protocol     *security.Protocol
	devices      DeviceUsecase
	replay       *ReplayGuard
	reservations ReservationUsecase
	approvals    ApprovalUsecase
	orders       domain.OrderDetailsResolver
	publisher    domain.EventPublisher
	auditLog     domain.IngestionLogRepository
	metrics      *metrics.MatchingMetrics
	tolerance    time.Duration
	pendingTTL   time.Duration
	clock        Clock
	logger       *slog.Logger
}

type IngestionDeps struct {
	Store        domain.Store
	Protocol     *security.Protocol
	Devices      DeviceUsecase
	Replay       *ReplayGuard
	Reservations ReservationUsecase
	Approvals    ApprovalUsecase
	Orders       domain.OrderDetailsResolver
	Publisher    domain.EventPublisher
	AuditLog     domain.IngestionLogRepository
	Metrics      *metrics.MatchingMetrics
	Tolerance    time.Duration
	PendingTTL   time.Duration
	Clock        Clock
	Logger       *slog.Logger
}

func NewDefaultIngestionUsecase(deps IngestionDeps) *DefaultIngestionUsecase {
	uc := &DefaultIngestionUsecase{
		store:        deps.Store,
		protocol:     deps.Protocol,
		devices:      deps.Devices,
		replay:       deps.Replay,
		reservations: deps.Reservations,
		approvals:    deps.Approvals,
		orders:       deps.Orders,
		publisher:    deps.Publisher,
		auditLog:     deps.AuditLog,
		metrics:      deps.Metrics,
		tolerance:    deps.Tolerance,
		pendingTTL:   deps.PendingTTL,
		clock:        deps.Clock,
		logger:       deps.Logger,
	}
	if uc.protocol == nil {
		uc.protocol = security.NewProtocol()
	}
	if uc.orders == nil {
		uc.orders = NoopOrderDetailsResolver{}
	}
	if uc.publisher == nil {
		uc.publisher = NoopEventPublisher{}
	}
	if uc.tolerance <= 0 {
		uc.tolerance = DefaultTimestampTolerance
	}
	if uc.pendingTTL <= 0 {
		uc.pendingTTL = DefaultPendingNotificationTTL
	}
	return uc
}

// ingestResult is what the transactional part of Ingest produced.
type ingestResult struct {
	notification *domain.Notification
	matched      *domain.UniquePaymentAmount
	approval     *ApprovalOutcome
}

func (uc *DefaultIngestionUsecase) Ingest(ctx context.Context, input *ingestiondto.IngestInput) (*ingestiondto.IngestOutput, error) {
	started := uc.clock.now()
	result, err := uc.ingest(ctx, input)

	elapsed := uc.clock.now().Sub(started)
	uc.audit(ctx, input, result, err, elapsed)
	if err != nil {
		uc.metrics.RecordIngestion(ingestionOutcome(err), elapsed.Seconds())
		uc.logger.Warn("notification rejected",
			"device_id", input.DeviceID,
			"nonce", input.Nonce,
			"error", err.Error(),
		)
		return nil, err
	}
	uc.metrics.RecordIngestion(domain.IngestActionAccepted, elapsed.Seconds())
	uc.complete(ctx, result)

	output := &ingestiondto.IngestOutput{
		NotificationID: result.notification.ID,
		Status:         string(result.notification.Status),
		Matched:        result.matched != nil,
	}
	if result.matched != nil {
		output.MatchedTransactionID = result.matched.TransactionID
		output.Order = uc.resolveOrder(ctx, result.matched.TransactionID)
	}
	if result.approval != nil {
		output.ApprovalID = result.approval.Approval.ID
		output.ApprovalStatus = string(result.approval.Approval.Status)
	}
	return output, nil
}

func (uc *DefaultIngestionUsecase) ingest(ctx context.Context, input *ingestiondto.IngestInput) (*ingestResult, error) {
	if input.APIKey == "" {
		return nil, domain.ErrMissingAPIKey
	}
	if input.Signature == "" || input.Nonce == "" || input.Timestamp == "" || input.DeviceID == "" || input.Data == "" {
		return nil, domain.ErrMissingHeaders
	}

	device, err := uc.devices.Authenticate(ctx, input.APIKey, input.DeviceID, true)
	if err != nil {
		return nil, err
	}

	if err := uc.checkTimestamp(input.Timestamp); err != nil {
		return nil, err
	}
	signed := security.SignatureInput(input.Data, input.Nonce, input.Timestamp)
	if !uc.protocol.Verify(signed, input.Signature, device.SecretKey) {
		return nil, domain.ErrBadSignature
	}
	plaintext, err := uc.protocol.Decrypt(input.Data, device.SecretKey)
	if err != nil {
		return nil, domain.ErrBadSignature
	}

	notification, err := parsePayload(plaintext, input)
	if err != nil {
		return nil, err
	}

	release, err := uc.replay.Precheck(ctx, input.Nonce)
	if err != nil {
		return nil, err
	}

	result := &ingestResult{}
	err = uc.store.InTx(ctx, func(tx domain.Store) error {
		now := uc.clock.now()
		if err := uc.replay.Admit(ctx, tx.Nonces(), input.Nonce, device.DeviceID, now); err != nil {
			return err
		}

		notification.ID = uuid.NewString()
		notification.Status = domain.NotificationStatusPending
		notification.CreatedAt = now
		notification.UpdatedAt = now
		if err := tx.Notifications().CreateNotification(ctx, notification); err != nil {
			return fmt.Errorf("create notification: %w", err)
		}
		result.notification = notification

		if notification.Type != domain.TransactionTypeCredit {
			return nil
		}
		matched, err := uc.reservations.TryMatch(ctx, tx, notification.Amount)
		if err != nil {
			return err
		}
		if matched == nil {
			return nil
		}
		result.matched = matched

		outcome, err := uc.approvals.CreateForMatch(ctx, tx, notification, matched, device.Config())
		if err != nil {
			return fmt.Errorf("create approval: %w", err)
		}
		result.approval = outcome
		return nil
	})
	if err != nil {
		release()
		return nil, err
	}
	return result, nil
}

func (uc *DefaultIngestionUsecase) ExpireStaleNotifications(ctx context.Context) (int64, error) {
	n, err := uc.store.Notifications().ExpirePendingBefore(ctx, uc.clock.now().Add(-uc.pendingTTL))
	if err != nil {
		return 0, err
	}
	uc.metrics.RecordSwept("notifications", n)
	return n, nil
}

// checkTimestamp accepts a millisecond timestamp within the tolerance on
// either side of now, bound included.
func (uc *DefaultIngestionUsecase) checkTimestamp(raw string) error {
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || millis <= 0 {
		return domain.ErrInvalidTimestamp
	}
	skew := uc.clock.now().Sub(time.UnixMilli(millis))
	if skew < 0 {
		skew = -skew
	}
	if skew > uc.tolerance {
		return domain.ErrTimestampExpired
	}
	return nil
}

func parsePayload(plaintext []byte, input *ingestiondto.IngestInput) (*domain.Notification, error) {
	var payload ingestiondto.Payload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		verr := domain.NewValidationError()
		verr.Add("data", "is not a valid notification payload")
		return nil, verr
	}

	verr := domain.NewValidationError()
	checkText(verr, "bank", payload.Bank, maxBankLength, true)
	checkText(verr, "account_number", payload.AccountNumber, maxAccountNumberLength, false)
	checkText(verr, "sender_or_receiver", payload.SenderOrReceiver, maxSenderOrReceiverLength, false)
	checkText(verr, "reference_number", payload.ReferenceNumber, maxReferenceNumberLength, false)
	checkText(verr, "nonce", payload.Nonce, maxNonceLength, true)

	txType := domain.TransactionType(payload.Type)
	if txType != domain.TransactionTypeCredit && txType != domain.TransactionTypeDebit {
		verr.Add("type", "must be credit or debit")
	}

	amount, err := parseAmount(payload.Amount)
	switch {
	case err != nil:
		verr.Add("amount", "must be a decimal number")
	case !amount.IsPositive():
		verr.Add("amount", "must be greater than zero")
	case !domain.HasCentPrecision(amount):
		verr.Add("amount", "must have at most two decimal places")
	case !domain.WithinAmountLimit(amount):
		verr.Add("amount", "must not exceed "+domain.MaxAmount.StringFixed(domain.MinorUnitExp))
	}

	if payload.SMSTimestamp <= 0 {
		verr.Add("sms_timestamp", "is required")
	}
	if payload.DeviceID == "" {
		verr.Add("device_id", "is required")
	} else if payload.DeviceID != input.DeviceID {
		verr.Add("device_id", "does not match the request header")
	}
	if payload.Nonce != "" && payload.Nonce != input.Nonce {
		verr.Add("nonce", "does not match the request header")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	return &domain.Notification{
		Bank:             payload.Bank,
		Type:             txType,
		Amount:           amount,
		AccountNumber:    payload.AccountNumber,
		SenderOrReceiver: payload.SenderOrReceiver,
		ReferenceNumber:  payload.ReferenceNumber,
		SMSTimestamp:     time.UnixMilli(payload.SMSTimestamp).UTC(),
		DeviceID:         payload.DeviceID,
		Nonce:            payload.Nonce,
	}, nil
}

func checkText(verr *domain.ValidationError, field, value string, max int, required bool) {
	if value == "" {
		if required {
			verr.Add(field, "is required")
		}
		return
	}
	if utf8.RuneCountInString(value) > max {
		verr.Add(field, fmt.Sprintf("must be at most %d characters", max))
	}
}

// parseAmount accepts the amount as a JSON number or a decimal string.
func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Zero, errors.New("amount is missing")
	}
	var amount decimal.Decimal
	if err := amount.UnmarshalJSON(raw); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

func (uc *DefaultIngestionUsecase) complete(ctx context.Context, result *ingestResult) {
	if result.approval != nil {
		uc.approvals.Complete(ctx, result.approval)
	}

	n := result.notification
	event := domain.NotificationEvent{
		NotificationID:       n.ID,
		DeviceID:             n.DeviceID,
		Bank:                 n.Bank,
		Type:                 string(n.Type),
		Amount:               n.Amount.StringFixed(domain.MinorUnitExp),
		Status:               string(n.Status),
		MatchedTransactionID: n.MatchedTransactionID,
		ApprovalID:           n.ApprovalID,
		OccurredAt:           uc.clock.now(),
	}
	if err := uc.publisher.PublishNotification(ctx, event); err != nil {
		uc.metrics.RecordPublishError("notification")
		uc.logger.Error("failed to publish notification event", "notification_id", n.ID, "error", err.Error())
	}

	if m := result.matched; m != nil {
		err := uc.publisher.PublishReservation(ctx, domain.ReservationEvent{
			ReservationID: m.ID,
			TransactionID: m.TransactionID,
			BaseAmount:    m.BaseAmount.StringFixed(domain.MinorUnitExp),
			UniqueAmount:  m.UniqueAmount.StringFixed(domain.MinorUnitExp),
			Status:        string(m.Status),
			ExpiresAt:     m.ExpiresAt,
			OccurredAt:    uc.clock.now(),
		})
		if err != nil {
			uc.metrics.RecordPublishError("reservation")
			uc.logger.Error("failed to publish reservation event", "transaction_id", m.TransactionID, "error", err.Error())
		}
	}

	if err := uc.devices.UpdateDeviceLiveness(ctx, n.DeviceID); err != nil {
		uc.logger.Warn("failed to stamp device liveness", "device_id", n.DeviceID, "error", err.Error())
	}
}

func (uc *DefaultIngestionUsecase) resolveOrder(ctx context.Context, transactionID string) *ingestiondto.OrderSummary {
	details, err := uc.orders.ResolveOrder(ctx, transactionID)
	if err != nil {
		uc.logger.Warn("failed to resolve order details", "transaction_id", transactionID, "error", err.Error())
		return nil
	}
	if details == nil {
		return nil
	}
	return &ingestiondto.OrderSummary{
		Reference:    details.Reference,
		CustomerName: details.CustomerName,
	}
}

func (uc *DefaultIngestionUsecase) audit(ctx context.Context, input *ingestiondto.IngestInput, result *ingestResult, ingestErr error, elapsed time.Duration) {
	if uc.auditLog == nil {
		return
	}
	entry := &domain.IngestionLog{
		ID:             uuid.NewString(),
		DeviceID:       input.DeviceID,
		Nonce:          input.Nonce,
		Success:        ingestErr == nil,
		ProcessingTime: elapsed.Milliseconds(),
		CreatedAt:      uc.clock.now(),
	}
	if ingestErr != nil {
		entry.Action = ingestionOutcome(ingestErr)
		entry.ErrorMessage = ingestErr.Error()
	} else {
		entry.Action = domain.IngestActionAccepted
		entry.NotificationID = result.notification.ID
		entry.Amount = result.notification.Amount.StringFixed(domain.MinorUnitExp)
		if result.approval != nil {
			entry.Action = domain.IngestActionMatched
			entry.ApprovalID = result.approval.Approval.ID
		}
	}
	if err := uc.auditLog.SaveIngestionLog(context.WithoutCancel(ctx), entry); err != nil {
		uc.logger.Warn("failed to save ingestion log", "nonce", input.Nonce, "error", err.Error())
	}
}

func ingestionOutcome(err error) string {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrDuplicateNonce):
		return domain.IngestActionDuplicate
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrBadRequest),
		errors.As(err, &verr):
		return domain.IngestActionRejected
	}
	return domain.IngestActionFailed
}

func (uc *DefaultIngestionUsecase) Status(ctx context.Context, input *ingestiondto.StatusInput) (*devicedto.DeviceStatusOutput, error) {
	device, err := uc.devices.Authenticate(ctx, input.APIKey, input.DeviceID, false)
	if err != nil {
		return nil, err
	}
	return uc.devices.GetDeviceStatus(ctx, device)
}

// DeviceApprovals lets a device pull approvals for its own notifications.
func (uc *DefaultIngestionUsecase) DeviceApprovals(ctx context.Context, input *ingestiondto.DeviceApprovalsInput) ([]*domain.Approval, error) {
	device, err := uc.devices.Authenticate(ctx, input.APIKey, input.DeviceID, false)
	if err != nil {
		return nil, err
	}
	filter := input.Filter
	filter.DeviceID = device.DeviceID
	return uc.approvals.ListApprovals(ctx, &filter)
}
