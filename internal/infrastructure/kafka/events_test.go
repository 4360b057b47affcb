package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xjanova/smschecker-sub001/internal/domain"
)

type recordedMessage struct {
	topic string
	msg   domain.Message
}

type recordingPort struct {
	mu   sync.Mutex
	sent []recordedMessage
}

func (p *recordingPort) Publish(_ context.Context, topic string, msgs ...domain.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range msgs {
		p.sent = append(p.sent, recordedMessage{topic: topic, msg: m})
	}
	return nil
}

func TestEventPublisherRoutesByTopicAndKey(t *testing.T) {
	port := &recordingPort{}
	pub := NewEventPublisher(port, Topics{Notifications: "n", Approvals: "a", Reservations: "r"})
	ctx := context.Background()

	if err := pub.PublishNotification(ctx, domain.NotificationEvent{NotificationID: "n1", DeviceID: "dev"}); err != nil {
		t.Fatalf("publish notification: %v", err)
	}
	if err := pub.PublishApproval(ctx, domain.ApprovalEvent{ApprovalID: "a1", MatchedTransactionID: "order-1", SyncedVersion: 2}); err != nil {
		t.Fatalf("publish approval: %v", err)
	}
	if err := pub.PublishReservation(ctx, domain.ReservationEvent{ReservationID: "r1", TransactionID: "order-2"}); err != nil {
		t.Fatalf("publish reservation: %v", err)
	}

	if len(port.sent) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(port.sent))
	}
	want := []struct{ topic, key string }{{"n", "dev"}, {"a", "order-1"}, {"r", "order-2"}}
	for i, w := range want {
		if port.sent[i].topic != w.topic || string(port.sent[i].msg.Key) != w.key {
			t.Fatalf("message %d: got topic=%s key=%s", i, port.sent[i].topic, port.sent[i].msg.Key)
		}
	}

	var approval domain.ApprovalEvent
	if err := json.Unmarshal(port.sent[1].msg.Value, &approval); err != nil {
		t.Fatalf("decode approval event: %v", err)
	}
	if approval.SyncedVersion != 2 {
		t.Fatalf("expected synced_version 2, got %d", approval.SyncedVersion)
	}
}

func TestConfirmationNotifierPayload(t *testing.T) {
	port := &recordingPort{}
	n := NewConfirmationNotifier(port, "order-confirmations")
	err := n.ConfirmOrder(context.Background(), domain.OrderConfirmation{
		TransactionID: "order-9",
		Amount:        decimal.RequireFromString("100.5"),
		ApprovedBy:    domain.ApprovedByAuto,
		ApprovedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	var ev OrderConfirmedEvent
	if err := json.Unmarshal(port.sent[0].msg.Value, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Amount != "100.50" || ev.TransactionID != "order-9" || port.sent[0].topic != "order-confirmations" {
		t.Fatalf("unexpected confirmation %+v on %s", ev, port.sent[0].topic)
	}
}
