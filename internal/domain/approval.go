package domain

import (
	"context"
	"time"
)

type ApprovalStatus string

const (
	ApprovalStatusPendingReview    ApprovalStatus = "pending_review"
	ApprovalStatusAutoApproved     ApprovalStatus = "auto_approved"
	ApprovalStatusManuallyApproved ApprovalStatus = "manually_approved"
	ApprovalStatusRejected         ApprovalStatus = "rejected"
	ApprovalStatusExpired          ApprovalStatus = "expired"
	ApprovalStatusCancelled        ApprovalStatus = "cancelled"
	ApprovalStatusDeleted          ApprovalStatus = "deleted"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalStatusPendingReview, ApprovalStatusAutoApproved, ApprovalStatusManuallyApproved,
		ApprovalStatusRejected, ApprovalStatusExpired, ApprovalStatusCancelled, ApprovalStatusDeleted:
		return true
	}
	return false
}

func (s ApprovalStatus) IsApproved() bool {
	return s == ApprovalStatusAutoApproved || s == ApprovalStatusManuallyApproved
}

type Confidence string

const (
	ConfidenceHigh      Confidence = "high"
	ConfidenceAmbiguous Confidence = "ambiguous"
)

// ApprovedByAuto marks approvals made by the engine rather than a person.
const ApprovedByAuto = "auto"

type Approval struct {
	ID                   string
	NotificationID       string
	MatchedTransactionID string
	DeviceID             string
	Status               ApprovalStatus
	Confidence           Confidence
	ApprovedBy           string
	ApprovedAt           *time.Time
	RejectedAt           *time.Time
	RejectionReason      string
	SyncedVersion        int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ApprovalTransition describes a move out of pending_review.
type ApprovalTransition struct {
	To     ApprovalStatus
	By     string
	Reason string
	At     time.Time
}

type ApprovalFilter struct {
	Status       ApprovalStatus
	DeviceID     string
	UpdatedSince time.Time
	Limit        int
	Offset       int
}

type ApprovalRepository interface {
	CreateApproval(ctx context.Context, approval *Approval) error
	GetApprovalByID(ctx context.Context, approvalID string) (*Approval, error)
	// TransitionApproval applies t only while the approval is pending_review,
	// bumping synced_version. It reports whether the transition happened.
	TransitionApproval(ctx context.Context, approvalID string, t ApprovalTransition) (bool, error)
	ListApprovals(ctx context.Context, filter ApprovalFilter) ([]*Approval, error)
	FindStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]*Approval, error)
}
