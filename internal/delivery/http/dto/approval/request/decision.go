package request

type ApproveRequest struct {
	ApprovedBy string `json:"approved_by"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}
