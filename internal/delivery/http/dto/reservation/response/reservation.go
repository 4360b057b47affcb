package response

import "time"

type ReservationResponse struct {
	ID            string     `json:"id"`
	TransactionID string     `json:"transaction_id"`
	BaseAmount    string     `json:"base_amount"`
	Suffix        int        `json:"suffix"`
	UniqueAmount  string     `json:"unique_amount"`
	Status        string     `json:"status"`
	ExpiresAt     time.Time  `json:"expires_at"`
	MatchedAt     *time.Time `json:"matched_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
