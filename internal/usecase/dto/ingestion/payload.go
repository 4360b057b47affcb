package ingestiondto

import "encoding/json"

// Payload is the decrypted notification body as sent by the device.
type Payload struct {
	Bank             string          `json:"bank"`
	Type             string          `json:"type"`
	Amount           json.RawMessage `json:"amount"`
	AccountNumber    string          `json:"account_number,omitempty"`
	SenderOrReceiver string          `json:"sender_or_receiver,omitempty"`
	ReferenceNumber  string          `json:"reference_number,omitempty"`
	SMSTimestamp     int64           `json:"sms_timestamp"`
	DeviceID         string          `json:"device_id"`
	Nonce            string          `json:"nonce"`
}
