package approvaldto

import "time"

type ListApprovalsInput struct {
	Status       string
	DeviceID     string
	UpdatedSince time.Time
	Limit        int
	Offset       int
}
