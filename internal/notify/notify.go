// Package notify delivers batched maintenance alerts to fleet staff.
package notify

import (
	"context"
	"time"
)

// AlertItem is one line of an alert notification.
type AlertItem struct {
	VehicleID   string    `json:"vehicle_id"`
	PlateNumber string    `json:"plate_number"`
	Kind        string    `json:"kind"`
	Severity    string    `json:"severity"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

type Notifier interface {
	Send(ctx context.Context, recipient, subject string, alerts []AlertItem) error
}
