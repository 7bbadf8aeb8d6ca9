package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stayops/stayops-api/internal/models"
)

// The engine depends on narrow interfaces for everything it does not
// own. Payment state, fee amounts and event transport all live behind
// these; implementations are wired in at startup.

// PricingCollaborator computes fee amounts. The scheduler owns the
// decision to charge a late-checkout fee; the amount is delegated here.
type PricingCollaborator interface {
	LateCheckoutFee(ctx context.Context, reservation *models.Reservation, settings *models.AutomationSettings, hoursLate int) (decimal.Decimal, error)
}

// PaymentCollaborator owns paymentStatus and all money movement. The
// core only reads paymentStatus off the reservation row and hands fee
// charges over, never inline with a status write.
type PaymentCollaborator interface {
	ChargeLateFee(ctx context.Context, reservationID uint, amount decimal.Decimal, description string) error
}

// StatusChangedEvent is handed to the notifier after a committed
// transition.
type StatusChangedEvent struct {
	ReservationID  uint
	PropertyID     uint
	PreviousStatus string
	NewStatus      string
	IsAutomatic    bool
}

// Notifier delivers reservation lifecycle events to the realtime /
// messaging side. Called fire-and-forget through the worker, outside
// the status-write transaction.
type Notifier interface {
	ReservationStatusChanged(ctx context.Context, event StatusChangedEvent) error
}

// NopNotifier drops events; used when no realtime transport is configured.
type NopNotifier struct{}

func (NopNotifier) ReservationStatusChanged(ctx context.Context, event StatusChangedEvent) error {
	return nil
}
