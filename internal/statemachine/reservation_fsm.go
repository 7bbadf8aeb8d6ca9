package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/stayops/stayops-api/internal/models"
)

// ReservationFSM wraps a reservation with its status state machine.
// It is the single source of truth for which status edges are legal;
// the transition engine consults it before writing anything.
type ReservationFSM struct {
	reservation *models.Reservation
	fsm         *fsm.FSM
}

// Event names for reservation status transitions
const (
	EventConfirm         = "confirm"
	EventMarkCheckinDue  = "mark_checkin_due"
	EventCheckIn         = "check_in"
	EventEarlyCheckIn    = "early_check_in"
	EventMarkCheckoutDue = "mark_checkout_due"
	EventCheckOut        = "check_out"
	EventMarkNoShow      = "mark_no_show"
	EventCancel          = "cancel"
)

// NewReservationFSM creates a state machine seeded with the reservation's
// current status.
func NewReservationFSM(reservation *models.Reservation) *ReservationFSM {
	rfsm := &ReservationFSM{
		reservation: reservation,
	}

	rfsm.fsm = fsm.NewFSM(
		reservation.Status,
		fsm.Events{
			// confirmation_pending → confirmed
			{Name: EventConfirm, Src: []string{models.StatusConfirmationPending}, Dst: models.StatusConfirmed},

			// confirmed → checkin_due
			{Name: EventMarkCheckinDue, Src: []string{models.StatusConfirmed}, Dst: models.StatusCheckinDue},

			// confirmed/checkin_due → in_house
			{Name: EventCheckIn, Src: []string{models.StatusConfirmed, models.StatusCheckinDue}, Dst: models.StatusInHouse},

			// confirmation_pending → in_house; only reachable through the
			// approval gate, never by a direct caller
			{Name: EventEarlyCheckIn, Src: []string{models.StatusConfirmationPending, models.StatusConfirmed, models.StatusCheckinDue}, Dst: models.StatusInHouse},

			// in_house → checkout_due
			{Name: EventMarkCheckoutDue, Src: []string{models.StatusInHouse}, Dst: models.StatusCheckoutDue},

			// in_house/checkout_due → checked_out
			{Name: EventCheckOut, Src: []string{models.StatusInHouse, models.StatusCheckoutDue}, Dst: models.StatusCheckedOut},

			// confirmed/checkin_due → no_show
			{Name: EventMarkNoShow, Src: []string{models.StatusConfirmed, models.StatusCheckinDue}, Dst: models.StatusNoShow},

			// confirmation_pending/confirmed/checkin_due → cancelled
			{Name: EventCancel, Src: []string{models.StatusConfirmationPending, models.StatusConfirmed, models.StatusCheckinDue}, Dst: models.StatusCancelled},
		},
		fsm.Callbacks{},
	)

	return rfsm
}

// EventForTarget maps a requested target status to the event that reaches
// it. approvalGranted widens CONFIRMATION_PENDING → IN_HOUSE for requests
// arriving pre-validated from the approval gate.
func EventForTarget(target string, approvalGranted bool) (string, error) {
	switch target {
	case models.StatusConfirmed:
		return EventConfirm, nil
	case models.StatusCheckinDue:
		return EventMarkCheckinDue, nil
	case models.StatusInHouse:
		if approvalGranted {
			return EventEarlyCheckIn, nil
		}
		return EventCheckIn, nil
	case models.StatusCheckoutDue:
		return EventMarkCheckoutDue, nil
	case models.StatusCheckedOut:
		return EventCheckOut, nil
	case models.StatusNoShow:
		return EventMarkNoShow, nil
	case models.StatusCancelled:
		return EventCancel, nil
	}
	return "", fmt.Errorf("no transition event targets status %q", target)
}

// Fire validates and applies the named event, copying the resulting
// state back onto the reservation.
func (r *ReservationFSM) Fire(ctx context.Context, event string) error {
	if err := r.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("cannot %s reservation in state %s: %w", event, r.reservation.Status, err)
	}

	r.reservation.Status = r.fsm.Current()
	return nil
}

// Current returns the current state
func (r *ReservationFSM) Current() string {
	return r.fsm.Current()
}

// Can checks if a transition is possible
func (r *ReservationFSM) Can(event string) bool {
	return r.fsm.Can(event)
}
