package statemachine

import (
	"context"
	"testing"

	"github.com/stayops/stayops-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reservationIn(status string) *models.Reservation {
	return &models.Reservation{ID: 1, Status: status}
}

func TestHappyPath(t *testing.T) {
	ctx := context.Background()
	reservation := reservationIn(models.StatusConfirmationPending)

	steps := []struct {
		event string
		want  string
	}{
		{EventConfirm, models.StatusConfirmed},
		{EventMarkCheckinDue, models.StatusCheckinDue},
		{EventCheckIn, models.StatusInHouse},
		{EventMarkCheckoutDue, models.StatusCheckoutDue},
		{EventCheckOut, models.StatusCheckedOut},
	}

	for _, step := range steps {
		rfsm := NewReservationFSM(reservation)
		require.NoError(t, rfsm.Fire(ctx, step.event))
		assert.Equal(t, step.want, reservation.Status)
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	ctx := context.Background()
	events := []string{
		EventConfirm, EventMarkCheckinDue, EventCheckIn, EventEarlyCheckIn,
		EventMarkCheckoutDue, EventCheckOut, EventMarkNoShow, EventCancel,
	}

	for _, terminal := range []string{models.StatusCheckedOut, models.StatusNoShow, models.StatusCancelled} {
		for _, event := range events {
			reservation := reservationIn(terminal)
			rfsm := NewReservationFSM(reservation)
			err := rfsm.Fire(ctx, event)
			assert.Error(t, err, "event %s must not leave %s", event, terminal)
			assert.Equal(t, terminal, reservation.Status, "failed fire must not mutate status")
		}
	}
}

func TestSideExits(t *testing.T) {
	ctx := context.Background()

	// No-show only from the pre-arrival statuses
	for _, src := range []string{models.StatusConfirmed, models.StatusCheckinDue} {
		reservation := reservationIn(src)
		require.NoError(t, NewReservationFSM(reservation).Fire(ctx, EventMarkNoShow))
		assert.Equal(t, models.StatusNoShow, reservation.Status)
	}
	inHouse := reservationIn(models.StatusInHouse)
	assert.Error(t, NewReservationFSM(inHouse).Fire(ctx, EventMarkNoShow))

	// Cancellation stops being possible once the guest is in the building
	for _, src := range []string{models.StatusConfirmationPending, models.StatusConfirmed, models.StatusCheckinDue} {
		reservation := reservationIn(src)
		require.NoError(t, NewReservationFSM(reservation).Fire(ctx, EventCancel))
		assert.Equal(t, models.StatusCancelled, reservation.Status)
	}
	assert.Error(t, NewReservationFSM(reservationIn(models.StatusInHouse)).Fire(ctx, EventCancel))
	assert.Error(t, NewReservationFSM(reservationIn(models.StatusCheckoutDue)).Fire(ctx, EventCancel))
}

func TestSkipLevelCheckInAndOut(t *testing.T) {
	ctx := context.Background()

	// CONFIRMED can check in without passing through CHECKIN_DUE
	reservation := reservationIn(models.StatusConfirmed)
	require.NoError(t, NewReservationFSM(reservation).Fire(ctx, EventCheckIn))
	assert.Equal(t, models.StatusInHouse, reservation.Status)

	// IN_HOUSE can check out without passing through CHECKOUT_DUE
	reservation = reservationIn(models.StatusInHouse)
	require.NoError(t, NewReservationFSM(reservation).Fire(ctx, EventCheckOut))
	assert.Equal(t, models.StatusCheckedOut, reservation.Status)
}

func TestEventForTarget(t *testing.T) {
	cases := []struct {
		target          string
		approvalGranted bool
		want            string
	}{
		{models.StatusConfirmed, false, EventConfirm},
		{models.StatusCheckinDue, false, EventMarkCheckinDue},
		{models.StatusInHouse, false, EventCheckIn},
		{models.StatusInHouse, true, EventEarlyCheckIn},
		{models.StatusCheckoutDue, false, EventMarkCheckoutDue},
		{models.StatusCheckedOut, false, EventCheckOut},
		{models.StatusNoShow, false, EventMarkNoShow},
		{models.StatusCancelled, false, EventCancel},
	}

	for _, tc := range cases {
		event, err := EventForTarget(tc.target, tc.approvalGranted)
		require.NoError(t, err)
		assert.Equal(t, tc.want, event)
	}

	// CONFIRMATION_PENDING is never a target, only a starting point
	_, err := EventForTarget(models.StatusConfirmationPending, false)
	assert.Error(t, err)
}

func TestEarlyCheckInGate(t *testing.T) {
	ctx := context.Background()

	// The plain check-in event cannot leave CONFIRMATION_PENDING
	reservation := reservationIn(models.StatusConfirmationPending)
	assert.Error(t, NewReservationFSM(reservation).Fire(ctx, EventCheckIn))

	// The approval-gated event can
	require.NoError(t, NewReservationFSM(reservation).Fire(ctx, EventEarlyCheckIn))
	assert.Equal(t, models.StatusInHouse, reservation.Status)
}
