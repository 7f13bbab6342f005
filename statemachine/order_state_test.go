package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"table-order/models"
)

func TestNextStatusWalksForwardOneStep(t *testing.T) {
	chain := []models.OrderStatus{
		models.StatusPending,
		models.StatusConfirmed,
		models.StatusPreparing,
		models.StatusReady,
		models.StatusServed,
	}
	for i := 0; i < len(chain)-1; i++ {
		next, ok := NextStatus(chain[i])
		require.True(t, ok, "expected a next status from %s", chain[i])
		assert.Equal(t, chain[i+1], next)
	}

	_, ok := NextStatus(models.StatusServed)
	assert.False(t, ok, "served must not advance")
	_, ok = NextStatus(models.StatusCompleted)
	assert.False(t, ok, "completed must not advance")
}

func TestCanTransition(t *testing.T) {
	assert.NoError(t, CanTransition(models.StatusPending, models.StatusConfirmed, ActionAdvance))
	assert.NoError(t, CanTransition(models.StatusServed, models.StatusCompleted, ActionCloseBill))

	err := CanTransition(models.StatusPending, models.StatusPreparing, ActionAdvance)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "Valid transitions from pending are: confirmed")

	assert.ErrorIs(t, CanTransition(models.StatusReady, models.StatusPreparing, ActionAdvance), ErrInvalidTransition)
	assert.ErrorIs(t, CanTransition(models.StatusServed, models.StatusCompleted, ActionAdvance), ErrInvalidTransition)
	assert.ErrorIs(t, CanTransition(models.StatusReady, models.StatusCompleted, ActionCloseBill), ErrInvalidTransition)

	err = CanTransition(models.StatusCompleted, models.StatusPending, ActionAdvance)
	assert.Contains(t, err.Error(), "none (terminal state)")
}

func TestCanAdvancePaymentGuard(t *testing.T) {
	cases := []struct {
		status  models.OrderStatus
		payment models.PaymentStatus
		want    error
	}{
		{models.StatusPending, models.PaymentUnpaid, ErrPaymentRequired},
		{models.StatusPending, models.PaymentPendingVerification, ErrPaymentRequired},
		{models.StatusConfirmed, models.PaymentUnpaid, ErrPaymentRequired},
		{models.StatusConfirmed, models.PaymentPendingVerification, ErrPaymentRequired},
		{models.StatusPending, models.PaymentPaid, nil},
		{models.StatusPending, models.PaymentAtRestaurant, nil},
		{models.StatusConfirmed, models.PaymentAtRestaurant, nil},
		{models.StatusPreparing, models.PaymentUnpaid, nil},
		{models.StatusReady, models.PaymentPaid, nil},
		{models.StatusServed, models.PaymentPaid, ErrTerminalStatus},
		{models.StatusCompleted, models.PaymentPaid, ErrTerminalStatus},
	}
	for _, tc := range cases {
		err := CanAdvance(tc.status, tc.payment)
		if tc.want == nil {
			assert.NoError(t, err, "%s/%s", tc.status, tc.payment)
		} else {
			assert.ErrorIs(t, err, tc.want, "%s/%s", tc.status, tc.payment)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, IsTerminal(models.StatusCompleted))
	assert.False(t, IsTerminal(models.StatusServed))
	assert.Equal(t, []models.OrderStatus{models.StatusCompleted}, ValidTransitionsFrom(models.StatusServed))
	assert.Len(t, GetAllTransitions(), 5)
}

func TestCanSetPayment(t *testing.T) {
	assert.NoError(t, CanSetPayment(models.PaymentUnpaid, models.PaymentPaid))
	assert.NoError(t, CanSetPayment(models.PaymentUnpaid, models.PaymentPendingVerification))
	assert.NoError(t, CanSetPayment(models.PaymentPendingVerification, models.PaymentPaid))
	assert.NoError(t, CanSetPayment(models.PaymentAtRestaurant, models.PaymentUnpaid))
	assert.NoError(t, CanSetPayment(models.PaymentAtRestaurant, models.PaymentPendingVerification))
	assert.NoError(t, CanSetPayment(models.PaymentAtRestaurant, models.PaymentPaid))

	for _, to := range []models.PaymentStatus{models.PaymentUnpaid, models.PaymentPendingVerification, models.PaymentAtRestaurant, models.PaymentPaid} {
		assert.ErrorIs(t, CanSetPayment(models.PaymentPaid, to), ErrInvalidTransition, "paid → %s", to)
	}
	assert.ErrorIs(t, CanSetPayment(models.PaymentPendingVerification, models.PaymentUnpaid), ErrInvalidTransition)
	assert.ErrorIs(t, CanSetPayment(models.PaymentUnpaid, models.PaymentAtRestaurant), ErrInvalidTransition)

	assert.Empty(t, ValidPaymentTransitionsFrom(models.PaymentPaid))
	assert.Len(t, GetAllPaymentTransitions(), 6)
}
