package statemachine

import (
	"fmt"

	"table-order/models"
)

// PaymentTransition is an allowed payment-status change
type PaymentTransition struct {
	From models.PaymentStatus `json:"from"`
	To   models.PaymentStatus `json:"to"`
}

// paid is absorbing: nothing leaves it.
var paymentTransitions = []PaymentTransition{
	{From: models.PaymentUnpaid, To: models.PaymentPaid},
	{From: models.PaymentUnpaid, To: models.PaymentPendingVerification},
	{From: models.PaymentPendingVerification, To: models.PaymentPaid},
	// customers at "pay at restaurant" may still pay online, or staff take cash
	{From: models.PaymentAtRestaurant, To: models.PaymentUnpaid},
	{From: models.PaymentAtRestaurant, To: models.PaymentPendingVerification},
	{From: models.PaymentAtRestaurant, To: models.PaymentPaid},
}

var paymentMap = func() map[PaymentTransition]bool {
	m := make(map[PaymentTransition]bool)
	for _, t := range paymentTransitions {
		m[t] = true
	}
	return m
}()

// CanSetPayment checks a payment-status change
func CanSetPayment(from, to models.PaymentStatus) error {
	if paymentMap[PaymentTransition{From: from, To: to}] {
		return nil
	}
	if from == models.PaymentPaid {
		return fmt.Errorf("%w: payment is already %s", ErrInvalidTransition, from)
	}
	return fmt.Errorf("%w: payment %s → %s is not allowed", ErrInvalidTransition, from, to)
}

// ValidPaymentTransitionsFrom lists payment states reachable from status
func ValidPaymentTransitionsFrom(status models.PaymentStatus) []models.PaymentStatus {
	var nexts []models.PaymentStatus
	for _, t := range paymentTransitions {
		if t.From == status {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// GetAllPaymentTransitions returns the payment state machine for documentation
func GetAllPaymentTransitions() []PaymentTransition {
	out := make([]PaymentTransition, len(paymentTransitions))
	copy(out, paymentTransitions)
	return out
}
