package statemachine

import (
	"errors"
	"fmt"
	"strings"

	"table-order/models"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrTerminalStatus    = errors.New("order is in a terminal state")
	ErrPaymentRequired   = errors.New("payment required before preparation")
)

// Action names the staff gesture that drives a fulfillment transition
type Action string

const (
	// ActionAdvance moves an order one step forward
	ActionAdvance Action = "advance"
	// ActionCloseBill settles a served order
	ActionCloseBill Action = "close_bill"
)

// Transition defines a valid state change and the action that performs it
type Transition struct {
	From   models.OrderStatus `json:"from"`
	To     models.OrderStatus `json:"to"`
	Action Action             `json:"action"`
}

// validTransitions is the authoritative fulfillment state machine
var validTransitions = []Transition{
	{From: models.StatusPending, To: models.StatusConfirmed, Action: ActionAdvance},
	{From: models.StatusConfirmed, To: models.StatusPreparing, Action: ActionAdvance},
	{From: models.StatusPreparing, To: models.StatusReady, Action: ActionAdvance},
	{From: models.StatusReady, To: models.StatusServed, Action: ActionAdvance},
	// Only close bill leaves served
	{From: models.StatusServed, To: models.StatusCompleted, Action: ActionCloseBill},
}

type transitionKey struct {
	From   models.OrderStatus
	To     models.OrderStatus
	Action Action
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Action}] = true
	}
	return m
}()

// advanceNext maps each status to its single advance target
var advanceNext = func() map[models.OrderStatus]models.OrderStatus {
	m := make(map[models.OrderStatus]models.OrderStatus)
	for _, t := range validTransitions {
		if t.Action == ActionAdvance {
			m[t.From] = t.To
		}
	}
	return m
}()

// NextStatus returns the legal advance target for status, if any
func NextStatus(status models.OrderStatus) (models.OrderStatus, bool) {
	next, ok := advanceNext[status]
	return next, ok
}

// IsTerminal reports whether no transition at all leaves status
func IsTerminal(status models.OrderStatus) bool {
	return len(ValidTransitionsFrom(status)) == 0
}

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if action may move an order from one state to another
func CanTransition(from, to models.OrderStatus, action Action) error {
	if transitionMap[transitionKey{From: from, To: to, Action: action}] {
		return nil
	}
	return fmt.Errorf("%w: %s → %s is not allowed for action '%s'. Valid transitions from %s are: %s",
		ErrInvalidTransition, from, to, action, from, describeValidFrom(from))
}

// CanAdvance applies the payment guard: an order still waiting for money
// (unpaid or pending verification) cannot leave pending or confirmed.
func CanAdvance(status models.OrderStatus, payment models.PaymentStatus) error {
	if _, ok := NextStatus(status); !ok {
		if status == models.StatusServed {
			return fmt.Errorf("%w: %s only moves on by closing the bill", ErrTerminalStatus, status)
		}
		return fmt.Errorf("%w: %s", ErrTerminalStatus, status)
	}
	if status == models.StatusPending || status == models.StatusConfirmed {
		if payment != models.PaymentPaid && payment != models.PaymentAtRestaurant {
			return fmt.Errorf("%w: order is %s with payment %s", ErrPaymentRequired, status, payment)
		}
	}
	return nil
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	out := make([]Transition, len(validTransitions))
	copy(out, validTransitions)
	return out
}
