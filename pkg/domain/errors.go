package domain

import (
	"errors"
	"fmt"
)

// Business-rule rejections surfaced verbatim to the caller. All are terminal:
// the engine never retries them, and no partial state is persisted when one is
// returned. Infrastructure failures from the persistence layer are wrapped
// separately and do not match any of these sentinels.
var (
	// ErrDuplicateAsset rejects creation of a fish whose ID already exists.
	ErrDuplicateAsset = errors.New("asset already exists")
	// ErrNotFound reports a missing fish or participant reference.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition reports a (state, event) pair outside the transition table.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrNotYetStored rejects evaluation of a fish that is still alive.
	ErrNotYetStored = errors.New("fish must be killed and stored before evaluation")
	// ErrNotEvaluated rejects a sale to a market buyer before regulatory sign-off.
	ErrNotEvaluated = errors.New("fish must be evaluated by a regulator before trade")
	// ErrMissingMeasurement rejects a trade without a recorded weight or fat value.
	ErrMissingMeasurement = errors.New("missing weight or fat measurement")
	// ErrInsufficientFunds rejects a trade the buyer cannot pay for.
	ErrInsufficientFunds = errors.New("insufficient buyer funds")
	// ErrUnsupportedCounterparty rejects a trade whose counterparty is neither
	// a fisher nor a buyer.
	ErrUnsupportedCounterparty = errors.New("unsupported counterparty")
)

// NotFoundError decorates ErrNotFound with the missing entity's identity.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Unwrap lets errors.Is(err, ErrNotFound) match.
func (e NotFoundError) Unwrap() error { return ErrNotFound }
