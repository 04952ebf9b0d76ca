package core

import (
	"context"
	"fmt"
	"math"

	"fishynet/pkg/domain"
)

// balanceEpsilon absorbs float accumulation noise when summing deltas of
// 2-decimal currency amounts.
const balanceEpsilon = 1e-6

// BalanceConservationRule verifies that money only moves, never appears or
// disappears, within a single transaction: participant balance deltas sum to
// zero and no balance ends up negative. Participant creation (seeding a
// starting balance) is exempt from the zero-sum check.
func BalanceConservationRule() domain.Rule {
	return balanceConservationRule{}
}

type balanceConservationRule struct{}

func (balanceConservationRule) Name() string { return "balance_conservation" }

func (balanceConservationRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	var delta float64
	touched := false
	for _, change := range changes {
		before, after, ok := balances(change)
		if !ok {
			continue
		}
		if after < 0 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "balance_conservation",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("%s %s balance would become negative (%.2f)", change.Entity, participantID(change), after),
				Entity:   change.Entity,
				EntityID: participantID(change),
			})
		}
		if change.Action != domain.ActionUpdate {
			continue
		}
		delta += after - before
		touched = true
	}
	if touched && math.Abs(delta) > balanceEpsilon {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "balance_conservation",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("transaction creates or destroys value (net balance delta %.2f)", delta),
		})
	}
	return res, nil
}

func balances(change domain.Change) (before, after float64, ok bool) {
	switch change.Entity {
	case domain.EntityFisher:
		if b, isFisher := change.Before.(domain.Fisher); isFisher {
			before = b.Balance
		}
		a, isFisher := change.After.(domain.Fisher)
		if !isFisher {
			return 0, 0, false
		}
		return before, a.Balance, true
	case domain.EntityBuyer:
		if b, isBuyer := change.Before.(domain.Buyer); isBuyer {
			before = b.Balance
		}
		a, isBuyer := change.After.(domain.Buyer)
		if !isBuyer {
			return 0, 0, false
		}
		return before, a.Balance, true
	default:
		return 0, 0, false
	}
}

func participantID(change domain.Change) string {
	switch after := change.After.(type) {
	case domain.Fisher:
		return after.ID
	case domain.Buyer:
		return after.ID
	default:
		return ""
	}
}
