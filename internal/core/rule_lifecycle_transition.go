package core

import (
	"context"
	"fmt"

	"fishynet/pkg/domain"
)

// LifecycleTransitionRule blocks fish mutations that step outside the
// transition table: illegal state moves, kind changes, or a reassigned
// originating fisher. It is the safety net behind the processors' own checks.
func LifecycleTransitionRule() domain.Rule {
	return lifecycleTransitionRule{}
}

type lifecycleTransitionRule struct{}

// creationStates maps a fish kind to its only legal initial state: wild fish
// enter storage directly, farmed fish are born alive.
var creationStates = map[domain.FishKind]domain.FishState{
	domain.KindWild:   domain.StateStored,
	domain.KindFarmed: domain.StateAlive,
}

// legalMoves enumerates the state changes an update may apply.
var legalMoves = map[domain.FishState]map[domain.FishState]struct{}{
	domain.StateAlive:  {domain.StateStored: {}},
	domain.StateStored: {domain.StateEvaluated: {}},
}

func (lifecycleTransitionRule) Name() string { return "lifecycle_transition" }

func (lifecycleTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityFish {
			continue
		}
		after, ok := change.After.(domain.Fish)
		if !ok {
			continue
		}
		switch change.Action {
		case domain.ActionCreate:
			if want, known := creationStates[after.Kind]; !known || after.State != want {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "lifecycle_transition",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("fish %s of kind %s cannot be created in state %s", after.ID, after.Kind, after.State),
					Entity:   domain.EntityFish,
					EntityID: after.ID,
				})
			}
		case domain.ActionUpdate:
			before, ok := change.Before.(domain.Fish)
			if !ok {
				continue
			}
			if after.Kind != before.Kind {
				res.Violations = append(res.Violations, violation(after.ID, fmt.Sprintf("fish %s kind is immutable", after.ID)))
			}
			if after.FisherID != before.FisherID {
				res.Violations = append(res.Violations, violation(after.ID, fmt.Sprintf("fish %s originating fisher is immutable", after.ID)))
			}
			if after.State == before.State {
				continue
			}
			if _, ok := legalMoves[before.State][after.State]; !ok {
				res.Violations = append(res.Violations, violation(after.ID,
					fmt.Sprintf("fish %s cannot move from %s to %s", after.ID, before.State, after.State)))
			}
		}
	}
	return res, nil
}

func violation(id, msg string) domain.Violation {
	return domain.Violation{
		Rule:     "lifecycle_transition",
		Severity: domain.SeverityBlock,
		Message:  msg,
		Entity:   domain.EntityFish,
		EntityID: id,
	}
}
