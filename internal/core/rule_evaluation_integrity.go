package core

import (
	"context"
	"fmt"

	"fishynet/pkg/domain"
)

// EvaluationIntegrityRule enforces the evaluation invariant on every fish
// write: the regulator reference is set if and only if the fish is EVALUATED.
func EvaluationIntegrityRule() domain.Rule {
	return evaluationIntegrityRule{}
}

type evaluationIntegrityRule struct{}

func (evaluationIntegrityRule) Name() string { return "evaluation_integrity" }

func (evaluationIntegrityRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityFish {
			continue
		}
		after, ok := change.After.(domain.Fish)
		if !ok {
			continue
		}
		evaluated := after.State == domain.StateEvaluated
		signed := after.RegulatorID != ""
		if evaluated == signed {
			continue
		}
		msg := fmt.Sprintf("fish %s is %s but has no regulator reference", after.ID, after.State)
		if signed {
			msg = fmt.Sprintf("fish %s carries regulator %s while in state %s", after.ID, after.RegulatorID, after.State)
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "evaluation_integrity",
			Severity: domain.SeverityBlock,
			Message:  msg,
			Entity:   domain.EntityFish,
			EntityID: after.ID,
		})
	}
	return res, nil
}
