package core

import "fishynet/pkg/domain"

// NewDefaultRulesEngine builds a rules engine with the built-in policy set
// evaluated at every transaction boundary.
func NewDefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(LifecycleTransitionRule())
	engine.Register(EvaluationIntegrityRule())
	engine.Register(BalanceConservationRule())
	return engine
}
