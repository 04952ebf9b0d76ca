package core

import "fishynet/pkg/domain"

// TransitionEvent names a requested state-machine transition.
type TransitionEvent string

// Transition events, one per transaction kind.
const (
	EventCatch    TransitionEvent = "catch"
	EventProduce  TransitionEvent = "produce"
	EventKill     TransitionEvent = "kill"
	EventMeasure  TransitionEvent = "measure"
	EventEvaluate TransitionEvent = "evaluate"
	EventTrade    TransitionEvent = "trade"
)

// StateNone is the pseudo-state of a fish that does not exist yet; creation
// events transition out of it.
const StateNone domain.FishState = ""

type transitionKey struct {
	from  domain.FishState
	event TransitionEvent
}

// transitionTable maps legal (state, event) pairs to the roles allowed to
// request them. Processors layer finer preconditions (ownership, measurement
// type, evaluation requirement per counterparty) on top of this table.
var transitionTable = map[transitionKey]map[domain.ParticipantRole]struct{}{
	{StateNone, EventCatch}:               roles(domain.RoleFisher),
	{StateNone, EventProduce}:             roles(domain.RoleFisher),
	{domain.StateAlive, EventKill}:        roles(domain.RoleFisher),
	{domain.StateStored, EventEvaluate}:   roles(domain.RoleRegulator),
	{domain.StateStored, EventMeasure}:    roles(domain.RoleFisher, domain.RoleRegulator),
	{domain.StateEvaluated, EventMeasure}: roles(domain.RoleFisher, domain.RoleRegulator),
	{domain.StateStored, EventTrade}:      roles(domain.RoleFisher),
	{domain.StateEvaluated, EventTrade}:   roles(domain.RoleFisher, domain.RoleBuyer),
}

// nextStates gives the resulting state for transitions that move the fish.
// Events absent from this map leave the state unchanged.
var nextStates = map[transitionKey]domain.FishState{
	{StateNone, EventCatch}:             domain.StateStored,
	{StateNone, EventProduce}:           domain.StateAlive,
	{domain.StateAlive, EventKill}:      domain.StateStored,
	{domain.StateStored, EventEvaluate}: domain.StateEvaluated,
}

func roles(rs ...domain.ParticipantRole) map[domain.ParticipantRole]struct{} {
	set := make(map[domain.ParticipantRole]struct{}, len(rs))
	for _, r := range rs {
		set[r] = struct{}{}
	}
	return set
}

// CanTransition reports whether the actor role may apply the event to a fish
// in the given state.
func CanTransition(from domain.FishState, event TransitionEvent, actor domain.ParticipantRole) bool {
	allowed, ok := transitionTable[transitionKey{from, event}]
	if !ok {
		return false
	}
	_, ok = allowed[actor]
	return ok
}

// NextState returns the state a fish ends up in after the event. The second
// return is false for illegal (state, event) pairs.
func NextState(from domain.FishState, event TransitionEvent) (domain.FishState, bool) {
	if _, legal := transitionTable[transitionKey{from, event}]; !legal {
		return from, false
	}
	if to, ok := nextStates[transitionKey{from, event}]; ok {
		return to, true
	}
	return from, true
}
