package core

import (
	"testing"

	"fishynet/pkg/domain"
)

func TestCanTransitionTable(t *testing.T) {
	cases := []struct {
		name  string
		from  domain.FishState
		event TransitionEvent
		actor domain.ParticipantRole
		want  bool
	}{
		{"fisher catches new fish", StateNone, EventCatch, RoleFisher, true},
		{"buyer cannot catch", StateNone, EventCatch, RoleBuyer, false},
		{"fisher produces new fish", StateNone, EventProduce, RoleFisher, true},
		{"fisher kills alive fish", StateAlive, EventKill, RoleFisher, true},
		{"fisher cannot kill stored fish", StateStored, EventKill, RoleFisher, false},
		{"regulator cannot kill", StateAlive, EventKill, RoleRegulator, false},
		{"regulator evaluates stored fish", StateStored, EventEvaluate, RoleRegulator, true},
		{"fisher cannot evaluate", StateStored, EventEvaluate, RoleFisher, false},
		{"no double evaluation", StateEvaluated, EventEvaluate, RoleRegulator, false},
		{"cannot evaluate alive fish", StateAlive, EventEvaluate, RoleRegulator, false},
		{"fisher measures stored fish", StateStored, EventMeasure, RoleFisher, true},
		{"regulator measures stored fish", StateStored, EventMeasure, RoleRegulator, true},
		{"measuring continues after evaluation", StateEvaluated, EventMeasure, RoleFisher, true},
		{"cannot measure alive fish", StateAlive, EventMeasure, RoleFisher, false},
		{"buyer cannot measure", StateStored, EventMeasure, RoleBuyer, false},
		{"fisher acquires stored fish", StateStored, EventTrade, RoleFisher, true},
		{"buyer cannot acquire stored fish", StateStored, EventTrade, RoleBuyer, false},
		{"buyer acquires evaluated fish", StateEvaluated, EventTrade, RoleBuyer, true},
		{"fisher acquires evaluated fish", StateEvaluated, EventTrade, RoleFisher, true},
		{"cannot trade alive fish", StateAlive, EventTrade, RoleBuyer, false},
		{"regulator cannot acquire fish", StateEvaluated, EventTrade, RoleRegulator, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.event, tc.actor); got != tc.want {
			t.Fatalf("%s: CanTransition(%q, %q, %q) = %v, want %v", tc.name, tc.from, tc.event, tc.actor, got, tc.want)
		}
	}
}

func TestNextState(t *testing.T) {
	cases := []struct {
		from  domain.FishState
		event TransitionEvent
		want  domain.FishState
		legal bool
	}{
		{StateNone, EventCatch, StateStored, true},
		{StateNone, EventProduce, StateAlive, true},
		{StateAlive, EventKill, StateStored, true},
		{StateStored, EventEvaluate, StateEvaluated, true},
		{StateStored, EventMeasure, StateStored, true},
		{StateEvaluated, EventTrade, StateEvaluated, true},
		{StateStored, EventKill, StateStored, false},
		{StateEvaluated, EventEvaluate, StateEvaluated, false},
	}
	for _, tc := range cases {
		got, legal := NextState(tc.from, tc.event)
		if legal != tc.legal || got != tc.want {
			t.Fatalf("NextState(%q, %q) = (%q, %v), want (%q, %v)", tc.from, tc.event, got, legal, tc.want, tc.legal)
		}
	}
}
