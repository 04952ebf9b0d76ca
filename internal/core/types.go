package core

import "fishynet/pkg/domain"

type (
	EntityType         = domain.EntityType
	FishKind           = domain.FishKind
	FishState          = domain.FishState
	ParticipantRole    = domain.ParticipantRole
	MeasurementType    = domain.MeasurementType
	Fish               = domain.Fish
	Fisher             = domain.Fisher
	Buyer              = domain.Buyer
	Regulator          = domain.Regulator
	Measurement        = domain.Measurement
	Event              = domain.Event
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
)

const (
	EntityFish        = domain.EntityFish
	EntityFisher      = domain.EntityFisher
	EntityBuyer       = domain.EntityBuyer
	EntityRegulator   = domain.EntityRegulator
	EntityMeasurement = domain.EntityMeasurement
)

const (
	KindWild   = domain.KindWild
	KindFarmed = domain.KindFarmed
)

const (
	StateAlive     = domain.StateAlive
	StateStored    = domain.StateStored
	StateEvaluated = domain.StateEvaluated
)

const (
	RoleFisher    = domain.RoleFisher
	RoleBuyer     = domain.RoleBuyer
	RoleRegulator = domain.RoleRegulator
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionAppend = domain.ActionAppend
)
