// Package domain defines the persistent entities, transaction records, value
// types, and rule evaluation primitives used by fishynet.
package domain

import "time"

// EntityType identifies the type of record stored in the registries.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityFish identifies a fish asset record.
	EntityFish EntityType = "fish"
	// EntityFisher identifies a fisher participant record.
	EntityFisher EntityType = "fisher"
	// EntityBuyer identifies a market buyer participant record.
	EntityBuyer EntityType = "buyer"
	// EntityRegulator identifies a regulator participant record.
	EntityRegulator EntityType = "regulator"
	// EntityMeasurement identifies an appended measurement record.
	EntityMeasurement EntityType = "measurement"
	// EntityParticipant is used when a reference could name any participant role.
	EntityParticipant EntityType = "participant"
)

// FishKind distinguishes wild-caught from farm-born fish. Immutable once set.
type FishKind string

// Canonical fish kinds.
const (
	KindWild   FishKind = "WILD"
	KindFarmed FishKind = "FARMED"
)

// FishState represents the lifecycle states a fish moves through between
// capture or birth and sale.
type FishState string

// Canonical fish lifecycle states.
const (
	// StateAlive applies only to farmed fish prior to the kill transition.
	StateAlive FishState = "ALIVE"
	// StateStored is the cold-storage state; wild fish are created here.
	StateStored FishState = "STORED"
	// StateEvaluated means a regulator has signed the fish off for market sale.
	StateEvaluated FishState = "EVALUATED"
)

// ParticipantRole partitions the participant registry.
type ParticipantRole string

// Canonical participant roles.
const (
	RoleFisher    ParticipantRole = "FISHER"
	RoleBuyer     ParticipantRole = "BUYER"
	RoleRegulator ParticipantRole = "REGULATOR"
)

// MeasurementType names an observed quantity. The set is extensible; the
// engine only attaches semantics to WEIGHT and FAT (pricing) and restricts
// regulators to FAT.
type MeasurementType string

// Measurement types with engine-level semantics.
const (
	MeasurementWeight      MeasurementType = "WEIGHT"
	MeasurementFat         MeasurementType = "FAT"
	MeasurementTemperature MeasurementType = "TEMPERATURE"
)

// Base carries identity and bookkeeping shared by registry entities.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Fish is the tracked physical asset, from catch or birth through sale.
// Kind and FisherID are immutable after creation; OwnerID changes only via a
// successful trade; RegulatorID is set exactly when State is EVALUATED.
type Fish struct {
	Base
	Kind        FishKind  `json:"kind"`
	State       FishState `json:"state"`
	FisherID    string    `json:"fisher_id"`
	OwnerID     string    `json:"owner_id"`
	RegulatorID string    `json:"regulator_id,omitempty"`
	OriginTxID  string    `json:"origin_tx_id"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
}

// Fisher owns fish prior to market sale and holds a monetary balance.
type Fisher struct {
	Base
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

// Buyer is the market-side participant; it may only acquire evaluated fish.
type Buyer struct {
	Base
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

// Regulator evaluates stored fish. Regulators carry no balance.
type Regulator struct {
	Base
	Name string `json:"name"`
}

// Measurement is an immutable timestamped observation attached to a fish.
// Seq disambiguates equal timestamps: the measurement appended last wins.
type Measurement struct {
	FishID     string          `json:"fish_id"`
	Seq        uint64          `json:"seq"`
	Type       MeasurementType `json:"type"`
	Value      float64         `json:"value"`
	SourceID   string          `json:"source_id"`
	SourceRole ParticipantRole `json:"source_role"`
	Timestamp  time.Time       `json:"timestamp"`
}

// CatchFish records the capture of a wild fish. The new asset is created
// directly in STORED with the catching fisher as both fisher and owner.
type CatchFish struct {
	FishID    string   `json:"fish_id"`
	FisherID  string   `json:"fisher_id"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// ProduceFish records the farm birth of a fish, created ALIVE.
type ProduceFish struct {
	FishID   string `json:"fish_id"`
	FisherID string `json:"fisher_id"`
}

// KillFish moves a farmed fish from ALIVE to STORED. Only the fish's own
// fisher may submit it.
type KillFish struct {
	FishID  string `json:"fish_id"`
	ActorID string `json:"actor_id"`
}

// MeasureFish appends an observation for a stored or evaluated fish.
type MeasureFish struct {
	FishID   string          `json:"fish_id"`
	SourceID string          `json:"source_id"`
	Type     MeasurementType `json:"type"`
	Value    float64         `json:"value"`
}

// EvaluateFish is the regulatory sign-off moving a stored fish to EVALUATED.
type EvaluateFish struct {
	FishID      string `json:"fish_id"`
	RegulatorID string `json:"regulator_id"`
}

// TradeFish transfers ownership of a fish against payment derived from its
// latest weight and fat measurements.
type TradeFish struct {
	FishID             string  `json:"fish_id"`
	BuyerID            string  `json:"buyer_id"`
	PricePerKilo       float64 `json:"price_per_kilo"`
	FatMultiplier      float64 `json:"fat_multiplier"`
	IdealFatPercentage float64 `json:"ideal_fat_percentage"`
}

// TradeReceipt reports the outcome of a committed trade, including the total
// price moved from buyer to seller.
type TradeReceipt struct {
	Fish     Fish    `json:"fish"`
	SellerID string  `json:"seller_id"`
	BuyerID  string  `json:"buyer_id"`
	Price    float64 `json:"price"`
}

// EventKind names the domain event emitted after a committed transaction.
type EventKind string

// Emitted event kinds, one per transaction processor.
const (
	EventFishCaught    EventKind = "fish_caught"
	EventFishProduced  EventKind = "fish_produced"
	EventFishKilled    EventKind = "fish_killed"
	EventFishMeasured  EventKind = "fish_measured"
	EventFishEvaluated EventKind = "fish_evaluated"
	EventFishSold      EventKind = "fish_sold"
)

// Event is the fire-and-forget notification emitted once per successful
// transaction. Only the fields relevant to the kind are populated.
type Event struct {
	ID              string          `json:"id"`
	Kind            EventKind       `json:"kind"`
	FishID          string          `json:"fish_id"`
	FisherID        string          `json:"fisher_id,omitempty"`
	SourceID        string          `json:"source_id,omitempty"`
	RegulatorID     string          `json:"regulator_id,omitempty"`
	SellerID        string          `json:"seller_id,omitempty"`
	BuyerID         string          `json:"buyer_id,omitempty"`
	MeasurementType MeasurementType `json:"measurement_type,omitempty"`
	Value           float64         `json:"value,omitempty"`
	Price           float64         `json:"price,omitempty"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

// Severity captures rule outcomes.
type Severity string

// Rule outcome severities.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate the mutations captured for rule evaluation.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	// ActionAppend indicates an append-only record was written.
	ActionAppend Action = "append"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
