package domain

import "context"

// Transaction exposes the registry operations a persistence implementation
// must support within an atomic scope. Reads observe the transactional
// snapshot including earlier writes from the same scope; nothing becomes
// visible outside the scope until commit.
type Transaction interface {
	Snapshot() TransactionView

	AddFish(Fish) (Fish, error)
	UpdateFish(id string, mutator func(*Fish) error) (Fish, error)
	FindFish(id string) (Fish, bool)

	AddFisher(Fisher) (Fisher, error)
	UpdateFisher(id string, mutator func(*Fisher) error) (Fisher, error)
	FindFisher(id string) (Fisher, bool)

	AddBuyer(Buyer) (Buyer, error)
	UpdateBuyer(id string, mutator func(*Buyer) error) (Buyer, error)
	FindBuyer(id string) (Buyer, bool)

	AddRegulator(Regulator) (Regulator, error)
	FindRegulator(id string) (Regulator, bool)

	// RecordMeasurement appends an immutable observation. It never mutates or
	// removes earlier records.
	RecordMeasurement(Measurement) (Measurement, error)
	// LatestMeasurement resolves the current value of a type for a fish:
	// highest timestamp, ties broken by append order (last write wins).
	LatestMeasurement(fishID string, typ MeasurementType) (Measurement, bool)
}

// TransactionView provides read-only access to snapshot data for rules and
// observers.
type TransactionView interface {
	ListFish() []Fish
	FindFish(id string) (Fish, bool)
	FindFisher(id string) (Fisher, bool)
	FindBuyer(id string) (Buyer, bool)
	FindRegulator(id string) (Regulator, bool)
	ListMeasurements(fishID string) []Measurement
	LatestMeasurement(fishID string, typ MeasurementType) (Measurement, bool)
}

// RuleView is the read surface handed to rules during evaluation.
type RuleView = TransactionView

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetFish(id string) (Fish, bool)
	ListFish() []Fish
	GetFisher(id string) (Fisher, bool)
	ListFishers() []Fisher
	GetBuyer(id string) (Buyer, bool)
	ListBuyers() []Buyer
	GetRegulator(id string) (Regulator, bool)
	ListRegulators() []Regulator
	ListMeasurements(fishID string) []Measurement
	LatestMeasurement(fishID string, typ MeasurementType) (Measurement, bool)
}
