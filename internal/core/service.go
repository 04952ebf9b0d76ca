package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"fishynet/pkg/domain"
)

// Authorizer is the boundary to the external access-control collaborator. It
// answers whether an actor may write the named resource; the engine
// re-validates domain role rules (fisher-owns-fish, regulator-role) on its
// own regardless of the answer.
type Authorizer interface {
	Authorize(ctx context.Context, actorID, resource string) error
}

type allowAll struct{}

func (allowAll) Authorize(context.Context, string, string) error { return nil }

// Service exposes one transaction processor per transaction kind. Every
// processor is a single atomic unit of work against the configured store:
// all registry writes commit together or none are observable.
type Service struct {
	store   domain.PersistentStore
	emitter EventEmitter
	metrics MetricsRecorder
	auth    Authorizer
	nowFn   func() time.Time
	idFn    func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithEmitter routes committed-transaction events to the given emitter.
func WithEmitter(emitter EventEmitter) Option {
	return func(s *Service) {
		if emitter != nil {
			s.emitter = emitter
		}
	}
}

// WithMetrics observes every processor invocation with the given recorder.
func WithMetrics(metrics MetricsRecorder) Option {
	return func(s *Service) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithAuthorizer installs the external access check consulted before each
// processor body runs.
func WithAuthorizer(auth Authorizer) Option {
	return func(s *Service) {
		if auth != nil {
			s.auth = auth
		}
	}
}

// WithNowFunc overrides the event timestamp source; used by tests.
func WithNowFunc(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.nowFn = fn
		}
	}
}

// WithIDFunc overrides the transaction/event identifier source; used by tests.
func WithIDFunc(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.idFn = fn
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:   store,
		emitter: NopEmitter{},
		metrics: NopMetricsRecorder{},
		auth:    allowAll{},
		nowFn:   func() time.Time { return time.Now().UTC() },
		idFn:    newTxID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

func newTxID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// run wraps a processor body with the access check, the transactional scope,
// and metrics observation.
func (s *Service) run(ctx context.Context, op, actorID, resource string, fn func(domain.Transaction) error) (domain.Result, error) {
	start := time.Now()
	res, err := func() (domain.Result, error) {
		if err := s.auth.Authorize(ctx, actorID, resource); err != nil {
			return domain.Result{}, fmt.Errorf("authorize %s: %w", op, err)
		}
		return s.store.RunInTransaction(ctx, fn)
	}()
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))
	return res, err
}

// emit publishes an event for a committed transaction. Failures to deliver
// never affect the already-committed mutation.
func (s *Service) emit(ctx context.Context, event domain.Event) {
	if event.ID == "" {
		event.ID = s.idFn()
	}
	event.OccurredAt = s.nowFn()
	s.emitter.Emit(ctx, event)
}

// CatchFish creates a wild fish directly in STORED, owned by the catching
// fisher.
func (s *Service) CatchFish(ctx context.Context, tx domain.CatchFish) (domain.Fish, domain.Result, error) {
	txID := s.idFn()
	var created domain.Fish
	res, err := s.run(ctx, "catch_fish", tx.FisherID, tx.FishID, func(t domain.Transaction) error {
		if _, ok := t.FindFisher(tx.FisherID); !ok {
			return domain.NotFoundError{Entity: domain.EntityFisher, ID: tx.FisherID}
		}
		var err error
		created, err = t.AddFish(domain.Fish{
			Base:       domain.Base{ID: tx.FishID},
			Kind:       domain.KindWild,
			State:      domain.StateStored,
			FisherID:   tx.FisherID,
			OwnerID:    tx.FisherID,
			OriginTxID: txID,
			Latitude:   tx.Latitude,
			Longitude:  tx.Longitude,
		})
		return err
	})
	if err != nil {
		return domain.Fish{}, res, err
	}
	s.emit(ctx, domain.Event{ID: txID, Kind: domain.EventFishCaught, FishID: created.ID, FisherID: created.FisherID})
	return created, res, nil
}

// ProduceFish creates a farmed fish in ALIVE, owned by the producing fisher.
func (s *Service) ProduceFish(ctx context.Context, tx domain.ProduceFish) (domain.Fish, domain.Result, error) {
	txID := s.idFn()
	var created domain.Fish
	res, err := s.run(ctx, "produce_fish", tx.FisherID, tx.FishID, func(t domain.Transaction) error {
		if _, ok := t.FindFisher(tx.FisherID); !ok {
			return domain.NotFoundError{Entity: domain.EntityFisher, ID: tx.FisherID}
		}
		var err error
		created, err = t.AddFish(domain.Fish{
			Base:       domain.Base{ID: tx.FishID},
			Kind:       domain.KindFarmed,
			State:      domain.StateAlive,
			FisherID:   tx.FisherID,
			OwnerID:    tx.FisherID,
			OriginTxID: txID,
		})
		return err
	})
	if err != nil {
		return domain.Fish{}, res, err
	}
	s.emit(ctx, domain.Event{ID: txID, Kind: domain.EventFishProduced, FishID: created.ID, FisherID: created.FisherID})
	return created, res, nil
}

// KillFish moves a farmed fish from ALIVE to STORED. Only the fish's own
// fisher may submit it.
func (s *Service) KillFish(ctx context.Context, tx domain.KillFish) (domain.Fish, domain.Result, error) {
	var updated domain.Fish
	res, err := s.run(ctx, "kill_fish", tx.ActorID, tx.FishID, func(t domain.Transaction) error {
		fish, ok := t.FindFish(tx.FishID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityFish, ID: tx.FishID}
		}
		if fish.FisherID != tx.ActorID {
			return fmt.Errorf("actor %s is not the fisher of fish %s: %w", tx.ActorID, fish.ID, domain.ErrInvalidTransition)
		}
		if !CanTransition(fish.State, EventKill, domain.RoleFisher) {
			return fmt.Errorf("kill fish %s in state %s: %w", fish.ID, fish.State, domain.ErrInvalidTransition)
		}
		var err error
		updated, err = t.UpdateFish(fish.ID, func(f *domain.Fish) error {
			f.State = domain.StateStored
			return nil
		})
		return err
	})
	if err != nil {
		return domain.Fish{}, res, err
	}
	s.emit(ctx, domain.Event{Kind: domain.EventFishKilled, FishID: updated.ID, FisherID: updated.FisherID})
	return updated, res, nil
}

// MeasureFish appends an observation for a stored or evaluated fish. The
// owning fisher may record any type; a regulator may record FAT only.
func (s *Service) MeasureFish(ctx context.Context, tx domain.MeasureFish) (domain.Measurement, domain.Result, error) {
	var recorded domain.Measurement
	res, err := s.run(ctx, "measure_fish", tx.SourceID, tx.FishID, func(t domain.Transaction) error {
		fish, ok := t.FindFish(tx.FishID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityFish, ID: tx.FishID}
		}
		role, ok := resolveRole(t, tx.SourceID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityParticipant, ID: tx.SourceID}
		}
		if !CanTransition(fish.State, EventMeasure, role) {
			return fmt.Errorf("measure fish %s in state %s as %s: %w", fish.ID, fish.State, role, domain.ErrInvalidTransition)
		}
		switch role {
		case domain.RoleRegulator:
			if tx.Type != domain.MeasurementFat {
				return fmt.Errorf("regulator %s may only measure fat: %w", tx.SourceID, domain.ErrInvalidTransition)
			}
		case domain.RoleFisher:
			if fish.OwnerID != tx.SourceID {
				return fmt.Errorf("fisher %s does not own fish %s: %w", tx.SourceID, fish.ID, domain.ErrInvalidTransition)
			}
		}
		var err error
		recorded, err = t.RecordMeasurement(domain.Measurement{
			FishID:     fish.ID,
			Type:       tx.Type,
			Value:      tx.Value,
			SourceID:   tx.SourceID,
			SourceRole: role,
		})
		return err
	})
	if err != nil {
		return domain.Measurement{}, res, err
	}
	s.emit(ctx, domain.Event{
		Kind:            domain.EventFishMeasured,
		FishID:          recorded.FishID,
		SourceID:        recorded.SourceID,
		MeasurementType: recorded.Type,
		Value:           recorded.Value,
	})
	return recorded, res, nil
}

// EvaluateFish is the regulatory sign-off moving a STORED fish to EVALUATED.
func (s *Service) EvaluateFish(ctx context.Context, tx domain.EvaluateFish) (domain.Fish, domain.Result, error) {
	var updated domain.Fish
	res, err := s.run(ctx, "evaluate_fish", tx.RegulatorID, tx.FishID, func(t domain.Transaction) error {
		fish, ok := t.FindFish(tx.FishID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityFish, ID: tx.FishID}
		}
		if _, ok := t.FindRegulator(tx.RegulatorID); !ok {
			return domain.NotFoundError{Entity: domain.EntityRegulator, ID: tx.RegulatorID}
		}
		switch fish.State {
		case domain.StateStored:
		case domain.StateAlive:
			return fmt.Errorf("fish %s is still alive: %w", fish.ID, domain.ErrNotYetStored)
		default:
			return fmt.Errorf("evaluate fish %s in state %s: %w", fish.ID, fish.State, domain.ErrInvalidTransition)
		}
		var err error
		updated, err = t.UpdateFish(fish.ID, func(f *domain.Fish) error {
			f.State = domain.StateEvaluated
			f.RegulatorID = tx.RegulatorID
			return nil
		})
		return err
	})
	if err != nil {
		return domain.Fish{}, res, err
	}
	s.emit(ctx, domain.Event{Kind: domain.EventFishEvaluated, FishID: updated.ID, RegulatorID: updated.RegulatorID})
	return updated, res, nil
}

// TradeFish transfers ownership against payment: the price is derived from
// the latest weight and fat measurements, debited from the acquiring party,
// and credited to the current owner, all in one atomic unit.
func (s *Service) TradeFish(ctx context.Context, tx domain.TradeFish) (domain.TradeReceipt, domain.Result, error) {
	var receipt domain.TradeReceipt
	res, err := s.run(ctx, "trade_fish", tx.BuyerID, tx.FishID, func(t domain.Transaction) error {
		fish, ok := t.FindFish(tx.FishID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityFish, ID: tx.FishID}
		}

		counterRole, counterBalance, err := resolveCounterparty(t, tx.BuyerID)
		if err != nil {
			return err
		}
		// Sales to market buyers require regulatory sign-off; fisher-to-fisher
		// trades deliberately do not.
		if counterRole == domain.RoleBuyer && fish.State != domain.StateEvaluated {
			return fmt.Errorf("fish %s in state %s: %w", fish.ID, fish.State, domain.ErrNotEvaluated)
		}
		if !CanTransition(fish.State, EventTrade, counterRole) {
			return fmt.Errorf("trade fish %s in state %s: %w", fish.ID, fish.State, domain.ErrInvalidTransition)
		}

		weight, ok := t.LatestMeasurement(fish.ID, domain.MeasurementWeight)
		if !ok {
			return fmt.Errorf("fish %s has no weight: %w", fish.ID, domain.ErrMissingMeasurement)
		}
		fat, ok := t.LatestMeasurement(fish.ID, domain.MeasurementFat)
		if !ok {
			return fmt.Errorf("fish %s has no fat: %w", fish.ID, domain.ErrMissingMeasurement)
		}
		price := Price(weight.Value, fat.Value, tx.PricePerKilo, tx.FatMultiplier, tx.IdealFatPercentage)
		if counterBalance < price {
			return fmt.Errorf("buyer %s holds %.2f, price is %.2f: %w", tx.BuyerID, counterBalance, price, domain.ErrInsufficientFunds)
		}

		if err := transfer(t, tx.BuyerID, counterRole, fish.OwnerID, price); err != nil {
			return err
		}
		sellerID := fish.OwnerID
		updated, err := t.UpdateFish(fish.ID, func(f *domain.Fish) error {
			f.OwnerID = tx.BuyerID
			return nil
		})
		if err != nil {
			return err
		}
		receipt = domain.TradeReceipt{Fish: updated, SellerID: sellerID, BuyerID: tx.BuyerID, Price: price}
		return nil
	})
	if err != nil {
		return domain.TradeReceipt{}, res, err
	}
	s.emit(ctx, domain.Event{
		Kind:     domain.EventFishSold,
		FishID:   receipt.Fish.ID,
		SellerID: receipt.SellerID,
		BuyerID:  receipt.BuyerID,
		Price:    receipt.Price,
	})
	return receipt, res, nil
}

// RegisterFisher seeds a fisher into the participant registry.
func (s *Service) RegisterFisher(ctx context.Context, fisher domain.Fisher) (domain.Fisher, domain.Result, error) {
	var created domain.Fisher
	res, err := s.run(ctx, "register_fisher", fisher.ID, fisher.ID, func(t domain.Transaction) error {
		var err error
		created, err = t.AddFisher(fisher)
		return err
	})
	return created, res, err
}

// RegisterBuyer seeds a buyer into the participant registry.
func (s *Service) RegisterBuyer(ctx context.Context, buyer domain.Buyer) (domain.Buyer, domain.Result, error) {
	var created domain.Buyer
	res, err := s.run(ctx, "register_buyer", buyer.ID, buyer.ID, func(t domain.Transaction) error {
		var err error
		created, err = t.AddBuyer(buyer)
		return err
	})
	return created, res, err
}

// RegisterRegulator seeds a regulator into the participant registry.
func (s *Service) RegisterRegulator(ctx context.Context, regulator domain.Regulator) (domain.Regulator, domain.Result, error) {
	var created domain.Regulator
	res, err := s.run(ctx, "register_regulator", regulator.ID, regulator.ID, func(t domain.Transaction) error {
		var err error
		created, err = t.AddRegulator(regulator)
		return err
	})
	return created, res, err
}

// resolveRole identifies which registry partition a participant ID belongs to.
func resolveRole(t domain.Transaction, id string) (domain.ParticipantRole, bool) {
	if _, ok := t.FindRegulator(id); ok {
		return domain.RoleRegulator, true
	}
	if _, ok := t.FindFisher(id); ok {
		return domain.RoleFisher, true
	}
	if _, ok := t.FindBuyer(id); ok {
		return domain.RoleBuyer, true
	}
	return "", false
}

// resolveCounterparty resolves the acquiring party of a trade to its role and
// current balance. Regulators hold no balance and cannot acquire fish.
func resolveCounterparty(t domain.Transaction, id string) (domain.ParticipantRole, float64, error) {
	if f, ok := t.FindFisher(id); ok {
		return domain.RoleFisher, f.Balance, nil
	}
	if b, ok := t.FindBuyer(id); ok {
		return domain.RoleBuyer, b.Balance, nil
	}
	if _, ok := t.FindRegulator(id); ok {
		return "", 0, fmt.Errorf("regulator %s cannot acquire fish: %w", id, domain.ErrUnsupportedCounterparty)
	}
	return "", 0, domain.NotFoundError{Entity: domain.EntityParticipant, ID: id}
}

// transfer moves price from the acquiring party to the current owner. The
// seller may be a fisher or, after an earlier sale, a buyer.
func transfer(t domain.Transaction, buyerID string, buyerRole domain.ParticipantRole, sellerID string, price float64) error {
	debit := func(balance *float64) error {
		if *balance < price {
			return fmt.Errorf("buyer %s: %w", buyerID, domain.ErrInsufficientFunds)
		}
		*balance = roundCurrency(*balance - price)
		return nil
	}
	switch buyerRole {
	case domain.RoleFisher:
		if _, err := t.UpdateFisher(buyerID, func(f *domain.Fisher) error { return debit(&f.Balance) }); err != nil {
			return err
		}
	case domain.RoleBuyer:
		if _, err := t.UpdateBuyer(buyerID, func(b *domain.Buyer) error { return debit(&b.Balance) }); err != nil {
			return err
		}
	default:
		return fmt.Errorf("counterparty role %s: %w", buyerRole, domain.ErrUnsupportedCounterparty)
	}

	if _, ok := t.FindFisher(sellerID); ok {
		_, err := t.UpdateFisher(sellerID, func(f *domain.Fisher) error {
			f.Balance = roundCurrency(f.Balance + price)
			return nil
		})
		return err
	}
	if _, ok := t.FindBuyer(sellerID); ok {
		_, err := t.UpdateBuyer(sellerID, func(b *domain.Buyer) error {
			b.Balance = roundCurrency(b.Balance + price)
			return nil
		})
		return err
	}
	return domain.NotFoundError{Entity: domain.EntityParticipant, ID: sellerID}
}
