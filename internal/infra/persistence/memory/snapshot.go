package memory

import (
	"sort"

	"fishynet/pkg/domain"
)

// Snapshot captures a point-in-time clone of the store state in a shape
// suitable for JSON persistence. Slices are sorted by ID (measurements by
// append sequence) so snapshots are byte-stable across runs.
type Snapshot struct {
	Fish         []domain.Fish        `json:"fish"`
	Fishers      []domain.Fisher      `json:"fishers"`
	Buyers       []domain.Buyer       `json:"buyers"`
	Regulators   []domain.Regulator   `json:"regulators"`
	Measurements []domain.Measurement `json:"measurements"`
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Fish:       make([]domain.Fish, 0, len(state.fish)),
		Fishers:    make([]domain.Fisher, 0, len(state.fishers)),
		Buyers:     make([]domain.Buyer, 0, len(state.buyers)),
		Regulators: make([]domain.Regulator, 0, len(state.regulators)),
	}
	for _, f := range state.fish {
		s.Fish = append(s.Fish, cloneFish(f))
	}
	for _, f := range state.fishers {
		s.Fishers = append(s.Fishers, f)
	}
	for _, b := range state.buyers {
		s.Buyers = append(s.Buyers, b)
	}
	for _, r := range state.regulators {
		s.Regulators = append(s.Regulators, r)
	}
	for _, history := range state.measurements {
		s.Measurements = append(s.Measurements, history...)
	}
	sort.Slice(s.Fish, func(i, j int) bool { return s.Fish[i].ID < s.Fish[j].ID })
	sort.Slice(s.Fishers, func(i, j int) bool { return s.Fishers[i].ID < s.Fishers[j].ID })
	sort.Slice(s.Buyers, func(i, j int) bool { return s.Buyers[i].ID < s.Buyers[j].ID })
	sort.Slice(s.Regulators, func(i, j int) bool { return s.Regulators[i].ID < s.Regulators[j].ID })
	sort.Slice(s.Measurements, func(i, j int) bool { return s.Measurements[i].Seq < s.Measurements[j].Seq })
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for _, f := range s.Fish {
		state.fish[f.ID] = cloneFish(f)
	}
	for _, f := range s.Fishers {
		state.fishers[f.ID] = f
	}
	for _, b := range s.Buyers {
		state.buyers[b.ID] = b
	}
	for _, r := range s.Regulators {
		state.regulators[r.ID] = r
	}
	for _, m := range s.Measurements {
		state.measurements[m.FishID] = append(state.measurements[m.FishID], m)
		indexLatest(&state, m)
		if m.Seq > state.seq {
			state.seq = m.Seq
		}
	}
	return state
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}
