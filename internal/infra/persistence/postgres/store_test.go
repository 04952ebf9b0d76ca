package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"fishynet/internal/infra/persistence/postgres/testutil"
	"fishynet/pkg/domain"
)

// withStubDB routes NewStore at an in-memory stub connection.
func withStubDB(t *testing.T) (*testutil.StubConn, func()) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	openMu.Lock()
	orig := sqlOpen
	sqlOpen = func(string, string) (*sql.DB, error) { return db, nil }
	openMu.Unlock()
	return conn, func() {
		openMu.Lock()
		sqlOpen = orig
		openMu.Unlock()
	}
}

func TestNewStoreCreatesStateTable(t *testing.T) {
	conn, restore := withStubDB(t)
	defer restore()

	store, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()

	found := false
	for _, stmt := range conn.Execs {
		if stmt == "CREATE TABLE IF NOT EXISTS state ( bucket TEXT PRIMARY KEY, payload JSONB NOT NULL )" {
			found = true
		}
	}
	if !found {
		t.Fatalf("state table not created, saw %v", conn.Execs)
	}
}

func TestTransactionSnapshotsToPostgres(t *testing.T) {
	conn, restore := withStubDB(t)
	defer restore()

	store, err := NewStore("postgres://test/fishynet", nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()

	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.AddFisher(domain.Fisher{Base: domain.Base{ID: "alice"}, Balance: 115.20}); err != nil {
			return err
		}
		_, err := tx.AddFish(domain.Fish{
			Base: domain.Base{ID: "WTUNA1"}, Kind: domain.KindWild, State: domain.StateStored,
			FisherID: "alice", OwnerID: "alice",
		})
		return err
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}

	var fish []domain.Fish
	if err := json.Unmarshal(conn.Buckets["fish"], &fish); err != nil {
		t.Fatalf("decode fish bucket: %v", err)
	}
	if len(fish) != 1 || fish[0].ID != "WTUNA1" {
		t.Fatalf("unexpected fish bucket: %+v", fish)
	}
	var fishers []domain.Fisher
	if err := json.Unmarshal(conn.Buckets["fishers"], &fishers); err != nil {
		t.Fatalf("decode fishers bucket: %v", err)
	}
	if len(fishers) != 1 || fishers[0].Balance != 115.20 {
		t.Fatalf("unexpected fishers bucket: %+v", fishers)
	}
}

func TestNewStoreHydratesFromSnapshot(t *testing.T) {
	conn, restore := withStubDB(t)
	defer restore()

	payload, err := json.Marshal([]domain.Fish{{
		Base: domain.Base{ID: "WTUNA1"}, Kind: domain.KindWild, State: domain.StateEvaluated,
		FisherID: "alice", OwnerID: "alice", RegulatorID: "john",
	}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	conn.Buckets["fish"] = payload

	store, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()

	fish, ok := store.GetFish("WTUNA1")
	if !ok || fish.State != domain.StateEvaluated || fish.RegulatorID != "john" {
		t.Fatalf("snapshot not hydrated: %+v ok=%v", fish, ok)
	}
}

func TestNewStoreFailsWhenUnreachable(t *testing.T) {
	conn, restore := withStubDB(t)
	defer restore()
	conn.FailPing = true

	if _, err := NewStore("", nil); err == nil {
		t.Fatalf("expected ping failure")
	}
	conn.FailPing = false
}
