package persistence

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/talgya/auralis/internal/agents"
	"github.com/talgya/auralis/internal/market"
	"github.com/talgya/auralis/internal/world"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleSnapshot() world.Snapshot {
	return world.Snapshot{
		Time:  42,
		State: market.State{Price: 117.5, Volatility: 0.08, Resources: 980.25},
		Agents: []agents.Summary{
			{Name: "scout", Personality: agents.Personality{Strategy: "simple"}, Balance: 93, Holdings: 0.5, ActionCount: 42, SuccessRate: 0.9, MemorySize: 50},
		},
		Events: []market.Event{
			{Time: 1, Type: market.EventAgentJoined, Agent: "scout"},
			{Time: 40, Type: market.EventCommunication, Agent: "scout", Message: "observed price: 117.50"},
		},
		History: []market.StepSnapshot{
			{Time: 42, State: market.State{Price: 117.5, Volatility: 0.08, Resources: 980.25}},
		},
	}
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "test.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := db.SetMeta("created", "ok"); err != nil {
		t.Fatalf("write after nested open: %v", err)
	}
}

func TestSaveLoadWorld_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	snap := sampleSnapshot()

	if err := db.SaveWorld("genesis", snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := db.LoadWorld("genesis")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(loaded, snap) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, snap)
	}
}

func TestSaveWorld_ReplacesPrevious(t *testing.T) {
	db := openTestDB(t)
	snap := sampleSnapshot()

	if err := db.SaveWorld("genesis", snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap.Time = 100
	snap.State.Price = 55
	if err := db.SaveWorld("genesis", snap); err != nil {
		t.Fatalf("resave: %v", err)
	}

	loaded, err := db.LoadWorld("genesis")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Time != 100 || loaded.State.Price != 55 {
		t.Errorf("loaded = %+v, want the replacement", loaded)
	}

	ids, err := db.ListSaved()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 1 || ids[0] != "genesis" {
		t.Errorf("ids = %v", ids)
	}
}

func TestLoadWorld_NotFound(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.LoadWorld("never-saved"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.GetMeta("seed"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	if err := db.SetMeta("seed", "1234"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := db.SetMeta("seed", "5678"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	value, err := db.GetMeta("seed")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "5678" {
		t.Errorf("value = %q, want 5678", value)
	}
}

func TestFileSnapshot_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.json")
	snap := sampleSnapshot()

	if err := SaveFile(path, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(loaded, snap) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, snap)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file should error")
	}
}
