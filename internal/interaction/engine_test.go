package interaction

import (
	"reflect"
	"sync"
	"testing"
)

func TestInitializeAgent_DefaultBasket(t *testing.T) {
	e := NewEngine()
	e.InitializeAgent("a")

	want := map[string]float64{"materials": 100, "energy": 100, "information": 50}
	if got := e.GetAgentResources("a"); !reflect.DeepEqual(got, want) {
		t.Fatalf("resources = %v, want %v", got, want)
	}

	// Re-initializing must not reset an existing ledger.
	e.TransferResources("a", "b", map[string]float64{"materials": 10})
	e.InitializeAgent("a")
	if got := e.GetAgentResources("a")["materials"]; got != 90 {
		t.Fatalf("materials = %v, want 90 after re-init no-op", got)
	}
}

func TestExecuteTrade_TwoSidedExchange(t *testing.T) {
	e := NewEngine()
	e.SetAgentResources("A", map[string]float64{"materials": 100})
	e.SetAgentResources("B", map[string]float64{"energy": 100})

	ok := e.ExecuteTrade("A", "B",
		map[string]float64{"materials": 20},
		map[string]float64{"energy": 10},
	)
	if !ok {
		t.Fatal("trade rejected")
	}

	wantA := map[string]float64{"materials": 80, "energy": 10}
	wantB := map[string]float64{"materials": 20, "energy": 90}
	if got := e.GetAgentResources("A"); !reflect.DeepEqual(got, wantA) {
		t.Errorf("A = %v, want %v", got, wantA)
	}
	if got := e.GetAgentResources("B"); !reflect.DeepEqual(got, wantB) {
		t.Errorf("B = %v, want %v", got, wantB)
	}
}

func TestExecuteTrade_AtomicRejection(t *testing.T) {
	e := NewEngine()
	e.SetAgentResources("A", map[string]float64{"materials": 5})
	e.SetAgentResources("B", map[string]float64{"energy": 100})

	beforeA := e.GetAgentResources("A")
	beforeB := e.GetAgentResources("B")

	// A cannot cover the offer: both ledgers must be untouched.
	if e.ExecuteTrade("A", "B", map[string]float64{"materials": 20}, map[string]float64{"energy": 10}) {
		t.Fatal("trade should have been rejected")
	}
	if got := e.GetAgentResources("A"); !reflect.DeepEqual(got, beforeA) {
		t.Errorf("A mutated: %v", got)
	}
	if got := e.GetAgentResources("B"); !reflect.DeepEqual(got, beforeB) {
		t.Errorf("B mutated: %v", got)
	}

	// Same when the requesting side is short.
	if e.ExecuteTrade("A", "B", map[string]float64{"materials": 5}, map[string]float64{"energy": 500}) {
		t.Fatal("trade should have been rejected on B's side")
	}
	if got := e.GetAgentResources("A"); !reflect.DeepEqual(got, beforeA) {
		t.Errorf("A mutated on B-side rejection: %v", got)
	}
	if len(e.GetTradeHistory("A")) != 0 {
		t.Error("rejected trades must not be recorded")
	}
}

func TestExecuteTrade_UnknownAgents(t *testing.T) {
	e := NewEngine()
	e.InitializeAgent("known")

	if e.ExecuteTrade("missing", "known", nil, nil) {
		t.Error("trade with unknown offering agent should fail")
	}
	if e.ExecuteTrade("known", "missing", nil, nil) {
		t.Error("trade with unknown requesting agent should fail")
	}
}

func TestTransferResources_AutoInitAndAtomicity(t *testing.T) {
	e := NewEngine()
	e.InitializeAgent("from")

	if !e.TransferResources("from", "to", map[string]float64{"energy": 30}) {
		t.Fatal("transfer rejected")
	}
	// Target was auto-initialized with the default basket first.
	if got := e.GetAgentResources("to")["energy"]; got != 130 {
		t.Errorf("target energy = %v, want 130", got)
	}
	if got := e.GetAgentResources("from")["energy"]; got != 70 {
		t.Errorf("sender energy = %v, want 70", got)
	}

	// Insufficient quantity of any listed resource fails the whole basket.
	before := e.GetAgentResources("from")
	if e.TransferResources("from", "to", map[string]float64{"energy": 5, "materials": 9999}) {
		t.Fatal("transfer should have been rejected")
	}
	if got := e.GetAgentResources("from"); !reflect.DeepEqual(got, before) {
		t.Errorf("sender mutated on rejection: %v", got)
	}

	if e.TransferResources("nobody", "to", map[string]float64{"energy": 1}) {
		t.Error("transfer from unknown sender should fail")
	}
}

func TestAlliances(t *testing.T) {
	e := NewEngine()

	id := e.FormAlliance([]string{"a", "b"})
	if id == "" {
		t.Fatal("empty alliance id")
	}

	alliance := e.GetAlliance("b")
	if alliance == nil || alliance.ID != id {
		t.Fatalf("GetAlliance = %+v, want id %s", alliance, id)
	}
	if len(alliance.Members) != 2 {
		t.Errorf("members = %v", alliance.Members)
	}
	if e.GetAlliance("outsider") != nil {
		t.Error("outsider should have no alliance")
	}

	if !e.BreakAlliance(id) {
		t.Fatal("break failed")
	}
	if e.BreakAlliance(id) {
		t.Fatal("double break should return false")
	}
	if e.GetAlliance("a") != nil {
		t.Error("alliance survived dissolution")
	}
}

func TestTradeHistory_FilteredAndSequenced(t *testing.T) {
	e := NewEngine()
	for _, id := range []string{"a", "b", "c"} {
		e.InitializeAgent(id)
	}

	e.ExecuteTrade("a", "b", map[string]float64{"materials": 1}, map[string]float64{"energy": 1})
	e.ExecuteTrade("b", "c", map[string]float64{"materials": 1}, map[string]float64{"energy": 1})
	e.ExecuteTrade("a", "c", map[string]float64{"materials": 1}, map[string]float64{"energy": 1})

	forA := e.GetTradeHistory("a")
	if len(forA) != 2 {
		t.Fatalf("trades for a = %d, want 2", len(forA))
	}
	if forA[0].Seq != 0 || forA[1].Seq != 2 {
		t.Errorf("sequence numbers = %d, %d", forA[0].Seq, forA[1].Seq)
	}

	if len(e.GetTradeHistory("b")) != 2 {
		t.Errorf("trades for b = %d, want 2", len(e.GetTradeHistory("b")))
	}
}

func TestConcurrentTransfersConserveTotals(t *testing.T) {
	e := NewEngine()
	e.InitializeAgent("x")
	e.InitializeAgent("y")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			e.TransferResources("x", "y", map[string]float64{"energy": 1})
		}()
		go func() {
			defer wg.Done()
			e.TransferResources("y", "x", map[string]float64{"energy": 1})
		}()
	}
	wg.Wait()

	total := e.GetAgentResources("x")["energy"] + e.GetAgentResources("y")["energy"]
	if total != 200 {
		t.Fatalf("energy total = %v, want 200", total)
	}
}
