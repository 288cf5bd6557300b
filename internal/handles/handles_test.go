package handles

import (
	"sync"
	"testing"
)

func TestRegisterAndLookup(t *testing.T) {
	type payload struct {
		Name  string
		Token int32
	}

	tab := NewTable()
	id := tab.Register(&payload{Name: "search", Token: 7})
	if id == 0 {
		t.Fatal("Register should return non-zero id")
	}

	got, ok := tab.Lookup(id).(*payload)
	if !ok {
		t.Fatalf("Lookup returned wrong type: %T", tab.Lookup(id))
	}
	if got.Name != "search" || got.Token != 7 {
		t.Errorf("Lookup returned wrong data: %+v", got)
	}
}

func TestUnregisterTwice(t *testing.T) {
	tab := NewTable()
	id := tab.Register("listener")

	if !tab.Unregister(id) {
		t.Fatal("first Unregister should report true")
	}
	if tab.Unregister(id) {
		t.Error("second Unregister should report false")
	}
	if tab.Lookup(id) != nil {
		t.Error("Lookup after Unregister should be nil")
	}
}

func TestTake(t *testing.T) {
	tab := NewTable()
	id := tab.Register(42)

	v, ok := tab.Take(id)
	if !ok || v.(int) != 42 {
		t.Fatalf("Take = %v, %v", v, ok)
	}
	if _, ok := tab.Take(id); ok {
		t.Error("Take of a taken id should fail")
	}
}

func TestConcurrentAccess(t *testing.T) {
	const workers = 50
	const ops = 200

	tab := NewTable()
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(w int) {
			defer wg.Done()
			for j := 0; j < ops; j++ {
				id := tab.Register([2]int{w, j})
				if tab.Lookup(id) == nil {
					t.Errorf("Lookup returned nil for id %d", id)
				}
				tab.Unregister(id)
			}
		}(i)
	}
	wg.Wait()

	if n := tab.Count(); n != 0 {
		t.Errorf("Count = %d after balanced register/unregister, want 0", n)
	}
}

func TestIDsAreUnique(t *testing.T) {
	tab := NewTable()
	seen := make(map[uintptr]bool)
	for i := 0; i < 1000; i++ {
		id := tab.Register(i)
		if seen[id] {
			t.Fatalf("id %d issued twice", id)
		}
		seen[id] = true
	}
	if tab.Count() != 1000 {
		t.Errorf("Count = %d, want 1000", tab.Count())
	}
}
