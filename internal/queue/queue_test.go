package queue

import (
	"sync"
	"testing"
)

// command mimics the engine's pending registry commands
type command struct {
	ID   uint
	Kind string
}

func TestQueue_New(t *testing.T) {
	q := New[command]()
	if q == nil {
		t.Fatal("expected non-nil queue")
	}
	if !q.Empty() {
		t.Error("expected empty queue")
	}
	if q.Len() != 0 {
		t.Errorf("expected length 0, got %d", q.Len())
	}
}

func TestQueue_PushPop(t *testing.T) {
	q := New[command]()

	q.Push(command{ID: 1, Kind: "spawn"})
	q.Push(command{ID: 2, Kind: "spawn"}, command{ID: 1, Kind: "remove"})
	if q.Len() != 3 {
		t.Errorf("expected length 3, got %d", q.Len())
	}

	first, ok := q.Pop()
	if !ok {
		t.Fatal("expected item from non-empty queue")
	}
	if first.ID != 1 || first.Kind != "spawn" {
		t.Errorf("expected first pushed item, got %+v", first)
	}
	if q.Len() != 2 {
		t.Errorf("expected length 2 after pop, got %d", q.Len())
	}
}

func TestQueue_PopEmpty(t *testing.T) {
	q := New[command]()

	_, ok := q.Pop()
	if ok {
		t.Error("expected ok=false from empty queue")
	}
}

func TestQueue_Drain(t *testing.T) {
	q := New[command]()
	q.Push(command{ID: 1}, command{ID: 2}, command{ID: 3})

	items := q.Drain()
	if len(items) != 3 {
		t.Fatalf("expected 3 drained items, got %d", len(items))
	}
	for i, it := range items {
		if it.ID != uint(i+1) {
			t.Errorf("expected order preserved, item %d has ID %d", i, it.ID)
		}
	}
	if !q.Empty() {
		t.Error("expected empty queue after drain")
	}
}

func TestQueue_Clear(t *testing.T) {
	q := New[command]()
	q.Push(command{ID: 1}, command{ID: 2})
	q.Clear()
	if !q.Empty() {
		t.Error("expected empty queue after clear")
	}
}

func TestQueue_ConcurrentPush(t *testing.T) {
	q := New[command]()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Push(command{ID: uint(n*100 + j)})
			}
		}(i)
	}
	wg.Wait()

	if q.Len() != 1000 {
		t.Errorf("expected 1000 items, got %d", q.Len())
	}
}
