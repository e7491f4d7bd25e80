package ecs

import "testing"

type tagA struct{ n int }
type tagB struct{ s string }

func TestEntityGenerationInvalidatesStaleIDs(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	if a.IsZero() {
		t.Fatalf("first entity must not be the zero ID")
	}
	p.Destroy(a)
	if p.Alive(a) {
		t.Fatalf("destroyed entity still alive")
	}
	b := p.Create()
	if b.Index() != a.Index() {
		t.Fatalf("index not reused: a=%d b=%d", a.Index(), b.Index())
	}
	if b.Generation() == a.Generation() {
		t.Fatalf("generation not bumped on reuse")
	}
	p.Destroy(a) // stale, must not kill b
	if !p.Alive(b) {
		t.Fatalf("stale destroy killed the new entity")
	}
	if p.Count() != 1 {
		t.Fatalf("count = %d, want 1", p.Count())
	}
}

func TestStoreKeepsInsertionOrderAcrossRemoval(t *testing.T) {
	w := NewWorld()
	s := Register[tagA](w)
	var ids []EntityID
	for i := 0; i < 5; i++ {
		id := w.CreateEntity()
		s.Set(id, &tagA{n: i})
		ids = append(ids, id)
	}
	s.Remove(ids[1])
	s.Remove(ids[3])

	var got []int
	s.Each(func(_ EntityID, c *tagA) { got = append(got, c.n) })
	want := []int{0, 2, 4}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if c, ok := s.Get(ids[4]); !ok || c.n != 4 {
		t.Fatalf("index map out of sync after removal")
	}
}

func TestFlushDestroyQueueClearsAllStores(t *testing.T) {
	w := NewWorld()
	sa := Register[tagA](w)
	sb := Register[tagB](w)
	id := w.CreateEntity()
	sa.Set(id, &tagA{n: 1})
	sb.Set(id, &tagB{s: "x"})

	w.MarkForDestruction(id)
	w.MarkForDestruction(id)
	if sa.Len() != 1 {
		t.Fatalf("components removed before flush")
	}
	w.FlushDestroyQueue()
	if sa.Has(id) || sb.Has(id) {
		t.Fatalf("components survived flush")
	}
	if w.Alive(id) {
		t.Fatalf("entity survived flush")
	}
	if w.Pending() != 0 {
		t.Fatalf("destroy queue not drained")
	}
}

func TestEach2VisitsIntersectionOnly(t *testing.T) {
	w := NewWorld()
	sa := Register[tagA](w)
	sb := Register[tagB](w)
	both := w.CreateEntity()
	onlyA := w.CreateEntity()
	sa.Set(onlyA, &tagA{n: 1})
	sa.Set(both, &tagA{n: 2})
	sb.Set(both, &tagB{s: "b"})

	calls := 0
	Each2(sa, sb, func(id EntityID, a *tagA, b *tagB) {
		calls++
		if id != both || a.n != 2 || b.s != "b" {
			t.Fatalf("unexpected visit %v %+v %+v", id, a, b)
		}
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
