package cache

import (
	"errors"
	"sync"
	"testing"
)

var errBoom = errors.New("boom")

type handle struct{ id int }

func TestSlotsGetOrCreateIdentity(t *testing.T) {
	s := NewSlots[*handle](256)
	created := 0
	factory := func(id int) func() (*handle, error) {
		return func() (*handle, error) {
			created++
			return &handle{id: id}, nil
		}
	}

	seen := make(map[*handle]int)
	for k := 0; k < 256; k++ {
		h, err := s.GetOrCreate(k, factory(k))
		if err != nil {
			t.Fatalf("GetOrCreate(%d): %v", k, err)
		}
		if prev, dup := seen[h]; dup {
			t.Fatalf("keys %d and %d share a handle", prev, k)
		}
		seen[h] = k
	}

	for k := 0; k < 256; k++ {
		h, err := s.GetOrCreate(k, factory(-1))
		if err != nil {
			t.Fatalf("second GetOrCreate(%d): %v", k, err)
		}
		if seen[h] != k || h.id != k {
			t.Errorf("key %d returned a different handle on reuse", k)
		}
	}

	if created != 256 {
		t.Errorf("expected 256 creations, got %d", created)
	}
	st := s.Stats()
	if st.Creations != 256 || st.Hits != 256 || st.Misses != 256 {
		t.Errorf("unexpected stats: %+v", st)
	}
	if st.Len != 256 || st.Capacity != 256 {
		t.Errorf("expected full arena, got %+v", st)
	}
}

func TestSlotsFailureDoesNotPoison(t *testing.T) {
	s := NewSlots[*handle](8)
	attempts := 0
	create := func() (*handle, error) {
		attempts++
		if attempts == 1 {
			return nil, errBoom
		}
		return &handle{id: attempts}, nil
	}

	if _, err := s.GetOrCreate(3, create); !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if _, ok := s.Get(3); ok {
		t.Fatal("failed creation must leave the slot empty")
	}

	h, err := s.GetOrCreate(3, create)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if h == nil || h.id != 2 {
		t.Errorf("expected handle from second attempt, got %+v", h)
	}
	if st := s.Stats(); st.Failures != 1 || st.Creations != 1 {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestSlotsKeyRange(t *testing.T) {
	s := NewSlots[int](8)
	for _, k := range []int{-1, 8, 300} {
		_, err := s.GetOrCreate(k, func() (int, error) { return 1, nil })
		if !errors.Is(err, ErrKeyRange) {
			t.Errorf("key %d: expected ErrKeyRange, got %v", k, err)
		}
	}
	if s.Len() != 0 {
		t.Errorf("out-of-range keys must not fill slots, Len = %d", s.Len())
	}
}

func TestSlotsClear(t *testing.T) {
	s := NewSlots[int](4)
	for k := 0; k < 4; k++ {
		if _, err := s.GetOrCreate(k, func() (int, error) { return k * 10, nil }); err != nil {
			t.Fatal(err)
		}
	}
	var released []int
	s.Clear(func(v int) { released = append(released, v) })

	if len(released) != 4 {
		t.Fatalf("expected 4 releases, got %v", released)
	}
	if released[0] != 30 {
		t.Errorf("expected reverse order release, got %v", released)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty arena after Clear, Len = %d", s.Len())
	}
}

func TestSlotsConcurrentCreateOnce(t *testing.T) {
	s := NewSlots[*handle](8)
	var mu sync.Mutex
	created := 0

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.GetOrCreate(5, func() (*handle, error) {
				mu.Lock()
				created++
				mu.Unlock()
				return &handle{id: 5}, nil
			})
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Errorf("expected one creation under contention, got %d", created)
	}
}

func TestCacheGetOrCreate(t *testing.T) {
	c := New[string, int]()
	createCalled := 0

	val, err := c.GetOrCreate("key1", func() (int, error) {
		createCalled++
		return 100, nil
	})
	if err != nil || val != 100 {
		t.Fatalf("expected 100, got %d (%v)", val, err)
	}

	val, _ = c.GetOrCreate("key1", func() (int, error) {
		createCalled++
		return 200, nil
	})
	if val != 100 {
		t.Errorf("expected cached 100, got %d", val)
	}
	if createCalled != 1 {
		t.Errorf("expected create called once, got %d", createCalled)
	}
}

func TestCacheFailureNotCached(t *testing.T) {
	c := New[string, int]()
	if _, err := c.GetOrCreate("k", func() (int, error) { return 0, errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("failure was cached")
	}
	if v, err := c.GetOrCreate("k", func() (int, error) { return 7, nil }); err != nil || v != 7 {
		t.Errorf("retry: got %d, %v", v, err)
	}
	st := c.Stats()
	if st.Failures != 1 || st.Creations != 1 || st.Lookups() != 2 {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := New[int, string]()
	c.Set(1, "a")
	c.Set(2, "b")

	if !c.Delete(1) {
		t.Error("expected Delete to report removal")
	}
	if c.Delete(1) {
		t.Error("second Delete should report nothing removed")
	}

	n := 0
	c.Clear(func(string) { n++ })
	if n != 1 || c.Len() != 0 {
		t.Errorf("Clear released %d, Len %d", n, c.Len())
	}
}

func BenchmarkSlotsHit(b *testing.B) {
	s := NewSlots[int](256)
	for k := 0; k < 256; k++ {
		_, _ = s.GetOrCreate(k, func() (int, error) { return k, nil })
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.GetOrCreate(i&0xff, nil)
	}
}

func TestCacheRange(t *testing.T) {
	c := New[int, int]()
	for i := 0; i < 5; i++ {
		c.Set(i, i*i)
	}
	sum := 0
	c.Range(func(_ int, v int) bool {
		sum += v
		return true
	})
	if sum != 0+1+4+9+16 {
		t.Errorf("sum = %d", sum)
	}

	visits := 0
	c.Range(func(int, int) bool {
		visits++
		return false
	})
	if visits != 1 {
		t.Errorf("Range should stop after false, visited %d", visits)
	}
}
