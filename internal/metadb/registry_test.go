package metadb

import (
	"context"
	"sync"
	"testing"
)

func TestModuleRegistryDedup(t *testing.T) {
	st := NewStringTable()
	reg := NewModuleRegistry(st)
	m := &Module{Path: "/usr/bin/a.out"}

	idx1, err := reg.Notify(m)
	if err != nil {
		t.Fatal(err)
	}
	idx2, err := reg.Notify(m)
	if err != nil {
		t.Fatal(err)
	}
	if idx1 != idx2 {
		t.Fatalf("second Notify returned a different index: %d vs %d", idx1, idx2)
	}
	if len(reg.Modules()) != 1 {
		t.Fatalf("len(Modules()) = %d, want 1", len(reg.Modules()))
	}
}

func TestModuleRegistryConcurrentFirstWins(t *testing.T) {
	st := NewStringTable()
	reg := NewModuleRegistry(st)
	m := &Module{Path: "/usr/bin/a.out"}

	var wg sync.WaitGroup
	indices := make([]uint32, 32)
	for i := range indices {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			idx, err := reg.Notify(m)
			if err != nil {
				t.Error(err)
			}
			indices[i] = idx
		}()
	}
	wg.Wait()

	for i, idx := range indices {
		if idx != indices[0] {
			t.Fatalf("goroutine %d got index %d, want %d", i, idx, indices[0])
		}
	}
	if len(reg.Modules()) != 1 {
		t.Fatalf("concurrent registration produced %d modules, want 1", len(reg.Modules()))
	}
}

func TestFunctionRegistryPlaceholdersFollowFunctions(t *testing.T) {
	st := NewStringTable()
	reg := NewFunctionRegistry(st)

	f1 := &Function{Name: "main"}
	idx1, err := reg.NotifyFunction(f1)
	if err != nil {
		t.Fatal(err)
	}
	phIdx := reg.NotifyPlaceholder(PlaceholderProgramRoot)

	if idx1 != 0 {
		t.Fatalf("first function index = %d, want 0", idx1)
	}
	if phIdx != 1 {
		t.Fatalf("placeholder index = %d, want 1 (after the one registered function)", phIdx)
	}
	if len(reg.Functions()) != 1 || len(reg.Placeholders()) != 1 {
		t.Fatalf("unexpected registry sizes: %d functions, %d placeholders", len(reg.Functions()), len(reg.Placeholders()))
	}
}

func TestFileRegistryNoCopyWhenUnconfigured(t *testing.T) {
	st := NewStringTable()
	reg := NewFileRegistry(context.Background(), st, "", 0)
	f := &File{Path: "main.c"}

	if _, err := reg.Notify(f); err != nil {
		t.Fatal(err)
	}
	if err := reg.Wait(); err != nil {
		t.Fatal(err)
	}
	if reg.Copied(f) {
		t.Fatal("Copied reported true with copying disabled")
	}
}
