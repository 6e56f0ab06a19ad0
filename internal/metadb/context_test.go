package metadb

import (
	"context"
	"testing"
)

func TestComposeElidesInstructionPoints(t *testing.T) {
	m := &Module{Path: "a.out"}
	leaf1 := &Context{ID: 3, Relation: RelationCall, Scope: Scope{Kind: ScopeKindFunction}}
	leaf2 := &Context{ID: 4, Relation: RelationCall, Scope: Scope{Kind: ScopeKindFunction}}
	point := &Context{
		ID:       2,
		Relation: RelationEnclosure,
		Scope:    Scope{Kind: ScopeKindPoint, Module: m, Offset: 0x100},
		Children: []*Context{leaf1, leaf2},
	}
	root := &Context{
		ID:       1,
		Relation: RelationGlobal,
		Scope:    Scope{Kind: ScopeKindGlobal},
		Children: []*Context{point},
	}

	got := compose(root)
	if len(got) != 2 {
		t.Fatalf("compose(root) returned %d children, want 2 (point node elided)", len(got))
	}
	if got[0] != leaf1 || got[1] != leaf2 {
		t.Fatalf("compose(root) = %v, want [leaf1 leaf2]", got)
	}
}

func TestComposeKeepsNonElidableChildren(t *testing.T) {
	fn := &Context{ID: 2, Relation: RelationCall, Scope: Scope{Kind: ScopeKindFunction}}
	root := &Context{ID: 1, Scope: Scope{Kind: ScopeKindGlobal}, Children: []*Context{fn}}

	got := compose(root)
	if len(got) != 1 || got[0] != fn {
		t.Fatalf("compose(root) = %v, want [fn] unchanged", got)
	}
}

func TestContextEmitterWritesLeavesBeforeParents(t *testing.T) {
	l, sink := newTestLayout()
	_ = sink
	st := NewStringTable()
	modReg := NewModuleRegistry(st)
	fileReg := NewFileRegistry(context.Background(), st, "", 0)
	fnReg := NewFunctionRegistry(st)

	leaf := &Context{ID: 2, Relation: RelationCall, Scope: Scope{Kind: ScopeKindFunction, Function: &Function{Name: "f"}}}
	root := &Context{ID: 1, Scope: Scope{Kind: ScopeKindGlobal}, Children: []*Context{leaf}}

	e := newContextEmitter(l, st, modReg, fileReg, fnReg)
	rootOff, err := e.write(root)
	if err != nil {
		t.Fatal(err)
	}
	leafOff, ok := e.written[leaf]
	if !ok {
		t.Fatal("leaf was never written")
	}
	if leafOff >= rootOff {
		t.Fatalf("leaf offset %d should be before root offset %d (leaves committed first)", leafOff, rootOff)
	}
	if e.state[root] != stateChildrenBlockWritten {
		t.Fatalf("root state = %v, want stateChildrenBlockWritten", e.state[root])
	}
}
