package metadb

import (
	"context"
	"testing"

	"github.com/hpctoolkit/metadb-writer/internal/metadb/configpb"
)

type fakeModel struct {
	attrs   Attributes
	metrics []*Metric
	files   []*File
	modules []*Module
	root    *Context
}

func (m *fakeModel) Attributes() Attributes { return m.attrs }
func (m *fakeModel) Metrics() []*Metric     { return m.metrics }
func (m *fakeModel) Files() []*File         { return m.files }
func (m *fakeModel) Modules() []*Module     { return m.modules }
func (m *fakeModel) Root() *Context         { return m.root }

type constIdentifiers struct{}

func (constIdentifiers) ForScope(PropagationScope) uint16            { return 1 }
func (constIdentifiers) ForPartial(int, PropagationScope) uint16 { return 2 }

func minimalModel() *fakeModel {
	root := &Context{
		ID:    0,
		Scope: Scope{Kind: ScopeKindGlobal},
	}
	ph := &Context{
		ID:       1,
		Relation: RelationCall,
		Scope:    Scope{Kind: ScopeKindPlaceholder, Placeholder: PlaceholderMainThread},
	}
	root.Children = []*Context{ph}

	return &fakeModel{
		attrs: Attributes{Name: "empty"},
		root:  root,
	}
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func testConfig() *configpb.WriterConfig {
	return &configpb.WriterConfig{
		OutputDirectory: strPtr("unused"),
		DryRun:          boolPtr(true),
	}
}

func TestWriterDryRunMinimalModel(t *testing.T) {
	ctx := context.Background()
	model := minimalModel()
	w := NewWriter(ctx, testConfig(), model, nil)

	if err := w.Write(ctx); err != nil {
		t.Fatalf("Write() = %v, want nil", err)
	}
}

func TestWriterDryRunWithMetricAndContextTree(t *testing.T) {
	ctx := context.Background()

	f := &File{Path: "main.c", Resolved: ""}
	fn := &Function{Name: "main", File: f, Line: 12}
	metric := &Metric{
		Name:        "CPUTIME",
		Description: "wall clock time",
		Scopes:      map[PropagationScope]bool{ScopePoint: true, ScopeExecution: true},
		Partials: []Partial{{
			Combinator: CombineSum,
			Accumulate: &Expression{Kind: ExprUserValue},
		}},
		Statistics: []Statistic{{
			Suffix:   "Sum",
			Finalize: &Expression{Kind: ExprUserValue},
		}},
		Identifiers: constIdentifiers{},
	}

	leaf := &Context{ID: 2, Relation: RelationCall, Scope: Scope{Kind: ScopeKindFunction, Function: fn}}
	line := &Context{
		ID:       3,
		Relation: RelationEnclosure,
		Scope:    Scope{Kind: ScopeKindLine, File: f, Line: 5},
		Children: []*Context{leaf},
	}
	entry := &Context{
		ID:       4,
		Relation: RelationCall,
		Scope:    Scope{Kind: ScopeKindUnknown},
		Children: []*Context{line},
	}
	root := &Context{ID: 1, Scope: Scope{Kind: ScopeKindGlobal}, Children: []*Context{entry}}

	model := &fakeModel{
		attrs:   Attributes{Name: "run-with-metric"},
		metrics: []*Metric{metric},
		files:   []*File{f},
		root:    root,
	}

	w := NewWriter(ctx, testConfig(), model, nil)
	if err := w.Write(ctx); err != nil {
		t.Fatalf("Write() = %v, want nil", err)
	}

	if len(w.fnReg.Functions()) != 1 {
		t.Fatalf("expected the lexically-enclosed function to be discovered via the context walk, got %d functions", len(w.fnReg.Functions()))
	}
	if len(w.fileReg.Files()) != 1 {
		t.Fatalf("expected 1 registered file, got %d", len(w.fileReg.Files()))
	}
}

func TestWriterRejectsModelWithoutRoot(t *testing.T) {
	ctx := context.Background()
	model := &fakeModel{attrs: Attributes{Name: "no-root"}}
	w := NewWriter(ctx, testConfig(), model, nil)

	err := w.Write(ctx)
	if err == nil {
		t.Fatal("Write() with a nil root context should fail")
	}
	if !isModelInvariantErr(err) {
		t.Fatalf("Write() error = %v, want an ErrModelInvariant", err)
	}
}

func isModelInvariantErr(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == ErrModelInvariant
}
