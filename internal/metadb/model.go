// Package metadb writes meta.db, HPCToolkit's consolidated on-disk
// database of metrics, load modules, source files, functions and the
// calling-context tree of a profiled execution.
//
// The package never reads meta.db back; it is a pure writer driven by an
// upstream pipeline that delivers a read-only model (see Model) and a
// stream of per-entity notifications as they are discovered.
package metadb

// Attributes carries the database-wide descriptive metadata.
type Attributes struct {
	// Name is the execution's display title. If empty, the writer falls
	// back to "<unnamed>".
	Name string

	// Description is free-form descriptive text for the execution. If
	// empty, the writer falls back to "TODO database description" (the
	// upstream writer has never grown a real description field).
	Description string

	// IdentifierKindNames maps small integer identifier-kind ids to their
	// human names. Gaps are permitted; the writer fills them with a
	// shared empty string.
	IdentifierKindNames map[uint8]string
}

// PropagationScope is one of the four ways a metric value rolls up the
// context tree.
type PropagationScope uint8

const (
	ScopePoint PropagationScope = iota
	ScopeFunction
	ScopeLexAware
	ScopeExecution
)

// propagationScopeOrder is the fixed order section writers emit
// propagation-scope records in.
var propagationScopeOrder = []PropagationScope{ScopePoint, ScopeFunction, ScopeLexAware, ScopeExecution}

func (s PropagationScope) shortName() string {
	switch s {
	case ScopePoint:
		return "point"
	case ScopeFunction:
		return "function"
	case ScopeLexAware:
		return "lex-aware"
	case ScopeExecution:
		return "execution"
	default:
		panic("metadb: invalid PropagationScope")
	}
}

// Combinator is how a partial combines per-context contributions.
type Combinator uint8

const (
	CombineSum Combinator = iota
	CombineMin
	CombineMax
)

// Partial is a combinator plus an accumulate expression: an intermediate
// per-context metric value contribution.
type Partial struct {
	Combinator Combinator
	Accumulate *Expression
}

// Statistic combines partials into a user-visible value.
type Statistic struct {
	Suffix   string // e.g. "Sum", appended for display purposes by the viewer
	Finalize *Expression
}

// Identifiers maps every (metric, partial-or-statistic, scope) triple to
// its u16 propagation slot id, as assigned by the upstream identifier
// service.
type Identifiers interface {
	ForScope(scope PropagationScope) uint16
	ForPartial(partial int, scope PropagationScope) uint16
}

// Metric describes one performance metric.
type Metric struct {
	Name        string
	Description string
	Scopes      map[PropagationScope]bool
	Partials    []Partial
	Statistics  []Statistic
	Identifiers Identifiers
}

func (m *Metric) enabledScopes() []PropagationScope {
	var out []PropagationScope
	for _, s := range propagationScopeOrder {
		if m.Scopes[s] {
			out = append(out, s)
		}
	}
	return out
}

// ExpressionKind distinguishes the variants of an Expression node.
type ExpressionKind uint8

const (
	ExprConstant ExpressionKind = iota
	ExprUserValue
	ExprSum
	ExprSub
	ExprNeg
	ExprProd
	ExprDiv
	ExprPow
	ExprSqrt
	ExprLog
	ExprLn
	ExprMin
	ExprMax
	ExprFloor
	ExprCeil
)

// Expression is a node of a flattened arithmetic expression tree: a
// constant double, the user value leaf ("$$"), or an operator applied to
// one or more operands. Formulas delivered to the writer must already be
// flattened: a bare "subexpression" or "variable" leaf never appears here.
type Expression struct {
	Kind     ExpressionKind
	Constant float64 // valid iff Kind == ExprConstant
	Operands []*Expression
}

// File identifies a source file. The writer treats two *File values with
// the same identity as the writer's own entity registry key: callers are
// expected to hand the writer the same *File pointer for the same logical
// file every time it is referenced (see DESIGN.md for why pointer identity
// is an acceptable stand-in for the "content-keyed" dedup spec.md asks
// for — the canonicalization itself is an upstream-pipeline concern, not
// this writer's).
type File struct {
	// Path is the original path as recorded by the profiled run.
	Path string
	// Resolved is the file's resolved filesystem path, if the pipeline
	// managed to locate it on disk. Empty if unknown.
	Resolved string
}

// Module is a logical binary identified by path.
type Module struct {
	Path string
}

// Function is a distinct called unit.
type Function struct {
	Name   string
	Module *Module
	// Offset is the function's machine offset within Module, or nil if
	// unknown.
	Offset *uint64
	// File/Line give the function's defining source location, if known.
	// Both are set, or neither is.
	File *File
	Line uint32
}

// PlaceholderKind enumerates the synthetic markers the writer treats as a
// kind of function.
type PlaceholderKind uint32

const (
	PlaceholderUnknownEntry PlaceholderKind = iota
	PlaceholderMainThread
	PlaceholderApplicationThread
	PlaceholderProgramRoot
	PlaceholderGPUKernel
)

// PrettyName returns the placeholder's display name, or the empty string
// for a kind with no defined name.
func (p PlaceholderKind) PrettyName() string {
	switch p {
	case PlaceholderUnknownEntry:
		return "unknown entry"
	case PlaceholderMainThread:
		return "main thread"
	case PlaceholderApplicationThread:
		return "application thread"
	case PlaceholderProgramRoot:
		return "program root"
	case PlaceholderGPUKernel:
		return "gpu kernel"
	default:
		return ""
	}
}

// ScopeKind distinguishes the lexical classification of a Context.
type ScopeKind uint8

const (
	ScopeKindGlobal ScopeKind = iota
	ScopeKindUnknown
	ScopeKindPlaceholder
	ScopeKindLine
	ScopeKindLoopLexical
	ScopeKindLoopBinary
	ScopeKindPoint
	ScopeKindFunction
)

// Scope is a tagged union; only the fields relevant to Kind are valid.
type Scope struct {
	Kind        ScopeKind
	Placeholder PlaceholderKind // Kind == ScopeKindPlaceholder
	File        *File           // Kind in {Line, LoopLexical, LoopBinary}
	Line        uint32          // Kind in {Line, LoopLexical, LoopBinary}
	Module      *Module         // Kind in {Point, LoopBinary}
	Offset      uint64          // Kind in {Point, LoopBinary}
	Function    *Function       // Kind == ScopeKindFunction
}

// RelationKind is the edge type from a Context to its parent.
type RelationKind uint8

const (
	RelationGlobal RelationKind = iota
	RelationEnclosure
	RelationCall
	RelationInlinedCall
)

// Context is a node of the calling-context tree.
type Context struct {
	ID       uint32
	Scope    Scope
	Relation RelationKind
	Parent   *Context
	Children []*Context
}

// Model is the read-only view of a profiled execution the writer
// consumes. It is supplied by the enclosing pipeline.
type Model interface {
	Attributes() Attributes
	Metrics() []*Metric
	Files() []*File
	Modules() []*Module
	Root() *Context
}
