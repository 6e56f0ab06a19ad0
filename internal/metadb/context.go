package metadb

// contextState tracks where a *Context is in the emission pipeline.
// Contexts are walked and written in a single pass, but the three-state
// split documents the pipeline stages explicitly: a node is Unseen until
// encountered, Prepared once its effective (post-elision) children list
// has been computed, and ChildrenBlockWritten once those children have
// actually been serialized and their offsets are known — only then can
// the node itself be written.
type contextState uint8

const (
	stateUnseen contextState = iota
	statePrepared
	stateChildrenBlockWritten
)

// contextEmitter walks a context tree post-order, writing each node only
// after all of its (elided) children have been written, since a node's
// record stores its children's absolute file offsets. The global context
// itself is never written as a record (§4.H): its immediate children are
// entry points, handled separately by writeContextsSection.
type contextEmitter struct {
	l       *Layout
	strings *StringTable
	modReg  *ModuleRegistry
	fileReg *FileRegistry
	fnReg   *FunctionRegistry

	state   map[*Context]contextState
	written map[*Context]uint64 // ctx -> its own record's offset
}

func newContextEmitter(l *Layout, strings *StringTable, modReg *ModuleRegistry, fileReg *FileRegistry, fnReg *FunctionRegistry) *contextEmitter {
	return &contextEmitter{
		l:       l,
		strings: strings,
		modReg:  modReg,
		fileReg: fileReg,
		fnReg:   fnReg,
		state:   make(map[*Context]contextState),
		written: make(map[*Context]uint64),
	}
}

// isElidable reports whether child should be inlined into its parent's
// child list rather than written as its own record: an
// instruction-granularity lexical-enclosure node (a bare machine-code
// point wrapping a single deeper scope) that carries no information a
// reader needs beyond what its own children already carry. Elision is
// single-level: compose does not recurse into an elided child's elided
// children; it panics if an elided child has an elidable child.
func isElidable(child *Context) bool {
	return child.Relation == RelationEnclosure && child.Scope.Kind == ScopeKindPoint
}

// compose returns ctx's effective children: its direct children, with any
// elidable ones replaced in-place by their own direct children.
func compose(ctx *Context) []*Context {
	var out []*Context
	for _, c := range ctx.Children {
		if isElidable(c) {
			for _, gc := range c.Children {
				if isElidable(gc) {
					panic("metadb: elidable context directly under an elided context")
				}
				out = append(out, gc)
			}
			continue
		}
		out = append(out, c)
	}
	return out
}

// writeChildrenBlock writes each of children as an ordinary context
// record (recursively), then serializes their offsets as one flat array,
// returning that array's offset and length.
func (e *contextEmitter) writeChildrenBlock(children []*Context) (uint64, uint32, error) {
	childOffsets := make([]uint64, len(children))
	for i, c := range children {
		off, err := e.write(c)
		if err != nil {
			return 0, 0, err
		}
		childOffsets[i] = off
	}
	buf := make([]byte, len(childOffsets)*8)
	for i, off := range childOffsets {
		putU64(buf[i*8:], off)
	}
	off, err := e.l.Allocate(uint64(len(buf)), 8)
	if err != nil {
		return 0, 0, err
	}
	if len(buf) > 0 {
		if err := e.l.WriteAt(off, buf); err != nil {
			return 0, 0, err
		}
	}
	return off, uint32(len(childOffsets)), nil
}

// write serializes ctx as an ordinary context record and returns its
// offset. writeContextsSection never passes it the global context or one
// of its immediate (entry-point) children: it handles those itself.
func (e *contextEmitter) write(ctx *Context) (uint64, error) {
	if off, ok := e.written[ctx]; ok {
		return off, nil
	}
	e.state[ctx] = statePrepared
	children := compose(ctx)

	childrenOff, numChildren, err := e.writeChildrenBlock(children)
	if err != nil {
		return 0, err
	}
	e.state[ctx] = stateChildrenBlockWritten

	detail, err := e.encodeScopeDetail(&ctx.Scope)
	if err != nil {
		return 0, err
	}
	var detailOff uint64
	if len(detail) > 0 {
		detailOff, err = e.l.Allocate(uint64(len(detail)), 8)
		if err != nil {
			return 0, err
		}
		if err := e.l.WriteAt(detailOff, detail); err != nil {
			return 0, err
		}
	}

	rec := make([]byte, contextRecordFixedSize)
	putU32(rec[0:4], ctx.ID)
	rec[4] = scopeKindCode(ctx.Scope.Kind)
	rec[5] = relationCode(ctx.Relation)
	if ctx.Relation == RelationEnclosure {
		rec[6] = propagationEnclosure
	}
	putU64(rec[8:16], detailOff)
	putU32(rec[16:20], numChildren)
	putU64(rec[20:28], childrenOff)

	off, err := e.l.Allocate(uint64(len(rec)), 8)
	if err != nil {
		return 0, err
	}
	if err := e.l.WriteAt(off, rec); err != nil {
		return 0, err
	}
	e.written[ctx] = off
	return off, nil
}

func (e *contextEmitter) encodeScopeDetail(s *Scope) ([]byte, error) {
	switch s.Kind {
	case ScopeKindGlobal, ScopeKindUnknown:
		return nil, nil
	case ScopeKindPlaceholder:
		b := make([]byte, scopeDetailPlaceholderSize)
		putU32(b, uint32(s.Placeholder))
		e.fnReg.NotifyPlaceholder(s.Placeholder)
		return b, nil
	case ScopeKindFunction:
		idx, err := e.fnReg.NotifyFunction(s.Function)
		if err != nil {
			return nil, err
		}
		b := make([]byte, scopeDetailFunctionSize)
		putU32(b, idx)
		return b, nil
	case ScopeKindLine, ScopeKindLoopLexical:
		fileIdx, err := e.fileReg.Notify(s.File)
		if err != nil {
			return nil, err
		}
		b := make([]byte, scopeDetailLineSize)
		putU32(b[0:4], fileIdx)
		putU32(b[4:8], s.Line)
		return b, nil
	case ScopeKindPoint:
		modIdx, err := e.modReg.Notify(s.Module)
		if err != nil {
			return nil, err
		}
		b := make([]byte, scopeDetailPointSize)
		putU64(b[0:8], s.Offset)
		putU32(b[8:12], modIdx)
		return b, nil
	case ScopeKindLoopBinary:
		modIdx, err := e.modReg.Notify(s.Module)
		if err != nil {
			return nil, err
		}
		fileIdx, err := e.fileReg.Notify(s.File)
		if err != nil {
			return nil, err
		}
		b := make([]byte, scopeDetailLoopBinarySize)
		putU64(b[0:8], s.Offset)
		putU32(b[8:12], modIdx)
		putU32(b[12:16], fileIdx)
		putU32(b[16:20], s.Line)
		return b, nil
	default:
		panic("metadb: invalid ScopeKind")
	}
}

// classifyEntryPoint maps a top-level context's scope to its entryPoint
// code and pretty-name string, per §4.H. Any scope other than "unknown"
// or the main-thread/application-thread placeholders is a fatal input
// error: the global context may only have those as direct children.
func classifyEntryPoint(s Scope) (uint16, string, error) {
	switch s.Kind {
	case ScopeKindUnknown:
		return entryPointUnknown, "unknown entry", nil
	case ScopeKindPlaceholder:
		switch s.Placeholder {
		case PlaceholderMainThread:
			return entryPointMainThread, "main thread", nil
		case PlaceholderApplicationThread:
			return entryPointApplicationThread, "application thread", nil
		}
	}
	return 0, "", wrapErr(ErrModelInvariant, "invalid top-level context scope (kind=%d, placeholder=%d): must be unknown, main_thread or application_thread", s.Kind, s.Placeholder)
}

// writeContextsSection writes the entry-point table: the global context's
// immediate children are not written as ordinary context records (§4.H).
// Each becomes one entry-point record carrying its own children block,
// its id, its classified entryPoint code and its pretty-name string.
func writeContextsSection(l *Layout, strings *StringTable, modReg *ModuleRegistry, fileReg *FileRegistry, fnReg *FunctionRegistry, root *Context, hdr *Deferred[fileHeader]) error {
	e := newContextEmitter(l, strings, modReg, fileReg, fnReg)

	entryPoints := compose(root)
	epBuf := make([]byte, len(entryPoints)*entryPointRecordSize)
	for i, ep := range entryPoints {
		epCode, prettyName, err := classifyEntryPoint(ep.Scope)
		if err != nil {
			return err
		}
		children := compose(ep)
		childrenOff, numChildren, err := e.writeChildrenBlock(children)
		if err != nil {
			return err
		}
		prettyOff := strings.Intern(prettyName)

		rec := epBuf[i*entryPointRecordSize:]
		putU32(rec[0:4], numChildren)
		putU64(rec[8:16], childrenOff)
		putU32(rec[16:20], ep.ID)
		putU16(rec[20:22], epCode)
		putU64(rec[24:32], prettyOff)
	}
	epOff, err := l.Allocate(uint64(len(epBuf)), 8)
	if err != nil {
		return err
	}
	if len(epBuf) > 0 {
		if err := l.WriteAt(epOff, epBuf); err != nil {
			return err
		}
	}

	secHdr := make([]byte, contextsSectionHeaderSize)
	putU32(secHdr[0:4], uint32(len(entryPoints)))
	putU64(secHdr[8:16], epOff)
	secOff, err := l.Allocate(uint64(len(secHdr)), 8)
	if err != nil {
		return err
	}
	if err := l.WriteAt(secOff, secHdr); err != nil {
		return err
	}
	setSection(hdr.Value(), sectionContexts, secOff, secOff+uint64(len(secHdr)))
	return nil
}
