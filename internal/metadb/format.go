package metadb

// Format constants for meta.db's own binary layout: section header and
// record sizes, and the enum codes stored in them. These are a
// from-scratch design inspired by (but not byte-identical to) the
// upstream HPCToolkit project's own meta.db, since this writer has no
// independent reader to stay binary-compatible with. The sizes chosen are
// documented beside each constant below; see DESIGN.md for why.

const (
	magic         = "HPCMETA\x00"
	footer        = "METAEOF\x00"
	formatVersion = 1

	// File header: magic(8) + version(u32) + minReaderVersion(u32) +
	// 8 section descriptors of (offset u64, size u64).
	fileHeaderSize = 8 + 4 + 4 + 8*(8+8)

	sectionCount = 8

	sectionGeneral     = 0
	sectionIDNames     = 1
	sectionMetrics     = 2
	sectionStrings     = 3
	sectionModules     = 4
	sectionFiles       = 5
	sectionFunctions   = 6
	sectionContexts    = 7
)

const (
	// general section: nameOff(u64) descOff(u64)
	generalSectionSize = 8 + 8

	// identifier-names section record: one string offset (u64) per kind id,
	// from 0 to the largest id. The section carries no separate count or
	// header; the count is the section size divided by idNameRecordSize.
	idNameRecordSize = 8
)

// metricsSectionHeaderSize: numScopes(u32) pad(4) scopesOff(u64)
// numMetrics(u32) pad(4) metricsOff(u64).
const metricsSectionHeaderSize = 4 + 4 + 8 + 4 + 4 + 8

// propagationScopeRecordSize: shortNameOff(8) typeCode(u8)
// propagationIndex(u8) pad(6).
const propagationScopeRecordSize = 8 + 1 + 1 + 6

// propagation-scope type codes (§4.G).
const (
	propTypeCustom     uint8 = 0
	propTypePoint      uint8 = 1
	propTypeExecution  uint8 = 2
	propTypeTransitive uint8 = 3
)

// propagationTypeCode maps a PropagationScope to its fixed type code.
// function is deliberately "custom" rather than "transitive": it is the
// one scope with a fixed propagation index of 0 rather than 255 (see
// propagationIndexCode), so it gets the type code reserved for
// non-standard propagation.
func propagationTypeCode(s PropagationScope) uint8 {
	switch s {
	case ScopePoint:
		return propTypePoint
	case ScopeFunction:
		return propTypeCustom
	case ScopeLexAware:
		return propTypeTransitive
	case ScopeExecution:
		return propTypeExecution
	default:
		panic("metadb: invalid PropagationScope")
	}
}

// propagationIndexCode returns the fixed propagation index for s: 0 for
// function, 255 for every other scope (§4.G).
func propagationIndexCode(s PropagationScope) uint8 {
	if s == ScopeFunction {
		return 0
	}
	return 255
}

// metricDescRecordSize is the fixed per-metric descriptor record size:
// nameOff(8) descOff(8) numPartials(u16) numStatistics(u16) pad(4)
// partialsOff(8) statisticsOff(8).
const metricDescRecordSize = 8 + 8 + 2 + 2 + 4 + 8 + 8

// partialRecordSize: combinator(u8) pad(7) accumulateFormulaOff(8)
// scopeInstsOff(8) numScopeInsts(u16) pad(6).
const partialRecordSize = 1 + 7 + 8 + 8 + 2 + 6

// statisticRecordSize: suffixOff(8) finalizeFormulaOff(8) scopeInstsOff(8)
// numScopeInsts(u16) pad(6).
const statisticRecordSize = 8 + 8 + 8 + 2 + 6

// scopeInstRecordSize: scope(u8) pad(7) propagationID(u16) pad(6).
const scopeInstRecordSize = 1 + 7 + 2 + 6

// moduleSpecRecordSize: pathOff(8).
const moduleSpecRecordSize = 8

// fileSpecRecordSize: pathOff(8) flags(u8: bit0=copied) pad(7).
const fileSpecRecordSize = 8 + 1 + 7

// functionSpecRecordSize: nameOff(8) moduleIdx(u32) hasOffset(u8) pad(3)
// offset(u64) fileIdx(u32) line(u32) kind(u8: 0=function,1=placeholder)
// placeholderKind(u32) pad(3).
const functionSpecRecordSize = 8 + 4 + 1 + 3 + 8 + 4 + 4 + 1 + 4 + 3

// entryPointRecordSize: szChildren(u32) pad(4) pChildren(u64) ctxId(u32)
// entryPoint(u16) pad(2) pPrettyName(u64). Entry points are not ordinary
// context records (§4.H): the global context itself is never written, and
// its immediate children supply their children block directly here rather
// than through a context record of their own.
const entryPointRecordSize = 4 + 4 + 8 + 4 + 2 + 2 + 8

// contextsSectionHeaderSize: numEntryPoints(u32) pad(4) entryPointsOff(u64).
const contextsSectionHeaderSize = 4 + 4 + 8

const (
	entryPointUnknown           uint16 = 0
	entryPointMainThread        uint16 = 1
	entryPointApplicationThread uint16 = 2
)

// contextRecordSize is the fixed-size (non-flex) prefix of a context
// record: ctxID(u32) scopeKind(u8) relation(u8) propagation(u8) pad(1)
// scopeDetailOff(8) numChildren(u32) childrenOff(8).
const contextRecordFixedSize = 4 + 1 + 1 + 1 + 1 + 8 + 4 + 8

// propagation bitfield codes (§4.H): bit 0x1 is set iff the context's
// relation to its parent is enclosure.
const propagationEnclosure uint8 = 0x1

// scopeDetail record sizes, one shape per ScopeKind needing extra data.
// Encoding for each is implemented in context.go's encodeScopeDetail.
const (
	scopeDetailLineSize        = 8  // fileIdx(u32) line(u32)
	scopeDetailPointSize       = 16 // offset(u64) moduleIdx(u32) pad(4)
	scopeDetailLoopBinarySize  = 24 // offset(u64) moduleIdx(u32) fileIdx(u32) line(u32) pad(4)
	scopeDetailFunctionSize    = 4  // functionIdx(u32)
	scopeDetailPlaceholderSize = 4  // placeholderKind(u32)
)

const (
	relGlobal       uint8 = 0
	relEnclosure    uint8 = 1
	relCall         uint8 = 2
	relInlinedCall  uint8 = 3
)

func relationCode(r RelationKind) uint8 {
	switch r {
	case RelationGlobal:
		return relGlobal
	case RelationEnclosure:
		return relEnclosure
	case RelationCall:
		return relCall
	case RelationInlinedCall:
		return relInlinedCall
	default:
		panic("metadb: invalid RelationKind")
	}
}

const (
	scopeGlobal      uint8 = 0
	scopeUnknown     uint8 = 1
	scopePlaceholder uint8 = 2
	scopeLine        uint8 = 3
	scopeLoopLexical uint8 = 4
	scopeLoopBinary  uint8 = 5
	scopePoint       uint8 = 6
	scopeFunctionK   uint8 = 7
)

func scopeKindCode(k ScopeKind) uint8 {
	switch k {
	case ScopeKindGlobal:
		return scopeGlobal
	case ScopeKindUnknown:
		return scopeUnknown
	case ScopeKindPlaceholder:
		return scopePlaceholder
	case ScopeKindLine:
		return scopeLine
	case ScopeKindLoopLexical:
		return scopeLoopLexical
	case ScopeKindLoopBinary:
		return scopeLoopBinary
	case ScopeKindPoint:
		return scopePoint
	case ScopeKindFunction:
		return scopeFunctionK
	default:
		panic("metadb: invalid ScopeKind")
	}
}

func combinatorCode(c Combinator) uint8 {
	switch c {
	case CombineSum:
		return 0
	case CombineMin:
		return 1
	case CombineMax:
		return 2
	default:
		panic("metadb: invalid Combinator")
	}
}

func propagationScopeCode(s PropagationScope) uint8 {
	switch s {
	case ScopePoint:
		return 0
	case ScopeFunction:
		return 1
	case ScopeLexAware:
		return 2
	case ScopeExecution:
		return 3
	default:
		panic("metadb: invalid PropagationScope")
	}
}
