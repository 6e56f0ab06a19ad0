package metadb

// sectionDesc is an (offset, size) pair as stored in the file header.
type sectionDesc struct {
	offset uint64
	size   uint64
}

// fileHeader is the root record: magic, format version, minimum reader
// version, and one sectionDesc per section. It is reserved first (offset
// 0) via a Deferred value and committed last, once every section has been
// written and has reported its own offset and size back into it.
type fileHeader struct {
	minReaderVersion uint32
	sections         [sectionCount]sectionDesc
}

func encodeFileHeader(h fileHeader) []byte {
	b := make([]byte, fileHeaderSize)
	copy(b[0:8], magic)
	putU32(b[8:12], formatVersion)
	putU32(b[12:16], h.minReaderVersion)
	off := 16
	for i := 0; i < sectionCount; i++ {
		putU64(b[off:off+8], h.sections[i].offset)
		putU64(b[off+8:off+16], h.sections[i].size)
		off += 16
	}
	return b
}

var fileHeaderCodec = Codec[fileHeader]{Alignment: 8, Encode: encodeFileHeader}

func setSection(h *fileHeader, idx int, off, end uint64) {
	h.sections[idx] = sectionDesc{offset: off, size: end - off}
}

// writeGeneralSection emits the database's display name and description.
func writeGeneralSection(l *Layout, strings *StringTable, attrs Attributes, hdr *Deferred[fileHeader]) error {
	name := attrs.Name
	if name == "" {
		name = "<unnamed>"
	}
	desc := attrs.Description
	if desc == "" {
		desc = "TODO database description"
	}
	nameOff := strings.Intern(name)
	descOff := strings.Intern(desc)
	buf := make([]byte, generalSectionSize)
	putU64(buf[0:8], nameOff)
	putU64(buf[8:16], descOff)
	off, err := l.Allocate(uint64(len(buf)), 8)
	if err != nil {
		return err
	}
	if err := l.WriteAt(off, buf); err != nil {
		return err
	}
	setSection(hdr.Value(), sectionGeneral, off, off+uint64(len(buf)))
	return nil
}

// writeIDNamesSection emits the identifier-kind name table.
func writeIDNamesSection(l *Layout, strings *StringTable, attrs Attributes, hdr *Deferred[fileHeader]) error {
	var maxKind uint8
	for k := range attrs.IdentifierKindNames {
		if k > maxKind {
			maxKind = k
		}
	}
	n := int(maxKind) + 1
	if len(attrs.IdentifierKindNames) == 0 {
		n = 0
	}
	buf := make([]byte, n*idNameRecordSize)
	empty := strings.Intern("")
	for i := 0; i < n; i++ {
		off := strings.Intern(attrs.IdentifierKindNames[uint8(i)])
		if attrs.IdentifierKindNames[uint8(i)] == "" {
			off = empty
		}
		putU64(buf[i*idNameRecordSize:], off)
	}
	base, err := l.Allocate(uint64(len(buf)), 8)
	if err != nil {
		return err
	}
	if err := l.WriteAt(base, buf); err != nil {
		return err
	}
	setSection(hdr.Value(), sectionIDNames, base, base+uint64(len(buf)))
	return nil
}

// writeModulesSection emits one moduleSpec record per registered module,
// in discovery order (the order the functions section's moduleIdx fields
// assume).
func writeModulesSection(l *Layout, reg *ModuleRegistry, hdr *Deferred[fileHeader]) error {
	mods := reg.Modules()
	buf := make([]byte, len(mods)*moduleSpecRecordSize)
	for i, m := range mods {
		putU64(buf[i*moduleSpecRecordSize:], reg.PathOffset(m))
	}
	base, err := l.Allocate(uint64(len(buf)), 8)
	if err != nil {
		return err
	}
	if err := l.WriteAt(base, buf); err != nil {
		return err
	}
	setSection(hdr.Value(), sectionModules, base, base+uint64(len(buf)))
	return nil
}

// writeFilesSection emits one fileSpec record per registered file.
func writeFilesSection(l *Layout, reg *FileRegistry, hdr *Deferred[fileHeader]) error {
	files := reg.Files()
	buf := make([]byte, len(files)*fileSpecRecordSize)
	for i, f := range files {
		rec := buf[i*fileSpecRecordSize:]
		putU64(rec, reg.PathOffset(f))
		var flags uint8
		if reg.Copied(f) {
			flags = 1
		}
		rec[8] = flags
	}
	base, err := l.Allocate(uint64(len(buf)), 8)
	if err != nil {
		return err
	}
	if err := l.WriteAt(base, buf); err != nil {
		return err
	}
	setSection(hdr.Value(), sectionFiles, base, base+uint64(len(buf)))
	return nil
}

// writeFunctionsSection emits one functionSpec record per registered
// function, followed by one per registered placeholder, matching the
// discovery-then-placeholders order FunctionRegistry.Functions /
// Placeholders report (placeholders are addressed by the same index
// space, offset by len(Functions())).
func writeFunctionsSection(l *Layout, strings *StringTable, modReg *ModuleRegistry, fileReg *FileRegistry, reg *FunctionRegistry, hdr *Deferred[fileHeader]) error {
	fns := reg.Functions()
	phs := reg.Placeholders()
	buf := make([]byte, (len(fns)+len(phs))*functionSpecRecordSize)

	for i, fn := range fns {
		rec := buf[i*functionSpecRecordSize:]
		putU64(rec[0:8], strings.Intern(fn.Name))
		var modIdx uint32
		if fn.Module != nil {
			idx, err := modReg.Notify(fn.Module)
			if err != nil {
				return err
			}
			modIdx = idx
		}
		putU32(rec[8:12], modIdx)
		if fn.Offset != nil {
			rec[12] = 1
			putU64(rec[16:24], *fn.Offset)
		}
		var fileIdx uint32
		if fn.File != nil {
			idx, err := fileReg.Notify(fn.File)
			if err != nil {
				return err
			}
			fileIdx = idx
		}
		putU32(rec[24:28], fileIdx)
		putU32(rec[28:32], fn.Line)
		rec[32] = 0 // kind: function
	}
	base := len(fns)
	for i, ph := range phs {
		rec := buf[(base+i)*functionSpecRecordSize:]
		putU64(rec[0:8], strings.Intern(ph.PrettyName()))
		rec[32] = 1 // kind: placeholder
		putU32(rec[33:37], uint32(ph))
	}

	off, err := l.Allocate(uint64(len(buf)), 8)
	if err != nil {
		return err
	}
	if err := l.WriteAt(off, buf); err != nil {
		return err
	}
	setSection(hdr.Value(), sectionFunctions, off, off+uint64(len(buf)))
	return nil
}

// metricsWriter accumulates the pieces of the metrics section: each
// metric's scope-instance and partial/statistic arrays are written as
// they're computed, then gathered into a single descriptor array so the
// section itself is one contiguous allocation.
type metricsWriter struct {
	l       *Layout
	strings *StringTable
}

func (mw *metricsWriter) writeScopeInsts(m *Metric, ids func(PropagationScope) uint16) (uint64, uint16, error) {
	scopes := m.enabledScopes()
	buf := make([]byte, len(scopes)*scopeInstRecordSize)
	for i, s := range scopes {
		rec := buf[i*scopeInstRecordSize:]
		rec[0] = propagationScopeCode(s)
		putU16(rec[8:10], ids(s))
	}
	off, err := mw.l.Allocate(uint64(len(buf)), 8)
	if err != nil {
		return 0, 0, err
	}
	if err := mw.l.WriteAt(off, buf); err != nil {
		return 0, 0, err
	}
	return off, uint16(len(scopes)), nil
}

func (mw *metricsWriter) writePartials(m *Metric) (uint64, uint16, error) {
	buf := make([]byte, len(m.Partials)*partialRecordSize)
	for i, p := range m.Partials {
		scopeOff, n, err := mw.writeScopeInsts(m, func(s PropagationScope) uint16 {
			return m.Identifiers.ForPartial(i, s)
		})
		if err != nil {
			return 0, 0, err
		}
		rec := buf[i*partialRecordSize:]
		rec[0] = combinatorCode(p.Combinator)
		putU64(rec[8:16], mw.strings.Intern(FormatFormula(p.Accumulate)))
		putU64(rec[16:24], scopeOff)
		putU16(rec[24:26], n)
	}
	off, err := mw.l.Allocate(uint64(len(buf)), 8)
	if err != nil {
		return 0, 0, err
	}
	if err := mw.l.WriteAt(off, buf); err != nil {
		return 0, 0, err
	}
	return off, uint16(len(m.Partials)), nil
}

func (mw *metricsWriter) writeStatistics(m *Metric) (uint64, uint16, error) {
	buf := make([]byte, len(m.Statistics)*statisticRecordSize)
	for i, s := range m.Statistics {
		scopeOff, n, err := mw.writeScopeInsts(m, m.Identifiers.ForScope)
		if err != nil {
			return 0, 0, err
		}
		rec := buf[i*statisticRecordSize:]
		putU64(rec[0:8], mw.strings.Intern(s.Suffix))
		putU64(rec[8:16], mw.strings.Intern(FormatFormula(s.Finalize)))
		putU64(rec[16:24], scopeOff)
		putU16(rec[24:26], n)
	}
	off, err := mw.l.Allocate(uint64(len(buf)), 8)
	if err != nil {
		return 0, 0, err
	}
	if err := mw.l.WriteAt(off, buf); err != nil {
		return 0, 0, err
	}
	return off, uint16(len(m.Statistics)), nil
}

// writePropagationScopes emits the fixed-order {point, function, lex-aware,
// execution} array of propagation-scope records that the metrics section
// carries once, independent of how many metrics exist.
func writePropagationScopes(l *Layout, strings *StringTable) (uint64, error) {
	buf := make([]byte, len(propagationScopeOrder)*propagationScopeRecordSize)
	for i, s := range propagationScopeOrder {
		rec := buf[i*propagationScopeRecordSize:]
		putU64(rec[0:8], strings.Intern(s.shortName()))
		rec[8] = propagationTypeCode(s)
		rec[9] = propagationIndexCode(s)
	}
	off, err := l.Allocate(uint64(len(buf)), 8)
	if err != nil {
		return 0, err
	}
	if err := l.WriteAt(off, buf); err != nil {
		return 0, err
	}
	return off, nil
}

// writeMetricsSection emits the full metrics section: the fixed
// propagation-scope array, then every metric's descriptor plus the
// partial/statistic/scope-instance arrays it points into, all laid out
// ahead of the descriptor array itself so every offset in it is already
// known, then a small section header naming both arrays and their counts.
func writeMetricsSection(l *Layout, strings *StringTable, metrics []*Metric, hdr *Deferred[fileHeader]) error {
	scopesOff, err := writePropagationScopes(l, strings)
	if err != nil {
		return err
	}

	mw := &metricsWriter{l: l, strings: strings}
	descs := make([]byte, len(metrics)*metricDescRecordSize)
	for i, m := range metrics {
		partialsOff, numPartials, err := mw.writePartials(m)
		if err != nil {
			return err
		}
		statsOff, numStats, err := mw.writeStatistics(m)
		if err != nil {
			return err
		}
		rec := descs[i*metricDescRecordSize:]
		putU64(rec[0:8], strings.Intern(m.Name))
		putU64(rec[8:16], strings.Intern(m.Description))
		putU16(rec[16:18], numPartials)
		putU16(rec[18:20], numStats)
		putU64(rec[24:32], partialsOff)
		putU64(rec[32:40], statsOff)
	}
	metricsOff, err := l.Allocate(uint64(len(descs)), 8)
	if err != nil {
		return err
	}
	if err := l.WriteAt(metricsOff, descs); err != nil {
		return err
	}

	secHdr := make([]byte, metricsSectionHeaderSize)
	putU32(secHdr[0:4], uint32(len(propagationScopeOrder)))
	putU64(secHdr[8:16], scopesOff)
	putU32(secHdr[16:20], uint32(len(metrics)))
	putU64(secHdr[24:32], metricsOff)
	secOff, err := l.Allocate(uint64(len(secHdr)), 8)
	if err != nil {
		return err
	}
	if err := l.WriteAt(secOff, secHdr); err != nil {
		return err
	}
	setSection(hdr.Value(), sectionMetrics, secOff, secOff+uint64(len(secHdr)))
	return nil
}
