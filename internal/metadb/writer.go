package metadb

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/google/renameio"
	"github.com/orcaman/writerseeker"
	"golang.org/x/sys/unix"

	"github.com/hpctoolkit/metadb-writer/internal/metadb/configpb"
)

// Writer builds one meta.db file from a Model. Construct with NewWriter,
// then call Write exactly once.
type Writer struct {
	cfg    *configpb.WriterConfig
	log    *log.Logger
	model  Model

	strings *StringTable
	modReg  *ModuleRegistry
	fileReg *FileRegistry
	fnReg   *FunctionRegistry
}

// NewWriter prepares a Writer for model, configured by cfg. logger may be
// nil, in which case a default stderr logger is used.
func NewWriter(ctx context.Context, cfg *configpb.WriterConfig, model Model, logger *log.Logger) *Writer {
	if logger == nil {
		logger = NewLogger(os.Stderr)
	}
	strings := NewStringTable()
	copyDir := ""
	if cfg.GetCopySources() && !cfg.GetDryRun() {
		copyDir = filepath.Join(cfg.GetOutputDirectory(), "src")
	}
	copyWorkers := int(cfg.GetCopyWorkers())
	if copyWorkers <= 0 {
		copyWorkers = 4
	}
	return &Writer{
		cfg:     cfg,
		log:     logger,
		model:   model,
		strings: strings,
		modReg:  NewModuleRegistry(strings),
		fileReg: NewFileRegistry(ctx, strings, copyDir, copyWorkers),
		fnReg:   NewFunctionRegistry(strings),
	}
}

// Write walks the model and produces meta.db (plus, if configured, a
// src/ tree and src.cpio.gz archive of referenced source files) in the
// configured output directory. In dry-run mode the model is walked in
// full but nothing reaches disk.
func (w *Writer) Write(ctx context.Context) (err error) {
	if w.cfg.GetDryRun() {
		sink := &writerseeker.WriterSeeker{}
		return w.write(ctx, sink, func() error { return nil })
	}

	dest := filepath.Join(w.cfg.GetOutputDirectory(), "meta.db")
	if err := os.MkdirAll(w.cfg.GetOutputDirectory(), 0o755); err != nil {
		return wrapErr(ErrIO, "creating output directory: %w", err)
	}
	f, err := renameio.TempFile("", dest)
	if err != nil {
		return wrapErr(ErrIO, "creating temp file for %s: %w", dest, err)
	}
	defer f.Cleanup()

	if err := w.write(ctx, f, func() error {
		return f.CloseAtomicallyReplace()
	}); err != nil {
		return err
	}

	if w.cfg.GetArchiveSources() {
		archivePath := filepath.Join(w.cfg.GetOutputDirectory(), "src.cpio.gz")
		if err := WriteSourceArchive(filepath.Join(w.cfg.GetOutputDirectory(), "src"), archivePath, w.fileReg.Files(), w.fileReg); err != nil {
			w.log.Printf("archiving copied sources: %v", err)
		}
	}
	return nil
}

// write drives the layout engine over sink, then calls commit (which, for
// a real output file, performs the atomic rename; for a dry run, is a
// no-op) once every section and the header have been written.
func (w *Writer) write(ctx context.Context, sink io.WriteSeeker, commit func() error) error {
	preallocate(sink)

	l, err := NewLayout(sink)
	if err != nil {
		return err
	}

	hdr, err := NewDeferred(l, fileHeaderCodec, fileHeaderSize)
	if err != nil {
		return err
	}
	hdr.Value().minReaderVersion = formatVersion

	attrs := w.model.Attributes()
	if err := writeGeneralSection(l, w.strings, attrs, hdr); err != nil {
		return wrapErr(ErrIO, "general section: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeIDNamesSection(l, w.strings, attrs, hdr); err != nil {
		return wrapErr(ErrIO, "identifier-names section: %w", err)
	}

	if err := writeMetricsSection(l, w.strings, w.model.Metrics(), hdr); err != nil {
		return wrapErr(ErrIO, "metrics section: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, f := range w.model.Files() {
		if _, err := w.fileReg.Notify(f); err != nil {
			return wrapErr(ErrModelInvariant, "registering file %s: %w", f.Path, err)
		}
	}
	for _, m := range w.model.Modules() {
		if _, err := w.modReg.Notify(m); err != nil {
			return wrapErr(ErrModelInvariant, "registering module %s: %w", m.Path, err)
		}
	}

	root := w.model.Root()
	if root == nil {
		return wrapErr(ErrModelInvariant, "model has no root context")
	}
	if err := writeContextsSection(l, w.strings, w.modReg, w.fileReg, w.fnReg, root, hdr); err != nil {
		return wrapErr(ErrIO, "contexts section: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Functions/modules/files sections are written after the context
	// walk, since walking contexts is what discovers which functions
	// (including placeholders) and, transitively, which modules/files
	// are actually referenced. The functions section goes first because
	// it registers each function's module and file, and every source copy
	// has finished before the files section records its copied flags.
	if err := writeFunctionsSection(l, w.strings, w.modReg, w.fileReg, w.fnReg, hdr); err != nil {
		return wrapErr(ErrIO, "functions section: %w", err)
	}
	if err := w.fileReg.Wait(); err != nil {
		return wrapErr(ErrSourceCopy, "waiting for source copies: %w", err)
	}
	if err := writeModulesSection(l, w.modReg, hdr); err != nil {
		return wrapErr(ErrIO, "modules section: %w", err)
	}
	if err := writeFilesSection(l, w.fileReg, hdr); err != nil {
		return wrapErr(ErrIO, "files section: %w", err)
	}

	stringsBase, err := w.strings.Emit(l)
	if err != nil {
		return wrapErr(ErrIO, "strings section: %w", err)
	}
	setSection(hdr.Value(), sectionStrings, stringsBase, stringsBase+w.strings.Size())

	footerOff, err := l.Allocate(uint64(len(footer)), 8)
	if err != nil {
		return wrapErr(ErrIO, "reserving footer: %w", err)
	}
	if err := l.WriteAt(footerOff, []byte(footer)); err != nil {
		return wrapErr(ErrIO, "writing footer: %w", err)
	}

	if err := hdr.Commit(); err != nil {
		return wrapErr(ErrIO, "committing file header: %w", err)
	}

	return commit()
}

// preallocate best-effort reserves disk space for f using fallocate, to
// reduce fragmentation for the large, mostly-sequential writes this
// package performs. f not being a regular *os.File (e.g. the dry-run
// writerseeker sink) is not an error; preallocation is simply skipped.
func preallocate(w io.WriteSeeker) {
	type fder interface {
		Fd() uintptr
	}
	f, ok := w.(fder)
	if !ok {
		return
	}
	const guessSize = 16 << 20
	// Not fatal: some filesystems (tmpfs, overlayfs variants) don't
	// support fallocate, and the write proceeds exactly as if nothing
	// had been reserved.
	_ = unix.Fallocate(int(f.Fd()), 0, 0, guessSize)
}
