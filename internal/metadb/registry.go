package metadb

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/exp/mmap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/xerrors"
)

// FileRegistry tracks the subset of Files actually referenced by the
// context tree being written, and optionally copies their contents into
// the output's src/ directory.
//
// Registration happens during the concurrent notification phase; a
// singleflight.Group gives "first reference wins" semantics for free,
// since concurrent Notify calls for the same *File collapse onto a single
// in-flight registration and all callers see its result.
type FileRegistry struct {
	g        singleflight.Group
	mu       sync.Mutex
	byFile   map[*File]*fileEntry
	order    []*File
	strings  *StringTable
	copyDir  string // empty disables source copying
	copyPool *errgroup.Group
	copyCtx  context.Context
}

type fileEntry struct {
	index     uint32
	pathOff   uint64
	copied    bool
}

// NewFileRegistry returns a registry interning file paths into strings.
// If copyDir is non-empty, Notify additionally schedules a best-effort
// copy of each resolved file into copyDir, bounded by copyWorkers
// concurrent copies (mirroring the teacher's fixed-size worker-pool
// pattern over a channel of work items).
func NewFileRegistry(ctx context.Context, strings *StringTable, copyDir string, copyWorkers int) *FileRegistry {
	r := &FileRegistry{
		byFile:  make(map[*File]*fileEntry),
		strings: strings,
		copyDir: copyDir,
	}
	if copyDir != "" {
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(copyWorkers)
		r.copyPool = eg
		r.copyCtx = egCtx
	}
	return r
}

// Notify registers f, if it hasn't been seen before, and returns f's
// assigned index. Safe for concurrent use.
func (r *FileRegistry) Notify(f *File) (uint32, error) {
	r.mu.Lock()
	if e, ok := r.byFile[f]; ok {
		r.mu.Unlock()
		return e.index, nil
	}
	r.mu.Unlock()

	key := fmt.Sprintf("%p", f)
	v, err, _ := r.g.Do(key, func() (interface{}, error) {
		r.mu.Lock()
		if e, ok := r.byFile[f]; ok {
			r.mu.Unlock()
			return e.index, nil
		}
		idx := uint32(len(r.order))
		e := &fileEntry{index: idx, pathOff: r.strings.Intern(f.Path)}
		r.byFile[f] = e
		r.order = append(r.order, f)
		r.mu.Unlock()

		if r.copyDir != "" && f.Resolved != "" {
			r.scheduleCopy(f, e)
		}
		return idx, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(uint32), nil
}

func (r *FileRegistry) scheduleCopy(f *File, e *fileEntry) {
	r.copyPool.Go(func() error {
		if err := copyFileInto(r.copyCtx, r.copyDir, f); err != nil {
			// Source-copy failures are recoverable: the record simply
			// reports copied=false and the caller falls back to the
			// original path.
			return nil
		}
		r.mu.Lock()
		e.copied = true
		r.mu.Unlock()
		return nil
	})
}

// Wait blocks until every scheduled copy has finished.
func (r *FileRegistry) Wait() error {
	if r.copyPool == nil {
		return nil
	}
	return r.copyPool.Wait()
}

// Files returns the registered files in discovery order.
func (r *FileRegistry) Files() []*File { return r.order }

func (r *FileRegistry) entry(f *File) *fileEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byFile[f]
}

// PathOffset returns f's interned path string offset.
func (r *FileRegistry) PathOffset(f *File) uint64 { return r.entry(f).pathOff }

// Copied reports whether f's contents were successfully copied into the
// output directory.
func (r *FileRegistry) Copied(f *File) bool { return r.entry(f).copied }

func copyFileInto(ctx context.Context, dir string, f *File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dest := filepath.Join(dir, f.Path)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return xerrors.Errorf("mkdir for %s: %w", f.Path, err)
	}

	// mmap.Open avoids a read syscall per chunk for what are frequently
	// large source files, at the cost of a page fault per touched page;
	// a worthwhile trade here since most copied sources are read exactly
	// once, in full, immediately after opening.
	src, err := mmap.Open(f.Resolved)
	if err != nil {
		return xerrors.Errorf("mmap %s: %w", f.Resolved, err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return xerrors.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, io.NewSectionReader(src, 0, int64(src.Len()))); err != nil {
		out.Close()
		return xerrors.Errorf("copy %s: %w", f.Path, err)
	}
	if fi, err := os.Stat(f.Resolved); err == nil {
		os.Chmod(dest, fi.Mode())
	}
	return out.Close()
}

// ModuleRegistry tracks referenced Modules.
type ModuleRegistry struct {
	g       singleflight.Group
	mu      sync.Mutex
	byMod   map[*Module]uint32
	order   []*Module
	strings *StringTable
	pathOff map[*Module]uint64
}

func NewModuleRegistry(strings *StringTable) *ModuleRegistry {
	return &ModuleRegistry{
		byMod:   make(map[*Module]uint32),
		pathOff: make(map[*Module]uint64),
		strings: strings,
	}
}

func (r *ModuleRegistry) Notify(m *Module) (uint32, error) {
	r.mu.Lock()
	if idx, ok := r.byMod[m]; ok {
		r.mu.Unlock()
		return idx, nil
	}
	r.mu.Unlock()

	v, err, _ := r.g.Do(fmt.Sprintf("%p", m), func() (interface{}, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if idx, ok := r.byMod[m]; ok {
			return idx, nil
		}
		idx := uint32(len(r.order))
		r.byMod[m] = idx
		r.pathOff[m] = r.strings.Intern(m.Path)
		r.order = append(r.order, m)
		return idx, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(uint32), nil
}

func (r *ModuleRegistry) Modules() []*Module { return r.order }

func (r *ModuleRegistry) PathOffset(m *Module) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pathOff[m]
}

// FunctionRegistry tracks referenced Functions (and synthetic
// placeholders, which it assigns indices from the same space, placeholders
// last, since placeholders are only discovered as scope kinds on contexts
// rather than notified up front by the model).
type FunctionRegistry struct {
	g         singleflight.Group
	mu        sync.Mutex
	byFunc    map[*Function]uint32
	order     []*Function
	byPH      map[PlaceholderKind]uint32
	phOrder   []PlaceholderKind
	strings   *StringTable
}

func NewFunctionRegistry(strings *StringTable) *FunctionRegistry {
	return &FunctionRegistry{
		byFunc:  make(map[*Function]uint32),
		byPH:    make(map[PlaceholderKind]uint32),
		strings: strings,
	}
}

func (r *FunctionRegistry) NotifyFunction(f *Function) (uint32, error) {
	r.mu.Lock()
	if idx, ok := r.byFunc[f]; ok {
		r.mu.Unlock()
		return idx, nil
	}
	r.mu.Unlock()

	v, _, _ := r.g.Do(fmt.Sprintf("%p", f), func() (interface{}, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if idx, ok := r.byFunc[f]; ok {
			return idx, nil
		}
		idx := uint32(len(r.order))
		r.byFunc[f] = idx
		r.order = append(r.order, f)
		return idx, nil
	})
	return v.(uint32), nil
}

// NotifyPlaceholder registers kind as a function-like entity the first
// time it is seen and returns its assigned index.
func (r *FunctionRegistry) NotifyPlaceholder(kind PlaceholderKind) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx, ok := r.byPH[kind]; ok {
		return idx
	}
	idx := uint32(len(r.order) + len(r.phOrder))
	r.byPH[kind] = idx
	r.phOrder = append(r.phOrder, kind)
	return idx
}

// Functions returns registered functions in discovery order, and
// Placeholders registered placeholders in discovery order; the functions
// section lists the former, then the latter.
func (r *FunctionRegistry) Functions() []*Function { return r.order }
func (r *FunctionRegistry) Placeholders() []PlaceholderKind { return r.phOrder }
