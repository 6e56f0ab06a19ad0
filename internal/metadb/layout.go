package metadb

import (
	"io"

	"golang.org/x/xerrors"
)

// Layout is a monotonic byte-offset allocator over a single output file. It
// is not safe for concurrent use: write() drives it single-threaded, per
// the format's strictly sequential layout.
type Layout struct {
	w      io.WriteSeeker
	cursor uint64
}

// NewLayout returns a Layout writing to w, starting at the current position
// of w (the caller is expected to have already seeked, if needed).
func NewLayout(w io.WriteSeeker) (*Layout, error) {
	cur, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, xerrors.Errorf("layout: determining initial offset: %w", err)
	}
	return &Layout{w: w, cursor: uint64(cur)}, nil
}

// Allocate advances the cursor to the next multiple of alignment, then
// reserves size bytes there. It returns the (aligned) base offset at which
// the caller is expected to write exactly size bytes.
func (l *Layout) Allocate(size, alignment uint64) (uint64, error) {
	aligned := alignUp(l.cursor, alignment)
	if aligned > l.cursor {
		if err := l.zeroFill(l.cursor, aligned-l.cursor); err != nil {
			return 0, err
		}
	}
	l.cursor = aligned + size
	return aligned, nil
}

// Size reports the current cursor value: the number of bytes written plus
// any pending alignment padding.
func (l *Layout) Size() uint64 { return l.cursor }

// WriteAt writes data at the given offset, which must have been returned by
// a prior Allocate call (or fall within such a reservation).
func (l *Layout) WriteAt(offset uint64, data []byte) error {
	if _, err := l.w.Seek(int64(offset), io.SeekStart); err != nil {
		return xerrors.Errorf("layout: seeking to 0x%x: %w", offset, err)
	}
	if _, err := l.w.Write(data); err != nil {
		return xerrors.Errorf("layout: writing %d bytes at 0x%x: %w", len(data), offset, err)
	}
	return nil
}

func (l *Layout) zeroFill(offset, n uint64) error {
	if n == 0 {
		return nil
	}
	zeros := make([]byte, n)
	return l.WriteAt(offset, zeros)
}

// File exposes the underlying output handle, for callers (write-scopes)
// that need to emit bytes directly rather than through WriteAt.
func (l *Layout) File() io.WriteSeeker { return l.w }
