package metadb

// Codec describes how to serialize a value of type T for a scoped writer:
// its alignment and an encode function producing its wire bytes.
//
// Rationale: the file format is
// self-referential, with parent sections storing offsets and sizes of
// child sections. A Written value commits its bytes the moment it is
// constructed, because its content is already fully known. A Deferred
// value instead reserves space immediately (fixing its own offset) and
// commits its content later, once that content depends on things written
// after it — this lets parents reserve space before children exist and
// patch themselves once the children's offsets are known, without a
// second patch-up pass over the file.
type Codec[T any] struct {
	Alignment uint64
	Encode    func(T) []byte
}

// Written is an "immediate" scope: its value is serialized and committed
// to the file the moment it is constructed.
type Written[T any] struct {
	offset   uint64
	byteSize uint64
	value    T

	_ noCopy
}

// NewWritten serializes value via codec, allocates space for it in l, and
// writes it immediately.
func NewWritten[T any](l *Layout, codec Codec[T], value T) (*Written[T], error) {
	data := codec.Encode(value)
	off, err := l.Allocate(uint64(len(data)), codec.Alignment)
	if err != nil {
		return nil, err
	}
	if err := l.WriteAt(off, data); err != nil {
		return nil, err
	}
	return &Written[T]{offset: off, byteSize: uint64(len(data)), value: value}, nil
}

// NewWrittenPatched is like NewWritten, but additionally patches parent with
// this value's offset and end offset once both are known (which, since
// Allocate returns the offset synchronously, is immediately).
func NewWrittenPatched[T any, P any](l *Layout, codec Codec[T], value T, parent *P, updateParent func(*P, uint64, uint64)) (*Written[T], error) {
	w, err := NewWritten(l, codec, value)
	if err != nil {
		return nil, err
	}
	updateParent(parent, w.offset, w.offset+w.byteSize)
	return w, nil
}

func (w *Written[T]) Offset() uint64   { return w.offset }
func (w *Written[T]) ByteSize() uint64 { return w.byteSize }
func (w *Written[T]) Value() T        { return w.value }

// ElementOffset returns the absolute offset of the i-th element of an
// array-like Written value, given the per-element size used to encode it.
func (w *Written[T]) ElementOffset(i int, elemSize uint64) uint64 {
	return w.offset + uint64(i)*elemSize
}

// Deferred is a "WriteGuard" scope: space is reserved immediately (fixing
// its own offset), but the value is mutable and its content is committed to
// the file only when Commit is called. T must have a constant wire size.
type Deferred[T any] struct {
	l        *Layout
	codec    Codec[T]
	offset   uint64
	byteSize uint64
	value    T
	done     bool

	_ noCopy
}

// NewDeferred reserves constantSize bytes (aligned per codec) for a value
// that will be populated and committed later via Set/Commit.
func NewDeferred[T any](l *Layout, codec Codec[T], constantSize uint64) (*Deferred[T], error) {
	off, err := l.Allocate(constantSize, codec.Alignment)
	if err != nil {
		return nil, err
	}
	return &Deferred[T]{l: l, codec: codec, offset: off, byteSize: constantSize}, nil
}

// NewDeferredPatched is like NewDeferred, patching parent with the
// reservation's offset and end offset immediately.
func NewDeferredPatched[T any, P any](l *Layout, codec Codec[T], constantSize uint64, parent *P, updateParent func(*P, uint64, uint64)) (*Deferred[T], error) {
	d, err := NewDeferred(l, codec, constantSize)
	if err != nil {
		return nil, err
	}
	updateParent(parent, d.offset, d.offset+d.byteSize)
	return d, nil
}

func (d *Deferred[T]) Offset() uint64   { return d.offset }
func (d *Deferred[T]) ByteSize() uint64 { return d.byteSize }

// Set replaces the pending value. Valid only before Commit.
func (d *Deferred[T]) Set(v T) { d.value = v }

// Value returns the pending (mutable until Commit) value.
func (d *Deferred[T]) Value() *T { return &d.value }

// Commit serializes the current value and writes it at the reserved
// offset. It must be called exactly once.
func (d *Deferred[T]) Commit() error {
	if d.done {
		panic("metadb: Deferred.Commit called twice")
	}
	d.done = true
	data := d.codec.Encode(d.value)
	if uint64(len(data)) > d.byteSize {
		panic("metadb: Deferred value serialized larger than its reservation")
	}
	if uint64(len(data)) < d.byteSize {
		padded := make([]byte, d.byteSize)
		copy(padded, data)
		data = padded
	}
	return d.l.WriteAt(d.offset, data)
}

// noCopy embeds into a struct to document (via `go vet -copylocks`, since it
// implements sync.Locker-shaped methods) that values of that struct must
// not be copied after first use: the file offset they hold is the value's
// sole identity.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
