package metadb

import (
	"io"

	"github.com/orcaman/writerseeker"
)

// newTestLayout returns a Layout over an in-memory sink, for tests that
// don't need a real file on disk.
func newTestLayout() (*Layout, *writerseeker.WriterSeeker) {
	sink := &writerseeker.WriterSeeker{}
	l, err := NewLayout(sink)
	if err != nil {
		panic(err)
	}
	return l, sink
}

func readAll(sink *writerseeker.WriterSeeker) []byte {
	r := sink.Reader()
	b, err := io.ReadAll(r)
	if err != nil {
		panic(err)
	}
	return b
}
