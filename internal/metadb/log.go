package metadb

import (
	"io"
	"log"
	"os"

	"github.com/mattn/go-isatty"
)

// NewLogger returns a *log.Logger writing to w. When w is a terminal
// (checked via isatty), timestamps are omitted since interactive runs
// already see output as it happens; redirected/piped output gets
// standard date+time flags so logs remain useful out of context.
func NewLogger(w io.Writer) *log.Logger {
	flags := log.LstdFlags
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		flags = 0
	}
	return log.New(w, "metadb: ", flags)
}
