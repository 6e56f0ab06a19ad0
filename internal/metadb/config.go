package metadb

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/golang/protobuf/proto"
	"github.com/protocolbuffers/txtpbfmt/parser"
	"golang.org/x/mod/semver"
	"golang.org/x/xerrors"

	"github.com/hpctoolkit/metadb-writer/internal/metadb/configpb"
)

var configBufPool = sync.Pool{
	New: func() interface{} { return &bytes.Buffer{} },
}

// ReadConfigFile loads and parses a WriterConfig textproto file, reading
// it through a sync.Pool-buffered buffer, and validates the result.
func ReadConfigFile(path string) (*configpb.WriterConfig, error) {
	b := configBufPool.Get().(*bytes.Buffer)
	b.Reset()
	defer configBufPool.Put(b)

	f, err := os.Open(path)
	if err != nil {
		return nil, wrapErr(ErrConfiguration, "open config %s: %w", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(b, f); err != nil {
		return nil, wrapErr(ErrConfiguration, "read config %s: %w", path, err)
	}

	var cfg configpb.WriterConfig
	if err := proto.UnmarshalText(b.String(), &cfg); err != nil {
		return nil, wrapErr(ErrConfiguration, "parse config %s: %w", path, err)
	}
	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *configpb.WriterConfig) error {
	if cfg.GetOutputDirectory() == "" {
		return wrapErr(ErrConfiguration, "config: output_directory is required")
	}
	if v := cfg.GetMinReaderVersion(); v != "" {
		if !semver.IsValid(v) {
			return wrapErr(ErrConfiguration, "config: min_reader_version %q is not a valid semver", v)
		}
		if semver.Compare(v, formatSemver) > 0 {
			return wrapErr(ErrConfiguration, "config: min_reader_version %q exceeds this writer's format version %q", v, formatSemver)
		}
	}
	return nil
}

// formatSemver is the semantic version of the on-disk format this package
// writes. Bump on any layout-breaking change.
const formatSemver = "v1.0.0"

// DefaultConfigText returns a WriterConfig textproto populated with this
// package's defaults, formatted the way txtpbfmt would format a
// hand-edited config file, for use as a template.
func DefaultConfigText() (string, error) {
	const raw = `output_directory: "."
copy_sources: false
copy_workers: 4
archive_sources: false
dry_run: false
`
	formatted, err := parser.Format([]byte(raw))
	if err != nil {
		return "", xerrors.Errorf("formatting default config: %w", err)
	}
	return string(formatted), nil
}
