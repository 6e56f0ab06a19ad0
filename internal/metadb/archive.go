package metadb

import (
	"io"
	"os"
	"path/filepath"

	"github.com/cavaliercoder/go-cpio"
	"github.com/klauspost/pgzip"
	"golang.org/x/xerrors"
)

// WriteSourceArchive bundles every copied source file under srcDir into a
// single gzip-compressed cpio archive at destPath, supplementing (not
// replacing) the loose srcDir tree the FileRegistry already populated.
// Parallel gzip keeps archiving large source trees from becoming the
// long pole once copying itself is already running with bounded
// concurrency.
func WriteSourceArchive(srcDir, destPath string, files []*File, reg *FileRegistry) error {
	out, err := os.Create(destPath)
	if err != nil {
		return wrapErr(ErrIO, "create %s: %w", destPath, err)
	}
	defer out.Close()

	gz := pgzip.NewWriter(out)
	cw := cpio.NewWriter(gz)

	for _, f := range files {
		if !reg.Copied(f) {
			continue
		}
		if err := writeCPIOEntry(cw, filepath.Join(srcDir, f.Path), f.Path); err != nil {
			return wrapErr(ErrIO, "archiving %s: %w", f.Path, err)
		}
	}

	if err := cw.Close(); err != nil {
		return wrapErr(ErrIO, "closing cpio writer for %s: %w", destPath, err)
	}
	if err := gz.Close(); err != nil {
		return wrapErr(ErrIO, "closing gzip writer for %s: %w", destPath, err)
	}
	return out.Close()
}

func writeCPIOEntry(wr *cpio.Writer, srcPath, archiveName string) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	if err := wr.WriteHeader(&cpio.Header{
		Name: archiveName,
		Mode: cpio.FileMode(fi.Mode().Perm()),
		Size: fi.Size(),
	}); err != nil {
		return xerrors.Errorf("writing cpio header for %s: %w", archiveName, err)
	}
	_, err = io.Copy(wr, f)
	return err
}
