package backup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	suffix     = ".backup"
	zstdSuffix = ".zst"
	timeLayout = "20060102_150405"
)

// Create copies path next to itself before it is modified and returns the
// backup's path. The first backup is <path>.backup; when that exists a
// timestamped <path>.backup_YYYYMMDD_HHMMSS is used instead. With compress
// the copy is zstd-compressed and ".zst" is appended.
func Create(path string, compress bool) (string, error) {
	return create(path, compress, time.Now())
}

func create(path string, compress bool, now time.Time) (string, error) {
	dst := Name(path, compress, now)

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("backup: open %s: %w", path, err)
	}
	defer src.Close()
	info, err := src.Stat()
	if err != nil {
		return "", fmt.Errorf("backup: stat %s: %w", path, err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return "", fmt.Errorf("backup: create %s: %w", dst, err)
	}
	if compress {
		err = writeCompressed(out, src)
	} else {
		_, err = io.Copy(out, src)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("backup: write %s: %w", dst, err)
	}

	// Keep the source's modification time, like cp -p.
	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	return dst, nil
}

// Name returns the backup path Create would use at time now.
func Name(path string, compress bool, now time.Time) string {
	ext := ""
	if compress {
		ext = zstdSuffix
	}
	first := path + suffix + ext
	if _, err := os.Stat(first); os.IsNotExist(err) {
		return first
	}
	return path + suffix + "_" + now.Format(timeLayout) + ext
}

func writeCompressed(w io.Writer, r io.Reader) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)
	if _, err := io.Copy(bw, r); err != nil {
		enc.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// Open returns a reader over a backup's original content, decompressing
// .zst backups.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("backup: open %s: %w", path, err)
	}
	if !strings.HasSuffix(path, zstdSuffix) {
		return f, nil
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("backup: open %s: %w", path, err)
	}
	return &zstdReadCloser{dec: dec, f: f}, nil
}

// Restore writes a backup's original content over target. The content is
// written to a temporary file in target's directory and renamed into place.
func Restore(backupPath, target string) error {
	src, err := Open(backupPath)
	if err != nil {
		return err
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".restore*")
	if err != nil {
		return fmt.Errorf("backup: restore %s: %w", target, err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("backup: restore %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("backup: restore %s: %w", target, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("backup: restore %s: %w", target, err)
	}
	return nil
}

type zstdReadCloser struct {
	dec *zstd.Decoder
	f   *os.File
}

func (z *zstdReadCloser) Read(p []byte) (int, error) { return z.dec.Read(p) }

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.f.Close()
}
