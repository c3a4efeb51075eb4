// Package archive implements the batch transfer container.
//
// A batch archive is a zip whose entries are named "<key>.tmp.zip" and
// stored without compression. Every entry payload is itself a zip holding a
// single entry named "<key>" compressed with zstd (zip method 93). The
// payload is exactly what the result store keeps as "<key>.tmp", so each
// entry is a standalone, independently extractable artifact.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"

	"github.com/dmitrijs2005/sourcesync/internal/storagekey"
)

// MaxFileSize limits the decompressed size of one file. Larger entries are
// refused when reading so a hostile archive cannot exhaust memory.
const MaxFileSize = 256 << 20

// ErrTooLarge is returned when an entry exceeds MaxFileSize.
var ErrTooLarge = errors.New("archive entry too large")

func compressor() zip.Compressor {
	return zstd.ZipCompressor(zstd.WithEncoderLevel(zstd.SpeedDefault))
}

// Payload compresses content read from r into a single-entry zip named key.
func Payload(key string, r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	if err := writePayload(&buf, key, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writePayload(w io.Writer, key string, r io.Reader) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zstd.ZipMethodWinZip, compressor())

	fw, err := zw.CreateHeader(&zip.FileHeader{Name: key, Method: zstd.ZipMethodWinZip})
	if err != nil {
		return fmt.Errorf("create entry %s: %w", key, err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return fmt.Errorf("compress %s: %w", key, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish payload %s: %w", key, err)
	}
	return nil
}

// Content extracts the original bytes from a payload built for key.
func Content(key string, payload []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, fmt.Errorf("open payload %s: %w", key, err)
	}
	zr.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())

	if len(zr.File) != 1 || zr.File[0].Name != key {
		return nil, fmt.Errorf("payload %s: expected a single entry named after its key", key)
	}
	return readLimited(zr.File[0])
}

// Writer appends artifacts to a batch archive.
type Writer struct {
	zw      *zip.Writer
	entries int
	scratch bytes.Buffer
}

// NewWriter starts a batch archive on w. Close must be called to finish it.
func NewWriter(w io.Writer) *Writer {
	return &Writer{zw: zip.NewWriter(w)}
}

// Add compresses r and appends it as the entry for key. On error nothing
// has been written to the archive, so the caller may continue with the
// next file.
func (w *Writer) Add(key string, r io.Reader) error {
	w.scratch.Reset()
	if err := writePayload(&w.scratch, key, r); err != nil {
		return err
	}
	return w.AddPayload(key, w.scratch.Bytes())
}

// AddPayload appends an already built payload for key.
func (w *Writer) AddPayload(key string, payload []byte) error {
	fw, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:   storagekey.TransitName(key),
		Method: zip.Store,
	})
	if err != nil {
		return fmt.Errorf("create entry %s: %w", key, err)
	}
	if _, err := fw.Write(payload); err != nil {
		return fmt.Errorf("write entry %s: %w", key, err)
	}
	w.entries++
	return nil
}

// Len is the number of entries added so far.
func (w *Writer) Len() int { return w.entries }

// Close writes the zip directory.
func (w *Writer) Close() error { return w.zw.Close() }

// Walk calls fn for every entry of a batch archive in archive order. Entry
// names must decode to valid storage keys. Walk stops at the first error.
func Walk(b []byte, fn func(key string, payload []byte) error) error {
	if len(b) == 0 {
		return nil
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	for _, f := range zr.File {
		key, err := storagekey.FromTransitName(f.Name)
		if err != nil {
			return err
		}
		payload, err := readLimited(f)
		if err != nil {
			return err
		}
		if err := fn(key, payload); err != nil {
			return err
		}
	}
	return nil
}

func readLimited(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > MaxFileSize {
		return nil, fmt.Errorf("%s: %w", f.Name, ErrTooLarge)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("%s: %w", f.Name, ErrTooLarge)
	}
	return data, nil
}
