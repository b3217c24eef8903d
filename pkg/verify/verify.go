// Package verify checks that an artifact file looks like the format its manifest entry declares.
package verify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mholt/archiver/v4"
	"github.com/opencontainers/go-digest"
	"kubegems.io/modelsrv/pkg/types"
)

var (
	ErrEmpty          = errors.New("file is empty")
	ErrSignature      = errors.New("signature mismatch")
	ErrDigestMismatch = errors.New("digest mismatch")
)

var (
	hdf5Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}
	zipSignature  = []byte{'P', 'K', 0x03, 0x04}
)

// HDF5 files may carry a user block, the superblock then starts at 512, 1024, 2048 ...
var hdf5Offsets = []int64{0, 512, 1024, 2048}

// HeaderSize is the number of leading bytes Signature needs: the HDF5
// signature plus the superblock version.
const HeaderSize = 9

// highest HDF5 superblock version in use
const hdf5MaxSuperblock = 3

// Signature checks the leading bytes of an artifact against its format.
func Signature(format types.Format, header []byte) error {
	switch format {
	case types.FormatPickle:
		// protocol 2+ streams open with PROTO <version>
		if len(header) < 2 || header[0] != 0x80 || header[1] < 2 || header[1] > 5 {
			return fmt.Errorf("pickle: %w", ErrSignature)
		}
	case types.FormatHDF5:
		if !bytes.HasPrefix(header, hdf5Signature) {
			return fmt.Errorf("hdf5: %w", ErrSignature)
		}
		if len(header) <= len(hdf5Signature) || header[len(hdf5Signature)] > hdf5MaxSuperblock {
			return fmt.Errorf("hdf5: no superblock: %w", ErrSignature)
		}
	case types.FormatNPZ:
		if !bytes.HasPrefix(header, zipSignature) {
			return fmt.Errorf("npz: %w", ErrSignature)
		}
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}

// File verifies a local artifact: non-empty, format signature, declared digest.
func File(ctx context.Context, filename string, entry types.Entry) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}
	if fi.Size() == 0 {
		return ErrEmpty
	}
	if err := signatureAt(f, fi.Size(), entry.Format); err != nil {
		return err
	}
	if entry.Format == types.FormatNPZ {
		if err := npzMembers(ctx, f); err != nil {
			return err
		}
	}
	if entry.Digest != "" {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return err
		}
		got, err := entry.Digest.Algorithm().FromReader(f)
		if err != nil {
			return err
		}
		if got != entry.Digest {
			return fmt.Errorf("%w: got %s, want %s", ErrDigestMismatch, got, entry.Digest)
		}
	}
	return nil
}

func signatureAt(f io.ReaderAt, size int64, format types.Format) error {
	offsets := []int64{0}
	if format == types.FormatHDF5 {
		offsets = hdf5Offsets
	}
	var lasterr error
	for _, off := range offsets {
		if off >= size {
			break
		}
		header := make([]byte, HeaderSize)
		n, err := f.ReadAt(header, off)
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if lasterr = Signature(format, header[:n]); lasterr == nil {
			return nil
		}
	}
	return lasterr
}

// npzMembers requires the archive to hold at least one .npy array.
func npzMembers(ctx context.Context, f *os.File) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	arrays := 0
	err := archiver.Zip{}.Extract(ctx, f, nil, func(ctx context.Context, af archiver.File) error {
		if !af.IsDir() && strings.HasSuffix(af.NameInArchive, ".npy") {
			arrays++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("npz: %w", err)
	}
	if arrays == 0 {
		return fmt.Errorf("npz: no arrays: %w", ErrSignature)
	}
	return nil
}

// Digest computes the canonical digest of a local file.
func Digest(filename string) (digest.Digest, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return digest.FromReader(f)
}
