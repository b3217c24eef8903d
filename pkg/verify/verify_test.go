package verify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"kubegems.io/modelsrv/internal/fixture"
	"kubegems.io/modelsrv/pkg/types"
)

func TestSignature(t *testing.T) {
	tests := []struct {
		name    string
		format  types.Format
		header  []byte
		wantErr bool
	}{
		{name: "pickle v2", format: types.FormatPickle, header: []byte{0x80, 0x02}},
		{name: "pickle v5", format: types.FormatPickle, header: []byte{0x80, 0x05, 0x95}},
		{name: "pickle v0 text", format: types.FormatPickle, header: []byte("(dp0\n"), wantErr: true},
		{name: "pickle v9", format: types.FormatPickle, header: []byte{0x80, 0x09}, wantErr: true},
		{name: "hdf5", format: types.FormatHDF5, header: fixture.HDF5()[:HeaderSize]},
		{name: "hdf5 signature only", format: types.FormatHDF5, header: fixture.HDF5()[:8], wantErr: true},
		{name: "hdf5 unknown superblock", format: types.FormatHDF5, header: append(fixture.HDF5()[:8], 0x07), wantErr: true},
		{name: "hdf5 html error page", format: types.FormatHDF5, header: []byte("<!DOCTYPE"), wantErr: true},
		{name: "npz", format: types.FormatNPZ, header: []byte("PK\x03\x04\x14\x00")},
		{name: "npz empty zip", format: types.FormatNPZ, header: []byte("PK\x05\x06"), wantErr: true},
		{name: "unknown", format: "onnx", header: []byte{0x08}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Signature(tt.format, tt.header); (err != nil) != tt.wantErr {
				t.Errorf("Signature() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func writeFile(t *testing.T, content []byte) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "artifact")
	if err := os.WriteFile(filename, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return filename
}

func TestFile(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		entry   types.Entry
		wantErr error
	}{
		{
			name:    "pickle",
			content: fixture.Pickle(),
			entry:   types.Entry{Format: types.FormatPickle},
		},
		{
			name:    "empty",
			content: []byte{},
			entry:   types.Entry{Format: types.FormatPickle},
			wantErr: ErrEmpty,
		},
		{
			name:    "wrong format",
			content: fixture.Pickle(),
			entry:   types.Entry{Format: types.FormatHDF5},
			wantErr: ErrSignature,
		},
		{
			name:    "hdf5 with user block",
			content: append(make([]byte, 1024), fixture.HDF5()...),
			entry:   types.Entry{Format: types.FormatHDF5},
		},
		{
			name:    "hdf5 signature only",
			content: fixture.HDF5()[:8],
			entry:   types.Entry{Format: types.FormatHDF5},
			wantErr: ErrSignature,
		},
		{
			name:    "npz",
			content: fixture.SupportSet(),
			entry:   types.Entry{Format: types.FormatNPZ},
		},
		{
			name:    "npz without arrays",
			content: fixture.NPZ(map[string][]byte{}),
			entry:   types.Entry{Format: types.FormatNPZ},
			wantErr: ErrSignature,
		},
		{
			name:    "digest match",
			content: fixture.Pickle(),
			entry:   types.Entry{Format: types.FormatPickle, Digest: digest.FromBytes(fixture.Pickle())},
		},
		{
			name:    "digest mismatch",
			content: fixture.Pickle(),
			entry:   types.Entry{Format: types.FormatPickle, Digest: digest.FromString("other")},
			wantErr: ErrDigestMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := File(context.Background(), writeFile(t, tt.content), tt.entry)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("File() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("File() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFile_Missing(t *testing.T) {
	err := File(context.Background(), filepath.Join(t.TempDir(), "missing"), types.Entry{Format: types.FormatPickle})
	if !os.IsNotExist(err) {
		t.Errorf("File() error = %v, want not exist", err)
	}
}
