package decode

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

var hdf5Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// TensorArchive is an HDF5 tensor-graph archive held in memory.
// The prediction layer builds its graph from Data.
type TensorArchive struct {
	SuperblockVersion int
	// Offset of the superblock, non zero when the file carries a user block.
	Offset int64
	Data   []byte
}

func (a *TensorArchive) Size() int64 {
	return int64(len(a.Data))
}

func DecodeHDF5(ctx context.Context, content io.ReaderAt, size int64) (any, error) {
	data := make([]byte, size)
	if _, err := content.ReadAt(data, 0); err != nil && err != io.EOF {
		return nil, err
	}
	for off := int64(0); off+int64(len(hdf5Signature)) < size; {
		if bytes.Equal(data[off:off+int64(len(hdf5Signature))], hdf5Signature) {
			return &TensorArchive{
				SuperblockVersion: int(data[off+int64(len(hdf5Signature))]),
				Offset:            off,
				Data:              data,
			}, nil
		}
		if off == 0 {
			off = 512
		} else {
			off *= 2
		}
	}
	return nil, fmt.Errorf("hdf5: superblock not found")
}
