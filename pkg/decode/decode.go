// Package decode turns verified artifact bytes into in-memory model values.
package decode

import (
	"context"
	"errors"
	"fmt"
	"io"

	"kubegems.io/modelsrv/pkg/types"
)

var ErrEmpty = errors.New("empty artifact")

type Decoder interface {
	Decode(ctx context.Context, content io.ReaderAt, size int64) (any, error)
}

type DecoderFunc func(ctx context.Context, content io.ReaderAt, size int64) (any, error)

func (f DecoderFunc) Decode(ctx context.Context, content io.ReaderAt, size int64) (any, error) {
	return f(ctx, content, size)
}

// Defaults returns the decoder of every known format.
func Defaults() map[types.Format]Decoder {
	return map[types.Format]Decoder{
		types.FormatPickle: DecoderFunc(DecodePickle),
		types.FormatHDF5:   DecoderFunc(DecodeHDF5),
		types.FormatNPZ:    DecoderFunc(DecodeNPZ),
	}
}

// Safe runs dec and converts a panic of the underlying parser into an error.
func Safe(ctx context.Context, dec Decoder, content io.ReaderAt, size int64) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			val, err = nil, fmt.Errorf("decoder panic: %v", r)
		}
	}()
	if size <= 0 {
		return nil, ErrEmpty
	}
	return dec.Decode(ctx, content, size)
}
