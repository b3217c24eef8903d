// Package fixture builds small but well formed artifacts for tests.
package fixture

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"kubegems.io/modelsrv/pkg/types"
)

// Pickle is the protocol 2 pickle of {"a": 1}.
func Pickle() []byte {
	// PROTO 2, EMPTY_DICT, BINUNICODE "a", BININT1 1, SETITEM, STOP
	return []byte{0x80, 0x02, '}', 'X', 0x01, 0x00, 0x00, 0x00, 'a', 'K', 0x01, 's', '.'}
}

// Estimator is a protocol 2 pickle shaped like a fitted scikit-learn scaler:
// an instance built with NEWOBJ whose state dict holds a numpy array, which
// numpy writes as REDUCE on _reconstruct followed by BUILD.
func Estimator() []byte {
	buf := &bytes.Buffer{}
	buf.Write([]byte{0x80, 0x02})
	buf.WriteString("csklearn.preprocessing._data\nStandardScaler\n")
	// EMPTY_TUPLE, NEWOBJ, EMPTY_DICT
	buf.WriteString(")\x81}")
	buf.WriteString("X")
	_ = binary.Write(buf, binary.LittleEndian, uint32(len("scale_")))
	buf.WriteString("scale_")
	// _reconstruct(ndarray, (0,), b'b')
	buf.WriteString("cnumpy.core.multiarray\n_reconstruct\n")
	buf.WriteString("cnumpy\nndarray\n")
	buf.Write([]byte{'K', 0x00, 0x85, 'U', 0x01, 'b', 0x87, 'R'})
	// array state (1,), BUILD, SETITEM, then BUILD the scaler and STOP
	buf.Write([]byte{'K', 0x01, 0x85, 'b', 's', 'b', '.'})
	return buf.Bytes()
}

// HDF5 is an HDF5 signature followed by a version 0 superblock stub.
func HDF5() []byte {
	b := []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n', 0x00}
	return append(b, make([]byte, 87)...)
}

// NPY encodes a version 1.0 npy array. data is []float32 or []string.
func NPY(shape []int, data any) []byte {
	var descr string
	payload := &bytes.Buffer{}
	switch v := data.(type) {
	case []float32:
		descr = "<f4"
		for _, f := range v {
			_ = binary.Write(payload, binary.LittleEndian, math.Float32bits(f))
		}
	case []string:
		width := 1
		for _, s := range v {
			if n := len([]rune(s)); n > width {
				width = n
			}
		}
		descr = fmt.Sprintf("<U%d", width)
		for _, s := range v {
			runes := []rune(s)
			for i := 0; i < width; i++ {
				var r uint32
				if i < len(runes) {
					r = uint32(runes[i])
				}
				_ = binary.Write(payload, binary.LittleEndian, r)
			}
		}
	default:
		panic(fmt.Sprintf("unsupported fixture type %T", data))
	}
	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = fmt.Sprint(d)
	}
	shapestr := strings.Join(dims, ", ")
	if len(shape) == 1 {
		shapestr += ","
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }", descr, shapestr)
	for (10+len(header)+1)%64 != 0 {
		header += " "
	}
	header += "\n"

	buf := &bytes.Buffer{}
	buf.WriteString("\x93NUMPY")
	buf.Write([]byte{1, 0})
	_ = binary.Write(buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	buf.Write(payload.Bytes())
	return buf.Bytes()
}

// NPZ zips the named npy members.
func NPZ(members map[string][]byte) []byte {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for name, content := range members {
		w, err := zw.Create(name + ".npy")
		if err != nil {
			panic(err)
		}
		if _, err := w.Write(content); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// SupportSet is an embedding cache of two labelled 3-dimensional rows.
func SupportSet() []byte {
	return NPZ(map[string][]byte{
		"embeddings": NPY([]int{2, 3}, []float32{1, 0, 0, 0, 1, 0}),
		"labels":     NPY([]int{2}, []string{"A+", "O-"}),
	})
}

// For returns valid content for format.
func For(format types.Format) []byte {
	switch format {
	case types.FormatPickle:
		return Estimator()
	case types.FormatHDF5:
		return HDF5()
	case types.FormatNPZ:
		return SupportSet()
	default:
		panic("unknown format " + string(format))
	}
}

// WriteEntries writes valid content for every entry into dir.
func WriteEntries(dir string, entries ...types.Entry) error {
	for _, e := range entries {
		if err := os.WriteFile(filepath.Join(dir, e.Filename()), For(e.Format), 0o644); err != nil {
			return err
		}
	}
	return nil
}
