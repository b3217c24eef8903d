package decode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var npyMagic = []byte("\x93NUMPY")

var (
	descrRegexp   = regexp.MustCompile(`'descr':\s*'([^']+)'`)
	fortranRegexp = regexp.MustCompile(`'fortran_order':\s*(True|False)`)
	shapeRegexp   = regexp.MustCompile(`'shape':\s*\(([^)]*)\)`)
)

// Array is a single numpy array. Exactly one of the typed slices is set for
// supported dtypes, other dtypes keep their raw little endian bytes.
type Array struct {
	Name    string
	Dtype   string
	Shape   []int
	Float32 []float32
	Float64 []float64
	Int64   []int64
	Strings []string
	Raw     []byte
}

func (a Array) Len() int {
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

func parseNPY(name string, raw []byte) (Array, error) {
	if !bytes.HasPrefix(raw, npyMagic) || len(raw) < 10 {
		return Array{}, errors.New("npy: bad magic")
	}
	major := raw[6]
	var headerlen, start int
	switch major {
	case 1:
		headerlen, start = int(binary.LittleEndian.Uint16(raw[8:10])), 10
	case 2, 3:
		if len(raw) < 12 {
			return Array{}, errors.New("npy: short header")
		}
		headerlen, start = int(binary.LittleEndian.Uint32(raw[8:12])), 12
	default:
		return Array{}, fmt.Errorf("npy: unsupported version %d", major)
	}
	if start+headerlen > len(raw) {
		return Array{}, errors.New("npy: short header")
	}
	header := string(raw[start : start+headerlen])
	data := raw[start+headerlen:]

	arr := Array{Name: name}
	m := descrRegexp.FindStringSubmatch(header)
	if m == nil {
		return Array{}, errors.New("npy: missing descr")
	}
	arr.Dtype = m[1]
	if m := fortranRegexp.FindStringSubmatch(header); m != nil && m[1] == "True" {
		return Array{}, errors.New("npy: fortran order is not supported")
	}
	m = shapeRegexp.FindStringSubmatch(header)
	if m == nil {
		return Array{}, errors.New("npy: missing shape")
	}
	for _, dim := range strings.Split(m[1], ",") {
		dim = strings.TrimSpace(dim)
		if dim == "" {
			continue
		}
		n, err := strconv.Atoi(dim)
		if err != nil {
			return Array{}, fmt.Errorf("npy: shape: %w", err)
		}
		arr.Shape = append(arr.Shape, n)
	}

	count := arr.Len()
	switch {
	case arr.Dtype == "<f4":
		if len(data) < count*4 {
			return Array{}, errors.New("npy: short data")
		}
		arr.Float32 = make([]float32, count)
		for i := range arr.Float32 {
			arr.Float32[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
	case arr.Dtype == "<f8":
		if len(data) < count*8 {
			return Array{}, errors.New("npy: short data")
		}
		arr.Float64 = make([]float64, count)
		for i := range arr.Float64 {
			arr.Float64[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
	case arr.Dtype == "<i8":
		if len(data) < count*8 {
			return Array{}, errors.New("npy: short data")
		}
		arr.Int64 = make([]int64, count)
		for i := range arr.Int64 {
			arr.Int64[i] = int64(binary.LittleEndian.Uint64(data[i*8:]))
		}
	case strings.HasPrefix(arr.Dtype, "<U"):
		width, err := strconv.Atoi(arr.Dtype[2:])
		if err != nil {
			return Array{}, fmt.Errorf("npy: dtype %s: %w", arr.Dtype, err)
		}
		if len(data) < count*width*4 {
			return Array{}, errors.New("npy: short data")
		}
		arr.Strings = make([]string, count)
		for i := range arr.Strings {
			arr.Strings[i] = utf32String(data[i*width*4 : (i+1)*width*4])
		}
	default:
		arr.Raw = data
	}
	return arr, nil
}

func utf32String(b []byte) string {
	sb := strings.Builder{}
	for i := 0; i+4 <= len(b); i += 4 {
		r := rune(binary.LittleEndian.Uint32(b[i:]))
		if r == 0 {
			break
		}
		if !utf8.ValidRune(r) {
			r = utf8.RuneError
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
