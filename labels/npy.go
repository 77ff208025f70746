package labels

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/sbinet/npyio"
)

// Reading goes through npyio, which validates the magic and parses the
// header for us. Writing uses a minimal encoder of our own because npyio
// only emits one-dimensional headers for Go slices and the archive members
// are 2-4 dimensional.

func shapeLen(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// ReadFloats decodes an .npy member holding <f4 or <f8 data.
func ReadFloats(r io.Reader) ([]float64, []int, error) {
	nr, err := npyio.NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	shape := nr.Header.Descr.Shape
	n := shapeLen(shape)
	switch nr.Header.Descr.Type {
	case "<f8":
		data := make([]float64, n)
		if err := nr.Read(&data); err != nil {
			return nil, nil, err
		}
		return data, shape, nil
	case "<f4":
		raw := make([]float32, n)
		if err := nr.Read(&raw); err != nil {
			return nil, nil, err
		}
		data := make([]float64, n)
		for i, v := range raw {
			data[i] = float64(v)
		}
		return data, shape, nil
	default:
		return nil, nil, errors.Errorf("unsupported float dtype %q", nr.Header.Descr.Type)
	}
}

// ReadInts decodes an .npy member holding <i4 or <i8 data.
func ReadInts(r io.Reader) ([]int32, []int, error) {
	nr, err := npyio.NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	shape := nr.Header.Descr.Shape
	n := shapeLen(shape)
	switch nr.Header.Descr.Type {
	case "<i4":
		data := make([]int32, n)
		if err := nr.Read(&data); err != nil {
			return nil, nil, err
		}
		return data, shape, nil
	case "<i8":
		raw := make([]int64, n)
		if err := nr.Read(&raw); err != nil {
			return nil, nil, err
		}
		data := make([]int32, n)
		for i, v := range raw {
			data[i] = int32(v)
		}
		return data, shape, nil
	default:
		return nil, nil, errors.Errorf("unsupported int dtype %q", nr.Header.Descr.Type)
	}
}

func writeNPYHeader(w io.Writer, descr string, shape []int) error {
	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = fmt.Sprintf("%d", d)
	}
	tuple := "(" + strings.Join(dims, ", ") + ")"
	if len(shape) == 1 {
		tuple = fmt.Sprintf("(%d,)", shape[0])
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", descr, tuple)

	// total preamble (magic + version + length + header) padded to 64 bytes,
	// terminated by a newline
	preamble := 6 + 2 + 2
	pad := 64 - (preamble+len(header)+1)%64
	if pad == 64 {
		pad = 0
	}
	header += strings.Repeat(" ", pad) + "\n"

	if _, err := w.Write([]byte("\x93NUMPY")); err != nil {
		return err
	}
	if _, err := w.Write([]byte{1, 0}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(header))); err != nil {
		return err
	}
	_, err := w.Write([]byte(header))
	return err
}

// WriteFloats encodes data as a <f8 .npy member with the given shape.
func WriteFloats(w io.Writer, data []float64, shape []int) error {
	if len(data) != shapeLen(shape) {
		return errors.Errorf("float member: %d values do not fill shape %v", len(data), shape)
	}
	if err := writeNPYHeader(w, "<f8", shape); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, data)
}

// WriteInts encodes data as a <i4 .npy member with the given shape.
func WriteInts(w io.Writer, data []int32, shape []int) error {
	if len(data) != shapeLen(shape) {
		return errors.Errorf("int member: %d values do not fill shape %v", len(data), shape)
	}
	if err := writeNPYHeader(w, "<i4", shape); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, data)
}
