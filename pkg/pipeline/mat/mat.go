// Package mat provides the pixel buffer passed between pipeline operators.
//
// A Mat is a row-major, channel-interleaved 8-bit buffer. Colour buffers decoded
// from files use BGR(A) channel order, the OpenCV convention most operators are
// written against. The pipeline itself never looks inside a Mat.
package mat

import (
	"bytes"

	"github.com/pkg/errors"
)

var (
	ErrEmpty            = errors.New("mat is empty")
	ErrInvalidDims      = errors.New("rows and cols must be greater than 0")
	ErrInvalidChannels  = errors.New("channels must be 1, 3 or 4")
	ErrInvalidDataSize  = errors.New("data size does not match dimensions")
	ErrChannelsMismatch = errors.New("channels mismatch")
)

// Mat is an 8-bit image buffer of Rows x Cols x Channels.
type Mat struct {
	Data     []uint8
	Rows     int
	Cols     int
	Channels int
}

// New allocates a zeroed Mat.
func New(rows, cols, channels int) (Mat, error) {
	err := checkDims(rows, cols, channels)
	if err != nil {
		return Mat{}, err
	}

	return Mat{
		Rows:     rows,
		Cols:     cols,
		Channels: channels,
		Data:     make([]uint8, rows*cols*channels),
	}, nil
}

// FromBytes wraps data without copying it.
func FromBytes(rows, cols, channels int, data []uint8) (Mat, error) {
	err := checkDims(rows, cols, channels)
	if err != nil {
		return Mat{}, err
	}

	if len(data) != rows*cols*channels {
		return Mat{}, errors.Wrapf(ErrInvalidDataSize, "got %d bytes for %dx%dx%d", len(data), rows, cols, channels)
	}

	return Mat{Rows: rows, Cols: cols, Channels: channels, Data: data}, nil
}

// FromRows builds a Mat from nested pixel rows, e.g. [][][]uint8{{{0, 0, 0}}}.
func FromRows(rows [][][]uint8) (Mat, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return Mat{}, ErrInvalidDims
	}

	channels := len(rows[0][0])

	m, err := New(len(rows), len(rows[0]), channels)
	if err != nil {
		return Mat{}, err
	}

	for r, row := range rows {
		if len(row) != m.Cols {
			return Mat{}, errors.Wrapf(ErrInvalidDataSize, "row %d has %d cols, expected %d", r, len(row), m.Cols)
		}

		for c, px := range row {
			if len(px) != channels {
				return Mat{}, errors.Wrapf(ErrChannelsMismatch, "pixel (%d,%d)", r, c)
			}

			copy(m.Data[m.offset(r, c):], px)
		}
	}

	return m, nil
}

func checkDims(rows, cols, channels int) error {
	if rows <= 0 || cols <= 0 {
		return errors.Wrapf(ErrInvalidDims, "got %dx%d", rows, cols)
	}

	switch channels {
	case 1, 3, 4:
		return nil
	default:
		return errors.Wrapf(ErrInvalidChannels, "got %d", channels)
	}
}

// Empty reports whether m holds no pixels.
func (m Mat) Empty() bool {
	return len(m.Data) == 0
}

// Validate checks that dimensions and data agree.
func (m Mat) Validate() error {
	if m.Empty() {
		return ErrEmpty
	}

	err := checkDims(m.Rows, m.Cols, m.Channels)
	if err != nil {
		return err
	}

	if len(m.Data) != m.Rows*m.Cols*m.Channels {
		return errors.Wrapf(ErrInvalidDataSize, "got %d bytes for %dx%dx%d", len(m.Data), m.Rows, m.Cols, m.Channels)
	}

	return nil
}

func (m Mat) offset(row, col int) int {
	return (row*m.Cols + col) * m.Channels
}

// At returns the channel values of the pixel at (row, col). The slice aliases m.
func (m Mat) At(row, col int) []uint8 {
	off := m.offset(row, col)
	return m.Data[off : off+m.Channels]
}

// Clone returns a deep copy of m.
func (m Mat) Clone() Mat {
	data := make([]uint8, len(m.Data))
	copy(data, m.Data)

	return Mat{Rows: m.Rows, Cols: m.Cols, Channels: m.Channels, Data: data}
}

// Like allocates a zeroed Mat with the dimensions of m and the given channel count.
func (m Mat) Like(channels int) (Mat, error) {
	return New(m.Rows, m.Cols, channels)
}

// Equal reports whether a and b have the same shape and bytes.
func Equal(a, b Mat) bool {
	return a.Rows == b.Rows && a.Cols == b.Cols && a.Channels == b.Channels && bytes.Equal(a.Data, b.Data)
}
