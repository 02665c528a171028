//go:build gocv

package mat

import (
	"runtime"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// FromGoCV copies an 8-bit OpenCV matrix into a Mat.
func FromGoCV(src gocv.Mat) (Mat, error) {
	if src.Empty() {
		return Mat{}, ErrEmpty
	}

	switch src.Type() {
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
	default:
		return Mat{}, errors.Errorf("unsupported gocv mat type %v", src.Type())
	}

	data := src.ToBytes()

	return FromBytes(src.Rows(), src.Cols(), src.Channels(), data)
}

// ToGoCV copies m into a new OpenCV matrix. The caller must Close it.
func ToGoCV(m Mat) (gocv.Mat, error) {
	err := m.Validate()
	if err != nil {
		return gocv.NewMat(), err
	}

	matType := gocv.MatTypeCV8UC3

	switch m.Channels {
	case 1:
		matType = gocv.MatTypeCV8UC1
	case 4:
		matType = gocv.MatTypeCV8UC4
	}

	// The matrix may alias m.Data, so it is cloned into OpenCV owned memory.
	view, err := gocv.NewMatFromBytes(m.Rows, m.Cols, matType, m.Data)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "unable to create gocv mat")
	}
	defer view.Close()

	out := view.Clone()
	runtime.KeepAlive(m.Data)

	return out, nil
}
