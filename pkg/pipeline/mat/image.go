package mat

import (
	"image"
	"image/color"
	_ "image/gif" // register decoder
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // register decoder
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

// FromImage converts img to a Mat. Gray images become single channel, images
// with an alpha channel become BGRA and everything else BGR.
func FromImage(img image.Image) Mat {
	bounds := img.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()

	switch src := img.(type) {
	case *image.Gray:
		m, _ := New(rows, cols, 1)
		for r := 0; r < rows; r++ {
			off := src.PixOffset(bounds.Min.X, bounds.Min.Y+r)
			copy(m.Data[r*cols:(r+1)*cols], src.Pix[off:off+cols])
		}

		return m
	default:
		channels := 3
		if hasAlpha(img) {
			channels = 4
		}

		m, _ := New(rows, cols, channels)

		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				nrgba := color.NRGBAModel.Convert(img.At(bounds.Min.X+c, bounds.Min.Y+r)).(color.NRGBA)
				px := m.At(r, c)
				px[0], px[1], px[2] = nrgba.B, nrgba.G, nrgba.R

				if channels == 4 {
					px[3] = nrgba.A
				}
			}
		}

		return m
	}
}

func hasAlpha(img image.Image) bool {
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		return !opaque(img)
	default:
		return false
	}
}

func opaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}

	return true
}

// ToImage converts m to a standard library image: *image.Gray for single
// channel buffers, *image.NRGBA otherwise.
func (m Mat) ToImage() (image.Image, error) {
	err := m.Validate()
	if err != nil {
		return nil, err
	}

	rect := image.Rect(0, 0, m.Cols, m.Rows)

	if m.Channels == 1 {
		gray := image.NewGray(rect)
		for r := 0; r < m.Rows; r++ {
			copy(gray.Pix[r*gray.Stride:r*gray.Stride+m.Cols], m.Data[r*m.Cols:(r+1)*m.Cols])
		}

		return gray, nil
	}

	out := image.NewNRGBA(rect)

	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			px := m.At(r, c)
			alpha := uint8(255)

			if m.Channels == 4 {
				alpha = px[3]
			}

			out.SetNRGBA(c, r, color.NRGBA{R: px[2], G: px[1], B: px[0], A: alpha})
		}
	}

	return out, nil
}

// Decode reads an image in any registered format and returns it with the format name.
func Decode(rdr io.Reader) (Mat, string, error) {
	img, format, err := image.Decode(rdr)
	if err != nil {
		return Mat{}, "", errors.Wrap(err, "unable to decode image")
	}

	return FromImage(img), format, nil
}

// EncodeOptions tunes Encode.
type EncodeOptions struct {
	// JPEGQuality ranges from 1 to 100, 0 means the encoder default.
	JPEGQuality int
}

// Encode writes m to wrt in the named format (png, jpeg/jpg, bmp, tiff/tif).
func Encode(wrt io.Writer, m Mat, format string, opts EncodeOptions) error {
	img, err := m.ToImage()
	if err != nil {
		return errors.Wrap(err, "unable to convert mat")
	}

	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "png":
		err = png.Encode(wrt, img)
	case "jpeg", "jpg":
		var jopts *jpeg.Options
		if opts.JPEGQuality > 0 {
			jopts = &jpeg.Options{Quality: opts.JPEGQuality}
		}

		err = jpeg.Encode(wrt, img, jopts)
	case "bmp":
		err = bmp.Encode(wrt, img)
	case "tiff", "tif":
		err = tiff.Encode(wrt, img, nil)
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "format %q", format)
	}

	if err != nil {
		return errors.Wrapf(err, "unable to encode %s", format)
	}

	return nil
}
