package operators

import (
	"github.com/askiada/go-cvpipe/pkg/pipeline/mat"
	"github.com/askiada/go-cvpipe/pkg/pipeline/model"
	"github.com/askiada/go-cvpipe/pkg/pipeline/param"
)

// Axes of the flip operator. Horizontal mirrors columns, vertical mirrors rows.
const (
	FlipHorizontal = "horizontal"
	FlipVertical   = "vertical"
	FlipBoth       = "both"
)

func flip(img mat.Mat, params *param.Set, _ *model.Context) (mat.Mat, error) {
	axis := params.String("axis")
	mirrorCols := axis == FlipHorizontal || axis == FlipBoth
	mirrorRows := axis == FlipVertical || axis == FlipBoth

	out, err := img.Like(img.Channels)
	if err != nil {
		return mat.Mat{}, err
	}

	for row := range img.Rows {
		srcRow := row
		if mirrorRows {
			srcRow = img.Rows - 1 - row
		}

		for col := range img.Cols {
			srcCol := col
			if mirrorCols {
				srcCol = img.Cols - 1 - col
			}

			copy(out.At(row, col), img.At(srcRow, srcCol))
		}
	}

	return out, nil
}
