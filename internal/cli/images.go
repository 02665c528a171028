package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-cvpipe/pkg/pipeline/mat"
)

func readImage(path string) (mat.Mat, error) {
	file, err := os.Open(path)
	if err != nil {
		return mat.Mat{}, errors.Wrapf(err, "unable to open %s", path)
	}
	defer file.Close()

	img, _, err := mat.Decode(file)
	if err != nil {
		return mat.Mat{}, errors.Wrapf(err, "unable to decode %s", path)
	}

	return img, nil
}

// writeImage encodes img into path. The format follows the path extension,
// falling back to the configured output format.
func (r *Root) writeImage(path string, img mat.Mat) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "" {
		format = r.cfg.OutputFormat
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", path)
	}

	err = mat.Encode(file, img, format, mat.EncodeOptions{JPEGQuality: r.cfg.JPEGQuality})
	if err != nil {
		file.Close()
		return errors.Wrapf(err, "unable to encode %s", path)
	}

	return errors.Wrapf(file.Close(), "unable to close %s", path)
}

// outputPath returns the path of the output of input inside dir.
func (r *Root) outputPath(dir, input string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, base+"."+r.cfg.OutputFormat)
}

// outputPaths maps every input to its output inside dir. Two inputs sharing an
// output are rejected.
func (r *Root) outputPaths(dir string, inputs []string) ([]string, error) {
	outputs := make([]string, len(inputs))
	owners := make(map[string]string, len(inputs))

	for i, input := range inputs {
		output := r.outputPath(dir, input)

		if prev, ok := owners[output]; ok {
			return nil, errors.Wrapf(ErrOutputCollision, "%s and %s both write %s", prev, input, output)
		}

		owners[output] = input
		outputs[i] = output
	}

	return outputs, nil
}
