package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-cvpipe/internal/config"
	"github.com/askiada/go-cvpipe/pkg/operators"
	"github.com/askiada/go-cvpipe/pkg/pipeline"
	"github.com/askiada/go-cvpipe/pkg/pipeline/codec"
	"github.com/askiada/go-cvpipe/pkg/pipeline/drawer"
	"github.com/askiada/go-cvpipe/pkg/pipeline/measure"
	"github.com/askiada/go-cvpipe/pkg/pipeline/param"
	"github.com/askiada/go-cvpipe/pkg/session"
)

var (
	ErrInvalidConfiguration = errors.New("configuration is invalid")
	ErrOutputCollision      = errors.New("inputs share an output path")
)

func newOperatorsCmd(root *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "operators",
		Short: "List the available operator types and their parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			for _, desc := range root.reg.Available() {
				fmt.Fprintf(out, "%s (%s)\n", desc.TypeID, desc.DisplayName)

				for _, spec := range desc.Specs {
					fmt.Fprintf(out, "  %s\n", describeSpec(spec))
				}
			}

			return nil
		},
	}
}

func describeSpec(spec param.Spec) string {
	switch s := spec.(type) {
	case param.Int:
		return fmt.Sprintf("%s: int in [%d, %d] step %d, default %d", s.Name, s.Lower, s.Upper, s.Step, s.Default)
	case param.Double:
		return fmt.Sprintf("%s: double in [%g, %g] step %g, default %g", s.Name, s.Lower, s.Upper, s.Step, s.Default)
	case param.Enum:
		return fmt.Sprintf("%s: one of %s, default %s", s.Name, strings.Join(s.Values, "|"), s.Default)
	case param.Bool:
		return fmt.Sprintf("%s: bool, default %t", s.Name, s.Default)
	default:
		return fmt.Sprintf("%s: %s, default %v", spec.Key(), spec.Kind(), spec.DefaultValue())
	}
}

func newRunCmd(root *Root) *cobra.Command {
	var graphPath string

	cmd := &cobra.Command{
		Use:   "run <pipeline.yaml> <input> <output>",
		Short: "Run a pipeline over one image",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			ctrl, err := session.New(root.reg, session.WithPipelineOptions(root.pipelineOptions()...))
			if err != nil {
				return err
			}

			err = ctrl.LoadConfigFile(args[0])
			if err != nil {
				return err
			}

			err = ctrl.LoadMedia(args[1])
			if err != nil {
				return err
			}

			err = ctrl.Err()
			if err != nil {
				return err
			}

			out, _ := ctrl.Display()

			err = root.writeImage(args[2], out)
			if err != nil {
				return err
			}

			if graphPath == "" {
				return nil
			}

			var msr measure.Measure
			if ctrl.Context() != nil {
				msr = ctrl.Context().Measure
			}

			return writeFile(graphPath, func(w io.Writer) error {
				return drawer.Render(drawer.NewDOTDrawer(), w, ctrl.Pipeline().Stages(), msr)
			})
		},
	}

	cmd.Flags().StringVar(&graphPath, "graph", "", "also write a DOT drawing of the run to this path")

	return cmd
}

func newBatchCmd(root *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <pipeline.yaml> <output-dir> <input>...",
		Short: "Run a pipeline over many images in parallel",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrapf(err, "unable to read %s", args[0])
			}

			_, err = codec.Deserialize(bytes.NewReader(data), root.reg)
			if err != nil {
				return err
			}

			outDir, inputs := args[1], args[2:]

			outputs, err := root.outputPaths(outDir, inputs)
			if err != nil {
				return err
			}

			err = os.MkdirAll(outDir, 0o755)
			if err != nil {
				return errors.Wrapf(err, "unable to create %s", outDir)
			}

			errGrp, dCtx := errgroup.WithContext(cmd.Context())
			errGrp.SetLimit(root.cfg.Workers)

			for i, input := range inputs {
				errGrp.Go(func() error {
					if dCtx.Err() != nil {
						return dCtx.Err()
					}

					// Pipelines have a single owner: every image gets its own.
					pipe, err := codec.Deserialize(bytes.NewReader(data), root.reg, root.pipelineOptions()...)
					if err != nil {
						return err
					}

					return root.process(pipe, input, outputs[i])
				})
			}

			err = errGrp.Wait()
			if err != nil {
				return err
			}

			root.logger.WithFields(logrus.Fields{
				"images": len(inputs),
				"output": outDir,
			}).Info("batch done")

			return nil
		},
	}
}

func (r *Root) process(pipe *pipeline.Pipeline, input, output string) error {
	img, err := readImage(input)
	if err != nil {
		return err
	}

	out, _, err := pipe.Run(img)
	if err != nil {
		return errors.Wrapf(err, "unable to process %s", input)
	}

	return r.writeImage(output, out)
}

func newValidateCmd(root *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <pipeline.yaml>",
		Short: "Check a pipeline configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return errors.Wrapf(err, "unable to open %s", args[0])
			}
			defer file.Close()

			out := cmd.OutOrStdout()

			pipe, err := codec.Deserialize(file, root.reg)

			var parseErr *codec.ConfigParsingError
			if errors.As(err, &parseErr) {
				for _, reason := range parseErr.Reasons {
					fmt.Fprintf(out, "%s: %s\n", args[0], reason)
				}

				return ErrInvalidConfiguration
			}

			if err != nil {
				return err
			}

			fmt.Fprintf(out, "%s: ok, %d stages\n", args[0], pipe.Len())

			return nil
		},
	}
}

func newGraphCmd(root *Root) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "graph <pipeline.yaml>",
		Short: "Draw a pipeline as a Graphviz DOT graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return errors.Wrapf(err, "unable to open %s", args[0])
			}
			defer file.Close()

			pipe, err := codec.Deserialize(file, root.reg)
			if err != nil {
				return err
			}

			draw := func(w io.Writer) error {
				return drawer.Render(drawer.NewDOTDrawer(), w, pipe.Stages(), nil)
			}

			if outPath == "" {
				return draw(cmd.OutOrStdout())
			}

			return writeFile(outPath, draw)
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the graph to this path instead of stdout")

	return cmd
}

func newInitCmd(root *Root) *cobra.Command {
	var (
		outPath  string
		settings bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample pipeline, or with --settings a sample settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			write := func(w io.Writer) error {
				if settings {
					_, err := io.WriteString(w, config.Sample)
					return errors.Wrap(err, "unable to write settings")
				}

				pipe, err := root.samplePipeline()
				if err != nil {
					return err
				}

				return codec.Serialize(w, pipe)
			}

			if outPath == "" {
				return write(cmd.OutOrStdout())
			}

			return createFile(outPath, write)
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to this path instead of stdout; existing files are kept")
	cmd.Flags().BoolVar(&settings, "settings", false, "write a settings file instead of a pipeline")

	return cmd
}

func (r *Root) samplePipeline() (*pipeline.Pipeline, error) {
	pipe := pipeline.New()

	steps := []struct {
		values map[string]any
		typeID string
	}{
		{typeID: operators.Brighten, values: map[string]any{"amount": 10}},
		{typeID: operators.GaussianBlur, values: map[string]any{"kernel_size": 5}},
		{typeID: operators.Grayscale},
	}

	for _, step := range steps {
		desc, err := r.reg.Descriptor(step.typeID)
		if err != nil {
			return nil, err
		}

		op, err := r.reg.Instantiate(step.typeID)
		if err != nil {
			return nil, err
		}

		for k, v := range step.values {
			err = op.SetParameter(k, v)
			if err != nil {
				return nil, err
			}
		}

		_, err = pipe.Add(desc.DisplayName, op)
		if err != nil {
			return nil, err
		}
	}

	return pipe, nil
}

func writeFile(path string, write func(w io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", path)
	}

	return closeAfter(file, path, write)
}

// createFile is writeFile refusing to overwrite path.
func createFile(path string, write func(w io.Writer) error) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", path)
	}

	return closeAfter(file, path, write)
}

func closeAfter(file *os.File, path string, write func(w io.Writer) error) error {
	err := write(file)
	if err != nil {
		file.Close()
		return err
	}

	return errors.Wrapf(file.Close(), "unable to close %s", path)
}
