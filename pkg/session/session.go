// Package session drives a pipeline the way an interactive front end does: it
// owns the current media, the stage selection and the last image produced,
// and reprocesses the media after every change.
package session

import (
	"image"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/askiada/go-cvpipe/pkg/pipeline"
	"github.com/askiada/go-cvpipe/pkg/pipeline/codec"
	"github.com/askiada/go-cvpipe/pkg/pipeline/mat"
	"github.com/askiada/go-cvpipe/pkg/pipeline/model"
	"github.com/askiada/go-cvpipe/pkg/pipeline/registry"
)

var (
	ErrNoMedia           = errors.New("no media loaded")
	ErrRegistryMustBeSet = errors.New("registry must be set")
	ErrNothingToDisplay  = errors.New("no image has been produced yet")
)

// Option configures a Controller.
type Option func(c *Controller)

// WithListener attaches l to every pipeline the controller builds, including
// pipelines loaded from a configuration.
func WithListener(l pipeline.Listener) Option {
	return func(c *Controller) {
		c.listeners = append(c.listeners, l)
	}
}

// WithPipelineOptions applies opts to every pipeline the controller builds.
func WithPipelineOptions(opts ...pipeline.PipelineOption) Option {
	return func(c *Controller) {
		c.pipeOpts = append(c.pipeOpts, opts...)
	}
}

// Controller is owned by a single goroutine, like the pipeline it drives.
type Controller struct {
	lastErr   error
	reg       *registry.Registry
	pipe      *pipeline.Pipeline
	lastCtx   *model.Context
	listeners []pipeline.Listener
	pipeOpts  []pipeline.PipelineOption
	media     mat.Mat
	display   mat.Mat
	selected  int
	hasMedia  bool
	hasSel    bool
}

// New creates a controller with an empty pipeline built from reg.
func New(reg *registry.Registry, opts ...Option) (*Controller, error) {
	if reg == nil {
		return nil, ErrRegistryMustBeSet
	}

	c := &Controller{reg: reg}
	for _, opt := range opts {
		opt(c)
	}

	c.pipe = pipeline.New(c.pipelineOptions()...)

	return c, nil
}

func (c *Controller) pipelineOptions() []pipeline.PipelineOption {
	opts := append([]pipeline.PipelineOption(nil), c.pipeOpts...)
	for _, l := range c.listeners {
		opts = append(opts, pipeline.WithListener(l))
	}

	return opts
}

// Pipeline returns the pipeline currently driven.
func (c *Controller) Pipeline() *pipeline.Pipeline {
	return c.pipe
}

// Registry returns the operator catalog.
func (c *Controller) Registry() *registry.Registry {
	return c.reg
}

// AddOperator appends a fresh instance of typeID named after its display name,
// selects it and reprocesses the media.
func (c *Controller) AddOperator(typeID string) (string, error) {
	desc, err := c.reg.Descriptor(typeID)
	if err != nil {
		return "", err
	}

	op, err := c.reg.Instantiate(typeID)
	if err != nil {
		return "", err
	}

	name, err := c.pipe.Add(desc.DisplayName, op)
	if err != nil {
		return "", errors.Wrapf(err, "unable to add operator %s", typeID)
	}

	c.selected, c.hasSel = c.pipe.Len()-1, true
	c.reprocess()

	return name, nil
}

// RemoveOperator removes the stage at index. A selection on a later stage
// follows it; removing the last remaining stage clears the selection.
func (c *Controller) RemoveOperator(index int) error {
	err := c.pipe.Remove(index)
	if err != nil {
		return err
	}

	if c.hasSel {
		switch {
		case c.pipe.Len() == 0:
			c.hasSel = false
		case c.selected > index || c.selected == c.pipe.Len():
			c.selected--
		}
	}

	c.reprocess()

	return nil
}

// MoveOperator moves the stage at src to dst. The selection stays on the
// stage it designated.
func (c *Controller) MoveOperator(src, dst int) error {
	err := c.pipe.Move(src, dst)
	if err != nil {
		return err
	}

	if c.hasSel {
		switch {
		case c.selected == src:
			c.selected = dst
		case src < c.selected && c.selected <= dst:
			c.selected--
		case dst <= c.selected && c.selected < src:
			c.selected++
		}
	}

	c.reprocess()

	return nil
}

// RenameOperator renames the stage at index.
func (c *Controller) RenameOperator(index int, name string) error {
	return c.pipe.Rename(index, name)
}

// UpdateOperator writes a parameter of the named stage and reprocesses.
func (c *Controller) UpdateOperator(stageName, paramName string, value any) error {
	err := c.pipe.SetParameter(stageName, paramName, value)
	if err != nil {
		return err
	}

	c.reprocess()

	return nil
}

// Select designates the stage at index.
func (c *Controller) Select(index int) error {
	if index < 0 || index >= c.pipe.Len() {
		return &pipeline.IndexOutOfRangeError{Index: index, Len: c.pipe.Len()}
	}

	c.selected, c.hasSel = index, true

	return nil
}

// ClearSelection drops the current selection.
func (c *Controller) ClearSelection() {
	c.hasSel = false
}

// Selection returns the selected stage index. The boolean is false when no
// stage is selected.
func (c *Controller) Selection() (int, bool) {
	if !c.hasSel {
		return -1, false
	}

	return c.selected, true
}

// SetMedia replaces the current media and processes it.
func (c *Controller) SetMedia(img mat.Mat) error {
	err := img.Validate()
	if err != nil {
		return errors.Wrap(err, "invalid media")
	}

	c.media, c.hasMedia = img, true
	c.reprocess()

	return nil
}

// LoadMedia decodes the image at path and makes it the current media.
func (c *Controller) LoadMedia(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "unable to open %s", path)
	}
	defer file.Close()

	img, _, err := mat.Decode(file)
	if err != nil {
		return errors.Wrapf(err, "unable to decode %s", path)
	}

	return c.SetMedia(img)
}

// Media returns the current media.
func (c *Controller) Media() (mat.Mat, bool) {
	return c.media, c.hasMedia
}

// Process runs the pipeline over the current media. On failure the previous
// display image is kept.
func (c *Controller) Process() error {
	if !c.hasMedia {
		return ErrNoMedia
	}

	out, ctx, err := c.pipe.Run(c.media)
	c.lastErr = err

	if err != nil {
		return err
	}

	c.display, c.lastCtx = out, ctx

	return nil
}

func (c *Controller) reprocess() {
	if c.hasMedia {
		_ = c.Process()
	}
}

// Err returns the error of the last processing, nil if it succeeded.
func (c *Controller) Err() error {
	return c.lastErr
}

// Display returns the last image successfully produced.
func (c *Controller) Display() (mat.Mat, bool) {
	return c.display, !c.display.Empty()
}

// DisplayImage returns the last image successfully produced as an image.Image.
func (c *Controller) DisplayImage() (image.Image, error) {
	if c.display.Empty() {
		return nil, ErrNothingToDisplay
	}

	return c.display.ToImage()
}

// Context returns the context of the last successful run.
func (c *Controller) Context() *model.Context {
	return c.lastCtx
}

// LoadConfig replaces the pipeline with the one described by r. On failure the
// current pipeline is kept and listeners receive EventConfigFailed. On success
// the results of the previous pipeline are dropped before reprocessing.
func (c *Controller) LoadConfig(r io.Reader) error {
	pipe, err := codec.Deserialize(r, c.reg, c.pipelineOptions()...)
	if err != nil {
		c.pipe.Emit(pipeline.Event{Kind: pipeline.EventConfigFailed, Err: err, Stages: c.pipe.Stages()})
		return err
	}

	c.pipe = pipe
	c.hasSel = false
	c.display, c.lastCtx, c.lastErr = mat.Mat{}, nil, nil
	c.reprocess()

	return nil
}

// LoadConfigFile is LoadConfig reading from path.
func (c *Controller) LoadConfigFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "unable to open %s", path)
	}
	defer file.Close()

	return c.LoadConfig(file)
}

// SaveConfig writes the current pipeline to w.
func (c *Controller) SaveConfig(w io.Writer) error {
	return codec.Serialize(w, c.pipe)
}

// SaveConfigFile is SaveConfig writing to path.
func (c *Controller) SaveConfigFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", path)
	}

	err = c.SaveConfig(file)
	if err != nil {
		file.Close()
		return err
	}

	return errors.Wrapf(file.Close(), "unable to close %s", path)
}
