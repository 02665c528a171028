package drawer

import (
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/askiada/go-cvpipe/pkg/pipeline"
	"github.com/askiada/go-cvpipe/pkg/pipeline/measure"
	"github.com/askiada/go-cvpipe/pkg/pipeline/model"
)

// Vertex ids of the synthetic start and end stages. Stage vertices are keyed
// by index, so any stage name is drawable.
const (
	StartID = "__start__"
	EndID   = "__end__"
)

// StageID returns the vertex id of the stage at index.
func StageID(index int) string {
	return "stage:" + strconv.Itoa(index)
}

// Render draws start, every stage in execution order and end with d, then
// writes the drawing to w. msr is optional.
func Render(d Drawer, w io.Writer, stages []model.StageInfo, msr measure.Measure) error {
	err := d.AddStage(StartID, model.StartStage.Name)
	if err != nil {
		return errors.Wrap(err, "unable to add start stage to drawer")
	}

	parent := StartID
	ids := make(map[string]string, len(stages))

	for i, stage := range stages {
		id := StageID(i)
		ids[stage.Name] = id

		err = d.AddStage(id, stage.Name)
		if err != nil {
			return err
		}

		err = d.AddLink(parent, id)
		if err != nil {
			return err
		}

		parent = id
	}

	err = d.AddStage(EndID, model.EndStage.Name)
	if err != nil {
		return errors.Wrap(err, "unable to add end stage to drawer")
	}

	err = d.AddLink(parent, EndID)
	if err != nil {
		return err
	}

	if msr != nil {
		err = d.SetTotalTime(EndID, msr.GetTotalDuration())
		if err != nil {
			return errors.Wrap(err, "unable to set total time")
		}

		err = d.AddMeasure(msr, ids)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err = d.Draw(w)
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// Listener redraws the pipeline after every successful run.
type Listener struct {
	err       error
	out       io.Writer
	newDrawer func() Drawer
}

// NewListener returns a pipeline listener writing a DOT drawing to out on
// every produced image.
func NewListener(out io.Writer) *Listener {
	return &Listener{
		out:       out,
		newDrawer: func() Drawer { return NewDOTDrawer() },
	}
}

func (l *Listener) OnEvent(ev pipeline.Event) {
	if ev.Kind != pipeline.EventImageProduced {
		return
	}

	var msr measure.Measure
	if ev.Context != nil {
		msr = ev.Context.Measure
	}

	l.err = Render(l.newDrawer(), l.out, ev.Stages, msr)
}

// Err returns the error of the last drawing, if any.
func (l *Listener) Err() error {
	return l.err
}

var _ pipeline.Listener = (*Listener)(nil)
