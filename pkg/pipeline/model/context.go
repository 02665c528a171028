package model

import (
	"time"

	"github.com/askiada/go-cvpipe/pkg/pipeline/mat"
	"github.com/askiada/go-cvpipe/pkg/pipeline/measure"
)

// StageReport is the diagnostic record of one executed stage.
type StageReport struct {
	// Output is only set when the pipeline keeps intermediate results.
	Output   mat.Mat
	Notes    []string
	Stage    StageInfo
	Duration time.Duration
}

// Context is created fresh for every run. It carries the original input and
// the diagnostics accumulated while the stages execute. It is never persisted.
type Context struct {
	Input   mat.Mat
	Measure measure.Measure
	values  map[string]any
	Stages  []StageReport
	current int
}

// NewContext creates the context of a run over input. msr may be nil.
func NewContext(input mat.Mat, msr measure.Measure) *Context {
	return &Context{
		Input:   input,
		Measure: msr,
		values:  make(map[string]any),
		current: -1,
	}
}

// Set stores a value operators further down the pipeline can read.
func (c *Context) Set(key string, v any) {
	c.values[key] = v
}

// Get returns a value stored by a previous stage.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Len returns the number of values stored in the context.
func (c *Context) Len() int {
	return len(c.values)
}

// Note attaches a diagnostic message to the stage currently executing.
func (c *Context) Note(msg string) {
	if c.current < 0 || c.current >= len(c.Stages) {
		return
	}

	c.Stages[c.current].Notes = append(c.Stages[c.current].Notes, msg)
}

// BeginStage opens the report of stage. It is called by the pipeline before the
// stage operator runs.
func (c *Context) BeginStage(stage StageInfo) {
	c.Stages = append(c.Stages, StageReport{Stage: stage})
	c.current = len(c.Stages) - 1
}

// EndStage closes the report opened by BeginStage.
func (c *Context) EndStage(elapsed time.Duration, output mat.Mat, keepOutput bool) {
	if c.current < 0 {
		return
	}

	report := &c.Stages[c.current]
	report.Duration = elapsed

	if keepOutput {
		report.Output = output
	}

	if c.Measure != nil {
		c.Measure.AddMetric(report.Stage.Name).AddDuration(elapsed)
	}

	c.current = -1
}

// Stage returns the report of the named stage.
func (c *Context) Stage(name string) (StageReport, bool) {
	for _, report := range c.Stages {
		if report.Stage.Name == name {
			return report, true
		}
	}

	return StageReport{}, false
}
