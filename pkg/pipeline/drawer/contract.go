package drawer

import (
	"io"
	"time"

	"github.com/askiada/go-cvpipe/pkg/pipeline/measure"
)

// Drawer renders the layout of a pipeline. Stages are addressed by ids chosen
// by the caller; labels are free text.
type Drawer interface {
	// AddStage adds a stage to the drawing.
	AddStage(id, label string) error
	// AddLink links a stage to the stage consuming its output.
	AddLink(parentID, childID string) error
	// SetTotalTime annotates a stage with the duration of a whole run.
	SetTotalTime(id string, total time.Duration) error
	// AddMeasure annotates stages and links with the durations recorded by msr.
	// ids maps the stage names used by msr to stage ids.
	AddMeasure(msr measure.Measure, ids map[string]string) error
	// Draw writes the drawing to w.
	Draw(w io.Writer) error
}
