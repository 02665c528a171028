package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-cvpipe/pkg/pipeline/mat"
	"github.com/askiada/go-cvpipe/pkg/pipeline/measure"
	"github.com/askiada/go-cvpipe/pkg/pipeline/model"
)

func TestContextStages(t *testing.T) {
	t.Parallel()

	input, err := mat.New(1, 1, 1)
	require.NoError(t, err)

	msr := measure.NewDefaultMeasure()
	ctx := model.NewContext(input, msr)

	ctx.Note("ignored outside of a stage")
	ctx.BeginStage(model.StageInfo{Name: "A", Type: "brighten", Index: 0})
	ctx.Note("clipped 3 pixels")
	ctx.Set("clipped", 3)
	ctx.EndStage(time.Millisecond, input, true)

	ctx.BeginStage(model.StageInfo{Name: "B", Type: "grayscale", Index: 1})
	ctx.EndStage(2*time.Millisecond, input, false)

	require.Len(t, ctx.Stages, 2)

	report, ok := ctx.Stage("A")
	require.True(t, ok)
	assert.Equal(t, []string{"clipped 3 pixels"}, report.Notes)
	assert.False(t, report.Output.Empty())
	assert.Equal(t, time.Millisecond, report.Duration)

	report, ok = ctx.Stage("B")
	require.True(t, ok)
	assert.True(t, report.Output.Empty())

	v, ok := ctx.Get("clipped")
	require.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 1, ctx.Len())

	assert.Equal(t, []string{"A", "B"}, msr.Names())
	assert.Equal(t, 2*time.Millisecond, msr.GetMetric("B").LastDuration())
}
