package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askiada/go-cvpipe/pkg/pipeline"
	"github.com/askiada/go-cvpipe/pkg/pipeline/mat"
	"github.com/askiada/go-cvpipe/pkg/pipeline/model"
	"github.com/askiada/go-cvpipe/pkg/pipeline/operator"
	"github.com/askiada/go-cvpipe/pkg/pipeline/param"
)

// newAddOperator returns an operator adding its "amount" parameter to every byte.
func newAddOperator(t *testing.T) operator.Operator {
	t.Helper()

	op, err := operator.NewFunc("add", "Add", func(img mat.Mat, params *param.Set, ctx *model.Context) (mat.Mat, error) {
		out := img.Clone()
		for i := range out.Data {
			out.Data[i] += uint8(params.Int("amount"))
		}

		ctx.Set("last_add", params.Int("amount"))

		return out, nil
	}, param.Int{Name: "amount", Lower: 0, Upper: 100, Step: 1, Default: 1})
	require.NoError(t, err)

	return op
}

// newFailingOperator returns an operator always failing with cause.
func newFailingOperator(t *testing.T, cause error) operator.Operator {
	t.Helper()

	op, err := operator.NewFunc("fail", "", func(mat.Mat, *param.Set, *model.Context) (mat.Mat, error) {
		return mat.Mat{}, cause
	})
	require.NoError(t, err)

	return op
}

// newEmptyOutputOperator returns an operator producing an empty buffer.
func newEmptyOutputOperator(t *testing.T) operator.Operator {
	t.Helper()

	op, err := operator.NewFunc("empty", "", func(mat.Mat, *param.Set, *model.Context) (mat.Mat, error) {
		return mat.Mat{}, nil
	})
	require.NoError(t, err)

	return op
}

func newPipe(t *testing.T, names ...string) *pipeline.Pipeline {
	t.Helper()

	pipe := pipeline.New()

	for _, name := range names {
		got, err := pipe.Add(name, newAddOperator(t))
		require.NoError(t, err)
		require.Equal(t, name, got)
	}

	return pipe
}

func names(t *testing.T, pipe *pipeline.Pipeline) []string {
	t.Helper()

	out := make([]string, 0, pipe.Len())
	for _, stage := range pipe.Operators() {
		out = append(out, stage.Name)
	}

	return out
}

func pixel(t *testing.T, values ...uint8) mat.Mat {
	t.Helper()

	m, err := mat.FromRows([][][]uint8{{values}})
	require.NoError(t, err)

	return m
}

type recorder struct {
	events []pipeline.Event
}

func (r *recorder) OnEvent(ev pipeline.Event) {
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []pipeline.EventKind {
	out := make([]pipeline.EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}

	return out
}
