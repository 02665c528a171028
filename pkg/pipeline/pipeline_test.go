package pipeline_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-cvpipe/pkg/operators"
	"github.com/askiada/go-cvpipe/pkg/pipeline"
	"github.com/askiada/go-cvpipe/pkg/pipeline/mat"
	"github.com/askiada/go-cvpipe/pkg/pipeline/param"
	"github.com/askiada/go-cvpipe/pkg/pipeline/registry"
)

func TestAddNilOperator(t *testing.T) {
	t.Parallel()

	_, err := pipeline.New().Add("A", nil)
	assert.ErrorIs(t, err, pipeline.ErrOperatorMustBeSet)
}

func TestAddCollidingHintsGiveDistinctNames(t *testing.T) {
	t.Parallel()

	pipe := pipeline.New()
	seen := map[string]struct{}{}

	for range 20 {
		name, err := pipe.Add("Add", newAddOperator(t))
		require.NoError(t, err)

		_, dup := seen[name]
		require.False(t, dup, "name %q assigned twice", name)
		seen[name] = struct{}{}
	}

	assert.Equal(t, 20, pipe.Len())
	assert.Equal(t, "Add", names(t, pipe)[0])
	assert.Equal(t, "Add_2", names(t, pipe)[1])
}

func TestAddEmptyHintUsesType(t *testing.T) {
	t.Parallel()

	pipe := pipeline.New()

	name, err := pipe.Add("", newAddOperator(t))
	require.NoError(t, err)
	assert.Equal(t, "add", name)
}

func TestRemove(t *testing.T) {
	t.Parallel()

	for idx := range 4 {
		t.Run(fmt.Sprintf("index %d", idx), func(t *testing.T) {
			t.Parallel()

			pipe := newPipe(t, "A", "B", "C", "D")
			before := names(t, pipe)

			require.NoError(t, pipe.Remove(idx))

			expected := append(append([]string{}, before[:idx]...), before[idx+1:]...)
			assert.Equal(t, expected, names(t, pipe))
		})
	}
}

func TestRemoveDoesNotRenumber(t *testing.T) {
	t.Parallel()

	pipe := pipeline.New()
	for range 3 {
		_, err := pipe.Add("Add", newAddOperator(t))
		require.NoError(t, err)
	}

	require.NoError(t, pipe.Remove(0))
	assert.Equal(t, []string{"Add_2", "Add_3"}, names(t, pipe))

	name, err := pipe.Add("Add", newAddOperator(t))
	require.NoError(t, err)
	assert.Equal(t, "Add", name, "a freed hint is reused")
}

func TestIndexOutOfRange(t *testing.T) {
	t.Parallel()

	pipe := newPipe(t, "A", "B")

	tcs := map[string]func() error{
		"remove negative": func() error { return pipe.Remove(-1) },
		"remove past end": func() error { return pipe.Remove(2) },
		"move bad source": func() error { return pipe.Move(2, 0) },
		"move bad target": func() error { return pipe.Move(0, 5) },
		"rename":          func() error { return pipe.Rename(3, "Z") },
		"name at": func() error {
			_, err := pipe.NameAt(-1)
			return err
		},
	}

	for name, fn := range tcs {
		t.Run(name, func(t *testing.T) {
			var rangeErr *pipeline.IndexOutOfRangeError
			require.ErrorAs(t, fn(), &rangeErr)
			assert.Equal(t, 2, rangeErr.Len)
			assert.Equal(t, []string{"A", "B"}, names(t, pipe))
		})
	}
}

func TestMove(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		expected []string
		src, dst int
	}{
		"forward":  {src: 0, dst: 2, expected: []string{"B", "C", "A", "D"}},
		"backward": {src: 3, dst: 1, expected: []string{"A", "D", "B", "C"}},
		"same":     {src: 1, dst: 1, expected: []string{"A", "B", "C", "D"}},
		"to end":   {src: 0, dst: 3, expected: []string{"B", "C", "D", "A"}},
		"to start": {src: 3, dst: 0, expected: []string{"D", "A", "B", "C"}},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pipe := newPipe(t, "A", "B", "C", "D")
			require.NoError(t, pipe.Move(tc.src, tc.dst))
			assert.Equal(t, tc.expected, names(t, pipe))
		})
	}
}

func TestMoveThereAndBackRestoresOrder(t *testing.T) {
	t.Parallel()

	original := []string{"A", "B", "C", "D", "E"}

	for src := range original {
		for dst := range original {
			pipe := newPipe(t, original...)

			require.NoError(t, pipe.Move(src, dst))
			require.NoError(t, pipe.Move(dst, src))
			assert.Equal(t, original, names(t, pipe), "move(%d, %d)", src, dst)
		}
	}
}

func TestRename(t *testing.T) {
	t.Parallel()

	pipe := newPipe(t, "A", "B")

	var dupErr *pipeline.DuplicateNameError
	require.ErrorAs(t, pipe.Rename(0, "B"), &dupErr)
	assert.Equal(t, "B", dupErr.Name)

	name, err := pipe.NameAt(0)
	require.NoError(t, err)
	assert.Equal(t, "A", name)

	require.NoError(t, pipe.Rename(0, "A"), "renaming to the current name is a no-op")
	require.ErrorIs(t, pipe.Rename(0, ""), pipeline.ErrEmptyName)

	require.NoError(t, pipe.Rename(0, "Z"))
	assert.Equal(t, []string{"Z", "B"}, names(t, pipe))

	_, ok := pipe.Operator("Z")
	assert.True(t, ok)
	_, ok = pipe.Operator("A")
	assert.False(t, ok)
}

func TestOperatorsIsAView(t *testing.T) {
	t.Parallel()

	pipe := newPipe(t, "A", "B")
	stages := pipe.Operators()
	stages[0].Name = "mutated"

	assert.Equal(t, []string{"A", "B"}, names(t, pipe))

	infos := pipe.Stages()
	require.Len(t, infos, 2)
	assert.Equal(t, "B", infos[1].Name)
	assert.Equal(t, "add", infos[1].Type)
	assert.Equal(t, 1, infos[1].Index)
}

func TestRunEmptyPipelineIsIdentity(t *testing.T) {
	t.Parallel()

	input := pixel(t, 1, 2, 3)

	out, ctx, err := pipeline.New().Run(input)
	require.NoError(t, err)
	assert.True(t, mat.Equal(input, out))
	require.NotNil(t, ctx)
	assert.Empty(t, ctx.Stages)
	assert.True(t, mat.Equal(input, ctx.Input))
}

func TestRunThreadsOutputs(t *testing.T) {
	t.Parallel()

	pipe := newPipe(t, "A", "B")
	require.NoError(t, pipe.SetParameter("B", "amount", 10))

	input := pixel(t, 1)

	out, ctx, err := pipe.Run(input)
	require.NoError(t, err)
	assert.Equal(t, []uint8{12}, out.Data)
	assert.Equal(t, []uint8{1}, input.Data, "input buffer is untouched")

	require.Len(t, ctx.Stages, 2)
	assert.Equal(t, "A", ctx.Stages[0].Stage.Name)
	assert.True(t, ctx.Stages[0].Output.Empty(), "intermediates are not kept by default")

	v, ok := ctx.Get("last_add")
	require.True(t, ok)
	assert.Equal(t, 10, v)
}

func TestRunKeepsIntermediates(t *testing.T) {
	t.Parallel()

	pipe := pipeline.New(pipeline.WithIntermediates(), pipeline.WithDefaultMeasure())
	_, err := pipe.Add("A", newAddOperator(t))
	require.NoError(t, err)
	_, err = pipe.Add("B", newAddOperator(t))
	require.NoError(t, err)

	_, ctx, err := pipe.Run(pixel(t, 0))
	require.NoError(t, err)

	assert.Equal(t, []uint8{1}, ctx.Stages[0].Output.Data)
	assert.Equal(t, []uint8{2}, ctx.Stages[1].Output.Data)

	require.NotNil(t, ctx.Measure)
	assert.Equal(t, []string{"A", "B"}, ctx.Measure.Names())
	assert.Equal(t, int64(1), ctx.Measure.GetMetric("A").Count())
}

func TestRunStopsAtFailingStage(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	pipe := pipeline.New(pipeline.WithListener(rec))

	_, err := pipe.Add("first", newAddOperator(t))
	require.NoError(t, err)
	_, err = pipe.Add("second", newFailingOperator(t, assert.AnError))
	require.NoError(t, err)

	third := newAddOperator(t)
	_, err = pipe.Add("third", third)
	require.NoError(t, err)

	input := pixel(t, 5)
	before := names(t, pipe)

	out, ctx, err := pipe.Run(input)

	var failErr *pipeline.OperatorFailedError
	require.ErrorAs(t, err, &failErr)
	assert.Equal(t, "second", failErr.Name)
	assert.Equal(t, 1, failErr.Index)
	assert.Equal(t, "fail", failErr.Type)
	require.ErrorIs(t, err, assert.AnError)

	assert.True(t, out.Empty(), "no partial image is returned")
	assert.Nil(t, ctx)
	assert.Equal(t, []uint8{5}, input.Data)
	assert.Equal(t, before, names(t, pipe))

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, pipeline.EventOperatorFailed, last.Kind)
	assert.Equal(t, "second", last.Stage.Name)
}

func TestRunRejectsInvalidOutput(t *testing.T) {
	t.Parallel()

	pipe := pipeline.New()
	_, err := pipe.Add("empty", newEmptyOutputOperator(t))
	require.NoError(t, err)

	_, _, err = pipe.Run(pixel(t, 1))

	var failErr *pipeline.OperatorFailedError
	require.ErrorAs(t, err, &failErr)
	assert.ErrorIs(t, err, pipeline.ErrInvalidOutput)
}

func TestSetParameter(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	pipe := newPipe(t, "A")
	pipe.AddListener(rec)

	require.NoError(t, pipe.SetParameter("A", "amount", 100))

	var valueErr *param.InvalidParameterValueError
	require.ErrorAs(t, pipe.SetParameter("A", "amount", 101), &valueErr)

	var stageErr *pipeline.UnknownStageError
	require.ErrorAs(t, pipe.SetParameter("missing", "amount", 1), &stageErr)

	op, ok := pipe.Operator("A")
	require.True(t, ok)
	assert.Equal(t, 100, op.Parameters()[0].Value)

	require.Len(t, rec.events, 1)
	assert.Equal(t, pipeline.EventParameterChanged, rec.events[0].Kind)
	assert.Equal(t, "amount", rec.events[0].Param)
	assert.Equal(t, 100, rec.events[0].Value)
}

func TestEvents(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	pipe := pipeline.New(pipeline.WithListener(rec))

	_, err := pipe.Add("A", newAddOperator(t))
	require.NoError(t, err)
	_, err = pipe.Add("B", newAddOperator(t))
	require.NoError(t, err)
	require.NoError(t, pipe.Move(0, 1))
	require.NoError(t, pipe.Move(1, 1))
	require.NoError(t, pipe.Rename(0, "C"))
	require.Error(t, pipe.Rename(0, "A"))
	require.NoError(t, pipe.Remove(1))

	_, _, err = pipe.Run(pixel(t, 0))
	require.NoError(t, err)

	assert.Equal(t, []pipeline.EventKind{
		pipeline.EventOperatorsChanged,
		pipeline.EventOperatorsChanged,
		pipeline.EventOperatorsChanged,
		pipeline.EventOperatorsChanged,
		pipeline.EventOperatorsChanged,
		pipeline.EventImageProduced,
	}, rec.kinds())

	produced := rec.events[len(rec.events)-1]
	assert.Equal(t, []uint8{1}, produced.Image.Data)
	require.NotNil(t, produced.Context)
	assert.Equal(t, "operators_changed", pipeline.EventOperatorsChanged.String())
}

func TestListenerFunc(t *testing.T) {
	t.Parallel()

	var got []pipeline.EventKind

	pipe := pipeline.New(pipeline.WithListener(pipeline.ListenerFunc(func(ev pipeline.Event) {
		got = append(got, ev.Kind)
	})))

	_, err := pipe.Add("A", newAddOperator(t))
	require.NoError(t, err)
	assert.Equal(t, []pipeline.EventKind{pipeline.EventOperatorsChanged}, got)
}

func TestBrightenThenGrayscaleScenario(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	require.NoError(t, operators.Register(reg))

	pipe := pipeline.New()

	brighten, err := reg.Instantiate(operators.Brighten)
	require.NoError(t, err)
	require.NoError(t, brighten.SetParameter("amount", 10))

	gray, err := reg.Instantiate(operators.Grayscale)
	require.NoError(t, err)

	_, err = pipe.Add("A", brighten)
	require.NoError(t, err)
	_, err = pipe.Add("B", gray)
	require.NoError(t, err)

	input := pixel(t, 0, 0, 0)

	first, _, err := pipe.Run(input)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Channels)
	assert.Equal(t, []uint8{10}, first.Data)

	second, _, err := pipe.Run(input)
	require.NoError(t, err)
	assert.True(t, mat.Equal(first, second), "runs over unchanged state are byte identical")
}
