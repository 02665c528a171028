package operators_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-cvpipe/pkg/operators"
	"github.com/askiada/go-cvpipe/pkg/pipeline/mat"
	"github.com/askiada/go-cvpipe/pkg/pipeline/model"
	"github.com/askiada/go-cvpipe/pkg/pipeline/operator"
	"github.com/askiada/go-cvpipe/pkg/pipeline/registry"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	reg := registry.New()
	require.NoError(t, operators.Register(reg))

	return reg
}

func instantiate(t *testing.T, typeID string, params map[string]any) operator.Operator {
	t.Helper()

	op, err := newRegistry(t).Instantiate(typeID)
	require.NoError(t, err)

	for k, v := range params {
		require.NoError(t, op.SetParameter(k, v))
	}

	return op
}

func rows(t *testing.T, px [][][]uint8) mat.Mat {
	t.Helper()

	m, err := mat.FromRows(px)
	require.NoError(t, err)

	return m
}

func apply(t *testing.T, op operator.Operator, img mat.Mat) mat.Mat {
	t.Helper()

	before := img.Clone()

	out, err := op.Apply(img, model.NewContext(img, nil))
	require.NoError(t, err)
	require.NoError(t, out.Validate())
	assert.True(t, mat.Equal(before, img), "input buffer must not be modified")

	return out
}

func TestRegister(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)

	var ids []string
	for _, desc := range reg.Available() {
		ids = append(ids, desc.TypeID)
	}

	assert.Equal(t, []string{
		operators.Brighten,
		operators.Grayscale,
		operators.GaussianBlur,
		operators.ColorSpace,
		operators.Threshold,
		operators.Invert,
		operators.Flip,
	}, ids)

	desc, err := reg.Descriptor(operators.GaussianBlur)
	require.NoError(t, err)
	assert.Equal(t, "Gaussian Blur", desc.DisplayName)

	var dupErr *registry.DuplicateRegistrationError
	require.ErrorAs(t, operators.Register(reg), &dupErr)
	assert.Equal(t, operators.Brighten, dupErr.TypeID)
}

func TestBrighten(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input    [][][]uint8
		expected [][][]uint8
		amount   int
	}{
		"add":             {amount: 10, input: [][][]uint8{{{0, 1, 2}}}, expected: [][][]uint8{{{10, 11, 12}}}},
		"saturates high":  {amount: 255, input: [][][]uint8{{{1, 200, 255}}}, expected: [][][]uint8{{{255, 255, 255}}}},
		"saturates low":   {amount: -20, input: [][][]uint8{{{10, 30, 0}}}, expected: [][][]uint8{{{0, 10, 0}}}},
		"gray":            {amount: 5, input: [][][]uint8{{{7}, {9}}}, expected: [][][]uint8{{{12}, {14}}}},
		"alpha untouched": {amount: 5, input: [][][]uint8{{{1, 2, 3, 128}}}, expected: [][][]uint8{{{6, 7, 8, 128}}}},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			op := instantiate(t, operators.Brighten, map[string]any{"amount": tc.amount})
			out := apply(t, op, rows(t, tc.input))
			assert.True(t, mat.Equal(rows(t, tc.expected), out), "got %v", out.Data)
		})
	}
}

func TestGrayscale(t *testing.T) {
	t.Parallel()

	op := instantiate(t, operators.Grayscale, nil)

	out := apply(t, op, rows(t, [][][]uint8{{{10, 10, 10}, {255, 255, 255}, {0, 0, 255}, {255, 0, 0}}}))
	assert.Equal(t, 1, out.Channels)
	assert.Equal(t, []uint8{10, 255, 76, 29}, out.Data)

	gray := rows(t, [][][]uint8{{{42}}})
	assert.True(t, mat.Equal(gray, apply(t, op, gray)))
}

func TestBrightenThenGrayscale(t *testing.T) {
	t.Parallel()

	brighten := instantiate(t, operators.Brighten, map[string]any{"amount": 10})
	gray := instantiate(t, operators.Grayscale, nil)

	out := apply(t, gray, apply(t, brighten, rows(t, [][][]uint8{{{0, 0, 0}}})))
	assert.Equal(t, 1, out.Channels)
	assert.Equal(t, []uint8{10}, out.Data)
}

func TestColorSpace(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input      [][][]uint8
		expected   [][][]uint8
		conversion string
	}{
		"bgr to rgb": {
			conversion: operators.BGR2RGB,
			input:      [][][]uint8{{{1, 2, 3}}},
			expected:   [][][]uint8{{{3, 2, 1}}},
		},
		"bgr to gray": {
			conversion: operators.BGR2GRAY,
			input:      [][][]uint8{{{10, 10, 10}}},
			expected:   [][][]uint8{{{10}}},
		},
		"gray to bgr": {
			conversion: operators.GRAY2BGR,
			input:      [][][]uint8{{{7}}},
			expected:   [][][]uint8{{{7, 7, 7}}},
		},
		"bgr to hsv": {
			conversion: operators.BGR2HSV,
			input:      [][][]uint8{{{0, 0, 255}, {0, 255, 0}, {255, 0, 0}, {0, 0, 0}, {128, 128, 128}}},
			expected:   [][][]uint8{{{0, 255, 255}, {60, 255, 255}, {120, 255, 255}, {0, 0, 0}, {0, 0, 128}}},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			op := instantiate(t, operators.ColorSpace, map[string]any{"conversion": tc.conversion})
			out := apply(t, op, rows(t, tc.input))
			assert.True(t, mat.Equal(rows(t, tc.expected), out), "got %v", out.Data)
		})
	}
}

func TestColorSpaceUnsupportedChannels(t *testing.T) {
	t.Parallel()

	op := instantiate(t, operators.ColorSpace, map[string]any{"conversion": operators.GRAY2BGR})
	img := rows(t, [][][]uint8{{{1, 2, 3}}})

	_, err := op.Apply(img, model.NewContext(img, nil))
	assert.ErrorIs(t, err, operators.ErrUnsupportedChannels)
}

func TestGaussianBlur(t *testing.T) {
	t.Parallel()

	uniform := rows(t, [][][]uint8{
		{{100}, {100}, {100}},
		{{100}, {100}, {100}},
		{{100}, {100}, {100}},
	})

	t.Run("uniform stays uniform", func(t *testing.T) {
		t.Parallel()

		op := instantiate(t, operators.GaussianBlur, map[string]any{"kernel_size": 5, "sigma": 1.5})
		assert.True(t, mat.Equal(uniform, apply(t, op, uniform)))
	})

	t.Run("size one is identity", func(t *testing.T) {
		t.Parallel()

		img := rows(t, [][][]uint8{{{0, 50, 100}, {200, 250, 10}}})
		op := instantiate(t, operators.GaussianBlur, map[string]any{"kernel_size": 1})
		assert.True(t, mat.Equal(img, apply(t, op, img)))
	})

	t.Run("spreads a peak", func(t *testing.T) {
		t.Parallel()

		img := rows(t, [][][]uint8{{{0}, {0}, {255}, {0}, {0}}})
		op := instantiate(t, operators.GaussianBlur, map[string]any{"kernel_size": 3, "sigma": 1.0})
		out := apply(t, op, img)

		assert.Less(t, out.Data[2], uint8(255))
		assert.Greater(t, out.Data[1], uint8(0))
		assert.Equal(t, out.Data[1], out.Data[3])
		assert.Equal(t, uint8(0), out.Data[0])
	})

	t.Run("derived sigma is noted", func(t *testing.T) {
		t.Parallel()

		op := instantiate(t, operators.GaussianBlur, nil)
		ctx := model.NewContext(uniform, nil)
		ctx.BeginStage(model.StageInfo{Name: "blur"})

		_, err := op.Apply(uniform, ctx)
		require.NoError(t, err)
		require.Len(t, ctx.Stages[0].Notes, 1)
		assert.Contains(t, ctx.Stages[0].Notes[0], "0.650")
	})

	t.Run("even kernel fails", func(t *testing.T) {
		t.Parallel()

		op := instantiate(t, operators.GaussianBlur, map[string]any{"kernel_size": 4})

		_, err := op.Apply(uniform, model.NewContext(uniform, nil))
		assert.ErrorIs(t, err, operators.ErrEvenKernelSize)
	})
}

func TestThreshold(t *testing.T) {
	t.Parallel()

	img := rows(t, [][][]uint8{{{10}, {127}, {128}, {255}}})

	op := instantiate(t, operators.Threshold, nil)
	assert.Equal(t, []uint8{0, 0, 255, 255}, apply(t, op, img).Data)

	op = instantiate(t, operators.Threshold, map[string]any{"threshold": 10, "invert": true})
	assert.Equal(t, []uint8{255, 0, 0, 0}, apply(t, op, img).Data)
}

func TestInvert(t *testing.T) {
	t.Parallel()

	op := instantiate(t, operators.Invert, nil)
	out := apply(t, op, rows(t, [][][]uint8{{{0, 100, 255, 7}}}))
	assert.Equal(t, []uint8{255, 155, 0, 7}, out.Data)
}

func TestFlip(t *testing.T) {
	t.Parallel()

	input := [][][]uint8{
		{{1}, {2}},
		{{3}, {4}},
	}

	tcs := map[string]struct {
		axis     string
		expected []uint8
	}{
		operators.FlipHorizontal: {axis: operators.FlipHorizontal, expected: []uint8{2, 1, 4, 3}},
		operators.FlipVertical:   {axis: operators.FlipVertical, expected: []uint8{3, 4, 1, 2}},
		operators.FlipBoth:       {axis: operators.FlipBoth, expected: []uint8{4, 3, 2, 1}},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			op := instantiate(t, operators.Flip, map[string]any{"axis": tc.axis})
			assert.Equal(t, tc.expected, apply(t, op, rows(t, input)).Data)
		})
	}
}
