package registry_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-cvpipe/pkg/pipeline/mat"
	"github.com/askiada/go-cvpipe/pkg/pipeline/model"
	"github.com/askiada/go-cvpipe/pkg/pipeline/operator"
	"github.com/askiada/go-cvpipe/pkg/pipeline/param"
	"github.com/askiada/go-cvpipe/pkg/pipeline/registry"
)

func identity(img mat.Mat, _ *param.Set, _ *model.Context) (mat.Mat, error) {
	return img, nil
}

func factory(typeID string, specs ...param.Spec) registry.Factory {
	return func() (operator.Operator, error) {
		return operator.NewFunc(typeID, "Display "+typeID, identity, specs...)
	}
}

func TestRegisterAndAvailable(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	require.NoError(t, reg.Register("b", factory("b", param.Bool{Name: "flag"})))
	require.NoError(t, reg.Register("a", factory("a")))

	available := reg.Available()
	require.Len(t, available, 2)
	assert.Equal(t, "b", available[0].TypeID)
	assert.Equal(t, "Display b", available[0].DisplayName)
	require.Len(t, available[0].Specs, 1)
	assert.Equal(t, "flag", available[0].Specs[0].Key())
	assert.Equal(t, "a", available[1].TypeID)
	assert.Equal(t, 2, reg.Len())
}

func TestRegisterDuplicate(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	require.NoError(t, reg.Register("a", factory("a")))

	err := reg.Register("a", factory("a"))

	var dupErr *registry.DuplicateRegistrationError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "a", dupErr.TypeID)
	assert.Equal(t, 1, reg.Len())
}

func TestRegisterInvalidSpec(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	err := reg.Register("bad", factory("bad", param.Double{Name: "sigma", Upper: 1, Step: 0}))

	var specErr *param.InvalidSpecError
	require.ErrorAs(t, err, &specErr)
	assert.Equal(t, 0, reg.Len())
}

func TestRegisterInvalidArguments(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	assert.ErrorIs(t, reg.Register("", factory("x")), registry.ErrTypeIDMustBeSet)
	assert.ErrorIs(t, reg.Register("x", nil), registry.ErrFactoryMustBeSet)
	assert.ErrorIs(t, reg.Register("x", factory("y")), registry.ErrTypeMismatch)
}

func TestInstantiate(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	require.NoError(t, reg.Register("a", factory("a", param.Int{Name: "n", Upper: 10, Step: 1, Default: 3})))

	first, err := reg.Instantiate("a")
	require.NoError(t, err)
	second, err := reg.Instantiate("a")
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	require.NoError(t, first.SetParameter("n", 9))
	assert.Equal(t, 3, second.Parameters()[0].Value)

	_, err = reg.Instantiate("missing")

	var unknownErr *registry.UnknownOperatorError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "missing", unknownErr.TypeID)

	_, err = reg.Descriptor("missing")
	assert.ErrorAs(t, err, &unknownErr)
}

func TestInstantiateChecksFactory(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		later    registry.Factory
		expected error
	}{
		"no operator": {
			later:    func() (operator.Operator, error) { return nil, nil },
			expected: registry.ErrFactoryMustBeSet,
		},
		"other type": {
			later:    factory("b"),
			expected: registry.ErrTypeMismatch,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			reg := registry.New()
			require.NoError(t, reg.Register("a", func() (operator.Operator, error) {
				calls++
				if calls == 1 {
					return factory("a")()
				}

				return tc.later()
			}))

			op, err := reg.Instantiate("a")
			require.ErrorIs(t, err, tc.expected)
			assert.Nil(t, op)
		})
	}
}

func TestConcurrentReads(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	require.NoError(t, reg.Register("a", factory("a")))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := reg.Instantiate("a")
			assert.NoError(t, err)
			assert.Len(t, reg.Available(), 1)
		}()
	}

	wg.Wait()
}
