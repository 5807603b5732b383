package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func TestBiexponentialIncrease(t *testing.T) {
	fn := BiexponentialIncrease(2, 20)
	progressed := Observation{ActiveCount: 1, StartedCount: 1}

	var previous *int
	want := []int{2, 4, 8, 16, 20, 20}
	for i, w := range want {
		got, ok := fn(previous, progressed)
		require.Truef(t, ok, "step %d", i)
		require.Equalf(t, w, got, "step %d", i)
		previous = intp(got)
	}
}

func TestBiexponentialIncreaseResetsOnNoProgress(t *testing.T) {
	fn := BiexponentialIncrease(2, 20)
	got, ok := fn(intp(16), Observation{ActiveCount: 1})
	require.True(t, ok)
	require.Equal(t, 2, got)
}

func TestBiexponentialDecrease(t *testing.T) {
	fn := BiexponentialDecrease(20, 2)
	active := Observation{ActiveCount: 1}

	got, ok := fn(nil, active)
	require.True(t, ok)
	require.Equal(t, 20, got)

	previous := intp(got)
	want := []int{10, 5, 2, 2}
	for i, w := range want {
		got, ok := fn(previous, active)
		require.Truef(t, ok, "step %d", i)
		require.Equalf(t, w, got, "step %d", i)
		previous = intp(got)
	}
}

func TestLinearAdapt(t *testing.T) {
	fn := LinearAdapt(2, 20, 2)
	active := Observation{ActiveCount: 1}

	got, ok := fn(nil, active)
	require.True(t, ok)
	require.Equal(t, 2, got)

	active.StartedCount = 1
	got, ok = fn(intp(2), active)
	require.True(t, ok)
	require.Equal(t, 4, got)

	active.StartedCount = 0
	got, ok = fn(intp(4), active)
	require.True(t, ok)
	require.Equal(t, 2, got)

	got, ok = fn(intp(2), active)
	require.True(t, ok)
	require.Equal(t, 2, got)
}

func TestRandomWithinBounds(t *testing.T) {
	fn := Random(2, 20)
	for i := 0; i < 50; i++ {
		got, ok := fn(nil, Observation{ActiveCount: 1})
		require.True(t, ok)
		require.GreaterOrEqual(t, got, 2)
		require.LessOrEqual(t, got, 20)
	}
}

func TestHaltsWhenNoActiveNodes(t *testing.T) {
	empty := Observation{}
	fns := []Func{
		LinearIncrease(2, 20, 2),
		LinearAdapt(2, 20, 2),
		BiexponentialIncrease(2, 20),
		BiexponentialDecrease(20, 2),
		BiexponentialAdapt(2, 20),
		Random(2, 20),
		Constant(5),
	}
	for i, fn := range fns {
		got, ok := fn(intp(4), empty)
		require.Falsef(t, ok, "strategy %d", i)
		require.Zerof(t, got, "strategy %d", i)
	}
}

func TestBuildUnknown(t *testing.T) {
	_, err := Build("nope", nil)
	require.Error(t, err)
}

func TestBuildBiexponentialDecrease(t *testing.T) {
	fn, err := Build("biexponential_decrease", map[string]interface{}{"start_retry": 30, "stop_retry": 5})
	require.NoError(t, err)
	got, ok := fn(nil, Observation{ActiveCount: 1})
	require.True(t, ok)
	require.Equal(t, 30, got)
}
