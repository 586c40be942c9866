package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/radariq.go/pkg/msgs"
)

func TestAngle(t *testing.T) {
	require.InDelta(t, 90, AngleFromDegrees(450).Degrees(), 1e-9)
	require.InDelta(t, -90, AngleFromDegrees(270).Degrees(), 1e-9)
	require.InDelta(t, 120, AngleFromDegrees(100).AddDegrees(20).Degrees(), 1e-9)
	require.InDelta(t, 45, Pos{X: 1000, Y: 1000}.Azimuth().Degrees(), 1e-9)
	p := AngleFromDegrees(-30).Project(2000)
	require.InDelta(t, -1000, p.X, 1e-9)
	require.InDelta(t, 2000*0.8660254037844386, p.Y, 1e-6)
}

func TestSceneStep(t *testing.T) {
	s := &Scene{
		Targets: []*Target{{ID: 1, Pos: Pos{X: 900, Y: 1000}, Vel: Pos{X: 200, Y: -100}}},
		Bounds:  Pos{X: 1000, Y: 5000},
	}
	s.Step(time.Second)
	target := s.Targets[0]
	require.InDelta(t, 900, target.Pos.X, 1e-9)
	require.InDelta(t, -200, target.Vel.X, 1e-9)
	require.InDelta(t, 900, target.Pos.Y, 1e-9)
}

func TestSceneStepTurn(t *testing.T) {
	s := &Scene{
		Targets: []*Target{{ID: 1, Pos: Pos{Y: 1000}, Vel: Pos{Y: 100, Z: 10}, Turn: 90}},
		Bounds:  Pos{X: 5000, Y: 5000, Z: 1000},
	}
	s.Step(time.Second)
	target := s.Targets[0]
	require.InDelta(t, 100, target.Vel.X, 1e-6)
	require.InDelta(t, 0, target.Vel.Y, 1e-6)
	require.InDelta(t, 10, target.Vel.Z, 1e-9)
	require.InDelta(t, 100, target.Pos.X, 1e-6)
	require.InDelta(t, 1000, target.Pos.Y, 1e-6)
}

func TestSceneVisible(t *testing.T) {
	walking := &Target{ID: 1, Pos: Pos{X: 0, Y: 2000}, Vel: Pos{Y: 500}}
	wall := &Target{ID: 2, Pos: Pos{X: 2000, Y: 2000, Z: 800}}
	far := &Target{ID: 3, Pos: Pos{Y: 9000}}
	s := &Scene{Targets: []*Target{walking, wall, far}}

	testCases := []struct {
		name   string
		update func(*Settings)
		expect []*Target
	}{
		{"defaults", func(*Settings) {}, []*Target{walking, wall, far}},
		{"angle", func(st *Settings) { st.AngleMin, st.AngleMax = -30, 30 }, []*Target{walking, far}},
		{"distance", func(st *Settings) { st.DistanceMax = 5000 }, []*Target{walking, wall}},
		{"height", func(st *Settings) { st.HeightMax = 500 }, []*Target{walking, far}},
		{"moving", func(st *Settings) { st.MovingFilter = msgs.MovingObjectsOnly }, []*Target{walking}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			st := DefaultSettings()
			tc.update(&st)
			require.Equal(t, tc.expect, s.Visible(&st))
		})
	}
}

func TestScenePoints(t *testing.T) {
	s := &Scene{Targets: []*Target{
		{ID: 1, Pos: Pos{Y: 2000}, Vel: Pos{Y: -300}, Size: 100},
		{ID: 2, Pos: Pos{Y: 3000}, Size: 100},
	}}
	st := DefaultSettings()
	points, truncated := s.Points(&st, 0)
	require.False(t, truncated)
	require.Len(t, points, 8)
	require.Equal(t, int16(-300), points[0].Velocity)
	require.Zero(t, points[0].X)
	require.Equal(t, int16(50), points[0].Z)
	require.Equal(t, int16(2000), points[0].Y)
	require.Zero(t, points[4].Velocity)

	st.PointDensity = msgs.DensityVeryDense
	points, truncated = s.Points(&st, 20)
	require.True(t, truncated)
	require.Len(t, points, 20)

	objects := s.Objects(&st, 1)
	require.Equal(t, []msgs.TrackedObject{{TargetID: 1, YPos: 2000, YVel: -300}}, objects)
}
