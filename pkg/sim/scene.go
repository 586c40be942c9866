package sim

import (
	"math"
	"time"

	"github.com/robotalks/radariq.go/pkg/msgs"
)

// Settings are the configuration values held by the emulated device.
type Settings struct {
	FrameRate    uint8
	Mode         msgs.CaptureMode
	DistanceMin  uint16
	DistanceMax  uint16
	AngleMin     int8
	AngleMax     int8
	MovingFilter msgs.MovingFilterMode
	PointDensity msgs.Density
	Certainty    uint8
	HeightMin    int16
	HeightMax    int16
	ObjectSize   uint8
}

// DefaultSettings are the factory settings.
func DefaultSettings() Settings {
	return Settings{
		FrameRate:    5,
		Mode:         msgs.ModePointCloud,
		DistanceMin:  msgs.MinDistance,
		DistanceMax:  msgs.MaxDistance,
		AngleMin:     msgs.MinAngle,
		AngleMax:     msgs.MaxAngle,
		MovingFilter: msgs.MovingBoth,
		PointDensity: msgs.DensityNormal,
		Certainty:    5,
		HeightMin:    -5000,
		HeightMax:    5000,
		ObjectSize:   1,
	}
}

// Scene is a set of targets seen by the emulated radar.
type Scene struct {
	Targets []*Target
	// Bounds are the half extents of X and Z and the extent of Y in which
	// targets bounce. Zero disables bouncing on that axis.
	Bounds Pos
}

// DefaultScene returns a scene with a walking person and a static wall.
func DefaultScene() *Scene {
	return &Scene{
		Targets: []*Target{
			{ID: 1, Pos: Pos{X: -500, Y: 2000, Z: 0}, Vel: Pos{X: 400, Y: 150}, Turn: 10, Size: 200},
			{ID: 2, Pos: Pos{X: 300, Y: 4000, Z: 500}, Size: 400},
		},
		Bounds: Pos{X: 2000, Y: 6000, Z: 1000},
	}
}

// Step turns and moves the targets by their velocities over dt.
func (s *Scene) Step(dt time.Duration) {
	secs := dt.Seconds()
	for _, t := range s.Targets {
		if speed := math.Hypot(t.Vel.X, t.Vel.Y); t.Turn != 0 && speed > 0 {
			v := t.Vel.Azimuth().AddDegrees(t.Turn * secs).Project(speed)
			t.Vel.X, t.Vel.Y = v.X, v.Y
		}
		t.Pos.OffsetBy(t.Vel.Scale(secs))
		bounce(&t.Pos.X, &t.Vel.X, -s.Bounds.X, s.Bounds.X)
		bounce(&t.Pos.Y, &t.Vel.Y, 0, s.Bounds.Y)
		bounce(&t.Pos.Z, &t.Vel.Z, -s.Bounds.Z, s.Bounds.Z)
	}
}

func bounce(pos, vel *float64, lo, hi float64) {
	if hi <= lo {
		return
	}
	if *pos > hi {
		*pos, *vel = 2*hi-*pos, -math.Abs(*vel)
	} else if *pos < lo {
		*pos, *vel = 2*lo-*pos, math.Abs(*vel)
	}
}

// Visible returns the targets passing the device side filters.
func (s *Scene) Visible(st *Settings) []*Target {
	var visible []*Target
	for _, t := range s.Targets {
		if st.MovingFilter == msgs.MovingObjectsOnly && !t.Moving() {
			continue
		}
		dist := t.Pos.Range()
		if dist < float64(st.DistanceMin) || dist > float64(st.DistanceMax) {
			continue
		}
		if az := t.Pos.Azimuth().Degrees(); az < float64(st.AngleMin) || az > float64(st.AngleMax) {
			continue
		}
		if t.Pos.Z < float64(st.HeightMin) || t.Pos.Z > float64(st.HeightMax) {
			continue
		}
		visible = append(visible, t)
	}
	return visible
}

// Points renders the visible targets as a point cloud. It returns
// whether points were dropped to stay within max, 0 for unlimited.
func (s *Scene) Points(st *Settings, max int) (points []msgs.Point, truncated bool) {
	perTarget := 4 << st.PointDensity
	for _, t := range s.Visible(st) {
		vel := clamp16(t.RadialVelocity())
		intensity := 60 - t.Pos.Range()/200
		for n := 0; n < perTarget; n++ {
			if max > 0 && len(points) >= max {
				return points, true
			}
			// spread points evenly on a circle around the target center
			off := AngleFromDegrees(float64(n) * 360 / float64(perTarget)).Project(t.Size)
			p := t.Pos.Add(Pos{X: off.X, Z: off.Y / 2})
			points = append(points, msgs.Point{
				X:         clamp16(p.X),
				Y:         clamp16(p.Y),
				Z:         clamp16(p.Z),
				Intensity: uint8(math.Max(1, intensity)),
				Velocity:  vel,
			})
		}
	}
	return points, false
}

// Objects renders at most max visible targets as tracked objects.
func (s *Scene) Objects(st *Settings, max int) []msgs.TrackedObject {
	var objects []msgs.TrackedObject
	for _, t := range s.Visible(st) {
		if max > 0 && len(objects) >= max {
			break
		}
		objects = append(objects, msgs.TrackedObject{
			TargetID: t.ID,
			XPos:     clamp16(t.Pos.X),
			YPos:     clamp16(t.Pos.Y),
			ZPos:     clamp16(t.Pos.Z),
			XVel:     clamp16(t.Vel.X),
			YVel:     clamp16(t.Vel.Y),
			ZVel:     clamp16(t.Vel.Z),
		})
	}
	return objects
}

func clamp16(v float64) int16 {
	return int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, math.Round(v))))
}
