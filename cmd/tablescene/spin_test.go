package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/tablescene/pkg/math3d"
)

type recordingOrbiter struct {
	axes   []math3d.Vec3
	angles []float64
}

func (o *recordingOrbiter) Orbit(axis math3d.Vec3, angle float64) {
	o.axes = append(o.axes, axis)
	o.angles = append(o.angles, angle)
}

func dragSteps(s *Spin, start time.Time) time.Time {
	up := math3d.V3(0, 1, 0)
	now := start
	for range 3 {
		s.Track(up, 0.05, now)
		now = now.Add(50 * time.Millisecond)
	}
	return now.Add(-50 * time.Millisecond)
}

func TestSpinReleaseDecaysToRest(t *testing.T) {
	s := NewSpin(30)
	last := dragSteps(s, time.Unix(0, 0))
	s.Release(last.Add(10 * time.Millisecond))

	require.True(t, s.Spinning())
	assert.InDelta(t, 1.0, s.Velocity, 1e-9) // 0.05 rad per 50ms

	o := &recordingOrbiter{}
	for range 300 {
		s.Step(o, 1.0/30)
	}
	require.NotEmpty(t, o.angles)
	assert.False(t, s.Spinning())
	assert.Zero(t, s.Velocity)

	for i, a := range o.angles {
		assert.Greater(t, a, 0.0)
		assert.Equal(t, math3d.V3(0, 1, 0), o.axes[i])
		if i > 0 {
			assert.LessOrEqual(t, a, o.angles[i-1]+1e-12, "step %d", i)
		}
	}
}

func TestSpinStaleReleaseDoesNotSpin(t *testing.T) {
	s := NewSpin(30)
	last := dragSteps(s, time.Unix(0, 0))
	s.Release(last.Add(time.Second))

	assert.False(t, s.Spinning())
	o := &recordingOrbiter{}
	s.Step(o, 1.0/30)
	assert.Empty(t, o.angles)
}

func TestSpinSingleStepHasNoRate(t *testing.T) {
	s := NewSpin(30)
	now := time.Unix(0, 0)
	s.Track(math3d.V3(1, 0, 0), 0.2, now)
	s.Release(now)
	assert.False(t, s.Spinning())
}

func TestSpinClampsAndStops(t *testing.T) {
	s := NewSpin(30)
	now := time.Unix(0, 0)
	s.Track(math3d.V3(1, 0, 0), 0.1, now)
	s.Track(math3d.V3(1, 0, 0), 0.5, now.Add(time.Millisecond))
	s.Release(now.Add(2 * time.Millisecond))
	assert.Equal(t, maxSpin, s.Velocity)

	s.Stop()
	assert.False(t, s.Spinning())
	o := &recordingOrbiter{}
	s.Step(o, 1.0/30)
	assert.Empty(t, o.angles)
}
