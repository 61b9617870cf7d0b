package main

import (
	"time"

	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/tablescene/pkg/math3d"
)

const (
	// A release later than this after the last motion does not spin.
	releaseWindow = 100 * time.Millisecond
	maxSpin       = 6.0  // radians per second
	restSpin      = 1e-3 // below this the spin stops
)

// Orbiter is rotated by a Spin. *render.Camera satisfies it.
type Orbiter interface {
	Orbit(axis math3d.Vec3, angle float64)
}

// Spin keeps the camera turning after a drag is released and decays the
// angular velocity with a spring.
type Spin struct {
	Axis     math3d.Vec3
	Velocity float64 // radians per second

	spring harmonica.Spring
	accel  float64 // internal spring velocity (for animating Velocity toward 0)

	rate     float64
	lastAxis math3d.Vec3
	lastMove time.Time
}

// NewSpin creates a spin stepped at fps frames per second.
func NewSpin(fps int) *Spin {
	return &Spin{
		// Frequency 4.0 = moderate speed, damping 1.0 = critically damped (no overshoot)
		spring: harmonica.NewSpring(harmonica.FPS(max(fps, 1)), 4.0, 1.0),
	}
}

// Track records a drag step of angle radians around axis at time now.
func (s *Spin) Track(axis math3d.Vec3, angle float64, now time.Time) {
	s.rate = 0
	if !s.lastMove.IsZero() {
		if dt := now.Sub(s.lastMove).Seconds(); dt > 0 {
			s.rate = angle / dt
		}
	}
	s.lastAxis = axis
	s.lastMove = now
}

// Release ends a drag at time now. A recent drag step becomes the spin.
func (s *Spin) Release(now time.Time) {
	if !s.lastMove.IsZero() && now.Sub(s.lastMove) <= releaseWindow && s.rate > 0 {
		s.Axis = s.lastAxis
		s.Velocity = min(s.rate, maxSpin)
		s.accel = 0
	}
	s.rate = 0
	s.lastMove = time.Time{}
}

// Stop halts the spin and forgets the drag.
func (s *Spin) Stop() {
	s.Velocity, s.accel, s.rate = 0, 0, 0
	s.lastMove = time.Time{}
}

// Spinning reports whether the spin still turns the camera.
func (s *Spin) Spinning() bool {
	return s.Velocity >= restSpin
}

// Step turns o by the spin for dt seconds and decays the velocity.
func (s *Spin) Step(o Orbiter, dt float64) {
	if !s.Spinning() {
		s.Velocity, s.accel = 0, 0
		return
	}
	o.Orbit(s.Axis, s.Velocity*dt)
	s.Velocity, s.accel = s.spring.Update(s.Velocity, s.accel, 0)
}
