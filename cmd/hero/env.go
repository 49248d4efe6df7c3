package main

import (
	"math"
	"math/rand"
)

// cartPole is the classic pole balancing control problem. The agent
// pushes a cart left or right to keep a hinged pole upright. Reward is
// 1 per step; an episode ends when the pole falls past 12 degrees, the
// cart leaves the track, or the step limit is hit.
type cartPole struct {
	state [4]float32 // x, xDot, theta, thetaDot
	steps int
	rng   *rand.Rand
}

const (
	gravity        = 9.8
	cartMass       = 1.0
	poleMass       = 0.1
	totalMass      = cartMass + poleMass
	halfPoleLength = 0.5
	forceMag       = 10.0
	tau            = 0.02

	xThreshold     = 2.4
	thetaThreshold = 12 * 2 * math.Pi / 360
	maxSteps       = 500
)

func newCartPole(rng *rand.Rand) *cartPole {
	e := &cartPole{rng: rng}
	e.Reset()
	return e
}

// Reset starts a new episode from a small uniform random state.
func (e *cartPole) Reset() []float32 {
	for i := range e.state {
		e.state[i] = float32(e.rng.Float64()*0.1 - 0.05)
	}
	e.steps = 0
	return e.Observation()
}

// Observation returns a copy of the current state.
func (e *cartPole) Observation() []float32 {
	obs := make([]float32, 4)
	copy(obs, e.state[:])
	return obs
}

// Step applies action 0 (push left) or 1 (push right) and returns the
// next observation, the reward, and whether the episode terminated.
// Hitting the step limit truncates without terminating, so the value
// estimate still bootstraps the return.
func (e *cartPole) Step(action int) (obs []float32, reward float64, terminated, truncated bool) {
	force := -forceMag
	if action == 1 {
		force = forceMag
	}

	x := float64(e.state[0])
	xDot := float64(e.state[1])
	theta := float64(e.state[2])
	thetaDot := float64(e.state[3])

	cosTheta := math.Cos(theta)
	sinTheta := math.Sin(theta)

	poleMassLength := poleMass * halfPoleLength
	temp := (force + poleMassLength*thetaDot*thetaDot*sinTheta) / totalMass
	thetaAcc := (gravity*sinTheta - cosTheta*temp) /
		(halfPoleLength * (4.0/3.0 - poleMass*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLength*thetaAcc*cosTheta/totalMass

	x += tau * xDot
	xDot += tau * xAcc
	theta += tau * thetaDot
	thetaDot += tau * thetaAcc

	e.state = [4]float32{float32(x), float32(xDot), float32(theta), float32(thetaDot)}
	e.steps++

	terminated = x < -xThreshold || x > xThreshold ||
		theta < -thetaThreshold || theta > thetaThreshold
	truncated = !terminated && e.steps >= maxSteps
	return e.Observation(), 1.0, terminated, truncated
}
