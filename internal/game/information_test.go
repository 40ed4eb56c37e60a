package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate_UnknownDefaultsToMidpoint(t *testing.T) {
	var info InformationState

	pos := info.EstimatePosition(6)
	assert.Equal(t, 5.0, pos.Center)
	assert.Equal(t, 5.0, pos.Radius)

	res := info.EstimateResources(1)
	assert.Equal(t, 5.0, res.Center)
	assert.Equal(t, 5.0, res.Radius)
}

func TestEstimate_UncertaintyGrowsLinearlyAndCaps(t *testing.T) {
	var info InformationState
	info.observePosition(7.0, 4)

	fresh := info.EstimatePosition(4)
	assert.Equal(t, 7.0, fresh.Center)
	assert.Zero(t, fresh.Radius)
	assert.InDelta(t, 0.8, info.EstimatePosition(5).Radius, 1e-9)
	assert.InDelta(t, 2.4, info.EstimatePosition(7).Radius, 1e-9)

	// Seven turns out the linear decay would exceed the half-range cap.
	assert.Equal(t, Estimate{Center: 7.0, Radius: 5.0}, info.EstimatePosition(11))
	assert.Equal(t, Estimate{Center: 7.0, Radius: 5.0}, info.EstimatePosition(100))
}

func TestEstimate_FreshObservationResetsRadius(t *testing.T) {
	var info InformationState
	info.observeResources(3.0, 2)
	assert.InDelta(t, 4.0, info.EstimateResources(7).Radius, 1e-9)

	info.observeResources(2.5, 7)
	est := info.EstimateResources(7)
	assert.Equal(t, 2.5, est.Center)
	assert.Equal(t, 0.0, est.Radius, "a fresh observation is the only way uncertainty shrinks")
}

func TestInformationState_CloneIsDeep(t *testing.T) {
	var info InformationState
	info.observePosition(6.0, 3)

	c := info.clone()
	c.Position.Value = 1.0
	assert.Equal(t, 6.0, info.Position.Value)
	assert.Nil(t, c.Resources)
}
