package cascade

import (
	"fmt"
	"math"

	"github.com/roman-kulish/flight-control/internal/flight"
	"github.com/roman-kulish/flight-control/internal/pid"
)

// DefaultHoverThrottle is the throttle bias the altitude loop corrects around.
const DefaultHoverThrottle = 0.3

// AltitudeController holds a climb rate commanded by the throttle stick.
type AltitudeController struct {
	climb         *pid.Controller
	maxClimbSpeed float64
	hoverThrottle float64
}

func NewAltitudeController(config *pid.Config, maxClimbSpeed, hoverThrottle float64) (*AltitudeController, error) {
	if !(maxClimbSpeed > 0) || math.IsInf(maxClimbSpeed, 0) {
		return nil, fmt.Errorf("altitude: max climb speed must be positive: %v given", maxClimbSpeed)
	}
	if !(hoverThrottle >= 0 && hoverThrottle <= 1) {
		return nil, fmt.Errorf("altitude: hover throttle must be within [0, 1]: %v given", hoverThrottle)
	}

	climb, err := pid.New(config)
	if err != nil {
		return nil, fmt.Errorf("altitude: %w", err)
	}

	return &AltitudeController{
		climb:         climb,
		maxClimbSpeed: maxClimbSpeed,
		hoverThrottle: hoverThrottle,
	}, nil
}

// Throttle maps the stick to a target climb rate and returns the throttle
// fraction, in [0, 1], needed to reach it.
func (ac *AltitudeController) Throttle(stick, verticalVelocity, dt float64) float64 {
	targetVelocity := stick * ac.maxClimbSpeed
	correction := ac.climb.Compute(targetVelocity-verticalVelocity, dt)

	return flight.Clamp01(ac.hoverThrottle + correction)
}

func (ac *AltitudeController) Reset() {
	ac.climb.Reset()
}
