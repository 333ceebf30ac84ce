package scenario

import (
	"fmt"
	"math"
	"time"

	"github.com/roman-kulish/flight-control/internal/flight"
)

// Frame is the pilot input and vehicle state for one control tick.
type Frame struct {
	Tick    int
	Time    time.Duration // since scenario start
	Segment string
	Input   flight.Input
	State   flight.State
}

// Player steps through a scenario one control tick at a time.
type Player struct {
	scenario *Scenario
	dt       time.Duration

	segment int // index of the current segment
	step    int // tick within the current segment
	steps   int // ticks in the current segment
	tick    int

	current Frame
}

// NewPlayer creates a player that advances the scenario by dt per tick. Each
// segment lasts for its duration rounded to whole ticks, at least one.
func NewPlayer(s *Scenario, dt time.Duration) (*Player, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: scenario is required", ErrInvalidScenario)
	}
	if dt <= 0 {
		return nil, fmt.Errorf("%w: tick interval must be positive: %s given", ErrInvalidScenario, dt)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	p := Player{scenario: s, dt: dt}
	p.steps = p.segmentSteps(0)
	return &p, nil
}

// Next advances to the next tick. It returns false once the scenario is over.
func (p *Player) Next() bool {
	if p.segment >= len(p.scenario.Segments) {
		return false
	}

	for p.step >= p.steps {
		p.segment++
		if p.segment >= len(p.scenario.Segments) {
			return false
		}
		p.step = 0
		p.steps = p.segmentSteps(p.segment)
	}

	seg := &p.scenario.Segments[p.segment]

	var t float64
	if p.steps > 1 {
		t = float64(p.step) / float64(p.steps-1)
	}

	in := seg.Input
	if seg.InputEnd != nil {
		in = in.lerp(*seg.InputEnd, t)
	}
	st := seg.State
	if seg.StateEnd != nil {
		st = st.lerp(*seg.StateEnd, t)
	}

	p.current = Frame{
		Tick:    p.tick,
		Time:    time.Duration(p.tick) * p.dt,
		Segment: seg.Name,
		Input:   in.toFlight(),
		State:   st.toFlight(),
	}
	p.current.Input.ModeSwitch = seg.SwitchMode && p.step == 0

	p.step++
	p.tick++
	return true
}

// Current returns the frame produced by the last successful Next.
func (p *Player) Current() Frame {
	return p.current
}

// Ticks is the total number of ticks the scenario plays for.
func (p *Player) Ticks() int {
	var n int
	for i := range p.scenario.Segments {
		n += p.segmentSteps(i)
	}
	return n
}

// DT is the tick interval in seconds.
func (p *Player) DT() float64 {
	return p.dt.Seconds()
}

func (p *Player) segmentSteps(i int) int {
	d := p.scenario.Segments[i].Duration.Duration()
	return max(1, int(math.Round(float64(d)/float64(p.dt))))
}
