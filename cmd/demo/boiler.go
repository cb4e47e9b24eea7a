package main

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"github.com/comalice/tickfsm"
	"github.com/comalice/tickfsm/builder"
)

// BoilerState is the controller state.
type BoilerState string

const (
	Idle       BoilerState = "idle"
	Heating    BoilerState = "heating"
	Overheated BoilerState = "overheated"
	Fault      BoilerState = "fault"
)

func decodeBoilerState(s string) (BoilerState, bool) {
	switch st := BoilerState(s); st {
	case Idle, Heating, Overheated, Fault:
		return st, true
	}
	return "", false
}

const (
	EvDemand tickfsm.EventID = iota + 1
	EvReached
	EvOverheat
	EvCooled
	EvFault
)

// BoilerConfig holds the simulated plant parameters, in degrees Celsius.
type BoilerConfig struct {
	Target     float64
	Limit      float64
	Ambient    float64
	HeatRate   float64
	CoolRate   float64
	Hysteresis float64
}

// DefaultBoilerConfig returns a plant heating from 15 to 60 degrees.
func DefaultBoilerConfig() BoilerConfig {
	return BoilerConfig{Target: 60, Limit: 85, Ambient: 15, HeatRate: 2.5, CoolRate: 0.5, Hysteresis: 5}
}

// Validate checks the temperature ordering.
func (c BoilerConfig) Validate() error {
	switch {
	case c.Ambient >= c.Target:
		return fmt.Errorf("target %.1f must be above ambient %.1f", c.Target, c.Ambient)
	case c.Target >= c.Limit:
		return fmt.Errorf("limit %.1f must be above target %.1f", c.Limit, c.Target)
	case c.HeatRate <= 0 || c.CoolRate <= 0:
		return fmt.Errorf("heat and cool rates must be positive")
	}
	return nil
}

// Boiler is a periodic controller: it heats while Heating, cools otherwise,
// and raises events from its periodic work when thresholds are crossed.
type Boiler struct {
	M *tickfsm.PeriodicStateMachine[BoilerState]

	cfg      BoilerConfig
	period   time.Duration
	log      logr.Logger
	deadEnds atomic.Int64

	mu   sync.Mutex
	temp float64
}

// NewBoiler creates a stopped boiler in Idle at ambient temperature.
// The heating period comes from period or a WithConfig option; idle and
// overheated states tick four times slower.
func NewBoiler(cfg BoilerConfig, period time.Duration, log logr.Logger, opts ...tickfsm.Option) *Boiler {
	b := &Boiler{cfg: cfg, log: log.WithName("boiler"), temp: cfg.Ambient}

	def := builder.NewMachine(
		builder.NewState(Idle).
			OnEntry(b.slow).
			Every(b.cool(cfg.CoolRate, Idle)).
			On(EvDemand, Heating).
			On(EvFault, Fault),
		builder.NewState(Heating).
			OnEntry(b.fast).
			Every(b.heat).
			On(EvReached, Idle).
			On(EvOverheat, Overheated, builder.WithAction(tickfsm.Logged(b.log, "overheat", b.warnOverheat))).
			On(EvFault, Fault),
		builder.NewState(Overheated).
			OnEntry(b.slow).
			Every(b.cool(4*cfg.CoolRate, Overheated)).
			On(EvCooled, Idle).
			On(EvFault, Fault),
		builder.NewState(Fault).
			OnEntry(func() { b.M.StopTimer() }),
	).OnDeadEnd(func(err error) {
		b.deadEnds.Add(1)
		b.log.Error(err, "event ignored, boiler needs service")
	})
	if err := def.Validate(); err != nil {
		panic(err)
	}

	b.M = tickfsm.NewPeriodicStateMachine[BoilerState](Idle, period, def, opts...)
	b.period = b.M.Period()
	def.Bind(b.M)
	return b
}

// Start sets up the machine, starts delivery and runs the timer at the
// period of the current state.
func (b *Boiler) Start() {
	b.M.SetupAndStart()
	switch b.M.State() {
	case Fault:
		b.M.StopTimer()
	case Heating:
		b.fast()
	default:
		b.slow()
	}
}

// Temperature returns the simulated water temperature.
func (b *Boiler) Temperature() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.temp
}

// DeadEnds returns how many events arrived in the Fault state.
func (b *Boiler) DeadEnds() int64 { return b.deadEnds.Load() }

func (b *Boiler) fast() { b.M.ChangePeriodAndStart(b.period) }
func (b *Boiler) slow() { b.M.ChangePeriodAndStart(4 * b.period) }

func (b *Boiler) heat() {
	b.mu.Lock()
	b.temp += b.cfg.HeatRate
	t := b.temp
	b.mu.Unlock()

	switch {
	case t >= b.cfg.Limit:
		b.push(EvOverheat)
	case t >= b.cfg.Target:
		b.push(EvReached)
	}
}

func (b *Boiler) cool(rate float64, in BoilerState) tickfsm.StateFunc {
	return func() {
		b.mu.Lock()
		b.temp = max(b.cfg.Ambient, b.temp-rate)
		t := b.temp
		b.mu.Unlock()

		if in == Overheated && t < b.cfg.Target-b.cfg.Hysteresis {
			b.push(EvCooled)
		}
	}
}

func (b *Boiler) warnOverheat(tickfsm.Event) {
	b.log.Info("temperature limit exceeded", "celsius", b.Temperature(), "limit", b.cfg.Limit)
}

func (b *Boiler) push(id tickfsm.EventID) {
	if err := b.M.PushEvent(tickfsm.NewEvent(id)); err != nil {
		b.log.Error(err, "internal event lost", "event", id)
	}
}
