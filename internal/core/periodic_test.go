package core

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/comalice/tickfsm/internal/primitives"
)

type phase int

const (
	phaseA phase = iota
	phaseB
	phaseC // no periodic work
)

const (
	evToB primitives.EventID = iota + 1
	evToA
	evToC
	evFast
	evSlow
)

type abMachine struct {
	m        *PeriodicStateMachine[phase]
	ticksA   atomic.Int32
	ticksB   atomic.Int32
	funcSets atomic.Int32
}

func newABMachine(period time.Duration, opts ...Option) *abMachine {
	ab := &abMachine{}
	ab.m = NewPeriodicStateMachine[phase](phaseA, period, ab, opts...)
	return ab
}

func (ab *abMachine) SetupStateFunctions(t StateFunctionTable[phase]) {
	ab.funcSets.Add(1)
	t[phaseA] = func() { ab.ticksA.Add(1) }
	t[phaseB] = func() { ab.ticksB.Add(1) }
}

func (ab *abMachine) SetupTransitions(t TransitionTable[phase]) {
	t.Add(phaseA, evToB, func(primitives.Event) {
		ab.m.SetState(phaseB)
		ab.m.StartTimer()
	})
	t.Add(phaseB, evToA, func(primitives.Event) {
		ab.m.StopTimer()
		ab.m.SetState(phaseA)
	})
	t.Add(phaseB, evToC, func(primitives.Event) { ab.m.SetState(phaseC) })
	t.Add(phaseB, evFast, func(primitives.Event) { ab.m.ChangePeriodAndStart(ab.m.Period() / 2) })
	t.Add(phaseB, evSlow, func(primitives.Event) { ab.m.ChangePeriodAndStop(ab.m.Period() * 2) })
	t[phaseC] = EventTable{}
}

func (ab *abMachine) OnDeadEndState(error) {}

func TestPeriodicStateMachineScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("wall-clock test")
	}
	ab := newABMachine(20 * time.Millisecond)
	ab.m.SetupAndStart()
	defer ab.m.Stop()

	require.NoError(t, ab.m.PushEvent(primitives.NewEvent(evToB)))
	time.Sleep(210 * time.Millisecond)
	require.NoError(t, ab.m.PushEvent(primitives.NewEvent(evToA)))
	require.Eventually(t, func() bool { return ab.m.State() == phaseA }, time.Second, time.Millisecond)

	b := ab.ticksB.Load()
	assert.GreaterOrEqual(t, b, int32(9))
	assert.LessOrEqual(t, b, int32(11))
	assert.Zero(t, ab.ticksA.Load())

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, b, ab.ticksB.Load())
	assert.Zero(t, ab.ticksA.Load())
}

func TestPeriodicStateMachineTimerNotStartedBySetup(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	ab := newABMachine(time.Second, WithClock(clk))
	ab.m.SetupAndStart()
	defer ab.m.Stop()

	assert.False(t, ab.m.TimerStarted())
	assert.False(t, clk.HasWaiters())
	assert.EqualValues(t, 1, ab.funcSets.Load())
}

func TestPeriodicStateMachineNoFunctionIsNoop(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	obs := newRecordingObserver()
	ab := newABMachine(100*time.Millisecond, WithClock(clk), WithObserver(obs))
	ab.m.SetupAndStart()
	defer ab.m.Stop()

	require.NoError(t, ab.m.PushEvent(primitives.NewEvent(evToB)))
	require.NoError(t, ab.m.PushEvent(primitives.NewEvent(evToC)))
	require.Eventually(t, func() bool { return ab.m.State() == phaseC }, time.Second, time.Millisecond)
	require.True(t, ab.m.TimerStarted())

	for range 3 {
		require.Eventually(t, clk.HasWaiters, time.Second, time.Millisecond)
		clk.Step(100 * time.Millisecond)
	}
	require.Eventually(t, clk.HasWaiters, time.Second, time.Millisecond)
	assert.Zero(t, ab.ticksA.Load())
	assert.Zero(t, ab.ticksB.Load())
	assert.True(t, ab.m.TimerStarted())
}

func TestPeriodicStateMachineChangePeriod(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	ab := newABMachine(100*time.Millisecond, WithClock(clk))
	ab.m.SetupAndStart()
	defer ab.m.Stop()

	require.NoError(t, ab.m.PushEvent(primitives.NewEvent(evToB)))
	require.Eventually(t, ab.m.TimerStarted, time.Second, time.Millisecond)

	require.NoError(t, ab.m.PushEvent(primitives.NewEvent(evFast)))
	require.Eventually(t, func() bool {
		return ab.m.Period() == 50*time.Millisecond && ab.m.TimerStarted()
	}, time.Second, time.Millisecond)

	require.Eventually(t, clk.HasWaiters, time.Second, time.Millisecond)
	clk.Step(50 * time.Millisecond)
	require.Eventually(t, func() bool { return ab.ticksB.Load() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, ab.m.PushEvent(primitives.NewEvent(evSlow)))
	require.Eventually(t, func() bool { return ab.m.Period() == 100*time.Millisecond }, time.Second, time.Millisecond)
	assert.False(t, ab.m.TimerStarted())

	clk.Step(time.Second)
	assert.EqualValues(t, 1, ab.ticksB.Load())
}

func TestPeriodicStateMachineStopStopsTimer(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	ab := newABMachine(10*time.Millisecond, WithClock(clk))
	ab.m.SetupAndStart()

	require.NoError(t, ab.m.PushEvent(primitives.NewEvent(evToB)))
	require.Eventually(t, ab.m.TimerStarted, time.Second, time.Millisecond)

	ab.m.Stop()
	assert.False(t, ab.m.Running())
	assert.False(t, ab.m.TimerStarted())
	assert.False(t, clk.HasWaiters())
	ab.m.Stop()
}

func TestPeriodicStateMachineConfigPeriod(t *testing.T) {
	cfg := primitives.MachineConfig{ID: "cfg", Capacity: primitives.Bounded(8), Period: 40 * time.Millisecond}
	ab := newABMachine(time.Second, WithConfig(cfg))
	assert.Equal(t, 40*time.Millisecond, ab.m.Period())
	assert.Equal(t, "cfg", ab.m.Name())
}

func TestPeriodicStateMachineSnapshotRoundTrip(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	per := &memPersister{}
	ab := newABMachine(100*time.Millisecond, WithClock(clk), WithName("ab"), WithPersister(per))
	ab.m.SetupAndStart()

	require.NoError(t, ab.m.PushEvent(primitives.NewEvent(evToB)))
	require.NoError(t, ab.m.PushEvent(primitives.NewEvent(evSlow)))
	require.Eventually(t, func() bool { return ab.m.Period() == 200*time.Millisecond }, time.Second, time.Millisecond)
	ab.m.Stop()

	snap, err := per.Load(context.Background(), "ab")
	require.NoError(t, err)
	assert.Equal(t, "1", snap.State)
	assert.Equal(t, 200*time.Millisecond, snap.Period)
	assert.False(t, snap.TimerStarted)

	decode := func(s string) (phase, bool) {
		switch s {
		case "0":
			return phaseA, true
		case "1":
			return phaseB, true
		case "2":
			return phaseC, true
		}
		return 0, false
	}
	snap.TimerStarted = true
	restored := newABMachine(100*time.Millisecond, WithClock(clk), WithName("ab"))
	require.NoError(t, restored.m.Restore(snap, decode))
	defer restored.m.Stop()
	assert.Equal(t, phaseB, restored.m.State())
	assert.Equal(t, 200*time.Millisecond, restored.m.Period())
	assert.True(t, restored.m.TimerStarted())
}
