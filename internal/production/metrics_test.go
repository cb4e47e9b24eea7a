package production

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/tickfsm/internal/core"
	"github.com/comalice/tickfsm/internal/primitives"
)

func TestMetricsRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics()
	require.NoError(t, m.Register(reg))
	// Registering twice reports one error per collector.
	err := m.Register(reg)
	require.Error(t, err)
	assert.Equal(t, 3, strings.Count(err.Error(), "duplicate"))
}

func TestMetricsObserve(t *testing.T) {
	m := NewMetrics()
	m.ObserveEvent("pump", 3, core.OutcomeQueued)
	m.ObserveEvent("pump", 3, core.OutcomeQueued)
	m.ObserveEvent("pump", 3, core.OutcomeDropped)
	m.ObserveProcessing("pump", time.Millisecond)
	m.ObserveTick("pump", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues("pump", "3", "queued")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("pump", "3", "dropped")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.processing))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ticks))
}

type valveDef struct{ m *core.StateMachine[string] }

func (d *valveDef) SetupTransitions(t core.TransitionTable[string]) {
	t.Add("shut", 1, func(primitives.Event) { d.m.SetState("open") })
	t["open"] = core.EventTable{}
}

func (d *valveDef) OnDeadEndState(error) {}

func TestMetricsWithMachine(t *testing.T) {
	m := NewMetrics()
	def := &valveDef{}
	def.m = core.NewStateMachine[string]("shut", def, core.WithName("valve"), core.WithObserver(m))
	require.NoError(t, def.m.PushEvent(primitives.NewEvent(1))) // dropped
	def.m.SetupAndStart()
	defer def.m.Stop()

	require.NoError(t, def.m.PushEvent(primitives.NewEvent(1)))
	require.NoError(t, def.m.PushEvent(primitives.NewEvent(1))) // ignored in open
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.events.WithLabelValues("valve", "1", "ignored")) == 1
	}, time.Second, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("valve", "1", "dropped")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues("valve", "1", "queued")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("valve", "1", "transitioned")))
}
