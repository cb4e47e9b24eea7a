package main

import (
	"testing"
	"time"

	"github.com/go-logr/logr/testr"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/tickfsm"
	"github.com/comalice/tickfsm/testutil"
)

type hop struct{ From, To string }

func startBoiler(t *testing.T, cfg BoilerConfig) (*Boiler, <-chan tickfsm.TransitionRecord) {
	t.Helper()
	records := make(chan tickfsm.TransitionRecord, 32)
	b := NewBoiler(cfg, time.Millisecond, testr.New(t),
		tickfsm.WithName(t.Name()),
		tickfsm.WithPublisher(tickfsm.NewChannelPublisher(records)))
	b.Start()
	t.Cleanup(b.M.Stop)
	return b, records
}

func collectHops(t *testing.T, records <-chan tickfsm.TransitionRecord, n int) []hop {
	t.Helper()
	var hops []hop
	timeout := time.After(2 * time.Second)
	for len(hops) < n {
		select {
		case rec := <-records:
			hops = append(hops, hop{rec.From, rec.To})
		case <-timeout:
			t.Fatalf("got %d of %d transitions: %v", len(hops), n, hops)
		}
	}
	return hops
}

func TestBoilerHeatsToTarget(t *testing.T) {
	cfg := DefaultBoilerConfig()
	b, records := startBoiler(t, cfg)

	require.NoError(t, b.M.PushEvent(tickfsm.NewEvent(EvDemand)))

	want := []hop{{"idle", "heating"}, {"heating", "idle"}}
	if diff := cmp.Diff(want, collectHops(t, records, 2)); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4*time.Millisecond, b.M.Period())
	assert.Less(t, b.Temperature(), cfg.Limit)
}

func TestBoilerOverheatCoolsDown(t *testing.T) {
	cfg := BoilerConfig{Target: 40, Limit: 44, Ambient: 15, HeatRate: 30, CoolRate: 5, Hysteresis: 5}
	b, records := startBoiler(t, cfg)

	require.NoError(t, b.M.PushEvent(tickfsm.NewEvent(EvDemand)))

	want := []hop{{"idle", "heating"}, {"heating", "overheated"}, {"overheated", "idle"}}
	if diff := cmp.Diff(want, collectHops(t, records, 3)); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}
	assert.Less(t, b.Temperature(), cfg.Target-cfg.Hysteresis)
}

func TestBoilerFaultIsDeadEnd(t *testing.T) {
	b, _ := startBoiler(t, DefaultBoilerConfig())

	testutil.NewDriver[BoilerState](t, b.M).Send(EvFault).WaitState(Fault)
	testutil.WaitFor(t, func() bool { return !b.M.TimerStarted() })

	d := testutil.NewDriver[BoilerState](t, b.M)
	d.Send(EvDemand, EvCooled)
	testutil.WaitFor(t, func() bool { return b.DeadEnds() == 2 })
	assert.Equal(t, Fault, b.M.State())
	assert.False(t, b.M.TimerStarted())
}

func TestBoilerStartResumesTimerForState(t *testing.T) {
	b := NewBoiler(DefaultBoilerConfig(), 10*time.Millisecond, testr.New(t))
	b.M.SetState(Heating)
	b.Start()
	t.Cleanup(b.M.Stop)

	assert.True(t, b.M.TimerStarted())
	assert.Equal(t, 10*time.Millisecond, b.M.Period())
}

func TestBoilerConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*BoilerConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*BoilerConfig) {}},
		{name: "target below ambient", mutate: func(c *BoilerConfig) { c.Target = 10 }, wantErr: true},
		{name: "limit below target", mutate: func(c *BoilerConfig) { c.Limit = 50 }, wantErr: true},
		{name: "zero heat rate", mutate: func(c *BoilerConfig) { c.HeatRate = 0 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultBoilerConfig()
			tt.mutate(&cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestDecodeBoilerState(t *testing.T) {
	s, ok := decodeBoilerState("overheated")
	assert.True(t, ok)
	assert.Equal(t, Overheated, s)

	_, ok = decodeBoilerState("melted")
	assert.False(t, ok)
}
