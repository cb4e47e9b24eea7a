package main

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"github.com/comalice/tickfsm"
)

// Options contains the command-line configuration of the demo.
type Options struct {
	ConfigFile   string           // YAML machine config; flags below override it when set.
	Name         string           // Machine name.
	Capacity     tickfsm.Capacity // Event queue capacity.
	Period       time.Duration    // Heating tick period.
	DemandEvery  time.Duration    // Interval between heat demands.
	Duration     time.Duration    // Run time, 0 runs until interrupted.
	MetricsAddr  string           // Prometheus listen address, empty disables the endpoint.
	SnapshotDir  string           // Directory for YAML snapshots, empty disables persistence.
	LogVerbosity int              // logr verbosity.
	Boiler       BoilerConfig

	fs *pflag.FlagSet
}

// NewOptions returns Options with default values.
func NewOptions() *Options {
	return &Options{
		Name:        "boiler",
		Capacity:    tickfsm.Bounded(64),
		Period:      250 * time.Millisecond,
		DemandEvery: 10 * time.Second,
		MetricsAddr: ":9090",
		Boiler:      DefaultBoilerConfig(),
	}
}

// AddFlags binds the Options fields to flags on fs, or pflag.CommandLine when nil.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	if fs == nil {
		fs = pflag.CommandLine
	}
	o.fs = fs
	fs.StringVar(&o.ConfigFile, "config", o.ConfigFile, "Path to a YAML machine config (id, capacity, period).")
	fs.StringVar(&o.Name, "name", o.Name, "Machine name used in logs, metrics and snapshots.")
	fs.Var(&o.Capacity, "capacity", `Event queue capacity, a positive integer or "unbounded".`)
	fs.DurationVar(&o.Period, "period", o.Period, "Tick period while heating.")
	fs.DurationVar(&o.DemandEvery, "demand-every", o.DemandEvery, "Interval between heat demands.")
	fs.DurationVar(&o.Duration, "duration", o.Duration, "Stop after this long; 0 runs until interrupted.")
	fs.StringVar(&o.MetricsAddr, "metrics-addr", o.MetricsAddr, "Prometheus metrics listen address; empty disables it.")
	fs.StringVar(&o.SnapshotDir, "snapshot-dir", o.SnapshotDir, "Directory for state snapshots; empty disables persistence.")
	fs.IntVarP(&o.LogVerbosity, "v", "v", o.LogVerbosity, "Log verbosity: 1 lifecycle, 2 every event.")
	fs.Float64Var(&o.Boiler.Target, "target", o.Boiler.Target, "Target water temperature.")
	fs.Float64Var(&o.Boiler.Limit, "limit", o.Boiler.Limit, "Overheat limit.")
}

// MachineConfig resolves the machine config from the file and explicit flags.
func (o *Options) MachineConfig() (tickfsm.MachineConfig, error) {
	cfg := tickfsm.MachineConfig{ID: o.Name, Capacity: o.Capacity, Period: o.Period}
	if o.ConfigFile != "" {
		fromFile, err := tickfsm.LoadConfig(o.ConfigFile)
		if err != nil {
			return tickfsm.MachineConfig{}, err
		}
		if o.fs == nil || !o.fs.Changed("name") {
			cfg.ID = fromFile.ID
		}
		if o.fs == nil || !o.fs.Changed("capacity") {
			cfg.Capacity = fromFile.Capacity
		}
		if fromFile.Period > 0 && (o.fs == nil || !o.fs.Changed("period")) {
			cfg.Period = fromFile.Period
		}
	}
	if err := cfg.Validate(); err != nil {
		return tickfsm.MachineConfig{}, err
	}
	return cfg, nil
}

// Validate checks values that flags alone cannot constrain.
func (o *Options) Validate() error {
	var errs error
	if o.Period <= 0 {
		errs = multierr.Append(errs, errors.New("--period must be positive"))
	}
	if o.DemandEvery <= 0 {
		errs = multierr.Append(errs, errors.New("--demand-every must be positive"))
	}
	if o.Duration < 0 {
		errs = multierr.Append(errs, errors.New("--duration must not be negative"))
	}
	return multierr.Append(errs, o.Boiler.Validate())
}
