package primitives

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// MachineConfig is the declarative runtime configuration of one machine.
//
//	id: boiler
//	capacity: 64        # or "unbounded"
//	period: 250ms
type MachineConfig struct {
	ID       string        `json:"id" yaml:"id"`
	Capacity Capacity      `json:"-" yaml:"capacity"`
	Period   time.Duration `json:"period,omitempty" yaml:"period,omitempty"`
}

// DefaultMachineConfig returns an unbounded config with a generated ID.
func DefaultMachineConfig() MachineConfig {
	return MachineConfig{ID: uuid.NewString(), Capacity: Unbounded()}
}

// Validate checks the config. Every failure wraps ErrInvalidConfig.
func (c *MachineConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: machine ID is required", ErrInvalidConfig)
	}
	if !c.Capacity.Valid() {
		return fmt.Errorf("%w: capacity must be positive, got %s", ErrInvalidConfig, c.Capacity)
	}
	if c.Period < 0 {
		return fmt.Errorf("%w: period must not be negative, got %s", ErrInvalidConfig, c.Period)
	}
	return nil
}

// ParseConfig decodes YAML from r on top of the defaults and validates the result.
// An empty document yields the defaults.
func ParseConfig(r io.Reader) (MachineConfig, error) {
	cfg := DefaultMachineConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return MachineConfig{}, fmt.Errorf("decode machine config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return MachineConfig{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (MachineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MachineConfig{}, fmt.Errorf("read %s: %w", path, err)
	}
	cfg, err := ParseConfig(bytes.NewReader(data))
	if err != nil {
		return MachineConfig{}, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}
