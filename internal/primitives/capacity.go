package primitives

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Capacity is the maximum element count of a Queue, or unbounded.
// The zero value is unbounded.
type Capacity struct {
	n       int
	bounded bool
}

// Unbounded returns a capacity without limit.
func Unbounded() Capacity { return Capacity{} }

// Bounded returns a capacity of n elements. n must be positive, see Valid.
func Bounded(n int) Capacity { return Capacity{n: n, bounded: true} }

// Limit returns the element limit and whether one applies.
func (c Capacity) Limit() (int, bool) { return c.n, c.bounded }

// IsUnbounded reports whether no limit applies.
func (c Capacity) IsUnbounded() bool { return !c.bounded }

// Valid reports whether c may back a queue.
func (c Capacity) Valid() bool { return !c.bounded || c.n > 0 }

func (c Capacity) String() string {
	if !c.bounded {
		return "unbounded"
	}
	return strconv.Itoa(c.n)
}

// ParseCapacity accepts "unbounded" (or the empty string) and positive integers.
func ParseCapacity(s string) (Capacity, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "unbounded") {
		return Unbounded(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Capacity{}, fmt.Errorf("%w: capacity %q: %v", ErrInvalidConfig, s, err)
	}
	if n <= 0 {
		return Capacity{}, fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, n)
	}
	return Bounded(n), nil
}

// MarshalYAML implements yaml.Marshaler.
func (c Capacity) MarshalYAML() (any, error) {
	if !c.bounded {
		return "unbounded", nil
	}
	return c.n, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Capacity) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: capacity must be a scalar (line %d)", ErrInvalidConfig, node.Line)
	}
	parsed, err := ParseCapacity(node.Value)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Set implements pflag.Value so a capacity can be bound to a command-line flag.
func (c *Capacity) Set(s string) error {
	parsed, err := ParseCapacity(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Type implements pflag.Value.
func (c *Capacity) Type() string { return "capacity" }
