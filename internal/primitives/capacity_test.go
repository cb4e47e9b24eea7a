package primitives

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCapacity(t *testing.T) {
	var zero Capacity
	assert.True(t, zero.IsUnbounded())
	assert.True(t, zero.Valid())

	n, ok := Bounded(3).Limit()
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	assert.False(t, Bounded(0).Valid())
	assert.False(t, Bounded(-1).Valid())
	assert.Equal(t, "unbounded", Unbounded().String())
	assert.Equal(t, "3", Bounded(3).String())
}

func TestParseCapacity(t *testing.T) {
	tests := []struct {
		in      string
		want    Capacity
		wantErr bool
	}{
		{in: "", want: Unbounded()},
		{in: "unbounded", want: Unbounded()},
		{in: " Unbounded ", want: Unbounded()},
		{in: "16", want: Bounded(16)},
		{in: "0", wantErr: true},
		{in: "-4", wantErr: true},
		{in: "many", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCapacity(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCapacityYAML(t *testing.T) {
	var doc struct {
		A Capacity `yaml:"a"`
		B Capacity `yaml:"b"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: unbounded\nb: 8\n"), &doc))
	assert.True(t, doc.A.IsUnbounded())
	assert.Equal(t, Bounded(8), doc.B)

	out, err := yaml.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, "a: unbounded\nb: 8\n", string(out))

	require.Error(t, yaml.Unmarshal([]byte("a: [1]\n"), &doc))
}

func TestCapacityFlagValue(t *testing.T) {
	var c Capacity
	require.NoError(t, c.Set("32"))
	assert.Equal(t, Bounded(32), c)
	assert.Equal(t, "capacity", c.Type())
	require.Error(t, c.Set("nope"))
	assert.Equal(t, Bounded(32), c)
}
