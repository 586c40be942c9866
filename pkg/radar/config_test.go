package radar

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/radariq.go/pkg/msgs"
)

func TestFieldOf(t *testing.T) {
	for f := FieldFrameRate; f < numFields; f++ {
		got, ok := FieldOf(f.Command())
		require.True(t, ok)
		require.Equal(t, f, got)
	}
	_, ok := FieldOf(msgs.CmdVersion)
	require.False(t, ok)
}

func TestConfigDescribe(t *testing.T) {
	var c Config
	require.Equal(t, "unknown", c.Describe(FieldAngleFilter))
	require.ErrorIs(t, c.Check(FieldAngleFilter), ErrUnknownValue)

	f, ok := c.commit(msgs.SetAngleFilter{Min: -20, Max: 35})
	require.True(t, ok)
	require.Equal(t, FieldAngleFilter, f)
	require.NoError(t, c.Check(f))
	require.Equal(t, "-20..35 deg", c.Describe(f))

	c.apply(msgs.Mode{Mode: msgs.ModeObjectTracking})
	require.Equal(t, "OBJECT_TRACKING", c.Describe(FieldMode))
	c.apply(msgs.FrameRate{Rate: 12})
	require.Equal(t, "12 fps", c.Describe(FieldFrameRate))
}
