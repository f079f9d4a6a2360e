package node

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigFile = `
node_id = "bench-a"
mode = "leader"
link = "tcp://10.0.0.2:4000"
hw = "sim"
adc_channel = 0
interval = "50ms"
rc_settle = "oops"
clamp = true
wrap_threshold = 0
`

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "pwmlink.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestApplyFileConfig(t *testing.T) {
	fc, err := LoadFileConfig(writeConfig(t, testConfigFile))
	require.NoError(t, err)

	c := NewConfig()
	err = ApplyFileConfig(c, fc, map[string]bool{"mode": true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rc-settle")

	fc.RCSettle = "30ms"
	c = NewConfig()
	c.Mode = string(ModeFollower)
	c.Interval = 10 * time.Millisecond
	require.NoError(t, ApplyFileConfig(c, fc, map[string]bool{"mode": true, "interval": true}))
	assert.Equal(t, "bench-a", c.NodeID)
	assert.Equal(t, string(ModeFollower), c.Mode)
	assert.Equal(t, "tcp://10.0.0.2:4000", c.LinkURL)
	assert.Equal(t, HardwareSim, c.Hardware)
	assert.Equal(t, 0, c.ADCChannel)
	assert.Equal(t, 10*time.Millisecond, c.Interval)
	assert.Equal(t, 30*time.Millisecond, c.RCSettle)
	assert.True(t, c.Clamp)
	assert.Equal(t, 0, c.WrapThreshold)
	assert.Equal(t, DefaultSupply, c.Supply)
}

func TestLoadFileConfigMissing(t *testing.T) {
	_, err := LoadFileConfig(filepath.Join(t.TempDir(), "none.toml"))
	assert.Error(t, err)
}

func TestConfigNewNode(t *testing.T) {
	c := NewConfig()
	c.NodeID = "sim-a"
	c.Hardware = HardwareSim
	c.LinkURL = "pipe://config-test"
	c.ReceiveFirst = true
	c.Interval = 20 * time.Millisecond
	c.WrapThreshold = 0
	n, err := c.NewNode()
	require.NoError(t, err)
	defer n.Close()

	assert.Equal(t, "sim-a", n.ID)
	assert.Equal(t, ModeSequenced, n.Mode)
	assert.Equal(t, 20*time.Millisecond, n.Timing.Interval)
	assert.Equal(t, 50*time.Millisecond, n.Timing.RCSettle)
	assert.Equal(t, 20*time.Millisecond, n.HW.ADC.SettleTime())
	assert.Equal(t, "triangle:50:-1", n.Schedule.String())
	assert.Equal(t, 0, n.Sequencer.Gate.WrapThreshold)
	assert.IsType(t, &Sequenced{}, n.Controller())
	assert.Len(t, n.Runnables, 1)

	c.Mode = "chaos"
	_, err = c.NewNode()
	assert.Error(t, err)

	c.Mode, c.Hardware = string(ModeLeader), "fpga"
	_, err = c.NewNode()
	assert.Error(t, err)
}
