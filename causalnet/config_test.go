package causal

import (
	"testing"

	"gorgonia.org/tensor"
)

func TestDefaultConfig(t *testing.T) {
	if !DefaultConf(3, 64).IsValid() {
		t.Errorf("Expected Default Config to be correct")
	}
}

var brokenConfs = []struct {
	name   string
	mutate func(*Config)
}{
	{"window does not reduce to 1", func(c *Config) { c.Window = 6 }},
	{"window reduces past 1", func(c *Config) { c.Window = 16 }},
	{"height not divisible by the pooling schedule", func(c *Config) { c.Height = 10 }},
	{"width not divisible by the pooling schedule", func(c *Config) { c.Width = 12 }},
	{"time kernel with no usable taps", func(c *Config) { c.TimeKernel = 1 }},
	{"even spatial kernel", func(c *Config) { c.SpaceKernel = 2 }},
	{"no channels", func(c *Config) { c.InChannels = 0 }},
	{"too few resolutions", func(c *Config) { c.Widths = []int{64} }},
	{"zero batch", func(c *Config) { c.BatchSize = 0 }},
	{"unsupported dtype", func(c *Config) { c.Dtype = tensor.Float64 }},
}

func TestBrokenConfigs(t *testing.T) {
	for _, c := range brokenConfs {
		conf := DefaultConf(3, 64)
		c.mutate(&conf)
		if err := conf.check(); err == nil {
			t.Errorf("%v: expected a construction error", c.name)
		} else {
			t.Logf("%v: %v", c.name, err)
		}
	}
}
