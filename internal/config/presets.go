package config

import "sort"

func friction(mu float64) *float64 { return &mu }

func preset(mod func(c *Config)) *Config {
	c := DefaultConfig()
	mod(c)
	return c
}

var Presets = map[string]*Config{
	"classic": DefaultConfig(),
	"steep": preset(func(c *Config) {
		c.Anchor.Y = 9.0
	}),
	"shallow": preset(func(c *Config) {
		c.Anchor.Y = 2.5
	}),
	"heavy": preset(func(c *Config) {
		for i := range c.Bodies {
			c.Bodies[i].Mass = 3.0
		}
	}),
	"icy": preset(func(c *Config) {
		for i := range c.Bodies {
			c.Bodies[i].Friction = friction(0.001)
		}
	}),
	"bouncy": preset(func(c *Config) {
		c.Collision.Restitution = 0.9
		c.Collision.MaxRebounds = 8
	}),
	"quick": preset(func(c *Config) {
		c.Release.Delay = 0
		c.Duration = 20.0
	}),
	"duel": preset(func(c *Config) {
		c.Bodies = []BodyConfig{
			{Curve: "line", Name: "Line"},
			{Curve: "cycloid", Name: "Cycloid"},
		}
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *p
	c.Bodies = append([]BodyConfig(nil), p.Bodies...)
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
