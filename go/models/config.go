package models

import (
	"github.com/hashicorp/go-hclog"
)

type Config struct {
	Logger        hclog.Logger
	TraceSyscalls bool
	Verbose       bool

	// simulated process layout reported through memop
	MemoryStart uint32
	MemorySize  uint32
	HeapStart   uint32
	FlashStart  uint32
	FlashSize   uint32
	GrantSize   uint32
}

func DefaultConfig() *Config {
	return &Config{
		MemoryStart: 0x20000000,
		MemorySize:  0x10000,
		HeapStart:   0x20004000,
		FlashStart:  0x00040000,
		FlashSize:   0x20000,
		GrantSize:   0x1000,
	}
}

// Init fills unset fields with defaults.
func (c *Config) Init() *Config {
	def := DefaultConfig()
	if c.MemorySize == 0 {
		c.MemoryStart, c.MemorySize = def.MemoryStart, def.MemorySize
	}
	if c.HeapStart == 0 || c.HeapStart < c.MemoryStart || c.HeapStart > c.MemoryEnd() {
		c.HeapStart = c.MemoryStart
	}
	if c.FlashSize == 0 {
		c.FlashStart, c.FlashSize = def.FlashStart, def.FlashSize
	}
	if c.GrantSize == 0 || c.GrantSize > c.MemorySize {
		c.GrantSize = def.GrantSize
		if c.GrantSize > c.MemorySize {
			c.GrantSize = 0
		}
	}
	if c.Logger == nil {
		if c.TraceSyscalls || c.Verbose {
			level := hclog.Debug
			if c.TraceSyscalls {
				level = hclog.Trace
			}
			c.Logger = hclog.New(&hclog.LoggerOptions{Name: "tockcorn", Level: level})
		} else {
			c.Logger = hclog.NewNullLogger()
		}
	}
	return c
}

func (c *Config) MemoryEnd() uint32 {
	return c.MemoryStart + c.MemorySize
}

func (c *Config) FlashEnd() uint32 {
	return c.FlashStart + c.FlashSize
}

// GrantStart is where kernel-owned grant memory begins, at the top of the
// process's memory window.
func (c *Config) GrantStart() uint32 {
	return c.MemoryEnd() - c.GrantSize
}
