// Package config is the top-level configuration for gridwatch. It defines
// how to create each of the (configurable) dependencies and wires them into
// a running poller.
package config

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/sgescale/gridwatch/sge"
	"github.com/sgescale/gridwatch/stats"
	"github.com/sgescale/gridwatch/watcher"
)

type Config struct {
	Sge    SgeConfig
	Fleet  FleetConfig
	Poll   PollConfig
	Report ReportConfig
}

// SgeConfig configures the scheduler command adapters.
type SgeConfig struct {
	NodeInfoCommand string
	JobInfoCommand  string
	Separator       string
	TimeoutMs       int
	MaxRetries      int
	RatePerSec      float64
}

// FleetConfig describes the elastic fleet being planned for.
type FleetConfig struct {
	SlotsPerNode int
	MaxSize      int
}

type PollConfig struct {
	IntervalMs int
}

type ReportConfig struct {
	// ControllerUrl, when set, is where decisions are published. Empty means
	// decisions are only logged.
	ControllerUrl string
}

func DefaultConfig() *Config {
	return &Config{
		Sge: SgeConfig{
			NodeInfoCommand: sge.DefaultNodeInfoCommand,
			JobInfoCommand:  sge.DefaultJobInfoCommand,
			Separator:       sge.DefaultSeparator,
			TimeoutMs:       int(sge.DefaultCommandTimeout / time.Millisecond),
			MaxRetries:      sge.DefaultMaxRetries,
			RatePerSec:      1,
		},
		Fleet: FleetConfig{SlotsPerNode: 4, MaxSize: 10},
		Poll:  PollConfig{IntervalMs: 60000},
	}
}

// Parse unmarshals text over the defaults, so callers only specify what they
// want to change.
func Parse(text []byte) (*Config, error) {
	c := DefaultConfig()
	if len(text) > 0 {
		if err := json.Unmarshal(text, c); err != nil {
			return nil, errors.Wrap(err, "parsing config")
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.Fleet.SlotsPerNode <= 0 {
		return errors.Errorf("Fleet.SlotsPerNode must be positive, got %d", c.Fleet.SlotsPerNode)
	}
	if c.Fleet.MaxSize <= 0 {
		return errors.Errorf("Fleet.MaxSize must be positive, got %d", c.Fleet.MaxSize)
	}
	if c.Poll.IntervalMs <= 0 {
		return errors.Errorf("Poll.IntervalMs must be positive, got %d", c.Poll.IntervalMs)
	}
	return nil
}

// CreateWatcher builds the scheduler client and watcher this config describes.
func (c *Config) CreateWatcher(stat stats.StatsReceiver) *watcher.Watcher {
	runner := sge.NewExecRunner(
		time.Duration(c.Sge.TimeoutMs)*time.Millisecond,
		uint64(c.Sge.MaxRetries),
		c.Sge.RatePerSec)
	client := sge.NewClient(runner, c.Sge.NodeInfoCommand, c.Sge.JobInfoCommand, c.Sge.Separator)
	return watcher.New(client, client, c.Fleet.SlotsPerNode, c.Fleet.MaxSize, stat)
}

// CreatePoller builds a poller running the configured watcher on the
// configured cadence.
func (c *Config) CreatePoller(stat stats.StatsReceiver) *watcher.Poller {
	w := c.CreateWatcher(stat)
	return watcher.NewPoller(w, time.Duration(c.Poll.IntervalMs)*time.Millisecond)
}
