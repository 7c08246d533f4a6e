// Package config holds the runtime settings of streamwatch.
package config

import (
	"errors"
	"fmt"
	"time"

	"streamwatch/internal/tshark"
)

// Settings is filled from command line flags.
type Settings struct {
	Interface string `json:"interface"`
	Tshark    string `json:"tshark"`
	Filter    string `json:"filter"`

	PollInterval time.Duration `json:"poll-interval"`
	BatchSize    int           `json:"batch-size"`
	StopTimeout  time.Duration `json:"stop-timeout"`

	// Refresh is how often the dashboard redraws.
	Refresh time.Duration `json:"refresh"`

	LogLevel string `json:"log-level"`
	LogFile  string `json:"log-file"`

	MetricsAddr string `json:"metrics-addr"`
	ExportDir   string `json:"export-dir"`

	Headless  bool          `json:"headless"`
	Duration  time.Duration `json:"duration"`
	AutoStart bool          `json:"autostart"`

	SessionFilter string `json:"session-filter"`
	PacketFilter  string `json:"packet-filter"`
}

// Default returns the settings used when a flag is not given.
func Default() Settings {
	return Settings{
		Tshark:       "tshark",
		Filter:       tshark.DefaultBPF,
		PollInterval: 10 * time.Millisecond,
		BatchSize:    512,
		StopTimeout:  3 * time.Second,
		Refresh:      time.Second,
		LogLevel:     "info",
		LogFile:      "streamwatch.log",
		ExportDir:    ".",
	}
}

// ApplyDefaults fills zero values from Default.
func (s *Settings) ApplyDefaults() {
	d := Default()
	if s.Tshark == "" {
		s.Tshark = d.Tshark
	}
	if s.Filter == "" {
		s.Filter = d.Filter
	}
	if s.PollInterval == 0 {
		s.PollInterval = d.PollInterval
	}
	if s.BatchSize == 0 {
		s.BatchSize = d.BatchSize
	}
	if s.StopTimeout == 0 {
		s.StopTimeout = d.StopTimeout
	}
	if s.Refresh == 0 {
		s.Refresh = d.Refresh
	}
	if s.LogLevel == "" {
		s.LogLevel = d.LogLevel
	}
	if s.ExportDir == "" {
		s.ExportDir = d.ExportDir
	}
}

// Validate rejects settings that cannot run.
func (s *Settings) Validate() error {
	var errs []error
	if s.Interface == "" {
		errs = append(errs, errors.New("an interface is required (-i)"))
	}
	if s.PollInterval < 0 || s.StopTimeout < 0 || s.Refresh < 0 || s.Duration < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if s.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("batch size must not be negative, got %d", s.BatchSize))
	}
	if s.Headless && s.Duration == 0 {
		errs = append(errs, errors.New("headless mode needs --duration"))
	}
	return errors.Join(errs...)
}
