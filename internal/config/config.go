// Package config loads the tester configuration from a JSON file. The
// configuration is plain data passed to the components that need it;
// nothing in here is global.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/donfreerk/shock-tester-sub001/internal/egea"
	"github.com/donfreerk/shock-tester-sub001/internal/session"
)

// Config is the full configuration of the processing service.
type Config struct {
	// Session tunables.
	BufferCapacity     int     `json:"buffer_capacity"`
	EvaluationInterval int     `json:"evaluation_interval"`
	RecentWindow       int     `json:"recent_window"`
	DefaultWeight      float64 `json:"default_weight"`

	// Evaluation parameters. Zero values fall back to the defaults.
	MinCalcFreq   float64 `json:"min_calc_freq"`
	MaxCalcFreq   float64 `json:"max_calc_freq"`
	PhaseShiftMin float64 `json:"phase_shift_min"`

	// Worker pool.
	WorkerCount int `json:"worker_count"`
	WorkerQueue int `json:"worker_queue"`

	// NATS transport.
	NATSURL      string `json:"nats_url"`
	NATSEnabled  bool   `json:"nats_enabled"`
	SubjectBase  string `json:"subject_base"`
	StatusPeriod int    `json:"status_period_sec"`

	// WebSocket live feed.
	WebSocketAddr string `json:"websocket_addr"`
	ChartPoints   int    `json:"chart_points"`

	// Bench PLC.
	PLCEnabled bool   `json:"plc_enabled"`
	PLCAddress string `json:"plc_address"`
	PLCRack    int    `json:"plc_rack"`
	PLCSlot    int    `json:"plc_slot"`

	// Simulator, used when no bench hardware is attached.
	SimEnabled bool   `json:"sim_enabled"`
	SimQuality string `json:"sim_quality"`

	// Logging.
	LogPath    string `json:"log_path"`
	LogDebug   bool   `json:"log_debug"`
	LogConsole bool   `json:"log_console"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		BufferCapacity:     10000,
		EvaluationInterval: 50,
		RecentWindow:       500,
		DefaultWeight:      512.0,
		MinCalcFreq:        6.0,
		MaxCalcFreq:        18.0,
		PhaseShiftMin:      35.0,
		WorkerCount:        2,
		WorkerQueue:        64,
		NATSURL:            "nats://localhost:4222",
		NATSEnabled:        true,
		SubjectBase:        "suspension",
		StatusPeriod:       5,
		WebSocketAddr:      ":8080",
		ChartPoints:        1000,
		PLCEnabled:         false,
		PLCAddress:         "192.168.0.1",
		PLCRack:            0,
		PLCSlot:            1,
		SimEnabled:         false,
		SimQuality:         "good",
		LogPath:            "logs",
	}
}

// Load reads the JSON file at path on top of the defaults. A missing
// path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %v", path, err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %v", path, err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.BufferCapacity < 1 {
		return fmt.Errorf("buffer_capacity must be positive")
	}
	if c.EvaluationInterval < 1 {
		return fmt.Errorf("evaluation_interval must be positive")
	}
	if c.MinCalcFreq <= 0 || c.MaxCalcFreq <= c.MinCalcFreq {
		return fmt.Errorf("calc frequency gate is invalid: [%v, %v]", c.MinCalcFreq, c.MaxCalcFreq)
	}
	if c.PhaseShiftMin <= 0 {
		return fmt.Errorf("phase_shift_min must be positive")
	}
	return nil
}

// SessionConfig maps the file values onto the session tunables.
func (c Config) SessionConfig() session.Config {
	params := egea.DefaultParameters()
	if c.MinCalcFreq > 0 {
		params.MinCalcFreq = c.MinCalcFreq
	}
	if c.MaxCalcFreq > 0 {
		params.MaxCalcFreq = c.MaxCalcFreq
	}
	if c.PhaseShiftMin > 0 {
		params.PhaseShiftMin = c.PhaseShiftMin
	}

	return session.Config{
		BufferCapacity:     c.BufferCapacity,
		EvaluationInterval: c.EvaluationInterval,
		RecentWindow:       c.RecentWindow,
		DefaultWeight:      c.DefaultWeight,
		Params:             params,
	}
}
