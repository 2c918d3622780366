// Package config loads the YAML run configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaud        = 19200
	DefaultDataBits    = 8
	DefaultParity      = "none"
	DefaultStopBits    = 1
	DefaultPollMs      = 10
	DefaultTimeoutMs   = 1000
	DefaultRepeat      = 1
	DefaultResultsFile = "inventory_results.txt"
)

type Config struct {
	Serial    SerialConfig    `yaml:"serial"`
	Reader    ReaderConfig    `yaml:"reader"`
	Inventory InventoryConfig `yaml:"inventory"`
	Output    OutputConfig    `yaml:"output"`
}

// ---- SERIAL ----

type SerialConfig struct {
	Port     string `yaml:"port"`
	Baud     int    `yaml:"baud"`
	DataBits int    `yaml:"data_bits"`
	Parity   string `yaml:"parity"` // none, odd, even, mark, space
	StopBits int    `yaml:"stop_bits"`
	PollMs   int    `yaml:"poll_ms"` // per-read timeout on the port
}

// ---- READER ----

type ReaderConfig struct {
	Address   uint8 `yaml:"address"`
	TimeoutMs int   `yaml:"timeout_ms"`
	Setup     bool  `yaml:"setup"` // run the ROM/command-mode handshake first
}

// ---- INVENTORY ----

type InventoryConfig struct {
	Repeat int  `yaml:"repeat"` // 0 prompts interactively
	Buzzer bool `yaml:"buzzer"`
}

// ---- OUTPUT ----

type OutputConfig struct {
	ResultsFile string `yaml:"results_file"`
	Pcap        string `yaml:"pcap"`
	Pipe        bool   `yaml:"pipe"`
	Link        string `yaml:"link"` // rtac or user0
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Serial: SerialConfig{
			Baud:     DefaultBaud,
			DataBits: DefaultDataBits,
			Parity:   DefaultParity,
			StopBits: DefaultStopBits,
			PollMs:   DefaultPollMs,
		},
		Reader: ReaderConfig{
			TimeoutMs: DefaultTimeoutMs,
		},
		Inventory: InventoryConfig{
			Repeat: DefaultRepeat,
		},
		Output: OutputConfig{
			ResultsFile: DefaultResultsFile,
			Link:        "rtac",
		},
	}
}

// Load reads path over the defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c SerialConfig) Poll() time.Duration {
	return time.Duration(c.PollMs) * time.Millisecond
}

func (c ReaderConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}
