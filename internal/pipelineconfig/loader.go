// Package pipelineconfig loads and validates pipeline run configuration.
package pipelineconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"github.com/wonny/marketpipe/internal/contracts"
)

// Overrides are values taken from the command line. Empty fields keep the file value.
type Overrides struct {
	Tickers       []string
	Period        string
	DataSources   []string
	APIKey        string
	StopOnFailure *bool
}

// Load reads a YAML file and returns a defaulted, validated config with the raw bytes
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*contracts.PipelineConfig, []byte, error) {
	cfg, data, err := Read(path)
	if err != nil {
		return nil, data, err
	}
	if err := Finalize(cfg); err != nil {
		return nil, data, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, data, nil
}

// Read decodes a YAML file without defaults or validation, for callers
// that still have overrides to apply
func Read(path string) (*contracts.PipelineConfig, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read pipeline config: %w", err)
	}

	cfg, err := decode(data)
	if err != nil {
		return nil, data, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, data, nil
}

// Parse decodes YAML, applies defaults and validates
func Parse(data []byte) (*contracts.PipelineConfig, error) {
	cfg, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := Finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte) (*contracts.PipelineConfig, error) {
	var cfg contracts.PipelineConfig
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode pipeline config: %w", err)
		}
	}
	return &cfg, nil
}

// Finalize normalizes tickers, fills defaults and validates cfg in place.
// Configs built in code (API requests, flags only) go through here too.
func Finalize(cfg *contracts.PipelineConfig) error {
	for i, t := range cfg.Tickers {
		cfg.Tickers[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	if err := defaults.Set(cfg); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}
	return Validate(cfg)
}

// Apply merges command line overrides into cfg and re-validates it
func Apply(cfg *contracts.PipelineConfig, o Overrides) error {
	if len(o.Tickers) > 0 {
		cfg.Tickers = append([]string(nil), o.Tickers...)
	}
	if o.Period != "" {
		cfg.Period = o.Period
	}
	if len(o.DataSources) > 0 {
		cfg.DataSources = append([]string(nil), o.DataSources...)
	}
	if o.APIKey != "" {
		cfg.APIKey = o.APIKey
	}
	if o.StopOnFailure != nil {
		cfg.StopOnFailure = *o.StopOnFailure
	}
	return Finalize(cfg)
}

// Hash generates a SHA256 hash of the config (canonical JSON, api key excluded)
func Hash(cfg *contracts.PipelineConfig) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
