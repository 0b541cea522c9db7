// config.go - Configuration management for the pool daemon
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
)

// Config represents the daemon configuration
type Config struct {
	// API settings
	ListenAddr string `json:"listen_addr"`

	// Storage
	StorePath string `json:"store_path"`

	// Verification keys (gnark Groth16, produced by the offline setup)
	WithdrawVKPath string `json:"withdraw_vk_path"`
	TransferVKPath string `json:"transfer_vk_path"`

	// Relayer allow-list for fee-bearing withdrawals
	Relayers []string `json:"relayers"`

	// Logging
	LogLevel string `json:"log_level"`

	// Rate limiting for mutating endpoints
	RateLimitBurst  int `json:"rate_limit_burst"`
	RateLimitPerSec int `json:"rate_limit_per_sec"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:      ":8080",
		StorePath:       "pool.db",
		WithdrawVKPath:  "keys/withdraw.vk",
		TransferVKPath:  "keys/transfer.vk",
		Relayers:        []string{},
		LogLevel:        "info",
		RateLimitBurst:  20,
		RateLimitPerSec: 10,
	}
}

// LoadConfig loads configuration from file or creates default
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		var config Config
		if err := json.NewDecoder(file).Decode(&config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
		return &config, nil
	}

	config := DefaultConfig()
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save default config: %w", err)
	}
	return config, nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must be set")
	}
	if c.StorePath == "" {
		return fmt.Errorf("store_path must be set")
	}
	if c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate_limit_burst must be positive")
	}
	if c.RateLimitPerSec <= 0 {
		return fmt.Errorf("rate_limit_per_sec must be positive")
	}
	for _, r := range c.Relayers {
		if !common.IsHexAddress(r) {
			return fmt.Errorf("invalid relayer address: %s", r)
		}
	}
	return nil
}

// RelayerAddresses returns the allow-list as addresses
func (c *Config) RelayerAddresses() []common.Address {
	out := make([]common.Address, 0, len(c.Relayers))
	for _, r := range c.Relayers {
		out = append(out, common.HexToAddress(r))
	}
	return out
}
