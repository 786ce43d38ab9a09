// Package config loads and validates the startup-time parameters an
// engine is instantiated with. These are immutable for the lifetime of
// an engine: there is no live-reload path, matching the protocol
// constants in core being compile-time, not runtime, configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tolelom/drawchain/crypto"
)

// Config holds everything needed to start a single engine instance.
type Config struct {
	NodeID string `json:"node_id"`

	// RootAccounts is the ordered set of root-account public keys (hex
	// canonical DER), each credited core.RootAmount at genesis.
	RootAccounts []string `json:"root_accounts"`

	// SlotLengthMillis is the wall-clock width of one timeslot; owned by
	// the clock/staking actor, not the engine itself, but shipped here
	// since it is the one piece of global configuration that actor and
	// engine must agree on.
	SlotLengthMillis int64 `json:"slot_length_millis"`

	// MaxBlockTransactions is validated as positive and persisted with
	// the config. core.Blockchain.BuildBlock does not read it: a candidate
	// block draws from the whole mempool, limited only by the
	// greedy-selection cutoff driven by ledger solvency.
	MaxBlockTransactions int `json:"max_block_transactions"`
}

// DefaultConfig returns a single-node development configuration with no
// root accounts; callers must populate RootAccounts before Start.
func DefaultConfig() *Config {
	return &Config{
		NodeID:               "node0",
		SlotLengthMillis:     10_000,
		MaxBlockTransactions: 500,
	}
}

// Load reads a JSON config file from path and validates required fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required fields are present and well-formed.
func (c *Config) Validate() error {
	if c.NodeID == "" {
		return fmt.Errorf("node_id must not be empty")
	}
	if len(c.RootAccounts) == 0 {
		return fmt.Errorf("root_accounts must not be empty")
	}
	for i, hexKey := range c.RootAccounts {
		if _, err := crypto.PublicKeyFromHex(hexKey); err != nil {
			return fmt.Errorf("root_accounts[%d]: %w", i, err)
		}
	}
	if c.SlotLengthMillis <= 0 {
		return fmt.Errorf("slot_length_millis must be positive, got %d", c.SlotLengthMillis)
	}
	if c.MaxBlockTransactions <= 0 {
		return fmt.Errorf("max_block_transactions must be positive, got %d", c.MaxBlockTransactions)
	}
	return nil
}

// RootAccountKeys decodes RootAccounts into public keys.
func (c *Config) RootAccountKeys() ([]crypto.PublicKey, error) {
	keys := make([]crypto.PublicKey, 0, len(c.RootAccounts))
	for i, hexKey := range c.RootAccounts {
		pub, err := crypto.PublicKeyFromHex(hexKey)
		if err != nil {
			return nil, fmt.Errorf("root_accounts[%d]: %w", i, err)
		}
		keys = append(keys, pub)
	}
	return keys, nil
}

// Save writes the config to path as formatted JSON.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
