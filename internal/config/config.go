// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package config loads and validates the governance deployment configuration
// from a TOML file.
package config

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pelletier/go-toml/v2"

	"github.com/XingyuLi20/gobblers-dao/governance"
)

// QuorumConfig is the dynamic quorum section of the config file.
type QuorumConfig struct {
	MinVotesBPS uint16 `toml:"min-votes-bps"`
	MaxVotesBPS uint16 `toml:"max-votes-bps"`
	Coefficient uint32 `toml:"coefficient"`
}

// Config is the deployment configuration consumed at initialization:
// collaborator addresses, the initial authorities and the voting parameters.
type Config struct {
	Admin       string `toml:"admin"`
	Vetoer      string `toml:"vetoer"`
	Timelock    string `toml:"timelock"`
	VotesSource string `toml:"votes-source"`

	VotingPeriod         uint64 `toml:"voting-period"`
	VotingDelay          uint64 `toml:"voting-delay"`
	ProposalThresholdBPS uint64 `toml:"proposal-threshold-bps"`

	Quorum QuorumConfig `toml:"quorum"`
}

// Load reads and validates a TOML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := new(Config)
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks address formats and parameter bounds. The vetoer may be
// empty or zero, which deploys the engine with the veto power already burned.
func (c *Config) Validate() error {
	if !common.IsHexAddress(c.Admin) {
		return fmt.Errorf("invalid admin address: %q", c.Admin)
	}
	if c.Vetoer != "" && !common.IsHexAddress(c.Vetoer) {
		return fmt.Errorf("invalid vetoer address: %q", c.Vetoer)
	}
	if !common.IsHexAddress(c.Timelock) {
		return fmt.Errorf("invalid timelock address: %q", c.Timelock)
	}
	if !common.IsHexAddress(c.VotesSource) {
		return fmt.Errorf("invalid votes-source address: %q", c.VotesSource)
	}

	engineCfg := c.EngineConfig()
	if err := engineCfg.Validate(); err != nil {
		return fmt.Errorf(
			"invalid voting parameters: period=%d delay=%d threshold=%d quorum=%+v: %w",
			c.VotingPeriod, c.VotingDelay, c.ProposalThresholdBPS, c.Quorum, err,
		)
	}

	return nil
}

// EngineConfig converts the file values into the engine configuration.
func (c *Config) EngineConfig() *governance.EngineConfig {
	return &governance.EngineConfig{
		VotingPeriod:         c.VotingPeriod,
		VotingDelay:          c.VotingDelay,
		ProposalThresholdBPS: c.ProposalThresholdBPS,
		QuorumParams: governance.DynamicQuorumParams{
			MinQuorumVotesBPS: c.Quorum.MinVotesBPS,
			MaxQuorumVotesBPS: c.Quorum.MaxVotesBPS,
			QuorumCoefficient: c.Quorum.Coefficient,
		},
	}
}

// AdminAddress returns the parsed admin address.
func (c *Config) AdminAddress() common.Address {
	return common.HexToAddress(c.Admin)
}

// VetoerAddress returns the parsed vetoer address, zero when unset.
func (c *Config) VetoerAddress() common.Address {
	if c.Vetoer == "" {
		return common.Address{}
	}
	return common.HexToAddress(c.Vetoer)
}

// TimelockAddress returns the parsed timelock address.
func (c *Config) TimelockAddress() common.Address {
	return common.HexToAddress(c.Timelock)
}

// VotesSourceAddress returns the parsed votes-source address.
func (c *Config) VotesSourceAddress() common.Address {
	return common.HexToAddress(c.VotesSource)
}
