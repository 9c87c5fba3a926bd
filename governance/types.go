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

package governance

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ProposalState is the derived lifecycle state of a proposal. It is never
// stored; State recomputes it from tallies, flags and the chain clock.
type ProposalState uint8

const (
	StatePending   ProposalState = 0x00 // 投票未开始
	StateActive    ProposalState = 0x01 // 投票中
	StateCanceled  ProposalState = 0x02 // 已取消
	StateDefeated  ProposalState = 0x03 // 已否定（未达多数或法定人数）
	StateSucceeded ProposalState = 0x04 // 已通过，未入队
	StateQueued    ProposalState = 0x05 // 已入队，等待 eta
	StateExpired   ProposalState = 0x06 // 入队后宽限期已过
	StateExecuted  ProposalState = 0x07 // 已执行
	StateVetoed    ProposalState = 0x08 // 已被否决
)

// String returns the human-readable name of the state.
func (s ProposalState) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateActive:
		return "Active"
	case StateCanceled:
		return "Canceled"
	case StateDefeated:
		return "Defeated"
	case StateSucceeded:
		return "Succeeded"
	case StateQueued:
		return "Queued"
	case StateExpired:
		return "Expired"
	case StateExecuted:
		return "Executed"
	case StateVetoed:
		return "Vetoed"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether the state can never change again.
func (s ProposalState) IsTerminal() bool {
	switch s {
	case StateCanceled, StateDefeated, StateExpired, StateExecuted, StateVetoed:
		return true
	default:
		return false
	}
}

// VoteSupport is the direction of a cast vote.
type VoteSupport uint8

const (
	VoteAgainst VoteSupport = 0x00 // 反对
	VoteFor     VoteSupport = 0x01 // 赞成
	VoteAbstain VoteSupport = 0x02 // 弃权
)

// Proposal represents a governance proposal: an ordered list of actions to
// execute atomically once the electorate approves it and the timelock delay
// has elapsed.
type Proposal struct {
	ID          uint64           // 提案 ID（单调递增）
	Proposer    common.Address   // 提案者
	Targets     []common.Address // 目标地址
	Values      []*big.Int       // 转账金额（与 Targets 等长）
	Signatures  []string         // 函数签名（与 Targets 等长）
	Calldatas   [][]byte         // 调用数据（与 Targets 等长）
	Description string           // 描述

	CreatedAt  uint64 // 创建区块
	StartBlock uint64 // 投票开始区块
	EndBlock   uint64 // 投票截止区块

	// Snapshots fixed at creation so that the derived state is a pure
	// function of tallies, flags and the chain clock.
	ProposalThreshold *big.Int            // 提案权重门槛快照
	TotalSupply       *big.Int            // 总投票供应量快照
	QuorumParams      DynamicQuorumParams // 动态法定人数参数快照

	Eta      uint64 // 可执行时间戳（入队时设置一次）
	Queued   bool   // 已入队
	Canceled bool   // 已取消
	Vetoed   bool   // 已被否决
	Executed bool   // 已执行
}

// Receipt records a single voter's ballot on a proposal. The weight is fixed
// at cast time and never re-weighed.
type Receipt struct {
	HasVoted bool        // 是否已投票
	Support  VoteSupport // 投票方向
	Weight   *big.Int    // 投票权重
}

// DynamicQuorumParams configures the against-vote-weighted quorum function.
// The BPS values are basis points of total voting supply; the coefficient is
// a 1e6 fixed-point multiplier applied to the against-vote share.
type DynamicQuorumParams struct {
	MinQuorumVotesBPS uint16 // 最小法定人数（基点）
	MaxQuorumVotesBPS uint16 // 最大法定人数（基点）
	QuorumCoefficient uint32 // 系数（1e6 定点）
}

// Bounds enforced on the engine configuration and the admin parameter setters.
const (
	// ProposalMaxOperations caps the number of actions per proposal.
	ProposalMaxOperations = 10

	MinVotingPeriod = 5760  // 约 1 天（15s/块）
	MaxVotingPeriod = 80640 // 约 2 周

	MinVotingDelay = 1
	MaxVotingDelay = 40320 // 约 1 周

	MinProposalThresholdBPS = 1    // 0.01%
	MaxProposalThresholdBPS = 1000 // 10%

	MinQuorumVotesBPSLowerBound = 200  // 2%
	MinQuorumVotesBPSUpperBound = 2000 // 20%
	MaxQuorumVotesBPSUpperBound = 6000 // 60%
)

// EngineConfig holds the governance parameters consumed at initialization.
// Voting parameters remain mutable afterwards only through the admin-gated
// setters on the engine.
type EngineConfig struct {
	VotingPeriod         uint64              // 投票期限（区块数）
	VotingDelay          uint64              // 投票延迟（区块数）
	ProposalThresholdBPS uint64              // 提案门槛（总供应量的基点）
	QuorumParams         DynamicQuorumParams // 动态法定人数参数
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		VotingPeriod:         40320, // 约 7 天（15s/块）
		VotingDelay:          13140, // 约 2.3 天
		ProposalThresholdBPS: 25,    // 0.25%
		QuorumParams: DynamicQuorumParams{
			MinQuorumVotesBPS: 1000,   // 10%
			MaxQuorumVotesBPS: 1500,   // 15%
			QuorumCoefficient: 500000, // 0.5
		},
	}
}

// Validate checks the configuration against the parameter bounds.
func (c *EngineConfig) Validate() error {
	if c.VotingPeriod < MinVotingPeriod || c.VotingPeriod > MaxVotingPeriod {
		return ErrInvalidParams
	}
	if c.VotingDelay < MinVotingDelay || c.VotingDelay > MaxVotingDelay {
		return ErrInvalidParams
	}
	if c.ProposalThresholdBPS < MinProposalThresholdBPS || c.ProposalThresholdBPS > MaxProposalThresholdBPS {
		return ErrInvalidParams
	}
	return c.QuorumParams.Validate()
}

// Validate checks the quorum parameters against their bounds.
func (p DynamicQuorumParams) Validate() error {
	if p.MinQuorumVotesBPS < MinQuorumVotesBPSLowerBound ||
		p.MinQuorumVotesBPS > MinQuorumVotesBPSUpperBound {
		return ErrInvalidParams
	}
	if p.MaxQuorumVotesBPS > MaxQuorumVotesBPSUpperBound {
		return ErrInvalidParams
	}
	if p.MinQuorumVotesBPS > p.MaxQuorumVotesBPS {
		return ErrInvalidParams
	}
	return nil
}
