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
	"github.com/holiman/uint256"
)

// ProposalEventKind identifies a proposal lifecycle event.
type ProposalEventKind uint8

const (
	ProposalCreated  ProposalEventKind = 0x01 // 提案已创建
	ProposalCanceled ProposalEventKind = 0x02 // 提案已取消
	ProposalVetoed   ProposalEventKind = 0x03 // 提案已被否决
	ProposalQueued   ProposalEventKind = 0x04 // 提案已入队
	ProposalExecuted ProposalEventKind = 0x05 // 提案已执行
)

// ProposalEvent is posted for every proposal lifecycle transition. Created
// events carry the full proposal payload for external indexing.
type ProposalEvent struct {
	Kind     ProposalEventKind
	ID       uint64
	Eta      uint64    // set on Queued events
	Proposal *Proposal // set on Created events
}

// VoteCastEvent is posted when a ballot is recorded.
type VoteCastEvent struct {
	ProposalID uint64
	Voter      common.Address
	Support    VoteSupport
	Weight     *big.Int
}

// AuthorityEventKind identifies a role-transfer event.
type AuthorityEventKind uint8

const (
	NewPendingAdmin  AuthorityEventKind = 0x01
	NewAdmin         AuthorityEventKind = 0x02
	NewPendingVetoer AuthorityEventKind = 0x03
	NewVetoer        AuthorityEventKind = 0x04
)

// AuthorityEvent is posted on every change to a live or pending role slot.
// Burning the veto power posts NewVetoer (and NewPendingVetoer if a pending
// vetoer existed) with a zero New address.
type AuthorityEvent struct {
	Kind AuthorityEventKind
	Old  common.Address
	New  common.Address
}

// WithdrawEvent is posted on every withdraw attempt, whether or not the
// transfer succeeded.
type WithdrawEvent struct {
	Amount *uint256.Int
	Sent   bool
}

// ParamEventKind identifies an admin parameter change.
type ParamEventKind uint8

const (
	VotingDelaySet          ParamEventKind = 0x01
	VotingPeriodSet         ParamEventKind = 0x02
	ProposalThresholdBPSSet ParamEventKind = 0x03
	QuorumParamsSet         ParamEventKind = 0x04
)

// ParamEvent is posted when an admin setter changes a governance parameter.
// Old/New carry the scalar value; OldParams/NewParams are set only for
// QuorumParamsSet.
type ParamEvent struct {
	Kind      ParamEventKind
	Old       uint64
	New       uint64
	OldParams *DynamicQuorumParams
	NewParams *DynamicQuorumParams
}
