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

// VotesSource is the external token ownership registry the engine reads
// voting weight from. Past-block lookups fix the weight recorded at proposal
// creation and at vote-cast time.
type VotesSource interface {
	// WeightOf returns the voting weight of an account at a past block.
	WeightOf(account common.Address, blockNumber uint64) *big.Int

	// CurrentWeightOf returns the live voting weight of an account.
	CurrentWeightOf(account common.Address) *big.Int

	// TotalSupply returns the total voting supply.
	TotalSupply() *big.Int
}

// ChainClock is the block-height/timestamp oracle. The engine never reads
// wall-clock time, only the oracle, so tests can advance it deterministically.
type ChainClock interface {
	// BlockNumber returns the current block height.
	BlockNumber() uint64

	// Timestamp returns the current block timestamp in seconds.
	Timestamp() uint64
}

// Executor is the external timelock the engine queues approved actions into.
// It holds a transaction until its eta opens, allows cancellation before
// execution, and rejects execution after its grace period.
type Executor interface {
	// Delay returns the minimum seconds between queueing and execution.
	Delay() uint64

	// GracePeriod returns the seconds after eta during which a queued
	// transaction remains executable.
	GracePeriod() uint64

	// QueueTransaction queues an action for execution at eta.
	QueueTransaction(target common.Address, value *big.Int, signature string, data []byte, eta uint64) (common.Hash, error)

	// CancelTransaction removes a queued action.
	CancelTransaction(target common.Address, value *big.Int, signature string, data []byte, eta uint64) error

	// ExecuteTransaction executes a queued action once its eta has passed.
	ExecuteTransaction(target common.Address, value *big.Int, signature string, data []byte, eta uint64) ([]byte, error)
}

// Treasury custodies the native-currency balance swept by Withdraw. Transfer
// reports failure instead of aborting so the bookkeeping stays observable.
type Treasury interface {
	// Balance returns the custodied balance.
	Balance() *uint256.Int

	// Transfer sends amount to the recipient, reporting success.
	Transfer(to common.Address, amount *uint256.Int) bool
}

// TallyReader is the read-only view of vote tallies the registry derives
// proposal state from.
type TallyReader interface {
	// Tally returns the for/against/abstain accumulators for a proposal.
	Tally(id uint64) (forVotes, againstVotes, abstainVotes *big.Int)
}
