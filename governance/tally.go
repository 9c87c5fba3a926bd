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
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// proposalTally aggregates the for/against/abstain weight of one proposal and
// the per-voter receipts preventing double voting.
type proposalTally struct {
	forVotes     *big.Int
	againstVotes *big.Int
	abstainVotes *big.Int
	receipts     map[common.Address]*Receipt
}

func newProposalTally() *proposalTally {
	return &proposalTally{
		forVotes:     new(big.Int),
		againstVotes: new(big.Int),
		abstainVotes: new(big.Int),
		receipts:     map[common.Address]*Receipt{},
	}
}

// VoteTally records cast votes per proposal with in-memory storage.
type VoteTally struct {
	mu      sync.RWMutex
	tallies map[uint64]*proposalTally
}

// NewVoteTally creates a new in-memory vote tally.
func NewVoteTally() *VoteTally {
	return &VoteTally{
		tallies: make(map[uint64]*proposalTally),
	}
}

// CastVote records a ballot for (id, voter). The proposal must be Active and
// the voter must not have voted before; either failure aborts with no tally
// mutation. The weight is frozen in the receipt at cast time.
func (t *VoteTally) CastVote(id uint64, voter common.Address, support VoteSupport, weight *big.Int, currentState ProposalState) error {
	if currentState != StateActive {
		return ErrVotingClosed
	}
	if support > VoteAbstain {
		return ErrInvalidSupport
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	tally, exists := t.tallies[id]
	if !exists {
		tally = newProposalTally()
		t.tallies[id] = tally
	}

	if _, voted := tally.receipts[voter]; voted {
		return ErrAlreadyVoted
	}

	if weight == nil {
		weight = new(big.Int)
	}
	switch support {
	case VoteFor:
		tally.forVotes.Add(tally.forVotes, weight)
	case VoteAgainst:
		tally.againstVotes.Add(tally.againstVotes, weight)
	case VoteAbstain:
		tally.abstainVotes.Add(tally.abstainVotes, weight)
	}

	tally.receipts[voter] = &Receipt{
		HasVoted: true,
		Support:  support,
		Weight:   new(big.Int).Set(weight),
	}

	return nil
}

// Tally returns the current for/against/abstain accumulators for a proposal.
// Unknown ids report zero tallies. The returned values are copies.
func (t *VoteTally) Tally(id uint64) (forVotes, againstVotes, abstainVotes *big.Int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tally, exists := t.tallies[id]
	if !exists {
		return new(big.Int), new(big.Int), new(big.Int)
	}
	return new(big.Int).Set(tally.forVotes),
		new(big.Int).Set(tally.againstVotes),
		new(big.Int).Set(tally.abstainVotes)
}

// Receipt returns the ballot recorded for (id, voter), if any.
func (t *VoteTally) Receipt(id uint64, voter common.Address) (*Receipt, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tally, exists := t.tallies[id]
	if !exists {
		return nil, false
	}
	receipt, voted := tally.receipts[voter]
	if !voted {
		return nil, false
	}

	receiptCopy := *receipt
	receiptCopy.Weight = new(big.Int).Set(receipt.Weight)
	return &receiptCopy, true
}
