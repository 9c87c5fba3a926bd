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

// ProposalRegistry owns the set of proposals, their immutable action payloads
// and their mutable lifecycle flags, with in-memory storage. The current
// lifecycle state is derived on demand from tallies, flags and the chain
// clock; no stored state field is authoritative except the terminal flags.
type ProposalRegistry struct {
	mu          sync.RWMutex
	clock       ChainClock
	tallies     TallyReader
	gracePeriod uint64
	proposals   map[uint64]*Proposal
	count       uint64
}

// NewProposalRegistry creates a new in-memory proposal registry. gracePeriod
// is the executor's post-eta execution window, used to derive Expired.
func NewProposalRegistry(clock ChainClock, tallies TallyReader, gracePeriod uint64) *ProposalRegistry {
	return &ProposalRegistry{
		clock:       clock,
		tallies:     tallies,
		gracePeriod: gracePeriod,
		proposals:   make(map[uint64]*Proposal),
	}
}

// Create validates and stores a new proposal, assigning the next id. The
// proposer must hold strictly more weight than the proposal threshold, and
// the action sequences must share the same non-zero length. The threshold,
// supply and quorum-parameter snapshots are frozen on the proposal.
func (r *ProposalRegistry) Create(
	proposer common.Address,
	targets []common.Address,
	values []*big.Int,
	signatures []string,
	calldatas [][]byte,
	description string,
	threshold *big.Int,
	proposerWeight *big.Int,
	totalSupply *big.Int,
	quorumParams DynamicQuorumParams,
	votingDelay uint64,
	votingPeriod uint64,
) (uint64, error) {
	if proposerWeight == nil || proposerWeight.Cmp(threshold) <= 0 {
		return 0, ErrBelowThreshold
	}
	if len(targets) == 0 ||
		len(targets) != len(values) ||
		len(targets) != len(signatures) ||
		len(targets) != len(calldatas) {
		return 0, ErrActionsMismatch
	}
	if len(targets) > ProposalMaxOperations {
		return 0, ErrTooManyActions
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.count++
	currentBlock := r.clock.BlockNumber()
	proposal := &Proposal{
		ID:                r.count,
		Proposer:          proposer,
		Targets:           targets,
		Values:            values,
		Signatures:        signatures,
		Calldatas:         calldatas,
		Description:       description,
		CreatedAt:         currentBlock,
		StartBlock:        currentBlock + votingDelay,
		EndBlock:          currentBlock + votingDelay + votingPeriod,
		ProposalThreshold: new(big.Int).Set(threshold),
		TotalSupply:       new(big.Int).Set(totalSupply),
		QuorumParams:      quorumParams,
	}
	r.proposals[proposal.ID] = proposal

	return proposal.ID, nil
}

// Proposal returns a copy of the stored proposal.
func (r *ProposalRegistry) Proposal(id uint64) (*Proposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	proposal, exists := r.proposals[id]
	if !exists {
		return nil, ErrUnknownProposal
	}

	proposalCopy := *proposal
	return &proposalCopy, nil
}

// State derives the current lifecycle state of a proposal from its flags,
// the vote tallies and the chain clock.
func (r *ProposalRegistry) State(id uint64) (ProposalState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	proposal, exists := r.proposals[id]
	if !exists {
		return 0, ErrUnknownProposal
	}
	return r.deriveState(proposal), nil
}

// deriveState computes the state of a proposal. Callers must hold r.mu.
func (r *ProposalRegistry) deriveState(proposal *Proposal) ProposalState {
	switch {
	case proposal.Vetoed:
		return StateVetoed
	case proposal.Canceled:
		return StateCanceled
	case proposal.Executed:
		return StateExecuted
	}

	currentBlock := r.clock.BlockNumber()
	if currentBlock <= proposal.StartBlock {
		return StatePending
	}
	if currentBlock <= proposal.EndBlock {
		return StateActive
	}

	forVotes, againstVotes, _ := r.tallies.Tally(proposal.ID)
	quorum := RequiredQuorum(proposal.TotalSupply, againstVotes, proposal.QuorumParams)
	if forVotes.Cmp(againstVotes) <= 0 || forVotes.Cmp(quorum) < 0 {
		return StateDefeated
	}

	if !proposal.Queued {
		return StateSucceeded
	}
	if r.clock.Timestamp() >= proposal.Eta+r.gracePeriod {
		return StateExpired
	}
	return StateQueued
}

// QuorumVotes returns the dynamic quorum requirement of a proposal derived
// from its supply snapshot and the live against-vote tally.
func (r *ProposalRegistry) QuorumVotes(id uint64) (*big.Int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	proposal, exists := r.proposals[id]
	if !exists {
		return nil, ErrUnknownProposal
	}

	_, againstVotes, _ := r.tallies.Tally(id)
	return RequiredQuorum(proposal.TotalSupply, againstVotes, proposal.QuorumParams), nil
}

// Cancel marks a proposal canceled. The caller must be the proposer, or the
// proposer's live weight must have fallen to or below the threshold that
// qualified them; a proposal in a final state cannot be canceled. Returns a
// copy of the proposal as it stood when canceled, for executor cleanup.
func (r *ProposalRegistry) Cancel(id uint64, caller common.Address, proposerCurrentWeight *big.Int) (*Proposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	proposal, exists := r.proposals[id]
	if !exists {
		return nil, ErrUnknownProposal
	}
	if r.deriveState(proposal).IsTerminal() {
		return nil, ErrAlreadyFinal
	}
	if caller != proposal.Proposer {
		if proposerCurrentWeight == nil {
			proposerCurrentWeight = new(big.Int)
		}
		if proposerCurrentWeight.Cmp(proposal.ProposalThreshold) > 0 {
			return nil, ErrProposerAboveThreshold
		}
	}

	proposalCopy := *proposal
	proposal.Canceled = true

	return &proposalCopy, nil
}

// MarkVetoed marks a proposal vetoed. An executed proposal cannot be vetoed,
// and a proposal already canceled or vetoed is final; at most one of the
// canceled/vetoed/executed flags is ever set. Returns a copy of the proposal
// as it stood when vetoed.
func (r *ProposalRegistry) MarkVetoed(id uint64) (*Proposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	proposal, exists := r.proposals[id]
	if !exists {
		return nil, ErrUnknownProposal
	}
	if proposal.Executed {
		return nil, ErrCannotVetoExecuted
	}
	if proposal.Canceled || proposal.Vetoed {
		return nil, ErrAlreadyFinal
	}

	proposalCopy := *proposal
	proposal.Vetoed = true

	return &proposalCopy, nil
}

// MarkQueued records the executor's acceptance of a succeeded proposal and
// fixes its eta. Fails when called out of order.
func (r *ProposalRegistry) MarkQueued(id uint64, eta uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	proposal, exists := r.proposals[id]
	if !exists {
		return ErrUnknownProposal
	}
	if r.deriveState(proposal) != StateSucceeded {
		return ErrInvalidTransition
	}

	proposal.Queued = true
	proposal.Eta = eta

	return nil
}

// MarkExecuted records the executor's completion of a queued proposal.
// Fails when called out of order.
func (r *ProposalRegistry) MarkExecuted(id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	proposal, exists := r.proposals[id]
	if !exists {
		return ErrUnknownProposal
	}
	if r.deriveState(proposal) != StateQueued {
		return ErrInvalidTransition
	}

	proposal.Executed = true

	return nil
}

// ProposalCount returns the number of proposals created so far.
func (r *ProposalRegistry) ProposalCount() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.count
}
