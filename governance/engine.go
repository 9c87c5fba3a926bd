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
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

// GovernanceEngine is the orchestrating component exposing the proposal
// lifecycle: propose, vote, cancel, veto, queue and execute, plus the
// authority operations. It composes the proposal registry, vote tally,
// quorum calculator and authority manager, and calls out to the external
// timelock executor and voting-weight source.
//
// Every public operation is serialized and atomic: a failed precondition
// aborts the whole call with no partial state mutation.
type GovernanceEngine struct {
	mu sync.RWMutex

	config    EngineConfig
	clock     ChainClock
	votes     VotesSource
	executor  Executor
	registry  *ProposalRegistry
	tally     *VoteTally
	authority *AuthorityManager

	scope         event.SubscriptionScope
	proposalFeed  event.Feed
	voteFeed      event.Feed
	authorityFeed event.Feed
	withdrawFeed  event.Feed
	paramFeed     event.Feed
}

// NewGovernanceEngine creates a governance engine from its external
// collaborators. A zero vetoer address starts the engine with the veto
// power already burned.
func NewGovernanceEngine(
	config *EngineConfig,
	clock ChainClock,
	votes VotesSource,
	executor Executor,
	treasury Treasury,
	admin common.Address,
	vetoer common.Address,
) (*GovernanceEngine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	tally := NewVoteTally()
	engine := &GovernanceEngine{
		config:    *config,
		clock:     clock,
		votes:     votes,
		executor:  executor,
		registry:  NewProposalRegistry(clock, tally, executor.GracePeriod()),
		tally:     tally,
		authority: NewAuthorityManager(admin, vetoer, treasury),
	}

	return engine, nil
}

// Stop unsubscribes all event listeners.
func (e *GovernanceEngine) Stop() {
	e.scope.Close()
}

// Propose submits a new proposal. The proposer must currently hold strictly
// more weight than the proposal threshold, measured at the previous block.
func (e *GovernanceEngine) Propose(
	proposer common.Address,
	targets []common.Address,
	values []*big.Int,
	signatures []string,
	calldatas [][]byte,
	description string,
) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	supply := e.votes.TotalSupply()
	threshold := bpsOf(supply, e.config.ProposalThresholdBPS)

	snapshotBlock := e.clock.BlockNumber()
	if snapshotBlock > 0 {
		snapshotBlock--
	}
	weight := e.votes.WeightOf(proposer, snapshotBlock)

	id, err := e.registry.Create(
		proposer, targets, values, signatures, calldatas, description,
		threshold, weight, supply, e.config.QuorumParams,
		e.config.VotingDelay, e.config.VotingPeriod,
	)
	if err != nil {
		return 0, err
	}

	proposal, _ := e.registry.Proposal(id)
	log.Info("Governance proposal created",
		"id", id, "proposer", proposer.Hex(),
		"startBlock", proposal.StartBlock, "endBlock", proposal.EndBlock)
	e.proposalFeed.Send(ProposalEvent{Kind: ProposalCreated, ID: id, Proposal: proposal})

	return id, nil
}

// CastVote records a ballot on an active proposal. The ballot weight is the
// voter's weight at the proposal's creation block, fixed at cast time.
func (e *GovernanceEngine) CastVote(voter common.Address, id uint64, support VoteSupport) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	proposal, err := e.registry.Proposal(id)
	if err != nil {
		return err
	}
	state, err := e.registry.State(id)
	if err != nil {
		return err
	}

	weight := e.votes.WeightOf(voter, proposal.CreatedAt)
	if err := e.tally.CastVote(id, voter, support, weight, state); err != nil {
		return err
	}

	log.Debug("Governance vote cast",
		"id", id, "voter", voter.Hex(), "support", support, "weight", weight)
	e.voteFeed.Send(VoteCastEvent{ProposalID: id, Voter: voter, Support: support, Weight: weight})

	return nil
}

// Cancel cancels a proposal. The proposer may always cancel; anyone may
// cancel once the proposer's live weight has fallen to or below the
// threshold that qualified them. Queued actions are removed from the
// executor.
func (e *GovernanceEngine) Cancel(caller common.Address, id uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	proposal, err := e.registry.Proposal(id)
	if err != nil {
		return err
	}
	proposerWeight := e.votes.CurrentWeightOf(proposal.Proposer)

	prev, err := e.registry.Cancel(id, caller, proposerWeight)
	if err != nil {
		return err
	}
	if prev.Queued {
		e.dequeueActions(prev)
	}

	log.Info("Governance proposal canceled", "id", id, "caller", caller.Hex())
	e.proposalFeed.Send(ProposalEvent{Kind: ProposalCanceled, ID: id})

	return nil
}

// Veto blocks a proposal. Vetoer only; fails permanently once the veto power
// is burned, and an executed proposal cannot be vetoed. Queued actions are
// removed from the executor.
func (e *GovernanceEngine) Veto(caller common.Address, id uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.authority.CheckVetoer(caller); err != nil {
		return err
	}

	prev, err := e.registry.MarkVetoed(id)
	if err != nil {
		return err
	}
	if prev.Queued {
		e.dequeueActions(prev)
	}

	log.Info("Governance proposal vetoed", "id", id, "vetoer", caller.Hex())
	e.proposalFeed.Send(ProposalEvent{Kind: ProposalVetoed, ID: id})

	return nil
}

// Queue moves a succeeded proposal into the executor, fixing its eta at the
// current timestamp plus the executor delay. A queueing failure rolls back
// the actions already accepted.
func (e *GovernanceEngine) Queue(id uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.registry.State(id)
	if err != nil {
		return err
	}
	if state != StateSucceeded {
		return ErrInvalidTransition
	}

	proposal, err := e.registry.Proposal(id)
	if err != nil {
		return err
	}

	eta := e.clock.Timestamp() + e.executor.Delay()
	for i := range proposal.Targets {
		_, err := e.executor.QueueTransaction(
			proposal.Targets[i], proposal.Values[i],
			proposal.Signatures[i], proposal.Calldatas[i], eta)
		if err != nil {
			for j := 0; j < i; j++ {
				e.executor.CancelTransaction(
					proposal.Targets[j], proposal.Values[j],
					proposal.Signatures[j], proposal.Calldatas[j], eta)
			}
			return err
		}
	}

	if err := e.registry.MarkQueued(id, eta); err != nil {
		proposal.Eta = eta
		e.dequeueActions(proposal)
		return err
	}

	log.Info("Governance proposal queued", "id", id, "eta", eta)
	e.proposalFeed.Send(ProposalEvent{Kind: ProposalQueued, ID: id, Eta: eta})

	return nil
}

// Execute executes a queued proposal through the executor once its eta has
// passed. The executor enforces the eta and grace window per action.
func (e *GovernanceEngine) Execute(id uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.registry.State(id)
	if err != nil {
		return err
	}
	if state != StateQueued {
		return ErrInvalidTransition
	}

	proposal, err := e.registry.Proposal(id)
	if err != nil {
		return err
	}

	for i := range proposal.Targets {
		_, err := e.executor.ExecuteTransaction(
			proposal.Targets[i], proposal.Values[i],
			proposal.Signatures[i], proposal.Calldatas[i], proposal.Eta)
		if err != nil {
			return err
		}
	}

	if err := e.registry.MarkExecuted(id); err != nil {
		return err
	}

	log.Info("Governance proposal executed", "id", id)
	e.proposalFeed.Send(ProposalEvent{Kind: ProposalExecuted, ID: id})

	return nil
}

// dequeueActions cancels all of a proposal's actions in the executor.
func (e *GovernanceEngine) dequeueActions(proposal *Proposal) {
	for i := range proposal.Targets {
		if err := e.executor.CancelTransaction(
			proposal.Targets[i], proposal.Values[i],
			proposal.Signatures[i], proposal.Calldatas[i], proposal.Eta); err != nil {
			log.Warn("Failed to dequeue proposal action",
				"id", proposal.ID, "action", i, "err", err)
		}
	}
}

// SetPendingVetoer starts the two-step vetoer transfer. Vetoer only.
func (e *GovernanceEngine) SetPendingVetoer(caller, newPending common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	old, err := e.authority.SetPendingVetoer(caller, newPending)
	if err != nil {
		return err
	}

	e.authorityFeed.Send(AuthorityEvent{Kind: NewPendingVetoer, Old: old, New: newPending})
	return nil
}

// AcceptVetoer completes the two-step vetoer transfer. Pending vetoer only.
// The old vetoer loses veto rights immediately.
func (e *GovernanceEngine) AcceptVetoer(caller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	old, err := e.authority.AcceptVetoer(caller)
	if err != nil {
		return err
	}

	log.Info("Governance vetoer changed", "old", old.Hex(), "new", caller.Hex())
	e.authorityFeed.Send(AuthorityEvent{Kind: NewVetoer, Old: old, New: caller})
	return nil
}

// BurnVetoPower permanently relinquishes the veto power, clearing both the
// live and any pending vetoer. Vetoer only.
func (e *GovernanceEngine) BurnVetoPower(caller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	oldVetoer, oldPending, err := e.authority.BurnVetoPower(caller)
	if err != nil {
		return err
	}

	log.Info("Governance veto power burned", "vetoer", oldVetoer.Hex())
	if oldPending != (common.Address{}) {
		e.authorityFeed.Send(AuthorityEvent{Kind: NewPendingVetoer, Old: oldPending, New: common.Address{}})
	}
	e.authorityFeed.Send(AuthorityEvent{Kind: NewVetoer, Old: oldVetoer, New: common.Address{}})
	return nil
}

// SetPendingAdmin starts the two-step admin transfer. Admin only.
func (e *GovernanceEngine) SetPendingAdmin(caller, newPending common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	old, err := e.authority.SetPendingAdmin(caller, newPending)
	if err != nil {
		return err
	}

	e.authorityFeed.Send(AuthorityEvent{Kind: NewPendingAdmin, Old: old, New: newPending})
	return nil
}

// AcceptAdmin completes the two-step admin transfer. Pending admin only.
func (e *GovernanceEngine) AcceptAdmin(caller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	old, err := e.authority.AcceptAdmin(caller)
	if err != nil {
		return err
	}

	log.Info("Governance admin changed", "old", old.Hex(), "new", caller.Hex())
	e.authorityFeed.Send(AuthorityEvent{Kind: NewAdmin, Old: old, New: caller})
	return nil
}

// Withdraw sweeps the entire custodied balance to the admin. Admin only. A
// failed transfer is reported, not rolled back.
func (e *GovernanceEngine) Withdraw(caller common.Address) (*uint256.Int, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	amount, sent, err := e.authority.Withdraw(caller)
	if err != nil {
		return nil, false, err
	}

	if sent {
		log.Info("Governance funds withdrawn", "amount", amount, "admin", caller.Hex())
	} else {
		log.Warn("Governance withdraw transfer failed", "amount", amount, "admin", caller.Hex())
	}
	e.withdrawFeed.Send(WithdrawEvent{Amount: amount, Sent: sent})

	return amount, sent, nil
}

// SetVotingDelay updates the voting delay. Admin only, bounds-checked.
func (e *GovernanceEngine) SetVotingDelay(caller common.Address, blocks uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.authority.CheckAdmin(caller); err != nil {
		return err
	}
	if blocks < MinVotingDelay || blocks > MaxVotingDelay {
		return ErrInvalidParams
	}

	old := e.config.VotingDelay
	e.config.VotingDelay = blocks

	e.paramFeed.Send(ParamEvent{Kind: VotingDelaySet, Old: old, New: blocks})
	return nil
}

// SetVotingPeriod updates the voting period. Admin only, bounds-checked.
func (e *GovernanceEngine) SetVotingPeriod(caller common.Address, blocks uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.authority.CheckAdmin(caller); err != nil {
		return err
	}
	if blocks < MinVotingPeriod || blocks > MaxVotingPeriod {
		return ErrInvalidParams
	}

	old := e.config.VotingPeriod
	e.config.VotingPeriod = blocks

	e.paramFeed.Send(ParamEvent{Kind: VotingPeriodSet, Old: old, New: blocks})
	return nil
}

// SetProposalThresholdBPS updates the proposal threshold. Admin only,
// bounds-checked.
func (e *GovernanceEngine) SetProposalThresholdBPS(caller common.Address, bps uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.authority.CheckAdmin(caller); err != nil {
		return err
	}
	if bps < MinProposalThresholdBPS || bps > MaxProposalThresholdBPS {
		return ErrInvalidParams
	}

	old := e.config.ProposalThresholdBPS
	e.config.ProposalThresholdBPS = bps

	e.paramFeed.Send(ParamEvent{Kind: ProposalThresholdBPSSet, Old: old, New: bps})
	return nil
}

// SetDynamicQuorumParams updates the dynamic quorum parameters. Admin only,
// bounds-checked. Proposals created before the change keep their snapshot.
func (e *GovernanceEngine) SetDynamicQuorumParams(caller common.Address, params DynamicQuorumParams) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.authority.CheckAdmin(caller); err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return err
	}

	old := e.config.QuorumParams
	e.config.QuorumParams = params

	e.paramFeed.Send(ParamEvent{Kind: QuorumParamsSet, OldParams: &old, NewParams: &params})
	return nil
}

// State returns the derived lifecycle state of a proposal.
func (e *GovernanceEngine) State(id uint64) (ProposalState, error) {
	return e.registry.State(id)
}

// Proposal returns a copy of a proposal.
func (e *GovernanceEngine) Proposal(id uint64) (*Proposal, error) {
	return e.registry.Proposal(id)
}

// Receipt returns the ballot recorded for (id, voter), if any.
func (e *GovernanceEngine) Receipt(id uint64, voter common.Address) (*Receipt, bool) {
	return e.tally.Receipt(id, voter)
}

// Tally returns the current for/against/abstain tallies of a proposal.
func (e *GovernanceEngine) Tally(id uint64) (forVotes, againstVotes, abstainVotes *big.Int) {
	return e.tally.Tally(id)
}

// QuorumVotes returns the current dynamic quorum requirement of a proposal.
func (e *GovernanceEngine) QuorumVotes(id uint64) (*big.Int, error) {
	return e.registry.QuorumVotes(id)
}

// ProposalThreshold returns the weight a proposer currently needs to exceed.
func (e *GovernanceEngine) ProposalThreshold() *big.Int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return bpsOf(e.votes.TotalSupply(), e.config.ProposalThresholdBPS)
}

// Config returns a copy of the current engine configuration.
func (e *GovernanceEngine) Config() EngineConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config
}

// Admin returns the live admin.
func (e *GovernanceEngine) Admin() common.Address { return e.authority.Admin() }

// PendingAdmin returns the pending admin, zero if none.
func (e *GovernanceEngine) PendingAdmin() common.Address { return e.authority.PendingAdmin() }

// Vetoer returns the live vetoer, zero once burned.
func (e *GovernanceEngine) Vetoer() common.Address { return e.authority.Vetoer() }

// PendingVetoer returns the pending vetoer, zero if none.
func (e *GovernanceEngine) PendingVetoer() common.Address { return e.authority.PendingVetoer() }

// SubscribeProposalEvents subscribes to proposal lifecycle events.
func (e *GovernanceEngine) SubscribeProposalEvents(ch chan<- ProposalEvent) event.Subscription {
	return e.scope.Track(e.proposalFeed.Subscribe(ch))
}

// SubscribeVoteCastEvents subscribes to vote-cast events.
func (e *GovernanceEngine) SubscribeVoteCastEvents(ch chan<- VoteCastEvent) event.Subscription {
	return e.scope.Track(e.voteFeed.Subscribe(ch))
}

// SubscribeAuthorityEvents subscribes to role-transfer events.
func (e *GovernanceEngine) SubscribeAuthorityEvents(ch chan<- AuthorityEvent) event.Subscription {
	return e.scope.Track(e.authorityFeed.Subscribe(ch))
}

// SubscribeWithdrawEvents subscribes to withdraw events.
func (e *GovernanceEngine) SubscribeWithdrawEvents(ch chan<- WithdrawEvent) event.Subscription {
	return e.scope.Track(e.withdrawFeed.Subscribe(ch))
}

// SubscribeParamEvents subscribes to parameter-change events.
func (e *GovernanceEngine) SubscribeParamEvents(ch chan<- ParamEvent) event.Subscription {
	return e.scope.Track(e.paramFeed.Subscribe(ch))
}
