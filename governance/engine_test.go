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
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// MockClock is a manually advanced block/timestamp oracle.
type MockClock struct {
	block     uint64
	timestamp uint64
}

func NewMockClock(block, timestamp uint64) *MockClock {
	return &MockClock{block: block, timestamp: timestamp}
}

func (c *MockClock) BlockNumber() uint64 { return c.block }
func (c *MockClock) Timestamp() uint64   { return c.timestamp }

func (c *MockClock) AdvanceBlocks(n uint64) {
	c.block += n
	c.timestamp += n * 15 // 15s/块
}

func (c *MockClock) AdvanceTime(seconds uint64) {
	c.timestamp += seconds
}

// MockVotesSource is a block-independent voting weight registry.
type MockVotesSource struct {
	weights map[common.Address]*big.Int
	current map[common.Address]*big.Int
	supply  *big.Int
}

func NewMockVotesSource(supply int64) *MockVotesSource {
	return &MockVotesSource{
		weights: make(map[common.Address]*big.Int),
		current: make(map[common.Address]*big.Int),
		supply:  big.NewInt(supply),
	}
}

func (m *MockVotesSource) SetWeight(addr common.Address, weight int64) {
	m.weights[addr] = big.NewInt(weight)
	m.current[addr] = big.NewInt(weight)
}

// SetCurrentWeight changes only the live weight, simulating a transfer after
// a past-block snapshot was taken.
func (m *MockVotesSource) SetCurrentWeight(addr common.Address, weight int64) {
	m.current[addr] = big.NewInt(weight)
}

func (m *MockVotesSource) WeightOf(addr common.Address, blockNumber uint64) *big.Int {
	if w, ok := m.weights[addr]; ok {
		return new(big.Int).Set(w)
	}
	return new(big.Int)
}

func (m *MockVotesSource) CurrentWeightOf(addr common.Address) *big.Int {
	if w, ok := m.current[addr]; ok {
		return new(big.Int).Set(w)
	}
	return new(big.Int)
}

func (m *MockVotesSource) TotalSupply() *big.Int {
	return new(big.Int).Set(m.supply)
}

// MockExecutor is an in-memory stand-in for the timelock.
type MockExecutor struct {
	delay      uint64
	grace      uint64
	clock      *MockClock
	queued     map[common.Hash]bool
	queueCalls int
	failOn     int // 1-based queue call index to fail on, 0 = never
	canceled   int
	executed   int
}

func NewMockExecutor(clock *MockClock) *MockExecutor {
	return &MockExecutor{
		delay:  172800,  // 2 天
		grace:  1209600, // 14 天
		clock:  clock,
		queued: make(map[common.Hash]bool),
	}
}

func (m *MockExecutor) txHash(target common.Address, eta uint64) common.Hash {
	var h common.Hash
	copy(h[:20], target[:])
	h[20] = byte(eta)
	h[21] = byte(eta >> 8)
	h[22] = byte(eta >> 16)
	h[23] = byte(eta >> 24)
	return h
}

func (m *MockExecutor) Delay() uint64       { return m.delay }
func (m *MockExecutor) GracePeriod() uint64 { return m.grace }

func (m *MockExecutor) QueueTransaction(target common.Address, value *big.Int, signature string, data []byte, eta uint64) (common.Hash, error) {
	m.queueCalls++
	if m.failOn > 0 && m.queueCalls >= m.failOn {
		return common.Hash{}, errors.New("executor rejected transaction")
	}
	hash := m.txHash(target, eta)
	m.queued[hash] = true
	return hash, nil
}

func (m *MockExecutor) CancelTransaction(target common.Address, value *big.Int, signature string, data []byte, eta uint64) error {
	hash := m.txHash(target, eta)
	if !m.queued[hash] {
		return errors.New("not queued")
	}
	delete(m.queued, hash)
	m.canceled++
	return nil
}

func (m *MockExecutor) ExecuteTransaction(target common.Address, value *big.Int, signature string, data []byte, eta uint64) ([]byte, error) {
	hash := m.txHash(target, eta)
	if !m.queued[hash] {
		return nil, errors.New("not queued")
	}
	if m.clock.Timestamp() < eta {
		return nil, errors.New("eta not reached")
	}
	delete(m.queued, hash)
	m.executed++
	return nil, nil
}

// MockTreasury custodies a fake native-currency balance.
type MockTreasury struct {
	balance *uint256.Int
	reject  bool
	lastTo  common.Address
	sent    *uint256.Int
}

func NewMockTreasury(balance uint64) *MockTreasury {
	return &MockTreasury{balance: uint256.NewInt(balance), sent: uint256.NewInt(0)}
}

func (m *MockTreasury) Balance() *uint256.Int {
	return m.balance.Clone()
}

func (m *MockTreasury) Transfer(to common.Address, amount *uint256.Int) bool {
	if m.reject {
		return false
	}
	m.lastTo = to
	m.sent.Add(m.sent, amount)
	m.balance = uint256.NewInt(0)
	return true
}

var (
	testAdmin    = common.HexToAddress("0xA0")
	testVetoer   = common.HexToAddress("0xB0")
	testProposer = common.HexToAddress("0x1")
	testVoter1   = common.HexToAddress("0x2")
	testVoter2   = common.HexToAddress("0x3")
	testOutsider = common.HexToAddress("0x9")
	testTarget   = common.HexToAddress("0xC0")
)

type engineFixture struct {
	engine   *GovernanceEngine
	clock    *MockClock
	votes    *MockVotesSource
	executor *MockExecutor
	treasury *MockTreasury
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	clock := NewMockClock(100, 1_000_000)
	votes := NewMockVotesSource(1000)
	executor := NewMockExecutor(clock)
	treasury := NewMockTreasury(100)

	config := &EngineConfig{
		VotingPeriod:         MinVotingPeriod,
		VotingDelay:          MinVotingDelay,
		ProposalThresholdBPS: 25, // threshold = 2 (1000 * 25 / 10000, truncated)
		QuorumParams: DynamicQuorumParams{
			MinQuorumVotesBPS: 1000, // 100 votes
			MaxQuorumVotesBPS: 1500, // 150 votes
			QuorumCoefficient: 500000,
		},
	}

	engine, err := NewGovernanceEngine(config, clock, votes, executor, treasury, testAdmin, testVetoer)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	votes.SetWeight(testProposer, 5)
	votes.SetWeight(testVoter1, 200)
	votes.SetWeight(testVoter2, 100)

	return &engineFixture{
		engine:   engine,
		clock:    clock,
		votes:    votes,
		executor: executor,
		treasury: treasury,
	}
}

// propose submits a single-action proposal and returns its id.
func (f *engineFixture) propose(t *testing.T) uint64 {
	t.Helper()

	id, err := f.engine.Propose(
		testProposer,
		[]common.Address{testTarget},
		[]*big.Int{big.NewInt(0)},
		[]string{"setValue(uint256)"},
		[][]byte{{0x01}},
		"test proposal",
	)
	if err != nil {
		t.Fatalf("failed to propose: %v", err)
	}
	return id
}

// openVoting advances the clock past the voting delay.
func (f *engineFixture) openVoting() {
	f.clock.AdvanceBlocks(MinVotingDelay + 1)
}

// closeVoting advances the clock past the voting window.
func (f *engineFixture) closeVoting() {
	f.clock.AdvanceBlocks(MinVotingPeriod + 1)
}

func TestEngine_ProposeLifecycle(t *testing.T) {
	f := newEngineFixture(t)

	id := f.propose(t)
	if id != 1 {
		t.Errorf("expected first proposal id 1, got %d", id)
	}

	state, err := f.engine.State(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != StatePending {
		t.Errorf("expected Pending, got %v", state)
	}

	f.openVoting()
	if state, _ = f.engine.State(id); state != StateActive {
		t.Errorf("expected Active, got %v", state)
	}

	if err := f.engine.CastVote(testVoter1, id, VoteFor); err != nil {
		t.Fatalf("failed to cast vote: %v", err)
	}

	f.closeVoting()
	if state, _ = f.engine.State(id); state != StateSucceeded {
		t.Errorf("expected Succeeded, got %v", state)
	}

	if err := f.engine.Queue(id); err != nil {
		t.Fatalf("failed to queue: %v", err)
	}
	if state, _ = f.engine.State(id); state != StateQueued {
		t.Errorf("expected Queued, got %v", state)
	}

	// Execution before eta must fail and leave the proposal queued.
	if err := f.engine.Execute(id); err == nil {
		t.Fatal("expected execute before eta to fail")
	}

	f.clock.AdvanceTime(f.executor.Delay() + 1)
	if err := f.engine.Execute(id); err != nil {
		t.Fatalf("failed to execute: %v", err)
	}
	if state, _ = f.engine.State(id); state != StateExecuted {
		t.Errorf("expected Executed, got %v", state)
	}
	if f.executor.executed != 1 {
		t.Errorf("expected 1 executed action, got %d", f.executor.executed)
	}
}

func TestEngine_ProposeBelowThreshold(t *testing.T) {
	f := newEngineFixture(t)
	f.votes.SetWeight(testProposer, 2) // threshold is 2, must exceed it

	_, err := f.engine.Propose(
		testProposer,
		[]common.Address{testTarget},
		[]*big.Int{big.NewInt(0)},
		[]string{""},
		[][]byte{nil},
		"below threshold",
	)
	if !errors.Is(err, ErrBelowThreshold) {
		t.Errorf("expected ErrBelowThreshold, got %v", err)
	}
}

func TestEngine_ProposeActionsMismatch(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Propose(
		testProposer,
		[]common.Address{testTarget, testTarget},
		[]*big.Int{big.NewInt(0)},
		[]string{"", ""},
		[][]byte{nil, nil},
		"mismatched",
	)
	if !errors.Is(err, ErrActionsMismatch) {
		t.Errorf("expected ErrActionsMismatch, got %v", err)
	}

	_, err = f.engine.Propose(testProposer, nil, nil, nil, nil, "empty")
	if !errors.Is(err, ErrActionsMismatch) {
		t.Errorf("expected ErrActionsMismatch for empty actions, got %v", err)
	}
}

func TestEngine_Defeated(t *testing.T) {
	f := newEngineFixture(t)

	// Below quorum: 50 for-votes against a 100-vote minimum quorum.
	f.votes.SetWeight(testVoter1, 50)
	id := f.propose(t)
	f.openVoting()
	if err := f.engine.CastVote(testVoter1, id, VoteFor); err != nil {
		t.Fatalf("failed to cast vote: %v", err)
	}
	f.closeVoting()

	state, _ := f.engine.State(id)
	if state != StateDefeated {
		t.Errorf("expected Defeated below quorum, got %v", state)
	}
	if err := f.engine.Queue(id); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition queueing defeated proposal, got %v", err)
	}
}

func TestEngine_DynamicQuorumRaisesBar(t *testing.T) {
	f := newEngineFixture(t)

	// 120 for vs 100 against: majority holds, but 10% against votes push
	// the quorum from 100 to 150, defeating the proposal.
	f.votes.SetWeight(testVoter1, 120)
	id := f.propose(t)
	f.openVoting()
	if err := f.engine.CastVote(testVoter1, id, VoteFor); err != nil {
		t.Fatalf("failed to cast for vote: %v", err)
	}
	if err := f.engine.CastVote(testVoter2, id, VoteAgainst); err != nil {
		t.Fatalf("failed to cast against vote: %v", err)
	}

	quorum, err := f.engine.QuorumVotes(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quorum.Cmp(big.NewInt(150)) != 0 {
		t.Errorf("expected quorum 150, got %v", quorum)
	}

	f.closeVoting()
	if state, _ := f.engine.State(id); state != StateDefeated {
		t.Errorf("expected Defeated under raised quorum, got %v", state)
	}
}

func TestEngine_DoubleVoteRejectedWithoutTallyChange(t *testing.T) {
	f := newEngineFixture(t)

	id := f.propose(t)
	f.openVoting()
	if err := f.engine.CastVote(testVoter1, id, VoteFor); err != nil {
		t.Fatalf("failed to cast vote: %v", err)
	}

	forBefore, againstBefore, abstainBefore := f.engine.Tally(id)
	if err := f.engine.CastVote(testVoter1, id, VoteAgainst); !errors.Is(err, ErrAlreadyVoted) {
		t.Errorf("expected ErrAlreadyVoted, got %v", err)
	}

	forAfter, againstAfter, abstainAfter := f.engine.Tally(id)
	if forBefore.Cmp(forAfter) != 0 || againstBefore.Cmp(againstAfter) != 0 || abstainBefore.Cmp(abstainAfter) != 0 {
		t.Error("rejected vote mutated the tally")
	}
}

func TestEngine_VoteWeightFixedAtCastTime(t *testing.T) {
	f := newEngineFixture(t)

	id := f.propose(t)
	f.openVoting()
	if err := f.engine.CastVote(testVoter1, id, VoteFor); err != nil {
		t.Fatalf("failed to cast vote: %v", err)
	}

	// Dropping the voter's live weight must not reweigh the receipt.
	f.votes.SetCurrentWeight(testVoter1, 0)

	receipt, ok := f.engine.Receipt(id, testVoter1)
	if !ok {
		t.Fatal("expected a receipt")
	}
	if receipt.Weight.Cmp(big.NewInt(200)) != 0 {
		t.Errorf("expected recorded weight 200, got %v", receipt.Weight)
	}
}

func TestEngine_VotingClosedOutsideWindow(t *testing.T) {
	f := newEngineFixture(t)

	id := f.propose(t)
	// Still pending: window has not opened.
	if err := f.engine.CastVote(testVoter1, id, VoteFor); !errors.Is(err, ErrVotingClosed) {
		t.Errorf("expected ErrVotingClosed while pending, got %v", err)
	}

	f.openVoting()
	f.closeVoting()
	if err := f.engine.CastVote(testVoter1, id, VoteFor); !errors.Is(err, ErrVotingClosed) {
		t.Errorf("expected ErrVotingClosed after window, got %v", err)
	}
}

func TestEngine_CancelByProposer(t *testing.T) {
	f := newEngineFixture(t)

	id := f.propose(t)
	if err := f.engine.Cancel(testProposer, id); err != nil {
		t.Fatalf("proposer cancel failed: %v", err)
	}

	state, _ := f.engine.State(id)
	if state != StateCanceled {
		t.Errorf("expected Canceled, got %v", state)
	}

	// A canceled proposal is final.
	if err := f.engine.Cancel(testProposer, id); !errors.Is(err, ErrAlreadyFinal) {
		t.Errorf("expected ErrAlreadyFinal, got %v", err)
	}
}

func TestEngine_CancelByThirdPartyAfterWeightDrop(t *testing.T) {
	f := newEngineFixture(t)

	id := f.propose(t)

	// Proposer still qualified: third-party cancel must fail.
	if err := f.engine.Cancel(testOutsider, id); !errors.Is(err, ErrProposerAboveThreshold) {
		t.Errorf("expected ErrProposerAboveThreshold, got %v", err)
	}

	// Proposer transfers weight away; anyone may cancel now.
	f.votes.SetCurrentWeight(testProposer, 1)
	if err := f.engine.Cancel(testOutsider, id); err != nil {
		t.Fatalf("third-party cancel failed: %v", err)
	}

	state, _ := f.engine.State(id)
	if state != StateCanceled {
		t.Errorf("expected Canceled, got %v", state)
	}
}

func TestEngine_CancelQueuedDequeuesActions(t *testing.T) {
	f := newEngineFixture(t)

	id := f.propose(t)
	f.openVoting()
	if err := f.engine.CastVote(testVoter1, id, VoteFor); err != nil {
		t.Fatalf("failed to cast vote: %v", err)
	}
	f.closeVoting()
	if err := f.engine.Queue(id); err != nil {
		t.Fatalf("failed to queue: %v", err)
	}

	if err := f.engine.Cancel(testProposer, id); err != nil {
		t.Fatalf("failed to cancel queued proposal: %v", err)
	}
	if f.executor.canceled != 1 {
		t.Errorf("expected 1 dequeued action, got %d", f.executor.canceled)
	}
}

func TestEngine_QueueRollbackOnExecutorFailure(t *testing.T) {
	f := newEngineFixture(t)

	id, err := f.engine.Propose(
		testProposer,
		[]common.Address{testTarget, common.HexToAddress("0xC1")},
		[]*big.Int{big.NewInt(0), big.NewInt(0)},
		[]string{"a()", "b()"},
		[][]byte{nil, nil},
		"two actions",
	)
	if err != nil {
		t.Fatalf("failed to propose: %v", err)
	}
	f.openVoting()
	if err := f.engine.CastVote(testVoter1, id, VoteFor); err != nil {
		t.Fatalf("failed to cast vote: %v", err)
	}
	f.closeVoting()

	// Fail the second action: the first must be rolled back and the
	// proposal must remain Succeeded.
	f.executor.failOn = 2
	if err := f.engine.Queue(id); err == nil {
		t.Fatal("expected queue to fail")
	}
	if len(f.executor.queued) != 0 {
		t.Errorf("expected no actions left queued, got %d", len(f.executor.queued))
	}
	if f.executor.canceled != 1 {
		t.Errorf("expected the accepted action to be rolled back, got %d cancels", f.executor.canceled)
	}
	if state, _ := f.engine.State(id); state != StateSucceeded {
		t.Errorf("expected proposal to remain Succeeded, got %v", state)
	}
}

func TestEngine_Expired(t *testing.T) {
	f := newEngineFixture(t)

	id := f.propose(t)
	f.openVoting()
	if err := f.engine.CastVote(testVoter1, id, VoteFor); err != nil {
		t.Fatalf("failed to cast vote: %v", err)
	}
	f.closeVoting()
	if err := f.engine.Queue(id); err != nil {
		t.Fatalf("failed to queue: %v", err)
	}

	f.clock.AdvanceTime(f.executor.Delay() + f.executor.GracePeriod() + 1)
	if state, _ := f.engine.State(id); state != StateExpired {
		t.Errorf("expected Expired, got %v", state)
	}
	if err := f.engine.Execute(id); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition executing expired proposal, got %v", err)
	}
}

func TestEngine_Veto(t *testing.T) {
	f := newEngineFixture(t)

	id := f.propose(t)
	if err := f.engine.Veto(testOutsider, id); !errors.Is(err, ErrVetoerOnly) {
		t.Errorf("expected ErrVetoerOnly, got %v", err)
	}

	if err := f.engine.Veto(testVetoer, id); err != nil {
		t.Fatalf("veto failed: %v", err)
	}
	if state, _ := f.engine.State(id); state != StateVetoed {
		t.Errorf("expected Vetoed, got %v", state)
	}
}

func TestEngine_VetoQueuedDequeuesActions(t *testing.T) {
	f := newEngineFixture(t)

	id := f.propose(t)
	f.openVoting()
	if err := f.engine.CastVote(testVoter1, id, VoteFor); err != nil {
		t.Fatalf("failed to cast vote: %v", err)
	}
	f.closeVoting()
	if err := f.engine.Queue(id); err != nil {
		t.Fatalf("failed to queue: %v", err)
	}

	if err := f.engine.Veto(testVetoer, id); err != nil {
		t.Fatalf("veto failed: %v", err)
	}
	if f.executor.canceled != 1 {
		t.Errorf("expected 1 dequeued action, got %d", f.executor.canceled)
	}
}

func TestEngine_VetoAfterCancelRejected(t *testing.T) {
	f := newEngineFixture(t)

	events := make(chan ProposalEvent, 8)
	sub := f.engine.SubscribeProposalEvents(events)
	defer sub.Unsubscribe()

	id := f.propose(t)
	if err := f.engine.Cancel(testProposer, id); err != nil {
		t.Fatalf("failed to cancel: %v", err)
	}

	// A canceled proposal is final: the vetoer cannot flip it to Vetoed,
	// and re-vetoing a vetoed proposal is equally rejected.
	if err := f.engine.Veto(testVetoer, id); !errors.Is(err, ErrAlreadyFinal) {
		t.Errorf("expected ErrAlreadyFinal vetoing canceled proposal, got %v", err)
	}
	if state, _ := f.engine.State(id); state != StateCanceled {
		t.Errorf("expected Canceled to remain, got %v", state)
	}

	other := f.propose(t)
	if err := f.engine.Veto(testVetoer, other); err != nil {
		t.Fatalf("veto failed: %v", err)
	}
	if err := f.engine.Veto(testVetoer, other); !errors.Is(err, ErrAlreadyFinal) {
		t.Errorf("expected ErrAlreadyFinal on double veto, got %v", err)
	}

	// Created, Canceled, Created, Vetoed: the rejected calls post nothing.
	wantKinds := []ProposalEventKind{
		ProposalCreated, ProposalCanceled, ProposalCreated, ProposalVetoed,
	}
	var kinds []ProposalEventKind
	for len(events) > 0 {
		kinds = append(kinds, (<-events).Kind)
	}
	if len(kinds) != len(wantKinds) {
		t.Fatalf("expected %d proposal events, got %d: %v", len(wantKinds), len(kinds), kinds)
	}
	for i, want := range wantKinds {
		if kinds[i] != want {
			t.Errorf("event %d: expected kind %v, got %v", i, want, kinds[i])
		}
	}
}

func TestEngine_CannotVetoExecuted(t *testing.T) {
	f := newEngineFixture(t)

	id := f.propose(t)
	f.openVoting()
	if err := f.engine.CastVote(testVoter1, id, VoteFor); err != nil {
		t.Fatalf("failed to cast vote: %v", err)
	}
	f.closeVoting()
	if err := f.engine.Queue(id); err != nil {
		t.Fatalf("failed to queue: %v", err)
	}
	f.clock.AdvanceTime(f.executor.Delay() + 1)
	if err := f.engine.Execute(id); err != nil {
		t.Fatalf("failed to execute: %v", err)
	}

	if err := f.engine.Veto(testVetoer, id); !errors.Is(err, ErrCannotVetoExecuted) {
		t.Errorf("expected ErrCannotVetoExecuted, got %v", err)
	}
}

func TestEngine_VetoerTransferRoundTrip(t *testing.T) {
	f := newEngineFixture(t)
	newVetoer := common.HexToAddress("0xB1")

	if err := f.engine.SetPendingVetoer(testVetoer, newVetoer); err != nil {
		t.Fatalf("failed to set pending vetoer: %v", err)
	}
	if err := f.engine.AcceptVetoer(testOutsider); !errors.Is(err, ErrPendingVetoerOnly) {
		t.Errorf("expected ErrPendingVetoerOnly, got %v", err)
	}
	if err := f.engine.AcceptVetoer(newVetoer); err != nil {
		t.Fatalf("failed to accept vetoer: %v", err)
	}

	// Old vetoer loses rights immediately.
	id := f.propose(t)
	if err := f.engine.Veto(testVetoer, id); !errors.Is(err, ErrVetoerOnly) {
		t.Errorf("expected ErrVetoerOnly for old vetoer, got %v", err)
	}
	if err := f.engine.Veto(newVetoer, id); err != nil {
		t.Fatalf("new vetoer veto failed: %v", err)
	}
}

func TestEngine_BurnVetoPowerClearsPending(t *testing.T) {
	f := newEngineFixture(t)
	pending := common.HexToAddress("0xB1")

	events := make(chan AuthorityEvent, 8)
	sub := f.engine.SubscribeAuthorityEvents(events)
	defer sub.Unsubscribe()

	if err := f.engine.SetPendingVetoer(testVetoer, pending); err != nil {
		t.Fatalf("failed to set pending vetoer: %v", err)
	}
	if err := f.engine.BurnVetoPower(testVetoer); err != nil {
		t.Fatalf("failed to burn veto power: %v", err)
	}

	if f.engine.Vetoer() != (common.Address{}) {
		t.Error("expected live vetoer to read as absent")
	}
	if err := f.engine.AcceptVetoer(pending); !errors.Is(err, ErrPendingVetoerOnly) {
		t.Errorf("expected ErrPendingVetoerOnly after burn, got %v", err)
	}
	if err := f.engine.SetPendingVetoer(testVetoer, pending); !errors.Is(err, ErrVetoPowerBurned) {
		t.Errorf("expected ErrVetoPowerBurned, got %v", err)
	}

	id := f.propose(t)
	if err := f.engine.Veto(testVetoer, id); !errors.Is(err, ErrVetoPowerBurned) {
		t.Errorf("expected ErrVetoPowerBurned on veto, got %v", err)
	}

	// Burn posts NewPendingVetoer(pending, 0) followed by NewVetoer(old, 0).
	var kinds []AuthorityEventKind
	for len(events) > 0 {
		kinds = append(kinds, (<-events).Kind)
	}
	if len(kinds) != 3 || kinds[1] != NewPendingVetoer || kinds[2] != NewVetoer {
		t.Errorf("unexpected authority event sequence: %v", kinds)
	}
}

func TestEngine_AdminTransferRoundTrip(t *testing.T) {
	f := newEngineFixture(t)
	newAdmin := common.HexToAddress("0xA1")

	if err := f.engine.SetPendingAdmin(testOutsider, newAdmin); !errors.Is(err, ErrAdminOnly) {
		t.Errorf("expected ErrAdminOnly, got %v", err)
	}
	if err := f.engine.SetPendingAdmin(testAdmin, newAdmin); err != nil {
		t.Fatalf("failed to set pending admin: %v", err)
	}
	if err := f.engine.AcceptAdmin(testOutsider); !errors.Is(err, ErrPendingAdminOnly) {
		t.Errorf("expected ErrPendingAdminOnly, got %v", err)
	}
	if err := f.engine.AcceptAdmin(newAdmin); err != nil {
		t.Fatalf("failed to accept admin: %v", err)
	}
	if f.engine.Admin() != newAdmin {
		t.Errorf("expected admin %s, got %s", newAdmin.Hex(), f.engine.Admin().Hex())
	}
	if f.engine.PendingAdmin() != (common.Address{}) {
		t.Error("expected pending admin cleared after accept")
	}
}

func TestEngine_Withdraw(t *testing.T) {
	f := newEngineFixture(t)

	events := make(chan WithdrawEvent, 1)
	sub := f.engine.SubscribeWithdrawEvents(events)
	defer sub.Unsubscribe()

	if _, _, err := f.engine.Withdraw(testOutsider); !errors.Is(err, ErrAdminOnly) {
		t.Errorf("expected ErrAdminOnly, got %v", err)
	}
	if f.treasury.sent.Sign() != 0 {
		t.Error("unauthorized withdraw moved funds")
	}

	amount, sent, err := f.engine.Withdraw(testAdmin)
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if !sent || !amount.Eq(uint256.NewInt(100)) {
		t.Errorf("expected (100, true), got (%v, %v)", amount, sent)
	}
	if f.treasury.lastTo != testAdmin {
		t.Errorf("expected transfer to admin, got %s", f.treasury.lastTo.Hex())
	}

	ev := <-events
	if !ev.Sent || !ev.Amount.Eq(uint256.NewInt(100)) {
		t.Errorf("expected Withdraw(100, true) event, got (%v, %v)", ev.Amount, ev.Sent)
	}
}

func TestEngine_WithdrawTransferFailureReported(t *testing.T) {
	f := newEngineFixture(t)
	f.treasury.reject = true

	events := make(chan WithdrawEvent, 1)
	sub := f.engine.SubscribeWithdrawEvents(events)
	defer sub.Unsubscribe()

	amount, sent, err := f.engine.Withdraw(testAdmin)
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if sent {
		t.Error("expected sent=false for rejected transfer")
	}
	if !amount.Eq(uint256.NewInt(100)) {
		t.Errorf("expected swept amount 100 reported, got %v", amount)
	}

	ev := <-events
	if ev.Sent {
		t.Error("expected Withdraw event with sent=false")
	}
}

func TestEngine_ParamSetters(t *testing.T) {
	f := newEngineFixture(t)

	if err := f.engine.SetVotingPeriod(testOutsider, MinVotingPeriod); !errors.Is(err, ErrAdminOnly) {
		t.Errorf("expected ErrAdminOnly, got %v", err)
	}
	if err := f.engine.SetVotingPeriod(testAdmin, MaxVotingPeriod+1); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("expected ErrInvalidParams, got %v", err)
	}
	if err := f.engine.SetVotingPeriod(testAdmin, 20000); err != nil {
		t.Fatalf("failed to set voting period: %v", err)
	}
	if f.engine.Config().VotingPeriod != 20000 {
		t.Errorf("voting period not updated")
	}

	if err := f.engine.SetDynamicQuorumParams(testAdmin, DynamicQuorumParams{
		MinQuorumVotesBPS: 100, // below lower bound
		MaxQuorumVotesBPS: 1500,
	}); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("expected ErrInvalidParams, got %v", err)
	}

	// Snapshot rule: an existing proposal keeps its creation-time params.
	id := f.propose(t)
	if err := f.engine.SetDynamicQuorumParams(testAdmin, DynamicQuorumParams{
		MinQuorumVotesBPS: 2000,
		MaxQuorumVotesBPS: 2000,
		QuorumCoefficient: 0,
	}); err != nil {
		t.Fatalf("failed to set quorum params: %v", err)
	}
	quorum, _ := f.engine.QuorumVotes(id)
	if quorum.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("expected snapshot quorum 100, got %v", quorum)
	}
}

func TestEngine_UnknownProposal(t *testing.T) {
	f := newEngineFixture(t)

	if _, err := f.engine.State(42); !errors.Is(err, ErrUnknownProposal) {
		t.Errorf("expected ErrUnknownProposal, got %v", err)
	}
	if err := f.engine.CastVote(testVoter1, 42, VoteFor); !errors.Is(err, ErrUnknownProposal) {
		t.Errorf("expected ErrUnknownProposal, got %v", err)
	}
	if err := f.engine.Cancel(testProposer, 42); !errors.Is(err, ErrUnknownProposal) {
		t.Errorf("expected ErrUnknownProposal, got %v", err)
	}
}

func TestEngine_LifecycleEvents(t *testing.T) {
	f := newEngineFixture(t)

	proposals := make(chan ProposalEvent, 8)
	votes := make(chan VoteCastEvent, 8)
	defer f.engine.SubscribeProposalEvents(proposals).Unsubscribe()
	defer f.engine.SubscribeVoteCastEvents(votes).Unsubscribe()

	id := f.propose(t)
	f.openVoting()
	if err := f.engine.CastVote(testVoter1, id, VoteFor); err != nil {
		t.Fatalf("failed to cast vote: %v", err)
	}
	f.closeVoting()
	if err := f.engine.Queue(id); err != nil {
		t.Fatalf("failed to queue: %v", err)
	}
	f.clock.AdvanceTime(f.executor.Delay() + 1)
	if err := f.engine.Execute(id); err != nil {
		t.Fatalf("failed to execute: %v", err)
	}

	wantKinds := []ProposalEventKind{ProposalCreated, ProposalQueued, ProposalExecuted}
	for i, want := range wantKinds {
		ev := <-proposals
		if ev.Kind != want || ev.ID != id {
			t.Errorf("event %d: expected kind %v for id %d, got kind %v id %d",
				i, want, id, ev.Kind, ev.ID)
		}
		if want == ProposalCreated && ev.Proposal == nil {
			t.Error("Created event missing proposal payload")
		}
	}

	voteEv := <-votes
	if voteEv.ProposalID != id || voteEv.Voter != testVoter1 ||
		voteEv.Support != VoteFor || voteEv.Weight.Cmp(big.NewInt(200)) != 0 {
		t.Errorf("unexpected vote event: %+v", voteEv)
	}
}
