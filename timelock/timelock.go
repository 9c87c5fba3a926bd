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

// Package timelock provides an in-memory delay-then-execute component
// implementing the governance.Executor interface. A queued transaction is
// held until its eta opens, may be canceled before execution, and becomes
// stale once the grace period after eta lapses.
package timelock

import (
	"encoding/binary"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"

	"github.com/XingyuLi20/gobblers-dao/governance"
)

const (
	// GracePeriod is the seconds after eta during which a queued
	// transaction remains executable.
	GracePeriod = 14 * 24 * 3600

	// MinDelay and MaxDelay bound the queue-to-execute delay.
	MinDelay = 2 * 24 * 3600
	MaxDelay = 30 * 24 * 3600
)

var (
	ErrDelayOutOfRange   = errors.New("timelock delay out of range")
	ErrEtaTooSoon        = errors.New("eta must satisfy the timelock delay")
	ErrAlreadyQueued     = errors.New("transaction already queued at this eta")
	ErrNotQueued         = errors.New("transaction is not queued")
	ErrNotReady          = errors.New("transaction has not surpassed its eta")
	ErrStale             = errors.New("transaction is stale")
	ErrAdminOnly         = errors.New("caller is not the timelock admin")
	ErrPendingAdminOnly  = errors.New("caller is not the pending timelock admin")
)

// Transaction is a queued or executed timelock transaction.
type Transaction struct {
	Target    common.Address // 目标地址
	Value     *big.Int       // 转账金额
	Signature string         // 函数签名
	Data      []byte         // 调用数据
	Eta       uint64         // 可执行时间戳
}

// Hash returns the identity of the transaction in the queue.
func (tx *Transaction) Hash() common.Hash {
	var eta [8]byte
	binary.BigEndian.PutUint64(eta[:], tx.Eta)

	value := tx.Value
	if value == nil {
		value = new(big.Int)
	}
	return crypto.Keccak256Hash(
		tx.Target.Bytes(), value.Bytes(), []byte(tx.Signature), tx.Data, eta[:])
}

// Timelock holds queued transactions until their eta opens. The engine that
// owns it is its admin; admin control itself hands off through the same
// two-step pending/accept protocol the governance roles use.
type Timelock struct {
	mu           sync.Mutex
	clock        governance.ChainClock
	admin        common.Address
	pendingAdmin common.Address
	delay        uint64
	queued       map[common.Hash]*Transaction
	executed     []*Transaction
}

var _ governance.Executor = (*Timelock)(nil)

// New creates a timelock with the given admin and delay in seconds.
func New(admin common.Address, delay uint64, clock governance.ChainClock) (*Timelock, error) {
	if delay < MinDelay || delay > MaxDelay {
		return nil, ErrDelayOutOfRange
	}
	return &Timelock{
		clock:  clock,
		admin:  admin,
		delay:  delay,
		queued: make(map[common.Hash]*Transaction),
	}, nil
}

// Admin returns the current timelock admin.
func (t *Timelock) Admin() common.Address {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.admin
}

// PendingAdmin returns the pending timelock admin, zero if none.
func (t *Timelock) PendingAdmin() common.Address {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pendingAdmin
}

// SetPendingAdmin starts the two-step admin handoff. Admin only.
func (t *Timelock) SetPendingAdmin(caller, newPending common.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if caller != t.admin {
		return ErrAdminOnly
	}
	t.pendingAdmin = newPending
	return nil
}

// AcceptAdmin completes the two-step admin handoff. Pending admin only.
func (t *Timelock) AcceptAdmin(caller common.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pendingAdmin == (common.Address{}) || caller != t.pendingAdmin {
		return ErrPendingAdminOnly
	}
	t.admin = t.pendingAdmin
	t.pendingAdmin = common.Address{}
	return nil
}

// Delay returns the queue-to-execute delay in seconds.
func (t *Timelock) Delay() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.delay
}

// GracePeriod returns the post-eta execution window in seconds.
func (t *Timelock) GracePeriod() uint64 {
	return GracePeriod
}

// QueueTransaction queues an action for execution at eta. The eta must be at
// least the delay away, and the same action cannot be queued twice at the
// same eta.
func (t *Timelock) QueueTransaction(target common.Address, value *big.Int, signature string, data []byte, eta uint64) (common.Hash, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if eta < t.clock.Timestamp()+t.delay {
		return common.Hash{}, ErrEtaTooSoon
	}

	tx := &Transaction{Target: target, Value: value, Signature: signature, Data: data, Eta: eta}
	hash := tx.Hash()
	if _, exists := t.queued[hash]; exists {
		return common.Hash{}, ErrAlreadyQueued
	}
	t.queued[hash] = tx

	log.Debug("Timelock transaction queued", "hash", hash.Hex(), "eta", eta)
	return hash, nil
}

// CancelTransaction removes a queued action.
func (t *Timelock) CancelTransaction(target common.Address, value *big.Int, signature string, data []byte, eta uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	tx := &Transaction{Target: target, Value: value, Signature: signature, Data: data, Eta: eta}
	hash := tx.Hash()
	if _, exists := t.queued[hash]; !exists {
		return ErrNotQueued
	}
	delete(t.queued, hash)

	log.Debug("Timelock transaction canceled", "hash", hash.Hex())
	return nil
}

// ExecuteTransaction executes a queued action once its eta has passed and
// before the grace period lapses. Execution is recorded, not interpreted;
// dispatching the encoded call is the host environment's concern.
func (t *Timelock) ExecuteTransaction(target common.Address, value *big.Int, signature string, data []byte, eta uint64) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tx := &Transaction{Target: target, Value: value, Signature: signature, Data: data, Eta: eta}
	hash := tx.Hash()
	if _, exists := t.queued[hash]; !exists {
		return nil, ErrNotQueued
	}

	now := t.clock.Timestamp()
	if now < eta {
		return nil, ErrNotReady
	}
	if now > eta+GracePeriod {
		return nil, ErrStale
	}

	delete(t.queued, hash)
	t.executed = append(t.executed, tx)

	log.Info("Timelock transaction executed", "hash", hash.Hex(), "target", target.Hex())
	return hash.Bytes(), nil
}

// IsQueued reports whether an action is currently queued.
func (t *Timelock) IsQueued(target common.Address, value *big.Int, signature string, data []byte, eta uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	tx := &Transaction{Target: target, Value: value, Signature: signature, Data: data, Eta: eta}
	_, exists := t.queued[tx.Hash()]
	return exists
}

// Executed returns the transactions executed so far, in execution order.
func (t *Timelock) Executed() []*Transaction {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*Transaction, len(t.executed))
	for i, tx := range t.executed {
		txCopy := *tx
		out[i] = &txCopy
	}
	return out
}
