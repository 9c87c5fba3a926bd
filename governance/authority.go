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
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// role is a live/pending address pair implementing the two-step ownership
// transfer pattern. The pending slot is cleared once the transfer is accepted
// or once the live role is burned.
type role struct {
	live    common.Address // 当前持有者
	pending common.Address // 待接受的新持有者
}

// AuthorityManager holds the admin and vetoer roles, their pending-transfer
// slots, and the access-control checks gating privileged operations. The
// vetoer may be permanently burned, after which no veto or vetoer transfer
// is possible.
type AuthorityManager struct {
	mu       sync.RWMutex
	admin    role
	vetoer   role
	treasury Treasury
}

// NewAuthorityManager creates an authority manager with the initial admin
// and vetoer. A zero vetoer means the veto power starts burned.
func NewAuthorityManager(admin, vetoer common.Address, treasury Treasury) *AuthorityManager {
	return &AuthorityManager{
		admin:    role{live: admin},
		vetoer:   role{live: vetoer},
		treasury: treasury,
	}
}

// Admin returns the live admin.
func (a *AuthorityManager) Admin() common.Address {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.admin.live
}

// PendingAdmin returns the pending admin, zero if none.
func (a *AuthorityManager) PendingAdmin() common.Address {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.admin.pending
}

// Vetoer returns the live vetoer, zero once burned.
func (a *AuthorityManager) Vetoer() common.Address {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.vetoer.live
}

// PendingVetoer returns the pending vetoer, zero if none.
func (a *AuthorityManager) PendingVetoer() common.Address {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.vetoer.pending
}

// VetoBurned reports whether the veto power has been permanently burned.
func (a *AuthorityManager) VetoBurned() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.vetoer.live == (common.Address{})
}

// CheckAdmin fails unless caller is the live admin.
func (a *AuthorityManager) CheckAdmin(caller common.Address) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if caller != a.admin.live {
		return ErrAdminOnly
	}
	return nil
}

// CheckVetoer fails unless caller is the live vetoer and the veto power has
// not been burned.
func (a *AuthorityManager) CheckVetoer(caller common.Address) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.vetoer.live == (common.Address{}) {
		return ErrVetoPowerBurned
	}
	if caller != a.vetoer.live {
		return ErrVetoerOnly
	}
	return nil
}

// SetPendingAdmin starts a two-step admin transfer. Admin only. Returns the
// previous pending admin.
func (a *AuthorityManager) SetPendingAdmin(caller, newPending common.Address) (common.Address, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if caller != a.admin.live {
		return common.Address{}, ErrAdminOnly
	}
	old := a.admin.pending
	a.admin.pending = newPending

	return old, nil
}

// AcceptAdmin completes an admin transfer. Pending admin only. Returns the
// previous admin.
func (a *AuthorityManager) AcceptAdmin(caller common.Address) (common.Address, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.admin.pending == (common.Address{}) || caller != a.admin.pending {
		return common.Address{}, ErrPendingAdminOnly
	}
	old := a.admin.live
	a.admin.live = a.admin.pending
	a.admin.pending = common.Address{}

	return old, nil
}

// SetPendingVetoer starts a two-step vetoer transfer. Vetoer only; fails
// permanently once the veto power is burned. Returns the previous pending
// vetoer.
func (a *AuthorityManager) SetPendingVetoer(caller, newPending common.Address) (common.Address, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.vetoer.live == (common.Address{}) {
		return common.Address{}, ErrVetoPowerBurned
	}
	if caller != a.vetoer.live {
		return common.Address{}, ErrVetoerOnly
	}
	old := a.vetoer.pending
	a.vetoer.pending = newPending

	return old, nil
}

// AcceptVetoer completes a vetoer transfer. Pending vetoer only. Returns the
// previous vetoer.
func (a *AuthorityManager) AcceptVetoer(caller common.Address) (common.Address, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.vetoer.pending == (common.Address{}) || caller != a.vetoer.pending {
		return common.Address{}, ErrPendingVetoerOnly
	}
	old := a.vetoer.live
	a.vetoer.live = a.vetoer.pending
	a.vetoer.pending = common.Address{}

	return old, nil
}

// BurnVetoPower permanently relinquishes the veto power. Vetoer only. Both
// the live vetoer and any pending vetoer are cleared; the returned values
// report what was cleared so the caller can emit the matching events.
func (a *AuthorityManager) BurnVetoPower(caller common.Address) (oldVetoer, oldPending common.Address, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.vetoer.live == (common.Address{}) {
		return common.Address{}, common.Address{}, ErrVetoPowerBurned
	}
	if caller != a.vetoer.live {
		return common.Address{}, common.Address{}, ErrVetoerOnly
	}

	oldVetoer = a.vetoer.live
	oldPending = a.vetoer.pending
	a.vetoer.live = common.Address{}
	a.vetoer.pending = common.Address{}

	return oldVetoer, oldPending, nil
}

// Withdraw sweeps the entire custodied balance to the admin. Admin only.
// A failed transfer is reported through sent=false rather than aborting, so
// the attempt stays observable.
func (a *AuthorityManager) Withdraw(caller common.Address) (amount *uint256.Int, sent bool, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if caller != a.admin.live {
		return nil, false, ErrAdminOnly
	}

	amount = a.treasury.Balance().Clone()
	sent = a.treasury.Transfer(a.admin.live, amount)

	return amount, sent, nil
}
