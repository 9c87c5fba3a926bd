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

import "errors"

// Proposal errors
var (
	ErrBelowThreshold  = errors.New("proposer weight is below the proposal threshold")
	ErrActionsMismatch = errors.New("proposal action sequences must share the same non-zero length")
	ErrTooManyActions  = errors.New("too many actions in proposal")
	ErrUnknownProposal = errors.New("proposal not found")
	ErrAlreadyFinal    = errors.New("proposal is in a final state")
)

// Voting errors
var (
	ErrVotingClosed   = errors.New("voting is closed for this proposal")
	ErrAlreadyVoted   = errors.New("voter has already voted on this proposal")
	ErrInvalidSupport = errors.New("invalid vote support value")
)

// Cancellation errors
var (
	ErrProposerAboveThreshold = errors.New("proposer still holds more weight than the proposal threshold")
)

// Authority errors
var (
	ErrAdminOnly          = errors.New("caller is not the admin")
	ErrPendingAdminOnly   = errors.New("caller is not the pending admin")
	ErrVetoerOnly         = errors.New("caller is not the vetoer")
	ErrPendingVetoerOnly  = errors.New("caller is not the pending vetoer")
	ErrVetoPowerBurned    = errors.New("veto power has been burned")
	ErrCannotVetoExecuted = errors.New("cannot veto an executed proposal")
)

// Lifecycle errors
var (
	ErrInvalidTransition = errors.New("invalid proposal state transition")
	ErrInvalidParams     = errors.New("governance parameter out of bounds")
)
