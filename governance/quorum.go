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

import "math/big"

const (
	// bpsDenominator is the basis-point scale: 10000 BPS = 100%.
	bpsDenominator = 10000

	// quorumCoefficientScale is the fixed-point scale of QuorumCoefficient.
	// A coefficient of 1e6 adds one BPS of quorum per BPS of against votes;
	// a coefficient of 0 yields a flat minimum quorum.
	quorumCoefficientScale = 1_000_000
)

// RequiredQuorum computes the dynamic quorum: the for-vote weight a proposal
// needs to pass given the current against-vote tally. The requirement grows
// with the share of against votes so that controversial proposals need
// broader support. All arithmetic is integer and truncating; the result is
// monotonically non-decreasing in againstVotes for a fixed supply and always
// lies within [MinQuorumVotesBPS, MaxQuorumVotesBPS] of the supply.
func RequiredQuorum(totalSupply, againstVotes *big.Int, params DynamicQuorumParams) *big.Int {
	if totalSupply == nil || totalSupply.Sign() == 0 {
		return new(big.Int)
	}
	if againstVotes == nil {
		againstVotes = new(big.Int)
	}

	// againstVotesBPS = againstVotes * 10000 / totalSupply
	againstBPS := new(big.Int).Mul(againstVotes, big.NewInt(bpsDenominator))
	againstBPS.Quo(againstBPS, totalSupply)

	// quorumBPS = min + againstVotesBPS * coefficient / 1e6, clamped to
	// [min, max].
	adjustment := new(big.Int).Mul(againstBPS, new(big.Int).SetUint64(uint64(params.QuorumCoefficient)))
	adjustment.Quo(adjustment, big.NewInt(quorumCoefficientScale))

	quorumBPS := new(big.Int).Add(big.NewInt(int64(params.MinQuorumVotesBPS)), adjustment)
	maxBPS := big.NewInt(int64(params.MaxQuorumVotesBPS))
	if quorumBPS.Cmp(maxBPS) > 0 {
		quorumBPS = maxBPS
	}

	// quorum = quorumBPS * totalSupply / 10000
	quorum := new(big.Int).Mul(quorumBPS, totalSupply)
	return quorum.Quo(quorum, big.NewInt(bpsDenominator))
}

// bpsOf returns bps basis points of amount, truncating.
func bpsOf(amount *big.Int, bps uint64) *big.Int {
	if amount == nil {
		return new(big.Int)
	}
	out := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	return out.Quo(out, big.NewInt(bpsDenominator))
}
