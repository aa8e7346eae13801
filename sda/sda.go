// sda.go - Statistical disclosure analysis.
// Copyright (C) 2024  CascadeMix Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package sda implements a statistical disclosure analysis over batched
// mix round observations, estimating a target sender's likely
// correspondents from sender/receiver co-occurrence across rounds.
package sda

import (
	"fmt"
	"math/rand"
	"sort"
)

// Target is the user identifier the analysis singles out. Traces are
// generated with user 0 as the observed sender.
const Target = 0

// Round is one observed mix round, recording which users sent into the
// batch and which users received out of it. Membership only, the mix
// hides the sender to receiver correspondence within a round.
type Round struct {
	Senders   []int
	Receivers []int
}

// sample draws k distinct values from population without replacement.
func sample(rng *rand.Rand, population []int, k int) []int {
	idx := rng.Perm(len(population))[:k]
	out := make([]int, k)
	for i, j := range idx {
		out[i] = population[j]
	}
	sort.Ints(out)
	return out
}

// GenerateTrace simulates numRounds mix rounds over numUsers users with
// threshold-many senders and receivers per round. In half the rounds the
// target (user 0) stays silent and all participants are drawn uniformly;
// in the other half the target sends to one of targetFriends. Round
// order is shuffled so round position carries no signal.
func GenerateTrace(rng *rand.Rand, numUsers, threshold, numRounds int, targetFriends []int) ([]Round, error) {
	if threshold < 1 || threshold > numUsers-1 {
		return nil, fmt.Errorf("sda: threshold %d is invalid for %d users", threshold, numUsers)
	}
	if len(targetFriends) == 0 {
		return nil, fmt.Errorf("sda: no target friends")
	}
	for _, f := range targetFriends {
		if f <= Target || f >= numUsers {
			return nil, fmt.Errorf("sda: friend %d is not a valid user", f)
		}
	}

	others := make([]int, numUsers-1)
	for i := range others {
		others[i] = i + 1
	}
	allUsers := make([]int, numUsers)
	for i := range allUsers {
		allUsers[i] = i
	}

	trace := make([]Round, 0, numRounds)

	// Rounds in which the target is not sending.
	for i := 0; i < numRounds/2; i++ {
		trace = append(trace, Round{
			Senders:   sample(rng, others, threshold),
			Receivers: sample(rng, allUsers, threshold),
		})
	}

	// Rounds in which the target sends to one of its friends.
	for i := 0; i < numRounds/2; i++ {
		friend := targetFriends[rng.Intn(len(targetFriends))]
		senders := append([]int{Target}, sample(rng, others, threshold-1)...)
		receivers := append([]int{friend}, sample(rng, allUsers, threshold-1)...)
		sort.Ints(senders)
		sort.Ints(receivers)
		trace = append(trace, Round{Senders: senders, Receivers: receivers})
	}

	rng.Shuffle(len(trace), func(i, j int) {
		trace[i], trace[j] = trace[j], trace[i]
	})
	return trace, nil
}

// Analyze returns the numFriends receiver identifiers that co-occur most
// often with rounds in which target appears as a sender, most frequent
// first. Ties break on the smaller identifier so the result is
// deterministic for a given trace.
func Analyze(trace []Round, numFriends, target int) []int {
	counts := make(map[int]int)
	for _, round := range trace {
		sending := false
		for _, s := range round.Senders {
			if s == target {
				sending = true
				break
			}
		}
		if !sending {
			continue
		}
		for _, r := range round.Receivers {
			counts[r]++
		}
	}

	suspects := make([]int, 0, len(counts))
	for id := range counts {
		suspects = append(suspects, id)
	}
	sort.Slice(suspects, func(i, j int) bool {
		if counts[suspects[i]] != counts[suspects[j]] {
			return counts[suspects[i]] > counts[suspects[j]]
		}
		return suspects[i] < suspects[j]
	})

	if numFriends > len(suspects) {
		numFriends = len(suspects)
	}
	return suspects[:numFriends]
}
