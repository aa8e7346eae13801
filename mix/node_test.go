// node_test.go - Mix batch processing tests.
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

package mix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cascademix/core/crypto/rand"
)

func TestProcessBatchReordersDeliveries(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	pubs, nodes := genCascade(t, 1)

	// Arrival order carol, alice, bob.
	addresses := []string{"carol@example", "alice@example", "bob@example"}
	batch := make([]*Message, 0, len(addresses))
	for _, a := range addresses {
		msg, err := Encode(rand.Reader, pubs, []byte(a), []byte("payload for "+a))
		require.NoError(err)
		batch = append(batch, msg)
	}

	forwards, deliveries := nodes[0].ProcessBatch(batch)
	assert.Empty(forwards)
	require.Len(deliveries, 3)

	// Departure order is lexicographic, independent of arrival order.
	assert.Equal([]byte("alice@example"), deliveries[0].Address)
	assert.Equal([]byte("bob@example"), deliveries[1].Address)
	assert.Equal([]byte("carol@example"), deliveries[2].Address)
	assert.Equal([]byte("payload for bob@example"), deliveries[1].Payload)
}

func TestProcessBatchDropsFailures(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	pubs, nodes := genCascade(t, 1)

	batch := make([]*Message, 0, 3)
	for _, a := range []string{"a@example", "b@example", "c@example"} {
		msg, err := Encode(rand.Reader, pubs, []byte(a), []byte("x"))
		require.NoError(err)
		batch = append(batch, msg)
	}

	// Corrupt the middle message only.
	batch[1].Message[0] ^= 0xff

	_, deliveries := nodes[0].ProcessBatch(batch)
	require.Len(deliveries, 2)
	assert.Equal([]byte("a@example"), deliveries[0].Address)
	assert.Equal([]byte("c@example"), deliveries[1].Address)
}

func TestProcessBatchForwardOrder(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	pubs, nodes := genCascade(t, 2)

	batch := make([]*Message, 0, 3)
	for _, a := range []string{"zz@example", "mm@example", "aa@example"} {
		msg, err := Encode(rand.Reader, pubs, []byte(a), []byte("x"))
		require.NoError(err)
		batch = append(batch, msg)
	}

	forwards, deliveries := nodes[0].ProcessBatch(batch)
	assert.Empty(deliveries)
	require.Len(forwards, 3)

	// Forwards keep arrival order; the exit confirms which was which.
	for i, want := range []string{"zz@example", "mm@example", "aa@example"} {
		_, delivery, err := nodes[1].Unwrap(forwards[i])
		require.NoError(err)
		assert.Equal([]byte(want), delivery.Address)
	}
}

func TestProcessOneHopBatch(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	pubs, nodes := genCascade(t, 1)

	batch := make([]*OneHopMessage, 0, 3)
	for _, a := range []string{"c@example", "a@example", "b@example"} {
		msg, err := EncodeOneHop(rand.Reader, pubs[0], []byte(a), []byte("y"))
		require.NoError(err)
		batch = append(batch, msg)
	}
	batch[2].MAC[0] ^= 0x01

	deliveries := nodes[0].ProcessOneHopBatch(batch)
	require.Len(deliveries, 2)
	assert.Equal([]byte("a@example"), deliveries[0].Address)
	assert.Equal([]byte("c@example"), deliveries[1].Address)
}
