// message_test.go - Mix message wire codec tests.
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

	"github.com/cascademix/core/crypto/group"
	"github.com/cascademix/core/crypto/rand"
)

func TestMessageWireCodec(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	pubs, _ := genCascade(t, 3)
	msg, err := Encode(rand.Reader, pubs, []byte("x@example"), []byte("wire me"))
	require.NoError(err)

	wire := msg.ToBytes(nil)
	parsed, err := MessageFromBytes(wire)
	require.NoError(err)

	assert.True(parsed.PublicKey.Equal(msg.PublicKey))
	require.Len(parsed.MACs, len(msg.MACs))
	for i := range msg.MACs {
		assert.Equal(msg.MACs[i], parsed.MACs[i])
	}
	assert.Equal(msg.Address, parsed.Address)
	assert.Equal(msg.Message, parsed.Message)
	assert.Equal(wire, parsed.ToBytes(nil))
}

func TestMessageFromBytesMalformed(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	pubs, _ := genCascade(t, 2)
	msg, err := Encode(rand.Reader, pubs, []byte("x@example"), []byte("m"))
	require.NoError(err)
	wire := msg.ToBytes(nil)

	// Truncation off a MAC boundary.
	_, err = MessageFromBytes(wire[:len(wire)-1])
	assert.Equal(ErrMalformedMessage, err)

	// Too short to hold even one MAC.
	_, err = MessageFromBytes(wire[:group.GroupElementLength+AddressCiphertextLength+MessageCiphertextLength])
	assert.Equal(ErrMalformedMessage, err)

	// A non-canonical group element encoding is rejected up front.
	bad := append([]byte{}, wire...)
	for i := 0; i < group.GroupElementLength; i++ {
		bad[i] = 0xff
	}
	_, err = MessageFromBytes(bad)
	assert.Equal(ErrMalformedMessage, err)
}

func TestOneHopMessageFromBytesMalformed(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	pubs, _ := genCascade(t, 1)
	msg, err := EncodeOneHop(rand.Reader, pubs[0], []byte("x@example"), []byte("m"))
	require.NoError(err)
	wire := msg.ToBytes(nil)

	_, err = OneHopMessageFromBytes(wire[:len(wire)-1])
	assert.Equal(ErrMalformedMessage, err)
	_, err = OneHopMessageFromBytes(append(wire, 0x00))
	assert.Equal(ErrMalformedMessage, err)
}

func TestUnwrapMalformed(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	pubs, nodes := genCascade(t, 1)
	msg, err := Encode(rand.Reader, pubs, []byte("x@example"), []byte("m"))
	require.NoError(err)

	short := &Message{
		PublicKey: msg.PublicKey,
		MACs:      msg.MACs,
		Address:   msg.Address[:10],
		Message:   msg.Message,
	}
	_, _, err = nodes[0].Unwrap(short)
	assert.Equal(ErrMalformedMessage, err)

	noMACs := &Message{
		PublicKey: msg.PublicKey,
		Address:   msg.Address,
		Message:   msg.Message,
	}
	_, _, err = nodes[0].Unwrap(noMACs)
	assert.Equal(ErrMalformedMessage, err)
}
