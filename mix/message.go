// message.go - Mix message types and wire codec.
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

// Package mix implements the cascade mix message format: the client-side
// layered encoder and the relay-side peel operation, bit-compatible with
// each other.
package mix

import (
	"encoding/binary"

	"github.com/cascademix/core/crypto/group"
	"github.com/cascademix/core/mix/internal/crypto"
)

const (
	// MaxAddressLength is the maximum length of a destination address in
	// bytes.
	MaxAddressLength = 256

	// MaxMessageLength is the maximum length of a message payload in bytes.
	MaxMessageLength = 1000

	// MACLength is the length of a wire MAC in bytes.
	MACLength = crypto.MACLength

	// AddressCiphertextLength is the length of the address ciphertext in
	// bytes: a 2 byte length prefix plus the fixed address field.
	AddressCiphertextLength = lengthPrefixLength + MaxAddressLength

	// MessageCiphertextLength is the length of the message ciphertext in
	// bytes: a 2 byte length prefix plus the fixed message field.
	MessageCiphertextLength = lengthPrefixLength + MaxMessageLength

	// lengthPrefixLength is the length of a plaintext envelope's big-endian
	// length prefix in bytes.
	lengthPrefixLength = 2
)

// OneHopMessage is a message destined for a single mix: the degenerate
// instance of the format with no MAC chaining and no forward blinding.
type OneHopMessage struct {
	// PublicKey is the client's ephemeral group element.
	PublicKey *group.PublicKey

	// MAC authenticates the address and message ciphertexts.
	MAC []byte

	// Address is the address ciphertext.
	Address []byte

	// Message is the message ciphertext.
	Message []byte
}

func (m *OneHopMessage) validate() error {
	if m.PublicKey == nil ||
		len(m.MAC) != MACLength ||
		len(m.Address) != AddressCiphertextLength ||
		len(m.Message) != MessageCiphertextLength {
		return ErrMalformedMessage
	}
	return nil
}

// ToBytes appends the wire serialization of the message to b and returns
// the resulting slice.
func (m *OneHopMessage) ToBytes(b []byte) []byte {
	b = append(b, m.PublicKey.Bytes()...)
	b = append(b, m.MAC...)
	b = append(b, m.Address...)
	b = append(b, m.Message...)
	return b
}

// OneHopMessageFromBytes deserializes a wire one-hop message, validating
// the format before anything else touches it.
func OneHopMessageFromBytes(b []byte) (*OneHopMessage, error) {
	const totalLength = group.GroupElementLength + MACLength +
		AddressCiphertextLength + MessageCiphertextLength
	if len(b) != totalLength {
		return nil, ErrMalformedMessage
	}

	m := new(OneHopMessage)
	m.PublicKey = new(group.PublicKey)
	if err := m.PublicKey.FromBytes(b[:group.GroupElementLength]); err != nil {
		return nil, ErrMalformedMessage
	}
	b = b[group.GroupElementLength:]
	m.MAC = append([]byte{}, b[:MACLength]...)
	b = b[MACLength:]
	m.Address = append([]byte{}, b[:AddressCiphertextLength]...)
	b = b[AddressCiphertextLength:]
	m.Message = append([]byte{}, b...)
	return m, nil
}

// Message is a message traversing a cascade of mixes.  The MAC list holds
// one entry per relay not yet traversed, order-significant: MACs[0] is the
// next relay's own MAC over everything that relay will see.
type Message struct {
	// PublicKey is the evolving group element: the client's ephemeral key
	// at the first relay, blinded forward by each relay thereafter.
	PublicKey *group.PublicKey

	// MACs is the remaining MAC chain, peeled front-first.
	MACs [][]byte

	// Address is the address ciphertext.
	Address []byte

	// Message is the message ciphertext.
	Message []byte
}

func (m *Message) validate() error {
	if m.PublicKey == nil ||
		len(m.MACs) == 0 ||
		len(m.MACs[0]) != MACLength ||
		len(m.Address) != AddressCiphertextLength ||
		len(m.Message) != MessageCiphertextLength {
		return ErrMalformedMessage
	}
	return nil
}

// ToBytes appends the wire serialization of the message to b and returns
// the resulting slice.  The MAC count is implicit in the total length.
func (m *Message) ToBytes(b []byte) []byte {
	b = append(b, m.PublicKey.Bytes()...)
	for _, mac := range m.MACs {
		b = append(b, mac...)
	}
	b = append(b, m.Address...)
	b = append(b, m.Message...)
	return b
}

// MessageFromBytes deserializes a wire n-hop message, validating the format
// before anything else touches it.
func MessageFromBytes(b []byte) (*Message, error) {
	const fixedLength = group.GroupElementLength + AddressCiphertextLength +
		MessageCiphertextLength
	macsLength := len(b) - fixedLength
	if macsLength < MACLength || macsLength%MACLength != 0 {
		return nil, ErrMalformedMessage
	}

	m := new(Message)
	m.PublicKey = new(group.PublicKey)
	if err := m.PublicKey.FromBytes(b[:group.GroupElementLength]); err != nil {
		return nil, ErrMalformedMessage
	}
	b = b[group.GroupElementLength:]
	m.MACs = make([][]byte, 0, macsLength/MACLength)
	for i := 0; i < macsLength/MACLength; i++ {
		m.MACs = append(m.MACs, append([]byte{}, b[:MACLength]...))
		b = b[MACLength:]
	}
	m.Address = append([]byte{}, b[:AddressCiphertextLength]...)
	b = b[AddressCiphertextLength:]
	m.Message = append([]byte{}, b...)
	return m, nil
}

// encodeEnvelope packs data into a plaintext envelope: a big-endian uint16
// length followed by the zero-padded fixed-size field.
func encodeEnvelope(data []byte, fieldLength int) []byte {
	out := make([]byte, lengthPrefixLength+fieldLength)
	binary.BigEndian.PutUint16(out[0:lengthPrefixLength], uint16(len(data)))
	copy(out[lengthPrefixLength:], data)
	return out
}

// decodeEnvelope truncates a decrypted plaintext envelope to its declared
// length.
func decodeEnvelope(b []byte, fieldLength int) ([]byte, error) {
	declared := int(binary.BigEndian.Uint16(b[0:lengthPrefixLength]))
	if declared > fieldLength {
		return nil, ErrMalformedMessage
	}
	return b[lengthPrefixLength : lengthPrefixLength+declared], nil
}
