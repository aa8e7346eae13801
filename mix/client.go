// client.go - Client-side mix message encoders.
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
	"io"

	"github.com/cascademix/core/crypto/group"
	"github.com/cascademix/core/mix/internal/crypto"
	"github.com/cascademix/core/utils"
)

// EncodeOneHop encodes a message to travel through a single mix with the
// given public key.  The ephemeral scalar is sampled from r, which MUST be a
// CSPRNG: reusing an ephemeral scalar across messages breaks the single-use
// key material assumption the zero-IV policy rests on.
func EncodeOneHop(r io.Reader, relayPub *group.PublicKey, address, message []byte) (*OneHopMessage, error) {
	if len(address) > MaxAddressLength || len(message) > MaxMessageLength {
		return nil, ErrEncodingOverflow
	}

	addressCT := encodeEnvelope(address, MaxAddressLength)
	messageCT := encodeEnvelope(message, MaxMessageLength)

	privKey, err := group.NewKeypair(r)
	if err != nil {
		return nil, err
	}
	defer privKey.Reset()
	clientPub := new(group.PublicKey)
	if err = clientPub.FromBytes(privKey.PublicKey().Bytes()); err != nil {
		panic("mix: BUG: failed to copy own public key: " + err.Error())
	}

	sharedElement := privKey.Exp(relayPub)
	defer utils.ExplicitBzero(sharedElement)
	keys := crypto.KDF(sharedElement)
	defer keys.Reset()

	crypto.NewStream(&keys.AddressKey, crypto.ZeroIV()).XORKeyStream(addressCT, addressCT)
	crypto.NewStream(&keys.MessageKey, crypto.ZeroIV()).XORKeyStream(messageCT, messageCT)

	m := crypto.NewMAC(&keys.MACKey)
	m.Write(addressCT)
	m.Write(messageCT)
	mac := crypto.TruncateMAC(m.Sum(nil))

	return &OneHopMessage{
		PublicKey: clientPub,
		MAC:       mac,
		Address:   addressCT,
		Message:   messageCT,
	}, nil
}

// Encode encodes a message to travel through the fixed cascade of relays
// whose public keys are given in traversal order.  The same CSPRNG
// precondition as EncodeOneHop applies to r.
func Encode(r io.Reader, relayPubs []*group.PublicKey, address, message []byte) (*Message, error) {
	if len(relayPubs) == 0 {
		return nil, ErrEmptyCascade
	}
	if len(address) > MaxAddressLength || len(message) > MaxMessageLength {
		return nil, ErrEncodingOverflow
	}

	privKey, err := group.NewKeypair(r)
	if err != nil {
		return nil, err
	}
	defer privKey.Reset()
	clientPub := new(group.PublicKey)
	if err = clientPub.FromBytes(privKey.PublicKey().Bytes()); err != nil {
		panic("mix: BUG: failed to copy own public key: " + err.Error())
	}

	// Forward pass: derive the per-hop key material by chaining the
	// ephemeral private key through each hop's blinding factor.
	keys := make([]*crypto.KeyMaterial, len(relayPubs))
	for i, relayPub := range relayPubs {
		sharedElement := privKey.Exp(relayPub)
		keys[i] = crypto.KDF(sharedElement)
		utils.ExplicitBzero(sharedElement)
		defer keys[i].Reset()

		bf, err := group.BlindingFactorFromSeed(keys[i].BlindingSeed[:])
		if err != nil {
			panic("mix: BUG: invalid blinding seed: " + err.Error())
		}
		privKey.Blind(bf)
		bf.Reset()
	}

	// Reverse pass: nest the layers back to front, so the innermost applied
	// wrap corresponds to the last relay and macs[0] authenticates
	// everything the first relay will see.
	addressCT := encodeEnvelope(address, MaxAddressLength)
	messageCT := encodeEnvelope(message, MaxMessageLength)
	macs := make([][]byte, 0, len(relayPubs))

	for i := len(keys) - 1; i >= 0; i-- {
		crypto.NewStream(&keys[i].AddressKey, crypto.ZeroIV()).XORKeyStream(addressCT, addressCT)
		crypto.NewStream(&keys[i].MessageKey, crypto.ZeroIV()).XORKeyStream(messageCT, messageCT)

		m := crypto.NewMAC(&keys[i].MACKey)
		// Re-encrypt the later hops' MACs under this hop's MAC key.  The
		// key repeats across list entries, so each position gets its own IV.
		for j, laterMAC := range macs {
			crypto.NewStream(&keys[i].MACKey, crypto.PositionalIV(j)).XORKeyStream(laterMAC, laterMAC)
			m.Write(laterMAC)
		}
		m.Write(addressCT)
		m.Write(messageCT)
		mac := crypto.TruncateMAC(m.Sum(nil))

		macs = append([][]byte{mac}, macs...) // Prepend.
	}

	return &Message{
		PublicKey: clientPub,
		MACs:      macs,
		Address:   addressCT,
		Message:   messageCT,
	}, nil
}
