// group.go - ristretto255 group adapter.
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

// Package group provides key pairs and blinding operations over the
// ristretto255 prime-order group.
package group

import (
	"errors"
	"io"

	"github.com/gtank/ristretto255"

	"github.com/cascademix/core/utils"
)

const (
	// GroupElementLength is the length of an encoded group element in bytes.
	GroupElementLength = 32

	// ScalarLength is the length of an encoded scalar in bytes.
	ScalarLength = 32

	// BlindingSeedLength is the length of the seed a blinding factor is
	// derived from.
	BlindingSeedLength = 16

	// scalarUniformLength is the length of the uniform input to wide scalar
	// reduction.
	scalarUniformLength = 64
)

var (
	// ErrInvalidGroupElement is the error returned when a byte serialized
	// group element is not a valid canonical encoding.
	ErrInvalidGroupElement = errors.New("group: invalid group element")

	// ErrInvalidScalar is the error returned when a byte serialized scalar
	// is not a valid canonical encoding.
	ErrInvalidScalar = errors.New("group: invalid scalar")

	// ErrInvalidSeedLength is the error returned when a blinding seed is not
	// BlindingSeedLength bytes.
	ErrInvalidSeedLength = errors.New("group: invalid blinding seed length")
)

// BlindingFactor is a scalar used to evolve a key, identically on the client
// side (against private scalars) and the relay side (against the message's
// public group element).
type BlindingFactor struct {
	s *ristretto255.Scalar
}

// BlindingFactorFromSeed deterministically parses a blinding factor from a
// BlindingSeedLength byte seed.  The seed is zero-extended to a canonical
// scalar encoding, so the result is always a valid scalar.
func BlindingFactorFromSeed(seed []byte) (*BlindingFactor, error) {
	if len(seed) != BlindingSeedLength {
		return nil, ErrInvalidSeedLength
	}

	var raw [ScalarLength]byte
	copy(raw[:BlindingSeedLength], seed)

	s := ristretto255.NewScalar()
	if err := s.Decode(raw[:]); err != nil {
		// Can't happen, a BlindingSeedLength byte value is always below the
		// group order.
		return nil, ErrInvalidScalar
	}
	return &BlindingFactor{s: s}, nil
}

// Reset clears the blinding factor.
func (b *BlindingFactor) Reset() {
	b.s = ristretto255.NewScalar()
}

// PublicKey is a ristretto255 group element.
type PublicKey struct {
	e       *ristretto255.Element
	encoded [GroupElementLength]byte
}

// Bytes returns the canonical encoding of the group element.
func (k *PublicKey) Bytes() []byte {
	return k.encoded[:]
}

// FromBytes deserializes the group element, rejecting anything that is not a
// valid canonical encoding.
func (k *PublicKey) FromBytes(b []byte) error {
	if len(b) != GroupElementLength {
		return ErrInvalidGroupElement
	}

	e := ristretto255.NewElement()
	if err := e.Decode(b); err != nil {
		return ErrInvalidGroupElement
	}
	k.e = e
	copy(k.encoded[:], b)
	return nil
}

// Equal returns true iff the two public keys are the same group element.
// The comparison is done in constant time.
func (k *PublicKey) Equal(cmp *PublicKey) bool {
	return k.e.Equal(cmp.e) == 1
}

// Blind mutates the public key into blindingFactor * publicKey.
func (k *PublicKey) Blind(blindingFactor *BlindingFactor) {
	k.e.ScalarMult(blindingFactor.s, k.e)
	k.rebuildCache()
}

// Reset clears the public key to the group identity.
func (k *PublicKey) Reset() {
	k.e = ristretto255.NewElement()
	utils.ExplicitBzero(k.encoded[:])
}

// KeyType returns the key type string, for PEM serialization.
func (k *PublicKey) KeyType() string {
	return "ristretto255 public key"
}

func (k *PublicKey) rebuildCache() {
	copy(k.encoded[:], k.e.Encode(nil))
}

// PrivateKey is a ristretto255 scalar along with its cached public key.
type PrivateKey struct {
	s      *ristretto255.Scalar
	pubKey *PublicKey
}

// NewKeypair generates a new PrivateKey (and cached PublicKey) sampled from
// the provided entropy source.  The caller MUST NOT reuse entropy across
// messages; see rand.Reader.
func NewKeypair(rng io.Reader) (*PrivateKey, error) {
	var seed [scalarUniformLength]byte
	defer utils.ExplicitBzero(seed[:])
	if _, err := io.ReadFull(rng, seed[:]); err != nil {
		return nil, err
	}

	k := new(PrivateKey)
	k.s = ristretto255.NewScalar().FromUniformBytes(seed[:])
	k.derivePublic()
	return k, nil
}

// PublicKey returns the PublicKey corresponding to the PrivateKey.
func (k *PrivateKey) PublicKey() *PublicKey {
	return k.pubKey
}

// Bytes returns the canonical encoding of the private scalar.
func (k *PrivateKey) Bytes() []byte {
	return k.s.Encode(nil)
}

// FromBytes deserializes the private scalar and rederives the cached public
// key.
func (k *PrivateKey) FromBytes(b []byte) error {
	if len(b) != ScalarLength {
		return ErrInvalidScalar
	}

	s := ristretto255.NewScalar()
	if err := s.Decode(b); err != nil {
		return ErrInvalidScalar
	}
	k.s = s
	k.derivePublic()
	return nil
}

// Exp computes the shared group element privateKey * publicKey and returns
// its canonical encoding.
func (k *PrivateKey) Exp(pub *PublicKey) []byte {
	e := ristretto255.NewElement().ScalarMult(k.s, pub.e)
	return e.Encode(nil)
}

// Blind mutates the private key into blindingFactor * privateKey (mod the
// group order), and rederives the cached public key.
func (k *PrivateKey) Blind(blindingFactor *BlindingFactor) {
	k.s.Multiply(blindingFactor.s, k.s)
	k.derivePublic()
}

// Reset clears the private key.
func (k *PrivateKey) Reset() {
	k.s = ristretto255.NewScalar()
	if k.pubKey != nil {
		k.pubKey.Reset()
	}
}

// KeyType returns the key type string, for PEM serialization.
func (k *PrivateKey) KeyType() string {
	return "ristretto255 private key"
}

func (k *PrivateKey) derivePublic() {
	e := ristretto255.NewElement().ScalarBaseMult(k.s)
	pub := &PublicKey{e: e}
	pub.rebuildCache()
	k.pubKey = pub
}
