// crypto.go - Cryptographic primitive wrappers.
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

// Package crypto provides the symmetric primitives used by the mix message
// format: an AES-128-CTR stream cipher, a truncated HMAC-SHA512, and the
// per-hop key derivation function.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"hash"

	"github.com/cascademix/core/utils"
)

const (
	// KeyLength is the length of a derived sub-key in bytes.
	KeyLength = 16

	// IVLength is the length of the stream cipher IV in bytes.
	IVLength = 16

	// MACLength is the length of a wire MAC in bytes, the leftmost
	// truncation of the HMAC-SHA512 output.
	MACLength = 20

	// KeyMaterialLength is the length of the raw per-hop key material in
	// bytes.
	KeyMaterialLength = sha512.Size
)

// KeyMaterial is the per-hop key material, derived fresh per message per hop
// and never reused.
type KeyMaterial struct {
	// MACKey authenticates the non-revealed portions of the message.
	MACKey [KeyLength]byte

	// AddressKey encrypts one layer of the address ciphertext.
	AddressKey [KeyLength]byte

	// MessageKey encrypts one layer of the message ciphertext.
	MessageKey [KeyLength]byte

	// BlindingSeed seeds the scalar that evolves the key for the next hop.
	BlindingSeed [KeyLength]byte
}

// KDF derives the per-hop KeyMaterial from the encoded shared group element,
// by slicing a single SHA-512 digest into the four sub-keys in fixed order.
func KDF(sharedElement []byte) *KeyMaterial {
	d := sha512.Sum512(sharedElement)
	defer utils.ExplicitBzero(d[:])

	k := new(KeyMaterial)
	copy(k.MACKey[:], d[0:16])
	copy(k.AddressKey[:], d[16:32])
	copy(k.MessageKey[:], d[32:48])
	copy(k.BlindingSeed[:], d[48:64])
	return k
}

// Reset clears the key material.
func (k *KeyMaterial) Reset() {
	utils.ExplicitBzero(k.MACKey[:])
	utils.ExplicitBzero(k.AddressKey[:])
	utils.ExplicitBzero(k.MessageKey[:])
	utils.ExplicitBzero(k.BlindingSeed[:])
}

// Stream is an AES-128-CTR stream cipher instance.  Applying XORKeyStream
// twice with the same key and IV restores the original input, so the same
// operation serves for both encryption and decryption.
type Stream struct {
	ctr cipher.Stream
}

// NewStream constructs a Stream keyed with the provided key and IV.
func NewStream(key *[KeyLength]byte, iv *[IVLength]byte) *Stream {
	blk, err := aes.NewCipher(key[:])
	if err != nil {
		// Not possible with a KeyLength byte key.
		panic("crypto: failed to initialize AES: " + err.Error())
	}
	return &Stream{ctr: cipher.NewCTR(blk, iv[:])}
}

// XORKeyStream XORs the keystream into src and writes the result to dst.
func (s *Stream) XORKeyStream(dst, src []byte) {
	s.ctr.XORKeyStream(dst, src)
}

// KeyStream fills dst with the raw keystream.
func (s *Stream) KeyStream(dst []byte) {
	utils.ExplicitBzero(dst)
	s.ctr.XORKeyStream(dst, dst)
}

// NewMAC returns a keyed HMAC-SHA512 instance.  Wire use truncates the sum
// to MACLength via TruncateMAC.
func NewMAC(key *[KeyLength]byte) hash.Hash {
	return hmac.New(sha512.New, key[:])
}

// TruncateMAC truncates a full HMAC-SHA512 digest to its wire length.
func TruncateMAC(digest []byte) []byte {
	return digest[:MACLength]
}

// ZeroIV returns the all-zero IV used for the address and message layers.
// Key freshness, not IV variation, provides uniqueness there: every hop of
// every message uses independently derived single-use keys.
func ZeroIV() *[IVLength]byte {
	return new([IVLength]byte)
}

// PositionalIV returns the IV for re-encrypting the MAC list entry at the
// given position.  The MAC key is reused across all list entries within one
// hop, so each entry gets a distinct IV: the big-endian index in the first
// two bytes, zero elsewhere.
func PositionalIV(index int) *[IVLength]byte {
	iv := new([IVLength]byte)
	binary.BigEndian.PutUint16(iv[0:2], uint16(index))
	return iv
}
