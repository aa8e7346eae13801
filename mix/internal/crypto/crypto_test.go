// crypto_test.go - Cryptographic primitive tests.
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

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cascademix/core/utils"
)

func TestKDF(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	sharedElement := make([]byte, 32)
	_, err := rand.Read(sharedElement)
	require.NoError(err, "failed to read shared element")

	d := sha512.Sum512(sharedElement)
	k := KDF(sharedElement)
	assert.Equal(d[0:16], k.MACKey[:], "MAC key slice")
	assert.Equal(d[16:32], k.AddressKey[:], "address key slice")
	assert.Equal(d[32:48], k.MessageKey[:], "message key slice")
	assert.Equal(d[48:64], k.BlindingSeed[:], "blinding seed slice")

	// Determinism.
	k2 := KDF(sharedElement)
	assert.Equal(k, k2, "KDF() is not deterministic")

	k.Reset()
	assert.True(utils.CtIsZero(k.MACKey[:]), "Reset() MACKey")
	assert.True(utils.CtIsZero(k.AddressKey[:]), "Reset() AddressKey")
	assert.True(utils.CtIsZero(k.MessageKey[:]), "Reset() MessageKey")
	assert.True(utils.CtIsZero(k.BlindingSeed[:]), "Reset() BlindingSeed")
}

func TestStream(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	var key [KeyLength]byte
	_, err := rand.Read(key[:])
	require.NoError(err, "failed to read Stream key")

	var iv [IVLength]byte
	_, err = rand.Read(iv[:])
	require.NoError(err, "failed to read Stream IV")

	var expected, actual [1024]byte
	blk, err := aes.NewCipher(key[:])
	require.NoError(err, "failed to initialize crypto/aes")
	ctr := cipher.NewCTR(blk, iv[:])

	s := NewStream(&key, &iv)
	ctr.XORKeyStream(expected[:], expected[:])
	s.KeyStream(actual[:])
	assert.Equal(expected, actual, "KeyStream() mismatch against CTR-AES128")

	ctr.XORKeyStream(expected[:], expected[:])
	s.XORKeyStream(actual[:], actual[:])
	assert.Equal(expected, actual, "XORKeyStream() mismatch against CTR-AES128")
}

func TestStreamSelfInverse(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	var key [KeyLength]byte
	var iv [IVLength]byte
	_, err := rand.Read(key[:])
	require.NoError(err)
	_, err = rand.Read(iv[:])
	require.NoError(err)

	src := make([]byte, 258)
	_, err = rand.Read(src)
	require.NoError(err)

	dst := make([]byte, len(src))
	NewStream(&key, &iv).XORKeyStream(dst, src)
	require.NotEqual(src, dst, "XORKeyStream() did not transform")
	NewStream(&key, &iv).XORKeyStream(dst, dst)
	require.Equal(src, dst, "double application did not restore input")
}

func TestMAC(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	var key [KeyLength]byte
	_, err := rand.Read(key[:])
	require.NoError(err, "failed to read MAC key")

	var src [1024]byte
	_, err = rand.Read(src[:])
	require.NoError(err, "failed to read source buffer")

	eM := hmac.New(sha512.New, key[:])
	eM.Write(src[:])
	expected := eM.Sum(nil)

	m := NewMAC(&key)
	n, err := m.Write(src[:])
	assert.Equal(len(src), n, "Write() returned unexpected length")
	assert.NoError(err, "failed to write MAC data")
	actual := m.Sum(nil)
	assert.Equal(expected, actual, "Sum() mismatch against HMAC-SHA512")

	truncated := TruncateMAC(actual)
	assert.Equal(MACLength, len(truncated), "TruncateMAC() length")
	assert.Equal(expected[:MACLength], truncated, "TruncateMAC() prefix")
}

func TestPositionalIV(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	assert.Equal(ZeroIV(), PositionalIV(0x0000), "index 0 is the zero IV")

	iv := PositionalIV(0x0102)
	assert.Equal(byte(0x01), iv[0])
	assert.Equal(byte(0x02), iv[1])
	assert.True(utils.CtIsZero(iv[2:]), "IV tail is zero")

	assert.NotEqual(PositionalIV(1), PositionalIV(2), "positional IVs collide")
}
