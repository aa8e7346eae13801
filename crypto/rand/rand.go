// rand.go - CSPRNG reader.
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

package rand

import (
	csrand "crypto/rand"
	"io"
	"sync"

	"github.com/katzenpost/chacha20"

	"github.com/cascademix/core/utils"
)

// Reader is a cryptographically secure entropy source, backed by the system
// entropy source whitened through a ChaCha20 instance.  Ephemeral scalar
// sampling MUST use this (or an equivalent CSPRNG); reusing an ephemeral
// scalar across messages voids the single-use key material assumption that
// the zero-IV encryption policy depends on.
var Reader io.Reader = newWhitenedReader()

type whitenedReader struct {
	sync.Mutex

	s *chacha20.Cipher
}

// feedForward re-keys the cipher from its own keystream, so that the
// previous cipher state is unrecoverable after each read.
func (r *whitenedReader) feedForward() {
	var seed [chacha20.KeySize]byte
	defer utils.ExplicitBzero(seed[:])
	var nonce [chacha20.NonceSize]byte

	r.s.KeyStream(seed[:])
	if err := r.s.ReKey(seed[:], nonce[:]); err != nil {
		panic("rand: chacha20 ReKey failed: " + err.Error())
	}
}

func (r *whitenedReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	r.Lock()
	defer r.Unlock()

	r.s.KeyStream(p)
	r.feedForward()
	return len(p), nil
}

func newWhitenedReader() *whitenedReader {
	var seed [chacha20.KeySize]byte
	defer utils.ExplicitBzero(seed[:])
	var nonce [chacha20.NonceSize]byte

	if _, err := io.ReadFull(csrand.Reader, seed[:]); err != nil {
		panic("rand: failed to read system entropy: " + err.Error())
	}

	r := new(whitenedReader)
	r.s = new(chacha20.Cipher)
	if err := r.s.ReKey(seed[:], nonce[:]); err != nil {
		panic("rand: chacha20 ReKey failed: " + err.Error())
	}
	return r
}
