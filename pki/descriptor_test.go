// descriptor_test.go - Cascade descriptor tests.
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

package pki

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cascademix/core/crypto/group"
	"github.com/cascademix/core/crypto/rand"
)

func genCascade(t *testing.T, n int) ([]string, []*group.PublicKey) {
	names := make([]string, 0, n)
	keys := make([]*group.PublicKey, 0, n)
	for i := 0; i < n; i++ {
		priv, err := group.NewKeypair(rand.Reader)
		require.NoError(t, err)
		names = append(names, fmt.Sprintf("relay%d", i))
		keys = append(keys, priv.PublicKey())
	}
	return names, keys
}

func TestDocument(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	names, keys := genCascade(t, 3)
	d, err := NewDocument(names, keys)
	require.NoError(err)
	require.NoError(IsDocumentWellFormed(d))

	b, err := d.MarshalBinary()
	require.NoError(err)

	// Canonical encoding is deterministic.
	b2, err := d.MarshalBinary()
	require.NoError(err)
	assert.Equal(b, b2)

	var dd Document
	require.NoError(dd.UnmarshalBinary(b))
	assert.Equal(d.Version, dd.Version)

	got, err := dd.CascadeKeys()
	require.NoError(err)
	require.Len(got, len(keys))
	for i, k := range keys {
		assert.True(k.Equal(got[i]), "cascade key %d mismatch", i)
	}
}

func TestDocumentWellFormed(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	names, keys := genCascade(t, 2)
	d, err := NewDocument(names, keys)
	require.NoError(err)

	d.Version = "v999"
	assert.Error(IsDocumentWellFormed(d))
	d.Version = DocumentVersion

	d.Relays[1].Name = d.Relays[0].Name
	assert.Error(IsDocumentWellFormed(d))
	d.Relays[1].Name = "relay1"

	d.Relays[0].PublicKey = d.Relays[0].PublicKey[:16]
	assert.Error(IsDocumentWellFormed(d))

	empty := &Document{Version: DocumentVersion}
	assert.Error(IsDocumentWellFormed(empty))

	_, err = NewDocument([]string{"only"}, keys)
	assert.Error(err)
}
