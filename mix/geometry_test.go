// geometry_test.go - Mix message geometry tests.
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
)

func TestGeometry(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	g := NewGeometry(3)
	require.NoError(g.Validate())
	assert.Equal(32, g.GroupElementLength)
	assert.Equal(20, g.MACLength)
	assert.Equal(258, g.AddressCiphertextLength)
	assert.Equal(1002, g.MessageCiphertextLength)
	assert.Equal(32+3*20+258+1002, g.PacketLength)

	g.PacketLength--
	assert.Error(g.Validate())

	assert.Error(NewGeometry(0).Validate())

	d := NewGeometry(3).Display()
	assert.Contains(d, "NrHops = 3")
	assert.Contains(d, "PacketLength")
}
