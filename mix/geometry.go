// geometry.go - Mix message geometry.
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
	"bytes"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/cascademix/core/crypto/group"
	"github.com/cascademix/core/mix/internal/crypto"
)

// Geometry describes the geometry of a mix message for a given cascade
// length.
type Geometry struct {
	// NrHops is the number of relays in the cascade.
	NrHops int

	// GroupElementLength is the length of the message's group element in
	// bytes.
	GroupElementLength int

	// MACLength is the length of one MAC list entry in bytes.
	MACLength int

	// AddressCiphertextLength is the length of the address ciphertext in
	// bytes.
	AddressCiphertextLength int

	// MessageCiphertextLength is the length of the message ciphertext in
	// bytes.
	MessageCiphertextLength int

	// PacketLength is the length of a freshly encoded wire message in
	// bytes.  Each traversed relay strips one MAC entry, shrinking the
	// message by MACLength.
	PacketLength int
}

// NewGeometry returns the Geometry for a cascade of nrHops relays.
func NewGeometry(nrHops int) *Geometry {
	g := &Geometry{
		NrHops:                  nrHops,
		GroupElementLength:      group.GroupElementLength,
		MACLength:               crypto.MACLength,
		AddressCiphertextLength: AddressCiphertextLength,
		MessageCiphertextLength: MessageCiphertextLength,
	}
	g.PacketLength = g.GroupElementLength + nrHops*g.MACLength +
		g.AddressCiphertextLength + g.MessageCiphertextLength
	return g
}

// Validate returns an error iff the geometry is internally inconsistent.
func (g *Geometry) Validate() error {
	if g.NrHops < 1 {
		return fmt.Errorf("mix: geometry: NrHops %d is invalid", g.NrHops)
	}
	if g.GroupElementLength != group.GroupElementLength {
		return fmt.Errorf("mix: geometry: GroupElementLength %d is invalid", g.GroupElementLength)
	}
	if g.MACLength != crypto.MACLength {
		return fmt.Errorf("mix: geometry: MACLength %d is invalid", g.MACLength)
	}
	if g.AddressCiphertextLength != AddressCiphertextLength {
		return fmt.Errorf("mix: geometry: AddressCiphertextLength %d is invalid", g.AddressCiphertextLength)
	}
	if g.MessageCiphertextLength != MessageCiphertextLength {
		return fmt.Errorf("mix: geometry: MessageCiphertextLength %d is invalid", g.MessageCiphertextLength)
	}
	expected := g.GroupElementLength + g.NrHops*g.MACLength +
		g.AddressCiphertextLength + g.MessageCiphertextLength
	if g.PacketLength != expected {
		return fmt.Errorf("mix: geometry: PacketLength %d != %d", g.PacketLength, expected)
	}
	return nil
}

func (g *Geometry) String() string {
	var b strings.Builder
	b.WriteString("mix_message_geometry:\n")
	b.WriteString(fmt.Sprintf("packet size: %d\n", g.PacketLength))
	b.WriteString(fmt.Sprintf("number of hops: %d\n", g.NrHops))
	b.WriteString(fmt.Sprintf("group element size: %d\n", g.GroupElementLength))
	b.WriteString(fmt.Sprintf("mac size: %d\n", g.MACLength))
	b.WriteString(fmt.Sprintf("address ciphertext size: %d\n", g.AddressCiphertextLength))
	b.WriteString(fmt.Sprintf("message ciphertext size: %d\n", g.MessageCiphertextLength))
	return b.String()
}

// Display returns the geometry as a TOML document.
func (g *Geometry) Display() string {
	buf := new(bytes.Buffer)
	encoder := toml.NewEncoder(buf)
	if err := encoder.Encode(g); err != nil {
		panic(err)
	}
	return buf.String()
}
