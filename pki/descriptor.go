// descriptor.go - Cascade descriptor serialization.
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

// Package pki provides the cascade directory document and its
// serialization routines.
package pki

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/cascademix/core/crypto/group"
)

// DocumentVersion uniquely identifies the document format so that stale
// documents can be rejected when the format changes.
const DocumentVersion = "v0"

var ccbor cbor.EncMode

// RelayDescriptor describes a single relay in a cascade.
type RelayDescriptor struct {
	// Name is the human readable (descriptive) relay identifier.
	Name string

	// PublicKey is the relay's group element encoding.
	PublicKey []byte
}

// Document is an ordered directory of the relays forming a cascade,
// listed entry point first.
type Document struct {
	// Version uniquely identifies the document format as being for the
	// specified version so that it can be rejected if the format changes.
	Version string

	// Relays is the ordered list of cascade relays.
	Relays []*RelayDescriptor
}

type document Document

// NewDocument constructs a Document for the given cascade keys, ordered
// entry point first.
func NewDocument(names []string, keys []*group.PublicKey) (*Document, error) {
	if len(names) != len(keys) {
		return nil, fmt.Errorf("pki: %d names for %d keys", len(names), len(keys))
	}
	d := &Document{
		Version: DocumentVersion,
		Relays:  make([]*RelayDescriptor, 0, len(keys)),
	}
	for i, k := range keys {
		d.Relays = append(d.Relays, &RelayDescriptor{
			Name:      names[i],
			PublicKey: k.Bytes(),
		})
	}
	return d, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (d *Document) MarshalBinary() ([]byte, error) {
	return ccbor.Marshal((*document)(d))
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (d *Document) UnmarshalBinary(data []byte) error {
	return cbor.Unmarshal(data, (*document)(d))
}

// IsDocumentWellFormed validates the document and returns a descriptive
// error iff there are any problems that would make it unusable as a
// cascade directory.
func IsDocumentWellFormed(d *Document) error {
	if d.Version != DocumentVersion {
		return fmt.Errorf("pki: invalid document version: '%v'", d.Version)
	}
	if len(d.Relays) == 0 {
		return fmt.Errorf("pki: document lists no relays")
	}
	seen := make(map[string]bool)
	for _, desc := range d.Relays {
		if desc.Name == "" {
			return fmt.Errorf("pki: relay descriptor missing name")
		}
		if seen[desc.Name] {
			return fmt.Errorf("pki: duplicate relay name: '%v'", desc.Name)
		}
		seen[desc.Name] = true
		if len(desc.PublicKey) != group.GroupElementLength {
			return fmt.Errorf("pki: relay '%v' has malformed public key", desc.Name)
		}
	}
	return nil
}

// CascadeKeys returns the ordered public keys of the cascade, suitable
// for the client encoder.
func (d *Document) CascadeKeys() ([]*group.PublicKey, error) {
	if err := IsDocumentWellFormed(d); err != nil {
		return nil, err
	}
	keys := make([]*group.PublicKey, 0, len(d.Relays))
	for _, desc := range d.Relays {
		k := new(group.PublicKey)
		if err := k.FromBytes(desc.PublicKey); err != nil {
			return nil, fmt.Errorf("pki: relay '%v': %v", desc.Name, err)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// String returns a human readable Document suitable for terse logging.
func (d *Document) String() string {
	s := fmt.Sprintf("&{Version: %v Relays:", d.Version)
	for _, desc := range d.Relays {
		s += fmt.Sprintf(" {%v %x}", desc.Name, desc.PublicKey)
	}
	s += "}"
	return s
}

func init() {
	var err error
	opts := cbor.CanonicalEncOptions()
	ccbor, err = opts.EncMode()
	if err != nil {
		panic(err)
	}
}
