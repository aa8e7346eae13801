// node.go - Relay-side mix message processing.
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
	"crypto/subtle"
	"sort"
	"sync"

	"gopkg.in/op/go-logging.v1"

	"github.com/cascademix/core/crypto/group"
	"github.com/cascademix/core/log"
	"github.com/cascademix/core/mix/internal/crypto"
	"github.com/cascademix/core/utils"
)

// Delivery is a fully decoded (address, payload) pair, emitted by the final
// relay of a cascade for the delivery collaborator.
type Delivery struct {
	// Address is the destination address.
	Address []byte

	// Payload is the message payload.
	Payload []byte
}

// Node is a relay in a cascade: its static private key and its position
// role.  A Node holds no per-message state; Unwrap and UnwrapOneHop are
// pure functions of (node, message).
type Node struct {
	privateKey *group.PrivateKey
	isFinalHop bool

	log *logging.Logger
}

// NewNode constructs a Node from its static private key and position flag.
// logBackend may be nil, in which case dropped messages are not logged.
func NewNode(privateKey *group.PrivateKey, isFinalHop bool, logBackend *log.Backend) *Node {
	n := &Node{
		privateKey: privateKey,
		isFinalHop: isFinalHop,
	}
	if logBackend != nil {
		n.log = logBackend.GetLogger("mix/node")
	}
	return n
}

// IsFinalHop returns true iff the node delivers rather than forwards.
func (n *Node) IsFinalHop() bool {
	return n.isFinalHop
}

// UnwrapOneHop decodes a one-hop message, returning the delivery or an
// error.  Failures are local to the one message.
func (n *Node) UnwrapOneHop(msg *OneHopMessage) (*Delivery, error) {
	if err := msg.validate(); err != nil {
		return nil, err
	}

	sharedElement := n.privateKey.Exp(msg.PublicKey)
	defer utils.ExplicitBzero(sharedElement)
	keys := crypto.KDF(sharedElement)
	defer keys.Reset()

	m := crypto.NewMAC(&keys.MACKey)
	m.Write(msg.Address)
	m.Write(msg.Message)
	expectedMAC := crypto.TruncateMAC(m.Sum(nil))
	if subtle.ConstantTimeCompare(msg.MAC, expectedMAC) != 1 {
		return nil, ErrMACMismatch
	}

	addressPT := make([]byte, AddressCiphertextLength)
	messagePT := make([]byte, MessageCiphertextLength)
	crypto.NewStream(&keys.AddressKey, crypto.ZeroIV()).XORKeyStream(addressPT, msg.Address)
	crypto.NewStream(&keys.MessageKey, crypto.ZeroIV()).XORKeyStream(messagePT, msg.Message)

	address, err := decodeEnvelope(addressPT, MaxAddressLength)
	if err != nil {
		return nil, err
	}
	payload, err := decodeEnvelope(messagePT, MaxMessageLength)
	if err != nil {
		return nil, err
	}
	return &Delivery{Address: address, Payload: payload}, nil
}

// Unwrap decodes one layer of an n-hop message.  Exactly one of the two
// outcomes is non-nil on success: the transformed message for the next
// relay, or (at the final hop) the delivery.
func (n *Node) Unwrap(msg *Message) (*Message, *Delivery, error) {
	if err := msg.validate(); err != nil {
		return nil, nil, err
	}

	sharedElement := n.privateKey.Exp(msg.PublicKey)
	defer utils.ExplicitBzero(sharedElement)
	keys := crypto.KDF(sharedElement)
	defer keys.Reset()

	// The outer MAC covers everything this relay sees: the later hops'
	// still-encrypted MACs and both ciphertexts.
	m := crypto.NewMAC(&keys.MACKey)
	for _, laterMAC := range msg.MACs[1:] {
		m.Write(laterMAC)
	}
	m.Write(msg.Address)
	m.Write(msg.Message)
	expectedMAC := crypto.TruncateMAC(m.Sum(nil))
	if subtle.ConstantTimeCompare(msg.MACs[0], expectedMAC) != 1 {
		return nil, nil, ErrMACMismatch
	}

	// Peel one layer: the MAC list entries under their positional IVs, the
	// address and message under the zero IV.
	newMACs := make([][]byte, 0, len(msg.MACs)-1)
	for j, laterMAC := range msg.MACs[1:] {
		decrypted := make([]byte, MACLength)
		crypto.NewStream(&keys.MACKey, crypto.PositionalIV(j)).XORKeyStream(decrypted, laterMAC)
		newMACs = append(newMACs, decrypted)
	}

	addressPT := make([]byte, AddressCiphertextLength)
	messagePT := make([]byte, MessageCiphertextLength)
	crypto.NewStream(&keys.AddressKey, crypto.ZeroIV()).XORKeyStream(addressPT, msg.Address)
	crypto.NewStream(&keys.MessageKey, crypto.ZeroIV()).XORKeyStream(messagePT, msg.Message)

	if n.isFinalHop {
		address, err := decodeEnvelope(addressPT, MaxAddressLength)
		if err != nil {
			return nil, nil, err
		}
		payload, err := decodeEnvelope(messagePT, MaxMessageLength)
		if err != nil {
			return nil, nil, err
		}
		return nil, &Delivery{Address: address, Payload: payload}, nil
	}

	// Blind the group element forward for the next relay.
	bf, err := group.BlindingFactorFromSeed(keys.BlindingSeed[:])
	if err != nil {
		panic("mix: BUG: invalid blinding seed: " + err.Error())
	}
	defer bf.Reset()
	nextPub := new(group.PublicKey)
	if err = nextPub.FromBytes(msg.PublicKey.Bytes()); err != nil {
		panic("mix: BUG: failed to copy group element: " + err.Error())
	}
	nextPub.Blind(bf)

	return &Message{
		PublicKey: nextPub,
		MACs:      newMACs,
		Address:   addressPT,
		Message:   messagePT,
	}, nil, nil
}

// ProcessBatch decodes a batch of n-hop messages.  Messages are processed
// independently and concurrently; a message that fails any check is logged
// and dropped without disturbing the rest of the batch.  Forwarded messages
// retain their arrival order.  Deliveries are reordered: the batch is a
// barrier, and the decoded tuples are emitted in lexicographic order so a
// message's departure position carries no information about its arrival
// position.
func (n *Node) ProcessBatch(msgs []*Message) ([]*Message, []*Delivery) {
	forwards := make([]*Message, len(msgs))
	deliveries := make([]*Delivery, len(msgs))

	var wg sync.WaitGroup
	for i, msg := range msgs {
		wg.Add(1)
		go func(i int, msg *Message) {
			defer wg.Done()
			fwd, del, err := n.Unwrap(msg)
			if err != nil {
				n.logDropped(i, err)
				return
			}
			forwards[i] = fwd
			deliveries[i] = del
		}(i, msg)
	}
	wg.Wait()

	outFwd := make([]*Message, 0, len(msgs))
	for _, fwd := range forwards {
		if fwd != nil {
			outFwd = append(outFwd, fwd)
		}
	}
	outDel := make([]*Delivery, 0, len(msgs))
	for _, del := range deliveries {
		if del != nil {
			outDel = append(outDel, del)
		}
	}
	sortDeliveries(outDel)
	return outFwd, outDel
}

// ProcessOneHopBatch decodes a batch of one-hop messages, with the same
// isolation and reordering contract as ProcessBatch.
func (n *Node) ProcessOneHopBatch(msgs []*OneHopMessage) []*Delivery {
	deliveries := make([]*Delivery, len(msgs))

	var wg sync.WaitGroup
	for i, msg := range msgs {
		wg.Add(1)
		go func(i int, msg *OneHopMessage) {
			defer wg.Done()
			del, err := n.UnwrapOneHop(msg)
			if err != nil {
				n.logDropped(i, err)
				return
			}
			deliveries[i] = del
		}(i, msg)
	}
	wg.Wait()

	out := make([]*Delivery, 0, len(msgs))
	for _, del := range deliveries {
		if del != nil {
			out = append(out, del)
		}
	}
	sortDeliveries(out)
	return out
}

func (n *Node) logDropped(idx int, err error) {
	if n.log != nil {
		n.log.Debugf("dropping message %d: %v", idx, err)
	}
}

func sortDeliveries(d []*Delivery) {
	sort.Slice(d, func(i, j int) bool {
		if c := bytes.Compare(d[i].Address, d[j].Address); c != 0 {
			return c < 0
		}
		return bytes.Compare(d[i].Payload, d[j].Payload) < 0
	})
}
