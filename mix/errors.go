// errors.go - Mix message processing errors.
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
	"errors"
)

var (
	// ErrMalformedMessage is the error returned when a message fails format
	// validation: wrong field lengths or an invalid group element.  The
	// message is dropped with no partial output.
	ErrMalformedMessage = errors.New("mix: malformed message")

	// ErrMACMismatch is the error returned when the outer MAC does not
	// authenticate the message.  The message is dropped; mixes do not retry
	// malformed input.
	ErrMACMismatch = errors.New("mix: MAC verification failure")

	// ErrEncodingOverflow is the error returned by the client encoders when
	// the address or message exceeds its fixed maximum size.  No
	// cryptographic work is done for oversized inputs.
	ErrEncodingOverflow = errors.New("mix: address or message exceeds maximum size")

	// ErrEmptyCascade is the error returned by the client encoder when no
	// relay public keys are supplied.
	ErrEmptyCascade = errors.New("mix: empty cascade")
)
