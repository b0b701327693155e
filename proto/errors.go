// Error taxonomy
//
// Copyright (c) 2023, 2024  The go-ringmaster authors
//
// This file is part of go-ringmaster.
//
// go-ringmaster is free software: you can redistribute it and/or
// modify it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// go-ringmaster is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with go-ringmaster. If not, see
// <http://www.gnu.org/licenses/>

package proto

import (
	"errors"
	"fmt"
)

// Kind classifies what went wrong with an exchange.  Callers branch
// on the kind rather than on distinct error types.
type Kind uint8

const (
	// Transport: the byte stream could not be written or read.
	Transport Kind = iota
	// Closed: the peer ended the session.  A terminal state, not
	// necessarily a malfunction.
	Closed
	// Protocol: bytes arrived but did not conform to the framing.
	// Fatal for the session, never retried.
	Protocol
	// Failure: the peer understood the command and explicitly
	// declined.  Normal control flow.
	Failure
)

func (k Kind) String() string {
	switch k {
	case Transport:
		return "transport error"
	case Closed:
		return "channel closed"
	case Protocol:
		return "protocol error"
	case Failure:
		return "failure response"
	default:
		panic(fmt.Sprintf("Illegal error kind: %d", k))
	}
}

// Error describes a failed exchange with one peer.  Command is the
// request line as sent, Peer the controller's diagnostic name and
// Text the underlying detail (for Failure, the peer's literal failure
// message).
type Error struct {
	Kind    Kind
	Peer    string
	Command string
	Text    string
	// Sending is set when the exchange broke on the request side
	// rather than while reading the response.
	Sending bool
	// First is set when the response to the very first command on a
	// controller failed baseline conformance checking.
	First bool
	Err   error
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Error() string {
	switch {
	case e.Kind == Failure:
		return fmt.Sprintf("failure response from '%s' to %s:\n%s",
			e.Command, e.Peer, e.Text)
	case e.Kind == Protocol && e.First:
		return fmt.Sprintf("GTP protocol error reading response to first command (%s) from %s:\n%s",
			e.Command, e.Peer, e.Text)
	case e.Kind == Protocol:
		return fmt.Sprintf("GTP protocol error reading response to '%s' from %s:\n%s",
			e.Command, e.Peer, e.Text)
	case e.Sending:
		return fmt.Sprintf("error sending '%s' to %s:\n%s",
			e.Command, e.Peer, e.Text)
	default:
		return fmt.Sprintf("error reading response to '%s' from %s:\n%s",
			e.Command, e.Peer, e.Text)
	}
}

// ErrorKind extracts the kind of a protocol layer error.  The second
// value is false if err did not originate here.
func ErrorKind(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsClosed reports whether err means the peer has ended the session.
func IsClosed(err error) bool {
	k, ok := ErrorKind(err)
	return ok && k == Closed
}
