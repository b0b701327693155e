// Session controller
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
	"io"
	"net"
	"syscall"
)

// Controller drives one synchronous command/response session over a
// single channel.  It validates protocol conformance, classifies
// failures and remembers when the peer has gone away so later
// exchanges fail fast without touching the transport again.
type Controller struct {
	name string
	ch   Channel

	sessionEnded bool
	// set once the first response has passed conformance checking
	exchanged bool
}

// NewController wraps a channel to one peer.  The name labels the
// peer in diagnostics.
func NewController(ch Channel, name string) *Controller {
	return &Controller{name: name, ch: ch}
}

func (c *Controller) Name() string { return c.name }

// SessionEnded reports whether the peer is known to be gone.
func (c *Controller) SessionEnded() bool { return c.sessionEnded }

// MarkSessionEnded records that the session is over without touching
// the transport.  Callers use this after a successful quit exchange
// to get synchronous "treat it as gone" semantics: a quit response by
// itself does not close the channel, only a failed read does.
func (c *Controller) MarkSessionEnded() { c.sessionEnded = true }

// Close marks the session ended and releases the channel.
func (c *Controller) Close() error {
	c.sessionEnded = true
	return c.ch.Close()
}

// peerGone reports whether a transport error means the peer ended the
// session rather than the stream malfunctioning.
func peerGone(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) || errors.Is(err, syscall.EPIPE)
}

// Exchange sends one command and reads its response.  The returned
// error, when non-nil, is an *Error classified by kind; a failure
// response from the peer is not an error but data in the Response.
//
// The very first response on a controller is additionally checked
// for baseline conformance, so a program that does not speak the
// protocol at all (printing a usage banner, say) is rejected with a
// protocol error naming the offending first byte.
func (c *Controller) Exchange(cmd Command) (Response, error) {
	line := cmd.String()
	if c.sessionEnded {
		return Response{}, &Error{
			Kind: Closed, Peer: c.name, Command: line, Sending: true,
			Text: "engine has closed the command channel",
		}
	}

	if err := c.ch.Send(cmd); err != nil {
		if peerGone(err) {
			c.sessionEnded = true
			return Response{}, &Error{
				Kind: Closed, Peer: c.name, Command: line, Sending: true,
				Text: "engine has closed the command channel", Err: err,
			}
		}
		return Response{}, &Error{
			Kind: Transport, Peer: c.name, Command: line, Sending: true,
			Text: err.Error(), Err: err,
		}
	}

	raw, err := c.ch.Recv()
	switch {
	case err == nil:
	case errors.Is(err, io.ErrUnexpectedEOF):
		c.sessionEnded = true
		return Response{}, &Error{
			Kind: Protocol, Peer: c.name, Command: line,
			Text: "engine's response is incomplete", Err: err,
		}
	case peerGone(err):
		c.sessionEnded = true
		return Response{}, &Error{
			Kind: Closed, Peer: c.name, Command: line,
			Text: "engine has closed the response channel", Err: err,
		}
	default:
		return Response{}, &Error{
			Kind: Transport, Peer: c.name, Command: line,
			Text: err.Error(), Err: err,
		}
	}

	if !c.exchanged {
		if raw == "" || (raw[0] != '=' && raw[0] != '?') {
			first := "<empty>"
			if raw != "" {
				first = fmt.Sprintf("%q", raw[0])
			}
			return Response{}, &Error{
				Kind: Protocol, Peer: c.name, Command: line, First: true,
				Text: fmt.Sprintf("engine isn't speaking GTP: first byte is %s", first),
			}
		}
		c.exchanged = true
	}

	resp, err := ParseResponse(raw)
	if err != nil {
		return Response{}, &Error{
			Kind: Protocol, Peer: c.name, Command: line,
			Text: err.Error(), Err: err,
		}
	}
	return resp, nil
}
