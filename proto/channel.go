// Line channels
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
	"bufio"
	"fmt"
	"io"
	"strings"
)

// A Channel is the raw duplex line transport to one peer.  A channel
// is single-use for the lifetime of one peer process; once the peer
// has ended the session there is no way back.
//
// Channels are not safe for concurrent use: responses are matched to
// requests purely by program order, so callers must serialize
// exchanges externally.
type Channel interface {
	// Send writes one request line.
	Send(Command) error

	// Recv blocks until a complete framed response block is
	// available and returns it with line escapes removed.  It
	// returns io.EOF if the peer closed its output with no further
	// data.
	Recv() (string, error)

	// Close releases the transport.  Pending reads terminate with
	// an error.
	Close() error
}

// IOChannel speaks the wire format over any byte stream, typically a
// pair of subprocess pipes or a network connection.
type IOChannel struct {
	rwc  io.ReadWriteCloser
	scan *bufio.Scanner
}

func NewIOChannel(rwc io.ReadWriteCloser) *IOChannel {
	return &IOChannel{rwc: rwc, scan: bufio.NewScanner(rwc)}
}

func (c *IOChannel) Send(cmd Command) error {
	_, err := fmt.Fprintf(c.rwc, "%s\n", cmd)
	return err
}

// Recv accumulates lines until the blank terminator.  Blank lines
// before any payload are framing left over from the previous
// response and are skipped.
func (c *IOChannel) Recv() (string, error) {
	var lines []string
	for c.scan.Scan() {
		line := strings.TrimRight(c.scan.Text(), "\r")
		if line == "" {
			if lines == nil {
				continue
			}
			return UnescapeBlock(strings.Join(lines, "\n")), nil
		}
		lines = append(lines, line)
	}
	if err := c.scan.Err(); err != nil {
		return "", err
	}
	if lines != nil {
		// The stream ended mid-response.
		return "", io.ErrUnexpectedEOF
	}
	return "", io.EOF
}

func (c *IOChannel) Close() error {
	return c.rwc.Close()
}
