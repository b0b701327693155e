// In-process channel
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

package engine

import (
	"errors"
	"io"
	"strings"

	"go-ringmaster/proto"
)

// Channel serves an Engine directly as a proto.Channel, with no
// process or socket in between.  Responses still pass through the
// wire codec, so a controller on the other side sees exactly what a
// remote peer would produce.
//
// Once the engine ends the session, the response that ended it is
// still delivered; afterwards sends fail as on a closed pipe and
// reads report end of stream.
type Channel struct {
	eng    *Engine
	queued []string
	closed bool
}

func NewChannel(e *Engine) *Channel {
	return &Channel{eng: e}
}

func (c *Channel) Send(cmd proto.Command) error {
	if c.closed {
		return io.ErrClosedPipe
	}
	failure, text, end := c.eng.Run(cmd.Name, cmd.Args)
	wire := proto.FormatResponse(proto.Response{IsFailure: failure, Text: text})
	c.queued = append(c.queued, wire)
	if end {
		c.closed = true
	}
	return nil
}

func (c *Channel) Recv() (string, error) {
	if len(c.queued) == 0 {
		if c.closed {
			return "", io.EOF
		}
		return "", errors.New("no response pending")
	}
	wire := c.queued[0]
	c.queued = c.queued[1:]
	block := strings.TrimRight(wire, "\n")
	return proto.UnescapeBlock(block), nil
}

func (c *Channel) Close() error {
	c.closed = true
	return nil
}
