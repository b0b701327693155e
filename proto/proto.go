// Wire format
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
	"fmt"
	"strings"
)

// The GTP dialect spoken here frames a request as a single line
// (name, then whitespace-joined arguments) and a response as a run of
// lines terminated by a blank line.  The first response byte is '='
// for success or '?' for failure, optionally followed by a numeric
// id.  A payload line beginning with the escape byte carries one
// extra escape byte on the wire so payload text starting with it
// round-trips.
const escape = '#'

// Command is one request to a peer.  Immutable once sent.
type Command struct {
	Name string
	Args []string
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Response is a peer's answer to one command.  The failure flag is
// protocol-level data, not an error: the peer executed the command
// and reports that it declined.
type Response struct {
	IsFailure bool
	Text      string
}

// EscapeBlock prepends an escape byte to every continuation line of
// a response block that begins with one.  The first line starts with
// the status byte and cannot be mistaken for payload, so it is left
// alone.
func EscapeBlock(block string) string {
	lines := strings.Split(block, "\n")
	for i, line := range lines {
		if i > 0 && strings.HasPrefix(line, string(escape)) {
			lines[i] = string(escape) + line
		}
	}
	return strings.Join(lines, "\n")
}

// UnescapeBlock removes exactly one leading escape byte from every
// continuation line that carries one.  Inverse of EscapeBlock.
func UnescapeBlock(block string) string {
	lines := strings.Split(block, "\n")
	for i, line := range lines {
		if i > 0 && strings.HasPrefix(line, string(escape)) {
			lines[i] = line[1:]
		}
	}
	return strings.Join(lines, "\n")
}

// FormatResponse renders a response as its wire representation,
// including the terminating blank line.
func FormatResponse(r Response) string {
	status := "="
	if r.IsFailure {
		status = "?"
	}
	return EscapeBlock(status+" "+r.Text) + "\n\n"
}

// ParseResponse destructs a raw response block (escapes already
// removed, no terminating blank line) into a status flag and payload.
// The status byte and any id digits are framing; the payload keeps
// interior newlines but sheds surrounding whitespace.
func ParseResponse(raw string) (Response, error) {
	if raw == "" {
		return Response{}, fmt.Errorf("empty response")
	}

	var resp Response
	switch raw[0] {
	case '=':
	case '?':
		resp.IsFailure = true
	default:
		return Response{}, fmt.Errorf("no status byte in response %q", raw)
	}

	rest := raw[1:]
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	resp.Text = strings.TrimRight(strings.TrimLeft(rest[i:], " \t"), " \t\n")
	return resp, nil
}
