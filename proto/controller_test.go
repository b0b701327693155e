// Session controller tests
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
	"io"
	"testing"
)

// script is a channel that replays canned raw response blocks and
// records what was sent.
type script struct {
	responses []string
	errs      []error
	sent      []string
	sendErr   error
}

func (s *script) Send(cmd Command) error {
	s.sent = append(s.sent, cmd.String())
	return s.sendErr
}

func (s *script) Recv() (string, error) {
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return "", err
	}
	if len(s.responses) == 0 {
		return "", io.EOF
	}
	raw := s.responses[0]
	s.responses = s.responses[1:]
	return raw, nil
}

func (s *script) Close() error { return nil }

func TestExchange(t *testing.T) {
	ch := &script{responses: []string{"= 2", "? not now", "= done"}}
	ctl := NewController(ch, "player test")

	resp, err := ctl.Exchange(Command{Name: "protocol_version"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.IsFailure || resp.Text != "2" {
		t.Errorf("got %#v", resp)
	}

	resp, err = ctl.Exchange(Command{Name: "genmove", Args: []string{"b"}})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.IsFailure || resp.Text != "not now" {
		t.Errorf("got %#v", resp)
	}

	if want := []string{"protocol_version", "genmove b"}; len(ch.sent) != 2 ||
		ch.sent[0] != want[0] || ch.sent[1] != want[1] {
		t.Errorf("sent %q", ch.sent)
	}
}

func TestExchangeFirstByteCheck(t *testing.T) {
	ch := &script{responses: []string{"Usage: randomprogram [options]"}}
	ctl := NewController(ch, "player test")

	_, err := ctl.Exchange(Command{Name: "list_commands"})
	if kind, ok := ErrorKind(err); !ok || kind != Protocol {
		t.Fatalf("got %v", err)
	}
	want := "GTP protocol error reading response to first command " +
		"(list_commands) from player test:\n" +
		"engine isn't speaking GTP: first byte is 'U'"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err, want)
	}

	// Conformance is only checked once: after one good exchange, a
	// malformed block is a plain protocol error.
	ch = &script{responses: []string{"= ok", "junk"}}
	ctl = NewController(ch, "player test")
	if _, err := ctl.Exchange(Command{Name: "name"}); err != nil {
		t.Fatal(err)
	}
	_, err = ctl.Exchange(Command{Name: "name"})
	var perr *Error
	if !errors.As(err, &perr) || perr.First {
		t.Errorf("got %v", err)
	}
}

func TestExchangeAfterSessionEnd(t *testing.T) {
	ch := &script{responses: []string{"= bye"}}
	ctl := NewController(ch, "player test")

	if _, err := ctl.Exchange(Command{Name: "quit"}); err != nil {
		t.Fatal(err)
	}
	if ctl.SessionEnded() {
		t.Error("a successful quit response must not end the session by itself")
	}
	ctl.MarkSessionEnded()

	_, err := ctl.Exchange(Command{Name: "boardsize", Args: []string{"9"}})
	if !IsClosed(err) {
		t.Fatalf("got %v", err)
	}
	want := "error sending 'boardsize 9' to player test:\n" +
		"engine has closed the command channel"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err, want)
	}
	if len(ch.sent) != 1 {
		t.Errorf("transport touched after session end: %q", ch.sent)
	}
}

func TestExchangeChannelErrors(t *testing.T) {
	for i, test := range []struct {
		recvErr error
		kind    Kind
		ended   bool
	}{
		{io.EOF, Closed, true},
		{io.ErrClosedPipe, Closed, true},
		{io.ErrUnexpectedEOF, Protocol, true},
		{errors.New("read timed out"), Transport, false},
	} {
		ch := &script{errs: []error{test.recvErr}}
		ctl := NewController(ch, "player test")

		_, err := ctl.Exchange(Command{Name: "name"})
		if kind, ok := ErrorKind(err); !ok || kind != test.kind {
			t.Errorf("(%d) got %v", i, err)
		}
		if ctl.SessionEnded() != test.ended {
			t.Errorf("(%d) session ended = %v", i, ctl.SessionEnded())
		}
	}
}

func TestExchangeSendToDeadPeer(t *testing.T) {
	ch := &script{sendErr: io.ErrClosedPipe}
	ctl := NewController(ch, "player test")

	_, err := ctl.Exchange(Command{Name: "quit"})
	if !IsClosed(err) {
		t.Fatalf("got %v", err)
	}
	if !ctl.SessionEnded() {
		t.Error("session should have ended")
	}
}
