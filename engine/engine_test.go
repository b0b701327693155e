// Protocol endpoint tests
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
	"testing"

	"github.com/google/go-cmp/cmp"

	"go-ringmaster/proto"
)

func testEngine() *Engine {
	e := New()
	e.Add("test", func(args []string) (string, error) {
		if len(args) > 0 {
			return "args: " + args[0], nil
		}
		return "test response", nil
	})
	e.Add("error", func([]string) (string, error) {
		return "", errors.New("normal error")
	})
	e.Add("fatal", func([]string) (string, error) {
		return "", Fatalf("fatal error")
	})
	e.Add("multiline", func([]string) (string, error) {
		return "first line\nsecond line\nthird line", nil
	})
	return e
}

func TestBuiltins(t *testing.T) {
	e := testEngine()

	for i, test := range []struct {
		name    string
		args    []string
		failure bool
		text    string
		end     bool
	}{
		{name: "protocol_version", text: "2"},
		{name: "known_command", args: []string{"test"}, text: "true"},
		{name: "known_command", args: []string{"nonesuch"}, text: "false"},
		{name: "known_command", failure: true, text: "invalid arguments"},
		{name: "nonesuch", failure: true, text: "unknown command"},
		{name: "test", text: "test response"},
		{name: "test", args: []string{"ab", "cd"}, text: "args: ab"},
		{name: "error", failure: true, text: "normal error"},
		{name: "fatal", failure: true, text: "fatal error", end: true},
		{name: "quit", end: true},
	} {
		failure, text, end := e.Run(test.name, test.args)
		if failure != test.failure || text != test.text || end != test.end {
			t.Errorf("(%d) %s: got (%v, %q, %v)", i, test.name, failure, text, end)
		}
	}
}

func TestListCommands(t *testing.T) {
	e := testEngine()
	want := []string{
		"error", "fatal", "known_command", "list_commands",
		"multiline", "protocol_version", "quit", "test",
	}
	if diff := cmp.Diff(want, e.Commands()); diff != "" {
		t.Errorf("command listing mismatch (-want +got):\n%s", diff)
	}
}

func TestAddOverrides(t *testing.T) {
	e := New()
	e.Add("protocol_version", func([]string) (string, error) {
		return "1", nil
	})
	if _, text, _ := e.Run("protocol_version", nil); text != "1" {
		t.Errorf("got %q", text)
	}
}

func TestChannel(t *testing.T) {
	ctl := proto.NewController(NewChannel(testEngine()), "test engine")

	resp, err := ctl.Exchange(proto.Command{Name: "multiline"})
	if err != nil {
		t.Fatal(err)
	}
	if want := "first line\nsecond line\nthird line"; resp.Text != want {
		t.Errorf("got %q, want %q", resp.Text, want)
	}

	resp, err = ctl.Exchange(proto.Command{Name: "error"})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.IsFailure || resp.Text != "normal error" {
		t.Errorf("got %#v", resp)
	}
}

func TestChannelSessionEnd(t *testing.T) {
	ch := NewChannel(testEngine())

	if err := ch.Send(proto.Command{Name: "quit"}); err != nil {
		t.Fatal(err)
	}
	// The response that ended the session is still delivered.
	if raw, err := ch.Recv(); err != nil || raw != "= " {
		t.Errorf("got (%q, %v)", raw, err)
	}
	if err := ch.Send(proto.Command{Name: "name"}); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("got %v", err)
	}
	if _, err := ch.Recv(); !errors.Is(err, io.EOF) {
		t.Errorf("got %v", err)
	}
}
