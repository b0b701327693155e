// Websocket transport tests
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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

// wsPlayer serves a canned engine over a websocket, one text message
// per request and response.
func wsPlayer(t *testing.T) *httptest.Server {
	t.Helper()
	var upgrader websocket.Upgrader
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var resp string
			switch strings.TrimSpace(string(msg)) {
			case "protocol_version":
				resp = "= 2\n\n"
			case "multiline":
				resp = "= first\n##hash\n\n"
			default:
				resp = "? unknown command\n\n"
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(resp)); err != nil {
				return
			}
		}
	}))
}

func TestWebSocketChannel(t *testing.T) {
	srv := wsPlayer(t)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(
		"ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	ctl := NewController(NewWebSocketChannel(conn), "ws player")
	defer ctl.Close()

	resp, err := ctl.Exchange(Command{Name: "protocol_version"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.IsFailure || resp.Text != "2" {
		t.Errorf("got %#v", resp)
	}

	// Escaped continuation lines survive the message transport.
	resp, err = ctl.Exchange(Command{Name: "multiline"})
	if err != nil {
		t.Fatal(err)
	}
	if want := "first\n#hash"; resp.Text != want {
		t.Errorf("got %q, want %q", resp.Text, want)
	}

	resp, err = ctl.Exchange(Command{Name: "nonesuch"})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.IsFailure || resp.Text != "unknown command" {
		t.Errorf("got %#v", resp)
	}
}
