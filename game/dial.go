// Player transports
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

package game

import (
	"net"
	"strings"

	"github.com/gorilla/websocket"

	"go-ringmaster/proto"
)

// Dial connects to a running player program.  Addresses of the form
// ws:// or wss:// are websocket endpoints, one text message per line
// block; anything else is taken as a host:port to reach over TCP.
// Starting the program itself is the operator's business.
func Dial(address string) (proto.Channel, error) {
	if strings.HasPrefix(address, "ws://") || strings.HasPrefix(address, "wss://") {
		conn, _, err := websocket.DefaultDialer.Dial(address, nil)
		if err != nil {
			return nil, err
		}
		return proto.NewWebSocketChannel(conn), nil
	}
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, err
	}
	return proto.NewIOChannel(conn), nil
}
