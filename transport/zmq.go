// Copyright 2024 The Bloomevm Authors
// This file is part of Bloomevm.
//
// Bloomevm is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Bloomevm is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Bloomevm. If not, see <http://www.gnu.org/licenses/>.

// Package transport binds the service dispatcher to a ZeroMQ ROUTER
// socket, grounded on chain-state/src/query_service.rs in the original
// prototype. The dispatcher itself (package service) never imports this
// package — the envelope is decoded here and handed over as a plain
// service.Request.
package transport

import (
	"github.com/dao-galaxy/bloomevm/service"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pebbe/zmq4"
	"go.uber.org/zap"
)

// envelope is the wire form of service.Request (spec §6): method, id,
// and method-specific params.
type envelope struct {
	Method string
	ID     uint64
	Params rlp.RawValue
}

// Server serves a Dispatcher over a ZeroMQ ROUTER socket bound to
// endpoint. Every request arrives as a two-part multipart message
// {identity, payload}; the identity frame is echoed back unchanged so the
// DEALER-side client's reply routes correctly (spec §6's "multi-part
// identity+payload message").
type Server struct {
	socket     *zmq4.Socket
	dispatcher *service.Dispatcher
	log        *zap.Logger
}

// NewServer binds a ROUTER socket at endpoint.
func NewServer(endpoint string, dispatcher *service.Dispatcher, log *zap.Logger) (*Server, error) {
	socket, err := zmq4.NewSocket(zmq4.ROUTER)
	if err != nil {
		return nil, err
	}
	if err := socket.Bind(endpoint); err != nil {
		socket.Close()
		return nil, err
	}
	return &Server{socket: socket, dispatcher: dispatcher, log: log}, nil
}

// Close releases the underlying socket.
func (s *Server) Close() error {
	return s.socket.Close()
}

// Serve processes requests forever, replying to each before accepting the
// next (spec §5: "requests are processed in socket-arrival order per
// thread"). It returns only on a socket error.
func (s *Server) Serve() error {
	for {
		parts, err := s.socket.RecvMessageBytes(0)
		if err != nil {
			return err
		}
		if len(parts) < 2 {
			continue
		}
		identity := parts[0]
		payload := parts[len(parts)-1]

		reply := s.handleOne(payload)
		replyBytes, err := rlp.EncodeToBytes(&reply)
		if err != nil {
			s.log.Error("encode reply", zap.Error(err))
			continue
		}
		if _, err := s.socket.SendMessage(identity, replyBytes); err != nil {
			s.log.Error("send reply", zap.Error(err))
		}
	}
}

func (s *Server) handleOne(payload []byte) service.Reply {
	var env envelope
	if err := rlp.DecodeBytes(payload, &env); err != nil {
		msg, _ := rlp.EncodeToBytes("malformed request envelope")
		return service.Reply{Status: 1, Result: msg}
	}
	return s.dispatcher.Handle(service.Request{Method: env.Method, ID: env.ID, Params: env.Params})
}
