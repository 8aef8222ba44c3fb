package volumio

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Volumio exposes its control channel through socket.io 1.x, which layers
// socket.io packets inside engine.io frames. Over the websocket transport a
// frame is plain text: one engine.io type digit, for messages followed by a
// socket.io type digit, an optional ack id, and a JSON array payload.
//
//	0{"sid":...}      engine.io open (handshake)
//	2 / 3             engine.io ping / pong
//	40                socket.io connect
//	42["play",{}]     socket.io event
//	430[...]          socket.io ack for id 0

// Engine.io packet types (first digit of every frame).
const (
	EngineOpen    = '0'
	EngineClose   = '1'
	EnginePing    = '2'
	EnginePong    = '3'
	EngineMessage = '4'
	EngineUpgrade = '5'
	EngineNoop    = '6'
)

// Socket.io packet types (second digit of message frames).
const (
	SocketConnect    = '0'
	SocketDisconnect = '1'
	SocketEvent      = '2'
	SocketAck        = '3'
	SocketError      = '4'
)

// Handshake is the payload of the engine.io open packet. Intervals are in
// milliseconds as sent by the server.
type Handshake struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"`
	PingTimeout  int    `json:"pingTimeout"`
}

// Packet is one decoded frame.
type Packet struct {
	Engine byte
	Socket byte // valid when Engine == EngineMessage

	// Event fields, valid when Socket == SocketEvent.
	Event string
	Data  json.RawMessage // remaining argument array elements, may be nil

	// AckID is the acknowledgement id, or -1 when absent.
	AckID int64

	// Raw payload after the type digits.
	Payload []byte
}

// ParsePacket decodes a single websocket text frame.
func ParsePacket(raw []byte) (Packet, error) {
	if len(raw) == 0 {
		return Packet{}, fmt.Errorf("empty frame")
	}

	p := Packet{Engine: raw[0], AckID: -1}
	rest := raw[1:]

	switch p.Engine {
	case EngineOpen, EngineClose, EnginePing, EnginePong, EngineUpgrade, EngineNoop:
		p.Payload = rest
		return p, nil
	case EngineMessage:
	default:
		return Packet{}, fmt.Errorf("unknown engine.io type %q", p.Engine)
	}

	if len(rest) == 0 {
		return Packet{}, fmt.Errorf("message frame without socket.io type")
	}
	p.Socket = rest[0]
	rest = rest[1:]

	switch p.Socket {
	case SocketConnect, SocketDisconnect, SocketError:
		p.Payload = rest
		return p, nil
	case SocketEvent, SocketAck:
	default:
		return Packet{}, fmt.Errorf("unknown socket.io type %q", p.Socket)
	}

	// Optional ack id: digits before the payload array.
	var idEnd int
	for idEnd < len(rest) && rest[idEnd] >= '0' && rest[idEnd] <= '9' {
		idEnd++
	}
	if idEnd > 0 {
		id, err := strconv.ParseInt(string(rest[:idEnd]), 10, 64)
		if err != nil {
			return Packet{}, fmt.Errorf("parse ack id: %w", err)
		}
		p.AckID = id
		rest = rest[idEnd:]
	}
	p.Payload = rest

	if p.Socket != SocketEvent {
		return p, nil
	}

	var args []json.RawMessage
	if err := json.Unmarshal(rest, &args); err != nil {
		return Packet{}, fmt.Errorf("decode event payload: %w", err)
	}
	if len(args) == 0 {
		return Packet{}, fmt.Errorf("event without a name")
	}
	if err := json.Unmarshal(args[0], &p.Event); err != nil {
		return Packet{}, fmt.Errorf("decode event name: %w", err)
	}
	if len(args) > 1 {
		p.Data = args[1]
	}
	return p, nil
}

// ParseHandshake decodes the payload of an engine.io open packet.
func ParseHandshake(payload []byte) (Handshake, error) {
	var h Handshake
	if err := json.Unmarshal(payload, &h); err != nil {
		return Handshake{}, fmt.Errorf("decode handshake: %w", err)
	}
	if h.SID == "" {
		return Handshake{}, fmt.Errorf("handshake without sid")
	}
	return h, nil
}

// EncodeEvent builds an event frame: 42["name",args...].
func EncodeEvent(event string, args ...any) ([]byte, error) {
	elems := make([]any, 0, len(args)+1)
	elems = append(elems, event)
	elems = append(elems, args...)

	payload, err := json.Marshal(elems)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", event, err)
	}

	frame := make([]byte, 0, len(payload)+2)
	frame = append(frame, EngineMessage, SocketEvent)
	frame = append(frame, payload...)
	return frame, nil
}

// pingFrame and closeFrame are the fixed engine.io control frames.
var (
	pingFrame  = []byte{EnginePing}
	closeFrame = []byte{EngineClose}
)
