package rtmp

import (
	"encoding/binary"
	"fmt"

	"github.com/riverstage/rtmp-go/amf"
)

type Message interface{}

type BasicMessage interface {
	FromPacket(pack *Packet)
}

type VideoMessage struct {
	Timestamp uint32
	Data      []byte
}

func (m *VideoMessage) FromPacket(pack *Packet) {
	m.Timestamp = pack.Timestamp
	m.Data = pack.Data
}

type AudioMessage struct {
	Timestamp uint32
	Data      []byte
}

func (m *AudioMessage) FromPacket(pack *Packet) {
	m.Timestamp = pack.Timestamp
	m.Data = pack.Data
}

// User control event types, carried in the first two bytes of a PackUserCtrl
// packet.
const (
	StreamBeginEvent      uint16 = 0
	StreamEOFEvent        uint16 = 1
	StreamDryEvent        uint16 = 2
	SetBufferLengthEvent  uint16 = 3
	StreamIsRecordedEvent uint16 = 4
	PingClientEvent       uint16 = 6
	PongClientEvent       uint16 = 7
)

// PingMessage is a User Control Message, the liveness control primitive:
// EventType selects the sub-message, Value1 is usually a stream id, and
// Value2 carries either a buffer length (SetBufferLength) or an echoed
// low-32-bit timestamp (PingClient/PongClient round trips).
type PingMessage struct {
	EventType uint16
	Value1    uint32
	Value2    uint32
}

func (m *PingMessage) FromPacket(pack *Packet) error {
	if len(pack.Data) < 6 {
		return fmt.Errorf("rtmp: short user control message: %d bytes", len(pack.Data))
	}
	m.EventType = binary.BigEndian.Uint16(pack.Data[0:2])
	m.Value1 = binary.BigEndian.Uint32(pack.Data[2:6])
	if len(pack.Data) >= 10 {
		m.Value2 = binary.BigEndian.Uint32(pack.Data[6:10])
	}
	return nil
}

func (m *PingMessage) Encode() *Packet {
	buf := make([]byte, 10)
	binary.BigEndian.PutUint16(buf[0:2], m.EventType)
	binary.BigEndian.PutUint32(buf[2:6], m.Value1)
	binary.BigEndian.PutUint32(buf[6:10], m.Value2)
	return &Packet{Type: PackUserCtrl, Data: buf}
}

// BytesReadMessage is the periodic acknowledgement of bytes received.
type BytesReadMessage struct {
	Bytes uint32
}

func (m *BytesReadMessage) FromPacket(pack *Packet) error {
	if len(pack.Data) < 4 {
		return fmt.Errorf("rtmp: short bytes-read message: %d bytes", len(pack.Data))
	}
	m.Bytes = binary.BigEndian.Uint32(pack.Data[0:4])
	return nil
}

func (m *BytesReadMessage) Encode() *Packet {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, m.Bytes)
	return &Packet{Type: PackAck, Data: buf}
}

// ServerBWMessage advertises the server's own outbound bandwidth window.
type ServerBWMessage struct {
	WindowSize uint32
}

func (m *ServerBWMessage) Encode() *Packet {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, m.WindowSize)
	return &Packet{Type: PackWinAckSize, Data: buf}
}

// ClientBWMessage advertises a peer bandwidth limit; LimitType selects hard,
// soft or dynamic enforcement.
type ClientBWMessage struct {
	WindowSize uint32
	LimitType  LimitType
}

func (m *ClientBWMessage) Encode() *Packet {
	buf := make([]byte, 5)
	binary.BigEndian.PutUint32(buf[0:4], m.WindowSize)
	buf[4] = byte(m.LimitType)
	return &Packet{Type: PackSetBandwidth, Data: buf}
}

// StatusMessage is an onStatus Invoke, the vocabulary handlers use to report
// stream-scoped outcomes (NetStream.Publish.Start, NetStream.Play.Failed,
// and so on) back to the peer.
type StatusMessage struct {
	Code        string
	Level       string
	Description string
	ClientID    string
}

func (m *StatusMessage) encode(enc Encoding) (*Packet, error) {
	e := amf.NewEncoder()
	e.PutString("onStatus")
	e.PutUint32(0)
	e.PutNull()

	info := amf.NewObject()
	info.AddProp("level", m.Level)
	info.AddProp("code", m.Code)
	info.AddProp("description", m.Description)
	if m.ClientID != "" {
		info.AddProp("clientid", m.ClientID)
	}
	if err := e.PutObject(&info); err != nil {
		return nil, fmt.Errorf("encode status info: %w", err)
	}

	return &Packet{Type: PackCmdAMF0, Data: e.Data()}, nil
}

// SharedObjectMessage is a synchronization event exchanged over a shared
// object's channel. Flex clients (objectEncoding == 3) prefix the payload
// with a leading marker byte, distinguished here by IsFlex rather than by a
// separate wire type.
type SharedObjectMessage struct {
	Name   string
	IsFlex bool
	Events []SharedObjectEvent
}

type SharedObjectEvent struct {
	Type uint8
	Key  string
	Data any
}

const (
	SOEConnect uint8 = iota
	SOEDisconnect
	SOESetAttribute
	SOEDeleteAttribute
	SOESendMessage
	SOEClear
)

func (m *SharedObjectMessage) Encode() (*Packet, error) {
	e := amf.NewEncoder()
	if m.IsFlex {
		e.PutUint8(0)
	}
	e.PutString(m.Name)
	e.PutUint32(0) // version, unused by this transport
	e.PutUint32(0) // persistence flag
	e.PutUint32(0) // reserved

	for _, ev := range m.Events {
		e.PutUint8(ev.Type)
		if ev.Key != "" {
			e.PutString(ev.Key)
		}
	}

	return &Packet{Type: PackSharedObjAMF0, Data: e.Data()}, nil
}
