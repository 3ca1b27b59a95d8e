package rtmp

import (
	"fmt"

	"github.com/riverstage/rtmp-go/amf"
)

// DefaultHandler implements the connect/createStream/publish/deleteStream
// command vocabulary against a ScopeResolver, decoding the CommandMessage
// types this module ships. Applications with richer NetConnection command
// sets wrap or replace it.
type DefaultHandler struct {
	Resolver ScopeResolver
}

func (h *DefaultHandler) MessageReceived(conn *Connection, pack *Packet) error {
	switch pack.Type {
	case PackCmdAMF0:
		return h.handleCommand(conn, pack)
	case PackUserCtrl:
		return h.handlePing(conn, pack)
	case PackAck:
		var msg BytesReadMessage
		if err := msg.FromPacket(pack); err != nil {
			return err
		}
		conn.ReceivedBytesRead(msg.Bytes)
		return nil
	case PackSetChunkSize, PackAbort, PackSetBandwidth, PackWinAckSize:
		// SetChunkSize is applied by NetTransport.ReadPacket; the others
		// are ignored.
		return nil
	default:
		return nil
	}
}

func (h *DefaultHandler) handlePing(conn *Connection, pack *Packet) error {
	var msg PingMessage
	if err := msg.FromPacket(pack); err != nil {
		return err
	}
	if msg.EventType == PongClientEvent {
		conn.PingReceived(&msg)
	}
	return nil
}

func (h *DefaultHandler) handleCommand(conn *Connection, pack *Packet) error {
	dec := amf.NewDecoder()
	dec.SetData(pack.Data)

	var hdr CommandHeader
	if err := hdr.Decode(dec); err != nil {
		return fmt.Errorf("decode command header: %w", err)
	}

	switch hdr.Label() {
	case CmdConnect:
		return h.handleConnect(conn, &hdr, dec)
	case CmdCreateStream:
		return h.handleCreateStream(conn, &hdr, dec)
	case CmdPublishStream:
		return h.handlePublish(conn, pack, &hdr, dec)
	case CmdDeleteStream:
		return h.handleDeleteStream(conn, &hdr, dec)
	default:
		Debugf("unhandled command %d on %s", hdr.Label(), conn)
		return nil
	}
}

func (h *DefaultHandler) handleConnect(conn *Connection, hdr *CommandHeader, dec *amf.Decoder) error {
	msg := &ConnectMessage{cmdmesg: cmdmesg{hdr: *hdr}}
	if err := msg.Decode(dec); err != nil {
		return fmt.Errorf("decode connect: %w", err)
	}

	scope, err := h.Resolver.Resolve(msg.AppName, "")
	if err != nil {
		conn.Reject(err.Error())
		return conn.Status(&StatusMessage{
			Level: "error",
			Code:  "NetConnection.Connect.Rejected",
		})
	}

	params := ConnectParams{"objectEncoding": msg.ObjectEncoding}
	if err := conn.Connect(scope, nil, params); err != nil {
		return err
	}
	conn.Setup(msg.AppName, "")

	reply := &ConnectCommandReply{
		cmdmesg:      cmdmesg{hdr: CommandHeader{label: CmdResult, trx: hdr.Trx()}},
		FMSVer:       "FMS/3,0,1,123",
		Capabilities: 31,
		Info: CommandReplyInfo{
			Level:       "status",
			Code:        "NetConnection.Connect.Success",
			Description: "Connection succeeded.",
		},
	}
	if err := h.writeCommand(conn, reply); err != nil {
		return err
	}
	return conn.SetBandwidth(2500000)
}

func (h *DefaultHandler) handleCreateStream(conn *Connection, hdr *CommandHeader, dec *amf.Decoder) error {
	msg := &CreateStreamMessage{cmdmesg: cmdmesg{hdr: *hdr}}
	if err := msg.Decode(dec); err != nil {
		return fmt.Errorf("decode createStream: %w", err)
	}

	streamID := conn.streams.ReserveStreamID()

	reply := &CreateStreamCommandReply{
		cmdmesg: cmdmesg{hdr: CommandHeader{label: CmdResult, trx: hdr.Trx()}},
		Stream:  uint32(streamID),
	}
	return h.writeCommand(conn, reply)
}

func (h *DefaultHandler) handlePublish(conn *Connection, pack *Packet, hdr *CommandHeader, dec *amf.Decoder) error {
	msg := &PublishStreamMessage{cmdmesg: cmdmesg{hdr: *hdr}}
	if err := msg.Decode(dec); err != nil {
		return fmt.Errorf("decode publish: %w", err)
	}

	streamID := int(pack.Stream)
	stream, err := conn.streams.NewBroadcastStream(streamID)
	if err != nil {
		return fmt.Errorf("create broadcast stream: %w", err)
	}
	if stream == nil {
		return conn.Status(&StatusMessage{
			Level: "error",
			Code:  "NetStream.Publish.BadName",
		})
	}

	ch := outputChannelBase(streamID)
	return conn.channels.Get(ch).SendStatus(&StatusMessage{
		Level:       "status",
		Code:        "NetStream.Publish.Start",
		Description: fmt.Sprintf("%s is now published", msg.PublishingName),
	})
}

func (h *DefaultHandler) handleDeleteStream(conn *Connection, hdr *CommandHeader, dec *amf.Decoder) error {
	msg := &CloseStreamMessage{cmdmesg: cmdmesg{hdr: *hdr}}
	if err := msg.Decode(dec); err != nil {
		return fmt.Errorf("decode deleteStream: %w", err)
	}
	conn.streams.UnreserveStreamID(int(msg.Stream))
	return nil
}

func (h *DefaultHandler) writeCommand(conn *Connection, reply CommandReply) error {
	enc := amf.NewEncoder()
	if err := reply.Encode(enc); err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}
	return conn.channels.Get(3).Write(&Packet{Type: PackCmdAMF0, Data: enc.Data()})
}
