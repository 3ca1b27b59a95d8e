package rtmp

import "sync/atomic"

// Phase is the connection's lifecycle position. Monotone in practice: once
// DISCONNECTED is observed, close() refuses to run its teardown a second
// time, but setPhase itself never rejects an ordering.
type Phase int32

const (
	PhaseUninit Phase = iota
	PhaseHandshake
	PhaseHandshakeOK
	PhaseConnect
	PhaseConnected
	PhaseDisconnecting
	PhaseDisconnected
)

func (p Phase) String() string {
	switch p {
	case PhaseUninit:
		return "UNINIT"
	case PhaseHandshake:
		return "HANDSHAKE"
	case PhaseHandshakeOK:
		return "HANDSHAKE_OK"
	case PhaseConnect:
		return "CONNECT"
	case PhaseConnected:
		return "CONNECTED"
	case PhaseDisconnecting:
		return "DISCONNECTING"
	case PhaseDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Encoding is the AMF variant this connection negotiated at connect time.
type Encoding int32

const (
	EncodingAMF0 Encoding = iota
	EncodingAMF3
)

// ProtocolState holds the connection's lifecycle phase plus its AMF
// encoding, held as independent atomics so readers never block on writers.
type ProtocolState struct {
	phase    atomic.Int32
	encoding atomic.Int32
}

func (s *ProtocolState) Phase() Phase {
	return Phase(s.phase.Load())
}

func (s *ProtocolState) SetPhase(p Phase) {
	s.phase.Store(int32(p))
}

func (s *ProtocolState) Encoding() Encoding {
	return Encoding(s.encoding.Load())
}

func (s *ProtocolState) SetEncoding(e Encoding) {
	s.encoding.Store(int32(e))
}

func (s *ProtocolState) IsDisconnected() bool {
	return s.Phase() == PhaseDisconnected
}

// SetEncodingFromParams applies the connect-time objectEncoding convention:
// AMF3 iff the client advertised objectEncoding == 3, AMF0 otherwise.
func (s *ProtocolState) SetEncodingFromParams(params ConnectParams) {
	if params.ObjectEncoding() == 3 {
		s.SetEncoding(EncodingAMF3)
	} else {
		s.SetEncoding(EncodingAMF0)
	}
}
