package rtmp

import (
	"fmt"
	"io"
)

// defaultChunkSize is RTMP's negotiated-chunk-size default before either
// side sends a PackSetChunkSize control.
const defaultChunkSize = 128

// chunkStreamState is the per-chunk-stream-id context a PacketReader needs
// to reassemble a full Packet out of however many wire chunks it was split
// into; type 1/2/3 chunk headers only carry the fields that changed since
// the last chunk on that same stream id, so the reader has to remember the
// rest.
type chunkStreamState struct {
	timestamp  uint32
	packLength uint32
	packType   uint8
	packStream uint32
	buf        []byte
}

// PacketReader reassembles the wire chunk stream into whole Packets. It
// keeps one chunkStreamState per channel id, since RTMP interleaves chunks
// from independent channels on a single socket.
type PacketReader struct {
	r         io.Reader
	chunkSize uint32
	states    map[uint32]*chunkStreamState
}

func NewPacketReader(r io.Reader) *PacketReader {
	return &PacketReader{
		r:         r,
		chunkSize: defaultChunkSize,
		states:    make(map[uint32]*chunkStreamState),
	}
}

// SetChunkSize applies a peer's PackSetChunkSize control to future reads.
func (pr *PacketReader) SetChunkSize(n uint32) {
	if n > 0 {
		pr.chunkSize = n
	}
}

// ReadPacket blocks until a whole message has been reassembled on some
// channel and returns it.
func (pr *PacketReader) ReadPacket() (*Packet, error) {
	for {
		var ch Chunk
		if err := ch.Decode(pr.r); err != nil {
			return nil, err
		}

		st, ok := pr.states[ch.Channel]
		if !ok {
			st = &chunkStreamState{}
			pr.states[ch.Channel] = st
		}

		switch ch.Type {
		case chunkLargest:
			st.timestamp = ch.Timestamp
			st.packLength = ch.PackLength
			st.packType = ch.PackType
			st.packStream = ch.PackStream
		case chunkLarge:
			st.timestamp += ch.Timestamp
			st.packLength = ch.PackLength
			st.packType = ch.PackType
		case chunkSmall:
			st.timestamp += ch.Timestamp
		case chunkSmallest:
			// Continuation of the in-progress message: every field is
			// inherited from the chunk stream's last header.
		}

		if st.buf == nil {
			st.buf = make([]byte, 0, st.packLength)
		}

		remaining := st.packLength - uint32(len(st.buf))
		toRead := remaining
		if toRead > pr.chunkSize {
			toRead = pr.chunkSize
		}

		payload := make([]byte, toRead)
		if _, err := io.ReadFull(pr.r, payload); err != nil {
			return nil, fmt.Errorf("read chunk payload: %w", err)
		}
		st.buf = append(st.buf, payload...)

		if uint32(len(st.buf)) >= st.packLength {
			pack := &Packet{
				Channel:   ch.Channel,
				Stream:    st.packStream,
				Type:      st.packType,
				Timestamp: st.timestamp,
				Data:      st.buf,
			}
			st.buf = nil
			return pack, nil
		}
	}
}
