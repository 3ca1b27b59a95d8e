package rtmp

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Transport is the capability set the connection core needs from whatever
// carries its bytes. Design note: the core never type-asserts down to a
// concrete transport; it only ever sees this interface, so TCP, TLS or a
// tunnelled-HTTP transport are equally usable without the core knowing.
type Transport interface {
	Write(pack *Packet) error
	WriteRaw(buf []byte) error
	ReadPacket() (*Packet, error)
	ReadBytes() int64
	WrittenBytes() int64
	PendingMessages() int
	IsConnected() bool
	Close() error
}

// NetTransport adapts the wire-level *Conn (handshake + chunk codec) to the
// Transport capability set. It is the only Transport this module ships;
// applications embedding this package over a different carrier implement
// their own.
type NetTransport struct {
	conn     *Conn
	reader   *PacketReader
	wireLock *semaphore.Weighted

	readBytes    atomic.Int64
	writtenBytes atomic.Int64
	pending      atomic.Int32
	closed       atomic.Bool
}

// NewNetTransport wraps a handshaken *Conn. The wire chunk-stream id for
// each Packet travels with the Packet itself (Packet.Channel); the
// connection facade is what decides which channel a given write uses.
func NewNetTransport(conn *Conn) *NetTransport {
	t := &NetTransport{conn: conn, wireLock: semaphore.NewWeighted(1)}
	t.reader = NewPacketReader(&accountingReader{r: conn.org, t: t})
	return t
}

// accountingReader tallies bytes pulled off the wire so ReadBytes() stays
// accurate for the liveness monitor without the packet reader needing to
// know anything about accounting.
type accountingReader struct {
	r io.Reader
	t *NetTransport
}

func (a *accountingReader) Read(p []byte) (int, error) {
	n, err := a.r.Read(p)
	a.t.readBytes.Add(int64(n))
	return n, err
}

// ReadPacket reassembles and returns the next whole message from the wire.
func (t *NetTransport) ReadPacket() (*Packet, error) {
	pack, err := t.reader.ReadPacket()
	if err != nil {
		return nil, err
	}
	if pack.Type == PackSetChunkSize && len(pack.Data) >= 4 {
		t.reader.SetChunkSize(binary.BigEndian.Uint32(pack.Data))
	}
	return pack, nil
}

// Write serializes onto the wire lock so concurrent writers (multiple
// worker-pool goroutines handling messages for the same connection) never
// interleave a chunk header with another packet's data.
func (t *NetTransport) Write(pack *Packet) error {
	if err := t.wireLock.Acquire(context.Background(), 1); err != nil {
		return fmt.Errorf("acquire wire lock: %w", err)
	}
	defer t.wireLock.Release(1)

	t.pending.Add(1)
	defer t.pending.Add(-1)

	ch := Chunk{
		Type:       chunkLargest,
		Channel:    pack.Channel,
		Timestamp:  pack.Timestamp,
		PackType:   pack.Type,
		PackStream: pack.Stream,
		PackLength: uint32(len(pack.Data)),
	}

	hdr := make([]byte, maxChunkHdrSize)
	n, err := ch.Encode(hdr)
	if err != nil {
		return fmt.Errorf("encode chunk header: %w", err)
	}

	if _, err := t.conn.org.Write(hdr[:n]); err != nil {
		return fmt.Errorf("write chunk header: %w", err)
	}
	if _, err := t.conn.org.Write(pack.Data); err != nil {
		return fmt.Errorf("write chunk data: %w", err)
	}

	t.writtenBytes.Add(int64(n + len(pack.Data)))
	return nil
}

func (t *NetTransport) WriteRaw(buf []byte) error {
	if err := t.wireLock.Acquire(context.Background(), 1); err != nil {
		return fmt.Errorf("acquire wire lock: %w", err)
	}
	defer t.wireLock.Release(1)

	n, err := t.conn.org.Write(buf)
	t.writtenBytes.Add(int64(n))
	if err != nil {
		return fmt.Errorf("write raw: %w", err)
	}
	return nil
}

func (t *NetTransport) ReadBytes() int64     { return t.readBytes.Load() }
func (t *NetTransport) WrittenBytes() int64  { return t.writtenBytes.Load() }
func (t *NetTransport) PendingMessages() int { return int(t.pending.Load()) }
func (t *NetTransport) IsConnected() bool    { return !t.closed.Load() }

func (t *NetTransport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	return t.conn.Close()
}

var _ io.Closer = (*NetTransport)(nil)
