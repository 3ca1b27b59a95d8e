package rtmp

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Connection is the per-socket facade wiring the protocol state,
// channel table, stream registry, RPC ledger, liveness monitor, pending
// video counters and dispatch pipeline into a single object a Handler is
// driven through. It is the generalized shape of the connection class this
// module's transport and RPC layers were grounded on.
type Connection struct {
	id string

	transport Transport
	handler   Handler
	scope     Scope
	client    Client
	config    ConnectionConfig

	state    *ProtocolState
	channels *ChannelTable
	streams  *StreamRegistry
	rpc      *RPCLedger
	liveness *LivenessMonitor
	video    *videoPendingCounters
	pool     WorkerPool

	nextBytesRead   atomic.Int64
	clientBytesRead atomic.Int64
	packetSequence  atomic.Int64
	currentQueue    atomic.Int64
	readMessages    atomic.Int64
	writtenMessages atomic.Int64
	droppedMessages atomic.Int64
	timer           atomic.Int32

	closing atomic.Bool

	mu   sync.Mutex
	host string
	path string
}

// NewConnection builds a connection facade over transport. Handshake must
// already be complete on the underlying transport; the caller drives
// Open/Connect once a wire handshake succeeds.
func NewConnection(id string, transport Transport, handler Handler, sched Scheduler, pool WorkerPool, cfg ConnectionConfig) *Connection {
	cfg.setDefaults()

	c := &Connection{
		id:        id,
		transport: transport,
		handler:   handler,
		config:    cfg,
		state:     &ProtocolState{},
		video:     newVideoPendingCounters(),
		pool:      pool,
	}
	c.channels = newChannelTable(c)
	c.streams = newStreamRegistry(c)
	c.rpc = newRPCLedger(c)
	c.liveness = newLivenessMonitor(c, sched, &cfg)
	c.state.SetPhase(PhaseHandshake)
	return c
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) String() string {
	return fmt.Sprintf("Connection{id=%s, state=%s, read=%d, written=%d}",
		c.id, c.state.Phase(), c.transport.ReadBytes(), c.transport.WrittenBytes())
}

// Open marks the connection ready to accept a handshake and arms the
// handshake timeout.
func (c *Connection) Open() {
	c.liveness.StartHandshakeTimeout()
}

// Connect binds the connection to scope once the peer's connect command has
// been decoded, negotiating AMF encoding from params. It always returns nil;
// a session the handler refuses goes through Reject instead, which returns
// the *ClientRejected.
func (c *Connection) Connect(scope Scope, client Client, params ConnectParams) error {
	c.state.SetEncodingFromParams(params)
	c.scope = scope
	c.client = client

	c.liveness.CancelHandshakeTimeout()
	c.state.SetPhase(PhaseConnected)
	c.liveness.StartKeepAlive()
	return nil
}

// Reject fails the connect handshake without ever transitioning to
// PhaseConnected; it is a convenience for handlers that decide to refuse a
// session.
func (c *Connection) Reject(reason string) error {
	c.liveness.CancelHandshakeTimeout()
	return &ClientRejected{Reason: reason}
}

func (c *Connection) IsConnected() bool {
	return c.state.Phase() == PhaseConnected && c.transport.IsConnected()
}

// Setup records the connect-time host/path a scope resolves against.
func (c *Connection) Setup(host, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.host = host
	c.path = path
}

func (c *Connection) Host() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.host
}

func (c *Connection) Path() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path
}

// Timer returns a monotonically increasing timestamp suitable for stamping
// outbound packets, distinct from wall-clock time.
func (c *Connection) Timer() int32 {
	return c.timer.Add(1)
}

// SetBandwidth advertises the server's send window and the peer's receive
// ceiling.
func (c *Connection) SetBandwidth(mbits uint32) error {
	ch := c.channels.Get(2)

	server := &ServerBWMessage{WindowSize: mbits}
	if err := ch.Write(server.Encode()); err != nil {
		return fmt.Errorf("write server bandwidth: %w", err)
	}

	client := &ClientBWMessage{WindowSize: mbits, LimitType: c.config.LimitType}
	if err := ch.Write(client.Encode()); err != nil {
		return fmt.Errorf("write client bandwidth: %w", err)
	}
	return nil
}

func (c *Connection) sendPing(eventType uint16, value2 uint32) error {
	ping := &PingMessage{EventType: eventType, Value2: value2}
	return c.channels.Get(2).Write(ping.Encode())
}

// Ping triggers an immediate liveness ping, outside the fixed-rate schedule.
func (c *Connection) Ping() {
	c.liveness.Ping()
}

// PingReceived feeds a decoded PONG_CLIENT event back into the liveness
// monitor's round-trip measurement.
func (c *Connection) PingReceived(pong *PingMessage) {
	c.liveness.PingReceived(pong.Value2)
}

func (c *Connection) LastPingRoundTripTime() int64 {
	return c.liveness.LastPingRoundTripTime()
}

func (c *Connection) IsIdle() bool {
	return c.liveness.IsIdle()
}

// Write serializes pack onto the wire via the connection's transport. All
// outbound writes funnel through here so ChannelHandle.Write, SetBandwidth
// and the RPC ledger share one accounting point.
func (c *Connection) Write(pack *Packet) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.writingMessage(pack)
	if err := c.transport.Write(pack); err != nil {
		if pack.Type == PackVideo {
			c.video.decrement(GetStreamIDForChannel(pack.Channel))
		}
		c.messageDropped()
		return fmt.Errorf("write packet: %w", err)
	}
	c.messageSent(pack)
	return nil
}

// WriteRaw bypasses chunk framing entirely, used for handshake bytes and
// other pre-negotiation wire traffic.
func (c *Connection) WriteRaw(buf []byte) error {
	return c.transport.WriteRaw(buf)
}

func (c *Connection) writingMessage(pack *Packet) {
	if pack.Type == PackVideo {
		c.video.increment(GetStreamIDForChannel(pack.Channel))
	}
}

func (c *Connection) messageSent(pack *Packet) {
	if pack.Type == PackVideo {
		c.video.decrement(GetStreamIDForChannel(pack.Channel))
	}
	c.writtenMessages.Add(1)
}

func (c *Connection) messageDropped() {
	c.droppedMessages.Add(1)
}

// PendingVideoMessages reports the outstanding unconfirmed VIDEO_DATA count
// for streamID.
func (c *Connection) PendingVideoMessages(streamID int) int64 {
	return c.video.PendingVideoMessages(streamID)
}

// messageReceived accounts a fully-decoded inbound message and triggers a
// BytesRead advertisement once enough bytes have accumulated.
func (c *Connection) messageReceived() {
	c.readMessages.Add(1)
	c.updateBytesRead()
}

func (c *Connection) updateBytesRead() {
	bytesRead := c.transport.ReadBytes()
	if bytesRead >= c.nextBytesRead.Load() {
		msg := &BytesReadMessage{Bytes: uint32(bytesRead % (1 << 31))}
		if err := c.channels.Get(2).Write(msg.Encode()); err != nil {
			Warnf("send bytes-read on %s: %v", c, err)
		}
		c.nextBytesRead.Add(c.config.BytesReadIntervalBytes)
	}
}

// ReceivedBytesRead records the peer's own BytesRead advertisement.
func (c *Connection) ReceivedBytesRead(bytes uint32) {
	Debugf("%s received %d bytes, written %d, %d messages pending", c, bytes, c.transport.WrittenBytes(), c.transport.PendingMessages())
	c.clientBytesRead.Add(int64(bytes))
}

// ClientBytesRead returns the cumulative count the peer has reported back
// to us via BytesRead.
func (c *Connection) ClientBytesRead() int64 {
	return c.clientBytesRead.Load()
}

// Invoke, Notify and Status delegate to the RPC ledger on the default
// command channel (3).
func (c *Connection) Invoke(method string, params []any) (*PendingCall, error) {
	return c.rpc.Invoke(nil, method, params)
}

func (c *Connection) Notify(method string, params []any) error {
	return c.rpc.Notify(nil, method, params)
}

func (c *Connection) Status(status *StatusMessage) error {
	return c.rpc.Status(nil, status)
}

// DispatchEvent routes an outbound invoke/notify request, the generalized
// analogue of dispatching a ClientInvokeEvent/ClientNotifyEvent onto the
// wire.
func (c *Connection) DispatchEvent(kind EventKind, method string, params []any) error {
	switch kind {
	case EventClientInvoke:
		_, err := c.Invoke(method, params)
		return err
	case EventClientNotify:
		return c.Notify(method, params)
	default:
		return fmt.Errorf("rtmp: unhandled event kind %v", kind)
	}
}

// EventKind selects which verb DispatchEvent uses to deliver an outbound
// request.
type EventKind int

const (
	EventClientInvoke EventKind = iota
	EventClientNotify
)

// SendSharedObjectMessage writes a shared-object synchronization event on
// channel 3, the shared control channel for non-stream traffic. The flex
// variant is chosen from the connection's negotiated encoding, not left to
// the caller.
func (c *Connection) SendSharedObjectMessage(msg *SharedObjectMessage) error {
	msg.IsFlex = c.state.Encoding() == EncodingAMF3
	pack, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("encode shared object message: %w", err)
	}
	return c.channels.Get(3).Write(pack)
}

// onInactive is the liveness monitor's teardown trigger.
func (c *Connection) onInactive() {
	c.Close()
}

// dispatch is the admission-controlled inbound pipeline. Control
// messages (ping, abort, bytes-read, chunk-size, bandwidth) always run
// synchronously on the caller's goroutine; everything else is submitted to
// the worker pool, with AUDIO_DATA subject to the queue-threshold drop.
func (c *Connection) dispatch(pack *Packet) {
	if isControlType(pack.Type) {
		defer func() {
			if r := recover(); r != nil {
				Errorf("control message panic on %s: %v", c, r)
			}
		}()
		if err := c.handler.MessageReceived(c, pack); err != nil {
			Errorf("control message error on %s: %v", c, err)
		}
		return
	}

	packetNumber := c.packetSequence.Add(1)

	threshold := c.config.QueueThresholdForAudioDrop
	if threshold > 0 && pack.Type == PackAudio && c.currentQueue.Load() >= int64(threshold) {
		Infof("queue threshold reached on %s: discarding audio packet #%d", c, packetNumber)
		c.messageDropped()
		return
	}

	c.currentQueue.Add(1)
	timeout := time.Duration(c.config.MaxHandlingTimeoutMs) * time.Millisecond

	err := c.pool.Submit(func(ctx context.Context) error {
		return c.handler.MessageReceived(c, pack)
	}, timeout, func(err error) {
		c.currentQueue.Add(-1)
		if err != nil {
			Warnf("message handling failed on %s, packet #%d: %v", c, packetNumber, err)
		}
	})
	if err != nil {
		c.currentQueue.Add(-1)
		Infof("rejected message on %s, packet #%d: %v", c, packetNumber, err)
	}
}

// HandleMessageReceived is the transport reader's single entry point for a
// fully decoded packet.
func (c *Connection) HandleMessageReceived(pack *Packet) {
	c.messageReceived()
	c.dispatch(pack)
}

func isControlType(t uint8) bool {
	switch t {
	case PackUserCtrl, PackAbort, PackAck, PackSetChunkSize, PackSetBandwidth, PackWinAckSize:
		return true
	default:
		return false
	}
}

// Close tears the connection down exactly once: cancels liveness tasks,
// deletes every live stream through the scope's stream service, fails every
// pending RPC call, clears every table and closes the transport.
func (c *Connection) Close() error {
	if !c.closing.CompareAndSwap(false, true) {
		return ErrAlreadyClosing
	}

	c.liveness.close()

	if c.state.Phase() != PhaseDisconnected {
		c.state.SetPhase(PhaseDisconnecting)
	}

	if c.scope != nil {
		if svc, err := c.scope.GetStreamService(); err == nil && svc != nil {
			for _, stream := range c.streams.Streams() {
				Debugf("closing stream %d on %s", stream.StreamID(), c)
				svc.DeleteStream(c, stream.StreamID())
			}
		}
	}

	c.channels.Clear()
	c.streams.clear()
	c.rpc.closeWithError()
	c.video.clear()

	err := c.transport.Close()
	c.state.SetPhase(PhaseDisconnected)
	return err
}

func (c *Connection) IsClosing() bool {
	return c.closing.Load()
}

// Serve drives the transport's read loop until it errs or the connection
// closes, handing every decoded packet to HandleMessageReceived. Callers
// run it on its own goroutine per accepted connection.
func (c *Connection) Serve() error {
	defer c.Close()

	for {
		pack, err := c.transport.ReadPacket()
		if err != nil {
			if c.closing.Load() {
				return nil
			}
			return fmt.Errorf("read packet: %w", err)
		}
		c.HandleMessageReceived(pack)
	}
}
