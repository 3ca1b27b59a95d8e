package rtmp

import (
	"sync"
	"sync/atomic"

	"github.com/riverstage/rtmp-go/amf"
)

// PendingCall is a remote call awaiting its _result/_error reply, keyed by
// the transaction id it was invoked with.
type PendingCall struct {
	Method string
	Params []any

	mu       sync.Mutex
	status   CallStatus
	callback func(status CallStatus, params []any)
}

func newPendingCall(method string, params []any) *PendingCall {
	return &PendingCall{Method: method, Params: params, status: CallStatusPending}
}

func (c *PendingCall) OnResult(cb func(status CallStatus, params []any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callback = cb
}

func (c *PendingCall) resolve(status CallStatus, params []any) {
	c.mu.Lock()
	c.status = status
	cb := c.callback
	c.mu.Unlock()
	if cb != nil {
		cb(status, params)
	}
}

func (c *PendingCall) Status() CallStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// RPCLedger is the connection's outstanding RPC bookkeeping. It hands
// out transaction ids, tracks calls invoked against the peer, and provides
// the invoke/notify/status verbs a handler drives through a Connection.
type RPCLedger struct {
	conn *Connection

	trx atomic.Uint32

	mu           sync.Mutex
	pendingCalls map[uint32]*PendingCall

	deferredMu     sync.Mutex
	deferredResult map[*PendingCall]struct{}
}

func newRPCLedger(conn *Connection) *RPCLedger {
	return &RPCLedger{
		conn:           conn,
		pendingCalls:   make(map[uint32]*PendingCall),
		deferredResult: make(map[*PendingCall]struct{}),
	}
}

// NextTransactionID hands out the next RPC transaction id. Ids start at 2:
// the first slot is implicitly reserved for the connect handshake, which is
// negotiated before any ledger exists.
func (l *RPCLedger) NextTransactionID() uint32 {
	return l.trx.Add(1) + 1
}

func (l *RPCLedger) registerPendingCall(trx uint32, call *PendingCall) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pendingCalls[trx] = call
}

func (l *RPCLedger) GetPendingCall(trx uint32) *PendingCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pendingCalls[trx]
}

func (l *RPCLedger) RetrievePendingCall(trx uint32) *PendingCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	call, ok := l.pendingCalls[trx]
	if !ok {
		return nil
	}
	delete(l.pendingCalls, trx)
	return call
}

// Invoke sends method as an Invoke command on channel, returning a
// PendingCall the caller can attach a result callback to. Pass a nil
// channel handle to use the default command channel (3).
func (l *RPCLedger) Invoke(ch *ChannelHandle, method string, params []any) (*PendingCall, error) {
	if ch == nil {
		ch = l.conn.channels.Get(3)
	}

	trx := l.NextTransactionID()
	call := newPendingCall(method, params)
	l.registerPendingCall(trx, call)

	pack, err := encodeInvoke(l.conn.state.Encoding(), trx, method, params)
	if err != nil {
		l.RetrievePendingCall(trx)
		return nil, err
	}
	if err := ch.Write(pack); err != nil {
		l.RetrievePendingCall(trx)
		return nil, err
	}
	return call, nil
}

// Notify sends method as a one-way Notify command; no reply is expected.
func (l *RPCLedger) Notify(ch *ChannelHandle, method string, params []any) error {
	if ch == nil {
		ch = l.conn.channels.Get(3)
	}
	pack, err := encodeNotify(l.conn.state.Encoding(), method, params)
	if err != nil {
		return err
	}
	return ch.Write(pack)
}

// Status sends an onStatus event describing a stream-scoped outcome.
func (l *RPCLedger) Status(ch *ChannelHandle, status *StatusMessage) error {
	if status == nil {
		return nil
	}
	if ch == nil {
		ch = l.conn.channels.Get(3)
	}
	return ch.SendStatus(status)
}

// RegisterDeferredResult tracks a call whose result will arrive
// out-of-band; UnregisterDeferredResult drops it once resolved. Both are
// used by handlers that answer a request asynchronously, mirroring the
// deferred-result set kept alongside pendingCalls in the source this
// generalizes.
func (l *RPCLedger) RegisterDeferredResult(call *PendingCall) {
	l.deferredMu.Lock()
	defer l.deferredMu.Unlock()
	l.deferredResult[call] = struct{}{}
}

func (l *RPCLedger) UnregisterDeferredResult(call *PendingCall) {
	l.deferredMu.Lock()
	defer l.deferredMu.Unlock()
	delete(l.deferredResult, call)
}

// closeWithError resolves every outstanding call as failed and drops the
// ledger's bookkeeping; called once from the close path.
func (l *RPCLedger) closeWithError() {
	l.mu.Lock()
	calls := l.pendingCalls
	l.pendingCalls = make(map[uint32]*PendingCall)
	l.mu.Unlock()

	for _, call := range calls {
		call.resolve(CallStatusNotConnected, nil)
	}

	l.deferredMu.Lock()
	l.deferredResult = make(map[*PendingCall]struct{})
	l.deferredMu.Unlock()
}

func encodeInvoke(enc Encoding, trx uint32, method string, params []any) (*Packet, error) {
	e := amf.NewEncoder()
	e.PutString(method)
	e.PutUint32(trx)
	e.PutNull()
	if err := encodeParams(e, params); err != nil {
		return nil, err
	}
	return &Packet{Type: PackCmdAMF0, Data: e.Data()}, nil
}

func encodeNotify(enc Encoding, method string, params []any) (*Packet, error) {
	e := amf.NewEncoder()
	e.PutString(method)
	e.PutUint32(0)
	e.PutNull()
	if err := encodeParams(e, params); err != nil {
		return nil, err
	}
	return &Packet{Type: PackCmdAMF0, Data: e.Data()}, nil
}

func encodeParams(e *amf.Encoder, params []any) error {
	for _, p := range params {
		switch v := p.(type) {
		case string:
			e.PutString(v)
		case bool:
			e.PutBool(v)
		case int:
			e.PutUint32(uint32(v))
		case uint32:
			e.PutUint32(v)
		case float64:
			e.PutFloat64(v)
		case nil:
			e.PutNull()
		default:
			e.PutNull()
		}
	}
	return nil
}
