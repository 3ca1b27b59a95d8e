package rtmp

import "testing"

func newTestConnectionForRPC() (*Connection, *fakeTransport) {
	transport := newFakeTransport()
	handler := &DefaultHandler{Resolver: &staticResolver{scope: newFakeScope("live")}}
	conn := NewConnection("rpc-test", transport, handler, immediateScheduler{}, syncPool{}, ConnectionConfig{})
	return conn, transport
}

func TestRPCLedger_TransactionIDsStartAtTwo(t *testing.T) {
	conn, _ := newTestConnectionForRPC()

	if id := conn.rpc.NextTransactionID(); id != 2 {
		t.Fatalf("expected first transaction id to be 2, got %d", id)
	}
	if id := conn.rpc.NextTransactionID(); id != 3 {
		t.Fatalf("expected second transaction id to be 3, got %d", id)
	}
}

func TestRPCLedger_InvokeRegistersAndWrites(t *testing.T) {
	conn, transport := newTestConnectionForRPC()
	conn.HandleMessageReceived(encodeCommand(t, &ConnectMessage{AppName: "live"}, 1))

	call, err := conn.rpc.Invoke(nil, "play", []any{"mystream"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if call.Status() != CallStatusPending {
		t.Fatalf("expected pending status, got %v", call.Status())
	}

	written := transport.writtenSnapshot()
	found := false
	for _, pack := range written {
		if pack.Type == PackCmdAMF0 && pack.Channel == 3 {
			found = true
		}
	}
	if !found {
		t.Error("expected the invoke to be written as a command packet on channel 3")
	}
}

func TestRPCLedger_CloseResolvesPendingCalls(t *testing.T) {
	conn, _ := newTestConnectionForRPC()
	conn.HandleMessageReceived(encodeCommand(t, &ConnectMessage{AppName: "live"}, 1))

	call, err := conn.rpc.Invoke(nil, "play", nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	var gotStatus CallStatus
	call.OnResult(func(status CallStatus, params []any) {
		gotStatus = status
	})

	conn.rpc.closeWithError()

	if gotStatus != CallStatusNotConnected {
		t.Fatalf("expected CallStatusNotConnected, got %v", gotStatus)
	}
	if conn.rpc.GetPendingCall(2) != nil {
		t.Fatal("expected pending call table to be cleared")
	}
}

func TestRPCLedger_RetrievePendingCallRemovesIt(t *testing.T) {
	conn, _ := newTestConnectionForRPC()
	conn.HandleMessageReceived(encodeCommand(t, &ConnectMessage{AppName: "live"}, 1))

	call, err := conn.rpc.Invoke(nil, "play", nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	got := conn.rpc.RetrievePendingCall(2)
	if got != call {
		t.Fatal("expected to retrieve the same pending call")
	}
	if conn.rpc.GetPendingCall(2) != nil {
		t.Fatal("expected the call to be removed after retrieval")
	}
}
