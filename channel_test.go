package rtmp

import "testing"

func TestChannelTable_GetCreatesOnce(t *testing.T) {
	table := newChannelTable(&Connection{})

	a := table.Get(4)
	b := table.Get(4)
	if a != b {
		t.Fatal("expected repeated Get for the same id to return the same handle")
	}
	if a.ID() != 4 {
		t.Fatalf("expected handle id 4, got %d", a.ID())
	}
}

func TestChannelTable_NextAvailableID(t *testing.T) {
	table := newChannelTable(&Connection{})

	if id := table.NextAvailableID(); id != 4 {
		t.Fatalf("expected first available id to be 4, got %d", id)
	}

	table.Get(4)
	table.Get(5)
	if id := table.NextAvailableID(); id != 6 {
		t.Fatalf("expected next available id to skip 4 and 5, got %d", id)
	}
}

func TestChannelTable_CloseAndIsUsed(t *testing.T) {
	table := newChannelTable(&Connection{})
	table.Get(4)

	if !table.IsUsed(4) {
		t.Fatal("expected channel 4 to be marked used")
	}
	table.Close(4)
	if table.IsUsed(4) {
		t.Fatal("expected channel 4 to be freed after Close")
	}
}

func TestChannelTable_Clear(t *testing.T) {
	table := newChannelTable(&Connection{})
	table.Get(4)
	table.Get(5)

	table.Clear()
	if table.IsUsed(4) || table.IsUsed(5) {
		t.Fatal("expected Clear to drop every channel")
	}
}

func TestChannelHandle_WriteSetsChannelAndRequiresConnection(t *testing.T) {
	transport := newFakeTransport()
	handler := &DefaultHandler{Resolver: &staticResolver{scope: newFakeScope("live")}}
	conn := NewConnection("chan-test", transport, handler, immediateScheduler{}, syncPool{}, ConnectionConfig{})

	ch := conn.channels.Get(4)
	if err := ch.Write(&Packet{Type: PackAudio}); err != ErrNotConnected {
		t.Fatalf("expected ErrNotConnected before connect, got %v", err)
	}

	conn.HandleMessageReceived(encodeCommand(t, &ConnectMessage{AppName: "live"}, 1))
	if err := ch.Write(&Packet{Type: PackAudio}); err != nil {
		t.Fatalf("unexpected write error after connect: %v", err)
	}

	written := transport.writtenSnapshot()
	last := written[len(written)-1]
	if last.Channel != 4 {
		t.Fatalf("expected packet to be stamped with channel 4, got %d", last.Channel)
	}
}

func TestOutputChannelBase(t *testing.T) {
	cases := []struct {
		streamID int
		want     uint32
	}{
		{1, 4},
		{2, 9},
		{3, 14},
	}
	for _, tc := range cases {
		if got := outputChannelBase(tc.streamID); got != tc.want {
			t.Errorf("outputChannelBase(%d) = %d, want %d", tc.streamID, got, tc.want)
		}
	}
}
