package rtmp

import "testing"

func TestStreamRegistry_ReserveStreamIDIsSmallestFree(t *testing.T) {
	r := newStreamRegistry(&Connection{})

	if id := r.ReserveStreamID(); id != 1 {
		t.Fatalf("expected first reservation to be 1, got %d", id)
	}
	if id := r.ReserveStreamID(); id != 2 {
		t.Fatalf("expected second reservation to be 2, got %d", id)
	}

	r.UnreserveStreamID(1)
	if id := r.ReserveStreamID(); id != 1 {
		t.Fatalf("expected id 1 to be reused after unreserve, got %d", id)
	}
}

func TestStreamRegistry_ReserveStreamIDPreferring(t *testing.T) {
	r := newStreamRegistry(&Connection{})

	if id := r.ReserveStreamIDPreferring(5); id != 5 {
		t.Fatalf("expected preferred id 5, got %d", id)
	}
	// 5 is now taken, so a second request for it falls back to the smallest
	// free id instead.
	if id := r.ReserveStreamIDPreferring(5); id != 1 {
		t.Fatalf("expected fallback to smallest free id 1, got %d", id)
	}
}

func TestStreamRegistry_UnregisterDoesNotOffByOne(t *testing.T) {
	// Regression test for the off-by-one this registry deliberately does
	// not replicate: deletion and reservation both index by streamID-1.
	r := newStreamRegistry(&Connection{})

	id := r.ReserveStreamID() // 1
	scope := newFakeScope("live")
	conn := &Connection{scope: scope}
	r.conn = conn

	stream, err := r.NewBroadcastStream(id)
	if err != nil {
		t.Fatalf("NewBroadcastStream: %v", err)
	}
	if stream == nil {
		t.Fatal("expected a stream to be created")
	}
	if r.UsedStreamCount() != 1 {
		t.Fatalf("expected 1 used stream, got %d", r.UsedStreamCount())
	}

	if !r.UnreserveStreamID(id) {
		t.Fatal("expected UnreserveStreamID to report a stream was removed")
	}
	if r.UsedStreamCount() != 0 {
		t.Fatalf("expected 0 used streams after unreserve, got %d", r.UsedStreamCount())
	}
	if r.GetStreamByID(id) != nil {
		t.Fatal("expected stream to be gone after unreserve")
	}

	// The id must be free again, not off by one.
	if next := r.ReserveStreamID(); next != id {
		t.Fatalf("expected id %d to be free again, got %d", id, next)
	}
}

func TestStreamRegistry_IsValidStreamID(t *testing.T) {
	r := newStreamRegistry(&Connection{})

	if r.IsValidStreamID(1) {
		t.Fatal("expected unreserved id to be invalid")
	}

	id := r.ReserveStreamID()
	if !r.IsValidStreamID(id) {
		t.Fatal("expected reserved-but-unregistered id to be valid")
	}

	r.register(&fakeClientStream{id: id})
	if r.IsValidStreamID(id) {
		t.Fatal("expected registered id to no longer be valid")
	}
}

func TestGetStreamIDForChannel(t *testing.T) {
	cases := []struct {
		channel uint32
		want    int
	}{
		{0, 0},
		{3, 0},
		{4, 1},
		{5, 1},
		{8, 1},
		{9, 2},
	}
	for _, tc := range cases {
		if got := GetStreamIDForChannel(tc.channel); got != tc.want {
			t.Errorf("GetStreamIDForChannel(%d) = %d, want %d", tc.channel, got, tc.want)
		}
	}
}

func TestStreamRegistry_NewBroadcastStreamRejectsInvalidID(t *testing.T) {
	r := newStreamRegistry(&Connection{scope: newFakeScope("live")})

	stream, err := r.NewBroadcastStream(1) // never reserved
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stream != nil {
		t.Fatal("expected nil stream for an unreserved id")
	}
}
