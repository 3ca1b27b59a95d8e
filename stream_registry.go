package rtmp

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// StreamRegistry is NetStream id allocation, reservation and lookup.
// Ids are 1-based externally and 0-based internally; reserveStreamId never
// fails, creation is a no-op (returns nil, no error) when the id named is
// not valid.
type StreamRegistry struct {
	conn *Connection

	mu            sync.Mutex
	reserved      *bitset
	streams       map[int]ClientStream // keyed by index (streamId - 1)
	streamBuffers map[int]int          // keyed by index (streamId - 1), millis
	usedStreams   int
}

func newStreamRegistry(conn *Connection) *StreamRegistry {
	return &StreamRegistry{
		conn:          conn,
		reserved:      newBitset(),
		streams:       make(map[int]ClientStream),
		streamBuffers: make(map[int]int),
	}
}

// ReserveStreamID returns the smallest unreserved id, as a 1-based stream
// id, and marks it reserved.
func (r *StreamRegistry) ReserveStreamID() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reserveLocked()
}

func (r *StreamRegistry) reserveLocked() int {
	i := r.reserved.firstClear()
	r.reserved.set(i)
	return i + 1
}

// ReserveStreamIDPreferring returns id itself if free, else falls back to
// the smallest unreserved id.
func (r *StreamRegistry) ReserveStreamIDPreferring(id int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := id - 1
	if !r.reserved.get(index) {
		r.reserved.set(index)
		return id
	}
	return r.reserveLocked()
}

// IsValidStreamID reports whether id is reserved and has no stream
// currently registered at it.
func (r *StreamRegistry) IsValidStreamID(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := id - 1
	if index < 0 || !r.reserved.get(index) {
		return false
	}
	_, exists := r.streams[index]
	return !exists
}

// GetStreamByID returns the stream registered at id, or nil.
func (r *StreamRegistry) GetStreamByID(id int) ClientStream {
	if id <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.streams[id-1]
}

// GetStreamIDForChannel maps a wire channel id to the 1-based stream id it
// belongs to; channels below 4 (control/command) map to 0.
func GetStreamIDForChannel(channelID uint32) int {
	if channelID < 4 {
		return 0
	}
	return int((channelID-4)/5) + 1
}

func (r *StreamRegistry) GetStreamByChannelID(channelID uint32) ClientStream {
	if channelID < 4 {
		return nil
	}
	return r.GetStreamByID(GetStreamIDForChannel(channelID))
}

func (r *StreamRegistry) RememberBufferDuration(id int, ms int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streamBuffers[id-1] = ms
}

func (r *StreamRegistry) UsedStreamCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.usedStreams
}

func (r *StreamRegistry) register(stream ClientStream) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams[stream.StreamID()-1] = stream
	r.usedStreams++
}

// newStream is the shared body of newBroadcastStream / newSingleItem... /
// newPlaylist...: guarded by IsValidStreamID, obtains a prototype from the
// scope, applies any remembered buffer duration, binds it to this
// connection under a random name (so concurrent connections in the same
// scope never mint colliding stream names) and registers it.
func (r *StreamRegistry) newStream(id int, beanName string) (ClientStream, error) {
	if !r.IsValidStreamID(id) {
		return nil, nil
	}
	if r.conn.scope == nil {
		return nil, fmt.Errorf("rtmp: no scope bound, cannot create stream")
	}

	stream, err := r.conn.scope.GetBean(beanName)
	if err != nil {
		return nil, fmt.Errorf("get bean %q: %w", beanName, err)
	}

	r.mu.Lock()
	if buffer, ok := r.streamBuffers[id-1]; ok {
		stream.SetClientBufferDuration(buffer)
	}
	r.mu.Unlock()

	stream.SetName(uuid.New().String())
	stream.SetConnection(r.conn)
	stream.SetScope(r.conn.scope)
	stream.SetStreamID(id)

	r.register(stream)
	return stream, nil
}

func (r *StreamRegistry) NewBroadcastStream(id int) (ClientStream, error) {
	return r.newStream(id, "clientBroadcastStream")
}

func (r *StreamRegistry) NewSingleItemSubscriberStream(id int) (ClientStream, error) {
	return r.newStream(id, "singleItemSubscriberStream")
}

func (r *StreamRegistry) NewPlaylistSubscriberStream(id int) (ClientStream, error) {
	return r.newStream(id, "playlistSubscriberStream")
}

// DeleteByID removes id's registration (streams + streamBuffers, decrements
// usedStreamCount) but does not clear the reservation bit. It reports
// whether a stream was actually present, and always clears the
// component-owned side tables keyed by the same id (pending video counters)
// so a stream id reused later never inherits a prior occupant's backlog.
func (r *StreamRegistry) DeleteByID(id int) bool {
	if id <= 0 {
		return false
	}
	r.mu.Lock()
	index := id - 1
	_, ok := r.streams[index]
	if ok {
		delete(r.streams, index)
		delete(r.streamBuffers, index)
		r.usedStreams--
	}
	r.mu.Unlock()

	if r.conn != nil && r.conn.video != nil {
		r.conn.video.remove(id)
	}
	return ok
}

// UnreserveStreamID deletes id's registration and clears its reservation.
func (r *StreamRegistry) UnreserveStreamID(id int) bool {
	removed := r.DeleteByID(id)
	if id > 0 {
		r.mu.Lock()
		r.reserved.clear(id - 1)
		r.mu.Unlock()
	}
	return removed
}

// Streams returns a snapshot of every currently registered stream.
func (r *StreamRegistry) Streams() []ClientStream {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ClientStream, 0, len(r.streams))
	for _, s := range r.streams {
		out = append(out, s)
	}
	return out
}

func (r *StreamRegistry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams = make(map[int]ClientStream)
	r.streamBuffers = make(map[int]int)
	r.usedStreams = 0
}
