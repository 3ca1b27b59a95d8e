package rtmp

import (
	"context"
	"sync"
	"time"
)

// fakeTransport is an in-memory Transport double: writes are recorded for
// assertions, reads are served from a queue a test fills ahead of time.
type fakeTransport struct {
	mu      sync.Mutex
	written []*Packet
	raw     [][]byte
	toRead  []*Packet
	readPos int
	closed  bool

	readBytes    int64
	writtenBytes int64
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{}
}

func (f *fakeTransport) Write(pack *Packet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, pack)
	f.writtenBytes += int64(len(pack.Data))
	return nil
}

func (f *fakeTransport) WriteRaw(buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw = append(f.raw, buf)
	f.writtenBytes += int64(len(buf))
	return nil
}

func (f *fakeTransport) enqueue(pack *Packet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toRead = append(f.toRead, pack)
	f.readBytes += int64(len(pack.Data))
}

func (f *fakeTransport) ReadPacket() (*Packet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readPos >= len(f.toRead) {
		return nil, errFakeTransportDrained
	}
	pack := f.toRead[f.readPos]
	f.readPos++
	return pack, nil
}

func (f *fakeTransport) ReadBytes() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readBytes
}

func (f *fakeTransport) WrittenBytes() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writtenBytes
}

func (f *fakeTransport) PendingMessages() int {
	return 0
}

func (f *fakeTransport) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) writtenSnapshot() []*Packet {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Packet, len(f.written))
	copy(out, f.written)
	return out
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

var errFakeTransportDrained = fakeErr("fake transport: no more queued packets")

// immediateScheduler never actually schedules anything; tests that exercise
// liveness behavior drive LivenessMonitor's methods directly instead of
// waiting on real timers.
type immediateScheduler struct{}

func (immediateScheduler) ScheduleOnce(task func(), delay time.Duration) ScheduledTask {
	return noopTask{}
}

func (immediateScheduler) ScheduleFixedRate(task func(), period time.Duration) ScheduledTask {
	return noopTask{}
}

type noopTask struct{}

func (noopTask) Cancel() bool { return true }

// syncPool runs Submit synchronously on the caller's goroutine so dispatch
// tests don't need to coordinate with a real worker goroutine.
type syncPool struct{}

func (syncPool) Submit(task func(ctx context.Context) error, timeout time.Duration, onComplete func(err error)) error {
	err := task(context.Background())
	onComplete(err)
	return nil
}

func (syncPool) Close() {}

type fakeScope struct {
	name string
	svc  *fakeStreamService
}

func newFakeScope(name string) *fakeScope {
	return &fakeScope{name: name, svc: &fakeStreamService{}}
}

func (s *fakeScope) Name() string { return s.name }

func (s *fakeScope) GetBean(name string) (ClientStream, error) {
	return &fakeClientStream{beanName: name}, nil
}

func (s *fakeScope) GetStreamService() (StreamService, error) {
	return s.svc, nil
}

type fakeStreamService struct {
	mu      sync.Mutex
	deleted []int
}

func (s *fakeStreamService) DeleteStream(conn *Connection, streamID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, streamID)
}

type fakeClientStream struct {
	beanName string
	id       int
	conn     *Connection
	scope    Scope
	name     string
	buffer   int
}

func (s *fakeClientStream) StreamID() int                  { return s.id }
func (s *fakeClientStream) SetStreamID(id int)             { s.id = id }
func (s *fakeClientStream) SetConnection(conn *Connection) { s.conn = conn }
func (s *fakeClientStream) SetScope(scope Scope)           { s.scope = scope }
func (s *fakeClientStream) SetName(name string)            { s.name = name }
func (s *fakeClientStream) SetClientBufferDuration(ms int) { s.buffer = ms }
