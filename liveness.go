package rtmp

import (
	"sync/atomic"
	"time"
)

// LivenessMonitor is handshake-timeout and keep-alive scheduling for a
// single connection. It reads the transport's connection status and
// counters but never writes to it; it calls back into Connection to send
// pings and to trigger teardown, matching the
// KeepAliveTask / WaitForHandshakeTask split in the source this
// generalizes.
type LivenessMonitor struct {
	conn  *Connection
	sched Scheduler

	pingInterval    time.Duration
	maxInactivity   time.Duration
	handshakeWindow time.Duration

	lastPingSentOn     atomic.Int64
	lastPongReceivedOn atomic.Int64
	lastPingRTT        atomic.Int64

	lastBytesRead     atomic.Int64
	lastBytesReadTime atomic.Int64

	running atomic.Bool

	handshakeTask ScheduledTask
	keepAliveTask ScheduledTask
}

func newLivenessMonitor(conn *Connection, sched Scheduler, cfg *ConnectionConfig) *LivenessMonitor {
	pingIntervalMs := 0
	if cfg.PingIntervalMs != nil {
		pingIntervalMs = *cfg.PingIntervalMs
	}
	return &LivenessMonitor{
		conn:            conn,
		sched:           sched,
		pingInterval:    time.Duration(pingIntervalMs) * time.Millisecond,
		maxInactivity:   time.Duration(cfg.MaxInactivityMs) * time.Millisecond,
		handshakeWindow: time.Duration(cfg.MaxHandshakeTimeoutMs) * time.Millisecond,
	}
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// StartHandshakeTimeout arms a one-shot task that tears the connection down
// if it has not reached PhaseConnected by the time it fires.
func (m *LivenessMonitor) StartHandshakeTimeout() {
	if m.handshakeWindow <= 0 {
		return
	}
	m.handshakeTask = m.sched.ScheduleOnce(func() {
		if m.conn.state.Phase() != PhaseConnected {
			Warnf("closing %s: handshake not completed within %s", m.conn, m.handshakeWindow)
			m.conn.onInactive()
		}
	}, m.handshakeWindow)
}

func (m *LivenessMonitor) CancelHandshakeTimeout() {
	if m.handshakeTask != nil {
		m.handshakeTask.Cancel()
		m.handshakeTask = nil
	}
}

// StartKeepAlive arms the fixed-rate liveness task. It is a no-op if
// pingInterval is non-positive, matching the "0 disables ghost detection"
// convention of the source this generalizes.
func (m *LivenessMonitor) StartKeepAlive() {
	if m.pingInterval <= 0 {
		return
	}
	m.keepAliveTask = m.sched.ScheduleFixedRate(m.runKeepAlive, m.pingInterval)
}

func (m *LivenessMonitor) StopKeepAlive() {
	if m.keepAliveTask != nil {
		m.keepAliveTask.Cancel()
		m.keepAliveTask = nil
	}
}

// runKeepAlive is the fixed-rate body; running guards against overlap when a
// tick fires while the previous one is still executing (e.g. under a slow
// transport write).
func (m *LivenessMonitor) runKeepAlive() {
	if m.conn.state.Phase() != PhaseConnected {
		return
	}
	if !m.running.CompareAndSwap(false, true) {
		return
	}
	defer m.running.Store(false)

	if !m.conn.transport.IsConnected() {
		m.conn.onInactive()
		return
	}

	now := nowMillis()
	currentRead := m.conn.transport.ReadBytes()
	previousRead := m.lastBytesRead.Load()

	if currentRead > previousRead {
		if m.lastBytesRead.CompareAndSwap(previousRead, currentRead) {
			m.lastBytesReadTime.Store(now)
		}
		if m.IsIdle() {
			m.conn.onInactive()
		}
		return
	}

	lastPing := m.lastPingSentOn.Load()
	lastPong := m.lastPongReceivedOn.Load()
	lastReadAt := m.lastBytesReadTime.Load()

	inactiveMs := int64(m.maxInactivity / time.Millisecond)
	if lastPong > 0 && (lastPing-lastPong > inactiveMs) && (now-lastReadAt > inactiveMs) {
		Warnf("closing %s: inactivity timeout, no pong for %dms, no data for %dms", m.conn, lastPing-lastPong, now-lastReadAt)
		m.conn.onInactive()
		return
	}

	m.Ping()
}

// Ping sends a PING_CLIENT control carrying the low 32 bits of the current
// time, used to measure round-trip time when the client echoes it back.
func (m *LivenessMonitor) Ping() {
	now := nowMillis()
	if m.lastPingSentOn.Load() == 0 {
		m.lastPongReceivedOn.Store(now)
	}
	m.lastPingSentOn.Store(now)

	value2 := uint32(now & 0xffffffff)
	if err := m.conn.sendPing(PingClientEvent, value2); err != nil {
		Warnf("send ping to %s: %v", m.conn, err)
	}
}

// PingReceived records a pong. When its echoed value matches the ping we
// last sent, it updates our round-trip-time estimate; otherwise the pong is
// stale (arrived after a subsequent ping), which is only worth logging when
// there is a real backlog.
func (m *LivenessMonitor) PingReceived(value2 uint32) {
	now := nowMillis()
	previous := uint32(m.lastPingSentOn.Load() & 0xffffffff)

	if value2 == previous {
		rtt := int64(uint32(now&0xffffffff) - value2)
		m.lastPingRTT.Store(rtt)
	} else if m.conn.transport.PendingMessages() > 4 {
		Infof("pong delayed on %s: response arrived out of order, connection may be congested", m.conn)
	}

	m.lastPongReceivedOn.Store(now)
}

func (m *LivenessMonitor) LastPingRoundTripTime() int64 {
	return m.lastPingRTT.Load()
}

// IsIdle reports whether the peer has failed to pong for longer than
// maxInactivity since the last ping was sent.
func (m *LivenessMonitor) IsIdle() bool {
	lastPing := m.lastPingSentOn.Load()
	lastPong := m.lastPongReceivedOn.Load()
	inactiveMs := int64(m.maxInactivity / time.Millisecond)
	return lastPong > 0 && (lastPing-lastPong > inactiveMs)
}

func (m *LivenessMonitor) close() {
	m.CancelHandshakeTimeout()
	m.StopKeepAlive()
}
