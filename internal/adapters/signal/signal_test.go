package signal

import (
	"testing"

	"github.com/minwoo-dev/talklink/internal/core"
	"github.com/minwoo-dev/talklink/internal/domain"
	"github.com/minwoo-dev/talklink/internal/metrics"
)

func newSocket() *WsSignalConn {
	return &WsSignalConn{send: make(chan core.Frame, 1)}
}

// The client token survives reconnects, so a superseded socket's
// teardown must not release the id its successor now owns; otherwise
// the stale teardown departs the fresh connection's presence.
func TestReleaseRespectsTokenOwnership(t *testing.T) {
	ctl := NewWSController(nil, metrics.Registry("test"))
	id := domain.ConnID("token-1")

	old := newSocket()
	ctl.mu.Lock()
	ctl.conns[id] = old
	ctl.mu.Unlock()

	// Reconnect with the same token replaces the hub entry.
	replacement := newSocket()
	ctl.mu.Lock()
	ctl.conns[id] = replacement
	ctl.mu.Unlock()

	if ctl.release(id, old) {
		t.Fatal("superseded socket must not own the token anymore")
	}
	ctl.mu.RLock()
	current := ctl.conns[id]
	ctl.mu.RUnlock()
	if current != replacement {
		t.Fatal("stale release must leave the live socket registered")
	}

	if !ctl.release(id, replacement) {
		t.Fatal("live socket must release its own token")
	}
	ctl.mu.RLock()
	_, still := ctl.conns[id]
	ctl.mu.RUnlock()
	if still {
		t.Fatal("token must be gone after its owner releases it")
	}
	if ctl.release(id, replacement) {
		t.Fatal("second release must be a no-op")
	}
}

func TestTrySendAfterClose(t *testing.T) {
	c := newSocket()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	if err := c.TrySend(core.Frame(`{"type":"ping"}`)); err == nil {
		t.Fatal("closed connection must refuse sends")
	}
}

func TestTrySendBackpressure(t *testing.T) {
	c := newSocket()
	if err := c.TrySend(core.Frame(`{}`)); err != nil {
		t.Fatalf("first frame must fit the buffer: %v", err)
	}
	if err := c.TrySend(core.Frame(`{}`)); err != ErrBackpressure {
		t.Fatalf("want ErrBackpressure on a full buffer, got %v", err)
	}
}
