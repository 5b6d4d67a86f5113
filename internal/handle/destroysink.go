package handle

import (
	"context"
	"sync"

	"github.com/cryptoproxy-io/cryptoproxy/internal/engine"
	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
)

// AsyncDestroySink is the reference DestroySink: a single worker
// goroutine drains a bounded queue of proxy ids and issues their destroy
// calls against eng, off the releasing goroutine. A full queue drops the
// notification rather than blocking the caller -- destroy is best-effort
// everywhere, and the server reaps orphans on session end regardless.
type AsyncDestroySink struct {
	eng  *engine.Engine
	ch   chan wire.ProxyID
	done chan struct{}

	// mu guards closed so Enqueue never sends on ch after Close closed it.
	mu     sync.RWMutex
	closed bool
}

// NewAsyncDestroySink starts the worker goroutine. Callers must call
// Close when the session ends so the goroutine can exit; Close drains the
// queue (if queueSize is small this is fast) rather than discarding it.
func NewAsyncDestroySink(eng *engine.Engine, queueSize int) *AsyncDestroySink {
	if queueSize <= 0 {
		queueSize = 256
	}
	s := &AsyncDestroySink{eng: eng, ch: make(chan wire.ProxyID, queueSize), done: make(chan struct{})}
	go s.run()
	return s
}

func (s *AsyncDestroySink) run() {
	defer close(s.done)
	for id := range s.ch {
		if s.eng.TransportClosed() {
			continue
		}
		_, _ = s.eng.Invoke(context.Background(), &wire.Request{
			Task:          wire.TaskDestroy,
			CallerProxyID: id,
		})
	}
}

// Enqueue implements DestroySink. Never blocks: a saturated queue drops
// the notification rather than stalling whatever goroutine is releasing
// the handle. After Close, the id is dropped.
func (s *AsyncDestroySink) Enqueue(id wire.ProxyID) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- id:
	default:
	}
}

// Close stops accepting new ids and waits for the worker to drain the
// queue and exit. Safe to call once per sink.
func (s *AsyncDestroySink) Close() {
	s.mu.Lock()
	s.closed = true
	close(s.ch)
	s.mu.Unlock()
	<-s.done
}
