package progress

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Async forwards updates to an inner sink on a dedicated goroutine. Senders
// never block: when the buffer is full the update is dropped and counted.
type Async struct {
	inner   Sink
	queue   chan func(Sink)
	done    chan struct{}
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// NewAsync starts the dispatch goroutine. Close must be called to stop it.
func NewAsync(inner Sink, buffer int) *Async {
	if buffer < 1 {
		buffer = 256
	}
	a := &Async{
		inner: inner,
		queue: make(chan func(Sink), buffer),
		done:  make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *Async) loop() {
	defer close(a.done)
	for fn := range a.queue {
		fn(a.inner)
	}
}

func (a *Async) post(fn func(Sink)) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}
	select {
	case a.queue <- fn:
	default:
		a.dropped.Add(1)
	}
}

// Dropped reports how many updates were discarded because the buffer was full.
func (a *Async) Dropped() int64 {
	return a.dropped.Load()
}

func (a *Async) ShowProgress(title, message string) {
	a.post(func(s Sink) { s.ShowProgress(title, message) })
}

func (a *Async) SetMainProgressMax(n int) {
	a.post(func(s Sink) { s.SetMainProgressMax(n) })
}

func (a *Async) SetStepProgressMax(n int) {
	a.post(func(s Sink) { s.SetStepProgressMax(n) })
}

func (a *Async) UpdateMainProgress(value int) {
	a.post(func(s Sink) { s.UpdateMainProgress(value) })
}

func (a *Async) UpdateStepProgress(value int, message string) {
	a.post(func(s Sink) { s.UpdateStepProgress(value, message) })
}

func (a *Async) UpdateStatus(message string) {
	a.post(func(s Sink) { s.UpdateStatus(message) })
}

func (a *Async) SetVisible(visible bool) {
	a.post(func(s Sink) { s.SetVisible(visible) })
}

// Close drains pending updates, closes the inner sink and stops the goroutine.
func (a *Async) Close() {
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.queue)
		a.mu.Unlock()
		<-a.done
		a.inner.Close()
		if n := a.dropped.Load(); n > 0 {
			slog.Debug("Dropped progress updates", "count", n)
		}
	})
}
