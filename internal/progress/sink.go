// Package progress defines how a task reports progress, and provides a
// terminal implementation, an asynchronous dispatcher and a recorder.
package progress

import "sync"

// Sink receives progress updates from a running task. Tasks depend on this
// interface only, never on a concrete UI.
type Sink interface {
	ShowProgress(title, message string)
	SetMainProgressMax(n int)
	SetStepProgressMax(n int)
	UpdateMainProgress(value int)
	UpdateStepProgress(value int, message string)
	UpdateStatus(message string)
	SetVisible(visible bool)
	Close()
}

// Nop discards every update.
type Nop struct{}

func (Nop) ShowProgress(string, string) {}
func (Nop) SetMainProgressMax(int) {}
func (Nop) SetStepProgressMax(int) {}
func (Nop) UpdateMainProgress(int) {}
func (Nop) UpdateStepProgress(int, string) {}
func (Nop) UpdateStatus(string) {}
func (Nop) SetVisible(bool) {}
func (Nop) Close() {}

// Event is one update captured by a Recorder.
type Event struct {
	Kind    string
	Value   int
	Message string
}

// Recorder keeps every update in order. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded updates.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Last returns the most recent event of the given kind.
func (r *Recorder) Last(kind string) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == kind {
			return r.events[i], true
		}
	}
	return Event{}, false
}

func (r *Recorder) ShowProgress(title, message string) {
	r.add(Event{Kind: "show", Message: title + ": " + message})
}
func (r *Recorder) SetMainProgressMax(n int) { r.add(Event{Kind: "main-max", Value: n}) }
func (r *Recorder) SetStepProgressMax(n int) { r.add(Event{Kind: "step-max", Value: n}) }
func (r *Recorder) UpdateMainProgress(v int) { r.add(Event{Kind: "main", Value: v}) }
func (r *Recorder) UpdateStepProgress(v int, message string) {
	r.add(Event{Kind: "step", Value: v, Message: message})
}
func (r *Recorder) UpdateStatus(message string) { r.add(Event{Kind: "status", Message: message}) }
func (r *Recorder) SetVisible(visible bool) {
	v := 0
	if visible {
		v = 1
	}
	r.add(Event{Kind: "visible", Value: v})
}
func (r *Recorder) Close() { r.add(Event{Kind: "close"}) }
