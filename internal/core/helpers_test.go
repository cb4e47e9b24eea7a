package core

import (
	"sync"
	"time"

	"github.com/comalice/tickfsm/internal/primitives"
)

// recordingObserver counts outcomes per event ID.
type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[Outcome][]primitives.EventID
	ticks    int
	handled  int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{outcomes: make(map[Outcome][]primitives.EventID)}
}

func (o *recordingObserver) ObserveEvent(_ string, id primitives.EventID, outcome Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes[outcome] = append(o.outcomes[outcome], id)
}

func (o *recordingObserver) ObserveProcessing(string, time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.handled++
}

func (o *recordingObserver) ObserveTick(string, time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ticks++
}

func (o *recordingObserver) count(outcome Outcome) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.outcomes[outcome])
}

// eventLog collects processed event IDs in order.
type eventLog struct {
	mu  sync.Mutex
	ids []primitives.EventID
}

func (l *eventLog) ProcessEvent(e primitives.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids = append(l.ids, e.ID())
}

func (l *eventLog) snapshot() []primitives.EventID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]primitives.EventID(nil), l.ids...)
}

func (l *eventLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ids)
}
