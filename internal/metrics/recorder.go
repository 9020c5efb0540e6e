package metrics

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// DefaultRecorderLimit is the number of events kept per metric type.
const DefaultRecorderLimit = 1000

// ErrInvalidMetricType is returned when an event is recorded without a type.
var ErrInvalidMetricType = errors.New("metric type must not be empty")

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

// Recorder keeps the most recent events of each metric type, evicting the
// oldest first once a type holds more than limit events.
type Recorder struct {
	limit int
	mu    sync.RWMutex
	logs  map[string]*eventLog
	now   func() time.Time
}

// NewRecorder creates a Recorder. limit <= 0 selects DefaultRecorderLimit.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = DefaultRecorderLimit
	}
	return &Recorder{
		limit: limit,
		logs:  make(map[string]*eventLog),
		now:   time.Now,
	}
}

// Record appends a copy of data to the log of metricType. A missing
// timestamp is set to now.
func (r *Recorder) Record(metricType string, data map[string]any) error {
	if strings.TrimSpace(metricType) == "" {
		return ErrInvalidMetricType
	}

	event := make(Event, len(data)+1)
	for k, v := range data {
		event[k] = v
	}
	if ts, ok := event["timestamp"]; !ok || ts == nil {
		event["timestamp"] = r.now().UTC()
	}

	l := r.log(metricType)
	l.mu.Lock()
	l.events = append(l.events, event)
	if over := len(l.events) - r.limit; over > 0 {
		copy(l.events, l.events[over:])
		for i := len(l.events) - over; i < len(l.events); i++ {
			l.events[i] = nil
		}
		l.events = l.events[:r.limit]
	}
	l.mu.Unlock()
	return nil
}

// Events returns a copy of the log of metricType, oldest first.
func (r *Recorder) Events(metricType string) []Event {
	r.mu.RLock()
	l, ok := r.logs[metricType]
	r.mu.RUnlock()
	if !ok {
		return []Event{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// All returns every non-empty log keyed by type.
func (r *Recorder) All() map[string][]Event {
	r.mu.RLock()
	types := make([]string, 0, len(r.logs))
	for t := range r.logs {
		types = append(types, t)
	}
	r.mu.RUnlock()

	out := make(map[string][]Event, len(types))
	for _, t := range types {
		if events := r.Events(t); len(events) > 0 {
			out[t] = events
		}
	}
	return out
}

func (r *Recorder) log(metricType string) *eventLog {
	r.mu.RLock()
	l, ok := r.logs[metricType]
	r.mu.RUnlock()
	if ok {
		return l
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok = r.logs[metricType]; !ok {
		l = &eventLog{}
		r.logs[metricType] = l
	}
	return l
}
