package log

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// EventType represents classification of an event.
type EventType string

const (
	DispatchStart EventType = "DISPATCH_START"
	Attempt       EventType = "ATTEMPT"
	Retry         EventType = "RETRY"
	DispatchEnd   EventType = "DISPATCH_END"
	Recovery      EventType = "RECOVERY"
)

type Event struct {
	Time      time.Time   `json:"ts"`
	EventType EventType   `json:"eventtype"`
	Payload   interface{} `json:"p"`
}

// Dispatch is the payload of every dispatch lifecycle event.
type Dispatch struct {
	RequestID string `json:"requestId"`
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
	Attempt   int    `json:"attempt,omitempty"`
	MaxTokens int    `json:"maxTokens,omitempty"`
	Delay     string `json:"delay,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Stage     string `json:"stage,omitempty"`
	Records   int    `json:"records,omitempty"`
	Elapsed   string `json:"elapsed,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Collector collects events and fans them out to subscribers.
type Collector struct {
	mu   sync.RWMutex
	subs []chan Event
}

var Default = &Collector{}

// Publish sends an event to all subscribers of the default collector (non-blocking).
func Publish(eventType EventType, payload interface{}) {
	Default.Publish(Event{Time: time.Now(), EventType: eventType, Payload: payload})
}

func (c *Collector) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe returns a receive-only channel for events. buf is channel size.
func (c *Collector) Subscribe(buf int) <-chan Event {
	ch := make(chan Event, buf)
	c.mu.Lock()
	c.subs = append(c.subs, ch)
	c.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (c *Collector) Unsubscribe(sub <-chan Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, ch := range c.subs {
		if (<-chan Event)(ch) == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// FileSink writes every event (JSON encoded) to w, filtering by event types if provided.
// The returned function detaches the sink and waits for pending events to be written.
func (c *Collector) FileSink(w io.Writer, filters ...EventType) func() {
	want := map[EventType]bool{}
	for _, f := range filters {
		want[f] = true
	}
	sub := c.Subscribe(100)
	done := make(chan struct{})
	go func() {
		defer close(done)
		enc := json.NewEncoder(w)
		for ev := range sub {
			if len(want) > 0 && !want[ev.EventType] {
				continue
			}
			_ = enc.Encode(ev)
		}
	}()
	return func() {
		c.Unsubscribe(sub)
		<-done
	}
}

// FileSink attaches a sink to the default collector.
func FileSink(w io.Writer, filters ...EventType) func() {
	return Default.FileSink(w, filters...)
}
