package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Publish(t *testing.T) {
	collector := &Collector{}
	sub := collector.Subscribe(2)
	collector.Publish(Event{EventType: DispatchStart, Payload: &Dispatch{RequestID: "r1"}})
	collector.Publish(Event{EventType: Attempt, Payload: &Dispatch{RequestID: "r1", Attempt: 1}})
	// full buffer drops instead of blocking
	collector.Publish(Event{EventType: DispatchEnd})

	first := <-sub
	assert.EqualValues(t, DispatchStart, first.EventType)
	assert.False(t, first.Time.IsZero())
	second := <-sub
	assert.EqualValues(t, 1, second.Payload.(*Dispatch).Attempt)
	assert.Len(t, sub, 0)

	collector.Unsubscribe(sub)
	_, ok := <-sub
	assert.False(t, ok)
}

func TestCollector_FileSink(t *testing.T) {
	testCases := []struct {
		description string
		filters     []EventType
		expected    []string
	}{
		{
			description: "all events",
			expected:    []string{`"eventtype":"DISPATCH_START"`, `"eventtype":"RETRY"`, `"eventtype":"DISPATCH_END"`},
		},
		{
			description: "filtered",
			filters:     []EventType{Retry},
			expected:    []string{`"eventtype":"RETRY"`},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			collector := &Collector{}
			buffer := bytes.Buffer{}
			stop := collector.FileSink(&buffer, tc.filters...)
			collector.Publish(Event{EventType: DispatchStart, Payload: &Dispatch{RequestID: "r1", Model: "m"}})
			collector.Publish(Event{EventType: Retry, Payload: &Dispatch{RequestID: "r1", Delay: "3s", Kind: "RateLimitedOrThrottled"}})
			collector.Publish(Event{EventType: DispatchEnd, Payload: &Dispatch{RequestID: "r1"}})
			stop()

			lines := strings.Split(strings.TrimSpace(buffer.String()), "\n")
			require.Len(t, lines, len(tc.expected))
			for i, expected := range tc.expected {
				assert.Contains(t, lines[i], expected)
				assert.Contains(t, lines[i], `"requestId":"r1"`)
			}
		})
	}
}
