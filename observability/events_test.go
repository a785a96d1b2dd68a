package observability

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	kinds  []string
	panics bool
}

func (s *recordingSink) LogEvent(kind, correlationID, message string, metadata map[string]interface{}) {
	s.mu.Lock()
	s.kinds = append(s.kinds, kind)
	s.mu.Unlock()
	if s.panics {
		panic("sink exploded")
	}
}

func TestSafeLogEvent(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	SafeLogEvent(sink, "security.method", "cid-1", "rejected", nil)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.kinds, 1)
	assert.Equal(t, "security.method", sink.kinds[0])
}

func TestSafeLogEvent_NilSink(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		SafeLogEvent(nil, "security.method", "cid-1", "rejected", nil)
	})
}

func TestSafeLogEvent_PanickingSinkContained(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{panics: true}
	assert.NotPanics(t, func() {
		SafeLogEvent(sink, "security.header", "cid-2", "rejected", map[string]interface{}{"h": "x"})
	})
}

func TestNopEventSink(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		NopEventSink().LogEvent("kind", "cid", "msg", nil)
	})
}

func TestNewLogEventSink_NilLogger(t *testing.T) {
	t.Parallel()

	sink := NewLogEventSink(nil)
	assert.NotPanics(t, func() {
		sink.LogEvent("kind", "cid", "msg", map[string]interface{}{"k": 1})
	})
}
