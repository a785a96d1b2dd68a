package validate

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingSink struct {
	mu     sync.Mutex
	events []capturedEvent
}

type capturedEvent struct {
	kind          string
	correlationID string
	metadata      map[string]interface{}
}

func (s *capturingSink) LogEvent(kind, correlationID, message string, metadata map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, capturedEvent{kind: kind, correlationID: correlationID, metadata: metadata})
}

func (s *capturingSink) all() []capturedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]capturedEvent(nil), s.events...)
}

func TestValidator_ReportsFailuresByCategory(t *testing.T) {
	t.Parallel()

	sink := &capturingSink{}
	v := NewValidator(sink)

	_, err := v.Method("cid-1", "CONNECT")
	require.Error(t, err)

	err = v.Header("cid-1", "X-Bad", "a\r\nb")
	require.Error(t, err)

	_, err = v.URL("cid-1", "ftp://host/f", "")
	require.Error(t, err)

	events := sink.all()
	require.Len(t, events, 3)
	assert.Equal(t, "security.method", events[0].kind)
	assert.Equal(t, "security.header", events[1].kind)
	assert.Equal(t, "security.protocol", events[2].kind)
	for _, e := range events {
		assert.Equal(t, "cid-1", e.correlationID)
	}
	assert.Equal(t, "CONNECT", events[0].metadata["method"])
}

func TestValidator_SuccessEmitsNothing(t *testing.T) {
	t.Parallel()

	sink := &capturingSink{}
	v := NewValidator(sink)

	method, err := v.Method("cid-2", "get")
	require.NoError(t, err)
	assert.Equal(t, "GET", method)

	qs, err := v.QueryString("cid-2", map[string]string{"a": "1"})
	require.NoError(t, err)
	assert.Equal(t, "?a=1", qs)

	assert.Empty(t, sink.all())
}

func TestValidator_NilSink(t *testing.T) {
	t.Parallel()

	v := NewValidator(nil)
	_, err := v.SecurePath("cid-3", "/files/../etc", "/files")
	assert.Error(t, err)
}
