package pose

import (
	"sync"

	"github.com/teslashibe/go-sentry/pkg/imaging"
)

// Mock is a scripted Provider for tests. Each Detect call consumes the next
// queued result; the last result repeats once the queue is drained.
type Mock struct {
	mu      sync.Mutex
	results [][]Pose
	err     error
	calls   int
	closed  bool
}

// NewMock queues the given per-call results.
func NewMock(results ...[]Pose) *Mock {
	return &Mock{results: results}
}

// SetError makes every following Detect call fail with err.
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the next scripted result.
func (m *Mock) Detect(*imaging.Frame) ([]Pose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.results) == 0 {
		return nil, nil
	}
	i := m.calls - 1
	if i >= len(m.results) {
		i = len(m.results) - 1
	}
	return m.results[i], nil
}

// Calls reports how many times Detect ran.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the mock closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
