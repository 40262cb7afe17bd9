package util

import (
	"sync"

	"github.com/influxdata/influxdb-client-go/api/write"
)

// MockWriteAPI stands in for an InfluxDB writer. It keeps every point it is
// given so callers can inspect what would have been sent.
type MockWriteAPI struct {
	mu     sync.Mutex
	points []*write.Point
}

func (m *MockWriteAPI) WriteRecord(line string) {}

func (m *MockWriteAPI) WritePoint(point *write.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = append(m.points, point)
}

func (m *MockWriteAPI) Flush() {}

func (m *MockWriteAPI) Close() {}

func (m *MockWriteAPI) Errors() <-chan error { return nil }

// Points returns a copy of the points written so far.
func (m *MockWriteAPI) Points() []*write.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	ret := make([]*write.Point, len(m.points))
	copy(ret, m.points)
	return ret
}
