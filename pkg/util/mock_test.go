package util

import (
	"errors"
	"sync"
	"testing"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
)

func TestMockWriteAPI(t *testing.T) {
	m := &MockWriteAPI{}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.WritePoint(influxdb2.NewPoint("test",
				map[string]string{"n": "x"},
				map[string]interface{}{"i": i},
				time.Now()))
		}(i)
	}
	wg.Wait()
	m.WriteRecord("test i=1")
	m.Flush()

	points := m.Points()
	if len(points) != 10 {
		t.Fatalf("Points() = %d, want 10 (records are not kept)", len(points))
	}
	for _, p := range points {
		if p.Name() != "test" {
			t.Errorf("point name = %q", p.Name())
		}
	}
}

func TestTimeOperationErr(t *testing.T) {
	want := errors.New("boom")
	us, err := TimeOperationErr(func() error {
		time.Sleep(2 * time.Millisecond)
		return want
	})
	if err != want {
		t.Errorf("err = %v, want %v", err, want)
	}
	if us < 2000 {
		t.Errorf("duration = %dus, want at least 2000", us)
	}
}
