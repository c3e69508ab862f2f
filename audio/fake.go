package audio

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// FakeContext is an in-memory Context for tests. Each capture it opens
// replays Script one chunk per Interval, then goes quiet (or loops when
// Loop is set) until stopped.
type FakeContext struct {
	Script     [][]float32
	Interval   time.Duration
	Loop       bool
	DeviceList []DeviceInfo
	OpenErr    error
	StartErr   error

	// Last is the most recently opened capture, for assertions.
	Last *FakeCapture
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return f.DeviceList, nil
}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	interval := f.Interval
	if interval == 0 {
		interval = time.Millisecond
	}
	c := &FakeCapture{
		script:   f.Script,
		interval: interval,
		loop:     f.Loop,
		startErr: f.StartErr,
		fed:      make(chan struct{}),
	}
	f.Last = c
	return c, nil
}

func (f *FakeContext) Close() {}

type FakeCapture struct {
	script   [][]float32
	interval time.Duration
	loop     bool
	startErr error

	cb atomic.Pointer[DataCallback]

	fed     chan struct{}
	fedOnce sync.Once

	mu      sync.Mutex
	started bool
	closed  bool
	stop    chan struct{}
	done    chan struct{}
}

// Fed is closed once the full script has been delivered at least once.
func (c *FakeCapture) Fed() <-chan struct{} { return c.fed }

func (c *FakeCapture) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *FakeCapture) Start() error {
	if c.startErr != nil {
		return c.startErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return errors.New("fake capture already started")
	}
	c.started = true
	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	go func() {
		defer close(c.done)
		i := 0
		for {
			if i >= len(c.script) {
				c.fedOnce.Do(func() { close(c.fed) })
				if !c.loop {
					<-c.stop
					return
				}
				i = 0
				if len(c.script) == 0 {
					<-c.stop
					return
				}
			}
			select {
			case <-c.stop:
				return
			case <-time.After(c.interval):
			}
			if cb := c.cb.Load(); cb != nil {
				chunk := make([]float32, len(c.script[i]))
				copy(chunk, c.script[i])
				(*cb)(chunk)
			}
			i++
			if i >= len(c.script) {
				c.fedOnce.Do(func() { close(c.fed) })
			}
		}
	}()
	return nil
}

func (c *FakeCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return
	}
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
	<-c.done
}

func (c *FakeCapture) Close() {
	c.Stop()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *FakeCapture) SetCallback(cb DataCallback) {
	c.cb.Store(&cb)
}

func (c *FakeCapture) ClearCallback() {
	c.cb.Store(nil)
}

func (c *FakeCapture) DeviceName() string { return "fake mic" }
