//go:build linux

package audio

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
)

// NewContext connects to the PulseAudio (or PipeWire-pulse) server.
func NewContext() (Context, error) {
	client, err := pulse.NewClient(pulse.ClientApplicationName("lectern"))
	if err != nil {
		return nil, fmt.Errorf("pulse connect: %w", err)
	}
	return &pulseContext{client: client}, nil
}

type pulseContext struct {
	client *pulse.Client
}

func (p *pulseContext) Devices() ([]DeviceInfo, error) {
	sources, err := p.client.ListSources()
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	infos := make([]DeviceInfo, 0, len(sources))
	for _, s := range sources {
		infos = append(infos, DeviceInfo{ID: s.ID(), Name: s.Name()})
	}
	return infos, nil
}

func (p *pulseContext) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	var (
		source *pulse.Source
		err    error
	)
	if device != nil {
		source, err = p.client.SourceByID(device.ID)
	} else {
		source, err = p.client.DefaultSource()
	}
	if err != nil {
		return nil, fmt.Errorf("resolve source: %w", err)
	}

	c := &pulseCapture{
		name: source.Name(),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	writer := pulse.Float32Writer(func(samples []float32) (int, error) {
		if cb := c.cb.Load(); cb != nil {
			(*cb)(samples)
		}
		return len(samples), nil
	})

	chans := pulse.RecordMono
	if config.Channels == 2 {
		chans = pulse.RecordStereo
	}
	stream, err := p.client.NewRecord(writer,
		chans,
		pulse.RecordSampleRate(config.SampleRate),
		pulse.RecordLatency(0.05),
		pulse.RecordSource(source),
	)
	if err != nil {
		return nil, fmt.Errorf("open record stream: %w", err)
	}
	c.stream = stream
	return c, nil
}

func (p *pulseContext) Close() {
	p.client.Close()
}

type pulseCapture struct {
	stream *pulse.RecordStream
	name   string

	cb atomic.Pointer[DataCallback]

	mu      sync.Mutex
	started bool
	stop    chan struct{}
	done    chan struct{}
}

func (c *pulseCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return fmt.Errorf("capture already started")
	}
	c.started = true
	go func() {
		defer close(c.done)
		c.stream.Start()
		<-c.stop
		c.stream.Stop()
	}()
	return nil
}

// Stop signals the stream goroutine and waits for it to exit. Any chunk
// already queued by the server is delivered before the join completes.
func (c *pulseCapture) Stop() {
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

func (c *pulseCapture) Close() {
	c.Stop()
	c.stream.Close()
}

func (c *pulseCapture) SetCallback(cb DataCallback) {
	c.cb.Store(&cb)
}

func (c *pulseCapture) ClearCallback() {
	c.cb.Store(nil)
}

func (c *pulseCapture) DeviceName() string { return c.name }
