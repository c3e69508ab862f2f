//go:build !linux

package audio

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"lectern/log"
)

// NewContext initializes a miniaudio context for the platform backend
// (CoreAudio on macOS, WASAPI on Windows).
func NewContext() (Context, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Warnf("miniaudio: %s", strings.TrimSpace(message))
	})
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	return &malgoContext{ctx: ctx}, nil
}

type malgoContext struct {
	ctx *malgo.AllocatedContext
}

func (m *malgoContext) Devices() ([]DeviceInfo, error) {
	devices, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("enumerate capture devices: %w", err)
	}
	infos := make([]DeviceInfo, 0, len(devices))
	for _, d := range devices {
		infos = append(infos, DeviceInfo{
			ID:   hex.EncodeToString(d.ID[:]),
			Name: d.Name(),
		})
	}
	return infos, nil
}

func (m *malgoContext) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	c := &malgoCapture{name: "default"}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = uint32(config.Channels)
	cfg.SampleRate = uint32(config.SampleRate)

	if device != nil {
		raw, err := hex.DecodeString(device.ID)
		if err != nil || len(raw) != len(c.devID) {
			return nil, fmt.Errorf("malformed device id %q", device.ID)
		}
		copy(c.devID[:], raw)
		cfg.Capture.DeviceID = c.devID.Pointer()
		c.name = device.Name
	} else if devices, err := m.ctx.Devices(malgo.Capture); err == nil {
		for _, d := range devices {
			if d.IsDefault != 0 {
				c.name = d.Name()
				break
			}
		}
	}

	dev, err := malgo.InitDevice(m.ctx.Context, cfg, malgo.DeviceCallbacks{
		Data: c.onData,
	})
	if err != nil {
		return nil, fmt.Errorf("init capture device: %w", err)
	}
	c.device = dev
	return c, nil
}

func (m *malgoContext) Close() {
	_ = m.ctx.Uninit()
	m.ctx.Free()
}

type malgoCapture struct {
	device *malgo.Device
	devID  malgo.DeviceID
	name   string

	cb      atomic.Pointer[DataCallback]
	scratch []float32

	mu      sync.Mutex
	stopped bool
}

// onData runs on the miniaudio device thread, serially.
func (c *malgoCapture) onData(_, input []byte, _ uint32) {
	cb := c.cb.Load()
	if cb == nil {
		return
	}
	n := len(input) / 4
	if cap(c.scratch) < n {
		c.scratch = make([]float32, n)
	}
	samples := c.scratch[:n]
	for i := 0; i < n; i++ {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(input[i*4:]))
	}
	(*cb)(samples)
}

func (c *malgoCapture) Start() error {
	if err := c.device.Start(); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	return nil
}

// Stop halts the device. miniaudio guarantees the data callback is not
// running once Stop returns, so no extra join is needed.
func (c *malgoCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	if err := c.device.Stop(); err != nil {
		log.Warnf("stop capture device: %v", err)
	}
}

func (c *malgoCapture) Close() {
	c.Stop()
	c.device.Uninit()
}

func (c *malgoCapture) SetCallback(cb DataCallback) {
	c.cb.Store(&cb)
}

func (c *malgoCapture) ClearCallback() {
	c.cb.Store(nil)
}

func (c *malgoCapture) DeviceName() string { return c.name }
