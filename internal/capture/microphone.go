//go:build cgo && !js

package capture

import (
	"fmt"
	"unsafe"

	"github.com/gen2brain/malgo"
	"github.com/himanishpuri/NoteVoyager/pkg/logger"
)

type Config struct {
	SampleRate int // 0 picks the device default
	FrameSize  int
	HopSize    int
	Buffer     int // windows kept while the consumer is busy
}

func DefaultConfig() Config {
	return Config{SampleRate: 44100, FrameSize: 2048, HopSize: 1024, Buffer: 8}
}

// Microphone streams analysis windows from the default capture device.
type Microphone struct {
	ctx        *malgo.AllocatedContext
	device     *malgo.Device
	frames     chan []float64
	sampleRate int
	hop        int
}

func Open(cfg Config) (*Microphone, error) {
	log := logger.GetLogger().Named("capture")
	if cfg.Buffer <= 0 {
		cfg.Buffer = 8
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Debugf("malgo: %s", message)
	})
	if err != nil {
		return nil, fmt.Errorf("malgo init failed: %w", err)
	}

	devCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	devCfg.Capture.Format = malgo.FormatF32
	devCfg.Capture.Channels = 1
	devCfg.SampleRate = uint32(cfg.SampleRate)
	devCfg.Alsa.NoMMap = 1

	m := &Microphone{
		ctx:    ctx,
		frames: make(chan []float64, cfg.Buffer),
	}
	framer := NewFramer(cfg.FrameSize, cfg.HopSize)
	m.hop = framer.hop

	callbacks := malgo.DeviceCallbacks{
		Data: func(output, input []byte, frameCount uint32) {
			if len(input) < 4 {
				return
			}
			for _, w := range framer.Push(bytesToFloat32(input)) {
				select {
				case m.frames <- w:
				default:
					// consumer fell behind; the tracker tolerates gaps
				}
			}
		},
	}

	device, err := malgo.InitDevice(ctx.Context, devCfg, callbacks)
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("init device: %w", err)
	}
	m.device = device
	m.sampleRate = int(device.SampleRate())

	if err := device.Start(); err != nil {
		m.Close()
		return nil, fmt.Errorf("start device: %w", err)
	}
	log.Infof("Capturing at %d Hz", m.sampleRate)
	return m, nil
}

// Frames delivers analysis windows until Close.
func (m *Microphone) Frames() <-chan []float64 {
	return m.frames
}

func (m *Microphone) SampleRate() int {
	return m.sampleRate
}

// HopMs is the wall time between consecutive windows.
func (m *Microphone) HopMs() float64 {
	if m.sampleRate <= 0 {
		return 0
	}
	return float64(m.hop) * 1000 / float64(m.sampleRate)
}

func (m *Microphone) Close() error {
	if m.device != nil {
		_ = m.device.Stop()
		m.device.Uninit()
		m.device = nil
	}
	if m.ctx != nil {
		_ = m.ctx.Uninit()
		m.ctx.Free()
		m.ctx = nil
	}
	return nil
}

func bytesToFloat32(b []byte) []float32 {
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}
