// capture.go: live audio capture through malgo (miniaudio). Owns the device
// context and feeds decoded PCM into the rolling window.
package myaudio

import (
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/kiki442002/go-bpm-analyzer/internal/conf"
	"github.com/kiki442002/go-bpm-analyzer/internal/errors"
	"github.com/kiki442002/go-bpm-analyzer/internal/logging"
)

// snapshotTimeout bounds how long a consumer waits for fresh capture data.
const snapshotTimeout = time.Second

// AudioDeviceInfo holds information about an audio device.
type AudioDeviceInfo struct {
	Index int
	Name  string
	ID    string
}

// Streamer owns a live capture stream and the rolling window it fills. One
// Streamer drives at most one device at a time; Stop releases the device and
// context so a later Start gets a clean handle.
type Streamer struct {
	settings *conf.Settings
	window   *RollingWindow
	log      *slog.Logger

	mu       sync.Mutex
	ctx      *malgo.AllocatedContext
	device   *malgo.Device
	stopping atomic.Bool
}

// NewStreamer creates a Streamer with a rolling window sized from settings.
func NewStreamer(settings *conf.Settings) *Streamer {
	return &Streamer{
		settings: settings,
		window:   NewRollingWindow(settings.Audio.SampleRate * settings.Audio.BufferSeconds),
		log:      logging.ForService("myaudio"),
	}
}

// Window exposes the rolling window for the consumer side.
func (s *Streamer) Window() *RollingWindow {
	return s.window
}

// Snapshot returns a copy of the current rolling window contents, waiting up
// to one second for new capture data. See RollingWindow.Snapshot.
func (s *Streamer) Snapshot() ([]int16, bool) {
	return s.window.Snapshot(snapshotTimeout)
}

// Start opens a capture stream on the device with the given index. The device
// must be a valid index from ListAudioDevices; -1 means no device selected.
func (s *Streamer) Start(deviceIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if deviceIndex < 0 {
		return errors.Newf("no audio device selected").
			Component("myaudio").
			Category(errors.CategoryValidation).
			Context("operation", "start_stream").
			Build()
	}
	if s.device != nil {
		return errors.Newf("capture stream already running").
			Component("myaudio").
			Category(errors.CategoryState).
			Context("operation", "start_stream").
			Build()
	}

	backend, err := backendForPlatform()
	if err != nil {
		return err
	}

	ctx, err := malgo.InitContext([]malgo.Backend{backend}, malgo.ContextConfig{}, func(message string) {
		if s.settings.Debug {
			s.log.Debug("malgo", "message", message)
		}
	})
	if err != nil {
		return errors.New(err).
			Component("myaudio").
			Category(errors.CategoryDevice).
			Context("operation", "init_context").
			Build()
	}

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		s.teardownContext(ctx)
		return errors.New(err).
			Component("myaudio").
			Category(errors.CategoryDevice).
			Context("operation", "enumerate_devices").
			Build()
	}
	if deviceIndex >= len(infos) {
		s.teardownContext(ctx)
		return errors.Newf("invalid device index %d, %d devices available", deviceIndex, len(infos)).
			Component("myaudio").
			Category(errors.CategoryValidation).
			Context("operation", "start_stream").
			Context("device_index", deviceIndex).
			Build()
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(s.settings.Audio.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(s.settings.Audio.FrameSize)
	deviceConfig.Alsa.NoMMap = 1
	deviceConfig.Capture.DeviceID = infos[deviceIndex].ID.Pointer()

	onReceiveFrames := func(pOutput, pInput []byte, frameCount uint32) {
		if s.stopping.Load() {
			// Device is winding down, drop frames instead of appending.
			return
		}
		s.window.Append(decodeSamples(pInput))
	}

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: onReceiveFrames,
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		s.teardownContext(ctx)
		return errors.New(err).
			Component("myaudio").
			Category(errors.CategoryDevice).
			Context("operation", "init_device").
			Context("device_index", deviceIndex).
			Build()
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		s.teardownContext(ctx)
		return errors.New(err).
			Component("myaudio").
			Category(errors.CategoryDevice).
			Context("operation", "start_device").
			Context("device_index", deviceIndex).
			Build()
	}

	s.stopping.Store(false)
	s.ctx = ctx
	s.device = device
	s.log.Info("capture stream started",
		"device_index", deviceIndex,
		"device", infos[deviceIndex].Name(),
		"sample_rate", s.settings.Audio.SampleRate)

	return nil
}

// Stop halts the stream and releases the device and context so a subsequent
// Start can reuse a clean device handle. Stopping an idle Streamer is a no-op.
func (s *Streamer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device == nil {
		return nil
	}

	s.stopping.Store(true)

	var stopErr error
	if err := s.device.Stop(); err != nil {
		stopErr = errors.New(err).
			Component("myaudio").
			Category(errors.CategoryDevice).
			Context("operation", "stop_device").
			Build()
	}
	s.device.Uninit()
	s.device = nil

	s.teardownContext(s.ctx)
	s.ctx = nil

	s.log.Info("capture stream stopped")
	return stopErr
}

func (s *Streamer) teardownContext(ctx *malgo.AllocatedContext) {
	if ctx == nil {
		return
	}
	if err := ctx.Uninit(); err != nil {
		s.log.Warn("error releasing audio context", "error", err)
	}
	ctx.Free()
}

// decodeSamples converts little-endian 16-bit PCM bytes into samples. A
// trailing odd byte is ignored.
func decodeSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}

// backendForPlatform returns the malgo backend for the current platform.
func backendForPlatform() (malgo.Backend, error) {
	switch runtime.GOOS {
	case "linux":
		return malgo.BackendAlsa, nil
	case "windows":
		return malgo.BackendWasapi, nil
	case "darwin":
		return malgo.BackendCoreaudio, nil
	default:
		return malgo.BackendNull, errors.Newf("unsupported operating system: %s", runtime.GOOS).
			Component("myaudio").
			Category(errors.CategoryDevice).
			Context("operation", "select_backend").
			Build()
	}
}

// ListAudioDevices returns the capture-capable devices on the system.
// Per-device decode failures are logged and skipped; an empty final list is
// an error.
func ListAudioDevices() ([]AudioDeviceInfo, error) {
	log := logging.ForService("myaudio")

	backend, err := backendForPlatform()
	if err != nil {
		return nil, err
	}

	ctx, err := malgo.InitContext([]malgo.Backend{backend}, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, errors.New(err).
			Component("myaudio").
			Category(errors.CategoryDevice).
			Context("operation", "init_context").
			Build()
	}
	defer func() {
		if err := ctx.Uninit(); err != nil {
			log.Warn("error releasing audio context", "error", err)
		}
		ctx.Free()
	}()

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, errors.New(err).
			Component("myaudio").
			Category(errors.CategoryDevice).
			Context("operation", "enumerate_devices").
			Build()
	}

	devices := make([]AudioDeviceInfo, 0, len(infos))
	for i := range infos {
		decodedID, err := hexToASCII(infos[i].ID.String())
		if err != nil {
			log.Warn("error decoding device id", "device_index", i, "error", err)
			decodedID = infos[i].ID.String()
		}
		devices = append(devices, AudioDeviceInfo{
			Index: i,
			Name:  infos[i].Name(),
			ID:    decodedID,
		})
	}

	if len(devices) == 0 {
		return nil, errors.Newf("no audio capture device found").
			Component("myaudio").
			Category(errors.CategoryNotFound).
			Context("operation", "enumerate_devices").
			Build()
	}

	return devices, nil
}

// hexToASCII converts a hexadecimal string to an ASCII string.
func hexToASCII(hexStr string) (string, error) {
	bytes, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
