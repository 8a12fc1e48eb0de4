// Package audio captures microphone PCM from PulseAudio/PipeWire.
package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"

	"github.com/sambhavnoobcoder/solvent-ai/internal/audio"
)

const (
	captureSampleRate = 16000
	frameSamples      = 1600 // 100ms
	frameBytes        = frameSamples * 2
	frameBuffer       = 128

	applicationName = "convoscribe"
)

// selection is the resolved capture device plus a warning when the preferred
// input could not be used.
type selection struct {
	device   audio.Device
	warning  string
	fallback bool
}

type PulseMicrophone struct {
	input    string
	fallback string
}

func NewPulseMicrophone(input, fallback string) *PulseMicrophone {
	return &PulseMicrophone{input: input, fallback: fallback}
}

func newPulseClient() (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName(applicationName),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}

// ListDevices returns the input sources known to the sound server.
func (m *PulseMicrophone) ListDevices(_ context.Context) ([]audio.Device, error) {
	client, err := newPulseClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()
	return listDevices(client)
}

func listDevices(client *pulse.Client) ([]audio.Device, error) {
	defaultSource, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}
	defaultID := defaultSource.ID()

	var infos pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &infos); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	devices := make([]audio.Device, 0, len(infos))
	for _, info := range infos {
		if info == nil {
			continue
		}
		devices = append(devices, audio.Device{
			ID:          info.SourceName,
			Description: info.Device,
			State:       sourceStateString(info.State),
			Available:   sourceAvailable(info),
			Muted:       info.Mute,
			Default:     info.SourceName == defaultID,
		})
	}
	return devices, nil
}

// Open selects a device and starts a 16kHz mono record stream. The stream is
// torn down when ctx is cancelled or Close is called.
func (m *PulseMicrophone) Open(ctx context.Context) (audio.Source, error) {
	client, err := newPulseClient()
	if err != nil {
		return nil, err
	}

	devices, err := listDevices(client)
	if err != nil {
		client.Close()
		return nil, err
	}
	sel, err := selectDeviceFromList(devices, m.input, m.fallback)
	if err != nil {
		client.Close()
		return nil, err
	}
	if sel.warning != "" {
		slog.Warn("audio input fallback", "warning", sel.warning, "device", sel.device.ID)
	}

	source, err := client.SourceByID(sel.device.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", sel.device.ID, err)
	}

	src := newPulseSource(client)
	writer := pulse.NewWriter(writerFunc(src.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(captureSampleRate),
		pulse.RecordBufferFragmentSize(frameBytes),
		pulse.RecordMediaName("convoscribe conversation"),
	)
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}
	src.stream = stream
	stream.Start()
	slog.Info("microphone opened", "device", sel.device.ID, "description", sel.device.Description)

	go func() {
		select {
		case <-ctx.Done():
			_ = src.Close()
		case <-src.stopCh:
		}
	}()

	return src, nil
}

// pulseSource turns the byte stream from Pulse into fixed-size int16 frames.
type pulseSource struct {
	client *pulse.Client
	stream *pulse.RecordStream

	frames chan []int16
	stopCh chan struct{}

	mu      sync.Mutex
	pending []byte
	stopped bool

	inflight sync.WaitGroup
	dropped  atomic.Int64
}

func newPulseSource(client *pulse.Client) *pulseSource {
	return &pulseSource{
		client: client,
		frames: make(chan []int16, frameBuffer),
		stopCh: make(chan struct{}),
	}
}

func (s *pulseSource) Frames() <-chan []int16 {
	return s.frames
}

func (s *pulseSource) SampleRate() int {
	return captureSampleRate
}

// Close halts the stream and closes Frames exactly once.
func (s *pulseSource) Close() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	close(s.stopCh)
	s.mu.Unlock()

	if s.stream != nil {
		s.stream.Stop()
		s.stream.Close()
	}
	if s.client != nil {
		s.client.Close()
	}

	s.inflight.Wait()
	close(s.frames)

	if n := s.dropped.Load(); n > 0 {
		slog.Warn("audio frames dropped while consumer was busy", "frames", n)
	}
	return nil
}

// onPCM receives raw Pulse bytes and emits whole frames. Frames are dropped
// rather than blocking the Pulse reader when the consumer falls behind.
func (s *pulseSource) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return 0, io.EOF
	}
	s.inflight.Add(1)
	s.pending = append(s.pending, buffer...)
	var out [][]int16
	for len(s.pending) >= frameBytes {
		out = append(out, decodeFrame(s.pending[:frameBytes]))
		s.pending = s.pending[frameBytes:]
	}
	s.mu.Unlock()
	defer s.inflight.Done()

	for _, frame := range out {
		select {
		case s.frames <- frame:
		default:
			s.dropped.Add(1)
		}
	}
	return len(buffer), nil
}

func decodeFrame(b []byte) []int16 {
	frame := make([]int16, len(b)/2)
	for i := range frame {
		frame[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return frame
}

// selectDeviceFromList applies the input/fallback preference to a device list.
func selectDeviceFromList(devices []audio.Device, input, fallback string) (selection, error) {
	if len(devices) == 0 {
		return selection{}, errors.New("no audio input devices found")
	}

	var (
		defaultDevice *audio.Device
		byInput       *audio.Device
		byFallback    *audio.Device
	)

	input = strings.TrimSpace(strings.ToLower(input))
	fallback = strings.TrimSpace(strings.ToLower(fallback))

	for i := range devices {
		dev := &devices[i]
		if dev.Default {
			defaultDevice = dev
		}
		if byInput == nil && isNamed(input) && deviceMatches(*dev, input) {
			byInput = dev
		}
		if byFallback == nil && isNamed(fallback) && deviceMatches(*dev, fallback) {
			byFallback = dev
		}
	}

	primary := defaultDevice
	if isNamed(input) {
		if byInput == nil {
			return selection{}, fmt.Errorf("AUDIO_INPUT %q did not match any device", input)
		}
		primary = byInput
	}
	if primary == nil {
		return selection{}, errors.New("default audio source is unavailable")
	}
	if primary.Available && !primary.Muted {
		return selection{device: *primary}, nil
	}

	reason := "unavailable"
	if primary.Muted {
		reason = "muted"
	}

	alt := defaultDevice
	if isNamed(fallback) {
		if byFallback == nil {
			return selection{}, fmt.Errorf("input %q is %s and fallback %q not found", primary.ID, reason, fallback)
		}
		alt = byFallback
	}
	if alt == nil {
		return selection{}, fmt.Errorf("input %q is %s and no default source exists", primary.ID, reason)
	}
	if !alt.Available {
		return selection{}, fmt.Errorf("audio fallback device %q is not available", alt.ID)
	}
	if alt.Muted {
		return selection{}, fmt.Errorf("audio fallback device %q is muted", alt.ID)
	}

	return selection{
		device:   *alt,
		warning:  fmt.Sprintf("input %q is %s; falling back to %q", primary.ID, reason, alt.ID),
		fallback: primary.ID != alt.ID,
	}, nil
}

func isNamed(term string) bool {
	return term != "" && term != "default"
}

func deviceMatches(device audio.Device, term string) bool {
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(device.ID), term) ||
		strings.Contains(strings.ToLower(device.Description), term)
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}

func sourceStateString(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}

func sourceAvailable(info *pulseproto.GetSourceInfoReply) bool {
	if info == nil {
		return false
	}
	for _, port := range info.Ports {
		if port.Name != info.ActivePortName {
			continue
		}
		// unknown=0, no=1, yes=2
		return port.Available != 1
	}
	return true
}
