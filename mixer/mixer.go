// Package mixer collects audio from emulated devices and hands finished
// stereo frames to an output backend. Devices register a Channel with a
// Handler; the mixer pulls frames from every enabled channel each time the
// backend asks for more audio.
package mixer

import (
	"encoding/binary"
	"sync"
)

// DefaultSampleRate is the output rate used when none is negotiated.
const DefaultSampleRate = 48000

// Frame is one stereo sample pair. Values are on a signed 16-bit scale.
type Frame struct {
	Left  float32
	Right float32
}

// Handler is called by the mixer when a channel must supply frames.
// The handler delivers them through Channel.AddFrame.
type Handler func(frames int)

// Mixer owns the registered channels and produces mixed output.
type Mixer struct {
	mu         sync.Mutex
	sampleRate int
	channels   []*Channel
	acc        []float32 // interleaved L/R accumulator, reused per Mix
	out        []int16
}

// New creates a mixer running at the given output sample rate.
func New(sampleRate int) *Mixer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Mixer{sampleRate: sampleRate}
}

// SampleRate returns the negotiated output sample rate.
func (m *Mixer) SampleRate() int {
	return m.sampleRate
}

// AddChannel registers a new channel. The channel starts disabled.
func (m *Mixer) AddChannel(handler Handler, name string, features ...Feature) *Channel {
	ch := newChannel(handler, name, m.sampleRate, features)

	m.mu.Lock()
	m.channels = append(m.channels, ch)
	m.mu.Unlock()

	return ch
}

// FindChannel returns the first channel registered under name, or nil.
func (m *Mixer) FindChannel(name string) *Channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.channels {
		if ch.name == name {
			return ch
		}
	}
	return nil
}

// HasChannel reports whether ch is currently registered.
func (m *Mixer) HasChannel(ch *Channel) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.channels {
		if c == ch {
			return true
		}
	}
	return false
}

// DeregisterChannel removes ch. Several channels may share a name, so the
// channel itself identifies what to remove. Removing an unregistered
// channel is a no-op.
func (m *Mixer) DeregisterChannel(ch *Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.channels {
		if c == ch {
			m.channels = append(m.channels[:i], m.channels[i+1:]...)
			return
		}
	}
}

// Mix pulls the requested number of frames from every active channel and
// returns them mixed as interleaved 16-bit stereo. The returned slice is
// reused by the next call.
func (m *Mixer) Mix(frames int) []int16 {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := frames * 2
	if cap(m.acc) < n {
		m.acc = make([]float32, n)
		m.out = make([]int16, n)
	}
	m.acc = m.acc[:n]
	m.out = m.out[:n]
	for i := range m.acc {
		m.acc[i] = 0
	}

	for _, ch := range m.channels {
		ch.mix(frames, m.acc)
	}

	for i, v := range m.acc {
		m.out[i] = int16(clampInt32(int32(v), -32768, 32767))
	}
	return m.out
}

// Read implements io.Reader for pull-model backends. Each call mixes
// len(p)/4 frames and encodes them as signed 16-bit little-endian stereo.
func (m *Mixer) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if frames == 0 {
		return 0, nil
	}
	samples := m.Mix(frames)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(s))
	}
	return frames * 4, nil
}

// clampInt32 clamps v to [min, max].
func clampInt32(v, min, max int32) int32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
