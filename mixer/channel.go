package mixer

import (
	"math"
	"sync"
)

// Feature declares a capability of a mixer channel.
type Feature int

const (
	FeatureSleep Feature = iota // channel may be suspended while silent
	FeatureStereo
	FeatureReverbSend
	FeatureChorusSend
	FeatureSynthesizer
)

// sleepAfterMs is how long a sleep-capable channel must stay silent
// before the mixer stops calling its handler.
const sleepAfterMs = 250

// silenceThreshold is the largest absolute sample still counted as silence.
const silenceThreshold = 1.0

// Channel is one device's input into the mixer.
type Channel struct {
	name       string
	handler    Handler
	features   map[Feature]bool
	sampleRate int

	// mu guards the control state below. The frame buffer and filter
	// state are only touched from Mix, which is serialized by the mixer.
	mu           sync.Mutex
	enabled      bool
	sleeping     bool
	silentFrames int
	lowPass      filterChain
	highPass     filterChain

	buf []Frame
}

func newChannel(handler Handler, name string, sampleRate int, features []Feature) *Channel {
	ch := &Channel{
		name:       name,
		handler:    handler,
		features:   make(map[Feature]bool, len(features)),
		sampleRate: sampleRate,
		lowPass:    filterChain{kind: LowPass},
		highPass:   filterChain{kind: HighPass},
	}
	for _, f := range features {
		ch.features[f] = true
	}
	return ch
}

// Name returns the name the channel was registered under.
func (c *Channel) Name() string {
	return c.name
}

// SampleRate returns the rate at which the channel must deliver frames.
func (c *Channel) SampleRate() int {
	return c.sampleRate
}

// HasFeature reports whether the channel was registered with f.
func (c *Channel) HasFeature(f Feature) bool {
	return c.features[f]
}

// Enable turns the channel on or off. A disabled channel's handler is not
// called.
func (c *Channel) Enable(on bool) {
	c.mu.Lock()
	c.enabled = on
	if !on {
		c.sleeping = false
		c.silentFrames = 0
	}
	c.mu.Unlock()
}

// IsEnabled reports whether the channel is enabled.
func (c *Channel) IsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// IsSleeping reports whether the channel is suspended for silence.
func (c *Channel) IsSleeping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sleeping
}

// WakeUp resumes a sleeping channel. It returns true only when the channel
// was asleep, so the caller can resynchronize instead of rendering the gap.
func (c *Channel) WakeUp() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.silentFrames = 0
	if !c.sleeping {
		return false
	}
	c.sleeping = false
	return true
}

// ConfigureLowPassFilter sets the low-pass order and cutoff without
// changing whether the filter is active.
func (c *Channel) ConfigureLowPassFilter(order, cutoffHz int) {
	c.mu.Lock()
	c.lowPass.configure(order, cutoffHz, c.sampleRate)
	c.mu.Unlock()
}

// SetLowPassFilter turns the low-pass filter on or off.
func (c *Channel) SetLowPassFilter(on bool) {
	c.mu.Lock()
	c.lowPass.enabled = on
	c.mu.Unlock()
}

// ConfigureHighPassFilter sets the high-pass order and cutoff without
// changing whether the filter is active.
func (c *Channel) ConfigureHighPassFilter(order, cutoffHz int) {
	c.mu.Lock()
	c.highPass.configure(order, cutoffHz, c.sampleRate)
	c.mu.Unlock()
}

// SetHighPassFilter turns the high-pass filter on or off.
func (c *Channel) SetHighPassFilter(on bool) {
	c.mu.Lock()
	c.highPass.enabled = on
	c.mu.Unlock()
}

// LowPassFilter returns the low-pass configuration and whether it is on.
func (c *Channel) LowPassFilter() (order, cutoffHz int, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lowPass.order, c.lowPass.cutoffHz, c.lowPass.enabled
}

// HighPassFilter returns the high-pass configuration and whether it is on.
func (c *Channel) HighPassFilter() (order, cutoffHz int, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.highPass.order, c.highPass.cutoffHz, c.highPass.enabled
}

// TryParseAndSetCustomFilter applies a filter description such as
// "lpf 2 12000" or "hpf 1 120 lpf 4 6000". Filters not named in the
// description are turned off. On a parse error nothing changes and false
// is returned.
func (c *Channel) TryParseAndSetCustomFilter(spec string) bool {
	settings, err := ParseFilterSpec(spec, c.sampleRate)
	if err != nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lowPass.enabled = false
	c.highPass.enabled = false
	for _, s := range settings {
		chain := &c.lowPass
		if s.Kind == HighPass {
			chain = &c.highPass
		}
		chain.configure(s.Order, s.CutoffHz, c.sampleRate)
		chain.enabled = true
	}
	return true
}

// AddFrame appends one frame to the channel's output for the current Mix
// call. It must only be called from the channel's handler.
func (c *Channel) AddFrame(f Frame) {
	c.buf = append(c.buf, f)
}

// mix runs the handler for the requested frames, filters the result and
// adds it into acc.
func (c *Channel) mix(frames int, acc []float32) {
	c.mu.Lock()
	active := c.enabled && !c.sleeping
	c.mu.Unlock()
	if !active {
		return
	}

	c.buf = c.buf[:0]
	c.handler(frames)

	// A short handler leaves silence; extra frames are discarded.
	for len(c.buf) < frames {
		c.buf = append(c.buf, Frame{})
	}
	c.buf = c.buf[:frames]

	c.mu.Lock()
	defer c.mu.Unlock()

	silent := true
	for i := range c.buf {
		f := &c.buf[i]
		if c.highPass.enabled {
			f.Left, f.Right = c.highPass.process(f.Left, f.Right)
		}
		if c.lowPass.enabled {
			f.Left, f.Right = c.lowPass.process(f.Left, f.Right)
		}
		if math.Abs(float64(f.Left)) > silenceThreshold || math.Abs(float64(f.Right)) > silenceThreshold {
			silent = false
		}
		acc[i*2] += f.Left
		acc[i*2+1] += f.Right
	}

	if !c.features[FeatureSleep] {
		return
	}
	if !silent {
		c.silentFrames = 0
		return
	}
	c.silentFrames += frames
	if c.silentFrames >= c.sampleRate*sleepAfterMs/1000 {
		c.sleeping = true
	}
}
