package cms

import (
	"sync"

	"github.com/user-none/emcms/mixer"
)

// Clock reports the current emulated time in milliseconds. It must be
// monotonic.
type Clock interface {
	Now() float64
}

// Sink is the audio channel the engine feeds.
type Sink interface {
	// WakeUp resumes a channel suspended for silence, returning true only
	// if it was asleep.
	WakeUp() bool
	AddFrame(f mixer.Frame)
}

// maxLiveRenderRatio bounds live rendering in Consume: at most this many
// render steps per requested frame, plus liveRenderSlack, before the
// shortfall is filled with silence. The real ratio is renderRateHz over
// the output rate, so the bound only trips for a stalled resampler.
const (
	maxLiveRenderRatio = renderRateHz/8000 + 1
	liveRenderSlack    = renderRateHz / 10
)

// Engine keeps the two chips in step with emulated time. Register writes
// first render every sample owed up to the write's timestamp into a queue;
// audio callbacks drain that queue and render the rest live. All state is
// guarded by one mutex so writes and callbacks may come from different
// goroutines.
type Engine struct {
	mu         sync.Mutex
	clock      Clock
	sink       Sink
	chips      [2]Chip
	resamplers [2]Resampler
	queue      *frameQueue

	// lastRenderedMs is the emulated time the chips have been rendered up to.
	lastRenderedMs float64
}

// NewEngine creates an engine whose render clock starts at the clock's
// current time.
func NewEngine(clock Clock, sink Sink, chips [2]Chip, resamplers [2]Resampler) *Engine {
	return &Engine{
		clock:          clock,
		sink:           sink,
		chips:          chips,
		resamplers:     resamplers,
		queue:          newFrameQueue(),
		lastRenderedMs: clock.Now(),
	}
}

// WriteData renders up to now, then writes a data byte to chip id.
func (e *Engine) WriteData(id ChipID, v uint8) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.catchUp()
	e.chips[id].WriteData(v)
}

// WriteControl renders up to now, then writes a control byte to chip id.
func (e *Engine) WriteControl(id ChipID, v uint8) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.catchUp()
	e.chips[id].WriteControl(v)
}

// CatchUp renders every sample owed between the last rendered time and
// now into the queue.
func (e *Engine) CatchUp() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.catchUp()
}

func (e *Engine) catchUp() {
	now := e.clock.Now()

	// A channel waking from sleep has nothing worth rendering in the gap.
	if e.sink.WakeUp() {
		e.lastRenderedMs = now
		return
	}

	for e.lastRenderedMs < now {
		e.lastRenderedMs += msPerRender
		if f, ok := e.renderFrame(); ok {
			e.queue.Push(f)
		}
	}
}

// Consume delivers frames to the sink: queued frames first, in order, then
// frames rendered live. Afterwards the render clock is set to now.
func (e *Engine) Consume(frames int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for frames > 0 {
		f, ok := e.queue.Pop()
		if !ok {
			break
		}
		e.sink.AddFrame(f)
		frames--
	}

	budget := frames*maxLiveRenderRatio + liveRenderSlack
	for frames > 0 && budget > 0 {
		budget--
		if f, ok := e.renderFrame(); ok {
			e.sink.AddFrame(f)
			frames--
		}
	}
	for ; frames > 0; frames-- {
		e.sink.AddFrame(mixer.Frame{})
	}

	e.lastRenderedMs = e.clock.Now()
}

// renderFrame renders one raw sample from both chips, mixes them
// additively and feeds the resamplers. ok is true when both resamplers
// yielded an output sample.
func (e *Engine) renderFrame() (f mixer.Frame, ok bool) {
	l := e.chips[LeftChip].Render()
	r := e.chips[RightChip].Render()

	left, right := e.resamplers[0], e.resamplers[1]
	left.Push(l.Left + r.Left)
	right.Push(l.Right + r.Right)

	leftReady, rightReady := left.Ready(), right.Ready()
	if leftReady != rightReady {
		panic("cms: left and right resamplers disagree on output readiness")
	}
	if !leftReady {
		return mixer.Frame{}, false
	}
	return mixer.Frame{Left: left.Pop(), Right: right.Pop()}, true
}

// QueuedFrames returns the number of frames waiting for the next callback.
func (e *Engine) QueuedFrames() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Len()
}

// RenderedUpTo returns the emulated time the chips have been rendered to.
func (e *Engine) RenderedUpTo() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastRenderedMs
}
