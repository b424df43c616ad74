package cms

import (
	"sync"

	"github.com/user-none/emcms/mixer"
)

// testClock is a settable emulated clock.
type testClock struct {
	mu  sync.Mutex
	now float64
}

func (c *testClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(ms float64) {
	c.mu.Lock()
	c.now = ms
	c.mu.Unlock()
}

// testSink records frames and can pretend to be waking from sleep.
type testSink struct {
	asleep    bool
	wakeCalls int
	frames    []mixer.Frame
}

func (s *testSink) WakeUp() bool {
	s.wakeCalls++
	was := s.asleep
	s.asleep = false
	return was
}

func (s *testSink) AddFrame(f mixer.Frame) {
	s.frames = append(s.frames, f)
}

// testChip renders its last data byte on the left and a running render
// count on the right, so output shows both register state and order.
type testChip struct {
	data     uint8
	ctrl     uint8
	renders  int
	writeLog []uint8
}

func (c *testChip) WriteData(v uint8) {
	c.data = v
	c.writeLog = append(c.writeLog, v)
}

func (c *testChip) WriteControl(v uint8) {
	c.ctrl = v
}

func (c *testChip) Render() mixer.Frame {
	c.renders++
	return mixer.Frame{Left: float32(c.data), Right: float32(c.renders)}
}

// silentChip always renders zero.
type silentChip struct{}

func (silentChip) WriteData(uint8) {}

func (silentChip) WriteControl(uint8) {}

func (silentChip) Render() mixer.Frame { return mixer.Frame{} }

// decimator yields one output for every `every` inputs (1 = passthrough),
// returning the latest input.
type decimator struct {
	every   int
	pushed  int
	pending []float32
}

func (d *decimator) Push(s float32) {
	d.pushed++
	if d.pushed%d.every == 0 {
		d.pending = append(d.pending, s)
	}
}

func (d *decimator) Ready() bool { return len(d.pending) > 0 }

func (d *decimator) Pop() float32 {
	s := d.pending[0]
	d.pending = d.pending[1:]
	return s
}

// stalled never produces output.
type stalled struct{ pushed int }

func (s *stalled) Push(float32) { s.pushed++ }

func (s *stalled) Ready() bool { return false }

func (s *stalled) Pop() float32 { panic("pop from stalled resampler") }

func passthrough() [2]Resampler {
	return [2]Resampler{&decimator{every: 1}, &decimator{every: 1}}
}

// makeTestEngine builds an engine over two testChips with passthrough
// resamplers, starting at time 0.
func makeTestEngine() (*Engine, *testClock, *testSink, [2]*testChip) {
	clock := &testClock{}
	sink := &testSink{}
	chips := [2]*testChip{{}, {}}
	e := NewEngine(clock, sink, [2]Chip{chips[0], chips[1]}, passthrough())
	return e, clock, sink, chips
}

// testPorts is an in-memory PortBus.
type testPorts struct {
	readers map[uint16]func(uint16) uint8
	writers map[uint16]func(uint16, uint8)
}

func newTestPorts() *testPorts {
	return &testPorts{
		readers: map[uint16]func(uint16) uint8{},
		writers: map[uint16]func(uint16, uint8){},
	}
}

func (p *testPorts) InstallWriteHandler(port uint16, count int, h func(uint16, uint8)) {
	for i := 0; i < count; i++ {
		p.writers[port+uint16(i)] = h
	}
}

func (p *testPorts) InstallReadHandler(port uint16, count int, h func(uint16) uint8) {
	for i := 0; i < count; i++ {
		p.readers[port+uint16(i)] = h
	}
}

func (p *testPorts) UninstallHandlers(port uint16, count int) {
	for i := 0; i < count; i++ {
		delete(p.readers, port+uint16(i))
		delete(p.writers, port+uint16(i))
	}
}

func (p *testPorts) In(port uint16) uint8 {
	if h, ok := p.readers[port]; ok {
		return h(port)
	}
	return 0xFF
}

func (p *testPorts) Out(port uint16, v uint8) {
	if h, ok := p.writers[port]; ok {
		h(port, v)
	}
}

// makeTestDevice returns a closed device wired to in-memory collaborators,
// using testChips and passthrough resamplers.
func makeTestDevice(opts Options) (*Device, *testPorts, *testClock, *mixer.Mixer, *[]*testChip) {
	ports := newTestPorts()
	clock := &testClock{}
	mix := mixer.New(48000)
	d := NewDevice(Host{Ports: ports, Clock: clock, Mixer: mix, Settings: opts})

	var made []*testChip
	d.SetChipFactory(func() Chip {
		c := &testChip{}
		made = append(made, c)
		return c
	})
	d.SetResamplerFactory(func(int) (Resampler, error) {
		return &decimator{every: 1}, nil
	})
	return d, ports, clock, mix, &made
}
