package emu

import (
	"fmt"
	"sync/atomic"

	"github.com/user-none/emcms/cms"
	"github.com/user-none/emcms/mixer"
	"github.com/user-none/go-chip-z80"
)

// Z80ClockHz is the guest CPU clock.
const Z80ClockHz = 3579545

// Compile-time interface checks.
var _ z80.Bus = (*Bus)(nil)
var _ cms.PortBus = (*Bus)(nil)
var _ cms.Clock = (*Emulator)(nil)

// Emulator is a Z80 machine with a CMS card on its I/O bus. The CPU runs
// on the caller's goroutine; audio is pulled from Mixer on another.
type Emulator struct {
	cpu   *z80.CPU
	bus   *Bus
	mixer *mixer.Mixer
	card  *cms.Device

	// cycles is written by RunFor and read by the audio goroutine via Now.
	cycles atomic.Uint64
}

// NewEmulator loads program at address 0 and opens the card described by
// opts. opts receives any setting the card corrects.
func NewEmulator(program []byte, opts cms.Options, sampleRate int) (*Emulator, error) {
	cfg, err := cms.LoadConfig(opts)
	if err != nil {
		return nil, fmt.Errorf("card config: %w", err)
	}
	if len(program) > 0x10000 {
		return nil, fmt.Errorf("program too large: %d bytes", len(program))
	}

	bus := NewBus()
	bus.Load(0, program)

	e := &Emulator{
		cpu:   z80.New(bus),
		bus:   bus,
		mixer: mixer.New(sampleRate),
	}
	e.card = cms.NewDevice(cms.Host{
		Ports:    bus,
		Clock:    e,
		Mixer:    e.mixer,
		Settings: opts,
	})
	if err := e.card.Open(cfg); err != nil {
		return nil, err
	}
	return e, nil
}

// Now returns emulated time in milliseconds since power-on.
func (e *Emulator) Now() float64 {
	return float64(e.cycles.Load()) * 1000 / Z80ClockHz
}

// Cycles returns the number of CPU cycles executed.
func (e *Emulator) Cycles() uint64 {
	return e.cycles.Load()
}

// RunFor executes instructions until ms more emulated milliseconds have
// passed. The last instruction may overrun the target.
func (e *Emulator) RunFor(ms float64) {
	target := e.cycles.Load() + uint64(ms*Z80ClockHz/1000)
	for e.cycles.Load() < target {
		// A halted CPU still burns cycles, so this always makes progress.
		n := e.cpu.Step()
		e.cycles.Add(uint64(n))
	}
}

// Mixer returns the audio mixer the card is registered with.
func (e *Emulator) Mixer() *mixer.Mixer {
	return e.mixer
}

// Bus returns the machine bus.
func (e *Emulator) Bus() *Bus {
	return e.bus
}

// Card returns the sound card.
func (e *Emulator) Card() *cms.Device {
	return e.card
}

// Halted reports whether the CPU has executed HALT.
func (e *Emulator) Halted() bool {
	return e.cpu.Halted()
}

// PC returns the program counter.
func (e *Emulator) PC() uint16 {
	return e.cpu.Registers().PC
}

// Close shuts the card down. The emulator must not be run afterwards.
func (e *Emulator) Close() {
	e.card.Close()
}
