package emu

import "sync"

// PortReadFunc handles an IN from a port.
type PortReadFunc = func(port uint16) uint8

// PortWriteFunc handles an OUT to a port.
type PortWriteFunc = func(port uint16, v uint8)

// Bus implements z80.Bus for the host machine.
//
// Memory map (16-bit):
//
//	0x0000-0xFFFF  RAM (64KB), program loaded at 0x0000
//
// I/O ports use the full 16-bit address the CPU drives (BC for OUT (C),r).
// Devices claim port ranges with the Install methods; reads of unclaimed
// ports return 0xFF and writes to them are dropped.
type Bus struct {
	ram [0x10000]uint8

	// mu guards the handler tables. Handlers are called without it held.
	mu      sync.RWMutex
	readers map[uint16]PortReadFunc
	writers map[uint16]PortWriteFunc
}

// NewBus creates a bus with zeroed RAM and no port handlers.
func NewBus() *Bus {
	return &Bus{
		readers: make(map[uint16]PortReadFunc),
		writers: make(map[uint16]PortWriteFunc),
	}
}

// Load copies program into RAM starting at addr, wrapping at 64KB.
func (b *Bus) Load(addr uint16, program []byte) {
	for i, v := range program {
		b.ram[addr+uint16(i)] = v
	}
}

// Fetch reads an opcode byte. There is no M1-specific behavior.
func (b *Bus) Fetch(addr uint16) uint8 {
	return b.ram[addr]
}

// Read reads a byte of RAM.
func (b *Bus) Read(addr uint16) uint8 {
	return b.ram[addr]
}

// Write writes a byte of RAM.
func (b *Bus) Write(addr uint16, val uint8) {
	b.ram[addr] = val
}

// In reads from an I/O port.
func (b *Bus) In(port uint16) uint8 {
	b.mu.RLock()
	h := b.readers[port]
	b.mu.RUnlock()
	if h == nil {
		return 0xFF
	}
	return h(port)
}

// Out writes to an I/O port.
func (b *Bus) Out(port uint16, val uint8) {
	b.mu.RLock()
	h := b.writers[port]
	b.mu.RUnlock()
	if h != nil {
		h(port, val)
	}
}

// InstallReadHandler routes INs from count ports starting at port to h.
func (b *Bus) InstallReadHandler(port uint16, count int, h PortReadFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := 0; i < count; i++ {
		b.readers[port+uint16(i)] = h
	}
}

// InstallWriteHandler routes OUTs to count ports starting at port to h.
func (b *Bus) InstallWriteHandler(port uint16, count int, h PortWriteFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := 0; i < count; i++ {
		b.writers[port+uint16(i)] = h
	}
}

// UninstallHandlers removes both read and write handlers from count ports
// starting at port.
func (b *Bus) UninstallHandlers(port uint16, count int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := 0; i < count; i++ {
		delete(b.readers, port+uint16(i))
		delete(b.writers, port+uint16(i))
	}
}
