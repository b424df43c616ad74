// Package cms emulates a sound card built from a stereo pair of tone
// generator chips behind four I/O ports, with an optional identification
// register block. Register writes arrive in emulated time; audio is pulled
// by the mixer on its own schedule. The Engine reconciles the two.
package cms

import (
	"github.com/user-none/emcms/mixer"
	"github.com/user-none/go-chip-sn76489"
)

// ChipID addresses one of the two tone generators.
type ChipID int

const (
	LeftChip ChipID = iota
	RightChip
)

func (id ChipID) String() string {
	if id == LeftChip {
		return "left"
	}
	return "right"
}

// Chip is a tone generator as seen through its register ports. Any byte is
// legal on either port.
type Chip interface {
	WriteData(v uint8)
	WriteControl(v uint8)
	// Render advances the chip by one render quantum and returns its raw
	// stereo output.
	Render() mixer.Frame
}

// Chip timing. The chips render at clock/16, which is also the rate the
// resamplers consume.
const (
	chipClockHz   = 3579545
	renderDivisor = 16
	renderRateHz  = (chipClockHz + renderDivisor - 1) / renderDivisor

	// msPerRender is the render quantum in emulated milliseconds.
	msPerRender = 1000.0 / renderRateHz
)

// psgGain scales the PSG's 0..1 per-voice amplitude to the mixer's 16-bit
// range. Four voices at full level on both chips stay below full scale.
const psgGain = 2048.0

// PSGChip is a Chip backed by an SN76489 tone generator. The data port
// takes the PSG's latch/data byte stream. The control port sets output
// levels: low nibble left, high nibble right, 0 = muted, 15 = full.
type PSGChip struct {
	psg   *sn76489.SN76489
	left  float32
	right float32
	ctrl  uint8
}

// NewPSGChip creates a PSG chip at power-on state with both outputs at
// full level.
func NewPSGChip() *PSGChip {
	psg := sn76489.New(chipClockHz, renderRateHz, 1, sn76489.Sega)
	psg.SetGain(psgGain)
	c := &PSGChip{psg: psg}
	c.WriteControl(0xFF)
	return c
}

// WriteData forwards a register byte to the PSG.
func (c *PSGChip) WriteData(v uint8) {
	c.psg.Write(v)
}

// WriteControl sets the stereo output levels.
func (c *PSGChip) WriteControl(v uint8) {
	c.ctrl = v
	c.left = float32(v&0x0F) / 15
	c.right = float32(v>>4) / 15
}

// Control returns the last value written to the control port.
func (c *PSGChip) Control() uint8 {
	return c.ctrl
}

// PSG exposes the underlying tone generator for inspection.
func (c *PSGChip) PSG() *sn76489.SN76489 {
	return c.psg
}

// Render clocks the PSG until it emits exactly one sample.
func (c *PSGChip) Render() mixer.Frame {
	c.psg.ResetBuffer()
	var n int
	for n == 0 {
		c.psg.Run(1)
		_, n = c.psg.GetBuffer()
	}
	buf, _ := c.psg.GetBuffer()
	s := buf[0]
	return mixer.Frame{Left: s * c.left, Right: s * c.right}
}
