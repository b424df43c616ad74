package cms

import (
	"fmt"
	"log"

	"github.com/user-none/emcms/mixer"
)

// ChannelName is the name the device's mixer channel is registered under.
const ChannelName = "CMS"

// Fixed filter applied when the filter setting is simply switched on.
const (
	fixedFilterOrder    = 1
	fixedFilterCutoffHz = 6000
)

// writePortCount covers data/control for both chips at +0..+3.
const writePortCount = 4

// PortBus is the I/O port dispatcher the device installs its handlers on.
type PortBus interface {
	InstallWriteHandler(port uint16, count int, h func(port uint16, v uint8))
	InstallReadHandler(port uint16, count int, h func(port uint16) uint8)
	UninstallHandlers(port uint16, count int)
}

// Host bundles the collaborators a device is wired to. Settings may be nil,
// in which case corrected settings are not persisted.
type Host struct {
	Ports    PortBus
	Clock    Clock
	Mixer    *mixer.Mixer
	Settings Settings
}

// NewChipFunc constructs a tone generator. Tests substitute their own.
type NewChipFunc func() Chip

// NewResamplerFunc constructs a resampler for an output rate.
type NewResamplerFunc func(outputRate int) (Resampler, error)

// Device is one installed sound card.
type Device struct {
	host         Host
	newChip      NewChipFunc
	newResampler NewResamplerFunc

	cfg      Config
	open     bool
	channel  *mixer.Channel
	engine   *Engine
	detector *detector
}

// NewDevice creates a closed device bound to host.
func NewDevice(host Host) *Device {
	return &Device{
		host:    host,
		newChip: func() Chip { return NewPSGChip() },
		newResampler: func(rate int) (Resampler, error) {
			return newSincResampler(rate)
		},
	}
}

// SetChipFactory replaces the chip constructor used by Open.
func (d *Device) SetChipFactory(f NewChipFunc) {
	d.newChip = f
}

// SetResamplerFactory replaces the resampler constructor used by Open.
func (d *Device) SetResamplerFactory(f NewResamplerFunc) {
	d.newResampler = f
}

// Open brings the card up. The configuration must already have been
// validated by LoadConfig: an illegal port for the card, or opening twice,
// is a programming error and panics.
func (d *Device) Open(cfg Config) error {
	if d.open {
		panic("cms: device opened twice")
	}
	if !cfg.Card.PortValid(cfg.Base) {
		panic(fmt.Sprintf("cms: base port 0x%03x is not valid for %q card", cfg.Base, cfg.Card))
	}

	chips := [2]Chip{d.newChip(), d.newChip()}

	ch := d.host.Mixer.AddChannel(d.audioCallback, ChannelName,
		mixer.FeatureSleep,
		mixer.FeatureStereo,
		mixer.FeatureReverbSend,
		mixer.FeatureChorusSend,
		mixer.FeatureSynthesizer)
	d.applyFilter(ch, cfg.Filter)

	rate := ch.SampleRate()
	var resamplers [2]Resampler
	for i := range resamplers {
		r, err := d.newResampler(rate)
		if err != nil {
			d.host.Mixer.DeregisterChannel(ch)
			return fmt.Errorf("cms: %w", err)
		}
		resamplers[i] = r
	}

	d.cfg = cfg
	d.channel = ch
	d.engine = NewEngine(d.host.Clock, ch, chips, resamplers)

	d.host.Ports.InstallWriteHandler(cfg.Base, writePortCount, d.writeChip)
	if cfg.Card.HasDetection() {
		d.detector = newDetector()
		d.host.Ports.InstallWriteHandler(cfg.Base+detectFirstOffset, detectPortCount, d.writeDetect)
		d.host.Ports.InstallReadHandler(cfg.Base+detectFirstOffset, detectPortCount, d.readDetect)
	}

	ch.Enable(true)
	d.open = true

	log.Printf("%s: running on port %03xh with two %.3f MHz tone generators",
		ChannelName, cfg.Base, chipClockHz/1e6)
	return nil
}

// Close tears the card down. Closing a closed device does nothing.
func (d *Device) Close() {
	if !d.open {
		return
	}
	log.Printf("%s: shutting down", ChannelName)

	// Handlers go first so no write reaches a half-closed device.
	d.host.Ports.UninstallHandlers(d.cfg.Base, writePortCount)
	if d.detector != nil {
		d.host.Ports.UninstallHandlers(d.cfg.Base+detectFirstOffset, detectPortCount)
	}

	d.channel.Enable(false)
	d.host.Mixer.DeregisterChannel(d.channel)

	d.channel = nil
	d.engine = nil
	d.detector = nil
	d.open = false
}

// IsOpen reports whether the device is open.
func (d *Device) IsOpen() bool {
	return d.open
}

// Config returns the configuration the device was opened with.
func (d *Device) Config() Config {
	return d.cfg
}

// Engine returns the render engine, or nil while closed.
func (d *Device) Engine() *Engine {
	return d.engine
}

// Channel returns the mixer channel, or nil while closed.
func (d *Device) Channel() *mixer.Channel {
	return d.channel
}

// applyFilter resolves the filter setting. A boolean switches the fixed
// filter; anything else is tried as a custom filter, falling back to the
// fixed filter (and persisting "on") if it does not parse.
func (d *Device) applyFilter(ch *mixer.Channel, setting string) {
	if on, ok := parseSwitch(setting); ok {
		ch.ConfigureLowPassFilter(fixedFilterOrder, fixedFilterCutoffHz)
		ch.SetLowPassFilter(on)
		return
	}
	if ch.TryParseAndSetCustomFilter(setting) {
		return
	}

	log.Printf("Warning: %s: invalid %s setting %q, using %q", ChannelName, KeyFilter, setting, DefaultFilter)
	ch.ConfigureLowPassFilter(fixedFilterOrder, fixedFilterCutoffHz)
	ch.SetLowPassFilter(true)
	if d.host.Settings != nil {
		d.host.Settings.SetString(KeyFilter, DefaultFilter)
	}
}

// audioCallback is the mixer handler.
func (d *Device) audioCallback(frames int) {
	d.engine.Consume(frames)
}

// writeChip handles the data/control ports at +0..+3.
func (d *Device) writeChip(port uint16, v uint8) {
	switch port - d.cfg.Base {
	case 0:
		d.engine.WriteData(LeftChip, v)
	case 1:
		d.engine.WriteControl(LeftChip, v)
	case 2:
		d.engine.WriteData(RightChip, v)
	case 3:
		d.engine.WriteControl(RightChip, v)
	}
}

func (d *Device) writeDetect(port uint16, v uint8) {
	d.detector.write(port-d.cfg.Base, v)
}

func (d *Device) readDetect(port uint16) uint8 {
	return d.detector.read(port - d.cfg.Base)
}
