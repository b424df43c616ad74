package cms

import (
	"bytes"
	"errors"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/user-none/emcms/mixer"
)

func openTestDevice(t *testing.T, opts Options) (*Device, *testPorts, *testClock, *[]*testChip) {
	t.Helper()
	d, ports, clock, _, made := makeTestDevice(opts)
	cfg, err := LoadConfig(opts)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if err := d.Open(cfg); err != nil {
		t.Fatalf("Open: %v", err)
	}
	return d, ports, clock, made
}

func TestDevice_OpenInstallsHandlers(t *testing.T) {
	d, ports, _, made := openTestDevice(t, Options{KeyBase: "240"})
	defer d.Close()

	for p := uint16(0x240); p <= 0x24F; p++ {
		if _, ok := ports.writers[p]; !ok {
			t.Errorf("no write handler at 0x%03X", p)
		}
	}
	for p := uint16(0x244); p <= 0x24F; p++ {
		if _, ok := ports.readers[p]; !ok {
			t.Errorf("no read handler at 0x%03X", p)
		}
	}
	if _, ok := ports.readers[0x240]; ok {
		t.Error("chip ports should be write-only")
	}
	if len(*made) != 2 {
		t.Errorf("created %d chips, want 2", len(*made))
	}
	if !d.IsOpen() || d.Engine() == nil || d.Channel() == nil {
		t.Error("device not fully open")
	}
	if !d.Channel().IsEnabled() {
		t.Error("channel not enabled")
	}
}

func TestDevice_ChannelFeatures(t *testing.T) {
	d, _, _, _ := openTestDevice(t, Options{})
	defer d.Close()

	ch := d.host.Mixer.FindChannel(ChannelName)
	if ch == nil {
		t.Fatal("channel not registered")
	}
	if ch.SampleRate() != 48000 {
		t.Errorf("channel rate %d, want 48000", ch.SampleRate())
	}
	for _, f := range []mixer.Feature{
		mixer.FeatureSleep,
		mixer.FeatureStereo,
		mixer.FeatureReverbSend,
		mixer.FeatureChorusSend,
		mixer.FeatureSynthesizer,
	} {
		if !ch.HasFeature(f) {
			t.Errorf("channel missing feature %d", f)
		}
	}
}

func TestDevice_PortRouting(t *testing.T) {
	d, ports, _, made := openTestDevice(t, Options{})
	defer d.Close()

	ports.Out(0x220, 0x11)
	ports.Out(0x221, 0x22)
	ports.Out(0x222, 0x33)
	ports.Out(0x223, 0x44)

	left, right := (*made)[0], (*made)[1]
	if left.data != 0x11 || left.ctrl != 0x22 {
		t.Errorf("left chip data=0x%02X ctrl=0x%02X", left.data, left.ctrl)
	}
	if right.data != 0x33 || right.ctrl != 0x44 {
		t.Errorf("right chip data=0x%02X ctrl=0x%02X", right.data, right.ctrl)
	}
}

func TestDevice_DetectionThroughPorts(t *testing.T) {
	d, ports, _, _ := openTestDevice(t, Options{})
	defer d.Close()

	if got := ports.In(0x224); got != 0x7F {
		t.Errorf("ID port: got 0x%02X, want 0x7F", got)
	}
	ports.Out(0x226, 0x55)
	if got := ports.In(0x22B); got != 0x55 {
		t.Errorf("loopback: got 0x%02X, want 0x55", got)
	}
	if got := ports.In(0x228); got != 0xFF {
		t.Errorf("unmapped detect port: got 0x%02X, want 0xFF", got)
	}
}

func TestDevice_AddOnHasNoDetection(t *testing.T) {
	d, ports, _, _ := openTestDevice(t, Options{KeyCard: "cms"})
	defer d.Close()

	for p := uint16(0x224); p <= 0x22F; p++ {
		if _, ok := ports.readers[p]; ok {
			t.Errorf("read handler at 0x%03X on add-on card", p)
		}
		if _, ok := ports.writers[p]; ok {
			t.Errorf("write handler at 0x%03X on add-on card", p)
		}
	}
	if got := ports.In(0x224); got != 0xFF {
		t.Errorf("ID port on add-on card: got 0x%02X, want 0xFF", got)
	}
}

func TestDevice_OpenPanics(t *testing.T) {
	t.Run("invalid port", func(t *testing.T) {
		d, _, _, _, _ := makeTestDevice(Options{})
		defer func() {
			if recover() == nil {
				t.Error("expected panic for 0x210 on add-on card")
			}
		}()
		d.Open(Config{Base: 0x210, Card: CardAddOn, Filter: "on"})
	})

	t.Run("double open", func(t *testing.T) {
		d, _, _, _ := openTestDevice(t, Options{})
		defer d.Close()
		defer func() {
			if recover() == nil {
				t.Error("expected panic on second Open")
			}
		}()
		d.Open(d.Config())
	})
}

func TestDevice_ResamplerErrorLeavesClosed(t *testing.T) {
	d, ports, _, mix, _ := makeTestDevice(Options{})
	boom := errors.New("boom")
	d.SetResamplerFactory(func(int) (Resampler, error) { return nil, boom })

	err := d.Open(Config{Base: 0x220, Card: CardGameBlaster, Filter: "on"})
	if !errors.Is(err, boom) {
		t.Fatalf("Open: got %v, want %v", err, boom)
	}
	if d.IsOpen() {
		t.Error("device open after failure")
	}
	if mix.FindChannel(ChannelName) != nil {
		t.Error("channel left registered after failure")
	}
	if len(ports.writers) != 0 || len(ports.readers) != 0 {
		t.Error("handlers left installed after failure")
	}
}

func TestDevice_CloseIsIdempotent(t *testing.T) {
	d, ports, _, _ := openTestDevice(t, Options{})
	mix := d.host.Mixer

	d.Close()
	d.Close()

	if d.IsOpen() || d.Engine() != nil || d.Channel() != nil {
		t.Error("device state not cleared")
	}
	if len(ports.writers) != 0 || len(ports.readers) != 0 {
		t.Errorf("handlers remain: %d writers, %d readers", len(ports.writers), len(ports.readers))
	}
	if mix.FindChannel(ChannelName) != nil {
		t.Error("channel still registered")
	}

	// Writes after close go nowhere.
	ports.Out(0x220, 0x90)

	// The device can be opened again.
	if err := d.Open(Config{Base: 0x220, Card: CardGameBlaster, Filter: "on"}); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	d.Close()
}

func TestDevice_Filter(t *testing.T) {
	tests := []struct {
		setting string
		order   int
		hz      int
		on      bool
		stored  string
	}{
		{"on", 1, 6000, true, "on"},
		{"off", 1, 6000, false, "off"},
		{"lpf 2 12000", 2, 12000, true, "lpf 2 12000"},
		{"banana", 1, 6000, true, "on"},
	}
	for _, tc := range tests {
		opts := Options{KeyFilter: tc.setting}
		d, _, _, _ := openTestDevice(t, opts)

		order, hz, on := d.Channel().LowPassFilter()
		if order != tc.order || hz != tc.hz || on != tc.on {
			t.Errorf("%q: low-pass (%d, %d, %v), want (%d, %d, %v)",
				tc.setting, order, hz, on, tc.order, tc.hz, tc.on)
		}
		if _, _, hpOn := d.Channel().HighPassFilter(); hpOn {
			t.Errorf("%q: high-pass should be off", tc.setting)
		}
		if got := opts.GetString(KeyFilter); got != tc.stored {
			t.Errorf("%q: stored setting %q, want %q", tc.setting, got, tc.stored)
		}
		d.Close()
	}
}

func TestDevice_WriteThenCallback(t *testing.T) {
	d, ports, clock, _, made := makeTestDevice(Options{})
	if err := d.Open(Config{Base: 0x220, Card: CardGameBlaster, Filter: "off"}); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	clock.Set(0)
	ports.Out(0x220, 0x00)
	ports.Out(0x221, 0x01)

	clock.Set(5)
	d.Engine().CatchUp()
	owed := quanta(5)
	if got := d.Engine().QueuedFrames(); got != owed {
		t.Fatalf("queued %d frames, want %d", got, owed)
	}

	out := d.host.Mixer.Mix(1)
	if len(out) != 2 {
		t.Fatalf("Mix(1) returned %d samples, want 2", len(out))
	}
	if got := d.Engine().QueuedFrames(); got != owed-1 {
		t.Errorf("queue after callback: %d, want %d", got, owed-1)
	}

	left := (*made)[0]
	if len(left.writeLog) != 1 || left.writeLog[0] != 0x00 || left.ctrl != 0x01 {
		t.Errorf("left chip saw data %v ctrl 0x%02X", left.writeLog, left.ctrl)
	}
}

func TestDevice_TwoCardsShareMixer(t *testing.T) {
	ports := newTestPorts()
	clock := &testClock{}
	mix := mixer.New(48000)

	newCard := func() *Device {
		d := NewDevice(Host{Ports: ports, Clock: clock, Mixer: mix, Settings: Options{}})
		d.SetChipFactory(func() Chip { return &testChip{} })
		d.SetResamplerFactory(func(int) (Resampler, error) {
			return &decimator{every: 1}, nil
		})
		return d
	}
	a, b := newCard(), newCard()
	if err := a.Open(Config{Base: 0x220, Card: CardGameBlaster, Filter: "off"}); err != nil {
		t.Fatalf("open a: %v", err)
	}
	defer a.Close()
	if err := b.Open(Config{Base: 0x300, Card: CardAddOn, Filter: "off"}); err != nil {
		t.Fatalf("open b: %v", err)
	}

	chA := a.Channel()
	b.Close()

	if !a.IsOpen() || !mix.HasChannel(chA) {
		t.Fatal("closing one card removed the other's channel")
	}
	if _, ok := ports.writers[0x300]; ok {
		t.Error("closed card left its handlers installed")
	}
	if _, ok := ports.writers[0x220]; !ok {
		t.Error("open card lost its handlers")
	}

	// The remaining card still reaches the mixer.
	ports.Out(0x220, 0x40)
	clock.Set(msPerRender / 2)
	a.Engine().CatchUp()
	if out := mix.Mix(1); out[0] != 0x40 {
		t.Errorf("mixed left %d, want %d from the open card", out[0], 0x40)
	}
}

func TestDevice_OpenFailureKeepsOtherCard(t *testing.T) {
	ports := newTestPorts()
	clock := &testClock{}
	mix := mixer.New(48000)

	a := NewDevice(Host{Ports: ports, Clock: clock, Mixer: mix})
	a.SetChipFactory(func() Chip { return &testChip{} })
	a.SetResamplerFactory(func(int) (Resampler, error) { return &decimator{every: 1}, nil })
	if err := a.Open(Config{Base: 0x220, Card: CardGameBlaster, Filter: "off"}); err != nil {
		t.Fatalf("open a: %v", err)
	}
	defer a.Close()

	b := NewDevice(Host{Ports: ports, Clock: clock, Mixer: mix})
	b.SetChipFactory(func() Chip { return &testChip{} })
	b.SetResamplerFactory(func(int) (Resampler, error) { return nil, errors.New("no resampler") })
	if err := b.Open(Config{Base: 0x240, Card: CardGameBlaster, Filter: "off"}); err == nil {
		t.Fatal("open b succeeded")
	}

	if !mix.HasChannel(a.Channel()) {
		t.Error("failed open removed the other card's channel")
	}
}

func TestDevice_LogsOpenAndClose(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	d, _, _, _ := openTestDevice(t, Options{KeyBase: "240"})
	d.Close()

	out := buf.String()
	if !strings.Contains(out, "port 240h") || !strings.Contains(out, "3.580 MHz") {
		t.Errorf("open not logged with port and clock: %q", out)
	}
	if !strings.Contains(out, "shutting down") {
		t.Errorf("close not logged: %q", out)
	}
}
