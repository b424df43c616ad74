package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/user-none/emcms/cli"
	"github.com/user-none/emcms/cms"
	"github.com/user-none/emcms/emu"
	"github.com/user-none/emcms/mixer"
	"github.com/user-none/emcms/statsview"
)

func main() {
	progPath := flag.String("prog", "", "path to a raw Z80 program loaded at 0x0000 (default: built-in demo)")
	base := flag.String("base", "220", "card base port (hex)")
	card := flag.String("card", string(cms.DefaultCard), "card type: gb or cms")
	filter := flag.String("filter", cms.DefaultFilter, "output filter: on, off, or e.g. \"lpf 2 8000\"")
	rate := flag.Int("rate", mixer.DefaultSampleRate, "output sample rate")
	volume := flag.Float64("volume", 1.0, "playback volume (0.0-1.0)")
	duration := flag.Duration("duration", 0, "stop after this long (0 = until interrupted)")
	mute := flag.Bool("mute", false, "run without opening the audio device")
	stats := flag.String("statsview", "", "serve runtime statistics on this address (statsview builds only)")
	flag.Parse()

	program := emu.DemoProgram
	if *progPath != "" {
		data, err := os.ReadFile(*progPath)
		if err != nil {
			log.Fatalf("Failed to load program: %v", err)
		}
		program = data
	}

	if *stats != "" {
		if statsview.Available() {
			defer statsview.Launch(*stats)()
		} else {
			log.Printf("Warning: built without statsview support")
		}
	}

	opts := cms.Options{
		cms.KeyBase:   *base,
		cms.KeyCard:   *card,
		cms.KeyFilter: *filter,
	}
	e, err := emu.NewEmulator(program, opts, *rate)
	if err != nil {
		log.Fatalf("Failed to initialize emulator: %v", err)
	}
	defer e.Close()

	runner := cli.NewRunner(e, *volume, !*mute)
	defer runner.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	var timeout <-chan time.Time
	if *duration > 0 {
		timeout = time.After(*duration)
	}

	select {
	case <-sig:
	case <-timeout:
	case <-runner.Done():
	}
}
