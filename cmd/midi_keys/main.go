// Command midi_keys plays the additive synth live from a hardware MIDI
// keyboard. Notes and the control-change map (morph, volume, harmonics,
// envelope) are routed straight into the engine; audio goes out through a
// beep speaker.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/cbegin/addsynth-go/internal/additive"
	"github.com/cbegin/addsynth-go/internal/audio"
	"github.com/cbegin/addsynth-go/internal/harmonics"
	"github.com/cbegin/addsynth-go/internal/midictl"
)

var logger *slog.Logger

func initLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func main() {
	var (
		list       = flag.Bool("list", false, "list MIDI input ports and exit")
		port       = flag.String("port", "", "MIDI input port name substring (default: first port)")
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		presetName = flag.String("preset", "saw", "starting spectrum preset")
		volume     = flag.Float64("volume", 1.0, "master volume scalar")
		verbose    = flag.Bool("verbose", false, "log every MIDI message")
	)
	flag.Parse()
	initLogger(*verbose)

	drv, err := rtmididrv.New()
	if err != nil {
		logger.Error("midi driver init failed", "err", err)
		os.Exit(1)
	}
	defer drv.Close()

	ins, err := drv.Ins()
	if err != nil {
		logger.Error("failed to list MIDI inputs", "err", err)
		os.Exit(1)
	}
	if *list {
		for i, in := range ins {
			fmt.Printf("%d: %s\n", i, in.String())
		}
		return
	}

	in, err := findInput(ins, *port)
	if err != nil {
		logger.Error("no usable MIDI input", "err", err)
		os.Exit(1)
	}
	if err := in.Open(); err != nil {
		logger.Error("failed to open MIDI input", "port", in.String(), "err", err)
		os.Exit(1)
	}

	engine, err := additive.New(*sampleRate, additive.DefaultParams())
	if err != nil {
		logger.Error("engine init failed", "err", err)
		os.Exit(1)
	}
	if err := loadPreset(engine, *presetName); err != nil {
		logger.Error("bad preset", "err", err)
		os.Exit(1)
	}
	engine.SetMasterGain(*volume)
	router := midictl.NewRouter(engine)

	sr := beep.SampleRate(*sampleRate)
	if err := speaker.Init(sr, sr.N(50*time.Millisecond)); err != nil {
		logger.Error("speaker init failed", "err", err)
		os.Exit(1)
	}
	speaker.Play(audio.NewStreamer(engine))

	stop, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
		if *verbose {
			logger.Debug("midi message", "msg", msg.String())
		}
		router.Handle(msg)
	}, midi.HandleError(func(listenErr error) {
		logger.Warn("midi listener error", "err", listenErr)
	}))
	if err != nil {
		logger.Error("failed to start MIDI listener", "port", in.String(), "err", err)
		os.Exit(1)
	}

	logger.Info("playing", "port", in.String(), "sampleRate", *sampleRate, "preset", *presetName)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	stop()
	engine.AllNotesOff(false)
	speaker.Close()
	logger.Info("stopped")
}

func findInput(ins []drivers.In, want string) (drivers.In, error) {
	if strings.TrimSpace(want) == "" {
		if len(ins) == 0 {
			return nil, errors.New("no MIDI inputs available")
		}
		return ins[0], nil
	}
	for _, in := range ins {
		if strings.Contains(strings.ToLower(in.String()), strings.ToLower(want)) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("no MIDI input matches %q", want)
}

func loadPreset(engine *additive.Engine, name string) error {
	for _, p := range harmonics.PresetNames() {
		if strings.EqualFold(p, name) {
			engine.LoadPreset(p)
			return nil
		}
	}
	return fmt.Errorf("unknown preset %q", name)
}
