package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/cbegin/addsynth-go"
)

const defaultNotes = "t120 l8 c e g >c4 r8< g e c2"

func main() {
	var (
		sampleRate  = flag.Int("sample-rate", 48000, "output sample rate")
		presetName  = flag.String("preset", "saw", "spectrum preset: saw|square|triangle|sine|organ")
		loop        = flag.Bool("loop", false, "loop playback; use with -loops to count then stop")
		loops       = flag.Int("loops", 3, "when -loop, stop after N loops (0 = loop forever)")
		notesPath   = flag.String("file", "", "path to a note text file")
		notesInline = flag.String("notes", "", "inline note text")
		midiPath    = flag.String("midi", "", "path to a Standard MIDI File")
		volume      = flag.Float64("volume", 1.0, "master volume scalar")
		wavPath     = flag.String("wav", "", "render offline to this WAV file instead of playing")
		seconds     = flag.Float64("seconds", 0, "with -wav, output length in seconds (0 = play everything)")
	)
	flag.Parse()

	preset, err := parsePreset(*presetName)
	if err != nil {
		log.Fatal(err)
	}

	var smfData []byte
	if strings.TrimSpace(*midiPath) != "" {
		smfData, err = os.ReadFile(*midiPath)
		if err != nil {
			log.Fatal(err)
		}
	}
	notation := ""
	if smfData == nil {
		notation, err = resolveNotesInput(*notesPath, *notesInline)
		if err != nil {
			log.Fatal(err)
		}
	}

	if *wavPath != "" {
		writeWAV(*wavPath, smfData, notation, preset, *sampleRate, *seconds)
		return
	}

	pl, err := addsynth.NewPlayer(*sampleRate,
		addsynth.WithPreset(preset),
		addsynth.WithLoopPlayback(*loop))
	if err != nil {
		log.Fatal(err)
	}
	pl.SetMasterVolume(*volume)
	ch := pl.Watch()
	if smfData != nil {
		err = pl.PlaySMF(smfData)
	} else {
		err = pl.PlayNotes(notation)
	}
	if err != nil {
		log.Fatal(err)
	}
	loopCount := 0
	for event := range ch {
		switch event.Kind {
		case addsynth.EventPlaybackEnded:
			fmt.Println("playback completed")
			goto done
		case addsynth.EventLoopCompleted:
			loopCount++
			fmt.Printf("loop %d completed\n", loopCount)
			if *loop && *loops > 0 && loopCount >= *loops {
				pl.Stop()
			}
		}
	}
done:
	pl.Wait()
}

func writeWAV(path string, smfData []byte, notation, preset string, sampleRate int, seconds float64) {
	var (
		samples []float32
		err     error
	)
	if smfData != nil {
		samples, err = addsynth.RenderSMFPreset(smfData, preset, sampleRate, seconds)
	} else {
		samples, err = addsynth.RenderNotesPreset(notation, preset, sampleRate, seconds)
	}
	if err != nil {
		log.Fatal(err)
	}
	wav := addsynth.EncodeWAVFloat32LE(samples, sampleRate, 1)
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s (%.2fs)\n", path, float64(len(samples))/float64(sampleRate))
}

func resolveNotesInput(path string, inline string) (string, error) {
	if strings.TrimSpace(inline) != "" {
		return inline, nil
	}
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return defaultNotes, nil
}

func parsePreset(name string) (string, error) {
	for _, p := range addsynth.PresetNames() {
		if strings.EqualFold(strings.TrimSpace(name), p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid -preset %q (expected saw|square|triangle|sine|organ)", name)
}
