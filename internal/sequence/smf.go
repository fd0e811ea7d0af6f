package sequence

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"
)

type timedMessage struct {
	ticks int
	msg   smf.Message
}

// LoadSMF converts a Standard MIDI File into a Sequence at the given sample
// rate. All tracks merge into one stream; note-on/note-off pairs become
// gated notes and tempo changes take effect from the tick they occur on.
func LoadSMF(data []byte, sampleRate int) (Sequence, error) {
	if sampleRate <= 0 {
		return Sequence{}, errors.New("sampleRate must be positive")
	}
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return Sequence{}, fmt.Errorf("read smf: %w", err)
	}
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return Sequence{}, fmt.Errorf("unsupported SMF time format %v", s.TimeFormat)
	}
	resolution := float64(ticks.Resolution())

	var merged []timedMessage
	for _, tr := range s.Tracks {
		abs := 0
		for _, ev := range tr {
			abs += int(ev.Delta)
			merged = append(merged, timedMessage{ticks: abs, msg: ev.Message})
		}
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].ticks < merged[j].ticks })

	type openNote struct {
		frame    int
		velocity float64
	}
	open := map[int][]openNote{}
	var notes []Note

	bpm := 120.0
	lastTicks := 0
	seconds := 0.0
	frameAt := func() int { return int(math.Round(seconds * float64(sampleRate))) }

	for _, tm := range merged {
		// Elapsed ticks convert at the tempo that was in force for them.
		seconds += float64(tm.ticks-lastTicks) * 60 / (bpm * resolution)
		lastTicks = tm.ticks

		var newBPM float64
		var ch, key, vel uint8
		switch {
		case tm.msg.GetMetaTempo(&newBPM):
			if newBPM > 0 {
				bpm = newBPM
			}
		case tm.msg.GetNoteStart(&ch, &key, &vel):
			open[int(key)] = append(open[int(key)], openNote{
				frame:    frameAt(),
				velocity: float64(vel) / 127,
			})
		case tm.msg.GetNoteEnd(&ch, &key):
			stack := open[int(key)]
			if len(stack) == 0 {
				break
			}
			on := stack[len(stack)-1]
			open[int(key)] = stack[:len(stack)-1]
			notes = append(notes, Note{
				Frame:    on.frame,
				Frames:   gateFrames(on.frame, frameAt()),
				Key:      int(key),
				Velocity: on.velocity,
			})
		}
	}
	// Close anything left hanging at the end of the file.
	for key, stack := range open {
		for _, on := range stack {
			notes = append(notes, Note{
				Frame:    on.frame,
				Frames:   gateFrames(on.frame, frameAt()),
				Key:      key,
				Velocity: on.velocity,
			})
		}
	}
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].Frame < notes[j].Frame })
	return Sequence{Notes: notes}, nil
}

// gateFrames keeps zero-length gates (paired events on the same tick) one
// frame long so the note still triggers.
func gateFrames(on, off int) int {
	if off <= on {
		return 1
	}
	return off - on
}
