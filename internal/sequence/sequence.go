// Package sequence turns note text or Standard MIDI Files into
// frame-stamped note lists and plays them through a synthesizer engine one
// sample at a time.
package sequence

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Note is one scheduled note: the gate opens at Frame and closes at
// Frame+Frames.
type Note struct {
	Frame    int
	Frames   int
	Key      int     // MIDI note number
	Velocity float64 // 0..1
}

// Sequence is a playable list of notes ordered by onset frame.
type Sequence struct {
	Notes []Note
}

// EndFrame returns the frame at which the last gate closes.
func (s Sequence) EndFrame() int {
	end := 0
	for _, n := range s.Notes {
		if f := n.Frame + n.Frames; f > end {
			end = f
		}
	}
	return end
}

// ParserConfig sets the starting state for ParseNotes. Zero fields other
// than SampleRate fall back to the defaults below.
type ParserConfig struct {
	SampleRate int
	Tempo      float64 // beats per minute, default 120
	Octave     int     // default 4 (c4 = MIDI 60)
	Length     int     // default note length denominator, default 4
	Velocity   float64 // default 0.8
}

func DefaultParserConfig(sampleRate int) ParserConfig {
	return ParserConfig{
		SampleRate: sampleRate,
		Tempo:      120,
		Octave:     4,
		Length:     4,
		Velocity:   0.8,
	}
}

type parseState struct {
	sampleRate int
	tempo      float64
	octave     int
	length     int
	velocity   float64
	frame      int
}

// ParseNotes compiles a small note notation into a Sequence. Tokens, case
// insensitive, whitespace optional:
//
//	tN    tempo in BPM          oN  octave 0..8
//	lN    default length        vN  velocity 0..15
//	c..b  notes, with + or # (sharp) and - (flat), an optional length
//	      denominator and an optional dot (half again as long)
//	rN    rest                  > <  octave up / down
//
// A length denominator N means a 1/N note at the current tempo.
func ParseNotes(text string, cfg ParserConfig) (Sequence, error) {
	if cfg.SampleRate <= 0 {
		return Sequence{}, errors.New("sampleRate must be positive")
	}
	st := parseState{
		sampleRate: cfg.SampleRate,
		tempo:      cfg.Tempo,
		octave:     cfg.Octave,
		length:     cfg.Length,
		velocity:   cfg.Velocity,
	}
	if st.tempo <= 0 {
		st.tempo = 120
	}
	if st.length <= 0 {
		st.length = 4
	}
	if st.velocity <= 0 {
		st.velocity = 0.8
	}
	st.octave = clampInt(st.octave, 0, 8)

	src := strings.ToLower(text)
	var notes []Note
	at := 0
	for at < len(src) {
		c := src[at]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '|':
			at++
		case c == 't':
			v, next, err := parseNumber(src, at+1)
			if err != nil {
				return Sequence{}, fmt.Errorf("tempo at offset %d: %w", at, err)
			}
			if v == 0 {
				return Sequence{}, fmt.Errorf("tempo at offset %d must be positive", at)
			}
			st.tempo = float64(v)
			at = next
		case c == 'o':
			v, next, err := parseNumber(src, at+1)
			if err != nil {
				return Sequence{}, fmt.Errorf("octave at offset %d: %w", at, err)
			}
			st.octave = clampInt(v, 0, 8)
			at = next
		case c == 'l':
			v, next, err := parseNumber(src, at+1)
			if err != nil {
				return Sequence{}, fmt.Errorf("length at offset %d: %w", at, err)
			}
			if v == 0 {
				return Sequence{}, fmt.Errorf("length at offset %d must be positive", at)
			}
			st.length = v
			at = next
		case c == 'v':
			v, next, err := parseNumber(src, at+1)
			if err != nil {
				return Sequence{}, fmt.Errorf("velocity at offset %d: %w", at, err)
			}
			st.velocity = float64(clampInt(v, 0, 15)) / 15
			at = next
		case c == '>':
			if st.octave < 8 {
				st.octave++
			}
			at++
		case c == '<':
			if st.octave > 0 {
				st.octave--
			}
			at++
		case c == 'r':
			frames, next, err := parseDuration(src, at+1, st)
			if err != nil {
				return Sequence{}, err
			}
			st.frame += frames
			at = next
		case c >= 'a' && c <= 'g':
			key, frames, next, err := parseNote(src, at, st)
			if err != nil {
				return Sequence{}, err
			}
			notes = append(notes, Note{
				Frame:    st.frame,
				Frames:   frames,
				Key:      key,
				Velocity: st.velocity,
			})
			st.frame += frames
			at = next
		default:
			return Sequence{}, fmt.Errorf("unexpected %q at offset %d", c, at)
		}
	}
	return Sequence{Notes: notes}, nil
}

// semitones above C for the letters a..g.
var noteSemitones = [7]int{9, 11, 0, 2, 4, 5, 7}

func parseNote(src string, at int, st parseState) (key, frames, next int, err error) {
	key = 12*(st.octave+1) + noteSemitones[src[at]-'a']
	at++
	if at < len(src) {
		switch src[at] {
		case '+', '#':
			key++
			at++
		case '-':
			key--
			at++
		}
	}
	frames, next, err = parseDuration(src, at, st)
	if err != nil {
		return 0, 0, 0, err
	}
	return clampInt(key, 0, 127), frames, next, nil
}

// parseDuration reads an optional length denominator and dot and converts
// them to frames at the current tempo.
func parseDuration(src string, at int, st parseState) (frames, next int, err error) {
	length := st.length
	if at < len(src) && src[at] >= '0' && src[at] <= '9' {
		v, n, numErr := parseNumber(src, at)
		if numErr != nil {
			return 0, 0, numErr
		}
		if v == 0 {
			return 0, 0, fmt.Errorf("length at offset %d must be positive", at)
		}
		length = v
		at = n
	}
	secs := 4 / float64(length) * 60 / st.tempo
	if at < len(src) && src[at] == '.' {
		secs *= 1.5
		at++
	}
	return int(math.Round(secs * float64(st.sampleRate))), at, nil
}

func parseNumber(src string, at int) (v, next int, err error) {
	start := at
	for at < len(src) && src[at] >= '0' && src[at] <= '9' {
		v = v*10 + int(src[at]-'0')
		at++
	}
	if at == start {
		return 0, 0, fmt.Errorf("expected a number at offset %d", at)
	}
	return v, at, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
