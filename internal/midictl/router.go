// Package midictl maps incoming MIDI messages onto synth controls.
//
// Note messages drive voices directly. Control changes cover the morph
// amount, master volume, the first 32 harmonic amplitudes, and the four
// envelope parameters, so a hardware controller can reshape the sound
// while playing.
package midictl

import (
	"gitlab.com/gomidi/midi/v2"

	"github.com/cbegin/addsynth-go/internal/additive"
)

// Synth is the control surface the router drives. *additive.Engine
// satisfies it.
type Synth interface {
	NoteOn(note int, velocity float64)
	NoteOff(note int, allowTailOff bool)
	SetHarmonicAmplitude(index int, amplitude float64)
	SetMorphAmount(amount float64)
	SetMasterGain(gain float64)
	SetEnvelope(attackSec, decaySec, sustainLvl, releaseSec float64) error
}

// Control change assignments.
const (
	ccMorphAmount   = 1 // mod wheel
	ccMasterVolume  = 7
	ccHarmonicFirst = 16 // CC 16..47 set harmonics 0..31
	ccHarmonicLast  = 47
	ccSustain       = 70
	ccRelease       = 72
	ccAttack        = 73
	ccDecay         = 75
)

// Envelope ranges reachable over CC. Times are seconds.
const (
	minAttack  = 0.001
	maxAttack  = 2.0
	minDecay   = 0.001
	maxDecay   = 2.0
	minRelease = 0.001
	maxRelease = 5.0
)

// Router translates MIDI messages into Synth calls. It keeps a shadow
// copy of the envelope because each CC updates a single parameter while
// the synth takes all four at once.
//
// Handle is safe to call from a MIDI driver callback goroutine; the
// synth's control surface carries the synchronization.
type Router struct {
	synth   Synth
	attack  float64
	decay   float64
	sustain float64
	release float64
}

// NewRouter returns a router whose envelope shadow starts at the synth
// defaults.
func NewRouter(synth Synth) *Router {
	p := additive.DefaultParams()
	return &Router{
		synth:   synth,
		attack:  p.AttackSec,
		decay:   p.DecaySec,
		sustain: p.SustainLvl,
		release: p.ReleaseSec,
	}
}

// Handle routes one MIDI message. Unrecognized messages are ignored.
func (r *Router) Handle(msg midi.Message) {
	var ch, key, vel uint8
	if msg.GetNoteStart(&ch, &key, &vel) {
		r.synth.NoteOn(int(key), float64(vel)/127)
		return
	}
	if msg.GetNoteEnd(&ch, &key) {
		r.synth.NoteOff(int(key), true)
		return
	}
	var cc, val uint8
	if msg.GetControlChange(&ch, &cc, &val) {
		r.controlChange(cc, val)
	}
}

func (r *Router) controlChange(cc, val uint8) {
	norm := float64(val) / 127
	switch {
	case cc == ccMorphAmount:
		r.synth.SetMorphAmount(norm)
	case cc == ccMasterVolume:
		r.synth.SetMasterGain(norm)
	case cc >= ccHarmonicFirst && cc <= ccHarmonicLast:
		r.synth.SetHarmonicAmplitude(int(cc-ccHarmonicFirst), norm)
	case cc == ccAttack:
		r.attack = scale(norm, minAttack, maxAttack)
		r.pushEnvelope()
	case cc == ccDecay:
		r.decay = scale(norm, minDecay, maxDecay)
		r.pushEnvelope()
	case cc == ccSustain:
		r.sustain = norm
		r.pushEnvelope()
	case cc == ccRelease:
		r.release = scale(norm, minRelease, maxRelease)
		r.pushEnvelope()
	}
}

func (r *Router) pushEnvelope() {
	// Shadow values stay inside the constant ranges, so this cannot fail.
	_ = r.synth.SetEnvelope(r.attack, r.decay, r.sustain, r.release)
}

// scale maps a 0..1 control value onto [lo, hi].
func scale(norm, lo, hi float64) float64 {
	return lo + norm*(hi-lo)
}
