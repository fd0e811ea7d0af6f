package midictl

import (
	"math"
	"testing"

	"gitlab.com/gomidi/midi/v2"
)

type onCall struct {
	note     int
	velocity float64
}

type offCall struct {
	note int
	tail bool
}

type harmCall struct {
	index     int
	amplitude float64
}

type fakeSynth struct {
	notesOn   []onCall
	notesOff  []offCall
	harmonics []harmCall
	morphs    []float64
	gains     []float64
	envs      [][4]float64
}

func (f *fakeSynth) NoteOn(note int, velocity float64) {
	f.notesOn = append(f.notesOn, onCall{note, velocity})
}

func (f *fakeSynth) NoteOff(note int, allowTailOff bool) {
	f.notesOff = append(f.notesOff, offCall{note, allowTailOff})
}

func (f *fakeSynth) SetHarmonicAmplitude(index int, amplitude float64) {
	f.harmonics = append(f.harmonics, harmCall{index, amplitude})
}

func (f *fakeSynth) SetMorphAmount(amount float64) {
	f.morphs = append(f.morphs, amount)
}

func (f *fakeSynth) SetMasterGain(gain float64) {
	f.gains = append(f.gains, gain)
}

func (f *fakeSynth) SetEnvelope(attackSec, decaySec, sustainLvl, releaseSec float64) error {
	f.envs = append(f.envs, [4]float64{attackSec, decaySec, sustainLvl, releaseSec})
	return nil
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRouterNoteMessages(t *testing.T) {
	synth := &fakeSynth{}
	r := NewRouter(synth)

	r.Handle(midi.NoteOn(0, 60, 127))
	r.Handle(midi.NoteOn(0, 64, 64))
	r.Handle(midi.NoteOff(0, 60))

	if len(synth.notesOn) != 2 {
		t.Fatalf("notesOn = %d, want 2", len(synth.notesOn))
	}
	if synth.notesOn[0].note != 60 || !approx(synth.notesOn[0].velocity, 1) {
		t.Errorf("first note on = %+v, want note 60 velocity 1", synth.notesOn[0])
	}
	if synth.notesOn[1].note != 64 || !approx(synth.notesOn[1].velocity, 64.0/127) {
		t.Errorf("second note on = %+v, want note 64 velocity %g", synth.notesOn[1], 64.0/127)
	}
	if len(synth.notesOff) != 1 {
		t.Fatalf("notesOff = %d, want 1", len(synth.notesOff))
	}
	if synth.notesOff[0].note != 60 || !synth.notesOff[0].tail {
		t.Errorf("note off = %+v, want note 60 with tail", synth.notesOff[0])
	}
}

func TestRouterZeroVelocityNoteOnIsNoteOff(t *testing.T) {
	synth := &fakeSynth{}
	r := NewRouter(synth)

	r.Handle(midi.NoteOn(0, 72, 0))

	if len(synth.notesOn) != 0 {
		t.Fatalf("notesOn = %d, want 0", len(synth.notesOn))
	}
	if len(synth.notesOff) != 1 || synth.notesOff[0].note != 72 {
		t.Fatalf("notesOff = %+v, want a single off for note 72", synth.notesOff)
	}
}

func TestRouterHarmonicControlChanges(t *testing.T) {
	tests := []struct {
		cc        uint8
		val       uint8
		index     int
		amplitude float64
	}{
		{16, 127, 0, 1},
		{16, 0, 0, 0},
		{47, 127, 31, 1},
		{31, 64, 15, 64.0 / 127},
	}
	for _, tt := range tests {
		synth := &fakeSynth{}
		r := NewRouter(synth)
		r.Handle(midi.ControlChange(0, tt.cc, tt.val))
		if len(synth.harmonics) != 1 {
			t.Fatalf("cc %d: harmonic calls = %d, want 1", tt.cc, len(synth.harmonics))
		}
		got := synth.harmonics[0]
		if got.index != tt.index || !approx(got.amplitude, tt.amplitude) {
			t.Errorf("cc %d val %d = %+v, want index %d amplitude %g",
				tt.cc, tt.val, got, tt.index, tt.amplitude)
		}
	}
}

func TestRouterMorphAndVolume(t *testing.T) {
	synth := &fakeSynth{}
	r := NewRouter(synth)

	r.Handle(midi.ControlChange(0, 1, 64))
	r.Handle(midi.ControlChange(0, 7, 0))

	if len(synth.morphs) != 1 || !approx(synth.morphs[0], 64.0/127) {
		t.Errorf("morphs = %v, want [%g]", synth.morphs, 64.0/127)
	}
	if len(synth.gains) != 1 || !approx(synth.gains[0], 0) {
		t.Errorf("gains = %v, want [0]", synth.gains)
	}
}

func TestRouterEnvelopeShadow(t *testing.T) {
	synth := &fakeSynth{}
	r := NewRouter(synth)

	// Attack to its maximum; the other three stay at the defaults.
	r.Handle(midi.ControlChange(0, 73, 127))
	if len(synth.envs) != 1 {
		t.Fatalf("envelope calls = %d, want 1", len(synth.envs))
	}
	env := synth.envs[0]
	if !approx(env[0], 2) || !approx(env[1], 0.1) || !approx(env[2], 0.7) || !approx(env[3], 0.5) {
		t.Errorf("envelope after attack cc = %v, want [2 0.1 0.7 0.5]", env)
	}

	// Sustain to zero keeps the earlier attack change.
	r.Handle(midi.ControlChange(0, 70, 0))
	env = synth.envs[len(synth.envs)-1]
	if !approx(env[0], 2) || !approx(env[2], 0) {
		t.Errorf("envelope after sustain cc = %v, want attack 2 sustain 0", env)
	}

	// Release and decay land at the bottom of their ranges at value 0.
	r.Handle(midi.ControlChange(0, 72, 0))
	r.Handle(midi.ControlChange(0, 75, 0))
	env = synth.envs[len(synth.envs)-1]
	if !approx(env[1], 0.001) || !approx(env[3], 0.001) {
		t.Errorf("envelope floors = %v, want decay 0.001 release 0.001", env)
	}
}

func TestRouterIgnoresUnmappedMessages(t *testing.T) {
	synth := &fakeSynth{}
	r := NewRouter(synth)

	r.Handle(midi.ControlChange(0, 15, 127))
	r.Handle(midi.ControlChange(0, 48, 127))
	r.Handle(midi.ControlChange(0, 99, 127))
	r.Handle(midi.Pitchbend(0, 1000))

	if len(synth.notesOn)+len(synth.notesOff)+len(synth.harmonics)+
		len(synth.morphs)+len(synth.gains)+len(synth.envs) != 0 {
		t.Fatalf("unmapped messages reached the synth: %+v", synth)
	}
}
