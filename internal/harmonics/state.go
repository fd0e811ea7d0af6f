// Package harmonics defines the harmonic spectrum shared between the control
// surface and the additive engine: a fixed bank of 128 partial descriptors,
// closed-form wave presets, and linear morphing between two captured spectra.
package harmonics

import (
	"math"
	"strings"
)

// NumHarmonics is the size of every State. Partial k (0-based) sounds at
// fundamental * (k+1).
const NumHarmonics = 128

// EnableThreshold is the amplitude at or below which a partial counts as
// silent. The engine's oscillators gate on the same value.
const EnableThreshold = 0.001

const twoPi = 2 * math.Pi

// Harmonic describes one partial of a spectrum.
type Harmonic struct {
	Amplitude float64
	Phase     float64
	Enabled   bool
}

// State is a full 128-partial spectrum. It is a value type: assignment
// copies every partial, so a State handed across an API boundary shares
// nothing with its origin.
type State struct {
	partials [NumHarmonics]Harmonic
}

// SetHarmonic sets partial index to the given amplitude and phase. The
// amplitude clamps to [0,1] and the phase wraps into [0,2pi). Out-of-range
// indices are ignored.
func (s *State) SetHarmonic(index int, amplitude, phase float64) {
	if index < 0 || index >= NumHarmonics {
		return
	}
	a := clamp(amplitude, 0, 1)
	s.partials[index] = Harmonic{
		Amplitude: a,
		Phase:     wrapPhase(phase),
		Enabled:   a > EnableThreshold,
	}
}

// SetAmplitude adjusts only the amplitude of partial index, keeping its
// phase. The same clamping and range rules as SetHarmonic apply.
func (s *State) SetAmplitude(index int, amplitude float64) {
	if index < 0 || index >= NumHarmonics {
		return
	}
	h := &s.partials[index]
	h.Amplitude = clamp(amplitude, 0, 1)
	h.Enabled = h.Amplitude > EnableThreshold
}

// Harmonic returns partial index, or a zero Harmonic when index is out of
// range.
func (s *State) Harmonic(index int) Harmonic {
	if index < 0 || index >= NumHarmonics {
		return Harmonic{}
	}
	return s.partials[index]
}

// Amplitude returns the amplitude of partial index, or 0 when index is out
// of range.
func (s *State) Amplitude(index int) float64 {
	if index < 0 || index >= NumHarmonics {
		return 0
	}
	return s.partials[index].Amplitude
}

// Clear silences every partial.
func (s *State) Clear() {
	*s = State{}
}

// MorphTo moves s linearly toward target. amount clamps to [0,1]: 0 leaves
// s untouched, 1 replaces it with target. Amplitude and phase interpolate
// independently; Enabled is recomputed from the interpolated amplitude.
func (s *State) MorphTo(target State, amount float64) {
	t := clamp(amount, 0, 1)
	for i := range s.partials {
		h := &s.partials[i]
		h.Amplitude = h.Amplitude*(1-t) + target.partials[i].Amplitude*t
		h.Phase = h.Phase*(1-t) + target.partials[i].Phase*t
		h.Enabled = h.Amplitude > EnableThreshold
	}
}

// Preset names accepted by LoadPreset.
const (
	PresetSaw      = "Saw"
	PresetSquare   = "Square"
	PresetTriangle = "Triangle"
	PresetSine     = "Sine"
	PresetOrgan    = "Organ"
)

// presetPartials is how many low partials the series presets fill in.
const presetPartials = 32

// LoadPreset replaces the whole spectrum with a named wave. Matching is
// case-insensitive and the state is cleared first, so an unrecognized name
// yields silence rather than an error.
func (s *State) LoadPreset(name string) {
	s.Clear()
	switch {
	case strings.EqualFold(name, PresetSaw):
		for i := 0; i < presetPartials; i++ {
			s.setSeries(i, 1/float64(i+1))
		}
	case strings.EqualFold(name, PresetSquare):
		for i := 0; i < presetPartials; i += 2 {
			s.setSeries(i, 1/float64(i+1))
		}
	case strings.EqualFold(name, PresetTriangle):
		// The signed series is stored as-is. Oscillators clamp negative
		// amplitudes to zero, so only every fourth partial sounds.
		for i := 0; i < presetPartials; i += 2 {
			a := 1 / float64((i+1)*(i+1))
			if i%4 != 0 {
				a = -a
			}
			s.setSeries(i, a)
		}
	case strings.EqualFold(name, PresetSine):
		s.setSeries(0, 1)
	case strings.EqualFold(name, PresetOrgan):
		s.setSeries(0, 1)
		s.setSeries(2, 0.5)
		s.setSeries(4, 0.3)
	}
}

// PresetNames lists the presets LoadPreset understands.
func PresetNames() []string {
	return []string{PresetSaw, PresetSquare, PresetTriangle, PresetSine, PresetOrgan}
}

// setSeries stores a preset amplitude without clamping, keeping the sign of
// alternating series.
func (s *State) setSeries(index int, amplitude float64) {
	s.partials[index] = Harmonic{
		Amplitude: amplitude,
		Enabled:   amplitude > EnableThreshold,
	}
}

// wrapPhase folds p into [0,2pi).
func wrapPhase(p float64) float64 {
	p = math.Mod(p, twoPi)
	if p < 0 {
		p += twoPi
	}
	return p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
