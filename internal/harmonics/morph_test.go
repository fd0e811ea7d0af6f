package harmonics

import (
	"math"
	"testing"
)

func TestMorpherBlend(t *testing.T) {
	var saw, sine State
	saw.LoadPreset(PresetSaw)
	sine.LoadPreset(PresetSine)

	m := NewMorpher()
	m.SetSource(saw)
	m.SetTarget(sine)

	m.SetAmount(0)
	if got := m.CurrentState(); got != saw {
		t.Fatal("amount 0 should reproduce the source")
	}
	m.SetAmount(1)
	if got := m.CurrentState(); got != sine {
		t.Fatal("amount 1 should reproduce the target")
	}
	m.SetAmount(0.5)
	got := m.CurrentState()
	if a := got.Amplitude(1); math.Abs(a-0.25) > 1e-12 {
		t.Fatalf("partial 1 at amount 0.5 = %v, want 0.25", a)
	}
}

func TestMorpherAmountClamps(t *testing.T) {
	m := NewMorpher()
	m.SetAmount(-1)
	if m.Amount() != 0 {
		t.Fatalf("amount = %v, want 0", m.Amount())
	}
	m.SetAmount(7)
	if m.Amount() != 1 {
		t.Fatalf("amount = %v, want 1", m.Amount())
	}
}

func TestMorpherCapturesCopies(t *testing.T) {
	var s State
	s.LoadPreset(PresetSine)

	m := NewMorpher()
	m.SetSource(s)
	s.SetAmplitude(0, 0.1)
	if got := m.Source().Amplitude(0); got != 1 {
		t.Fatalf("source partial 0 = %v after editing the original, want 1", got)
	}

	out := m.CurrentState()
	out.SetAmplitude(0, 0.3)
	if got := m.CurrentState().Amplitude(0); got != 1 {
		t.Fatalf("partial 0 = %v after editing a returned copy, want 1", got)
	}
}
