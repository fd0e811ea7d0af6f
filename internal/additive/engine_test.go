package additive

import (
	"math"
	"sync"
	"testing"

	"github.com/cbegin/addsynth-go/internal/harmonics"
)

func mustEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(44100, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func energyOf(buf []float32) float64 {
	total := 0.0
	for _, s := range buf {
		total += float64(s) * float64(s)
	}
	return total
}

func TestNewRejectsBadSampleRate(t *testing.T) {
	for _, sr := range []int{0, -44100} {
		if _, err := New(sr, DefaultParams()); err == nil {
			t.Fatalf("sample rate %d should be rejected", sr)
		}
	}
}

func TestNewRejectsBadEnvelope(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero attack", func(p *Params) { p.AttackSec = 0 }},
		{"negative decay", func(p *Params) { p.DecaySec = -0.1 }},
		{"zero release", func(p *Params) { p.ReleaseSec = 0 }},
		{"nan attack", func(p *Params) { p.AttackSec = math.NaN() }},
		{"inf release", func(p *Params) { p.ReleaseSec = math.Inf(1) }},
		{"nan sustain", func(p *Params) { p.SustainLvl = math.NaN() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			if _, err := New(44100, p); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestSilentBeforeNoteOn(t *testing.T) {
	e := mustEngine(t)
	buf := make([]float32, 512)
	e.Process(buf)
	if energyOf(buf) != 0 {
		t.Fatal("engine produced output before any note")
	}
	if e.ActiveVoiceCount() != 0 {
		t.Fatalf("active voices = %d, want 0", e.ActiveVoiceCount())
	}
}

func TestNoteOnProducesAudio(t *testing.T) {
	e := mustEngine(t)
	e.NoteOn(69, 1)
	buf := make([]float32, 4410)
	e.Process(buf)
	if energyOf(buf) == 0 {
		t.Fatal("expected audible output after NoteOn")
	}
	if e.ActiveVoiceCount() != 1 {
		t.Fatalf("active voices = %d, want 1", e.ActiveVoiceCount())
	}
}

func testEnvelope(sr float64, p envParams) *envelope {
	env := &envelope{sampleRate: sr}
	env.adopt(&p)
	return env
}

func TestEnvelopeAttackTiming(t *testing.T) {
	env := testEnvelope(44100, envParams{attackSec: 0.01, decaySec: 0.1, sustainLvl: 0.7, releaseSec: 0.5})
	env.noteOn()
	samples := 0
	for env.state == envAttack {
		env.next()
		samples++
		if samples > 1000 {
			t.Fatal("attack never completed")
		}
	}
	// 0.01s at 44100 is 441 samples; allow one sample of float slack.
	if samples < 440 || samples > 442 {
		t.Fatalf("attack took %d samples, want about 441", samples)
	}
	if env.level != 1 {
		t.Fatalf("level after attack = %v, want 1", env.level)
	}
	if env.state != envDecay {
		t.Fatal("attack should hand over to decay")
	}
}

func TestEnvelopeDecayReachesSustain(t *testing.T) {
	env := testEnvelope(44100, envParams{attackSec: 0.01, decaySec: 0.1, sustainLvl: 0.7, releaseSec: 0.5})
	env.noteOn()
	for env.state != envSustain {
		env.next()
	}
	if env.level != 0.7 {
		t.Fatalf("sustain level = %v, want 0.7", env.level)
	}
	// Holding must not drift.
	for i := 0; i < 1000; i++ {
		if got := env.next(); got != 0.7 {
			t.Fatalf("sustain sample %d = %v, want 0.7", i, got)
		}
	}
}

func TestEnvelopeSustainEditLandsImmediately(t *testing.T) {
	env := testEnvelope(44100, envParams{attackSec: 0.01, decaySec: 0.1, sustainLvl: 0.7, releaseSec: 0.5})
	env.noteOn()
	for env.state != envSustain {
		env.next()
	}
	next := envParams{attackSec: 0.01, decaySec: 0.1, sustainLvl: 0.2, releaseSec: 0.5}
	env.adopt(&next)
	if got := env.next(); got != 0.2 {
		t.Fatalf("first sample after sustain edit = %v, want 0.2", got)
	}
}

func TestEnvelopeReleaseTiming(t *testing.T) {
	env := testEnvelope(44100, envParams{attackSec: 0.01, decaySec: 0.1, sustainLvl: 0.7, releaseSec: 0.5})
	env.noteOn()
	for env.state != envSustain {
		env.next()
	}
	env.noteOff()
	samples := 0
	for env.state == envRelease {
		env.next()
		samples++
		if samples > 30000 {
			t.Fatal("release never completed")
		}
	}
	// 0.5s at 44100 is 22050 samples from the sustain level.
	if samples < 22049 || samples > 22051 {
		t.Fatalf("release took %d samples, want about 22050", samples)
	}
	if env.state != envIdle || env.level != 0 {
		t.Fatalf("after release: state=%v level=%v, want idle 0", env.state, env.level)
	}
}

func TestEnvelopeZeroSustainReleaseEndsNote(t *testing.T) {
	env := testEnvelope(44100, envParams{attackSec: 0.01, decaySec: 0.1, sustainLvl: 0, releaseSec: 0.5})
	env.noteOn()
	// Stop mid-attack so the level is still well above zero.
	for i := 0; i < 100; i++ {
		env.next()
	}
	env.noteOff()
	env.next()
	if env.state != envIdle {
		t.Fatal("zero-sustain release should end immediately instead of hanging")
	}
}

func TestEnvelopeNoteOffFromAttack(t *testing.T) {
	env := testEnvelope(44100, envParams{attackSec: 0.01, decaySec: 0.1, sustainLvl: 0.7, releaseSec: 0.5})
	env.noteOn()
	for i := 0; i < 50; i++ {
		env.next()
	}
	env.noteOff()
	if env.state != envRelease {
		t.Fatal("noteOff during attack should enter release")
	}
	for env.state == envRelease {
		env.next()
	}
	if env.state != envIdle {
		t.Fatal("release should land in idle")
	}
}

func TestOscillatorGateHoldsPhase(t *testing.T) {
	o := &oscillator{sampleRate: 48000}
	o.setFrequency(440)
	o.setAmplitude(0.0005)
	for i := 0; i < 10; i++ {
		if got := o.nextSample(); got != 0 {
			t.Fatalf("gated oscillator produced %v", got)
		}
	}
	if o.phase != 0 {
		t.Fatalf("gated oscillator advanced its phase to %v", o.phase)
	}
	o.setAmplitude(0.5)
	o.nextSample()
	if o.phase == 0 {
		t.Fatal("audible oscillator should advance its phase")
	}
}

func TestOscillatorAmplitudeClamps(t *testing.T) {
	o := &oscillator{sampleRate: 48000}
	o.setAmplitude(-0.25)
	if o.amp != 0 {
		t.Fatalf("amp = %v, want 0", o.amp)
	}
	o.setAmplitude(3)
	if o.amp != 1 {
		t.Fatalf("amp = %v, want 1", o.amp)
	}
}

func TestBankHarmonicSeries(t *testing.T) {
	var b bank
	for k := range b.oscillators {
		b.oscillators[k].sampleRate = 48000
	}
	b.setFundamental(100)
	for k := range b.oscillators {
		want := 100 * float64(k+1)
		if got := b.oscillators[k].freq; got != want {
			t.Fatalf("partial %d frequency = %v, want %v", k, got, want)
		}
	}
}

func TestAllZeroSpectrumRendersZeros(t *testing.T) {
	e := mustEngine(t)
	e.LoadPreset("none of the above")
	e.NoteOn(60, 1)
	buf := make([]float32, 512)
	e.Process(buf)
	for i, s := range buf {
		if s != 0 {
			t.Fatalf("sample %d = %v, want 0", i, s)
		}
	}
	// The voice is still running; silence comes from the spectrum alone.
	if e.ActiveVoiceCount() != 1 {
		t.Fatalf("active voices = %d, want 1", e.ActiveVoiceCount())
	}
}

func TestNoteOffReleasesEveryVoiceOnNote(t *testing.T) {
	e := mustEngine(t)
	e.NoteOn(60, 1)
	e.NoteOn(60, 1)
	e.Process(make([]float32, 8))
	if e.ActiveVoiceCount() != 2 {
		t.Fatalf("active voices = %d, want 2", e.ActiveVoiceCount())
	}
	e.NoteOff(60, true)
	e.Process(make([]float32, 44100))
	if e.ActiveVoiceCount() != 0 {
		t.Fatalf("active voices after release = %d, want 0", e.ActiveVoiceCount())
	}
}

func TestHardNoteOffSilencesImmediately(t *testing.T) {
	e := mustEngine(t)
	e.NoteOn(60, 1)
	e.Process(make([]float32, 64))
	e.NoteOff(60, false)
	buf := make([]float32, 16)
	e.Process(buf)
	for i, s := range buf {
		if s != 0 {
			t.Fatalf("sample %d = %v after hard note-off, want 0", i, s)
		}
	}
	if e.ActiveVoiceCount() != 0 {
		t.Fatalf("active voices = %d, want 0", e.ActiveVoiceCount())
	}
}

func TestAllNotesOffReclaimsEveryVoice(t *testing.T) {
	e := mustEngine(t)
	e.NoteOn(60, 1)
	e.NoteOn(64, 1)
	e.NoteOn(67, 1)
	e.Process(make([]float32, 8))
	if e.ActiveVoiceCount() != 3 {
		t.Fatalf("active voices = %d, want 3", e.ActiveVoiceCount())
	}
	e.AllNotesOff(false)
	buf := make([]float32, 16)
	e.Process(buf)
	for i, s := range buf {
		if s != 0 {
			t.Fatalf("sample %d = %v after all-notes-off, want 0", i, s)
		}
	}
	if e.ActiveVoiceCount() != 0 {
		t.Fatalf("active voices = %d, want 0", e.ActiveVoiceCount())
	}
}

func TestVoiceStealingKeepsPoolBounded(t *testing.T) {
	e := mustEngine(t)
	for n := 0; n < maxVoices; n++ {
		e.NoteOn(40+n, 1)
	}
	e.Process(make([]float32, 4))
	if e.ActiveVoiceCount() != maxVoices {
		t.Fatalf("active voices = %d, want %d", e.ActiveVoiceCount(), maxVoices)
	}
	e.NoteOn(100, 1)
	e.Process(make([]float32, 1))
	if e.ActiveVoiceCount() != maxVoices {
		t.Fatalf("active voices after steal = %d, want %d", e.ActiveVoiceCount(), maxVoices)
	}
	// All levels were equal, so the lowest index loses.
	if e.voices[0].note != 100 {
		t.Fatalf("voice 0 plays note %d, want 100", e.voices[0].note)
	}
}

func TestNoteOnFromAnotherGoroutine(t *testing.T) {
	e := mustEngine(t)
	done := make(chan struct{})
	go func() {
		e.NoteOn(72, 0.9)
		close(done)
	}()
	<-done
	e.Process(make([]float32, 1))
	if e.ActiveVoiceCount() != 1 {
		t.Fatal("a posted note should start within one frame")
	}
}

func TestSpectrumEditsReachNewVoicesOnly(t *testing.T) {
	e := mustEngine(t)
	e.NoteOn(60, 1)
	e.Process(make([]float32, 512))
	e.LoadPreset("silence please")
	buf := make([]float32, 512)
	e.Process(buf)
	if energyOf(buf) == 0 {
		t.Fatal("live spectrum edits must not reach sounding voices")
	}
}

func TestOutOfRangeNotesIgnored(t *testing.T) {
	e := mustEngine(t)
	e.NoteOn(-1, 1)
	e.NoteOn(128, 1)
	e.Process(make([]float32, 4))
	if e.ActiveVoiceCount() != 0 {
		t.Fatalf("active voices = %d, want 0", e.ActiveVoiceCount())
	}
}

func TestMasterGain(t *testing.T) {
	e := mustEngine(t)
	e.SetMasterGain(-2)
	if e.MasterGain() != 0 {
		t.Fatalf("gain = %v, want 0", e.MasterGain())
	}
	e.NoteOn(69, 1)
	buf := make([]float32, 512)
	e.Process(buf)
	if energyOf(buf) != 0 {
		t.Fatal("zero master gain should silence the output")
	}
}

func TestMorphUpdatesLiveSpectrum(t *testing.T) {
	e := mustEngine(t)
	var saw, sine harmonics.State
	saw.LoadPreset(harmonics.PresetSaw)
	sine.LoadPreset(harmonics.PresetSine)
	e.SetMorphSource(saw)
	e.SetMorphTarget(sine)

	e.SetMorphAmount(1)
	if e.CurrentState() != sine {
		t.Fatal("amount 1 should land on the target spectrum")
	}
	e.SetMorphAmount(0)
	if e.CurrentState() != saw {
		t.Fatal("amount 0 should restore the source spectrum")
	}
	e.SetMorphAmount(0.5)
	if got := e.CurrentState().Amplitude(1); math.Abs(got-0.25) > 1e-12 {
		t.Fatalf("partial 1 at amount 0.5 = %v, want 0.25", got)
	}
	if got := e.MorphAmount(); got != 0.5 {
		t.Fatalf("MorphAmount = %v, want 0.5", got)
	}
}

func TestSetEnvelopeValidation(t *testing.T) {
	e := mustEngine(t)
	if err := e.SetEnvelope(0, 0.1, 0.7, 0.5); err == nil {
		t.Fatal("zero attack should be rejected")
	}
	if err := e.SetEnvelope(0.01, 0.1, 3, 0.5); err != nil {
		t.Fatalf("sustain above 1 should clamp, got error %v", err)
	}
	_, _, sustain, _ := e.Envelope()
	if sustain != 1 {
		t.Fatalf("sustain = %v, want 1", sustain)
	}
}

func TestConcurrentControlAndRender(t *testing.T) {
	e := mustEngine(t)
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			e.NoteOn(48+i%24, 0.8)
			e.SetHarmonicAmplitude(i%harmonics.NumHarmonics, 0.5)
			e.SetMorphAmount(float64(i%100) / 100)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			_ = e.SetEnvelope(0.01, 0.1, float64(i%10)/10, 0.5)
			e.NoteOff(48+i%24, i%2 == 0)
			e.SetMasterGain(0.5)
		}
	}()
	buf := make([]float32, 256)
	for i := 0; i < 200; i++ {
		e.Process(buf)
	}
	close(stop)
	wg.Wait()
	for i, s := range buf {
		if math.IsNaN(float64(s)) {
			t.Fatalf("sample %d is NaN", i)
		}
	}
}

func BenchmarkRenderFrame(b *testing.B) {
	e, err := New(48000, DefaultParams())
	if err != nil {
		b.Fatal(err)
	}
	for n := 0; n < maxVoices; n++ {
		e.NoteOn(36+n*3, 0.9)
	}
	e.RenderFrame()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.RenderFrame()
	}
}

func BenchmarkProcessBlock(b *testing.B) {
	e, err := New(48000, DefaultParams())
	if err != nil {
		b.Fatal(err)
	}
	for n := 0; n < maxVoices; n++ {
		e.NoteOn(36+n*3, 0.9)
	}
	buf := make([]float32, 512)
	e.Process(buf)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Process(buf)
	}
}
