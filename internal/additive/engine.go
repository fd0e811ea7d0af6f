// Package additive implements a polyphonic additive synthesis engine. Each
// voice drives a bank of 128 sine oscillators locked to the harmonic series
// of its fundamental, shaped by a linear ADSR envelope. Control methods are
// safe to call from any goroutine; RenderFrame and Process must be driven by
// a single goroutine, normally the audio callback.
package additive

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/cbegin/addsynth-go/internal/harmonics"
)

const twoPi = math.Pi * 2

const (
	maxVoices = 16
	// bankGain scales the 128-partial sum before the envelope. 0.5 keeps a
	// full saw spectrum inside headroom.
	bankGain = 0.5
)

type Params struct {
	// Polyphony is the voice pool size; values outside 1..16 fall back to 16.
	Polyphony int
	// AttackSec, DecaySec and ReleaseSec are envelope segment lengths in
	// seconds and must be positive. SustainLvl is a level clamped to [0,1].
	AttackSec  float64
	DecaySec   float64
	SustainLvl float64
	ReleaseSec float64
	// MasterGain scales the summed voice output.
	MasterGain float64
}

func DefaultParams() Params {
	return Params{
		Polyphony:  maxVoices,
		AttackSec:  0.01,
		DecaySec:   0.1,
		SustainLvl: 0.7,
		ReleaseSec: 0.5,
		MasterGain: 1.0,
	}
}

type envState int

const (
	envIdle envState = iota
	envAttack
	envDecay
	envSustain
	envRelease
)

// envParams is an immutable ADSR snapshot. The control surface publishes a
// fresh one on every change; voices adopt it by pointer comparison.
type envParams struct {
	attackSec  float64
	decaySec   float64
	sustainLvl float64
	releaseSec float64
}

// envelope is the per-voice ADSR generator. Rates are per-sample level
// deltas, recomputed only when the voice observes a new parameter snapshot.
type envelope struct {
	state       envState
	level       float64
	sampleRate  float64
	params      *envParams
	attackRate  float64
	decayRate   float64
	sustainLvl  float64
	releaseRate float64
}

func (e *envelope) adopt(p *envParams) {
	if e.params == p {
		return
	}
	e.params = p
	e.attackRate = 1 / (p.attackSec * e.sampleRate)
	e.decayRate = (1 - p.sustainLvl) / (p.decaySec * e.sampleRate)
	e.sustainLvl = p.sustainLvl
	e.releaseRate = p.sustainLvl / (p.releaseSec * e.sampleRate)
}

func (e *envelope) noteOn() {
	e.state = envAttack
	e.level = 0
}

func (e *envelope) noteOff() {
	if e.state != envIdle {
		e.state = envRelease
	}
}

func (e *envelope) reset() {
	e.state = envIdle
	e.level = 0
}

func (e *envelope) active() bool {
	return e.state != envIdle
}

// next advances the envelope by one sample and returns the new level.
func (e *envelope) next() float64 {
	switch e.state {
	case envAttack:
		e.level += e.attackRate
		if e.level >= 1 {
			e.level = 1
			e.state = envDecay
		}
	case envDecay:
		e.level -= e.decayRate
		if e.level <= e.sustainLvl {
			e.level = e.sustainLvl
			e.state = envSustain
		}
	case envSustain:
		// Re-asserted every sample so sustain edits land immediately.
		e.level = e.sustainLvl
	case envRelease:
		e.level -= e.releaseRate
		// A zero rate means the sustain level was zero; nothing is left
		// to ring out.
		if e.releaseRate <= 0 || e.level <= 0 {
			e.level = 0
			e.state = envIdle
		}
	default:
		e.level = 0
	}
	return e.level
}

// oscillator is one phase-accumulating sine partial.
type oscillator struct {
	sampleRate float64
	freq       float64
	amp        float64
	phase      float64
	phaseInc   float64
}

func (o *oscillator) setFrequency(f float64) {
	o.freq = f
	o.recompute()
}

func (o *oscillator) setAmplitude(a float64) {
	o.amp = clamp(a, 0, 1)
	o.recompute()
}

func (o *oscillator) recompute() {
	o.phaseInc = twoPi * o.freq / o.sampleRate
}

// nextSample returns amp*sin(phase) and advances the phase. Partials at or
// below the audible threshold return 0 and hold their phase.
func (o *oscillator) nextSample() float64 {
	if o.amp < harmonics.EnableThreshold {
		return 0
	}
	s := o.amp * math.Sin(o.phase)
	o.phase += o.phaseInc
	if o.phase >= twoPi {
		o.phase -= twoPi
	}
	return s
}

// bank is one voice's oscillator array, locked to the harmonic series of a
// single fundamental.
type bank struct {
	oscillators [harmonics.NumHarmonics]oscillator
}

func (b *bank) setFundamental(f float64) {
	for k := range b.oscillators {
		b.oscillators[k].setFrequency(f * float64(k+1))
	}
}

// applyState copies partial amplitudes into the oscillators through their
// clamping setters. Running phase is left alone, so re-applying a spectrum
// never causes a discontinuity.
func (b *bank) applyState(s *harmonics.State) {
	for k := range b.oscillators {
		b.oscillators[k].setAmplitude(s.Amplitude(k))
	}
}

// nextSample advances every oscillator exactly once and returns the scaled
// sum.
func (b *bank) nextSample() float64 {
	sum := 0.0
	for k := range b.oscillators {
		sum += b.oscillators[k].nextSample()
	}
	return sum * bankGain
}

type voice struct {
	bank     bank
	env      envelope
	note     int
	velocity float64
}

func (v *voice) start(note int, velocity float64, spectrum *harmonics.State, p *envParams) {
	v.note = note
	v.velocity = clamp(velocity, 0, 1)
	v.bank.setFundamental(midiToFreq(note))
	v.bank.applyState(spectrum)
	v.env.adopt(p)
	v.env.noteOn()
}

func (v *voice) stop(allowTailOff bool) {
	if allowTailOff {
		v.env.noteOff()
		return
	}
	v.env.reset()
}

func (v *voice) renderSample() float64 {
	return v.bank.nextSample() * v.env.next() * v.velocity
}

type eventKind uint8

const (
	eventNoteOn eventKind = iota
	eventNoteOff
	eventAllOff
)

type noteEvent struct {
	kind     eventKind
	note     int
	velocity float64
	tailOff  bool
}

// eventRingSize must be a power of two; indices wrap by mask.
const eventRingSize = 1024

// eventRing carries note events from the control surface to the render
// goroutine. Producers serialize on mu and advance tail; the single consumer
// advances head with atomics only and never blocks or locks.
type eventRing struct {
	mu     sync.Mutex
	events [eventRingSize]noteEvent
	head   atomic.Uint64
	tail   atomic.Uint64
}

func (r *eventRing) push(ev noteEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	tail := r.tail.Load()
	if tail-r.head.Load() >= eventRingSize {
		// Full. Drop rather than block the caller.
		return false
	}
	r.events[tail&(eventRingSize-1)] = ev
	r.tail.Store(tail + 1)
	return true
}

// pop is only called from the render goroutine.
func (r *eventRing) pop() (noteEvent, bool) {
	head := r.head.Load()
	if head == r.tail.Load() {
		return noteEvent{}, false
	}
	ev := r.events[head&(eventRingSize-1)]
	r.head.Store(head + 1)
	return ev, true
}

// Engine is the 16-voice additive synthesizer.
type Engine struct {
	sampleRate float64
	voices     []voice
	ring       eventRing
	spectrum   atomic.Pointer[harmonics.State]
	envp       atomic.Pointer[envParams]
	masterGain uint64
	actives    atomic.Int32

	// Control-side mirrors, guarded by mu. The render path never touches
	// them.
	mu    sync.Mutex
	state harmonics.State
	morph harmonics.Morpher
	adsr  envParams
}

// New creates an Engine with the Saw preset loaded.
func New(sampleRate int, params Params) (*Engine, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	if err := validateEnvelope(params.AttackSec, params.DecaySec, params.SustainLvl, params.ReleaseSec); err != nil {
		return nil, err
	}
	poly := params.Polyphony
	if poly <= 0 || poly > maxVoices {
		poly = maxVoices
	}
	e := &Engine{
		sampleRate: float64(sampleRate),
		voices:     make([]voice, poly),
	}
	e.SetMasterGain(params.MasterGain)
	for i := range e.voices {
		v := &e.voices[i]
		v.env.sampleRate = e.sampleRate
		for k := range v.bank.oscillators {
			v.bank.oscillators[k].sampleRate = e.sampleRate
		}
	}
	e.adsr = envParams{
		attackSec:  params.AttackSec,
		decaySec:   params.DecaySec,
		sustainLvl: clamp(params.SustainLvl, 0, 1),
		releaseSec: params.ReleaseSec,
	}
	e.publishEnvelopeLocked()
	e.state.LoadPreset(harmonics.PresetSaw)
	e.publishSpectrumLocked()
	return e, nil
}

func validateEnvelope(attack, decay, sustain, release float64) error {
	switch {
	case !(attack > 0) || math.IsInf(attack, 1):
		return fmt.Errorf("attack must be a positive number of seconds, got %v", attack)
	case !(decay > 0) || math.IsInf(decay, 1):
		return fmt.Errorf("decay must be a positive number of seconds, got %v", decay)
	case !(release > 0) || math.IsInf(release, 1):
		return fmt.Errorf("release must be a positive number of seconds, got %v", release)
	case math.IsNaN(sustain):
		return errors.New("sustain must be a level in [0,1]")
	}
	return nil
}

// NoteOn posts a note start for the render goroutine to pick up at the next
// frame. Velocity clamps to [0,1]; out-of-range notes are ignored.
func (e *Engine) NoteOn(note int, velocity float64) {
	if note < 0 || note > 127 {
		return
	}
	e.ring.push(noteEvent{kind: eventNoteOn, note: note, velocity: clamp(velocity, 0, 1)})
}

// NoteOff releases every active voice playing note. With allowTailOff the
// voices enter their release stage; without it they fall silent at the next
// frame.
func (e *Engine) NoteOff(note int, allowTailOff bool) {
	if note < 0 || note > 127 {
		return
	}
	e.ring.push(noteEvent{kind: eventNoteOff, note: note, tailOff: allowTailOff})
}

// AllNotesOff releases every sounding voice. With allowTailOff the voices
// ring out through their release stage; without it they fall silent at the
// next frame.
func (e *Engine) AllNotesOff(allowTailOff bool) {
	e.ring.push(noteEvent{kind: eventAllOff, tailOff: allowTailOff})
}

// SetHarmonic sets one partial's amplitude and phase in the live spectrum.
// The change applies to voices started afterwards.
func (e *Engine) SetHarmonic(index int, amplitude, phase float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.SetHarmonic(index, amplitude, phase)
	e.publishSpectrumLocked()
}

// SetHarmonicAmplitude adjusts one partial's amplitude, keeping its phase.
func (e *Engine) SetHarmonicAmplitude(index int, amplitude float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.SetAmplitude(index, amplitude)
	e.publishSpectrumLocked()
}

// LoadPreset replaces the live spectrum with a named preset. Unknown names
// clear it. The captured morph source and target are not affected.
func (e *Engine) LoadPreset(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.LoadPreset(name)
	e.publishSpectrumLocked()
}

// CurrentState returns a copy of the live spectrum.
func (e *Engine) CurrentState() harmonics.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SetMorphSource captures s as the morph origin.
func (e *Engine) SetMorphSource(s harmonics.State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.morph.SetSource(s)
}

// SetMorphTarget captures s as the morph destination.
func (e *Engine) SetMorphTarget(s harmonics.State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.morph.SetTarget(s)
}

// SetMorphAmount blends the captured source and target and makes the result
// the live spectrum. The amount clamps to [0,1].
func (e *Engine) SetMorphAmount(amount float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.morph.SetAmount(amount)
	e.state = e.morph.CurrentState()
	e.publishSpectrumLocked()
}

// MorphAmount returns the current blend position.
func (e *Engine) MorphAmount() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.morph.Amount()
}

// SetEnvelope updates the ADSR parameters. Segment times are seconds and
// must be positive; sustain clamps to [0,1]. Sounding voices pick the change
// up at the next frame.
func (e *Engine) SetEnvelope(attackSec, decaySec, sustainLvl, releaseSec float64) error {
	if err := validateEnvelope(attackSec, decaySec, sustainLvl, releaseSec); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.adsr = envParams{
		attackSec:  attackSec,
		decaySec:   decaySec,
		sustainLvl: clamp(sustainLvl, 0, 1),
		releaseSec: releaseSec,
	}
	e.publishEnvelopeLocked()
	return nil
}

// Envelope returns the current ADSR parameters.
func (e *Engine) Envelope() (attackSec, decaySec, sustainLvl, releaseSec float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.adsr.attackSec, e.adsr.decaySec, e.adsr.sustainLvl, e.adsr.releaseSec
}

func (e *Engine) SetMasterGain(gain float64) {
	if gain < 0 {
		gain = 0
	}
	atomic.StoreUint64(&e.masterGain, math.Float64bits(gain))
}

func (e *Engine) MasterGain() float64 {
	return e.masterGainValue()
}

// ActiveVoiceCount reports how many voices were sounding after the last
// rendered frame. Safe from any goroutine.
func (e *Engine) ActiveVoiceCount() int {
	return int(e.actives.Load())
}

func (e *Engine) SampleRate() int {
	return int(e.sampleRate)
}

// publishSpectrumLocked hands the render goroutine a fresh immutable copy of
// the live spectrum. Callers hold mu.
func (e *Engine) publishSpectrumLocked() {
	s := e.state
	e.spectrum.Store(&s)
}

func (e *Engine) publishEnvelopeLocked() {
	p := e.adsr
	e.envp.Store(&p)
}

// RenderFrame produces one mono sample. Pending note events apply before
// the sample is rendered.
func (e *Engine) RenderFrame() float32 {
	e.drainEvents()
	p := e.envp.Load()
	sum := 0.0
	actives := int32(0)
	for i := range e.voices {
		v := &e.voices[i]
		if !v.env.active() {
			continue
		}
		v.env.adopt(p)
		sum += v.renderSample()
		if v.env.active() {
			actives++
		}
	}
	e.actives.Store(actives)
	return float32(sum * e.masterGainValue())
}

// Process fills dst with mono samples. It satisfies the audio layer's
// SampleSource.
func (e *Engine) Process(dst []float32) {
	for i := range dst {
		dst[i] = e.RenderFrame()
	}
}

func (e *Engine) drainEvents() {
	for {
		ev, ok := e.ring.pop()
		if !ok {
			return
		}
		switch ev.kind {
		case eventNoteOn:
			e.startVoice(ev.note, ev.velocity)
		case eventNoteOff:
			for i := range e.voices {
				v := &e.voices[i]
				if v.note == ev.note && v.env.active() {
					v.stop(ev.tailOff)
				}
			}
		case eventAllOff:
			for i := range e.voices {
				v := &e.voices[i]
				if v.env.active() {
					v.stop(ev.tailOff)
				}
			}
		}
	}
}

func (e *Engine) startVoice(note int, velocity float64) {
	v := e.freeVoice()
	if v == nil {
		v = e.stealVoice()
	}
	v.start(note, velocity, e.spectrum.Load(), e.envp.Load())
}

func (e *Engine) freeVoice() *voice {
	for i := range e.voices {
		if !e.voices[i].env.active() {
			return &e.voices[i]
		}
	}
	return nil
}

// stealVoice picks the quietest active voice, lowest index on ties.
func (e *Engine) stealVoice() *voice {
	quiet := &e.voices[0]
	for i := 1; i < len(e.voices); i++ {
		if e.voices[i].env.level < quiet.env.level {
			quiet = &e.voices[i]
		}
	}
	return quiet
}

func (e *Engine) masterGainValue() float64 {
	return math.Float64frombits(atomic.LoadUint64(&e.masterGain))
}

func midiToFreq(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
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
