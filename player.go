package addsynth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	intadd "github.com/cbegin/addsynth-go/internal/additive"
	intaudio "github.com/cbegin/addsynth-go/internal/audio"
	intharm "github.com/cbegin/addsynth-go/internal/harmonics"
	intseq "github.com/cbegin/addsynth-go/internal/sequence"
)

// PlaybackEvent carries playback events from Watch().
type PlaybackEvent struct {
	Kind int // EventLoopCompleted or EventPlaybackEnded
}

const (
	EventLoopCompleted int = iota
	EventPlaybackEnded
)

// Preset names accepted by LoadPreset, WithPreset, and the morph preset
// setters.
const (
	PresetSaw      = intharm.PresetSaw
	PresetSquare   = intharm.PresetSquare
	PresetTriangle = intharm.PresetTriangle
	PresetSine     = intharm.PresetSine
	PresetOrgan    = intharm.PresetOrgan
)

// PresetNames lists the built-in spectrum presets.
func PresetNames() []string { return intharm.PresetNames() }

// NumHarmonics is how many partials the spectrum holds.
const NumHarmonics = intharm.NumHarmonics

type PlayerOption func(*playerConfig)

type playerConfig struct {
	preset       string
	loopPlayback bool
	sampleTap    func([]float32)
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{preset: PresetSaw, loopPlayback: true}
}

// WithPreset selects the spectrum preset loaded at startup. Saw is the
// default.
func WithPreset(name string) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.preset = name
	}
}

func WithLoopPlayback(enabled bool) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.loopPlayback = enabled
	}
}

// WithSampleTap installs a callback invoked with each generated mono buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

type Player struct {
	mu           sync.Mutex
	sampleRate   int
	engine       *intadd.Engine
	audio        *intaudio.Player
	baseGain     float64
	volume       float64
	loopPlayback bool
	sampleTap    func([]float32)
	done         chan struct{}
	eventCh      chan PlaybackEvent
	eventChMu    sync.Mutex
}

// eventWrapper wraps the playing source and implements SampleSource +
// FinishingSource to report playback events and signal when non-looping
// playback ends.
type eventWrapper struct {
	source    intaudio.SampleSource
	finished  atomic.Bool
	sampleTap func([]float32)
}

func (w *eventWrapper) Process(dst []float32) {
	w.source.Process(dst)
	if w.sampleTap != nil {
		w.sampleTap(dst)
	}
}

func (w *eventWrapper) Finished() bool {
	return w.finished.Load()
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	params := intadd.DefaultParams()
	engine, err := intadd.New(sampleRate, params)
	if err != nil {
		return nil, err
	}
	p := &Player{
		sampleRate:   sampleRate,
		engine:       engine,
		baseGain:     params.MasterGain,
		volume:       1,
		loopPlayback: cfg.loopPlayback,
		sampleTap:    cfg.sampleTap,
	}
	if err := p.LoadPreset(cfg.preset); err != nil {
		return nil, err
	}
	return p, nil
}

// PlayNotes compiles notation into a note sequence and starts playing it.
func (p *Player) PlayNotes(notation string) error {
	seq, err := intseq.ParseNotes(notation, intseq.DefaultParserConfig(p.sampleRate))
	if err != nil {
		return err
	}
	return p.play(seq)
}

// PlaySMF starts playing a Standard MIDI File.
func (p *Player) PlaySMF(data []byte) error {
	seq, err := intseq.LoadSMF(data, p.sampleRate)
	if err != nil {
		return err
	}
	return p.play(seq)
}

func (p *Player) play(seq intseq.Sequence) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Signal any existing Wait() that the previous playback was replaced
	if p.done != nil {
		close(p.done)
	}
	p.done = make(chan struct{})

	wrapper := &eventWrapper{sampleTap: p.sampleTap}
	onEvent := func(kind intseq.EventKind) {
		if kind == intseq.EventPlaybackEnded {
			wrapper.finished.Store(true)
		}
		p.sendEvent(PlaybackEvent{Kind: int(kind)})
		if kind == intseq.EventPlaybackEnded {
			p.signalDone()
		}
	}

	// Reclaim voices still ringing from a previous playback. The engine is
	// kept so spectrum, morph, and envelope edits survive across plays.
	p.engine.AllNotesOff(false)

	runner := intseq.NewWithOptions(seq, p.engine, p.sampleRate, intseq.Options{
		Loop:    p.loopPlayback,
		OnEvent: onEvent,
	})
	wrapper.source = runner

	backend, err := intaudio.NewPlayer(p.sampleRate, wrapper)
	if err != nil {
		return err
	}
	if p.audio != nil {
		_ = p.audio.Stop()
	}
	p.audio = backend
	p.audio.Play()
	return nil
}

// Start opens the audio device with the synth as an endless live source, for
// callers that trigger notes directly (a MIDI keyboard or an on-screen one)
// instead of playing a sequence.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	wrapper := &eventWrapper{source: p.engine, sampleTap: p.sampleTap}
	backend, err := intaudio.NewPlayer(p.sampleRate, wrapper)
	if err != nil {
		return err
	}
	if p.audio != nil {
		_ = p.audio.Stop()
	}
	p.audio = backend
	p.audio.Play()
	return nil
}

func (p *Player) sendEvent(ev PlaybackEvent) {
	p.eventChMu.Lock()
	ch := p.eventCh
	p.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full or closed; drop event
		}
	}
}

func (p *Player) signalDone() {
	p.mu.Lock()
	done := p.done
	p.done = nil
	p.mu.Unlock()
	if done != nil {
		close(done)
	}
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Pause()
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Play()
	}
}

func (p *Player) Stop() error {
	p.mu.Lock()
	if p.audio == nil {
		p.mu.Unlock()
		return nil
	}
	err := p.audio.Stop()
	p.audio = nil
	done := p.done
	p.done = nil
	p.mu.Unlock()
	p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
	if done != nil {
		close(done)
	}
	return err
}

// Wait blocks until the current playback ends. When loop playback is enabled,
// Wait blocks indefinitely (use Watch for loop-counting instead).
// Wait returns immediately if no playback is active or if it was stopped.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Watch returns a channel that receives playback events. Events are sent when:
//   - EventLoopCompleted: a whole-sequence loop iteration finished (when looping)
//   - EventPlaybackEnded: playback finished (when not looping)
//
// The channel is buffered (cap 8); receive in a goroutine to avoid blocking
// the audio thread. Only the most recent Watch() channel receives events;
// call Watch before starting playback.
func (p *Player) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 8)
	p.eventChMu.Lock()
	p.eventCh = ch
	p.eventChMu.Unlock()
	return ch
}

// NoteOn starts a voice. Velocity is a level in [0,1].
func (p *Player) NoteOn(note int, velocity float64) {
	p.engine.NoteOn(note, velocity)
}

// NoteOff releases the voices playing note, letting them ring through their
// release stage.
func (p *Player) NoteOff(note int) {
	p.engine.NoteOff(note, true)
}

// LoadPreset replaces the live spectrum with a named preset. Names are
// case-insensitive; unknown names are an error.
func (p *Player) LoadPreset(name string) error {
	if !knownPreset(name) {
		return fmt.Errorf("unknown preset %q", name)
	}
	p.engine.LoadPreset(name)
	return nil
}

func knownPreset(name string) bool {
	for _, n := range intharm.PresetNames() {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// SetHarmonic sets one partial's amplitude and phase in the live spectrum.
// Changes reach voices started afterwards.
func (p *Player) SetHarmonic(index int, amplitude, phase float64) {
	p.engine.SetHarmonic(index, amplitude, phase)
}

// SetHarmonicAmplitude adjusts one partial's amplitude, keeping its phase.
func (p *Player) SetHarmonicAmplitude(index int, amplitude float64) {
	p.engine.SetHarmonicAmplitude(index, amplitude)
}

// Harmonic returns one partial's amplitude and phase.
func (p *Player) Harmonic(index int) (amplitude, phase float64) {
	h := p.engine.CurrentState().Harmonic(index)
	return h.Amplitude, h.Phase
}

// HarmonicAmplitude returns one partial's amplitude.
func (p *Player) HarmonicAmplitude(index int) float64 {
	a, _ := p.Harmonic(index)
	return a
}

// CaptureMorphSource stores the live spectrum as the morph origin.
func (p *Player) CaptureMorphSource() {
	p.engine.SetMorphSource(p.engine.CurrentState())
}

// CaptureMorphTarget stores the live spectrum as the morph destination.
func (p *Player) CaptureMorphTarget() {
	p.engine.SetMorphTarget(p.engine.CurrentState())
}

// SetMorphSourcePreset captures a named preset as the morph origin without
// touching the live spectrum.
func (p *Player) SetMorphSourcePreset(name string) error {
	s, err := presetState(name)
	if err != nil {
		return err
	}
	p.engine.SetMorphSource(s)
	return nil
}

// SetMorphTargetPreset captures a named preset as the morph destination
// without touching the live spectrum.
func (p *Player) SetMorphTargetPreset(name string) error {
	s, err := presetState(name)
	if err != nil {
		return err
	}
	p.engine.SetMorphTarget(s)
	return nil
}

func presetState(name string) (intharm.State, error) {
	if !knownPreset(name) {
		return intharm.State{}, fmt.Errorf("unknown preset %q", name)
	}
	var s intharm.State
	s.LoadPreset(name)
	return s, nil
}

// SetMorphAmount blends the captured source and target spectra and makes the
// result the live spectrum. The amount clamps to [0,1].
func (p *Player) SetMorphAmount(amount float64) {
	p.engine.SetMorphAmount(amount)
}

// MorphAmount returns the current blend position.
func (p *Player) MorphAmount() float64 {
	return p.engine.MorphAmount()
}

// SetEnvelope updates the ADSR parameters. Segment times are seconds and
// must be positive; sustain is a level in [0,1].
func (p *Player) SetEnvelope(attackSec, decaySec, sustainLvl, releaseSec float64) error {
	return p.engine.SetEnvelope(attackSec, decaySec, sustainLvl, releaseSec)
}

// Envelope returns the current ADSR parameters.
func (p *Player) Envelope() (attackSec, decaySec, sustainLvl, releaseSec float64) {
	return p.engine.Envelope()
}

// SetMasterVolume sets runtime volume scalar. 1.0 is default.
func (p *Player) SetMasterVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = volume
	p.engine.SetMasterGain(p.baseGain * p.volume)
}

func (p *Player) MasterVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// ActiveVoiceCount reports how many voices are currently sounding.
func (p *Player) ActiveVoiceCount() int {
	return p.engine.ActiveVoiceCount()
}

func (p *Player) SampleRate() int {
	return p.sampleRate
}

// PlaybackPosition returns the current output position of the audio driver,
// i.e. what the listener actually hears right now. Returns 0 if not playing.
func (p *Player) PlaybackPosition() int64 {
	p.mu.Lock()
	a := p.audio
	p.mu.Unlock()
	if a == nil {
		return 0
	}
	pos := a.Position()
	return int64(pos.Seconds() * float64(p.sampleRate))
}
