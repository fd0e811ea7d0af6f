package sequence

import "sort"

// Instrument is the engine surface the Runner drives. The additive engine
// satisfies it.
type Instrument interface {
	NoteOn(note int, velocity float64)
	NoteOff(note int, allowTailOff bool)
	RenderFrame() float32
	// ActiveVoiceCount reports voices still sounding, release tails
	// included. Used to detect when playback has fully ended.
	ActiveVoiceCount() int
}

// EventKind identifies runner lifecycle events.
type EventKind int

const (
	EventLoopCompleted EventKind = iota
	EventPlaybackEnded
)

type Options struct {
	// Loop restarts the sequence after its voices fall silent instead of
	// ending playback.
	Loop bool
	// OnEvent receives lifecycle events on the render goroutine; handlers
	// must not block.
	OnEvent func(EventKind)
	// ReleaseTailFrames pads the end with silence after the last voice
	// stops (0 = 0.5s default).
	ReleaseTailFrames int
}

// Runner plays a Sequence through an Instrument one frame at a time. Drive
// it from a single goroutine via Process; it satisfies the audio layer's
// FinishingSource.
type Runner struct {
	notes      []Note
	inst       Instrument
	sampleRate int
	frame      int
	next       int
	noteOffs   []noteOff
	loop       bool
	onEvent    func(EventKind)
	tailFrames int
	tailLeft   int
	exhausted  bool
	finished   bool
}

type noteOff struct {
	frame int
	key   int
	fired bool
}

func New(seq Sequence, inst Instrument, sampleRate int) *Runner {
	return NewWithOptions(seq, inst, sampleRate, Options{})
}

func NewWithOptions(seq Sequence, inst Instrument, sampleRate int, opts Options) *Runner {
	tail := opts.ReleaseTailFrames
	if tail <= 0 {
		tail = sampleRate / 2
	}
	notes := make([]Note, len(seq.Notes))
	copy(notes, seq.Notes)
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].Frame < notes[j].Frame })
	return &Runner{
		notes:      notes,
		inst:       inst,
		sampleRate: sampleRate,
		// Capacity covers every gate; scheduling never reallocates while
		// rendering.
		noteOffs:   make([]noteOff, 0, len(notes)),
		loop:       opts.Loop,
		onEvent:    opts.OnEvent,
		tailFrames: tail,
		tailLeft:   tail,
	}
}

// Process fills dst with mono samples, dispatching due note events before
// each frame.
func (r *Runner) Process(dst []float32) {
	for f := range dst {
		if r.finished {
			dst[f] = 0
			continue
		}
		r.dispatchFrame()
		dst[f] = r.inst.RenderFrame()
		r.frame++
		r.checkEnd()
	}
}

// Finished reports whether playback has ended. Loops never finish.
func (r *Runner) Finished() bool {
	return r.finished
}

// Frame returns the number of frames rendered since the last rewind.
func (r *Runner) Frame() int {
	return r.frame
}

func (r *Runner) dispatchFrame() {
	// Gate closings run before onsets so a repeated pitch retriggers
	// instead of being cut down by its predecessor's note-off.
	fired := false
	for i := range r.noteOffs {
		if !r.noteOffs[i].fired && r.noteOffs[i].frame <= r.frame {
			r.inst.NoteOff(r.noteOffs[i].key, true)
			r.noteOffs[i].fired = true
			fired = true
		}
	}
	if fired {
		r.compactNoteOffs()
	}
	for r.next < len(r.notes) && r.notes[r.next].Frame <= r.frame {
		n := r.notes[r.next]
		r.inst.NoteOn(n.Key, n.Velocity)
		r.scheduleNoteOff(noteOff{frame: n.Frame + n.Frames, key: n.Key})
		r.next++
	}
	if r.next >= len(r.notes) && len(r.noteOffs) == 0 {
		r.exhausted = true
	}
}

func (r *Runner) scheduleNoteOff(off noteOff) {
	r.noteOffs = append(r.noteOffs, off)
	// Onsets arrive in frame order, so the queue is nearly sorted; a
	// backward insertion keeps it ordered without sort.Slice overhead.
	for i := len(r.noteOffs) - 1; i > 0 && r.noteOffs[i].frame < r.noteOffs[i-1].frame; i-- {
		r.noteOffs[i], r.noteOffs[i-1] = r.noteOffs[i-1], r.noteOffs[i]
	}
}

func (r *Runner) compactNoteOffs() {
	j := 0
	for i := range r.noteOffs {
		if !r.noteOffs[i].fired {
			r.noteOffs[j] = r.noteOffs[i]
			j++
		}
	}
	r.noteOffs = r.noteOffs[:j]
}

func (r *Runner) checkEnd() {
	if !r.exhausted {
		return
	}
	if r.inst.ActiveVoiceCount() > 0 {
		return
	}
	if r.tailLeft > 0 {
		r.tailLeft--
		return
	}
	if r.loop {
		r.rewind()
		r.emit(EventLoopCompleted)
		return
	}
	if !r.finished {
		r.finished = true
		r.emit(EventPlaybackEnded)
	}
}

func (r *Runner) rewind() {
	r.frame = 0
	r.next = 0
	r.noteOffs = r.noteOffs[:0]
	r.exhausted = false
	r.tailLeft = r.tailFrames
}

func (r *Runner) emit(ev EventKind) {
	if r.onEvent != nil {
		r.onEvent(ev)
	}
}
