package audio

import (
	"encoding/binary"
	"io"
	"math"
	"testing"
)

// rampSource counts upward so frame boundaries are easy to check.
type rampSource struct {
	next     float32
	finished bool
}

func (r *rampSource) Process(dst []float32) {
	for i := range dst {
		dst[i] = r.next
		r.next++
	}
}

func (r *rampSource) Finished() bool { return r.finished }

func TestStreamReaderDuplicatesMonoToStereo(t *testing.T) {
	r := NewStreamReader(&rampSource{})
	p := make([]byte, 4*8)
	n, err := r.Read(p)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(p) {
		t.Fatalf("read %d bytes, want %d", n, len(p))
	}
	for frame := 0; frame < 4; frame++ {
		left := math.Float32frombits(binary.LittleEndian.Uint32(p[frame*8:]))
		right := math.Float32frombits(binary.LittleEndian.Uint32(p[frame*8+4:]))
		if left != float32(frame) || right != float32(frame) {
			t.Fatalf("frame %d = (%v, %v), want (%d, %d)", frame, left, right, frame, frame)
		}
	}
}

func TestStreamReaderShortBuffer(t *testing.T) {
	r := NewStreamReader(&rampSource{})
	n, err := r.Read(make([]byte, 7))
	if n != 0 || err != nil {
		t.Fatalf("Read = (%d, %v), want (0, nil)", n, err)
	}
}

func TestStreamReaderSignalsEOF(t *testing.T) {
	src := &rampSource{finished: true}
	r := NewStreamReader(src)
	n, err := r.Read(make([]byte, 16))
	if err != io.EOF {
		t.Fatalf("err = %v, want io.EOF", err)
	}
	// The final block is still delivered alongside EOF.
	if n != 16 {
		t.Fatalf("read %d bytes, want 16", n)
	}
}

func TestStreamerDuplicatesChannels(t *testing.T) {
	s := NewStreamer(&rampSource{})
	samples := make([][2]float64, 8)
	n, ok := s.Stream(samples)
	if !ok || n != len(samples) {
		t.Fatalf("Stream = (%d, %v), want (%d, true)", n, ok, len(samples))
	}
	for i, frame := range samples {
		want := float64(i)
		if frame[0] != want || frame[1] != want {
			t.Fatalf("frame %d = %v, want both %v", i, frame, want)
		}
	}
	if s.Err() != nil {
		t.Fatalf("Err = %v, want nil", s.Err())
	}
}

func TestStreamerEndsWithFinishedSource(t *testing.T) {
	s := NewStreamer(&rampSource{finished: true})
	n, ok := s.Stream(make([][2]float64, 8))
	if ok || n != 0 {
		t.Fatalf("Stream = (%d, %v), want (0, false)", n, ok)
	}
}
