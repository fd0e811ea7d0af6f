package audio

import "github.com/gopxl/beep/v2"

// Streamer adapts a SampleSource to beep's Streamer interface, duplicating
// the mono signal to both channels. A FinishingSource drains normally and
// then reports the end of the stream.
type Streamer struct {
	source SampleSource
	buf    []float32
}

var _ beep.Streamer = (*Streamer)(nil)

func NewStreamer(source SampleSource) *Streamer {
	return &Streamer{source: source}
}

func (s *Streamer) Stream(samples [][2]float64) (int, bool) {
	if fs, ok := s.source.(FinishingSource); ok && fs.Finished() {
		return 0, false
	}
	if cap(s.buf) < len(samples) {
		s.buf = make([]float32, len(samples))
	}
	s.buf = s.buf[:len(samples)]
	s.source.Process(s.buf)
	for i, v := range s.buf {
		f := float64(v)
		samples[i][0] = f
		samples[i][1] = f
	}
	return len(samples), true
}

// Err implements beep.Streamer. The source has no error channel, so it is
// always nil.
func (s *Streamer) Err() error { return nil }
