package sequence

import (
	"testing"

	"github.com/cbegin/addsynth-go/internal/additive"
)

func BenchmarkRunnerProcess(b *testing.B) {
	engine, err := additive.New(48000, additive.DefaultParams())
	if err != nil {
		b.Fatal(err)
	}
	seq, err := ParseNotes("t140 l8 c e g >c e g4 < b g e c4", DefaultParserConfig(48000))
	if err != nil {
		b.Fatal(err)
	}
	r := NewWithOptions(seq, engine, 48000, Options{Loop: true})
	buf := make([]float32, 512)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Process(buf)
	}
}
