package addsynth

import (
	"encoding/binary"
	"fmt"
	"math"

	intadd "github.com/cbegin/addsynth-go/internal/additive"
	intseq "github.com/cbegin/addsynth-go/internal/sequence"
)

// RenderNotes renders notation offline through the default Saw preset and
// returns mono float32 samples. With seconds > 0 the output length is fixed;
// otherwise rendering runs until the sequence and every release tail finish.
func RenderNotes(notation string, sampleRate int, seconds float64) ([]float32, error) {
	return RenderNotesPreset(notation, PresetSaw, sampleRate, seconds)
}

// RenderNotesPreset is RenderNotes with a chosen spectrum preset.
func RenderNotesPreset(notation, preset string, sampleRate int, seconds float64) ([]float32, error) {
	seq, err := intseq.ParseNotes(notation, intseq.DefaultParserConfig(sampleRate))
	if err != nil {
		return nil, err
	}
	return renderSequence(seq, preset, sampleRate, seconds)
}

// RenderSMF renders a Standard MIDI File offline through the default Saw
// preset and returns mono float32 samples.
func RenderSMF(data []byte, sampleRate int, seconds float64) ([]float32, error) {
	return RenderSMFPreset(data, PresetSaw, sampleRate, seconds)
}

// RenderSMFPreset is RenderSMF with a chosen spectrum preset.
func RenderSMFPreset(data []byte, preset string, sampleRate int, seconds float64) ([]float32, error) {
	seq, err := intseq.LoadSMF(data, sampleRate)
	if err != nil {
		return nil, err
	}
	return renderSequence(seq, preset, sampleRate, seconds)
}

func renderSequence(seq intseq.Sequence, preset string, sampleRate int, seconds float64) ([]float32, error) {
	engine, err := intadd.New(sampleRate, intadd.DefaultParams())
	if err != nil {
		return nil, err
	}
	if !knownPreset(preset) {
		return nil, fmt.Errorf("unknown preset %q", preset)
	}
	engine.LoadPreset(preset)
	runner := intseq.NewWithOptions(seq, engine, sampleRate, intseq.Options{})
	if seconds > 0 {
		out := make([]float32, int(float64(sampleRate)*seconds))
		runner.Process(out)
		return out, nil
	}
	var out []float32
	block := make([]float32, 512)
	for !runner.Finished() {
		runner.Process(block)
		out = append(out, block...)
	}
	return out, nil
}

func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
