package audio

import (
	"encoding/binary"
	"math"
)

// Buffer accumulates normalized audio samples from incoming PCM chunks and
// hands them out in fixed durations. It is logically a queue of immutable
// chunks; a chunk is split only when a consume boundary lands inside it.
//
// A Buffer is owned by exactly one connection and is not safe for concurrent
// use.
type Buffer struct {
	sampleRate   int
	chunks       [][]float32
	totalSamples int
}

// NewBuffer creates an empty buffer for the given sample rate.
func NewBuffer(sampleRate int) *Buffer {
	return &Buffer{sampleRate: sampleRate}
}

// AddChunk decodes little-endian 16-bit PCM, scales to [-1, 1], and appends
// the result as one chunk. A trailing odd byte is ignored.
func (b *Buffer) AddChunk(pcm []byte) {
	n := len(pcm) / 2
	if n == 0 {
		return
	}
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(pcm[2*i:]))
		samples[i] = float32(v) / 32768.0
	}
	b.chunks = append(b.chunks, samples)
	b.totalSamples += n
}

// Peek returns exactly duration seconds of samples, oldest first, without
// removing them. ok is false when the buffer holds less than the requested
// duration; that is a normal polling outcome, not an error.
func (b *Buffer) Peek(duration float64) ([]float32, bool) {
	required := b.requiredSamples(duration)
	if b.totalSamples < required {
		return nil, false
	}
	out := make([]float32, 0, required)
	for _, chunk := range b.chunks {
		remaining := required - len(out)
		if remaining <= 0 {
			break
		}
		if len(chunk) <= remaining {
			out = append(out, chunk...)
		} else {
			out = append(out, chunk[:remaining]...)
		}
	}
	return out, true
}

// Consume returns exactly duration seconds of samples and removes them from
// the head of the buffer, splitting the oldest chunk if the boundary lands
// inside it. ok is false when the buffer holds less than requested; nothing
// is removed in that case.
func (b *Buffer) Consume(duration float64) ([]float32, bool) {
	out, ok := b.Peek(duration)
	if !ok {
		return nil, false
	}

	toRemove := len(out)
	for toRemove > 0 && len(b.chunks) > 0 {
		head := b.chunks[0]
		if len(head) <= toRemove {
			b.chunks = b.chunks[1:]
			toRemove -= len(head)
			b.totalSamples -= len(head)
		} else {
			b.chunks[0] = head[toRemove:]
			b.totalSamples -= toRemove
			toRemove = 0
		}
	}
	return out, true
}

// DurationSeconds returns how much audio the buffer currently holds.
func (b *Buffer) DurationSeconds() float64 {
	return float64(b.totalSamples) / float64(b.sampleRate)
}

// TotalSamples returns the number of buffered samples.
func (b *Buffer) TotalSamples() int {
	return b.totalSamples
}

// Reset discards all buffered audio.
func (b *Buffer) Reset() {
	b.chunks = nil
	b.totalSamples = 0
}

func (b *Buffer) requiredSamples(duration float64) int {
	return int(math.Round(duration * float64(b.sampleRate)))
}
