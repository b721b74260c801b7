package choreo

import (
	"encoding/binary"
	"sync/atomic"
	"testing"
	"time"
)

func pcm(n int) []byte {
	out := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(2000)))
	}
	return out
}

func TestSessionTakeIsSingleShot(t *testing.T) {
	s := NewSession(16000, func() {})
	defer s.Cancel()
	s.AddChunk(pcm(1600))

	samples, ok := s.Take()
	if !ok {
		t.Fatal("First take should succeed")
	}
	if len(samples) != 1600 {
		t.Errorf("Expected 1600 samples, got %d", len(samples))
	}

	if _, ok := s.Take(); ok {
		t.Error("Second take must fail: processing is single-shot")
	}
	if s.Active() {
		t.Error("Session should be inactive after take")
	}
}

func TestSessionTakeAfterCancel(t *testing.T) {
	s := NewSession(16000, func() {})
	s.AddChunk(pcm(1600))
	s.Cancel()

	if _, ok := s.Take(); ok {
		t.Error("Take after cancel must fail so a late timer is a no-op")
	}
}

func TestSessionDropsChunksAfterEnd(t *testing.T) {
	s := NewSession(16000, func() {})
	s.AddChunk(pcm(1600))
	s.Take()

	elapsed, _, _ := s.AddChunk(pcm(1600))
	if elapsed != 0 {
		t.Error("Chunks after take should be dropped")
	}
}

func TestSessionEmptyCaptureTakeFails(t *testing.T) {
	s := NewSession(16000, func() {})
	defer s.Cancel()

	if _, ok := s.Take(); ok {
		t.Error("Take with no captured audio should fail")
	}
}

func TestSessionExpiryCallbackLosesRaceAfterTake(t *testing.T) {
	var fired atomic.Bool
	s := NewSession(16000, func() { fired.Store(true) })
	s.AddChunk(pcm(1600))
	s.Take()

	// The timer was stopped by Take; give a stray callback time to fire.
	time.Sleep(20 * time.Millisecond)
	if fired.Load() {
		t.Error("Expiry callback should not fire after an early take")
	}
}
