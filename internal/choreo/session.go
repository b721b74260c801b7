package choreo

import (
	"sync"
	"time"

	"github.com/voicearena/server/internal/audio"
)

const (
	// CaptureDuration is the full recording window armed on start.
	CaptureDuration = 30 * time.Second

	// MinFinishElapsed is the least recording time an early finish accepts.
	MinFinishElapsed = 3 * time.Second

	// Progress events go out roughly this often while recording.
	progressInterval = 5 * time.Second
)

// Session is one choreography capture: a timed accumulation of raw audio,
// consumed exactly once. The deferred capture timer and an early finish race
// for the same audio; the take guard makes whichever loses a no-op.
type Session struct {
	mu           sync.Mutex
	startedAt    time.Time
	buffer       *audio.Buffer
	active       bool
	timer        *time.Timer
	lastProgress time.Time
}

// NewSession starts a capture and arms the one-shot expiry callback for the
// full capture window. onExpire runs on the timer goroutine; it must call
// Take itself and tolerate losing the race with an early finish or cancel.
func NewSession(sampleRate int, onExpire func()) *Session {
	s := &Session{
		startedAt: time.Now(),
		buffer:    audio.NewBuffer(sampleRate),
		active:    true,
	}
	s.timer = time.AfterFunc(CaptureDuration, onExpire)
	return s
}

// AddChunk appends raw PCM to the capture and reports elapsed/remaining
// seconds. progress is true when a progress event is due (about every five
// seconds). Chunks arriving after the session ended are dropped.
func (s *Session) AddChunk(pcm []byte) (elapsed, remaining float64, progress bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return 0, 0, false
	}
	s.buffer.AddChunk(pcm)

	now := time.Now()
	elapsedDur := now.Sub(s.startedAt)
	elapsed = elapsedDur.Seconds()
	remaining = (CaptureDuration - elapsedDur).Seconds()
	if remaining < 0 {
		remaining = 0
	}

	if elapsedDur >= progressInterval && now.Sub(s.lastProgress) >= progressInterval {
		s.lastProgress = now
		progress = true
	}
	return elapsed, remaining, progress
}

// Elapsed returns how long the capture has been running.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.startedAt)
}

// Active reports whether the capture is still accepting audio.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Take claims the captured audio for processing. Only the first caller
// succeeds; the session is deactivated and the expiry timer stopped, so a
// late timer callback or duplicate finish does nothing.
func (s *Session) Take() ([]float32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return nil, false
	}
	s.active = false
	s.timer.Stop()

	if s.buffer.TotalSamples() == 0 {
		return nil, false
	}
	samples, _ := s.buffer.Peek(s.buffer.DurationSeconds())
	return samples, true
}

// Cancel discards the capture unconditionally.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	s.timer.Stop()
	s.buffer.Reset()
}
