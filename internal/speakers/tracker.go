package speakers

import "time"

// Duration reported on the very first window of a new speech run.
const initialSpeechDuration = 0.1

// Cap keeps the reported range tight enough to drive a UI meter.
const maxSpeechDuration = 1.5

// Tracker measures continuous-speech duration per speaker for one
// connection. While a speaker's volume stays above zero the duration grows
// from a small epoch value up to the cap; the instant volume hits zero the
// run resets with no grace period.
//
// A Tracker is owned by one connection and is not safe for concurrent use.
type Tracker struct {
	startedAt  map[string]time.Time
	lastActive map[string]time.Time
	now        func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		startedAt:  make(map[string]time.Time),
		lastActive: make(map[string]time.Time),
		now:        time.Now,
	}
}

// Observe records one window's speaking state for the speaker and returns the
// continuous-speech duration to report.
func (t *Tracker) Observe(speaker string, speaking bool) float64 {
	now := t.now()

	if !speaking {
		delete(t.startedAt, speaker)
		return 0
	}

	start, open := t.startedAt[speaker]
	if !open {
		t.startedAt[speaker] = now
		t.lastActive[speaker] = now
		return initialSpeechDuration
	}

	t.lastActive[speaker] = now
	duration := now.Sub(start).Seconds()
	if duration > maxSpeechDuration {
		return maxSpeechDuration
	}
	return duration
}

// Reset clears all speech runs.
func (t *Tracker) Reset() {
	t.startedAt = make(map[string]time.Time)
	t.lastActive = make(map[string]time.Time)
}
