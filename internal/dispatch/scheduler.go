// Package dispatch coalesces state actions produced within one rendering
// tick into a single flush, so the state store sees one update per frame
// instead of one update per network packet.
package dispatch

import "time"

// DefaultFrameInterval approximates one rendering frame (~60 fps). Used when
// no UI frame scheduler is driving the dispatcher, e.g. one-shot CLI runs and
// tests, so behavior stays identical in non-interactive environments.
const DefaultFrameInterval = 16 * time.Millisecond

// Scheduler schedules a flush callback for the next rendering tick. The
// dispatcher guarantees at most one outstanding Schedule call at a time.
type Scheduler interface {
	Schedule(flush func())
}

// TimerScheduler fires the flush after a fixed interval. It is the fallback
// path for environments without a frame-driven UI loop.
type TimerScheduler struct {
	Interval time.Duration
}

// NewTimerScheduler creates a timer scheduler with the default frame interval.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{Interval: DefaultFrameInterval}
}

// Schedule fires flush once after the configured interval.
func (s *TimerScheduler) Schedule(flush func()) {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	time.AfterFunc(interval, flush)
}

// FrameScheduler delegates to an externally driven frame loop, e.g. a TUI
// program that wants flushes aligned with its own render ticks.
type FrameScheduler struct {
	// OnFrame must arrange for fn to run on the next frame.
	OnFrame func(fn func())
}

// Schedule hands the flush to the frame loop.
func (s *FrameScheduler) Schedule(flush func()) {
	s.OnFrame(flush)
}
