package frame

import (
	"time"
)

// Report summarizes the frames presented during one stats interval.
type Report struct {
	Frames  int
	Elapsed time.Duration
}

func (r Report) Average() time.Duration {
	if r.Frames == 0 {
		return 0
	}
	return r.Elapsed / time.Duration(r.Frames)
}

func (r Report) FPS() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Frames) / r.Elapsed.Seconds()
}

// Stats counts frames against a monotonic clock reading, as returned by
// hrtime.Now.
type Stats struct {
	interval time.Duration
	started  bool
	start    time.Duration
	frames   int
	total    int
}

func NewStats(interval time.Duration) *Stats {
	return &Stats{interval: interval}
}

// Observe counts one frame presented at now. Once an interval has passed it
// returns the report for that interval and starts the next one.
func (s *Stats) Observe(now time.Duration) (Report, bool) {
	s.total++
	if !s.started {
		s.started = true
		s.start = now
		return Report{}, false
	}

	s.frames++
	elapsed := now - s.start
	if s.interval <= 0 || elapsed < s.interval {
		return Report{}, false
	}

	report := Report{Frames: s.frames, Elapsed: elapsed}
	s.start = now
	s.frames = 0
	return report, true
}

// Total is the number of frames observed since creation.
func (s *Stats) Total() int {
	return s.total
}
