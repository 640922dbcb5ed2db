package tach

import "time"

// Defaults match a standard 4-pin PC fan.
const (
	DefaultPulsesPerRev   = 2
	DefaultInterval       = 1000 * time.Millisecond
	DefaultSamples        = 5
	DefaultStallThreshold = 30 // duty percent
)

// Config holds the fixed sampler parameters.
type Config struct {
	PulsesPerRev   int
	Interval       time.Duration
	Samples        int
	StallThreshold int
}

// DefaultConfig returns the reference sampler configuration.
func DefaultConfig() Config {
	return Config{
		PulsesPerRev:   DefaultPulsesPerRev,
		Interval:       DefaultInterval,
		Samples:        DefaultSamples,
		StallThreshold: DefaultStallThreshold,
	}
}

// Reading is the result of one sampling period.
type Reading struct {
	Raw      int  // RPM measured over the last period
	Smoothed int  // mean of the history ring
	Stall    bool // commanded above threshold but not turning
}

// Sampler turns the pulse counter into RPM once per interval.
type Sampler struct {
	counter    *PulseCounter
	cfg        Config
	hist       *history
	lastSample time.Time
	reading    Reading
}

// NewSampler creates a sampler reading from counter. The first period is
// measured from start.
func NewSampler(counter *PulseCounter, cfg Config, start time.Time) *Sampler {
	if cfg.PulsesPerRev < 1 {
		cfg.PulsesPerRev = DefaultPulsesPerRev
	}
	if cfg.Interval < time.Millisecond {
		cfg.Interval = DefaultInterval
	}
	return &Sampler{
		counter:    counter,
		cfg:        cfg,
		hist:       newHistory(cfg.Samples),
		lastSample: start,
	}
}

// Sample computes a new reading if at least one interval has elapsed since
// the previous sample. Otherwise it returns the previous reading and false.
// dutyPercent is the currently commanded duty, used for stall detection.
func (s *Sampler) Sample(now time.Time, dutyPercent int) (Reading, bool) {
	dt := now.Sub(s.lastSample)
	if dt < s.cfg.Interval {
		return s.reading, false
	}

	count := int64(s.counter.Swap())
	s.lastSample = now

	dtMs := dt.Milliseconds()
	// exact integer floor of (count/ppr)*(60000/dt); a float rendition can
	// land one below when rounding falls just under an integer
	raw := int(count * 60000 / (int64(s.cfg.PulsesPerRev) * dtMs))

	s.hist.push(raw)
	smoothed := s.hist.mean()

	s.reading = Reading{
		Raw:      raw,
		Smoothed: smoothed,
		Stall:    dutyPercent > s.cfg.StallThreshold && smoothed == 0,
	}
	return s.reading, true
}

// Reading returns the most recent reading without sampling.
func (s *Sampler) Reading() Reading {
	return s.reading
}

// Interval returns the configured sampling interval.
func (s *Sampler) Interval() time.Duration {
	return s.cfg.Interval
}
