// Package sim generates EGEA-conformant test data for running the
// service without bench hardware. The sweep and damping model mirror
// the behaviour of a real excitation cabinet.
package sim

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/donfreerk/shock-tester-sub001/internal/canproto"
	"github.com/donfreerk/shock-tester-sub001/pkg/models"
)

// DampingParameters describe one simulated damper quality.
type DampingParameters struct {
	ResonanceFreq float64 // Hz
	MinPhase      float64 // degrees
	DampingRatio  float64
	Rigidity      float64 // N/mm
}

// Damping quality presets.
const (
	QualityExcellent  = "excellent"
	QualityGood       = "good"
	QualityAcceptable = "acceptable"
	QualityPoor       = "poor"
)

// DefaultDampingParams are the per-quality presets of the simulator.
func DefaultDampingParams() map[string]DampingParameters {
	return map[string]DampingParameters{
		QualityExcellent:  {ResonanceFreq: 12.5, MinPhase: 48.0, DampingRatio: 0.30, Rigidity: 280.0},
		QualityGood:       {ResonanceFreq: 11.8, MinPhase: 38.0, DampingRatio: 0.25, Rigidity: 250.0},
		QualityAcceptable: {ResonanceFreq: 10.2, MinPhase: 28.0, DampingRatio: 0.20, Rigidity: 200.0},
		QualityPoor:       {ResonanceFreq: 8.5, MinPhase: 18.0, DampingRatio: 0.15, Rigidity: 150.0},
	}
}

// Config holds the sweep parameters.
type Config struct {
	FreqStart         float64 // Hz, sweep begin
	FreqEnd           float64 // Hz, sweep end
	PlatformAmplitude float64 // mm
	SampleRate        float64 // samples per second
	StaticWeight      float64 // AD midpoint of the 10-bit range
}

// DefaultConfig returns the sweep used by the excitation cabinet.
func DefaultConfig() Config {
	return Config{
		FreqStart:         25.0,
		FreqEnd:           6.0,
		PlatformAmplitude: 3.0,
		SampleRate:        1000.0,
		StaticWeight:      512.0,
	}
}

// Point is one generated observation.
type Point struct {
	Elapsed          float64
	Frequency        float64
	PlatformPosition float64
	TireForce        float64
	PhaseShift       float64
}

// Simulator produces a frequency sweep with a quality-dependent phase
// response. Data is delivered through the OnData callback from the
// simulator's own goroutine.
type Simulator struct {
	config Config
	params map[string]DampingParameters

	mu       sync.Mutex
	quality  string
	active   bool
	side     string
	duration float64
	stopCh   chan struct{}
	wg       sync.WaitGroup

	// OnData receives every generated record. OnComplete fires when the
	// sweep duration elapses. Set both before Start.
	OnData     func(side string, rec models.SampleRecord)
	OnComplete func(side string)
}

// New creates a simulator with the given sweep configuration.
func New(config Config) *Simulator {
	if config.SampleRate <= 0 {
		config.SampleRate = DefaultConfig().SampleRate
	}
	if config.FreqStart <= 0 {
		config.FreqStart = DefaultConfig().FreqStart
	}
	if config.FreqEnd <= 0 {
		config.FreqEnd = DefaultConfig().FreqEnd
	}
	if config.PlatformAmplitude <= 0 {
		config.PlatformAmplitude = DefaultConfig().PlatformAmplitude
	}
	if config.StaticWeight <= 0 {
		config.StaticWeight = DefaultConfig().StaticWeight
	}

	return &Simulator{
		config:  config,
		params:  DefaultDampingParams(),
		quality: QualityGood,
	}
}

// SetDampingQuality selects the simulated damper quality.
func (s *Simulator) SetDampingQuality(quality string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.params[quality]; !ok {
		return fmt.Errorf("unknown damping quality: %s", quality)
	}
	s.quality = quality
	return nil
}

// Start begins a sweep for the given side and duration. A running sweep
// is stopped first.
func (s *Simulator) Start(side string, duration float64) error {
	if side != "left" && side != "right" {
		return fmt.Errorf("invalid side: %s", side)
	}
	if duration <= 0 {
		return fmt.Errorf("duration must be positive: %v", duration)
	}

	s.Stop()

	s.mu.Lock()
	s.active = true
	s.side = side
	s.duration = duration
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(side, duration, stopCh)

	return nil
}

// Stop ends a running sweep and waits for the generator goroutine.
func (s *Simulator) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
}

// IsActive reports whether a sweep is running.
func (s *Simulator) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Simulator) run(side string, duration float64, stopCh chan struct{}) {
	defer s.wg.Done()

	interval := time.Duration(float64(time.Second) / s.config.SampleRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-stopCh:
			return
		case now := <-ticker.C:
			elapsed := now.Sub(start).Seconds()
			if elapsed >= duration {
				s.mu.Lock()
				s.active = false
				s.mu.Unlock()
				if s.OnComplete != nil {
					s.OnComplete(side)
				}
				return
			}

			p := s.Generate(elapsed, duration)
			if s.OnData != nil {
				s.OnData(side, p.Record(elapsed))
			}
		}
	}
}

// Generate computes the physics of one observation at the given elapsed
// time of a sweep with the given total duration.
func (s *Simulator) Generate(elapsed, duration float64) Point {
	s.mu.Lock()
	damping := s.params[s.quality]
	s.mu.Unlock()

	// Linear frequency sweep.
	progress := elapsed / duration
	frequency := s.config.FreqStart - progress*(s.config.FreqStart-s.config.FreqEnd)

	// Phase response peaks away from resonance.
	freqFactor := math.Abs(frequency-damping.ResonanceFreq) / 10.0
	phaseShift := damping.MinPhase + 15.0*math.Exp(-2*freqFactor)
	phaseRad := phaseShift * math.Pi / 180.0

	platformPos := s.config.PlatformAmplitude * math.Sin(2*math.Pi*frequency*elapsed)

	forceAmplitude := 100.0 * (1.0 + 0.5*math.Exp(-freqFactor))
	tireForce := s.config.StaticWeight + forceAmplitude*math.Sin(2*math.Pi*frequency*elapsed-phaseRad)

	return Point{
		Elapsed:          elapsed,
		Frequency:        frequency,
		PlatformPosition: platformPos,
		TireForce:        tireForce,
		PhaseShift:       phaseShift,
	}
}

// Record converts the point into a sample record with the given
// timestamp in seconds.
func (p Point) Record(timestamp float64) models.SampleRecord {
	t := timestamp
	platform := p.PlatformPosition
	force := p.TireForce
	freq := p.Frequency
	phase := p.PhaseShift
	weight := 512.0
	return models.SampleRecord{
		Timestamp:        &t,
		PlatformPosition: &platform,
		TireForce:        &force,
		Frequency:        &freq,
		PhaseShift:       &phase,
		StaticWeight:     &weight,
	}
}

// Frame converts the point into the raw-data CAN frame the cabinet
// would emit for the given side.
func (p Point) Frame(side string) canproto.Frame {
	position := "front_left"
	if side == "right" {
		position = "front_right"
	}

	platform := int(512.0 + p.PlatformPosition*100.0)
	force := int(p.TireForce)
	return canproto.RawDataFrame(
		position,
		uint16(clamp(platform, 0, 1023)),
		uint16(clamp(force, 0, 1023)),
		uint8(clamp(int(p.Frequency+0.5), 0, 255)),
		p.PhaseShift,
	)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
