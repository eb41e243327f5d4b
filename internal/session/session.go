// Package session coordinates one suspension test: sample intake, the
// sliding evaluation schedule, and the lifecycle of results produced by
// background workers.
package session

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/donfreerk/shock-tester-sub001/internal/buffer"
	"github.com/donfreerk/shock-tester-sub001/internal/downsample"
	"github.com/donfreerk/shock-tester-sub001/internal/egea"
	"github.com/donfreerk/shock-tester-sub001/internal/logger"
	"github.com/donfreerk/shock-tester-sub001/pkg/models"
)

// Submitter runs evaluation tasks off the acquisition path. The callback
// is invoked from a worker goroutine with the task's result.
type Submitter interface {
	Submit(task func() models.EvaluationResult, callback func(models.EvaluationResult))
}

// Config carries the tunables of a test session.
type Config struct {
	BufferCapacity     int     // ring buffer size in samples
	EvaluationInterval int     // samples between periodic evaluations
	RecentWindow       int     // samples evaluated per periodic run
	DefaultWeight      float64 // static weight fallback in daN
	Params             egea.Parameters
}

// DefaultConfig returns the session tunables used on the test bench.
func DefaultConfig() Config {
	return Config{
		BufferCapacity:     10000,
		EvaluationInterval: 50,
		RecentWindow:       500,
		DefaultWeight:      512.0,
		Params:             egea.DefaultParameters(),
	}
}

// TestSession owns the sample buffer and the evaluation state of one
// wheel test. All methods are safe for concurrent use.
type TestSession struct {
	config   Config
	ring     *buffer.Ring
	pool     *buffer.Pool
	analyzer *egea.Analyzer
	workers  Submitter
	logger   *logger.SystemLogger

	mu           sync.RWMutex
	active       bool
	generation   uint64
	sampleCount  uint64
	position     string
	vehicleType  string
	staticWeight float64
	status       models.EGEAStatus
	startedAt    time.Time

	// OnStatus, when set, receives a copy of every applied status update.
	// Set before the first StartTest; not guarded afterwards.
	OnStatus func(models.EGEAStatus)
}

// New creates a session with its own ring buffer and scratch pool.
func New(config Config, workers Submitter, log *logger.SystemLogger) *TestSession {
	if config.BufferCapacity < 1 {
		config.BufferCapacity = DefaultConfig().BufferCapacity
	}
	if config.EvaluationInterval < 1 {
		config.EvaluationInterval = DefaultConfig().EvaluationInterval
	}
	if config.RecentWindow < 1 {
		config.RecentWindow = DefaultConfig().RecentWindow
	}
	if config.DefaultWeight <= 0 {
		config.DefaultWeight = DefaultConfig().DefaultWeight
	}

	pool := buffer.NewPool(8, config.RecentWindow)

	return &TestSession{
		config:       config,
		ring:         buffer.NewRing(config.BufferCapacity),
		pool:         pool,
		analyzer:     egea.NewAnalyzer(config.Params, pool),
		workers:      workers,
		logger:       log,
		staticWeight: config.DefaultWeight,
		status:       models.EGEAStatus{Evaluation: models.EvaluationUnknown},
	}
}

// StartTest begins a new test, invalidating any evaluation still in
// flight from the previous one.
func (s *TestSession) StartTest(position, vehicleType string) {
	s.mu.Lock()
	s.generation++
	s.active = true
	s.sampleCount = 0
	s.position = position
	s.vehicleType = vehicleType
	s.staticWeight = s.config.DefaultWeight
	s.startedAt = time.Now()
	s.status = models.EGEAStatus{Evaluation: models.EvaluationStarting}
	s.ring.Clear()
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.LogTestStarted(position, vehicleType)
	}
	s.notify()
}

// StopTest ends the test and schedules a final evaluation over the full
// recorded window when enough samples were collected.
func (s *TestSession) StopTest() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	count := int(s.sampleCount)
	gen := s.generation
	weight := s.staticWeight
	s.mu.Unlock()

	if count >= s.config.Params.MinDataPoints {
		data := s.ring.GetData(0)
		s.submitEvaluation(data, weight, gen)
	}

	if s.logger != nil {
		s.mu.RLock()
		evaluation := string(s.status.Evaluation)
		position := s.position
		s.mu.RUnlock()
		s.logger.LogTestCompleted(position, count, evaluation)
	}
}

// AddData validates and stores one sample. Every EvaluationInterval
// samples it schedules an evaluation of the most recent RecentWindow
// samples on the worker pool.
func (s *TestSession) AddData(rec models.SampleRecord) error {
	if err := validateRecord(rec); err != nil {
		return err
	}

	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return fmt.Errorf("no active test")
	}
	if rec.StaticWeight != nil && *rec.StaticWeight > 0 {
		s.staticWeight = *rec.StaticWeight
	}
	sample := rec.ToSample(time.Now())
	s.ring.Append(sample)
	s.sampleCount++
	due := s.sampleCount%uint64(s.config.EvaluationInterval) == 0
	gen := s.generation
	weight := s.staticWeight
	s.mu.Unlock()

	if due {
		data := s.ring.GetRecent(s.config.RecentWindow)
		s.submitEvaluation(data, weight, gen)
	}

	return nil
}

// Clear drops all samples and resets the evaluation state without
// starting a new test.
func (s *TestSession) Clear() {
	s.mu.Lock()
	s.generation++
	s.sampleCount = 0
	s.status = models.EGEAStatus{Evaluation: models.EvaluationUnknown}
	s.ring.Clear()
	s.mu.Unlock()
}

// submitEvaluation hands a window to the worker pool. The result is
// applied only when the session generation still matches gen.
func (s *TestSession) submitEvaluation(data models.ChannelArrays, weight float64, gen uint64) {
	if s.workers == nil {
		s.applyResult(s.analyzer.AnalyzeWindow(data, weight), gen)
		return
	}

	s.workers.Submit(
		func() models.EvaluationResult {
			return s.analyzer.AnalyzeWindow(data, weight)
		},
		func(res models.EvaluationResult) {
			s.applyResult(res, gen)
		},
	)
}

func (s *TestSession) applyResult(res models.EvaluationResult, gen uint64) {
	s.mu.Lock()
	if gen != s.generation {
		current := s.generation
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.LogStaleResultDiscarded(gen, current)
		}
		return
	}

	if !res.Success || res.Status == nil {
		// Analysis failures on a partial window are routine early in a
		// test; keep the previous status.
		s.mu.Unlock()
		return
	}

	s.status = res.Status.Clone()
	status := s.status
	s.mu.Unlock()

	if s.OnStatus != nil {
		s.OnStatus(status)
	}
}

func (s *TestSession) notify() {
	if s.OnStatus == nil {
		return
	}
	s.mu.RLock()
	status := s.status
	s.mu.RUnlock()
	s.OnStatus(status)
}

// GetData returns up to maxPoints samples spanning the whole buffer.
// maxPoints <= 0 returns everything.
func (s *TestSession) GetData(maxPoints int) models.ChannelArrays {
	return s.ring.GetData(maxPoints)
}

// GetRecentData returns the newest n samples.
func (s *TestSession) GetRecentData(n int) models.ChannelArrays {
	return s.ring.GetRecent(n)
}

// GetChartData reduces the full buffer to at most target points with
// shape-preserving downsampling of the force channel.
func (s *TestSession) GetChartData(target int) models.ChannelArrays {
	data := s.ring.GetData(0)
	if target <= 0 || data.Len() <= target {
		return data
	}

	idx := downsample.Downsample(data.Time, data.TireForce, target)
	out := models.ChannelArrays{
		Time:             make([]float64, len(idx)),
		PlatformPosition: make([]float64, len(idx)),
		TireForce:        make([]float64, len(idx)),
		Frequency:        make([]float64, len(idx)),
		PhaseShift:       make([]float64, len(idx)),
	}
	for i, j := range idx {
		out.Time[i] = data.Time[j]
		out.PlatformPosition[i] = data.PlatformPosition[j]
		out.TireForce[i] = data.TireForce[j]
		out.Frequency[i] = data.Frequency[j]
		out.PhaseShift[i] = data.PhaseShift[j]
	}
	return out
}

// GetEGEAStatus returns a copy of the latest applied evaluation.
func (s *TestSession) GetEGEAStatus() models.EGEAStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.Clone()
}

// GetDataCount returns the number of samples accepted since StartTest.
func (s *TestSession) GetDataCount() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sampleCount
}

// IsTestActive reports whether a test is running.
func (s *TestSession) IsTestActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetStaticWeight overrides the static wheel weight, e.g. from the
// bench weighing phase. Non-positive values are ignored.
func (s *TestSession) SetStaticWeight(w float64) {
	if w <= 0 {
		return
	}
	s.mu.Lock()
	s.staticWeight = w
	s.mu.Unlock()
}

// StaticWeight returns the static wheel weight used for evaluation.
func (s *TestSession) StaticWeight() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.staticWeight
}

// LiveData assembles a snapshot for streaming consumers, holding at most
// maxPoints chart samples.
func (s *TestSession) LiveData(maxPoints int) models.LiveData {
	s.mu.RLock()
	status := s.status.Clone()
	active := s.active
	position := s.position
	vehicleType := s.vehicleType
	s.mu.RUnlock()

	return models.LiveData{
		ChannelArrays: s.GetChartData(maxPoints),
		EGEAStatus:    status,
		TestActive:    active,
		Position:      position,
		VehicleType:   vehicleType,
		Timestamp:     time.Now().UnixMilli(),
	}
}

func validateRecord(rec models.SampleRecord) error {
	fields := map[string]*float64{
		"timestamp":         rec.Timestamp,
		"platform_position": rec.PlatformPosition,
		"tire_force":        rec.TireForce,
		"frequency":         rec.Frequency,
		"phase_shift":       rec.PhaseShift,
		"static_weight":     rec.StaticWeight,
	}
	for name, v := range fields {
		if v == nil {
			continue
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			return fmt.Errorf("invalid %s value", name)
		}
	}
	return nil
}
