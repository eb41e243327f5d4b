package session

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donfreerk/shock-tester-sub001/internal/workers"
	"github.com/donfreerk/shock-tester-sub001/pkg/models"
)

// manualSubmitter records submissions and lets the test decide when each
// callback fires.
type manualSubmitter struct {
	mu      sync.Mutex
	pending []pendingJob
}

type pendingJob struct {
	task     func() models.EvaluationResult
	callback func(models.EvaluationResult)
}

func (m *manualSubmitter) Submit(task func() models.EvaluationResult, callback func(models.EvaluationResult)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, pendingJob{task: task, callback: callback})
}

func (m *manualSubmitter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *manualSubmitter) runAll() {
	m.mu.Lock()
	jobs := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, j := range jobs {
		j.callback(j.task())
	}
}

// deliver invokes the callback of job i with an arbitrary result,
// standing in for a worker that finished late.
func (m *manualSubmitter) deliver(i int, res models.EvaluationResult) {
	m.mu.Lock()
	j := m.pending[i]
	m.mu.Unlock()
	j.callback(res)
}

func ptr(v float64) *float64 { return &v }

func record(t, pos, force float64) models.SampleRecord {
	return models.SampleRecord{
		Timestamp:        ptr(t),
		PlatformPosition: ptr(pos),
		TireForce:        ptr(force),
	}
}

func feedSine(t *testing.T, s *TestSession, n int, freq float64) {
	t.Helper()
	omega := 2 * math.Pi * freq
	period := 1.0 / freq
	lag := period/4 + 140.0/360.0*period // force minimum 140 deg after the platform top
	for i := 0; i < n; i++ {
		tt := float64(i) / 1000.0
		rec := record(tt, 3.0*math.Sin(omega*tt), 512.0-100.0*math.Cos(omega*(tt-lag)))
		require.NoError(t, s.AddData(rec))
	}
}

func TestAddDataRequiresActiveTest(t *testing.T) {
	s := New(DefaultConfig(), &manualSubmitter{}, nil)

	err := s.AddData(record(0, 1, 500))
	assert.Error(t, err)

	s.StartTest("front_left", "M1")
	assert.NoError(t, s.AddData(record(0, 1, 500)))
	assert.Equal(t, uint64(1), s.GetDataCount())
	assert.True(t, s.IsTestActive())
}

func TestAddDataRejectsNonFiniteValues(t *testing.T) {
	s := New(DefaultConfig(), &manualSubmitter{}, nil)
	s.StartTest("front_left", "M1")

	bad := record(0, 1, 500)
	bad.TireForce = ptr(math.NaN())
	assert.Error(t, s.AddData(bad))

	bad = record(0, 1, 500)
	bad.PlatformPosition = ptr(math.Inf(1))
	assert.Error(t, s.AddData(bad))

	assert.Equal(t, uint64(0), s.GetDataCount())
}

func TestPeriodicEvaluationEveryInterval(t *testing.T) {
	sub := &manualSubmitter{}
	s := New(DefaultConfig(), sub, nil)
	s.StartTest("front_left", "M1")

	for i := 0; i < 49; i++ {
		require.NoError(t, s.AddData(record(float64(i)/1000.0, 1, 500)))
	}
	assert.Equal(t, 0, sub.count(), "no evaluation before the 50th sample")

	require.NoError(t, s.AddData(record(0.049, 1, 500)))
	assert.Equal(t, 1, sub.count(), "exactly one evaluation at the 50th sample")

	for i := 50; i < 100; i++ {
		require.NoError(t, s.AddData(record(float64(i)/1000.0, 1, 500)))
	}
	assert.Equal(t, 2, sub.count())
}

func TestEvaluationUpdatesStatus(t *testing.T) {
	sub := &manualSubmitter{}
	s := New(DefaultConfig(), sub, nil)
	s.StartTest("front_left", "M1")

	feedSine(t, s, 1000, 12.0)
	require.Greater(t, sub.count(), 0)
	sub.runAll()

	status := s.GetEGEAStatus()
	require.NotNil(t, status.MinPhaseShift)
	assert.InDelta(t, 12.0, *status.MinPhaseFreq, 0.5)
}

func TestStaleResultDiscarded(t *testing.T) {
	sub := &manualSubmitter{}
	s := New(DefaultConfig(), sub, nil)

	s.StartTest("front_left", "M1")
	for i := 0; i < 50; i++ {
		require.NoError(t, s.AddData(record(float64(i)/1000.0, 1, 500)))
	}
	require.Equal(t, 1, sub.count())

	// A second test starts before the first evaluation returns.
	s.StartTest("front_right", "M1")

	phase := 42.0
	sub.deliver(0, models.EvaluationResult{
		Success: true,
		Status: &models.EGEAStatus{
			MinPhaseShift: &phase,
			Passing:       true,
			Evaluation:    models.EvaluationPassing,
		},
	})

	status := s.GetEGEAStatus()
	assert.Nil(t, status.MinPhaseShift, "stale result must not overwrite the new session")
	assert.Equal(t, models.EvaluationStarting, status.Evaluation)
}

func TestClearInvalidatesInFlightResults(t *testing.T) {
	sub := &manualSubmitter{}
	s := New(DefaultConfig(), sub, nil)

	s.StartTest("front_left", "M1")
	for i := 0; i < 50; i++ {
		require.NoError(t, s.AddData(record(float64(i)/1000.0, 1, 500)))
	}
	require.Equal(t, 1, sub.count())

	s.Clear()
	phase := 42.0
	sub.deliver(0, models.EvaluationResult{
		Success: true,
		Status:  &models.EGEAStatus{MinPhaseShift: &phase, Evaluation: models.EvaluationPassing},
	})

	assert.Nil(t, s.GetEGEAStatus().MinPhaseShift)
	assert.Equal(t, uint64(0), s.GetDataCount())
	assert.Equal(t, 0, s.GetData(0).Len())
}

func TestFailedEvaluationKeepsPreviousStatus(t *testing.T) {
	sub := &manualSubmitter{}
	s := New(DefaultConfig(), sub, nil)
	s.StartTest("front_left", "M1")

	for i := 0; i < 50; i++ {
		require.NoError(t, s.AddData(record(float64(i)/1000.0, 1, 500)))
	}
	require.Equal(t, 1, sub.count())

	sub.deliver(0, models.EvaluationResult{Success: false, Err: "insufficient data"})

	assert.Equal(t, models.EvaluationStarting, s.GetEGEAStatus().Evaluation)
}

func TestStopTestSchedulesFinalEvaluation(t *testing.T) {
	sub := &manualSubmitter{}
	s := New(DefaultConfig(), sub, nil)
	s.StartTest("front_left", "M1")

	feedSine(t, s, 1000, 12.0)
	before := sub.count()
	s.StopTest()

	assert.False(t, s.IsTestActive())
	assert.Equal(t, before+1, sub.count(), "final evaluation scheduled on stop")

	// The final result still applies: StopTest does not bump the generation.
	sub.runAll()
	assert.NotNil(t, s.GetEGEAStatus().MinPhaseShift)
}

func TestStopTestWithoutEnoughSamples(t *testing.T) {
	sub := &manualSubmitter{}
	s := New(DefaultConfig(), sub, nil)
	s.StartTest("front_left", "M1")

	for i := 0; i < 30; i++ {
		require.NoError(t, s.AddData(record(float64(i)/1000.0, 1, 500)))
	}
	s.StopTest()

	assert.Equal(t, 0, sub.count())
}

func TestStaticWeightFollowsRecords(t *testing.T) {
	s := New(DefaultConfig(), &manualSubmitter{}, nil)
	s.StartTest("front_left", "M1")

	assert.Equal(t, 512.0, s.StaticWeight())

	rec := record(0, 1, 500)
	rec.StaticWeight = ptr(480.0)
	require.NoError(t, s.AddData(rec))
	assert.Equal(t, 480.0, s.StaticWeight())

	// A new test falls back to the default.
	s.StartTest("front_right", "M1")
	assert.Equal(t, 512.0, s.StaticWeight())
}

func TestOnStatusNotified(t *testing.T) {
	sub := &manualSubmitter{}
	s := New(DefaultConfig(), sub, nil)

	var mu sync.Mutex
	var seen []models.Evaluation
	s.OnStatus = func(st models.EGEAStatus) {
		mu.Lock()
		seen = append(seen, st.Evaluation)
		mu.Unlock()
	}

	s.StartTest("front_left", "M1")
	feedSine(t, s, 1000, 12.0)
	sub.runAll()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, models.EvaluationStarting, seen[0])
	assert.Contains(t, seen, models.EvaluationPassing)
}

func TestLiveDataSnapshot(t *testing.T) {
	s := New(DefaultConfig(), &manualSubmitter{}, nil)
	s.StartTest("front_left", "M1")
	feedSine(t, s, 2000, 12.0)

	live := s.LiveData(500)
	assert.LessOrEqual(t, live.Len(), 500)
	assert.True(t, live.TestActive)
	assert.Equal(t, "front_left", live.Position)
	assert.Equal(t, "M1", live.VehicleType)
	assert.NotZero(t, live.Timestamp)
}

func TestSessionWithRealWorkerPool(t *testing.T) {
	pool := workers.NewPool(2, 32, nil)
	defer pool.Stop()

	s := New(DefaultConfig(), pool, nil)
	s.StartTest("front_left", "M1")
	feedSine(t, s, 1000, 12.0)
	s.StopTest()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.GetEGEAStatus().MinPhaseShift != nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	status := s.GetEGEAStatus()
	require.NotNil(t, status.MinPhaseShift)
	assert.InDelta(t, 12.0, *status.MinPhaseFreq, 0.5)
}
