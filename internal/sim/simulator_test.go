package sim

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donfreerk/shock-tester-sub001/internal/canproto"
	"github.com/donfreerk/shock-tester-sub001/pkg/models"
)

func TestGenerateSweepsFrequencyDown(t *testing.T) {
	s := New(DefaultConfig())

	begin := s.Generate(0, 30.0)
	mid := s.Generate(15.0, 30.0)
	end := s.Generate(29.9, 30.0)

	assert.InDelta(t, 25.0, begin.Frequency, 0.01)
	assert.InDelta(t, 15.5, mid.Frequency, 0.01)
	assert.Less(t, end.Frequency, 6.2)
	assert.Greater(t, begin.Frequency, mid.Frequency)
	assert.Greater(t, mid.Frequency, end.Frequency)
}

func TestGeneratePhaseTracksQuality(t *testing.T) {
	s := New(DefaultConfig())

	// At the resonance frequency the phase sits just above MinPhase.
	require.NoError(t, s.SetDampingQuality(QualityPoor))
	poor := s.Generate(19.8, 30.0) // sweep is near 12.5 Hz here
	require.NoError(t, s.SetDampingQuality(QualityExcellent))
	excellent := s.Generate(19.8, 30.0)

	assert.Less(t, poor.PhaseShift, excellent.PhaseShift)
	assert.GreaterOrEqual(t, poor.PhaseShift, 18.0)
	assert.GreaterOrEqual(t, excellent.PhaseShift, 48.0)
}

func TestSetDampingQualityRejectsUnknown(t *testing.T) {
	s := New(DefaultConfig())
	assert.Error(t, s.SetDampingQuality("wobbly"))
	assert.NoError(t, s.SetDampingQuality(QualityAcceptable))
}

func TestStartValidation(t *testing.T) {
	s := New(DefaultConfig())
	assert.Error(t, s.Start("sideways", 10))
	assert.Error(t, s.Start("left", 0))
}

func TestRunDeliversRecords(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 200.0
	s := New(cfg)

	var mu sync.Mutex
	var records []models.SampleRecord
	s.OnData = func(side string, rec models.SampleRecord) {
		mu.Lock()
		records = append(records, rec)
		mu.Unlock()
	}

	require.NoError(t, s.Start("left", 10.0))
	time.Sleep(300 * time.Millisecond)
	s.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, records)
	first := records[0]
	require.NotNil(t, first.TireForce)
	require.NotNil(t, first.Frequency)
	assert.InDelta(t, 25.0, *first.Frequency, 1.0)
	assert.False(t, s.IsActive())
}

func TestRunCompletes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 200.0
	s := New(cfg)

	done := make(chan string, 1)
	s.OnComplete = func(side string) { done <- side }

	require.NoError(t, s.Start("right", 0.1))

	select {
	case side := <-done:
		assert.Equal(t, "right", side)
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not complete")
	}
	assert.False(t, s.IsActive())
}

func TestPointFrame(t *testing.T) {
	p := Point{
		Frequency:        12.0,
		PlatformPosition: 2.5,
		TireForce:        600.0,
		PhaseShift:       40.0,
	}

	f := p.Frame("right")
	d, err := canproto.ParseRawData(f)
	require.NoError(t, err)

	assert.Equal(t, "front_right", d.Position)
	assert.Equal(t, uint16(762), d.PlatformPosition)
	assert.Equal(t, uint16(600), d.TireForce)
	assert.Equal(t, uint8(12), d.Frequency)
	assert.InDelta(t, 40.0, d.PhaseShift, 0.2)
}
