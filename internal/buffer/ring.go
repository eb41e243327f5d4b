package buffer

import (
	"sync"

	"github.com/donfreerk/shock-tester-sub001/pkg/models"
)

// RingStats exposes buffer occupancy and traffic counters.
type RingStats struct {
	Capacity     int     `json:"capacity"`
	Size         int     `json:"size"`
	UsagePercent float64 `json:"usage_percent"`
	TotalWrites  int64   `json:"total_writes"`
	TotalReads   int64   `json:"total_reads"`
}

// Ring is a fixed-capacity circular store for the five synchronized
// sample channels. Once full, each append overwrites the oldest slot.
// All operations take the internal mutex only for the duration of the
// write or the copy-out, never across a computation.
type Ring struct {
	capacity int

	timeData     []float64
	platformData []float64
	forceData    []float64
	freqData     []float64
	phaseData    []float64

	writeIndex int
	size       int

	totalWrites int64
	totalReads  int64

	mutex sync.Mutex
}

// NewRing allocates a ring for capacity samples. Capacity below 1 is
// raised to 1 so the buffer is always usable.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{
		capacity:     capacity,
		timeData:     make([]float64, capacity),
		platformData: make([]float64, capacity),
		forceData:    make([]float64, capacity),
		freqData:     make([]float64, capacity),
		phaseData:    make([]float64, capacity),
	}
}

// Append writes all five channel values of one sample. O(1), never fails.
func (r *Ring) Append(s models.Sample) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	idx := r.writeIndex
	r.timeData[idx] = s.Time
	r.platformData[idx] = s.PlatformPosition
	r.forceData[idx] = s.TireForce
	r.freqData[idx] = s.Frequency
	r.phaseData[idx] = s.PhaseShift

	r.writeIndex = (r.writeIndex + 1) % r.capacity
	if r.size < r.capacity {
		r.size++
	}
	r.totalWrites++
}

// GetData returns a chronological copy of up to size points. When
// maxPoints > 0 and smaller than the stored size, a uniformly strided
// subsample of exactly maxPoints indices is returned (plain decimation,
// meant for bulk export). maxPoints <= 0 means all points.
func (r *Ring) GetData(maxPoints int) models.ChannelArrays {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.size == 0 {
		return emptyArrays()
	}

	n := r.size
	var indices []int
	if maxPoints > 0 && maxPoints < n {
		step := n / maxPoints
		indices = make([]int, 0, maxPoints)
		for i := 0; i < n && len(indices) < maxPoints; i += step {
			indices = append(indices, i)
		}
	} else {
		indices = make([]int, n)
		for i := range indices {
			indices[i] = i
		}
	}

	// Logical index 0 is the oldest sample. When the buffer has wrapped
	// the oldest slot sits at writeIndex.
	start := 0
	if r.size == r.capacity {
		start = r.writeIndex
	}

	out := makeArrays(len(indices))
	for i, logical := range indices {
		phys := (start + logical) % r.capacity
		out.Time[i] = r.timeData[phys]
		out.PlatformPosition[i] = r.platformData[phys]
		out.TireForce[i] = r.forceData[phys]
		out.Frequency[i] = r.freqData[phys]
		out.PhaseShift[i] = r.phaseData[phys]
	}

	r.totalReads++
	return out
}

// GetRecent returns the most recent min(n, size) points in chronological
// order, handling the wraparound window in two segments.
func (r *Ring) GetRecent(n int) models.ChannelArrays {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.size == 0 || n <= 0 {
		return emptyArrays()
	}

	count := n
	if count > r.size {
		count = r.size
	}

	// Oldest slot of the window.
	var start int
	if r.size < r.capacity {
		start = r.size - count
	} else {
		start = (r.writeIndex - count + r.capacity*2) % r.capacity
	}

	out := makeArrays(count)
	for i := 0; i < count; i++ {
		phys := (start + i) % r.capacity
		out.Time[i] = r.timeData[phys]
		out.PlatformPosition[i] = r.platformData[phys]
		out.TireForce[i] = r.forceData[phys]
		out.Frequency[i] = r.freqData[phys]
		out.PhaseShift[i] = r.phaseData[phys]
	}

	r.totalReads++
	return out
}

// Clear resets the indices. The backing arrays are not zeroed.
func (r *Ring) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.writeIndex = 0
	r.size = 0
}

// Size returns the number of stored samples.
func (r *Ring) Size() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.size
}

// Capacity returns the fixed capacity.
func (r *Ring) Capacity() int { return r.capacity }

// Stats returns occupancy and traffic counters.
func (r *Ring) Stats() RingStats {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return RingStats{
		Capacity:     r.capacity,
		Size:         r.size,
		UsagePercent: float64(r.size) / float64(r.capacity) * 100.0,
		TotalWrites:  r.totalWrites,
		TotalReads:   r.totalReads,
	}
}

func makeArrays(n int) models.ChannelArrays {
	return models.ChannelArrays{
		Time:             make([]float64, n),
		PlatformPosition: make([]float64, n),
		TireForce:        make([]float64, n),
		Frequency:        make([]float64, n),
		PhaseShift:       make([]float64, n),
	}
}

func emptyArrays() models.ChannelArrays {
	return makeArrays(0)
}
