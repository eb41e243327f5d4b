package buffer

import "sync"

// PoolStats exposes the retained/in-use balance of a Pool.
type PoolStats struct {
	Capacity  int `json:"capacity"`
	Available int `json:"available"`
	ArraySize int `json:"array_size"`
}

// Pool keeps a bounded set of reusable float64 scratch arrays so the
// periodic analysis path does not allocate on every run. Acquire never
// blocks: when the pool is empty a fresh array is allocated. Release
// drops the array when the pool is already at capacity.
type Pool struct {
	capacity  int
	arraySize int
	available [][]float64
	mutex     sync.Mutex
}

// NewPool pre-allocates capacity arrays of arraySize each.
func NewPool(capacity, arraySize int) *Pool {
	if capacity < 0 {
		capacity = 0
	}
	if arraySize < 1 {
		arraySize = 1
	}
	p := &Pool{
		capacity:  capacity,
		arraySize: arraySize,
		available: make([][]float64, 0, capacity),
	}
	for i := 0; i < capacity; i++ {
		p.available = append(p.available, make([]float64, arraySize))
	}
	return p
}

// Acquire returns a zeroed array of the pool's array size.
func (p *Pool) Acquire() []float64 {
	p.mutex.Lock()
	if n := len(p.available); n > 0 {
		arr := p.available[n-1]
		p.available = p.available[:n-1]
		p.mutex.Unlock()
		for i := range arr {
			arr[i] = 0
		}
		return arr
	}
	p.mutex.Unlock()
	return make([]float64, p.arraySize)
}

// Release returns an array to the pool. Arrays of the wrong size and
// arrays beyond the retained capacity are dropped.
func (p *Pool) Release(arr []float64) {
	if len(arr) != p.arraySize {
		return
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if len(p.available) < p.capacity {
		p.available = append(p.available, arr)
	}
}

// Stats returns the current retained count.
func (p *Pool) Stats() PoolStats {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return PoolStats{
		Capacity:  p.capacity,
		Available: len(p.available),
		ArraySize: p.arraySize,
	}
}
