package profiler

import (
	"log"
	"runtime"
	"time"
)

const mebibyte = 1 << 20

// Geometry is what the engine drew in one frame.
type Geometry struct {
	Layers    int
	Drawn     int
	Skipped   int
	Vertices  int
	Triangles int
}

// Profiler aggregates frame timing, Go heap and skeleton geometry statistics and writes a
// summary to the log once per update interval. It is not safe for concurrent use; the engine
// only touches it from the render goroutine.
type Profiler struct {
	updateInterval time.Duration

	windowStart time.Time
	frames      int

	memStats  runtime.MemStats
	lastGC    uint32
	lastAlloc uint64

	geometry      Geometry
	geometryCount int
	peakVertices  int
}

// NewProfiler creates a Profiler that reports every second unless configured otherwise.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the profiler
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		windowStart:    time.Now(),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// RecordGeometry adds a frame's geometry to the totals of the current report window.
func (p *Profiler) RecordGeometry(g Geometry) {
	p.geometry.Layers += g.Layers
	p.geometry.Drawn += g.Drawn
	p.geometry.Skipped += g.Skipped
	p.geometry.Vertices += g.Vertices
	p.geometry.Triangles += g.Triangles
	p.geometryCount++
	p.peakVertices = max(p.peakVertices, g.Vertices)
}

// Tick counts a frame. Once the update interval has passed it logs frame rate, heap size,
// allocation rate, GC pauses and, if any was recorded, the average geometry per frame, then
// starts a new window.
//
// Returns:
//   - bool: true if a report was logged
func (p *Profiler) Tick() bool {
	p.frames++
	now := time.Now()
	elapsed := now.Sub(p.windowStart)
	if elapsed < p.updateInterval {
		return false
	}
	seconds := max(elapsed.Seconds(), 1e-9)

	runtime.ReadMemStats(&p.memStats)
	lastPause, maxPause := p.gcPauses()
	log.Printf("[Profiler] FPS: %.2f | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		float64(p.frames)/seconds,
		float64(p.memStats.Alloc)/mebibyte,
		float64(p.memStats.TotalAlloc-p.lastAlloc)/mebibyte/seconds,
		p.memStats.NumGC, lastPause.Microseconds(), maxPause.Microseconds(),
		float64(p.memStats.Sys)/mebibyte)

	if n := float64(p.geometryCount); n > 0 {
		log.Printf("[Profiler] Geometry: %.0f verts | %.0f tris | %.1f draws per frame | peak %d verts | %d skipped",
			float64(p.geometry.Vertices)/n, float64(p.geometry.Triangles)/n, float64(p.geometry.Drawn)/n,
			p.peakVertices, p.geometry.Skipped)
	}

	p.windowStart = now
	p.frames = 0
	p.lastGC = p.memStats.NumGC
	p.lastAlloc = p.memStats.TotalAlloc
	p.geometry, p.geometryCount, p.peakVertices = Geometry{}, 0, 0
	return true
}

// gcPauses returns the most recent GC pause and the longest one since the previous report.
// PauseNs is a ring of the last 256 pauses.
func (p *Profiler) gcPauses() (last, longest time.Duration) {
	const ring = uint32(len(p.memStats.PauseNs))
	n := p.memStats.NumGC
	if n == 0 {
		return 0, 0
	}
	last = time.Duration(p.memStats.PauseNs[(n-1)%ring])
	for i := max(p.lastGC, n-min(n, ring)); i < n; i++ {
		longest = max(longest, time.Duration(p.memStats.PauseNs[i%ring]))
	}
	return last, longest
}
